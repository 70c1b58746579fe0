package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/listing-cli/internal/model"
)

const sampleRecommendations = `Here are my recommendations.

## Recommendation 1: Lead the title with the brand
**Field:** title
**Proposed Change:**
Acme Pro Stainless Steel Water Bottle, 32 oz, Leak-Proof
**Rationale:** Titles should lead with brand and key attributes.

## Recommendation 2: Replace the weakest bullet
**Field:** bullet_point[5]
**Proposed Change:**
Leak-proof lid tested to 10,000 open and close cycles
**Rationale:** The current bullet repeats the title.

## Recommendation 3: Expand the description
**Field:** description
**Proposed Change:**
The Acme Pro keeps drinks cold for 24 hours.
Doubles as a travel companion for hiking and commuting.
**Rationale:** Short descriptions underperform in search.
`

func recArtifact(text string) *model.Artifact {
	return &model.Artifact{ID: "art-1", ProductID: "p1", Stage: model.StageRecommendation, Text: text}
}

func TestParseRecommendations(t *testing.T) {
	set := ParseRecommendations(recArtifact(sampleRecommendations))

	assert.Equal(t, "p1", set.ProductID)
	assert.Equal(t, "art-1", set.ArtifactID)
	require.Len(t, set.Items, 3)

	assert.Equal(t, "Lead the title with the brand", set.Items[0].Title)
	assert.Equal(t, model.FieldTitle, set.Items[0].Field)
	assert.Equal(t, "Acme Pro Stainless Steel Water Bottle, 32 oz, Leak-Proof", set.Items[0].Value)
	assert.NotEmpty(t, set.Items[0].Rationale)

	assert.Equal(t, model.FieldBullet, set.Items[1].Field)
	assert.Equal(t, 5, set.Items[1].BulletIndex)

	assert.Equal(t, model.FieldDescription, set.Items[2].Field)
	// Multi-line proposed changes keep their internal newline.
	assert.Contains(t, set.Items[2].Value, "cold for 24 hours.\n")

	// Item ids are unique within the set.
	assert.NotEqual(t, set.Items[0].ID, set.Items[1].ID)
}

func TestParseBulletAppend(t *testing.T) {
	text := `## Recommendation 1: Add a warranty bullet
**Field:** bullet_point[append]
**Proposed Change:**
Backed by a lifetime warranty
**Rationale:** Warranty mentions build trust.
`
	set := ParseRecommendations(recArtifact(text))
	require.Len(t, set.Items, 1)
	assert.Equal(t, model.FieldBullet, set.Items[0].Field)
	assert.Equal(t, model.BulletAppend, set.Items[0].BulletIndex)
}

func TestParseDropsMalformedSections(t *testing.T) {
	text := `## Recommendation 1: Good one
**Field:** title
**Proposed Change:**
A better title
**Rationale:** fine

## Recommendation 2: Unknown field
**Field:** price
**Proposed Change:**
9.99

## Recommendation 3: Missing value
**Field:** description
**Rationale:** no proposed change block

## Recommendation 4: Bare bullet field
**Field:** bullet_point
**Proposed Change:**
something
`
	set := ParseRecommendations(recArtifact(text))
	require.Len(t, set.Items, 1)
	assert.Equal(t, model.FieldTitle, set.Items[0].Field)
}

func TestParseEmptyArtifact(t *testing.T) {
	set := ParseRecommendations(recArtifact("The model declined to produce recommendations."))
	assert.Empty(t, set.Items)
	assert.Equal(t, "p1", set.ProductID)
}

func TestParseFieldSpecCaseInsensitive(t *testing.T) {
	text := `## Recommendation 1: Casing
**Field:** Title
**Proposed Change:**
New title
`
	set := ParseRecommendations(recArtifact(text))
	require.Len(t, set.Items, 1)
	assert.Equal(t, model.FieldTitle, set.Items[0].Field)
}
