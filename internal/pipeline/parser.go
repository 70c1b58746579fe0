package pipeline

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/listing-cli/internal/model"
)

var (
	recHeaderRe = regexp.MustCompile(`(?m)^##\s+Recommendation\s+\d+\s*:?\s*(.*)$`)
	bulletRe    = regexp.MustCompile(`^bullet_point\[(append|\d+)\]$`)
)

// ParseRecommendations extracts structured field edits from a recommendation
// artifact. The parser is deliberately lenient: malformed sections are
// dropped and logged, never surfaced as errors, so a degraded model response
// still yields a reviewable (possibly empty) recommendation set.
func ParseRecommendations(artifact *model.Artifact) *model.RecommendationSet {
	set := &model.RecommendationSet{
		ProductID:  artifact.ProductID,
		ArtifactID: artifact.ID,
	}

	headers := recHeaderRe.FindAllStringSubmatchIndex(artifact.Text, -1)
	for i, h := range headers {
		title := strings.TrimSpace(artifact.Text[h[2]:h[3]])
		end := len(artifact.Text)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}
		body := artifact.Text[h[1]:end]

		item, ok := parseSection(title, body)
		if !ok {
			zap.L().Warn("dropping malformed recommendation section",
				zap.String("product_id", artifact.ProductID),
				zap.String("title", title),
			)
			continue
		}
		set.Items = append(set.Items, item)
	}

	if len(set.Items) < len(headers) {
		zap.L().Info("recommendation parse degraded",
			zap.String("product_id", artifact.ProductID),
			zap.Int("sections", len(headers)),
			zap.Int("parsed", len(set.Items)),
		)
	}
	return set
}

// parseSection reads one recommendation body. A section is well-formed when
// it names a valid field and carries a non-empty proposed value.
func parseSection(title, body string) (model.RecommendationItem, bool) {
	item := model.RecommendationItem{
		ID:    uuid.New().String(),
		Title: title,
	}

	fieldSpec, _ := markerValue(body, "**Field:**")
	field, bulletIndex, ok := parseFieldSpec(fieldSpec)
	if !ok {
		return item, false
	}
	item.Field = field
	item.BulletIndex = bulletIndex

	value, ok := markerValue(body, "**Proposed Change:**")
	if !ok || value == "" {
		return item, false
	}
	item.Value = value

	item.Rationale, _ = markerValue(body, "**Rationale:**")
	return item, true
}

// markerValue returns the text following marker: the remainder of the
// marker's line plus any subsequent lines up to the next bold marker.
func markerValue(body, marker string) (string, bool) {
	idx := strings.Index(body, marker)
	if idx < 0 {
		return "", false
	}
	rest := body[idx+len(marker):]

	var lines []string
	for _, line := range strings.Split(rest, "\n") {
		if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(line), "**") {
			break
		}
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), true
}

func parseFieldSpec(spec string) (model.Field, int, bool) {
	spec = strings.ToLower(strings.TrimSpace(spec))

	if m := bulletRe.FindStringSubmatch(spec); m != nil {
		if m[1] == "append" {
			return model.FieldBullet, model.BulletAppend, true
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			return "", 0, false
		}
		return model.FieldBullet, idx, true
	}

	f := model.Field(spec)
	if f == model.FieldBullet || !model.ValidField(f) {
		// A bare "bullet_point" without an index is ambiguous.
		return "", 0, false
	}
	return f, 0, true
}
