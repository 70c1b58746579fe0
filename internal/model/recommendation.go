package model

// BulletAppend marks a bullet edit that appends rather than replacing an index.
const BulletAppend = -1

// RecommendationItem is one proposed field edit parsed from a recommendation
// artifact. Immutable once parsed.
type RecommendationItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Field Field  `json:"field"`
	// BulletIndex is the zero-based target position for bullet_point edits,
	// or BulletAppend. Ignored for scalar fields.
	BulletIndex int    `json:"bullet_index,omitempty"`
	Value       string `json:"value"`
	Rationale   string `json:"rationale,omitempty"`
}

// RecommendationSet is the ordered, read-only output of the recommendation
// stage for one product.
type RecommendationSet struct {
	ProductID  string               `json:"product_id"`
	ArtifactID string               `json:"artifact_id"`
	Items      []RecommendationItem `json:"items"`
}

// ApplyStatus is the terminal status of a single apply attempt.
type ApplyStatus string

const (
	ApplyStatusApplied ApplyStatus = "applied"
	ApplyStatusFailed  ApplyStatus = "failed"
)

// ApplyOutcome records the result of applying one RecommendationItem. A
// failure never aborts sibling items; the apply stage reports one outcome per
// input item, in input order.
type ApplyOutcome struct {
	ItemID string      `json:"item_id"`
	Status ApplyStatus `json:"status"`
	Detail string      `json:"detail,omitempty"`
}

// Applied counts outcomes with ApplyStatusApplied.
func Applied(outcomes []ApplyOutcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Status == ApplyStatusApplied {
			n++
		}
	}
	return n
}
