package model

import "time"

// Stage identifies one generation step of the optimization pipeline.
type Stage string

const (
	StageAnalysis       Stage = "analysis"
	StageRecommendation Stage = "recommendation"
	StageSummary        Stage = "summary"
)

// Artifact is an immutable text output of a generation stage, cached per
// (product, stage). Regeneration supersedes an artifact, it never mutates one.
type Artifact struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	Stage       Stage     `json:"stage"`
	Text        string    `json:"text"`
	GeneratedAt time.Time `json:"generated_at"`
}
