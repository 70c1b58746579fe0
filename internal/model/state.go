package model

import "time"

// PipelineStage is the current position of a product in the optimization
// state machine.
type PipelineStage string

const (
	StageNotStarted           PipelineStage = "not_started"
	StageAnalysisReady        PipelineStage = "analysis_ready"
	StageRecommendationsReady PipelineStage = "recommendations_ready"
	StageAwaitingApproval     PipelineStage = "awaiting_approval"
	StageApplying             PipelineStage = "applying"
	StageCompleted            PipelineStage = "completed"
	StageFailed               PipelineStage = "failed"
)

// PipelineState is the live state of one optimization cycle for one product.
// There is exactly one per product at a time; a new cycle resets it before
// re-entering the analysis stage.
type PipelineState struct {
	ProductID       string             `json:"product_id"`
	Stage           PipelineStage      `json:"stage"`
	Analysis        *Artifact          `json:"analysis,omitempty"`
	Recommendations *RecommendationSet `json:"recommendations,omitempty"`
	Outcomes        []ApplyOutcome     `json:"outcomes,omitempty"`
	Summary         *Artifact          `json:"summary,omitempty"`
	Error           string             `json:"error,omitempty"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// Terminal reports whether the cycle has finished, successfully or not.
func (s *PipelineState) Terminal() bool {
	return s.Stage == StageCompleted || s.Stage == StageFailed
}

// CanStartAnalysis reports whether a StartAnalysis command is admissible from
// the current stage. Re-running from a terminal or approval stage begins a
// new cycle; only an in-flight apply blocks it.
func (s *PipelineState) CanStartAnalysis() bool {
	return s.Stage != StageApplying
}

// CanAccept reports whether an Accept command is admissible.
func (s *PipelineState) CanAccept() bool {
	return s.Stage == StageAwaitingApproval
}

// CanReject reports whether a Reject command is admissible.
func (s *PipelineState) CanReject() bool {
	return s.Stage == StageAwaitingApproval
}
