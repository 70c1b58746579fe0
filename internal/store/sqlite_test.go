package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/listing-cli/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "listing.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStateRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	st := &model.PipelineState{
		ProductID: "B0BGR4FTZS",
		Stage:     model.StageAwaitingApproval,
		Recommendations: &model.RecommendationSet{
			ProductID:  "B0BGR4FTZS",
			ArtifactID: "art-1",
			Items: []model.RecommendationItem{
				{ID: "r1", Title: "Sharpen title", Field: model.FieldTitle, Value: "New title"},
			},
		},
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.SaveState(ctx, st))

	got, err := s.GetState(ctx, "B0BGR4FTZS")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.StageAwaitingApproval, got.Stage)
	require.NotNil(t, got.Recommendations)
	assert.Len(t, got.Recommendations.Items, 1)
	assert.Equal(t, model.FieldTitle, got.Recommendations.Items[0].Field)
}

func TestSQLiteStateUpsert(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.SaveState(ctx, &model.PipelineState{ProductID: "p1", Stage: model.StageAnalysisReady}))
	require.NoError(t, s.SaveState(ctx, &model.PipelineState{ProductID: "p1", Stage: model.StageCompleted}))

	got, err := s.GetState(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.StageCompleted, got.Stage)

	states, err := s.ListStates(ctx)
	require.NoError(t, err)
	assert.Len(t, states, 1)
}

func TestSQLiteGetStateMissing(t *testing.T) {
	s := newTestSQLite(t)

	got, err := s.GetState(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteArtifactOverwrite(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	first := &model.Artifact{
		ID:          "a1",
		ProductID:   "p1",
		Stage:       model.StageAnalysis,
		Text:        "first analysis",
		GeneratedAt: time.Now().UTC(),
	}
	require.NoError(t, s.SaveArtifact(ctx, first))

	// Same (product, stage) replaces rather than duplicating.
	second := &model.Artifact{
		ID:          "a2",
		ProductID:   "p1",
		Stage:       model.StageAnalysis,
		Text:        "regenerated analysis",
		GeneratedAt: time.Now().UTC(),
	}
	require.NoError(t, s.SaveArtifact(ctx, second))

	got, err := s.GetArtifact(ctx, "p1", model.StageAnalysis)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a2", got.ID)
	assert.Equal(t, "regenerated analysis", got.Text)
}

func TestSQLiteArtifactMissing(t *testing.T) {
	s := newTestSQLite(t)

	got, err := s.GetArtifact(context.Background(), "p1", model.StageSummary)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteSaveArtifactAssignsID(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.SaveArtifact(ctx, &model.Artifact{
		ProductID:   "p1",
		Stage:       model.StageSummary,
		Text:        "summary",
		GeneratedAt: time.Now().UTC(),
	}))

	got, err := s.GetArtifact(ctx, "p1", model.StageSummary)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.NotEmpty(t, got.ID)
}

func TestSQLiteDeleteArtifacts(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	for _, stage := range []model.Stage{model.StageAnalysis, model.StageRecommendation, model.StageSummary} {
		require.NoError(t, s.SaveArtifact(ctx, &model.Artifact{
			ProductID:   "p1",
			Stage:       stage,
			Text:        string(stage),
			GeneratedAt: time.Now().UTC(),
		}))
	}

	// Stage-filtered delete leaves the analysis artifact in place.
	n, err := s.DeleteArtifacts(ctx, "p1", model.StageRecommendation, model.StageSummary)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := s.GetArtifact(ctx, "p1", model.StageAnalysis)
	require.NoError(t, err)
	assert.NotNil(t, got)

	got, err = s.GetArtifact(ctx, "p1", model.StageRecommendation)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Unfiltered delete removes the rest.
	n, err = s.DeleteArtifacts(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
