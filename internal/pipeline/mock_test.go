package pipeline

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/listing-cli/internal/catalog"
	"github.com/sells-group/listing-cli/internal/generate"
	"github.com/sells-group/listing-cli/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// mockGenerator implements generate.Generator with scripted per-stage output.
type mockGenerator struct {
	mu      sync.Mutex
	outputs map[model.Stage]string
	errs    map[model.Stage]error
	calls   map[model.Stage]int
	lastIn  map[model.Stage]generate.Inputs
	block   chan struct{} // when set, Generate waits before returning
}

func newMockGenerator() *mockGenerator {
	return &mockGenerator{
		outputs: make(map[model.Stage]string),
		errs:    make(map[model.Stage]error),
		calls:   make(map[model.Stage]int),
		lastIn:  make(map[model.Stage]generate.Inputs),
	}
}

func (m *mockGenerator) Generate(_ context.Context, stage model.Stage, _ *model.Product, in generate.Inputs) (string, error) {
	m.mu.Lock()
	m.calls[stage]++
	m.lastIn[stage] = in
	block := m.block
	err := m.errs[stage]
	out := m.outputs[stage]
	m.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return "", err
	}
	return out, nil
}

func (m *mockGenerator) callCount(stage model.Stage) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[stage]
}

func (m *mockGenerator) inputs(stage model.Stage) generate.Inputs {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastIn[stage]
}

// mockProducts implements catalog.Store over a map, with per-field apply
// failure injection.
type mockProducts struct {
	mu       sync.Mutex
	products map[string]*model.Product
	failOn   map[model.Field]error
	edits    []catalog.FieldEdit
}

func newMockProducts(products ...*model.Product) *mockProducts {
	m := &mockProducts{
		products: make(map[string]*model.Product),
		failOn:   make(map[model.Field]error),
	}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockProducts) Get(_ context.Context, productID string) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return p, nil
}

func (m *mockProducts) List(_ context.Context) ([]model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Product
	for _, p := range m.products {
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockProducts) SearchTitle(context.Context, string) ([]model.Product, error) {
	return nil, nil
}

func (m *mockProducts) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.products)
}

func (m *mockProducts) ApplyEdit(_ context.Context, productID string, edit catalog.FieldEdit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failOn[edit.Field]; err != nil {
		return err
	}
	p, ok := m.products[productID]
	if !ok {
		return catalog.ErrNotFound
	}

	switch edit.Field {
	case model.FieldTitle:
		p.Title = edit.Value
	case model.FieldDescription:
		p.Description = edit.Value
	case model.FieldCategory:
		p.Category = edit.Value
	case model.FieldBrand:
		p.Brand = edit.Value
	case model.FieldBullet:
		if edit.BulletIndex == model.BulletAppend {
			p.BulletPoints = append(p.BulletPoints, edit.Value)
		} else if edit.BulletIndex < 0 || edit.BulletIndex >= len(p.BulletPoints) {
			return fmt.Errorf("bullet index %d out of range (have %d)", edit.BulletIndex, len(p.BulletPoints))
		} else {
			p.BulletPoints[edit.BulletIndex] = edit.Value
		}
	}
	m.edits = append(m.edits, edit)
	return nil
}

// memStore implements store.Store in memory for orchestrator tests.
type memStore struct {
	mu        sync.Mutex
	states    map[string]*model.PipelineState
	artifacts map[string]*model.Artifact
	stageLog  []model.PipelineStage
}

func newMemStore() *memStore {
	return &memStore{
		states:    make(map[string]*model.PipelineState),
		artifacts: make(map[string]*model.Artifact),
	}
}

func (s *memStore) SaveState(_ context.Context, state *model.PipelineState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *state
	s.states[state.ProductID] = &cp
	s.stageLog = append(s.stageLog, state.Stage)
	return nil
}

func (s *memStore) stages() []model.PipelineStage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.PipelineStage(nil), s.stageLog...)
}

func (s *memStore) GetState(_ context.Context, productID string) (*model.PipelineState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[productID]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

func (s *memStore) ListStates(context.Context) ([]model.PipelineState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.PipelineState
	for _, st := range s.states {
		out = append(out, *st)
	}
	return out, nil
}

func (s *memStore) SaveArtifact(_ context.Context, a *model.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[a.ProductID+"/"+string(a.Stage)] = a
	return nil
}

func (s *memStore) GetArtifact(_ context.Context, productID string, stage model.Stage) (*model.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.artifacts[productID+"/"+string(stage)], nil
}

func (s *memStore) DeleteArtifacts(_ context.Context, productID string, stages ...model.Stage) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(stages) == 0 {
		stages = []model.Stage{model.StageAnalysis, model.StageRecommendation, model.StageSummary}
	}
	n := 0
	for _, st := range stages {
		k := productID + "/" + string(st)
		if _, ok := s.artifacts[k]; ok {
			delete(s.artifacts, k)
			n++
		}
	}
	return n, nil
}

func (s *memStore) Migrate(context.Context) error { return nil }
func (s *memStore) Close() error                  { return nil }
