// Package catalog owns the product listings the pipeline reads and mutates.
// Products are loaded once from a CSV or XLSX export and held in memory; the
// apply stage mutates them one field edit at a time.
package catalog

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/listing-cli/internal/model"
)

// ErrNotFound is returned when a product id has no catalog entry.
var ErrNotFound = eris.New("catalog: product not found")

// FieldEdit is a single-field mutation request. Bullet edits are positional:
// BulletIndex addresses an existing bullet, model.BulletAppend appends.
type FieldEdit struct {
	Field       model.Field
	BulletIndex int
	Value       string
}

// Store is the product access surface the pipeline depends on.
type Store interface {
	Get(ctx context.Context, productID string) (*model.Product, error)
	List(ctx context.Context) ([]model.Product, error)
	SearchTitle(ctx context.Context, query string) ([]model.Product, error)
	// ApplyEdit mutates one field. It is idempotent on identical input; the
	// surrounding application layers retries above it.
	ApplyEdit(ctx context.Context, productID string, edit FieldEdit) error
	Count() int
}

// MemoryStore implements Store over products loaded from a catalog file.
type MemoryStore struct {
	mu       sync.RWMutex
	products []*model.Product
	byID     map[string]*model.Product
}

// NewFromFile loads a catalog from path, dispatching on the file extension
// (.csv or .xlsx). sheetName selects the worksheet for XLSX files and is
// ignored for CSV.
func NewFromFile(path, sheetName string) (*MemoryStore, error) {
	var (
		products []*model.Product
		err      error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		products, err = loadCSV(path)
	case ".xlsx":
		products, err = loadXLSX(path, sheetName)
	default:
		return nil, eris.Errorf("catalog: unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	s := newMemoryStore(products)
	zap.L().Info("catalog: loaded products",
		zap.String("path", path),
		zap.Int("count", s.Count()),
	)
	return s, nil
}

func newMemoryStore(products []*model.Product) *MemoryStore {
	s := &MemoryStore{
		products: products,
		byID:     make(map[string]*model.Product, len(products)),
	}
	for _, p := range products {
		s.byID[p.ID] = p
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, productID string) (*model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[productID]
	if !ok {
		return nil, eris.Wrapf(ErrNotFound, "%s", productID)
	}
	cp := *p
	cp.BulletPoints = append([]string(nil), p.BulletPoints...)
	cp.ImageURLs = append([]string(nil), p.ImageURLs...)
	return &cp, nil
}

func (s *MemoryStore) List(_ context.Context) ([]model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, *p)
	}
	return out, nil
}

func (s *MemoryStore) SearchTitle(_ context.Context, query string) ([]model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Product
	for _, p := range s.products {
		if p.MatchesTitle(query) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

// ApplyEdit validates and applies a single field edit. Scalar fields reject
// empty values; bullet replacements reject indexes past the current sequence.
func (s *MemoryStore) ApplyEdit(_ context.Context, productID string, edit FieldEdit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[productID]
	if !ok {
		return eris.Wrapf(ErrNotFound, "%s", productID)
	}

	value := strings.TrimSpace(edit.Value)
	if value == "" {
		return eris.Errorf("catalog: new %s cannot be empty", edit.Field)
	}

	switch edit.Field {
	case model.FieldTitle:
		p.Title = value
	case model.FieldDescription:
		p.Description = value
	case model.FieldCategory:
		p.Category = value
	case model.FieldBrand:
		p.Brand = value
	case model.FieldBullet:
		if edit.BulletIndex == model.BulletAppend {
			// Appends must stay idempotent on identical input; retries are
			// layered above this call.
			if n := len(p.BulletPoints); n > 0 && p.BulletPoints[n-1] == value {
				return nil
			}
			p.BulletPoints = append(p.BulletPoints, value)
			return nil
		}
		if edit.BulletIndex < 0 || edit.BulletIndex >= len(p.BulletPoints) {
			return eris.Errorf("catalog: bullet index %d out of range, product has %d bullet points",
				edit.BulletIndex, len(p.BulletPoints))
		}
		p.BulletPoints[edit.BulletIndex] = value
	default:
		return eris.Errorf("catalog: unknown field %q", edit.Field)
	}

	return nil
}
