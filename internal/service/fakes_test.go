package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/amaumene/foldpredict/internal/config"
	"github.com/amaumene/foldpredict/internal/domain"
	"github.com/amaumene/foldpredict/internal/storage"
)

const testPDB = `HEADER    PREDICTED
ATOM      1  N   MET A   1      10.000  10.000  10.000  1.00 90.00           N
ATOM      2  CA  MET A   1      11.000  10.000  10.000  1.00 80.00           C
ATOM      3  C   MET A   1      12.000  10.000  10.000  1.00 70.00           C
ATOM      4  O   MET A   1      13.000  10.000  10.000  1.00 60.00           O
ATOM      5  H   MET A   1       9.000  10.000  10.000  1.00 50.00           H
END
`

type fakeFolder struct {
	pdb   []byte
	err   error
	calls []string
}

func (f *fakeFolder) Fold(ctx context.Context, seq string) ([]byte, error) {
	f.calls = append(f.calls, seq)
	if f.err != nil {
		return nil, f.err
	}
	return f.pdb, nil
}

type fakeRepo struct {
	mu          sync.Mutex
	predictions map[string]domain.Prediction
	insertErr   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{predictions: make(map[string]domain.Prediction)}
}

func (r *fakeRepo) Insert(ctx context.Context, p *domain.Prediction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	if _, ok := r.predictions[p.ID]; ok {
		return fmt.Errorf("duplicate %s", p.ID)
	}
	r.predictions[p.ID] = *p
	return nil
}

func (r *fakeRepo) Get(ctx context.Context, id string) (*domain.Prediction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.predictions[id]
	if !ok {
		return nil, domain.ErrPredictionNotFound
	}
	return &p, nil
}

func (r *fakeRepo) List(ctx context.Context, limit int) ([]domain.Prediction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Prediction
	for _, p := range r.predictions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.predictions[id]; !ok {
		return domain.ErrPredictionNotFound
	}
	delete(r.predictions, id)
	return nil
}

func (r *fakeRepo) FindOlderThan(ctx context.Context, cutoff time.Time) ([]domain.Prediction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Prediction
	for _, p := range r.predictions {
		if p.CreatedAt.Before(cutoff) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRepo) Close() error { return nil }

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.MaxSequenceLength = 20
	return cfg
}

func newTestFiles(t *testing.T) *storage.FileStore {
	t.Helper()
	files, err := storage.NewFileStore(filepath.Join(t.TempDir(), "static"), 0o755)
	if err != nil {
		t.Fatalf("creating file store: %v", err)
	}
	return files
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("pred-%d", n)
	}
}

var errBoom = errors.New("boom")
