package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/amaumene/foldpredict/internal/domain"
	"github.com/timshannon/bolthold"
	bolt "go.etcd.io/bbolt"
)

// ErrLocked is returned by OpenStoreReadOnly when another process, usually a
// running server, holds the database lock.
var ErrLocked = errors.New("database is locked by another process")

type predictionRepository struct {
	store *bolthold.Store
}

// OpenStore opens (or creates) the BoltHold database at path.
func OpenStore(path string, perm os.FileMode) (*bolthold.Store, error) {
	store, err := bolthold.Open(path, perm, nil)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return store, nil
}

// OpenStoreReadOnly opens an existing database without taking the write lock,
// giving up after timeout if a writer holds it.
func OpenStoreReadOnly(path string, timeout time.Duration) (*bolthold.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	store, err := bolthold.Open(path, 0, &bolthold.Options{
		Options: &bolt.Options{ReadOnly: true, Timeout: timeout},
	})
	if errors.Is(err, bolt.ErrTimeout) {
		return nil, fmt.Errorf("opening database: %w: %w", ErrLocked, err)
	}
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return store, nil
}

func NewPredictionRepository(store *bolthold.Store) domain.PredictionRepository {
	return &predictionRepository{store: store}
}

func (r *predictionRepository) Insert(ctx context.Context, prediction *domain.Prediction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := r.store.Insert(prediction.ID, prediction); err != nil {
		return fmt.Errorf("inserting prediction: %w", err)
	}
	return nil
}

func (r *predictionRepository) Get(ctx context.Context, id string) (*domain.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var prediction domain.Prediction
	if err := r.store.Get(id, &prediction); err != nil {
		if errors.Is(err, bolthold.ErrNotFound) {
			return nil, domain.ErrPredictionNotFound
		}
		return nil, fmt.Errorf("getting prediction: %w", err)
	}
	return &prediction, nil
}

// List returns predictions newest first. A limit of zero returns all.
func (r *predictionRepository) List(ctx context.Context, limit int) ([]domain.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := bolthold.Where("ID").Ne("").SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var predictions []domain.Prediction
	if err := r.store.Find(&predictions, query); err != nil {
		return nil, fmt.Errorf("listing predictions: %w", err)
	}
	return predictions, nil
}

func (r *predictionRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var prediction domain.Prediction
	if err := r.store.Delete(id, &prediction); err != nil {
		if errors.Is(err, bolthold.ErrNotFound) {
			return domain.ErrPredictionNotFound
		}
		return fmt.Errorf("deleting prediction: %w", err)
	}
	return nil
}

func (r *predictionRepository) FindOlderThan(ctx context.Context, cutoff time.Time) ([]domain.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var predictions []domain.Prediction
	err := r.store.Find(&predictions, bolthold.Where("CreatedAt").Lt(cutoff).SortBy("CreatedAt"))
	if err != nil {
		return nil, fmt.Errorf("finding expired predictions: %w", err)
	}
	return predictions, nil
}

func (r *predictionRepository) Close() error {
	return r.store.Close()
}
