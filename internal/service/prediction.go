package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amaumene/foldpredict/internal/config"
	"github.com/amaumene/foldpredict/internal/domain"
	"github.com/amaumene/foldpredict/internal/metrics"
	"github.com/amaumene/foldpredict/internal/sequence"
	"github.com/amaumene/foldpredict/internal/structure"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

type PredictionService struct {
	cfg    *config.Config
	folder domain.FoldingClient
	files  domain.StructureStore
	repo   domain.PredictionRepository
	now    func() time.Time
	newID  func() string
}

// NewPredictionService wires the workflow. repo may be nil, in which case
// predictions are not recorded.
func NewPredictionService(cfg *config.Config, folder domain.FoldingClient, files domain.StructureStore, repo domain.PredictionRepository) *PredictionService {
	return &PredictionService{
		cfg:    cfg,
		folder: folder,
		files:  files,
		repo:   repo,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (s *PredictionService) Predict(ctx context.Context, raw string) (*domain.Prediction, error) {
	seq := sequence.Normalize(raw)
	if err := sequence.Validate(seq, s.cfg.MaxSequenceLength); err != nil {
		metrics.RecordPrediction(metrics.OutcomeInvalid)
		return nil, err
	}

	pdb, err := s.fold(ctx, seq)
	if err != nil {
		metrics.RecordPrediction(metrics.OutcomeUpstream)
		return nil, err
	}

	id := s.newID()
	name := domain.StructureFileName(id)
	if err := s.files.Save(ctx, name, pdb); err != nil {
		metrics.RecordPrediction(metrics.OutcomeStorage)
		s.logFailure(id, "failed to store structure file", err)
		return nil, fmt.Errorf("saving structure: %w", err)
	}

	summary, err := s.summarize(name)
	if err != nil {
		metrics.RecordPrediction(metrics.OutcomeProcessing)
		s.logFailure(id, "failed to process structure file", err)
		s.discard(name)
		return nil, err
	}

	prediction := &domain.Prediction{
		ID:              id,
		Sequence:        seq,
		SequenceLength:  len(seq),
		File:            name,
		Confidence:      summary.Confidence,
		MolecularWeight: summary.MolecularWeight,
		CreatedAt:       s.now().UTC(),
	}
	s.record(ctx, prediction)

	metrics.RecordPrediction(metrics.OutcomeSuccess)
	metrics.RecordResidues(prediction.SequenceLength)
	log.WithFields(log.Fields{
		"id":              id,
		"length":          prediction.SequenceLength,
		"atoms":           summary.Atoms,
		"confidence":      summary.Confidence.String(),
		"molecularWeight": summary.MolecularWeight.String(),
		"bytes":           len(pdb),
	}).Info("prediction completed")

	return prediction, nil
}

func (s *PredictionService) fold(ctx context.Context, seq string) ([]byte, error) {
	start := time.Now()
	pdb, err := s.folder.Fold(ctx, seq)
	elapsed := time.Since(start)
	metrics.RecordFolding(elapsed, err)

	if err != nil {
		log.WithFields(log.Fields{
			"length":   len(seq),
			"duration": elapsed,
			"error":    err,
		}).Error("folding request failed")
		return nil, err
	}
	return pdb, nil
}

// summarize reloads the stored file rather than the in-memory response so
// the reported numbers describe exactly what is served.
func (s *PredictionService) summarize(name string) (domain.Summary, error) {
	rc, _, err := s.files.Open(name)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("%w: %w", domain.ErrProcessing, err)
	}
	defer rc.Close()

	return structure.Summarize(rc)
}

func (s *PredictionService) record(ctx context.Context, prediction *domain.Prediction) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Insert(ctx, prediction); err != nil {
		s.logFailure(prediction.ID, "failed to record prediction history", err)
	}
}

func (s *PredictionService) discard(name string) {
	if err := s.files.Remove(name); err != nil {
		log.WithFields(log.Fields{
			"file":  name,
			"error": err,
		}).Warn("failed to remove unusable structure file")
	}
}

func (s *PredictionService) logFailure(id, msg string, err error) {
	log.WithFields(log.Fields{
		"id":    id,
		"error": err,
	}).Error(msg)
}

func (s *PredictionService) Get(ctx context.Context, id string) (*domain.Prediction, error) {
	if s.repo == nil {
		return nil, domain.ErrPredictionNotFound
	}
	return s.repo.Get(ctx, id)
}

// List returns recorded predictions newest first. Non-positive limits use
// DefaultListLimit; larger ones are capped at MaxListLimit.
func (s *PredictionService) List(ctx context.Context, limit int) ([]domain.Prediction, error) {
	if s.repo == nil {
		return []domain.Prediction{}, nil
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	predictions, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	if predictions == nil {
		predictions = []domain.Prediction{}
	}
	return predictions, nil
}

// Delete removes a prediction record and its structure file.
func (s *PredictionService) Delete(ctx context.Context, id string) error {
	prediction, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return removePrediction(ctx, s.repo, s.files, prediction)
}

func removePrediction(ctx context.Context, repo domain.PredictionRepository, files domain.StructureStore, prediction *domain.Prediction) error {
	if err := files.Remove(prediction.File); err != nil && !errors.Is(err, domain.ErrInvalidFileName) {
		return fmt.Errorf("removing structure file: %w", err)
	}
	if err := repo.Delete(ctx, prediction.ID); err != nil {
		return fmt.Errorf("removing prediction record: %w", err)
	}
	return nil
}
