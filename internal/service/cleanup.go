package service

import (
	"context"
	"time"

	"github.com/amaumene/foldpredict/internal/config"
	"github.com/amaumene/foldpredict/internal/domain"
	"github.com/amaumene/foldpredict/internal/metrics"
	log "github.com/sirupsen/logrus"
)

type CleanupService struct {
	cfg   *config.Config
	repo  domain.PredictionRepository
	files domain.StructureStore
	now   func() time.Time
}

func NewCleanupService(cfg *config.Config, repo domain.PredictionRepository, files domain.StructureStore) *CleanupService {
	return &CleanupService{
		cfg:   cfg,
		repo:  repo,
		files: files,
		now:   time.Now,
	}
}

// PurgeExpired removes predictions older than the retention period and
// returns how many were removed. It is a no-op when retention is disabled.
func (s *CleanupService) PurgeExpired(ctx context.Context) (int, error) {
	if s.cfg.Retention <= 0 {
		return 0, nil
	}

	cutoff := s.now().UTC().Add(-s.cfg.Retention)
	expired, err := s.repo.FindOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	purged := 0
	for i := range expired {
		if err := ctx.Err(); err != nil {
			return purged, err
		}

		prediction := expired[i]
		if err := removePrediction(ctx, s.repo, s.files, &prediction); err != nil {
			log.WithFields(log.Fields{
				"id":    prediction.ID,
				"error": err,
			}).Warn("failed to purge expired prediction")
			continue
		}
		purged++
	}

	metrics.RecordPurged(purged)
	if purged > 0 {
		log.WithFields(log.Fields{
			"purged": purged,
			"cutoff": cutoff,
		}).Info("purged expired predictions")
	}
	return purged, nil
}
