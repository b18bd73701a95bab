package app

import (
	"context"
	"time"

	"github.com/amaumene/foldpredict/internal/service"
	log "github.com/sirupsen/logrus"
)

type Scheduler struct {
	interval time.Duration
	tasks    []scheduledTask
}

type scheduledTask struct {
	name string
	run  func(context.Context) error
}

func NewScheduler(interval time.Duration, cleanup *service.CleanupService) *Scheduler {
	return &Scheduler{
		interval: interval,
		tasks: []scheduledTask{
			{name: "retention", run: purgeTask(cleanup)},
		},
	}
}

func purgeTask(cleanup *service.CleanupService) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := cleanup.PurgeExpired(ctx)
		return err
	}
}

func (s *Scheduler) RunPeriodically(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runTasks(ctx)

	for {
		select {
		case <-ctx.Done():
			log.WithField("component", "scheduler").Info("stopping background task scheduler")
			return
		case <-ticker.C:
			s.runTasks(ctx)
		}
	}
}

func (s *Scheduler) runTasks(ctx context.Context) {
	log.WithField("component", "scheduler").Debug("starting scheduled task cycle")

	for _, task := range s.tasks {
		if ctx.Err() != nil {
			return
		}
		if err := task.run(ctx); err != nil {
			log.WithFields(log.Fields{
				"task":  task.name,
				"error": err,
			}).Error("scheduled task failed")
		}
	}

	log.WithField("component", "scheduler").Debug("completed scheduled task cycle")
}
