package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Service runs the scheduled lifecycle scan. The schedule is a standard
// 5-field cron expression; each run gets its own timeout.
type Service struct {
	cron    *cron.Cron
	log     *slog.Logger
	timeout time.Duration
	run     func(ctx context.Context) error
}

func New(timeout time.Duration, run func(ctx context.Context) error) *Service {
	return &Service{
		cron:    cron.New(),
		log:     slog.Default().With("component", "jobs.scheduler"),
		timeout: timeout,
		run:     run,
	}
}

func (s *Service) Schedule(spec string) error {
	if spec == "" {
		return errors.New("empty cron schedule")
	}
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		start := time.Now()
		if err := s.run(ctx); err != nil {
			s.log.Error("scheduled scan failed", "err", err, "duration", time.Since(start))
			return
		}
		s.log.Info("scheduled scan finished", "duration", time.Since(start))
	})
	return err
}

func (s *Service) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for a running job to finish.
func (s *Service) Stop() {
	<-s.cron.Stop().Done()
}
