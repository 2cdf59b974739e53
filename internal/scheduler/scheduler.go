package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
)

type Scheduler struct {
	s       *gocron.Scheduler
	log     *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	running bool
}

// New returns a UTC scheduler that never overlaps runs of the same job.
func New(log *slog.Logger, jobTimeout time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{s: s, log: log, timeout: jobTimeout}
}

func (s *Scheduler) AddJob(name, cronExpr string, task func(ctx context.Context) error) error {
	_, err := s.s.Cron(cronExpr).Tag(name).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		start := time.Now()
		l := s.log.With("job", name)
		if err := task(ctx); err != nil {
			l.Error("job_failed", "duration_ms", time.Since(start).Milliseconds(), "error", err)
			return
		}
		l.Info("job_completed", "duration_ms", time.Since(start).Milliseconds())
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, cronExpr, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.s.StartAsync()
	s.running = true
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.s.Stop()
	s.running = false
}

func (s *Scheduler) Jobs() int {
	return len(s.s.Jobs())
}
