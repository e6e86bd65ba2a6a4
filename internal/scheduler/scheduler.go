package scheduler

import (
	"context"
	"fmt"
	"time"

	"plastics-backend/internal/config"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// OverdueMarker is the part of the ledger the overdue job needs.
type OverdueMarker interface {
	MarkOverdueSalesBills(ctx context.Context, asOf time.Time) (int64, error)
}

// Scheduler runs the heartbeat and the overdue sweep.
type Scheduler struct {
	cron    *cron.Cron
	ledger  OverdueMarker
	cfg     *config.Config
	logger  *logrus.Logger
	now     func() time.Time
	started time.Time
}

func NewScheduler(cfg *config.Config, ledger OverdueMarker, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = config.GetLogger()
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cron.PrintfLogger(logger))),
		ledger: ledger,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Start registers the jobs and starts the cron loop. A bad schedule is returned before anything runs.
func (s *Scheduler) Start() error {
	if s.cfg.HeartbeatInterval > 0 {
		if _, err := s.cron.AddFunc("@every "+s.cfg.HeartbeatInterval.String(), s.heartbeat); err != nil {
			return fmt.Errorf("schedule heartbeat: %w", err)
		}
	}
	if s.cfg.OverdueCron != "" {
		if _, err := s.cron.AddFunc(s.cfg.OverdueCron, s.markOverdue); err != nil {
			return fmt.Errorf("schedule overdue sweep %q: %w", s.cfg.OverdueCron, err)
		}
	}

	s.started = s.now()
	s.logger.WithField("jobs", len(s.cron.Entries())).Info("starting scheduler")
	s.cron.Start()
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) heartbeat() {
	s.logger.WithField("uptime", s.now().Sub(s.started).Round(time.Second).String()).Info("heartbeat")
}

func (s *Scheduler) markOverdue() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	n, err := s.ledger.MarkOverdueSalesBills(ctx, s.now())
	if err != nil {
		config.LogError(s.logger, "scheduler", "markOverdue", "overdue sweep failed", nil, err)
		return
	}
	s.logger.WithField("count", n).Info("overdue sweep finished")
}
