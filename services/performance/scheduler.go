package performance

import (
	"context"
	"time"

	"influencer-connect/pkg/config"
	"influencer-connect/pkg/task"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Scheduler periodically enqueues a view sync for every active CPV campaign.
type Scheduler struct {
	svc      *Service
	enqueuer task.Enqueuer
	interval time.Duration
	logger   *zap.Logger

	stop chan struct{}
	done chan struct{}
}

// SchedulerParams defines dependencies for Scheduler construction.
type SchedulerParams struct {
	fx.In

	Service  *Service
	Enqueuer task.Enqueuer
	Config   *config.Config
	Logger   *zap.Logger
}

// NewScheduler constructs the sync scheduler.
func NewScheduler(p SchedulerParams) *Scheduler {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		svc:      p.Service,
		enqueuer: p.Enqueuer,
		interval: p.Config.Sync.Interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func registerScheduler(lc fx.Lifecycle, s *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go s.run()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			close(s.stop)
			select {
			case <-s.done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func (s *Scheduler) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.enqueueAll()
		}
	}
}

func (s *Scheduler) enqueueAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ids, err := s.svc.ActiveCPVCampaignIDs(ctx)
	if err != nil {
		s.logger.Error("failed to list campaigns for sync", zap.Error(err))
		return
	}

	for _, id := range ids {
		t, err := NewSyncViewsTask(id)
		if err != nil {
			s.logger.Error("failed to build sync task", zap.String("campaign_id", id), zap.Error(err))
			continue
		}
		if _, err := s.enqueuer.Enqueue(t); err != nil {
			s.logger.Error("failed to enqueue sync task", zap.String("campaign_id", id), zap.Error(err))
		}
	}

	s.logger.Info("scheduled campaign syncs", zap.Int("count", len(ids)))
}
