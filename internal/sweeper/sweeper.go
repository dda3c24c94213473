// Package sweeper fails Pending transactions that outlived their useful
// life. A transfer that never settled keeps no money in flight, but stale
// rows would otherwise stay cancelable forever.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"money-server-go/internal/models"
	"money-server-go/internal/store"

	"github.com/robfig/cron"
	"go.uber.org/zap"
)

type Sweeper struct {
	cron     *cron.Cron
	store    store.MoneyStore
	deadTime time.Duration
}

func New(st store.MoneyStore, cfg models.SweeperConfig) (*Sweeper, error) {
	s := &Sweeper{
		cron:     cron.New(),
		store:    st,
		deadTime: cfg.DeadTime,
	}
	if err := s.cron.AddFunc(cfg.Schedule, s.sweep); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", cfg.Schedule, err)
	}
	return s, nil
}

func (s *Sweeper) Start() {
	s.cron.Start()
	zap.L().Info("Expiry sweeper started", zap.Duration("dead_time", s.deadTime))
}

func (s *Sweeper) Stop() {
	s.cron.Stop()
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deadline := time.Now().Add(-s.deadTime).Unix()
	expired, err := s.store.ExpirePending(ctx, deadline)
	if err != nil {
		zap.L().Error("Expiry sweep failed", zap.Error(err))
		return
	}
	if expired > 0 {
		zap.L().Info("Stale transactions expired", zap.Int64("count", expired))
	}
}
