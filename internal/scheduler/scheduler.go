// Package scheduler runs the periodic billing sweep and ledger reconciliation.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	portssvc "github.com/SscSPs/workshop_backend/internal/core/ports/services"
	"github.com/SscSPs/workshop_backend/internal/middleware"
	"github.com/SscSPs/workshop_backend/internal/platform/clock"
)

const (
	JobSubscriptionSweep = "subscription_sweep"
	JobLedgerReconcile   = "ledger_reconcile"

	lockPrefix = "workshop:scheduler:"
)

// ErrInvalidConfig is returned by New when a required collaborator is missing.
var ErrInvalidConfig = errors.New("scheduler: invalid config")

type Params struct {
	Subscriptions portssvc.BillingSweeperSvc
	Orders        portssvc.OrderReconcilerSvc
	Locker        Locker
	Clock         clock.Clock
	Logger        *slog.Logger
	Metrics       *Metrics
	Config        Config
}

type Scheduler struct {
	subscriptions portssvc.BillingSweeperSvc
	orders        portssvc.OrderReconcilerSvc
	locker        Locker
	clock         clock.Clock
	log           *slog.Logger
	metrics       *Metrics
	cfg           Config
}

func New(p Params) (*Scheduler, error) {
	if p.Subscriptions == nil || p.Orders == nil || p.Locker == nil {
		return nil, ErrInvalidConfig
	}
	if p.Clock == nil {
		p.Clock = clock.System{}
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	return &Scheduler{
		subscriptions: p.Subscriptions,
		orders:        p.Orders,
		locker:        p.Locker,
		clock:         p.Clock,
		log:           p.Logger.With(slog.String("component", "scheduler")),
		metrics:       p.Metrics,
		cfg:           p.Config.withDefaults(),
	}, nil
}

// runJob executes fn under the job's lock and timeout. A lock held elsewhere is a skip, not a failure.
func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context) error) error {
	log := s.log.With(slog.String("job", name))

	lock, err := s.locker.Obtain(parent, lockPrefix+name, s.cfg.LockTTL)
	if errors.Is(err, ErrNotObtained) {
		log.Debug("job locked by another replica, skipping")
		s.metrics.observeRun(name, outcomeSkipped, 0)
		return nil
	}
	if err != nil {
		s.metrics.observeRun(name, outcomeError, 0)
		return fmt.Errorf("%s: obtain lock: %w", name, err)
	}
	defer func() {
		// the parent may already be done; release on a fresh context
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil {
			log.Warn("failed to release job lock", slog.String("error", err.Error()))
		}
	}()

	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()
	ctx = middleware.WithLogger(ctx, log)

	start := time.Now()
	err = fn(ctx)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		s.metrics.observeRun(name, outcomeSuccess, elapsed)
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		s.metrics.observeRun(name, outcomeTimeout, elapsed)
		log.Warn("job timed out", slog.Duration("timeout", s.cfg.JobTimeout), slog.String("error", err.Error()))
		return nil
	default:
		s.metrics.observeRun(name, outcomeError, elapsed)
		return fmt.Errorf("%s: %w", name, err)
	}
}

// SubscriptionSweepJob moves overdue subscriptions through the grace window.
func (s *Scheduler) SubscriptionSweepJob(ctx context.Context) error {
	res, err := s.subscriptions.RunBillingSweep(ctx, s.clock.Now(), s.cfg.BatchSize)
	if res != nil {
		s.metrics.addItems(JobSubscriptionSweep, "past_due", res.MarkedPastDue)
		s.metrics.addItems(JobSubscriptionSweep, "suspended", res.Suspended)
	}
	return err
}

// LedgerReconcileJob posts revenue for completed orders the ledger missed.
func (s *Scheduler) LedgerReconcileJob(ctx context.Context) error {
	posted, err := s.orders.ReconcileCompletedOrders(ctx, s.cfg.BatchSize)
	s.metrics.addItems(JobLedgerReconcile, "posted", posted)
	return err
}

// RunOnce runs every job once and joins their errors.
func (s *Scheduler) RunOnce(parent context.Context) error {
	jobs := []struct {
		name string
		run  func(context.Context) error
	}{
		{JobSubscriptionSweep, s.SubscriptionSweepJob},
		{JobLedgerReconcile, s.LedgerReconcileJob},
	}

	var err error
	for _, job := range jobs {
		if parent.Err() != nil {
			return errors.Join(err, parent.Err())
		}
		err = errors.Join(err, s.runJob(parent, job.name, job.run))
	}
	return err
}

// RunForever runs the jobs immediately and then on every tick until ctx is canceled.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	s.log.Info("scheduler started", slog.Duration("interval", s.cfg.RunInterval))

	for {
		if err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			s.log.Warn("scheduler run failed", slog.String("error", err.Error()))
		}

		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}
