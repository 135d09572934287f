package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/workshop_backend/internal/core/domain"
	"github.com/SscSPs/workshop_backend/internal/platform/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSweeper struct {
	mock.Mock
}

func (m *mockSweeper) RunBillingSweep(ctx context.Context, today time.Time, batchSize int) (*domain.SweepResult, error) {
	args := m.Called(ctx, today, batchSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SweepResult), args.Error(1)
}

type mockReconciler struct {
	mock.Mock
}

func (m *mockReconciler) ReconcileCompletedOrders(ctx context.Context, limit int) (int, error) {
	args := m.Called(ctx, limit)
	return args.Int(0), args.Error(1)
}

var fakeNow = time.Date(2025, time.April, 16, 3, 0, 0, 0, time.UTC)

func newTestScheduler(t *testing.T, sweeper *mockSweeper, reconciler *mockReconciler, locker Locker) (*Scheduler, *Metrics) {
	t.Helper()
	metrics := NewMetrics(prometheus.NewRegistry())
	s, err := New(Params{
		Subscriptions: sweeper,
		Orders:        reconciler,
		Locker:        locker,
		Clock:         clock.NewManual(fakeNow),
		Metrics:       metrics,
		Config:        Config{BatchSize: 25, JobTimeout: time.Second},
	})
	require.NoError(t, err)
	return s, metrics
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Params{Locker: NewLocalLocker()})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{JobTimeout: 10 * time.Minute}.withDefaults()
	assert.Equal(t, time.Hour, cfg.RunInterval)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 10*time.Minute, cfg.LockTTL, "lock must outlive the job timeout")
}

func TestRunOnce_RunsBothJobs(t *testing.T) {
	sweeper, reconciler := new(mockSweeper), new(mockReconciler)
	sweeper.On("RunBillingSweep", mock.Anything, fakeNow, 25).
		Return(&domain.SweepResult{MarkedPastDue: 2, Suspended: 1}, nil).Once()
	reconciler.On("ReconcileCompletedOrders", mock.Anything, 25).Return(3, nil).Once()

	s, metrics := newTestScheduler(t, sweeper, reconciler, NewLocalLocker())
	require.NoError(t, s.RunOnce(context.Background()))

	sweeper.AssertExpectations(t)
	reconciler.AssertExpectations(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.jobRuns.WithLabelValues(JobSubscriptionSweep, outcomeSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.jobItems.WithLabelValues(JobSubscriptionSweep, "past_due")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.jobItems.WithLabelValues(JobSubscriptionSweep, "suspended")))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.jobItems.WithLabelValues(JobLedgerReconcile, "posted")))
}

func TestRunOnce_SkipsJobLockedElsewhere(t *testing.T) {
	sweeper, reconciler := new(mockSweeper), new(mockReconciler)
	reconciler.On("ReconcileCompletedOrders", mock.Anything, 25).Return(0, nil).Once()

	locker := NewLocalLocker()
	held, err := locker.Obtain(context.Background(), lockPrefix+JobSubscriptionSweep, time.Minute)
	require.NoError(t, err)
	defer held.Release(context.Background())

	s, metrics := newTestScheduler(t, sweeper, reconciler, locker)
	require.NoError(t, s.RunOnce(context.Background()))

	sweeper.AssertNotCalled(t, "RunBillingSweep", mock.Anything, mock.Anything, mock.Anything)
	reconciler.AssertExpectations(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.jobRuns.WithLabelValues(JobSubscriptionSweep, outcomeSkipped)))
}

func TestRunOnce_JoinsJobErrorsAndReleasesLocks(t *testing.T) {
	sweepErr := errors.New("database unavailable")
	reconcileErr := errors.New("ledger unavailable")
	sweeper, reconciler := new(mockSweeper), new(mockReconciler)
	sweeper.On("RunBillingSweep", mock.Anything, fakeNow, 25).Return(nil, sweepErr)
	reconciler.On("ReconcileCompletedOrders", mock.Anything, 25).Return(1, reconcileErr)

	locker := NewLocalLocker()
	s, metrics := newTestScheduler(t, sweeper, reconciler, locker)

	err := s.RunOnce(context.Background())
	assert.ErrorIs(t, err, sweepErr)
	assert.ErrorIs(t, err, reconcileErr)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.jobRuns.WithLabelValues(JobLedgerReconcile, outcomeError)))

	// locks were released, so the next tick runs again
	err = s.RunOnce(context.Background())
	assert.ErrorIs(t, err, sweepErr)
	sweeper.AssertNumberOfCalls(t, "RunBillingSweep", 2)
}

func TestRunOnce_TimeoutIsNotAFailure(t *testing.T) {
	sweeper, reconciler := new(mockSweeper), new(mockReconciler)
	sweeper.On("RunBillingSweep", mock.Anything, fakeNow, 25).Return(nil, context.DeadlineExceeded)
	reconciler.On("ReconcileCompletedOrders", mock.Anything, 25).Return(0, nil)

	s, metrics := newTestScheduler(t, sweeper, reconciler, NewLocalLocker())
	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.jobRuns.WithLabelValues(JobSubscriptionSweep, outcomeTimeout)))
}

func TestRunOnce_CanceledContextStops(t *testing.T) {
	s, _ := newTestScheduler(t, new(mockSweeper), new(mockReconciler), NewLocalLocker())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.RunOnce(ctx), context.Canceled)
}

func TestRunForever_StopsOnCancel(t *testing.T) {
	sweeper, reconciler := new(mockSweeper), new(mockReconciler)
	ctx, cancel := context.WithCancel(context.Background())
	sweeper.On("RunBillingSweep", mock.Anything, fakeNow, 25).Return(&domain.SweepResult{}, nil)
	reconciler.On("ReconcileCompletedOrders", mock.Anything, 25).Return(0, nil).Run(func(mock.Arguments) { cancel() })

	s, _ := newTestScheduler(t, sweeper, reconciler, NewLocalLocker())
	done := make(chan struct{})
	go func() {
		s.RunForever(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("RunForever did not return after cancel")
	}
	sweeper.AssertNumberOfCalls(t, "RunBillingSweep", 1)
}

func TestLocalLocker_ExpiredLockCanBeRetaken(t *testing.T) {
	locker := NewLocalLocker()
	now := fakeNow
	locker.now = func() time.Time { return now }

	_, err := locker.Obtain(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	_, err = locker.Obtain(context.Background(), "k", time.Minute)
	assert.ErrorIs(t, err, ErrNotObtained)

	now = now.Add(2 * time.Minute)
	_, err = locker.Obtain(context.Background(), "k", time.Minute)
	assert.NoError(t, err)
}
