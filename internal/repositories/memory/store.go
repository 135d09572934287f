// Package memory is a process-local implementation of the repository ports.
// It backs STORAGE_DRIVER=memory and the service scenario tests.
//
// Transactions are serialised: Begin takes the store's single writer slot and
// snapshots the data, Rollback restores the snapshot. Reads outside a
// transaction do not wait for the writer and may observe uncommitted writes.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/SscSPs/workshop_backend/internal/apperrors"
	"github.com/SscSPs/workshop_backend/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

type state struct {
	accounts      map[string]domain.Account
	plans         map[string]domain.Plan
	items         map[string]domain.InventoryItem
	movements     []domain.StockMovement
	transactions  []domain.FinancialTransaction
	categories    map[string]domain.FinancialCategory
	cashFlow      map[string]map[string]domain.DailyCashFlow // account -> yyyy-mm-dd
	orders        map[string]domain.Order                   // headers only
	serviceLines  map[string][]domain.OrderServiceLine      // by order id
	partLines     map[string][]domain.OrderPartLine         // by order id
	subscriptions map[string]domain.Subscription
	payments      map[string]domain.Payment
}

func newState() *state {
	return &state{
		accounts:      make(map[string]domain.Account),
		plans:         make(map[string]domain.Plan),
		items:         make(map[string]domain.InventoryItem),
		categories:    make(map[string]domain.FinancialCategory),
		cashFlow:      make(map[string]map[string]domain.DailyCashFlow),
		orders:        make(map[string]domain.Order),
		serviceLines:  make(map[string][]domain.OrderServiceLine),
		partLines:     make(map[string][]domain.OrderPartLine),
		subscriptions: make(map[string]domain.Subscription),
		payments:      make(map[string]domain.Payment),
	}
}

func (st *state) clone() *state {
	c := newState()
	for k, v := range st.accounts {
		c.accounts[k] = v
	}
	for k, v := range st.plans {
		c.plans[k] = v
	}
	for k, v := range st.items {
		c.items[k] = v
	}
	c.movements = append([]domain.StockMovement(nil), st.movements...)
	c.transactions = append([]domain.FinancialTransaction(nil), st.transactions...)
	for k, v := range st.categories {
		c.categories[k] = v
	}
	for acc, days := range st.cashFlow {
		cp := make(map[string]domain.DailyCashFlow, len(days))
		for d, row := range days {
			cp[d] = row
		}
		c.cashFlow[acc] = cp
	}
	for k, v := range st.orders {
		c.orders[k] = v
	}
	for k, v := range st.serviceLines {
		c.serviceLines[k] = append([]domain.OrderServiceLine(nil), v...)
	}
	for k, v := range st.partLines {
		c.partLines[k] = append([]domain.OrderPartLine(nil), v...)
	}
	for k, v := range st.subscriptions {
		c.subscriptions[k] = v
	}
	for k, v := range st.payments {
		c.payments[k] = v
	}
	return c
}

// Store holds all data for the memory repositories. One Store is shared by
// every repository so a transaction can span aggregates.
type Store struct {
	writer chan struct{} // single writer slot, held from Begin to Commit/Rollback
	mu     sync.RWMutex
	st     *state
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		writer: make(chan struct{}, 1),
		st:     newState(),
	}
}

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.writer <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release() {
	<-s.writer
}

// autocommit runs fn as a one-statement transaction, for writes that take no pgx.Tx.
func (s *Store) autocommit(ctx context.Context, fn func(st *state) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

func (s *Store) read(fn func(st *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.st)
}

// write runs fn inside tx. A nil tx is accepted for callers that own no transaction.
func (s *Store) write(tx pgx.Tx, fn func(st *state) error) error {
	if tx != nil {
		mt, ok := tx.(*memTx)
		if !ok || mt.store != s {
			return fmt.Errorf("memory store: foreign transaction %T", tx)
		}
		if mt.done {
			return pgx.ErrTxClosed
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

// memTx satisfies pgx.Tx for the memory store. Only Commit and Rollback are
// implemented; calling any SQL method panics.
type memTx struct {
	pgx.Tx
	store    *Store
	snapshot *state
	done     bool
}

func (t *memTx) Commit(_ context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.snapshot = nil
	t.store.release()
	return nil
}

func (t *memTx) Rollback(_ context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.store.mu.Lock()
	t.store.st = t.snapshot
	t.store.mu.Unlock()
	t.snapshot = nil
	t.store.release()
	return nil
}

// baseRepository implements the TransactionManager port on top of the store.
type baseRepository struct {
	store *Store
}

// Begin starts a new transaction, waiting for any running one to finish.
func (r *baseRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	if err := r.store.acquire(ctx); err != nil {
		return nil, apperrors.NewAppError(500, "failed to begin transaction", err)
	}
	r.store.mu.RLock()
	snap := r.store.st.clone()
	r.store.mu.RUnlock()
	return &memTx{store: r.store, snapshot: snap}, nil
}

// Commit commits a transaction
func (r *baseRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewAppError(500, "failed to commit transaction", err)
	}
	return nil
}

// Rollback rolls back a transaction. Finished transactions are ignored.
func (r *baseRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	if tx == nil {
		return nil
	}
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return apperrors.NewAppError(500, "failed to rollback transaction", err)
	}
	return nil
}
