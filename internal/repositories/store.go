package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Repos bundles the repositories of one unit of work. Every repository in a
// Repos shares the same transaction.
type Repos struct {
	Sales          SaleRepository
	Products       ProductRepository
	PaymentMethods PaymentMethodRepository
	Clients        ClientRepository
	Movements      InventoryMovementRepository
	Users          UserRepository
}

// TxRunner executes units of work. RunInTx commits when fn returns nil and
// rolls everything back otherwise.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error
	ReadOnly(ctx context.Context, fn func(ctx context.Context, r Repos) error) error
	Ping(ctx context.Context) error
}

// PostgresStore runs units of work as database/sql transactions.
type PostgresStore struct {
	db        *sql.DB
	txTimeout time.Duration
}

// NewPostgresStore creates a TxRunner over the given pool. A positive txTimeout
// bounds every transaction.
func NewPostgresStore(db *sql.DB, txTimeout time.Duration) *PostgresStore {
	return &PostgresStore{db: db, txTimeout: txTimeout}
}

func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	return s.run(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, fn)
}

func (s *PostgresStore) ReadOnly(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	return s.run(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted, ReadOnly: true}, fn)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) run(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, r Repos) error) error {
	if s.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}

	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("%w: failed to start database transaction: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	if err := fn(ctx, reposFor(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return classifyError(err, "committing transaction")
	}
	return nil
}

func reposFor(exec SQLExecutor) Repos {
	return Repos{
		Sales:          &saleRepository{exec: exec},
		Products:       &productRepository{exec: exec},
		PaymentMethods: &paymentMethodRepository{exec: exec},
		Clients:        &clientRepository{exec: exec},
		Movements:      &inventoryMovementRepository{exec: exec},
		Users:          &userRepository{exec: exec},
	}
}
