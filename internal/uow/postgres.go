package uow

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"tbill-market/internal/eventing"
)

const contextKeyTx contextKey = "uow.tx"

// DBTX is the query surface shared by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx stores a transaction in the context.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, contextKeyTx, tx)
}

// TxFromContext returns the in-flight transaction, if any.
func TxFromContext(ctx context.Context) *sql.Tx {
	if ctx == nil {
		return nil
	}
	tx, _ := ctx.Value(contextKeyTx).(*sql.Tx)
	return tx
}

// Querier returns the in-flight transaction when one is present and the
// bare connection otherwise. Repositories route every statement through it
// so their writes join the surrounding unit of work.
func Querier(ctx context.Context, db *sql.DB) DBTX {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return db
}

// PostgresRunner runs each unit of work inside one database transaction.
type PostgresRunner struct {
	db        *sql.DB
	publisher Publisher
	logger    *log.Logger
}

// NewPostgresRunner constructs a postgres runner.
func NewPostgresRunner(db *sql.DB, publisher Publisher, logger *log.Logger) (*PostgresRunner, error) {
	if db == nil {
		return nil, errors.New("uow: nil db")
	}
	return &PostgresRunner{db: db, publisher: publisher, logger: logger}, nil
}

// Do runs fn inside a transaction. Nested calls join the outer one.
func (r *PostgresRunner) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if InFlight(ctx) {
		return fn(ctx)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	buf := &eventing.Buffer{}
	unitCtx := markInFlight(WithTx(eventing.WithBuffer(ctx, buf), tx))

	if err := fn(unitCtx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	publishBuffered(ctx, r.publisher, buf, r.logger)
	return nil
}
