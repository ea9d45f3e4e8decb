package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
)

type TxContextKey string

const txKey = TxContextKey("tx-context-key")

type Tx interface {
	Querier
	IsOpen() bool
	// Commit commits the transaction when called by the caller that began it.
	// Nested callers get a no-op so only the outermost scope decides.
	Commit(ctx context.Context) error
	// Rollback rolls the whole transaction back. It is a no-op once committed.
	Rollback(ctx context.Context) error
}

// Transaction wraps sqlx.Tx and tracks which scope owns it.
type Transaction struct {
	*sqlx.Tx
	logger     ectologger.Logger
	isClosed   bool
	rolledBack bool
}

type txScope struct {
	*Transaction
	owner bool
}

func txFromContext(ctx context.Context) *Transaction {
	tx, ok := ctx.Value(txKey).(*Transaction)
	if !ok || tx == nil || tx.isClosed {
		return nil
	}
	return tx
}

func GetTx(ctx context.Context, logger ectologger.Logger, db *sqlx.DB, opts *sql.TxOptions) (context.Context, Tx, error) {
	if existing := txFromContext(ctx); existing != nil {
		return ctx, &txScope{Transaction: existing, owner: false}, nil
	}

	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		logger.WithContext(ctx).WithError(err).Error("error while beginning transaction")
		return ctx, nil, fmt.Errorf("error while beginning transaction: %w", err)
	}

	newTx := &Transaction{Tx: tx, logger: logger}
	ctx = context.WithValue(ctx, txKey, newTx)
	return ctx, &txScope{Transaction: newTx, owner: true}, nil
}

func (t *Transaction) IsOpen() bool {
	return !t.isClosed
}

func (s *txScope) Commit(ctx context.Context) error {
	if s.rolledBack {
		return fmt.Errorf("transaction was rolled back")
	}
	if !s.owner || s.isClosed {
		return nil
	}

	if err := s.Tx.Commit(); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("error while committing transaction")
		return fmt.Errorf("error while committing transaction: %w", err)
	}

	s.isClosed = true
	return nil
}

func (s *txScope) Rollback(ctx context.Context) error {
	if s.isClosed {
		return nil
	}

	if err := s.Tx.Rollback(); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("error while rolling back transaction")
		return fmt.Errorf("error while rolling back transaction: %w", err)
	}

	s.isClosed = true
	s.rolledBack = true
	return nil
}
