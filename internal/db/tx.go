package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier es lo mínimo que un repositorio necesita para leer y escribir.
// Lo cumplen tanto *pgxpool.Pool como pgx.Tx, así un mismo repositorio
// funciona dentro o fuera de una transacción.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Beginner abre transacciones. *pgxpool.Pool lo implementa.
type Beginner interface {
	BeginTx(ctx context.Context, options pgx.TxOptions) (pgx.Tx, error)
}

// Pool es la combinación que usan los repositorios con soporte transaccional.
type Pool interface {
	Querier
	Beginner
}

// InTx ejecuta fn dentro de una transacción READ COMMITTED.
// Si fn devuelve error se hace rollback y el error se devuelve tal cual,
// para que el llamador pueda seguir usando errors.Is / errors.As.
func InTx(ctx context.Context, beginner Beginner, fn func(tx Querier) error) error {
	tx, err := beginner.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		// ErrTxClosed no aporta nada si fn ya cerró la transacción.
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("rollback tx: %w", rollbackErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}
