// Package repository handles all interactions with the database.
//
// Static lookups are plain SQL; listings with optional filters are built
// with goqu and executed through pgx.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var dialect = goqu.Dialect("postgres")

// textColumn selects a DATE, TIME or enum column in its text form under
// the column's own name.
func textColumn(qualified, alias string) exp.AliasedExpression {
	return goqu.L(qualified + "::text").As(alias)
}

// notFound tags a missing row with its table, as expected by
// sqlerr.HandleError.
func notFound(table string, err error) error {
	return fmt.Errorf("table:%s:%w", table, err)
}

// collectOne runs query and scans the single row into T by column name.
func collectOne[T any](ctx context.Context, db DBTX, table, query string, args ...any) (*T, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query for %s: %w", table, err)
	}

	item, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[T])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound(table, err)
		}
		return nil, fmt.Errorf("failed to collect row from %s: %w", table, err)
	}

	return item, nil
}

// collectAll runs query and scans every row into T by column name.
func collectAll[T any](ctx context.Context, db DBTX, table, query string, args ...any) ([]T, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query for %s: %w", table, err)
	}

	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, fmt.Errorf("failed to collect rows from %s: %w", table, err)
	}

	if items == nil {
		items = []T{}
	}

	return items, nil
}
