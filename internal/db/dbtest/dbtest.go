// Package dbtest tiene fakes de pgx para testear repositorios sin PostgreSQL.
package dbtest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Call registra una query ejecutada contra el fake.
type Call struct {
	SQL  string
	Args []any
}

// Normalized devuelve la query con los espacios colapsados, útil para asserts.
func (call Call) Normalized() string {
	return strings.Join(strings.Fields(call.SQL), " ")
}

// FakeDB implementa db.Querier. Cada función se programa por test;
// si no está seteada la llamada falla.
type FakeDB struct {
	QueryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row
	QueryFn    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	ExecFn     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	Calls []Call
}

// Last devuelve la última query ejecutada.
func (db *FakeDB) Last() Call {
	if len(db.Calls) == 0 {
		return Call{}
	}
	return db.Calls[len(db.Calls)-1]
}

func (db *FakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	db.Calls = append(db.Calls, Call{SQL: sql, Args: args})
	if db.QueryRowFn == nil {
		return &FakeRow{Err: errors.New("unexpected QueryRow call")}
	}
	return db.QueryRowFn(ctx, sql, args...)
}

func (db *FakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	db.Calls = append(db.Calls, Call{SQL: sql, Args: args})
	if db.QueryFn == nil {
		return nil, errors.New("unexpected Query call")
	}
	return db.QueryFn(ctx, sql, args...)
}

func (db *FakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.Calls = append(db.Calls, Call{SQL: sql, Args: args})
	if db.ExecFn == nil {
		return pgconn.CommandTag{}, errors.New("unexpected Exec call")
	}
	return db.ExecFn(ctx, sql, args...)
}

// FakeRow es un pgx.Row con valores fijos.
type FakeRow struct {
	Values []any
	Err    error
}

func (row *FakeRow) Scan(dest ...any) error {
	if row.Err != nil {
		return row.Err
	}
	return Assign(dest, row.Values)
}

// FakeRows es un pgx.Rows sobre una tabla en memoria.
type FakeRows struct {
	Rows    [][]any
	RowsErr error
	ScanErr error

	idx    int
	closed bool
}

// Closed indica si el repositorio cerró las filas.
func (rows *FakeRows) Closed() bool {
	return rows.closed
}

func (rows *FakeRows) Close() {
	rows.closed = true
}

func (rows *FakeRows) Err() error {
	return rows.RowsErr
}

func (rows *FakeRows) CommandTag() pgconn.CommandTag {
	return pgconn.CommandTag{}
}

func (rows *FakeRows) FieldDescriptions() []pgconn.FieldDescription {
	return nil
}

func (rows *FakeRows) Next() bool {
	if rows.closed {
		return false
	}
	if rows.idx >= len(rows.Rows) {
		rows.closed = true
		return false
	}
	rows.idx++
	return true
}

func (rows *FakeRows) Scan(dest ...any) error {
	if rows.ScanErr != nil {
		return rows.ScanErr
	}
	if rows.idx == 0 || rows.idx > len(rows.Rows) {
		return errors.New("scan called without next")
	}
	return Assign(dest, rows.Rows[rows.idx-1])
}

func (rows *FakeRows) Values() ([]any, error) {
	return nil, errors.New("not implemented")
}

func (rows *FakeRows) RawValues() [][]byte {
	return nil
}

func (rows *FakeRows) Conn() *pgx.Conn {
	return nil
}

// Assign copia values en dest como lo haría Scan.
// Soporta sql.Scanner, punteros a punteros (columnas NULL) y conversiones simples.
func Assign(dest []any, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("dest len %d does not match values len %d", len(dest), len(values))
	}
	for i, target := range dest {
		if target == nil {
			continue
		}
		if err := assign(target, values[i]); err != nil {
			return fmt.Errorf("column %d: %w", i, err)
		}
	}
	return nil
}

func assign(target any, value any) error {
	if scanner, ok := target.(sql.Scanner); ok {
		return scanner.Scan(value)
	}

	targetValue := reflect.ValueOf(target)
	if targetValue.Kind() != reflect.Ptr {
		return fmt.Errorf("dest is not pointer")
	}
	elem := targetValue.Elem()
	if value == nil {
		elem.Set(reflect.Zero(elem.Type()))
		return nil
	}

	source := reflect.ValueOf(value)
	if elem.Kind() == reflect.Ptr {
		pointer := reflect.New(elem.Type().Elem())
		pointer.Elem().Set(source.Convert(elem.Type().Elem()))
		elem.Set(pointer)
		return nil
	}
	elem.Set(source.Convert(elem.Type()))
	return nil
}
