package trials

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Pool is the subset of *pgxpool.Pool the store needs.
// pgxmock's pool satisfies it in tests.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
}

// Store reads the id snapshot and applies operation batches to one table.
type Store struct {
	pool  Pool
	table pgx.Identifier
}

// NewStore returns a store writing to table. A dotted name such as
// "public.trials_data" is treated as schema-qualified.
func NewStore(pool Pool, table string) *Store {
	if table == "" {
		table = DefaultTable
	}
	return &Store{
		pool:  pool,
		table: pgx.Identifier(strings.Split(table, ".")),
	}
}

// Table returns the quoted table name.
func (s *Store) Table() string {
	return s.table.Sanitize()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: ping: %w", ErrStorageConnection, err)
	}
	return nil
}

// ExistingIDs reads every id currently stored in the table.
func (s *Store) ExistingIDs(ctx context.Context) (IDSet, error) {
	query := "SELECT " + quote(IDColumn) + " FROM " + s.Table()

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query existing ids: %w", ErrStorageConnection, err)
	}
	defer rows.Close()

	ids := make(IDSet)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scan id: %w", ErrStorageConnection, err)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read ids: %w", ErrStorageConnection, err)
	}

	return ids, nil
}

// Apply executes ops in order inside one transaction.
// The first failing statement aborts the batch and rolls everything back.
func (s *Store) Apply(ctx context.Context, ops []Operation) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %w", ErrStorageConnection, err)
	}
	defer tx.Rollback(ctx)

	for i, op := range ops {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: row %d: %w", ErrStorageQuery, i+1, ctx.Err())
		}

		sql, args := s.BuildStatement(op)
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("%w: %s row %d (id %q): %w", ErrStorageQuery, op.Kind, i+1, op.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrStorageQuery, err)
	}
	return nil
}

// BuildStatement renders op as a parameterized statement.
// Inserts list every column; updates set every column except id and
// match on id. Null values bind as SQL NULL.
func (s *Store) BuildStatement(op Operation) (string, []any) {
	cols := Columns()

	if op.Kind == OpUpdate {
		sets := make([]string, 0, len(cols)-1)
		args := make([]any, 0, len(cols))
		for _, col := range cols {
			if col == IDColumn {
				continue
			}
			args = append(args, op.Record[col].Arg())
			sets = append(sets, quote(col)+" = $"+strconv.Itoa(len(args)))
		}
		args = append(args, Text(op.ID).Arg())

		sql := "UPDATE " + s.Table() + " SET " + strings.Join(sets, ", ") +
			" WHERE " + quote(IDColumn) + " = $" + strconv.Itoa(len(args))
		return sql, args
	}

	names := make([]string, len(cols))
	params := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		names[i] = quote(col)
		params[i] = "$" + strconv.Itoa(i+1)
		args[i] = op.Record[col].Arg()
	}

	sql := "INSERT INTO " + s.Table() + " (" + strings.Join(names, ", ") +
		") VALUES (" + strings.Join(params, ", ") + ")"
	return sql, args
}

// Script renders ops as literal statements, one per line, for review.
// It is never executed: Apply always binds parameters.
func (s *Store) Script(ops []Operation) string {
	cols := Columns()
	lines := make([]string, 0, len(ops))

	for _, op := range ops {
		if op.Kind == OpUpdate {
			sets := make([]string, 0, len(cols)-1)
			for _, col := range cols {
				if col == IDColumn {
					continue
				}
				sets = append(sets, quote(col)+"="+op.Record[col].Literal())
			}
			lines = append(lines, "UPDATE "+s.Table()+" SET "+strings.Join(sets, ",")+
				" WHERE "+quote(IDColumn)+" = "+Text(op.ID).Literal()+";")
			continue
		}

		names := make([]string, len(cols))
		values := make([]string, len(cols))
		for i, col := range cols {
			names[i] = quote(col)
			values[i] = op.Record[col].Literal()
		}
		lines = append(lines, "INSERT INTO "+s.Table()+" ("+strings.Join(names, ",")+
			") VALUES ("+strings.Join(values, ",")+");")
	}

	return strings.Join(lines, "\n")
}

func quote(col string) string {
	return pgx.Identifier{col}.Sanitize()
}
