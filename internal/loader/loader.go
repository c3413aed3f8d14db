package loader

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/iliyamo/county-health/internal/database"
)

// Options tune a single Load call. The zero value loads a comma-separated
// UTF-8 file into a table named after the file and refuses to replace an
// existing table.
type Options struct {
	Table     string // explicit table name; derived from the file name when empty
	Encoding  string // WHATWG encoding label, e.g. "utf-8", "windows-1252"
	Delimiter rune   // field delimiter, ',' when zero
	Overwrite bool   // drop and recreate an existing table
}

// Result summarizes a successful load.
type Result struct {
	Table   string
	Columns []string
	Indexes []string
	Rows    int64
}

// Load reads the CSV file at path and materializes it as one table in db.
// The whole load runs in a single transaction; on any error nothing is left
// behind.
func Load(ctx context.Context, db *sql.DB, path string, opts Options) (res Result, err error) {
	table := opts.Table
	if table == "" {
		table, err = TableNameFromPath(path)
	} else {
		table, err = TableName(table)
	}
	if err != nil {
		return Result{}, err
	}

	src, err := openSource(path, opts.Encoding)
	if err != nil {
		return Result{}, err
	}
	defer src.Close()

	r := newCSVReader(src, opts.Delimiter)
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Result{}, ErrEmptyHeader
		}
		return Result{}, classifyReadErr(err)
	}
	schema, err := NewSchema(table, header)
	if err != nil {
		return Result{}, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = prepareTable(ctx, tx, schema, opts.Overwrite); err != nil {
		return Result{}, err
	}

	rows, err := insertRows(ctx, tx, r, schema)
	if err != nil {
		return Result{}, err
	}

	indexes, err := createIndexes(ctx, tx, schema)
	if err != nil {
		return Result{}, err
	}

	if err = tx.Commit(); err != nil {
		return Result{}, fmt.Errorf("commit: %w", err)
	}
	return Result{
		Table:   schema.Table,
		Columns: schema.ColumnNames(),
		Indexes: indexes,
		Rows:    rows,
	}, nil
}

func prepareTable(ctx context.Context, tx *sql.Tx, s *Schema, overwrite bool) error {
	exists, err := database.TableExists(ctx, tx, s.Table)
	if err != nil {
		return fmt.Errorf("check table %s: %w", s.Table, err)
	}
	if exists {
		if !overwrite {
			return fmt.Errorf("%w: %s", ErrTableExists, s.Table)
		}
		if _, err := tx.ExecContext(ctx, "DROP TABLE "+QuoteIdentifier(s.Table)); err != nil {
			return fmt.Errorf("drop table %s: %w", s.Table, err)
		}
	}

	defs := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		defs[i] = QuoteIdentifier(c.Name) + " " + c.Type
	}
	stmt := fmt.Sprintf("CREATE TABLE %s (%s)", QuoteIdentifier(s.Table), strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s: %w", s.Table, err)
	}
	return nil
}

func insertStatement(s *Schema) string {
	cols := make([]string, len(s.Columns))
	marks := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		cols[i] = QuoteIdentifier(c.Name)
		marks[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		QuoteIdentifier(s.Table), strings.Join(cols, ", "), strings.Join(marks, ", "))
}

func insertRows(ctx context.Context, tx *sql.Tx, r *csv.Reader, s *Schema) (int64, error) {
	stmt, err := tx.PrepareContext(ctx, insertStatement(s))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(s.Columns))
	var n int64
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, classifyReadErr(err)
		}
		if blankRow(rec) {
			continue
		}
		if len(rec) != len(s.Columns) {
			line, _ := r.FieldPos(0)
			return n, fmt.Errorf("%w: line %d has %d fields, header has %d", ErrMalformedRow, line, len(rec), len(s.Columns))
		}
		for i, v := range rec {
			args[i] = cleanValue(v)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			line, _ := r.FieldPos(0)
			return n, fmt.Errorf("insert line %d: %w", line, err)
		}
		n++
	}
}
