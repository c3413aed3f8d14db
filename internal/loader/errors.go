// Package loader materializes a CSV file as a single SQLite table. The
// column set is discovered from the header row at load time; every column
// is stored as TEXT so values such as ZIP codes keep their leading zeros.
package loader

import "errors"

// ErrSourceNotFound is returned when the CSV path does not exist.
var ErrSourceNotFound = errors.New("source file not found")

// ErrSourceUnreadable is returned when the file cannot be opened, read or
// decoded with the configured character encoding.
var ErrSourceUnreadable = errors.New("source file unreadable")

// ErrEmptyHeader is returned when the file has no header row or the header
// row carries no columns.
var ErrEmptyHeader = errors.New("empty header")

// ErrDuplicateColumn is returned when two header names normalize to the
// same identifier. SQLite compares identifiers case-insensitively, so
// "zip" and "ZIP" collide.
var ErrDuplicateColumn = errors.New("duplicate column name")

// ErrInvalidIdentifier is returned when a table name cannot be turned into
// a usable SQL identifier.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// ErrTableExists is returned when the target table is already present and
// Options.Overwrite was not set.
var ErrTableExists = errors.New("table already exists")

// ErrMalformedRow is returned when a data row cannot be parsed or its field
// count differs from the header's.
var ErrMalformedRow = errors.New("malformed row")
