// Package repository holds the read-side data access for the lookup
// service. Queries bind every caller-supplied value as a parameter; only
// table names taken from trusted configuration are spliced into SQL text,
// and those are validated as plain identifiers first.
package repository

import "errors"

// ErrInvalidTable is returned when a configured table name is not a plain
// SQL identifier.
var ErrInvalidTable = errors.New("invalid table name")
