package loader

import (
	"fmt"
	"path/filepath"
	"strings"
)

const bom = "\ufeff"

// ColumnTypeText is the only column type the loader declares.
const ColumnTypeText = "TEXT"

// Column is one normalized header entry.
type Column struct {
	Name string
	Type string
}

// Schema is the table shape derived once from a file's header row.
type Schema struct {
	Table   string
	Columns []Column
}

// ColumnNames returns the column names in header order.
func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Has reports whether every named column exists, ignoring case.
func (s *Schema) Has(names ...string) bool {
	for _, n := range names {
		if s.lookup(n) == "" {
			return false
		}
	}
	return true
}

// lookup returns the real column name matching n case-insensitively.
func (s *Schema) lookup(n string) string {
	for _, c := range s.Columns {
		if strings.EqualFold(c.Name, n) {
			return c.Name
		}
	}
	return ""
}

// NewSchema normalizes the header row and builds a Schema for table.
func NewSchema(table string, header []string) (*Schema, error) {
	if len(header) == 0 {
		return nil, ErrEmptyHeader
	}
	allBlank := true
	for _, h := range header {
		if strings.TrimSpace(strings.TrimPrefix(h, bom)) != "" {
			allBlank = false
			break
		}
	}
	if allBlank {
		return nil, ErrEmptyHeader
	}

	s := &Schema{Table: table, Columns: make([]Column, 0, len(header))}
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := NormalizeColumnName(h, i)
		key := strings.ToLower(name)
		if prev, ok := seen[key]; ok {
			return nil, fmt.Errorf("%w: %q (columns %d and %d)", ErrDuplicateColumn, name, prev+1, i+1)
		}
		seen[key] = i
		s.Columns = append(s.Columns, Column{Name: name, Type: ColumnTypeText})
	}
	return s, nil
}

// NormalizeColumnName strips a BOM, surrounding quotes and whitespace from a
// raw header cell and maps it to a safe identifier. Blank headers become
// column_<i>.
func NormalizeColumnName(raw string, i int) string {
	name := strings.TrimPrefix(raw, bom)
	name = strings.TrimSpace(name)
	name = strings.Trim(name, `"'`)
	name = strings.TrimSpace(strings.TrimPrefix(name, bom))
	if name == "" {
		return fmt.Sprintf("column_%d", i)
	}
	return sanitizeIdentifier(name)
}

// TableNameFromPath derives a table name from the file's base name with its
// extension removed.
func TableNameFromPath(path string) (string, error) {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return TableName(base)
}

// TableName normalizes name into a table identifier.
func TableName(name string) (string, error) {
	name = strings.TrimSpace(strings.TrimPrefix(name, bom))
	if name == "" || strings.Trim(name, "._-") == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return sanitizeIdentifier(name), nil
}

// ValidIdentifier reports whether s is already a plain SQL identifier:
// ASCII letters, digits and underscores, not starting with a digit.
func ValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// QuoteIdentifier wraps a validated identifier in double quotes.
func QuoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func sanitizeIdentifier(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 1)
	for _, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	return out
}
