package loader

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// indexKeys lists the lookup keys worth indexing. A key is indexed only when
// every one of its columns exists in the loaded table, whatever the table is
// called.
var indexKeys = [][]string{
	{"zip"},
	{"county_code"},
	{"fipscode"},
	{"fipscode", "measure_name"},
	{"state_code", "county_code"},
	{"measure_name"},
}

type indexPlan struct {
	Name    string
	Columns []string
}

func planIndexes(s *Schema) []indexPlan {
	var out []indexPlan
	for _, key := range indexKeys {
		if !s.Has(key...) {
			continue
		}
		cols := make([]string, len(key))
		for i, k := range key {
			cols[i] = s.lookup(k)
		}
		out = append(out, indexPlan{
			Name:    "idx_" + s.Table + "_" + strings.Join(key, "_"),
			Columns: cols,
		})
	}
	return out
}

func createIndexes(ctx context.Context, tx *sql.Tx, s *Schema) ([]string, error) {
	plans := planIndexes(s)
	names := make([]string, 0, len(plans))
	for _, p := range plans {
		quoted := make([]string, len(p.Columns))
		for i, c := range p.Columns {
			quoted[i] = QuoteIdentifier(c)
		}
		stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
			QuoteIdentifier(p.Name), QuoteIdentifier(s.Table), strings.Join(quoted, ", "))
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("create index %s: %w", p.Name, err)
		}
		names = append(names, p.Name)
	}
	return names, nil
}
