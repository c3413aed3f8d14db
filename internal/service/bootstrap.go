package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/county-health/internal/database"
	"github.com/iliyamo/county-health/internal/loader"
)

// BootstrapSource pairs a CSV file with the table it should populate.
type BootstrapSource struct {
	Table string
	Path  string
}

// Bootstrap opens the store at dbPath for writing and loads every source
// whose table is still missing. Sources with an empty Path are skipped and
// existing tables are never touched. It returns the results of the loads
// it actually performed.
func Bootstrap(ctx context.Context, dbPath string, sources []BootstrapSource, log logrus.FieldLogger) ([]loader.Result, error) {
	pending := make([]BootstrapSource, 0, len(sources))
	for _, s := range sources {
		if s.Path != "" {
			pending = append(pending, s)
		}
	}
	if len(pending) == 0 {
		return nil, nil
	}

	db, err := database.Open(dbPath, false)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	defer db.Close()

	var results []loader.Result
	for _, s := range pending {
		exists, err := database.TableExists(ctx, db, s.Table)
		if err != nil {
			return results, fmt.Errorf("bootstrap %s: %w", s.Table, err)
		}
		if exists {
			log.WithField("table", s.Table).Debug("bootstrap: table present, skipping")
			continue
		}
		res, err := loader.Load(ctx, db, s.Path, loader.Options{Table: s.Table})
		if err != nil {
			return results, fmt.Errorf("bootstrap %s from %s: %w", s.Table, s.Path, err)
		}
		log.WithFields(logrus.Fields{
			"table":   res.Table,
			"rows":    res.Rows,
			"indexes": len(res.Indexes),
			"source":  s.Path,
		}).Info("bootstrap: table loaded")
		results = append(results, res)
	}
	return results, nil
}
