// Command loader materializes a CSV file as a table in a SQLite store.
//
//	loader [-overwrite] [-encoding utf-8] [-delimiter ,] [-table name] <db-path> <csv-path>
//
// Exit status is 0 on success, 1 when the load fails and 2 on usage errors.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/county-health/internal/config"
	"github.com/iliyamo/county-health/internal/database"
	"github.com/iliyamo/county-health/internal/loader"
	"github.com/iliyamo/county-health/internal/logging"
	"github.com/iliyamo/county-health/internal/service"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

func main() {
	_ = godotenv.Load() // optional .env for AMQP_URL and log settings
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	dbPath  string
	csvPath string
	load    loader.Options
	level   string
	format  string
}

func parseArgs(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("loader", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: loader [-overwrite] [-encoding utf-8] [-delimiter ,] [-table name] <db-path> <csv-path>")
		fs.PrintDefaults()
	}

	var o options
	var delim string
	fs.BoolVar(&o.load.Overwrite, "overwrite", false, "drop and recreate the table if it already exists")
	fs.StringVar(&o.load.Encoding, "encoding", loader.DefaultEncoding, "character encoding of the CSV file")
	fs.StringVar(&delim, "delimiter", ",", "field delimiter (a single character)")
	fs.StringVar(&o.load.Table, "table", "", "table name (default: derived from the CSV file name)")
	fs.StringVar(&o.level, "log-level", envOr("LOG_LEVEL", "info"), "log level")
	fs.StringVar(&o.format, "log-format", envOr("LOG_FORMAT", "text"), "log format: text or json")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return o, fmt.Errorf("expected <db-path> and <csv-path>, got %d argument(s)", fs.NArg())
	}
	if utf8.RuneCountInString(delim) != 1 {
		return o, fmt.Errorf("delimiter must be a single character, got %q", delim)
	}
	o.load.Delimiter, _ = utf8.DecodeRuneInString(delim)
	o.dbPath, o.csvPath = fs.Arg(0), fs.Arg(1)
	return o, nil
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	o, err := parseArgs(args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stderr, "loader:", err)
		}
		return exitUsage
	}
	log := logging.New(o.level, o.format)
	log.SetOutput(stderr)

	// A bad source path must not leave an empty database file behind.
	if err := loader.CheckSource(o.csvPath); err != nil {
		log.WithError(err).WithField("source", o.csvPath).Error(describe(err))
		return exitFail
	}

	db, err := database.Open(o.dbPath, false)
	if err != nil {
		log.WithError(err).WithField("db", o.dbPath).Error("cannot open database")
		return exitFail
	}
	defer db.Close()

	start := time.Now()
	res, err := loader.Load(ctx, db, o.csvPath, o.load)
	if err != nil {
		log.WithError(err).WithField("source", o.csvPath).Error(describe(err))
		return exitFail
	}
	log.WithFields(logrus.Fields{
		"table":    res.Table,
		"rows":     res.Rows,
		"columns":  len(res.Columns),
		"indexes":  len(res.Indexes),
		"source":   o.csvPath,
		"db":       o.dbPath,
		"duration": time.Since(start).Round(time.Millisecond).String(),
	}).Infof("loaded %d rows into %s", res.Rows, res.Table)

	if url := config.AMQPURL(); url != "" {
		ev := service.NewDatasetLoadedEvent(o.csvPath, res.Table, res.Columns, res.Indexes, res.Rows, o.load.Overwrite)
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := service.PublishDatasetLoaded(pctx, url, ev); err != nil {
			log.WithError(err).Warn("dataset.loaded event not published")
		}
	}
	return exitOK
}

// describe turns a load error into an instruction the operator can act on.
func describe(err error) string {
	switch {
	case errors.Is(err, loader.ErrSourceNotFound):
		return "CSV file not found; check the path"
	case errors.Is(err, loader.ErrSourceUnreadable):
		return "CSV file could not be read; check permissions and -encoding"
	case errors.Is(err, loader.ErrEmptyHeader):
		return "CSV file has no header row"
	case errors.Is(err, loader.ErrDuplicateColumn):
		return "CSV header has duplicate column names; rename them and retry"
	case errors.Is(err, loader.ErrMalformedRow):
		return "CSV file is malformed; fix the reported line and retry"
	case errors.Is(err, loader.ErrInvalidIdentifier):
		return "cannot derive a table name; pass -table"
	case errors.Is(err, loader.ErrTableExists):
		return "table already exists; rerun with -overwrite to replace it"
	default:
		return "load failed; nothing was written"
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
