package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestRun(t *testing.T) {
	t.Setenv("AMQP_URL", "")
	t.Setenv("RABBITMQ_URL", "")
	dir := t.TempDir()
	db := filepath.Join(dir, "data.db")
	csvPath := writeCSV(t, dir, "zip_county.csv", "zip,county_code\n02138,25017\n")
	ctx := context.Background()

	var stderr bytes.Buffer
	require.Equal(t, exitOK, run(ctx, []string{db, csvPath}, &stderr), stderr.String())
	assert.Contains(t, stderr.String(), "loaded 1 rows into zip_county")

	stderr.Reset()
	assert.Equal(t, exitFail, run(ctx, []string{db, csvPath}, &stderr))
	assert.Contains(t, stderr.String(), "-overwrite")

	stderr.Reset()
	assert.Equal(t, exitOK, run(ctx, []string{"-overwrite", db, csvPath}, &stderr), stderr.String())
}

func TestRun_Failures(t *testing.T) {
	t.Setenv("AMQP_URL", "")
	t.Setenv("RABBITMQ_URL", "")
	dir := t.TempDir()
	db := filepath.Join(dir, "data.db")
	ctx := context.Background()
	var stderr bytes.Buffer

	assert.Equal(t, exitFail, run(ctx, []string{db, filepath.Join(dir, "nope.csv")}, &stderr))
	assert.Contains(t, stderr.String(), "not found")
	_, statErr := os.Stat(db)
	assert.True(t, os.IsNotExist(statErr), "no database file for a missing source")

	stderr.Reset()
	assert.Equal(t, exitFail, run(ctx, []string{db, dir}, &stderr))
	assert.Contains(t, stderr.String(), "could not be read")
	_, statErr = os.Stat(db)
	assert.True(t, os.IsNotExist(statErr))

	stderr.Reset()
	empty := writeCSV(t, dir, "empty.csv", "")
	assert.Equal(t, exitFail, run(ctx, []string{db, empty}, &stderr))
	assert.Contains(t, stderr.String(), "no header")

	stderr.Reset()
	dup := writeCSV(t, dir, "dup.csv", "zip,ZIP\n1,2\n")
	assert.Equal(t, exitFail, run(ctx, []string{db, dup}, &stderr))
	assert.Contains(t, stderr.String(), "duplicate")
}

func TestRun_Usage(t *testing.T) {
	ctx := context.Background()
	var stderr bytes.Buffer
	assert.Equal(t, exitUsage, run(ctx, nil, &stderr))
	assert.Equal(t, exitUsage, run(ctx, []string{"only-one"}, &stderr))
	assert.Equal(t, exitUsage, run(ctx, []string{"-delimiter", ";;", "a.db", "b.csv"}, &stderr))
	assert.Equal(t, exitUsage, run(ctx, []string{"-bogus", "a.db", "b.csv"}, &stderr))
	assert.Contains(t, stderr.String(), "usage: loader")
}

func TestParseArgs(t *testing.T) {
	var stderr bytes.Buffer
	o, err := parseArgs([]string{"-table", "zips", "-delimiter", ";", "-encoding", "windows-1252", "-overwrite", "a.db", "b.csv"}, &stderr)
	require.NoError(t, err)
	assert.Equal(t, "a.db", o.dbPath)
	assert.Equal(t, "b.csv", o.csvPath)
	assert.Equal(t, "zips", o.load.Table)
	assert.Equal(t, ';', o.load.Delimiter)
	assert.Equal(t, "windows-1252", o.load.Encoding)
	assert.True(t, o.load.Overwrite)
}
