package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "debug", "JSON")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log.WithField("table", "zip_county").Info("loaded")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "loaded", entry["msg"])
	assert.Equal(t, "zip_county", entry["table"])
}

func TestNewLogger_BadLevel(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "loud", "text")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.Contains(t, buf.String(), "unknown log level")
}
