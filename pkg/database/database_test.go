package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type extractedPayload struct {
	Notes      string  `json:"notes"`
	Confidence float64 `json:"confidence"`
}

func TestJSONB_Scan(t *testing.T) {
	t.Run("bytes", func(t *testing.T) {
		var v JSONB[extractedPayload]
		require.NoError(t, v.Scan([]byte(`{"notes":"ok","confidence":0.8}`)))
		assert.True(t, v.Valid)
		assert.Equal(t, "ok", v.Data.Notes)
		assert.Equal(t, 0.8, v.Data.Confidence)
	})

	t.Run("null column", func(t *testing.T) {
		v := NewJSONB(extractedPayload{Notes: "stale"})
		require.NoError(t, v.Scan(nil))
		assert.False(t, v.Valid)
		assert.Empty(t, v.Data.Notes)

		value, err := v.Value()
		require.NoError(t, err)
		assert.Nil(t, value)
	})

	t.Run("unsupported source", func(t *testing.T) {
		var v JSONB[extractedPayload]
		assert.Error(t, v.Scan(42))
	})
}

func TestJSONB_Value(t *testing.T) {
	v := NewJSONB(extractedPayload{Notes: "ok", Confidence: 1})
	value, err := v.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"notes":"ok","confidence":1}`, string(value.([]byte)))
}

func TestLatestVersion(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000001_init.up.sql",
		"000001_init.down.sql",
		"000003_transcripts.up.sql",
		"000002_snapshots.up.sql",
		"README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o600))
	}

	latest, err := latestVersion(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, latest)
}

func TestLatestVersion_Empty(t *testing.T) {
	_, err := latestVersion(t.TempDir())
	assert.Error(t, err)
}

func TestConfigDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "traffic", Password: "secret", Name: "traffic", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=traffic password=secret dbname=traffic sslmode=disable", cfg.DSN())
}
