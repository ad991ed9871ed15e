package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratumlab/sowforge/internal/pkg/apperr"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"jwt_secret": "secret",
		"database": {"dsn": "postgres://localhost/sowforge"}
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "hash", cfg.AI.EmbedProvider)
	assert.Equal(t, 384, cfg.AI.EmbedDim)
	assert.Equal(t, 800, cfg.Chunking.Size)
	assert.Equal(t, 120, cfg.Chunking.Overlap)
	assert.Equal(t, "memory", cfg.Vector.Mode)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, "none", cfg.Retry.Backoff)
	assert.Equal(t, 72, cfg.JWTTTLHours)
	assert.Equal(t, "local", cfg.FileStore.Type)
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	path := writeConfig(t, `{"port": 8080, "database": {"dsn": "x"}}`)
	_, err := Load(path)
	assert.ErrorIs(t, err, apperr.ErrInvalidConfig)
}

func TestLoadRejectsOverlapNotSmallerThanSize(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"jwt_secret": "secret",
		"database": {"dsn": "x"},
		"chunking": {"size": 100, "overlap": 100}
	}`)
	_, err := Load(path)
	assert.ErrorIs(t, err, apperr.ErrInvalidConfig)
}

func TestLoadRejectsIncompleteRemoteVector(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"jwt_secret": "secret",
		"database": {"dsn": "x"},
		"vector": {"mode": "remote", "remote": {"host": "https://dbx"}}
	}`)
	_, err := Load(path)
	assert.ErrorIs(t, err, apperr.ErrInvalidConfig)
}

func TestLoadRejectsUnknownVectorMode(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"jwt_secret": "secret",
		"database": {"dsn": "x"},
		"vector": {"mode": "faiss"}
	}`)
	_, err := Load(path)
	assert.ErrorIs(t, err, apperr.ErrInvalidConfig)
}

func TestLoadRejectsEnabledWarehouseWithoutHost(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"jwt_secret": "secret",
		"database": {"dsn": "x"},
		"warehouse": {"enabled": true}
	}`)
	_, err := Load(path)
	assert.ErrorIs(t, err, apperr.ErrInvalidConfig)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
