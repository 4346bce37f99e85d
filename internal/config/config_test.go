package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
batch:
  workers: 8
  engineTimeoutSeconds: 10
database:
  driver: mysql
  host: db.internal
  port: 3306
  user: leafscan
  password: secret
  name: leafscan
archive:
  backend: minio
minio:
  endpoint: minio.internal:9000
  accessKey: ak
  secretKey: sk
  bucketName: leaf-images
engine:
  model: gpt-4o
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.Equal(t, 10*time.Second, cfg.EngineTimeout())
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "minio", cfg.Archive.Backend)
	assert.Contains(t, cfg.MySQLDSN(), "leafscan:secret@tcp(db.internal:3306)/leafscan")
	assert.Contains(t, cfg.PostgresDSN(), "host=db.internal")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 0\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.Equal(t, 30*time.Second, cfg.EngineTimeout())
	assert.Equal(t, int64(32<<20), cfg.MaxUploadSize())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "leafscan.db", cfg.Database.SQLitePath)
	assert.Equal(t, "local", cfg.Archive.Backend)
	assert.Equal(t, "images", cfg.Archive.LocalDir)
	assert.Equal(t, "gpt-4o", cfg.Engine.Model)
}

func TestEnvOverridesSecrets(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("DB_PASSWORD", "env-pass")

	cfg, err := Load(writeConfig(t, `
engine:
  openaiApiKey: file-key
database:
  driver: sqlite
  password: file-pass
`))
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Engine.OpenAIAPIKey)
	assert.Equal(t, "env-pass", cfg.Database.Password)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	_, err := Load(writeConfig(t, "database:\n  driver: oracle\n"))
	assert.Error(t, err)
}

func TestLoadRejectsUnknownArchiveBackend(t *testing.T) {
	_, err := Load(writeConfig(t, "archive:\n  backend: tape\n"))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
