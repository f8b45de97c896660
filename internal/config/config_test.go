package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setDatabaseEnv(t *testing.T) {
	t.Setenv("DATABASE_HOST", "localhost")
	t.Setenv("DATABASE_DBNAME", "practice_db")
	t.Setenv("DATABASE_USER", "postgres")
	t.Setenv("PRACTICE_SESSION_WINDOW", "")
	t.Setenv("GENERATION_PROVIDER", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("REDIS_ADDRS", "")
}

func TestLoad_Defaults(t *testing.T) {
	setDatabaseEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, "file://migrations", cfg.Database.MigrationsURL())
	assert.Equal(t, "memory", cfg.Practice.SessionWindow)
	assert.Equal(t, 15, cfg.Practice.SessionWindowSize)
	assert.Equal(t, 14, cfg.Practice.HistoryDays)
	assert.Equal(t, 100, cfg.Practice.HistoryLimit)
	assert.Equal(t, 20*time.Second, cfg.Generation.Timeout)
	assert.False(t, cfg.UseRedis())
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	setDatabaseEnv(t)
	t.Setenv("OPENAI_MODEL", "gpt-4o")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: "9090"
generation:
  provider: template
  timeout: 5s
  model: from-file
practice:
  history_days: 7
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "template", cfg.Generation.Provider)
	assert.Equal(t, 5*time.Second, cfg.Generation.Timeout)
	assert.Equal(t, "gpt-4o", cfg.Generation.Model, "env должен перекрывать файл")
	assert.Equal(t, 7, cfg.Practice.HistoryDays)
}

func TestLoad_MissingDatabase(t *testing.T) {
	setDatabaseEnv(t)
	t.Setenv("DATABASE_HOST", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database configuration")
}

func TestLoad_RedisWindowRequiresAddr(t *testing.T) {
	setDatabaseEnv(t)
	t.Setenv("PRACTICE_SESSION_WINDOW", "redis")

	_, err := Load("")
	require.Error(t, err)

	t.Setenv("REDIS_ADDR", "localhost:6379")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.UseRedis())
	assert.Equal(t, "redis", cfg.Practice.SessionWindow)
}

func TestLoad_UnknownWindow(t *testing.T) {
	setDatabaseEnv(t)
	t.Setenv("PRACTICE_SESSION_WINDOW", "memcached")

	_, err := Load("")
	assert.Error(t, err)
}

func TestPostgresConnectionString(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", d.PostgresConnectionString())
}
