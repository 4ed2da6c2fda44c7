package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("UPLOAD_DIR", filepath.Join(dir, "uploads"))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 12*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, float64(60), cfg.Exams.PassThreshold)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "guidesphere", cfg.Tracing.ServiceName)
	assert.Equal(t, 1.0, cfg.Tracing.SampleRatio)
	assert.DirExists(t, filepath.Join(dir, "uploads"))
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: "8080"
  mode: debug
database:
  driver: postgres
  host: db
  port: 5432
jwt:
  secret: from-file
  expire_hours: 2
storage:
  type: minio
exams:
  pass_threshold: 70
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DB_HOST", "pg.internal")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "pg.internal", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, 2*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, float64(70), cfg.Exams.PassThreshold)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), cfg.FilePath)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Server:   ServerConfig{Mode: "debug"},
			Database: DatabaseConfig{Driver: "sqlite"},
			JWT:      JWTConfig{Secret: "short"},
			Exams:    ExamsConfig{PassThreshold: 60},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"debug accepts short secret", func(c *Config) {}, false},
		{"release rejects short secret", func(c *Config) { c.Server.Mode = "release" }, true},
		{"release accepts long secret", func(c *Config) {
			c.Server.Mode = "release"
			c.JWT.Secret = "0123456789abcdef0123456789abcdef"
		}, false},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }, true},
		{"threshold out of range", func(c *Config) { c.Exams.PassThreshold = 120 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
