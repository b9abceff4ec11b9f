package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.App.Env)
	assert.False(t, cfg.App.IsDevelopment())
	assert.False(t, cfg.App.DemoSeed)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, int32(25), cfg.DB.MaxConns)
	assert.Equal(t, 30*time.Second, cfg.DB.StatementTimeout)
	assert.Equal(t, "stock", cfg.Redis.KeyPrefix)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 30*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Empty(t, cfg.Rules.Movement)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "POSTGRES")
	t.Setenv("DATABASE_URL", "postgres://localhost/stock")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_MAX_CONNS", "50")
	t.Setenv("TX_STATEMENT_TIMEOUT", "5s")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("MOVEMENT_RULE", `quantity < 1000`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, int32(50), cfg.DB.MaxConns)
	assert.Equal(t, 5*time.Second, cfg.DB.StatementTimeout)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "quantity < 1000", cfg.Rules.Movement)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stock.env")
	require.NoError(t, os.WriteFile(path, []byte("STORAGE_DRIVER=memory\nJWT_SECRET=from-file\nAPP_PORT=9090\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("APP_PORT", "7070")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.Equal(t, "7070", cfg.App.Port, "environment wins over file")
}

func TestLoad_DemoSeedIsExplicit(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.App.IsDevelopment())
	assert.False(t, cfg.App.DemoSeed)

	t.Setenv("DEMO_SEED", "true")
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.App.DemoSeed)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "postgres without url",
			cfg:     Config{Storage: StorageConfig{Driver: DriverPostgres}, JWT: JWTConfig{Secret: "s"}},
			wantErr: "DATABASE_URL",
		},
		{
			name:    "unknown driver",
			cfg:     Config{Storage: StorageConfig{Driver: "sqlite"}, JWT: JWTConfig{Secret: "s"}},
			wantErr: "unknown STORAGE_DRIVER",
		},
		{
			name:    "demo seed on postgres",
			cfg:     Config{App: AppConfig{DemoSeed: true}, Storage: StorageConfig{Driver: DriverPostgres}, DB: DBConfig{URL: "postgres://x"}, JWT: JWTConfig{Secret: "s"}},
			wantErr: "DEMO_SEED",
		},
		{
			name:    "missing secret",
			cfg:     Config{Storage: StorageConfig{Driver: DriverMemory}},
			wantErr: "JWT_SECRET",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
