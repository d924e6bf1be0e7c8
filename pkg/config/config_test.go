package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validKey = "79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feedcache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	flags := Flags{Config: filepath.Join(t.TempDir(), "absent.yaml")}
	res, err := LoadEffectiveConfig(flags)
	require.NoError(t, err)
	assert.False(t, res.FileFound)

	cfg := res.Config
	assert.Equal(t, DefaultDBPath, cfg.Store.DBPath)
	assert.Equal(t, SizeBytes(defaultCacheSize), cfg.Store.CacheSize)
	assert.Equal(t, defaultProfileCacheEntries, cfg.Store.ProfileCacheEntries)
	assert.Equal(t, runtime.NumCPU(), cfg.Ingest.Workers)
	assert.Equal(t, defaultFlushCron, cfg.Flush.Cron)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Nil(t, cfg.Owner())
}

func TestFileEnvFlagPrecedence(t *testing.T) {
	path := writeConfig(t, `
store:
  db_path: /from/file
  cache_size: 16MB
  memtable_size: 4194304
identity:
  public_key: `+validKey+`
flush:
  enabled: true
  cron: "0 * * * *"
logging:
  level: warn
telemetry:
  flush_interval: 1.5
`)
	t.Setenv("FEEDCACHE_DB_PATH", "/from/env")
	t.Setenv("FEEDCACHE_LOG_LEVEL", "error")
	t.Setenv("FEEDCACHE_INGEST_WORKERS", "2")

	res, err := LoadEffectiveConfig(Flags{Config: path, LogLevel: "debug", Set: map[string]bool{"config": true, "log-level": true}})
	require.NoError(t, err)
	cfg := res.Config

	assert.True(t, res.FileFound)
	assert.Equal(t, "/from/env", cfg.Store.DBPath)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 2, cfg.Ingest.Workers)
	assert.Equal(t, SizeBytes(16_000_000), cfg.Store.CacheSize)
	assert.Equal(t, SizeBytes(4194304), cfg.Store.MemTableSize)
	assert.Equal(t, 1500*time.Millisecond, cfg.Telemetry.FlushInterval.Duration())
	assert.Equal(t, "0 * * * *", cfg.Flush.Cron)
	require.NotNil(t, cfg.Owner())
	assert.Equal(t, validKey, cfg.Owner().String())
	assert.ElementsMatch(t, []string{"FEEDCACHE_DB_PATH", "FEEDCACHE_LOG_LEVEL", "FEEDCACHE_INGEST_WORKERS"}, res.Env.Used)

	res, err = LoadEffectiveConfig(Flags{Config: path, DB: "/from/flag", Set: map[string]bool{"config": true, "db": true}})
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", res.Config.Store.DBPath)
}

func TestExplicitConfigMustExist(t *testing.T) {
	_, err := LoadEffectiveConfig(Flags{Config: "/nonexistent/feedcache.yaml", Set: map[string]bool{"config": true}})
	assert.Error(t, err)

	t.Setenv("FEEDCACHE_CONFIG", "/nonexistent/other.yaml")
	_, err = LoadEffectiveConfig(Flags{})
	assert.Error(t, err)
}

func TestValidationErrors(t *testing.T) {
	cases := map[string]string{
		"bad cron": "flush:\n  cron: \"every minute\"\n",
		"bad key":  "identity:\n  public_key: abc\n",
		"bad size": "store:\n  cache_size: lots\n",
		"bad yaml": "store: [\n",
		"bad dur":  "telemetry:\n  flush_interval: soon\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeConfig(t, body)
			_, err := LoadEffectiveConfig(Flags{Config: path, Set: map[string]bool{"config": true}})
			assert.Error(t, err)
		})
	}
}

func TestEnvParseErrors(t *testing.T) {
	t.Setenv("FEEDCACHE_INGEST_WORKERS", "many")
	t.Setenv("FEEDCACHE_CACHE_SIZE", "huge")
	_, err := ApplyEnv(&Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FEEDCACHE_CACHE_SIZE")
}

func TestSummary(t *testing.T) {
	cfg := &Config{Store: StoreConfig{DBPath: "/data"}, Identity: IdentityConfig{PublicKey: validKey}}
	require.NoError(t, cfg.ValidateConfig())
	summary := cfg.Summary()
	assert.Contains(t, summary, "db_path: /data")
	assert.Contains(t, summary, "owner: 79be667e:16f81798")
	assert.Contains(t, summary, "flush: off")
	assert.Contains(t, summary, "cache_size: 64 MiB")
}
