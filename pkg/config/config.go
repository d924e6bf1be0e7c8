package config

import (
	"os"
	"runtime"
	"time"

	"github.com/adhocore/gronx"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"feedcache/pkg/models"
	"feedcache/pkg/state/logger"
)

const (
	DefaultDBPath     = "./.feedcache"
	DefaultConfigPath = "./feedcache.yaml"

	defaultCacheSize           = 64 << 20
	defaultMemTableSize        = 32 << 20
	defaultProfileCacheEntries = 4096
	defaultFlushCron           = "*/5 * * * *"
	defaultLogLevel            = "info"
	// telemetry defaults
	defaultTelemetryBufferSize    = 1 << 20
	defaultTelemetryFileMaxSize   = 40 << 20
	defaultTelemetryFlushInterval = 2 * time.Second
	defaultTelemetryQueueCapacity = 2048
)

// LoadConfigFile reads and parses a config file.
func LoadConfigFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return &cfg, nil
}

// ValidateConfig fills in defaults and rejects invalid values. It mutates the receiver.
func (c *Config) ValidateConfig() error {
	if c.Store.DBPath == "" {
		return errors.New("database path is empty: set --db, FEEDCACHE_DB_PATH or store.db_path")
	}
	if c.Store.CacheSize <= 0 {
		c.Store.CacheSize = defaultCacheSize
	}
	if c.Store.MemTableSize <= 0 {
		c.Store.MemTableSize = defaultMemTableSize
	}
	if c.Store.ProfileCacheEntries == 0 {
		c.Store.ProfileCacheEntries = defaultProfileCacheEntries
	}

	numCPU := runtime.NumCPU()
	if c.Ingest.Workers <= 0 {
		c.Ingest.Workers = numCPU
	} else if c.Ingest.Workers > 4*numCPU {
		logger.Warn("ingest_workers_capped", "requested", c.Ingest.Workers, "capped_to", 4*numCPU)
		c.Ingest.Workers = 4 * numCPU
	}

	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	if c.Flush.Cron == "" {
		c.Flush.Cron = defaultFlushCron
	}
	if !gronx.IsValid(c.Flush.Cron) {
		return errors.Newf("invalid flush cron expression: %s", c.Flush.Cron)
	}

	if c.Identity.PublicKey != "" {
		if _, err := models.ParsePublicKey(c.Identity.PublicKey); err != nil {
			return errors.Wrap(err, "identity.public_key")
		}
	}

	if c.Telemetry.BufferSize <= 0 {
		c.Telemetry.BufferSize = defaultTelemetryBufferSize
	}
	if c.Telemetry.FileMaxSize <= 0 {
		c.Telemetry.FileMaxSize = defaultTelemetryFileMaxSize
	}
	if c.Telemetry.FlushInterval <= 0 {
		c.Telemetry.FlushInterval = Duration(defaultTelemetryFlushInterval)
	}
	if c.Telemetry.QueueCapacity <= 0 {
		c.Telemetry.QueueCapacity = defaultTelemetryQueueCapacity
	}
	return nil
}

// Owner returns the parsed identity key, or nil when none is configured.
func (c *Config) Owner() *models.PublicKey {
	if c.Identity.PublicKey == "" {
		return nil
	}
	pk, err := models.ParsePublicKey(c.Identity.PublicKey)
	if err != nil {
		return nil
	}
	return &pk
}

// Summary lists the effective values for the startup banner.
func (c *Config) Summary() []string {
	owner := "none"
	if pk := c.Owner(); pk != nil {
		owner = pk.Short()
	}
	flush := "off"
	if c.Flush.Enabled {
		flush = c.Flush.Cron
	}
	return []string{
		"db_path: " + c.Store.DBPath,
		"cache_size: " + c.Store.CacheSize.String(),
		"memtable_size: " + c.Store.MemTableSize.String(),
		"owner: " + owner,
		"flush: " + flush,
		"log_level: " + c.Logging.Level,
	}
}
