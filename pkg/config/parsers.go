package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

const envPrefix = "FEEDCACHE_"

// Flags holds command-line values and which of them were set explicitly.
type Flags struct {
	DB       string
	Config   string
	LogLevel string
	Set      map[string]bool
}

// EnvResult reports which environment variables contributed.
type EnvResult struct {
	Used []string
}

// EffectiveConfigResult is the merged and validated configuration.
type EffectiveConfigResult struct {
	Config     *Config
	ConfigPath string
	FileFound  bool
	Env        EnvResult
}

// ResolveConfigPath prefers the flag, then FEEDCACHE_CONFIG, then the default.
func ResolveConfigPath(flags Flags) string {
	if flags.Set["config"] {
		return flags.Config
	}
	if p := os.Getenv(envPrefix + "CONFIG"); p != "" {
		return p
	}
	if flags.Config != "" {
		return flags.Config
	}
	return DefaultConfigPath
}

// ParseConfigFile loads path. A missing file is not an error unless required.
func ParseConfigFile(path string, required bool) (*Config, bool, error) {
	cfg, err := LoadConfigFile(path)
	if err != nil {
		if os.IsNotExist(errors.UnwrapAll(err)) && !required {
			return &Config{}, false, nil
		}
		return nil, false, err
	}
	return cfg, true, nil
}

// ApplyEnv overlays FEEDCACHE_* variables onto cfg.
func ApplyEnv(cfg *Config) (EnvResult, error) {
	var res EnvResult
	lookup := func(name string) (string, bool) {
		v, ok := os.LookupEnv(envPrefix + name)
		v = strings.TrimSpace(v)
		if ok && v != "" {
			res.Used = append(res.Used, envPrefix+name)
			return v, true
		}
		return "", false
	}

	parseBool := func(v string) bool {
		switch strings.ToLower(v) {
		case "1", "true", "yes":
			return true
		default:
			return false
		}
	}

	var errs error
	if v, ok := lookup("DB_PATH"); ok {
		cfg.Store.DBPath = v
	}
	if v, ok := lookup("CACHE_SIZE"); ok {
		s, err := ParseSizeBytes(v)
		errs = errors.CombineErrors(errs, errors.Wrap(err, envPrefix+"CACHE_SIZE"))
		cfg.Store.CacheSize = s
	}
	if v, ok := lookup("MEMTABLE_SIZE"); ok {
		s, err := ParseSizeBytes(v)
		errs = errors.CombineErrors(errs, errors.Wrap(err, envPrefix+"MEMTABLE_SIZE"))
		cfg.Store.MemTableSize = s
	}
	if v, ok := lookup("DISABLE_WAL"); ok {
		cfg.Store.DisableWAL = parseBool(v)
	}
	if v, ok := lookup("SYNC_WRITES"); ok {
		cfg.Store.SyncWrites = parseBool(v)
	}
	if v, ok := lookup("PROFILE_CACHE_ENTRIES"); ok {
		n, err := strconv.Atoi(v)
		errs = errors.CombineErrors(errs, errors.Wrap(err, envPrefix+"PROFILE_CACHE_ENTRIES"))
		cfg.Store.ProfileCacheEntries = n
	}
	if v, ok := lookup("PUBLIC_KEY"); ok {
		cfg.Identity.PublicKey = v
	}
	if v, ok := lookup("INGEST_WORKERS"); ok {
		n, err := strconv.Atoi(v)
		errs = errors.CombineErrors(errs, errors.Wrap(err, envPrefix+"INGEST_WORKERS"))
		cfg.Ingest.Workers = n
	}
	if v, ok := lookup("INGEST_SKIP_VALIDATION"); ok {
		cfg.Ingest.SkipValidation = parseBool(v)
	}
	if v, ok := lookup("FLUSH_ENABLED"); ok {
		cfg.Flush.Enabled = parseBool(v)
	}
	if v, ok := lookup("FLUSH_CRON"); ok {
		cfg.Flush.Cron = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		cfg.Logging.Level = v
	}
	if v, ok := lookup("TELEMETRY_DIR"); ok {
		cfg.Telemetry.Dir = v
	}
	if v, ok := lookup("TELEMETRY_FLUSH_INTERVAL"); ok {
		d, err := ParseDuration(v)
		errs = errors.CombineErrors(errs, errors.Wrap(err, envPrefix+"TELEMETRY_FLUSH_INTERVAL"))
		cfg.Telemetry.FlushInterval = d
	}
	return res, errs
}

// LoadEffectiveConfig merges defaults, the config file, the environment and
// explicitly set flags, in increasing precedence, then validates the result.
func LoadEffectiveConfig(flags Flags) (EffectiveConfigResult, error) {
	var res EffectiveConfigResult
	res.ConfigPath = ResolveConfigPath(flags)

	required := flags.Set["config"] || os.Getenv(envPrefix+"CONFIG") != ""
	cfg, found, err := ParseConfigFile(res.ConfigPath, required)
	if err != nil {
		return res, err
	}
	res.FileFound = found

	if res.Env, err = ApplyEnv(cfg); err != nil {
		return res, err
	}

	if flags.Set["db"] {
		cfg.Store.DBPath = flags.DB
	}
	if flags.Set["log-level"] {
		cfg.Logging.Level = flags.LogLevel
	}
	if cfg.Store.DBPath == "" {
		cfg.Store.DBPath = DefaultDBPath
	}

	if err := cfg.ValidateConfig(); err != nil {
		return res, err
	}
	res.Config = cfg
	return res, nil
}
