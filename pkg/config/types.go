package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Identity  IdentityConfig  `yaml:"identity"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Flush     FlushConfig     `yaml:"flush"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// StoreConfig tunes the embedded engine.
type StoreConfig struct {
	DBPath       string    `yaml:"db_path"`
	CacheSize    SizeBytes `yaml:"cache_size"`
	MemTableSize SizeBytes `yaml:"memtable_size"`
	DisableWAL   bool      `yaml:"disable_wal"`
	SyncWrites   bool      `yaml:"sync_writes"`
	// ProfileCacheEntries bounds the profile read cache; negative disables it.
	ProfileCacheEntries int `yaml:"profile_cache_entries"`
}

// IdentityConfig names the local user whose contact list is kept.
type IdentityConfig struct {
	PublicKey string `yaml:"public_key"`
}

type IngestConfig struct {
	Workers        int  `yaml:"workers"`
	SkipValidation bool `yaml:"skip_validation"`
}

// FlushConfig schedules periodic memtable flushes for long-running processes.
type FlushConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// TelemetryConfig controls the JSONL trace writer. An empty Dir disables it;
// "state" writes under <db_path>/state/telemetry.
type TelemetryConfig struct {
	Dir           string    `yaml:"dir"`
	BufferSize    SizeBytes `yaml:"buffer_size"`
	FileMaxSize   SizeBytes `yaml:"file_max_size"`
	FlushInterval Duration  `yaml:"flush_interval"`
	QueueCapacity int       `yaml:"queue_capacity"`
}

// SizeBytes represents a number of bytes, unmarshaled from human-friendly strings like "64MB" or plain integers.
type SizeBytes int64

func (s *SizeBytes) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseSizeBytes(node.Value)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func ParseSizeBytes(raw string) (SizeBytes, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if v, err := humanize.ParseBytes(raw); err == nil {
		return SizeBytes(v), nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return SizeBytes(i), nil
	}
	return 0, errors.Newf("invalid size value: %q", raw)
}

func (s SizeBytes) Int64() int64 { return int64(s) }

func (s SizeBytes) String() string {
	if s <= 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(s))
}

// Duration is a wrapper around time.Duration that supports YAML parsing from strings like "100ms" or plain numbers (interpreted as seconds).
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseDuration(node.Value)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func ParseDuration(raw string) (Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if td, err := time.ParseDuration(raw); err == nil {
		return Duration(td), nil
	}
	// allow numeric seconds
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return Duration(time.Duration(f * float64(time.Second))), nil
	}
	return 0, errors.Newf("invalid duration value: %q", raw)
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }
