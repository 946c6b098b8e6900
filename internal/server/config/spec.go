package config

import (
	"time"

	"github.com/yndnr/yedis-go/internal/storage"
)

// ServerConfig is the root configuration for yedis-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server" json:"server" yaml:"server"`
	Storage  StorageSection  `koanf:"storage" json:"storage" yaml:"storage"`
	Security SecuritySection `koanf:"security" json:"security" yaml:"security"`
	Log      LogSection      `koanf:"log" json:"log" yaml:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	Redis RedisConfig `koanf:"redis" json:"redis" yaml:"redis"`
	Admin AdminConfig `koanf:"admin" json:"admin" yaml:"admin"`
}

// RedisConfig configures the Redis protocol listener.
type RedisConfig struct {
	Addr string `koanf:"addr" json:"addr" yaml:"addr"`

	// TLS is enabled when both files are set. Clients must present a
	// certificate signed by TLSClientCAFile when it is set.
	TLSCertFile     string `koanf:"tls_cert_file" json:"tls_cert_file" yaml:"tls_cert_file"`
	TLSKeyFile      string `koanf:"tls_key_file" json:"tls_key_file" yaml:"tls_key_file"`
	TLSClientCAFile string `koanf:"tls_client_ca_file" json:"tls_client_ca_file" yaml:"tls_client_ca_file"`

	// IdleTimeout closes connections that send nothing. Zero disables it.
	IdleTimeout  time.Duration `koanf:"idle_timeout" json:"idle_timeout" yaml:"idle_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout" json:"write_timeout" yaml:"write_timeout"`

	MaxConnections int `koanf:"max_connections" json:"max_connections" yaml:"max_connections"`

	// RateLimit is commands per second per client IP. Zero disables it.
	RateLimit      float64 `koanf:"rate_limit" json:"rate_limit" yaml:"rate_limit"`
	RateLimitBurst int     `koanf:"rate_limit_burst" json:"rate_limit_burst" yaml:"rate_limit_burst"`

	MaxValueSize  int64 `koanf:"max_value_size" json:"max_value_size" yaml:"max_value_size"`
	MaxInlineLen  int   `koanf:"max_inline_len" json:"max_inline_len" yaml:"max_inline_len"`
	MaxBufferSize int   `koanf:"max_buffer_size" json:"max_buffer_size" yaml:"max_buffer_size"`
}

// TLSEnabled reports whether the listener serves TLS.
func (c *RedisConfig) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// AdminConfig configures the HTTP admin server (health, version, metrics).
type AdminConfig struct {
	// Addr is the listen address. Empty disables the admin server.
	Addr string `koanf:"addr" json:"addr" yaml:"addr"`

	// AllowList restricts /admin endpoints to these IPs or CIDRs.
	// Empty means no restriction.
	AllowList []string `koanf:"allow_list" json:"allow_list" yaml:"allow_list"`
}

// StorageSection configures the storage engine.
type StorageSection struct {
	// Engine is "badger" or "memory".
	Engine        string        `koanf:"engine" json:"engine" yaml:"engine"`
	DataDir       string        `koanf:"data_dir" json:"data_dir" yaml:"data_dir"`
	LockStripes   int           `koanf:"lock_stripes" json:"lock_stripes" yaml:"lock_stripes"`
	SweepInterval time.Duration `koanf:"sweep_interval" json:"sweep_interval" yaml:"sweep_interval"`
	Badger        BadgerSection `koanf:"badger" json:"badger" yaml:"badger"`
}

// BadgerSection holds Badger tuning parameters.
type BadgerSection struct {
	GCInterval       string  `koanf:"gc_interval" json:"gc_interval" yaml:"gc_interval"`
	GCThreshold      float64 `koanf:"gc_threshold" json:"gc_threshold" yaml:"gc_threshold"`
	CacheSize        int64   `koanf:"cache_size" json:"cache_size" yaml:"cache_size"`
	ValueLogFileSize int64   `koanf:"value_log_file_size" json:"value_log_file_size" yaml:"value_log_file_size"`
	SyncWrites       bool    `koanf:"sync_writes" json:"sync_writes" yaml:"sync_writes"`
}

// KVConfig converts the section into a storage engine configuration.
func (s *StorageSection) KVConfig() storage.KVConfig {
	cfg := storage.DefaultKVConfig(s.DataDir)
	cfg.Engine = s.Engine
	cfg.Badger.GCInterval = s.Badger.GCInterval
	cfg.Badger.GCThreshold = s.Badger.GCThreshold
	cfg.Badger.CacheSize = s.Badger.CacheSize
	cfg.Badger.ValueLogFileSize = s.Badger.ValueLogFileSize
	cfg.Badger.SyncWrites = s.Badger.SyncWrites
	return cfg
}

// SecuritySection configures security settings.
type SecuritySection struct {
	// RequirePass is an argon2id hash produced by `yedis-cli hash-password`.
	// Empty disables AUTH.
	RequirePass string `koanf:"requirepass" json:"requirepass" yaml:"requirepass"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" json:"level" yaml:"level"`
	Format string `koanf:"format" json:"format" yaml:"format"`
}
