package config

import (
	"time"

	"github.com/yndnr/yedis-go/internal/storage"
)

// Default configuration values.
const (
	DefaultRedisAddr      = "127.0.0.1:6379"
	DefaultAdminAddr      = "127.0.0.1:6380"
	DefaultIdleTimeout    = 5 * time.Minute
	DefaultWriteTimeout   = 10 * time.Second
	DefaultMaxConnections = 10000
	DefaultMaxValueSize   = 512 << 20 // 512MB, the Redis proto-max-bulk-len
	DefaultMaxInlineLen   = 64 << 10
	DefaultMaxBufferSize  = 576 << 20 // one max-size bulk argument plus framing

	DefaultDataDir       = "/var/lib/yedis/data"
	DefaultLockStripes   = 256
	DefaultSweepInterval = time.Minute

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	badger := storage.DefaultBadgerConfig()
	return &ServerConfig{
		Server: ServerSection{
			Redis: RedisConfig{
				Addr:           DefaultRedisAddr,
				IdleTimeout:    DefaultIdleTimeout,
				WriteTimeout:   DefaultWriteTimeout,
				MaxConnections: DefaultMaxConnections,
				MaxValueSize:   DefaultMaxValueSize,
				MaxInlineLen:   DefaultMaxInlineLen,
				MaxBufferSize:  DefaultMaxBufferSize,
			},
			Admin: AdminConfig{
				Addr: DefaultAdminAddr,
			},
		},
		Storage: StorageSection{
			Engine:        storage.EngineBadger,
			DataDir:       DefaultDataDir,
			LockStripes:   DefaultLockStripes,
			SweepInterval: DefaultSweepInterval,
			Badger: BadgerSection{
				GCInterval:       badger.GCInterval,
				GCThreshold:      badger.GCThreshold,
				CacheSize:        badger.CacheSize,
				ValueLogFileSize: badger.ValueLogFileSize,
			},
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
