// Package confloader loads configuration with koanf.
//
// Sources, from lowest to highest priority:
//
//  1. Default values (the target struct as passed to Load)
//  2. Configuration file (YAML)
//  3. Environment variables (YEDIS_ prefix)
//  4. Explicit maps (LoadMap), used for flags and tests
//
// Environment names map onto config keys by replacing underscores with
// dots, except where the underscore is part of a known key:
// YEDIS_SERVER_REDIS_MAX_VALUE_SIZE sets server.redis.max_value_size.
//
// Watcher reports changes to a config file so the caller can re-apply the
// settings that are safe to change at runtime.
package confloader
