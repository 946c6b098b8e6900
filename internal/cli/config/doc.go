// Package config loads and saves the yedis-cli configuration file
// (~/.yedis/cli.yaml by default).
//
// The file holds named connection profiles. Flags and YEDIS_* environment
// variables take precedence over the active profile.
package config
