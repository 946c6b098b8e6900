// Package output formats yedis-cli results as tables, JSON or YAML.
package output
