// Package main provides the entry point for yedis-cli.
//
// Usage:
//
//	yedis-cli [global flags]                      interactive session
//	yedis-cli -s host:6379 exec SET key value     run one command
//	yedis-cli -o json explain ZADD z CH 1 m       show the translated request
//	yedis-cli bench -c 50 -n 100000 -t set,get    load test
//	yedis-cli hash-password -                     hash a password from stdin
//	yedis-cli --admin host:8080 system status     query the admin server
package main
