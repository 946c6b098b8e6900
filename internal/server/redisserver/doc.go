// Package redisserver serves the Redis protocol (RESP2) over TCP or TLS.
//
// Each connection runs in its own goroutine. Input is read into a growable
// ring buffer and framed in place by resp.Parser; a complete frame is then
// copied out and parsed with capture, so arguments stay valid while the
// command runs. Replies are buffered and flushed before the connection
// blocks on its next read, which makes pipelining cheap.
//
// PING, ECHO, QUIT, AUTH and COMMAND are answered by the server itself.
// Everything else is translated into a domain request and executed.
package redisserver
