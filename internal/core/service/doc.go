// Package service applies translated requests to storage.
//
// Executor holds the command semantics: it loads the document stored under
// a key, applies a domain.Request and builds the Result the server replies
// with. AuthService checks AUTH passwords against an argon2id hash, and
// RateLimiterRegistry holds per-client limiters.
package service
