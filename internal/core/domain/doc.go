// Package domain defines the core domain models for Yedis.
//
// Domain models are pure values without IO dependencies. This package
// contains:
//
//   - Request: the structured operations a Redis command translates into,
//     one variant per operation, each carrying a document key
//   - Bound: range ends with infinity and exclusivity
//   - DataType, WriteMode: document types and conditional write modes
//   - Errors: domain error definitions and codes
package domain
