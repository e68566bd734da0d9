// Package api implements the HTTP command boundary for graybridge.
//
// This package provides:
//   - REST endpoints for database open, load, pragma, select, execute, batch
//   - Structured error envelopes with stable codes
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//   - Optional JWT bearer authentication
//   - TLS support for non-localhost deployments
//
// # Architecture
//
// The server is transport-thin: handlers decode JSON, call the bridge
// registry, and encode the result. All database semantics (serialisation,
// value conversion, transactional batches) live in the bridge package.
//
// # Security
//
// Authentication is off by default for loopback deployments. Setting
// security.jwt.secret in config enables HS256 bearer validation on every
// /db route; /health stays open for probes.
package api
