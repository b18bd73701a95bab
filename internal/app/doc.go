// Package app provides application initialization and lifecycle management.
//
// The App type wires all dependencies together and manages:
// - Logging setup
// - Database initialization
// - Service creation
// - HTTP server lifecycle
// - Graceful shutdown
//
// The Scheduler runs the retention cleanup in the background when a
// retention period is configured.
package app
