// Package backend provides the Mingle API server.

// This package contains the main entry points under cmd/. The actual API
// documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/websocket: WebSocket server for real-time updates
// - internal/notify: Notification persistence and fan-out
// - internal/database: Database connection and migrations
// - internal/middleware: HTTP middleware (rate limiting, metrics, tracing)
// - internal/cache: Redis client wrapper
// - internal/seed: Development and test data seeding

// See the individual package documentation for detailed API reference.
package backend
