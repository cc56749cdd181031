// Package backend provides the Lumeo composer API server.

// The application entry points live under cmd/. The actual API
// documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/session: Composition session registry and orchestration
// - internal/composer: Slide collection and non-destructive edit models
// - internal/canvas: Text overlay editor with undo/redo history
// - internal/compositor: CSS filter/transform derivation and crop selection
// - internal/publish: Post validation, assembly and submission
// - internal/draft: Draft checkpointing (Redis or database backed)
// - internal/assets: Session-local preview image store
// - internal/models: Data models and database schemas
// - internal/storage: File storage (S3) operations
// - internal/database: Database connection and migrations
// - internal/middleware: HTTP middleware (request IDs, logging, metrics)

// See the individual package documentation for detailed API reference.
package backend
