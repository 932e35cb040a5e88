package domain

import "context"

// Database defines lifecycle operations for the underlying store.
// Each implementation (SQLite, Postgres, Mongo) owns its own schema or
// index setup, ensuring the entire backend is swappable.
type Database interface {
	Migrate(ctx context.Context) error
	Close() error
}

// Store is a Database that vends the user repository.
type Store interface {
	Database
	Users() UserRepository
}
