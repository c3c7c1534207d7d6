// Package store provides SQLite-backed durable storage for waiting drafts.
//
// It implements waiting.Store with two tables:
//   - waiting_drafts: one row per parked draft, keyed by (kind, draft_key)
//   - waiting_dependencies: one row per missing key, cascaded on delete
//
// Records are returned ordered by queued_at, then draft_key COLLATE BINARY,
// matching the in-memory store.
//
// # Database Configuration
//
// Every connection is opened with WAL journaling, synchronous=NORMAL, a
// 5 second busy timeout and foreign keys on (the dependency cascade needs
// them). Schema upgrades are tracked in user_version; Open refuses a
// database written by a newer version.
package store
