// Package backend defines the remote commerce backend as seen by the sync
// engine, plus two implementations.
//
// A Service reads entities by key and writes them with optimistic
// concurrency: Update carries the version the caller last saw and fails with
// a ConflictError when the stored version moved on. Memory keeps entities in
// process and backs tests and file-based runs. HTTPService talks to a JSON
// REST API authenticated with OAuth2 client credentials.
package backend
