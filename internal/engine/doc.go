// Package engine synchronizes batches of drafts against the backend.
//
// A Syncer is built for one entity kind from a Kind strategy, a backend
// Service, the key lookups for every kind its drafts reference and a
// waiting.Store. Sync runs one synchronization and returns its statistics.
//
// ARCHITECTURE:
//
// Run-scoped services:
// Each Sync call creates its own statistics, key/id caches and resolver.
// Nothing survives between runs except the waiting store.
//
// Batch processing:
// Input drafts are cut into batches of Options.BatchSize. Batches run
// strictly one after another. Within a batch:
//  1. Drafts without a key or repeating a key fail.
//  2. Every referenced key is prefetched, one backend query per kind.
//  3. References are resolved concurrently. Drafts waiting on same-kind
//     drafts of this run are parked in the waiting store.
//  4. Existing entities are fetched with one query.
//  5. Matched drafts are created or updated concurrently.
//
// After each batch, drafts parked on keys the batch created are taken out
// of the waiting store and processed as further batches. Once the input is
// exhausted, drafts still parked by this run get one last attempt in which
// missing references are terminal.
//
// Conflicts:
// An update rejected with a version conflict is retried exactly once
// against a freshly fetched entity. No draft causes more than two writes.
//
// Accounting:
// Every draft ends in exactly one of created, updated, up to date or
// failed. Parked drafts are counted when they reach that state. Failures are
// reported through Options.OnError; Sync itself only returns an error for a
// cancelled context.
package engine
