// Package cache maps external keys to backend ids for one synchronization run.
//
// Each referenced kind gets its own bounded LRU cache. Entries are added on
// first successful resolution and never invalidated during a run; the run
// assumes no concurrent rename of the same key. All methods are safe for
// concurrent use. Concurrent misses on the same key share one backend call.
package cache
