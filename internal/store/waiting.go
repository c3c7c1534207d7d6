package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/catalogsync/internal/waiting"
)

var _ waiting.Store = (*Store)(nil)

// maxQueryKeys bounds the number of bound parameters per IN clause.
const maxQueryKeys = 500

const selectRecord = `
	SELECT d.kind, d.draft_key, d.missing_keys, d.draft, d.hash, d.queued_at
	FROM waiting_drafts d`

// Save inserts or replaces a waiting record and its dependency rows in one
// transaction.
func (s *Store) Save(ctx context.Context, r waiting.Record) error {
	missing, err := json.Marshal(r.MissingKeys)
	if err != nil {
		return fmt.Errorf("save waiting draft: %w", err)
	}
	if r.MissingKeys == nil {
		missing = []byte("[]")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save waiting draft: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO waiting_drafts (kind, draft_key, missing_keys, draft, hash, queued_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind, draft_key) DO UPDATE SET
			missing_keys = excluded.missing_keys,
			draft = excluded.draft,
			hash = excluded.hash,
			queued_at = excluded.queued_at
	`,
		r.Kind,
		r.DraftKey,
		string(missing),
		string(r.Draft),
		r.Hash,
		r.QueuedAt.UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save waiting draft %q: %w", r.DraftKey, err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM waiting_dependencies WHERE kind = ? AND draft_key = ?`,
		r.Kind, r.DraftKey,
	); err != nil {
		return fmt.Errorf("save waiting draft %q: clear dependencies: %w", r.DraftKey, err)
	}

	for _, dep := range r.MissingKeys {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO waiting_dependencies (kind, dependency_key, draft_key)
			VALUES (?, ?, ?)
			ON CONFLICT DO NOTHING
		`, r.Kind, dep, r.DraftKey); err != nil {
			return fmt.Errorf("save waiting draft %q: dependency %q: %w", r.DraftKey, dep, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save waiting draft %q: commit: %w", r.DraftKey, err)
	}
	return nil
}

// Get returns the records of kind for the given draft keys.
func (s *Store) Get(ctx context.Context, kind string, draftKeys []string) ([]waiting.Record, error) {
	return s.queryChunked(ctx, draftKeys, func(chunk []string) (string, []any) {
		return selectRecord + `
			WHERE d.kind = ? AND d.draft_key IN (` + placeholders(len(chunk)) + `)`,
			append([]any{kind}, toArgs(chunk)...)
	})
}

// WaitingOn returns the records of kind missing any of dependencyKeys.
func (s *Store) WaitingOn(ctx context.Context, kind string, dependencyKeys []string) ([]waiting.Record, error) {
	records, err := s.queryChunked(ctx, dependencyKeys, func(chunk []string) (string, []any) {
		return selectRecord + `
			WHERE d.kind = ? AND d.draft_key IN (
				SELECT w.draft_key FROM waiting_dependencies w
				WHERE w.kind = d.kind AND w.dependency_key IN (` + placeholders(len(chunk)) + `)
			)`,
			append([]any{kind}, toArgs(chunk)...)
	})
	if err != nil {
		return nil, err
	}
	return dedupe(records), nil
}

// Delete removes one record and its dependency rows.
func (s *Store) Delete(ctx context.Context, kind, draftKey string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM waiting_drafts WHERE kind = ? AND draft_key = ?`,
		kind, draftKey,
	); err != nil {
		return fmt.Errorf("delete waiting draft %q: %w", draftKey, err)
	}
	return nil
}

// DeleteOlderThan removes records queued before cutoff.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM waiting_drafts WHERE queued_at < ?`,
		cutoff.UTC().UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("delete stale waiting drafts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete stale waiting drafts: rows affected: %w", err)
	}
	return int(n), nil
}

// Count returns the number of records of kind.
func (s *Store) Count(ctx context.Context, kind string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM waiting_drafts WHERE kind = ?`, kind,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count waiting drafts: %w", err)
	}
	return n, nil
}

// queryChunked runs build for each chunk of keys and merges the results in
// record order.
func (s *Store) queryChunked(ctx context.Context, keys []string, build func(chunk []string) (string, []any)) ([]waiting.Record, error) {
	records := []waiting.Record{}
	for start := 0; start < len(keys); start += maxQueryKeys {
		end := min(start+maxQueryKeys, len(keys))
		query, args := build(keys[start:end])
		chunk, err := s.queryRecords(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		records = append(records, chunk...)
	}
	waiting.SortRecords(records)
	return records, nil
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]waiting.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query waiting drafts: %w", err)
	}
	defer rows.Close()

	var records []waiting.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate waiting drafts: %w", err)
	}
	return records, nil
}

func scanRecord(rows *sql.Rows) (waiting.Record, error) {
	var (
		r        waiting.Record
		missing  string
		draft    string
		queuedAt int64
	)
	if err := rows.Scan(&r.Kind, &r.DraftKey, &missing, &draft, &r.Hash, &queuedAt); err != nil {
		return waiting.Record{}, fmt.Errorf("scan waiting draft: %w", err)
	}
	if err := json.Unmarshal([]byte(missing), &r.MissingKeys); err != nil {
		return waiting.Record{}, fmt.Errorf("scan waiting draft %q: missing keys: %w", r.DraftKey, err)
	}
	r.Draft = json.RawMessage(draft)
	r.QueuedAt = time.Unix(0, queuedAt).UTC()
	return r, nil
}

// dedupe drops repeated records that matched in more than one chunk.
func dedupe(records []waiting.Record) []waiting.Record {
	seen := make(map[string]bool, len(records))
	out := records[:0]
	for _, r := range records {
		if seen[r.DraftKey] {
			continue
		}
		seen[r.DraftKey] = true
		out = append(out, r)
	}
	return out
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func toArgs(keys []string) []any {
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	return args
}
