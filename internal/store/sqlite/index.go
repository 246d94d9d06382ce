// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

// Package sqlite implements store.Index on SQLite with the sqlite-vec
// extension. Each collection is a vec0 virtual table for embeddings plus
// a companion payload table, with a bookkeeping table recording every
// collection's vector dimensions.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/inkwell-dev/inkwell/internal/store"
	inkerr "github.com/inkwell-dev/inkwell/pkg/errors"
)

func init() {
	sqlite_vec.Auto()
}

// Compile-time interface check.
var _ store.Index = (*Index)(nil)

var collectionNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Index implements store.Index backed by SQLite with sqlite-vec.
type Index struct {
	db *sql.DB

	mu         sync.RWMutex
	dimensions map[string]int // collection name -> vector dimensions
}

// Open opens (or creates) a SQLite database at dbPath and loads the
// collection registry.
func Open(dbPath string) (*Index, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, inkerr.Wrapf(err, inkerr.CodeStoreDatabaseFailure, "opening sqlite db %s", dbPath)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, inkerr.Wrapf(err, inkerr.CodeStoreDatabaseFailure, "pinging sqlite db %s", dbPath)
	}

	const registryDDL = `
CREATE TABLE IF NOT EXISTS collections (
	name       TEXT PRIMARY KEY,
	dimensions INTEGER NOT NULL
)`
	if _, err := db.Exec(registryDDL); err != nil {
		_ = db.Close()
		return nil, inkerr.Wrapf(err, inkerr.CodeStoreDatabaseFailure, "creating collections registry")
	}

	idx := &Index{db: db, dimensions: make(map[string]int)}
	if err := idx.loadRegistry(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return idx, nil
}

func (x *Index) loadRegistry() error {
	rows, err := x.db.Query(`SELECT name, dimensions FROM collections`)
	if err != nil {
		return inkerr.Wrapf(err, inkerr.CodeStoreDatabaseFailure, "loading collection registry")
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var name string
		var dims int
		if err := rows.Scan(&name, &dims); err != nil {
			return inkerr.Wrapf(err, inkerr.CodeStoreDatabaseFailure, "scanning collection registry")
		}
		x.dimensions[name] = dims
	}
	return inkerr.Wrapf(rows.Err(), inkerr.CodeStoreDatabaseFailure, "iterating collection registry")
}

// EnsureCollection creates the vec0 and payload tables for name if they
// do not exist. An existing collection with different dimensions fails
// fast rather than silently corrupting stored vectors.
func (x *Index) EnsureCollection(ctx context.Context, name string, dimensions int) error {
	if !collectionNameRe.MatchString(name) {
		return inkerr.Errorf(inkerr.CodeStoreInvalidInput, "invalid collection name %q", name)
	}
	if dimensions <= 0 {
		return inkerr.Errorf(inkerr.CodeStoreInvalidInput, "collection %s: dimensions must be positive, got %d", name, dimensions)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if existing, ok := x.dimensions[name]; ok {
		if existing != dimensions {
			return inkerr.New(inkerr.CodeStoreCollectionMismatch,
				fmt.Sprintf("collection %s exists with %d dimensions, requested %d", name, existing, dimensions),
				inkerr.FieldCollection(name),
				inkerr.Field("expected", existing),
				inkerr.Field("actual", dimensions),
			)
		}
		return nil
	}

	vecDDL := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS vec_%s USING vec0(id TEXT PRIMARY KEY, embedding float[%d] distance_metric=cosine)`,
		name, dimensions,
	)
	if _, err := x.db.ExecContext(ctx, vecDDL); err != nil {
		return inkerr.Wrapf(err, inkerr.CodeStoreDatabaseFailure, "creating vector table for %s", name)
	}

	docDDL := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS doc_%s (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL DEFAULT '',
	content    TEXT NOT NULL,
	metadata   TEXT NOT NULL DEFAULT '{}',
	created_at INTEGER NOT NULL
)`, name)
	if _, err := x.db.ExecContext(ctx, docDDL); err != nil {
		return inkerr.Wrapf(err, inkerr.CodeStoreDatabaseFailure, "creating payload table for %s", name)
	}

	srcIdxDDL := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS doc_%s_source ON doc_%s(source)`, name, name)
	if _, err := x.db.ExecContext(ctx, srcIdxDDL); err != nil {
		return inkerr.Wrapf(err, inkerr.CodeStoreDatabaseFailure, "indexing payload table for %s", name)
	}

	const registerQ = `INSERT INTO collections(name, dimensions) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`
	if _, err := x.db.ExecContext(ctx, registerQ, name, dimensions); err != nil {
		return inkerr.Wrapf(err, inkerr.CodeStoreDatabaseFailure, "registering collection %s", name)
	}

	x.dimensions[name] = dimensions
	return nil
}

func (x *Index) collectionDims(name string) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	dims, ok := x.dimensions[name]
	if !ok {
		return 0, inkerr.Errorf(inkerr.CodeStoreCollectionNotFound, "collection %s does not exist", name)
	}
	return dims, nil
}

// Upsert inserts or replaces records by id. vec0 has no ON CONFLICT, so
// each record is deleted then inserted inside one transaction.
func (x *Index) Upsert(ctx context.Context, collection string, records []store.Record) error {
	if len(records) == 0 {
		return nil
	}
	dims, err := x.collectionDims(collection)
	if err != nil {
		return err
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return inkerr.Wrapf(err, inkerr.CodeStoreDatabaseFailure, "beginning upsert transaction")
	}
	defer func() { _ = tx.Rollback() }()

	vecDel := fmt.Sprintf(`DELETE FROM vec_%s WHERE id = ?`, collection)
	vecIns := fmt.Sprintf(`INSERT INTO vec_%s(id, embedding) VALUES (?, ?)`, collection)
	docUpsert := fmt.Sprintf(`INSERT INTO doc_%s(id, source, content, metadata, created_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET source = excluded.source, content = excluded.content,
metadata = excluded.metadata, created_at = excluded.created_at`, collection)

	for _, rec := range records {
		if rec.ID == "" {
			return inkerr.New(inkerr.CodeStoreRecordInvalid, "record id must not be empty", inkerr.FieldCollection(collection))
		}
		if len(rec.Vector) != dims {
			return inkerr.New(inkerr.CodeStoreCollectionMismatch,
				fmt.Sprintf("record %s has %d dimensions, collection %s expects %d", rec.ID, len(rec.Vector), collection, dims),
				inkerr.FieldCollection(collection),
				inkerr.Field("expected", dims),
				inkerr.Field("actual", len(rec.Vector)),
			)
		}

		blob, err := sqlite_vec.SerializeFloat32(rec.Vector)
		if err != nil {
			return inkerr.Wrapf(err, inkerr.CodeStoreDatabaseFailure, "serializing embedding for %s", rec.ID)
		}

		metaJSON := []byte("{}")
		if len(rec.Metadata) > 0 {
			metaJSON, err = json.Marshal(rec.Metadata)
			if err != nil {
				return inkerr.Wrapf(err, inkerr.CodeStoreDatabaseFailure, "marshalling metadata for %s", rec.ID)
			}
		}

		createdAt := rec.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}

		if _, err := tx.ExecContext(ctx, vecDel, rec.ID); err != nil {
			return inkerr.Wrapf(err, inkerr.CodeStoreDatabaseFailure, "deleting existing vector %s", rec.ID)
		}
		if _, err := tx.ExecContext(ctx, vecIns, rec.ID, blob); err != nil {
			return inkerr.Wrapf(err, inkerr.CodeStoreDatabaseFailure, "inserting vector %s", rec.ID)
		}
		if _, err := tx.ExecContext(ctx, docUpsert, rec.ID, rec.Source, rec.Content, string(metaJSON), createdAt.Unix()); err != nil {
			return inkerr.Wrapf(err, inkerr.CodeStoreDatabaseFailure, "upserting payload %s", rec.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return inkerr.Wrapf(err, inkerr.CodeStoreDatabaseFailure, "committing upsert")
	}
	return nil
}

// Search performs a k-nearest-neighbor scan over the collection and
// returns hits sorted by descending cosine similarity. vec0 reports
// cosine distance, so score = 1 - distance.
func (x *Index) Search(ctx context.Context, collection string, vector []float32, limit int, threshold float32) ([]store.Result, error) {
	dims, err := x.collectionDims(collection)
	if err != nil {
		return nil, err
	}
	if len(vector) != dims {
		return nil, inkerr.New(inkerr.CodeStoreCollectionMismatch,
			fmt.Sprintf("query vector has %d dimensions, collection %s expects %d", len(vector), collection, dims),
			inkerr.FieldCollection(collection),
			inkerr.Field("expected", dims),
			inkerr.Field("actual", len(vector)),
		)
	}
	if limit <= 0 {
		limit = 5
	}

	blob, err := sqlite_vec.SerializeFloat32(vector)
	if err != nil {
		return nil, inkerr.Wrapf(err, inkerr.CodeStoreDatabaseFailure, "serializing query vector")
	}

	q := fmt.Sprintf(`SELECT v.id, v.distance, d.source, d.content, d.metadata, d.created_at
FROM vec_%s v
JOIN doc_%s d ON d.id = v.id
WHERE v.embedding MATCH ? AND k = ?
ORDER BY v.distance`, collection, collection)

	rows, err := x.db.QueryContext(ctx, q, blob, limit)
	if err != nil {
		return nil, inkerr.Wrapf(err, inkerr.CodeStoreDatabaseFailure, "searching collection %s", collection)
	}
	defer func() { _ = rows.Close() }()

	var results []store.Result
	for rows.Next() {
		var r store.Result
		var distance float64
		var metaStr string
		var createdAt int64

		if err := rows.Scan(&r.ID, &distance, &r.Source, &r.Content, &metaStr, &createdAt); err != nil {
			return nil, inkerr.Wrapf(err, inkerr.CodeStoreDatabaseFailure, "scanning search result")
		}

		r.Score = 1 - float32(distance)
		if threshold > 0 && r.Score < threshold {
			continue
		}

		if metaStr != "" && metaStr != "{}" {
			if err := json.Unmarshal([]byte(metaStr), &r.Metadata); err != nil {
				return nil, inkerr.Wrapf(err, inkerr.CodeStoreDatabaseFailure, "unmarshalling metadata for %s", r.ID)
			}
		}
		r.CreatedAt = time.Unix(createdAt, 0)

		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, inkerr.Wrapf(err, inkerr.CodeStoreDatabaseFailure, "iterating search results")
	}

	return results, nil
}

// Delete removes records and their payloads by id.
func (x *Index) Delete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := x.collectionDims(collection); err != nil {
		return err
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return inkerr.Wrapf(err, inkerr.CodeStoreDatabaseFailure, "beginning delete transaction")
	}
	defer func() { _ = tx.Rollback() }()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	vecQ := fmt.Sprintf(`DELETE FROM vec_%s WHERE id IN (%s)`, collection, placeholders)
	if _, err := tx.ExecContext(ctx, vecQ, args...); err != nil {
		return inkerr.Wrapf(err, inkerr.CodeStoreDatabaseFailure, "deleting vectors from %s", collection)
	}

	docQ := fmt.Sprintf(`DELETE FROM doc_%s WHERE id IN (%s)`, collection, placeholders)
	if _, err := tx.ExecContext(ctx, docQ, args...); err != nil {
		return inkerr.Wrapf(err, inkerr.CodeStoreDatabaseFailure, "deleting payloads from %s", collection)
	}

	if err := tx.Commit(); err != nil {
		return inkerr.Wrapf(err, inkerr.CodeStoreDatabaseFailure, "committing delete")
	}
	return nil
}

// DeleteBySource removes every record for a source path. Used to replace
// a changed file's chunks on re-ingestion.
func (x *Index) DeleteBySource(ctx context.Context, collection, source string) error {
	if _, err := x.collectionDims(collection); err != nil {
		return err
	}

	q := fmt.Sprintf(`SELECT id FROM doc_%s WHERE source = ?`, collection)
	rows, err := x.db.QueryContext(ctx, q, source)
	if err != nil {
		return inkerr.Wrapf(err, inkerr.CodeStoreDatabaseFailure, "listing records for source %s", source)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return inkerr.Wrapf(err, inkerr.CodeStoreDatabaseFailure, "scanning record id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return inkerr.Wrapf(err, inkerr.CodeStoreDatabaseFailure, "iterating record ids")
	}

	return x.Delete(ctx, collection, ids)
}

// Count reports the number of records in the collection.
func (x *Index) Count(ctx context.Context, collection string) (int64, error) {
	if _, err := x.collectionDims(collection); err != nil {
		return 0, err
	}

	var n int64
	q := fmt.Sprintf(`SELECT COUNT(*) FROM doc_%s`, collection)
	if err := x.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, inkerr.Wrapf(err, inkerr.CodeStoreDatabaseFailure, "counting records in %s", collection)
	}
	return n, nil
}

// Close closes the underlying database connection.
func (x *Index) Close() error {
	return x.db.Close()
}
