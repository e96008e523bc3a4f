// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package readstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// DuckDB driver registration
	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/goccy/go-json"

	"github.com/tomtom215/ledgerview/internal/projection"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS customerdetails (
	id         VARCHAR PRIMARY KEY,
	version    BIGINT NOT NULL,
	doc        VARCHAR NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

const upsertSQL = `
INSERT INTO customerdetails (id, version, doc, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	version = excluded.version,
	doc = excluded.doc,
	updated_at = excluded.updated_at`

// DuckDBStore implements projection.Store on DuckDB.
//
// The pool holds a single connection, so each upsert transaction owns the
// database until it commits and same-document writers cannot interleave.
type DuckDBStore struct {
	db *sql.DB
}

// OpenDuckDB opens (or creates) the database file at path. An empty path
// opens an in-memory database.
func OpenDuckDB(ctx context.Context, path string) (*DuckDBStore, error) {
	// Disable auto-install/auto-load to prevent hangs in restricted network environments
	connStr := path + "?autoinstall_known_extensions=false&autoload_known_extensions=false"

	db, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("failed to create customerdetails table: %w", err)
	}
	return &DuckDBStore{db: db}, nil
}

// Upsert implements projection.Store.
func (s *DuckDBStore) Upsert(ctx context.Context, documentID string, m projection.Mutation, pre projection.Precondition) (res projection.UpsertResult, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return projection.UpsertResult{}, fmt.Errorf("duckdb upsert %s: begin: %w", documentID, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback() //nolint:errcheck // the original error is more useful
		}
	}()

	existing, err := queryDocument(ctx, tx, documentID)
	if err != nil {
		return projection.UpsertResult{}, fmt.Errorf("duckdb upsert %s: %w", documentID, err)
	}

	doc, res := projection.ApplyUpsert(existing, documentID, m, pre)
	if doc != nil {
		data, err := json.Marshal(doc)
		if err != nil {
			return projection.UpsertResult{}, fmt.Errorf("duckdb upsert %s: marshal: %w", documentID, err)
		}
		if _, err := tx.ExecContext(ctx, upsertSQL, documentID, doc.Version, string(data), time.Now().UTC()); err != nil {
			return projection.UpsertResult{}, fmt.Errorf("duckdb upsert %s: write: %w", documentID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return projection.UpsertResult{}, fmt.Errorf("duckdb upsert %s: commit: %w", documentID, err)
	}
	return res, nil
}

// Get implements projection.Store.
func (s *DuckDBStore) Get(ctx context.Context, documentID string) (*projection.Document, error) {
	doc, err := queryDocument(ctx, s.db, documentID)
	if err != nil {
		return nil, fmt.Errorf("duckdb get %s: %w", documentID, err)
	}
	if doc == nil {
		return nil, projection.ErrDocumentNotFound
	}
	return doc, nil
}

// Count returns the number of stored documents.
func (s *DuckDBStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM customerdetails").Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// Maintain implements Maintainer by forcing a checkpoint of the WAL into
// the database file.
func (s *DuckDBStore) Maintain(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CHECKPOINT"); err != nil {
		return fmt.Errorf("duckdb checkpoint: %w", err)
	}
	return nil
}

// Ping implements projection.Pinger.
func (s *DuckDBStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *DuckDBStore) Close() error {
	return s.db.Close()
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queryDocument returns nil without error when the row is absent.
func queryDocument(ctx context.Context, q queryRower, documentID string) (*projection.Document, error) {
	var data string
	err := q.QueryRowContext(ctx, "SELECT doc FROM customerdetails WHERE id = ?", documentID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select document: %w", err)
	}

	var doc projection.Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

func closeQuietly(db *sql.DB) {
	_ = db.Close() //nolint:errcheck // best effort on an already failing path
}
