// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package readstore

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/ledgerview/internal/projection"
)

// Key prefix for read-model documents
const documentKeyPrefix = "customerdetails:"

const (
	// defaultConflictRetries bounds transaction retries when none is configured.
	defaultConflictRetries = 10

	// writerStripes is the number of per-document writer locks.
	writerStripes = 64

	conflictBackoff    = 2 * time.Millisecond
	maxConflictBackoff = 100 * time.Millisecond
)

// ErrTooManyConflicts is returned when an upsert keeps losing the
// optimistic transaction race.
var ErrTooManyConflicts = errors.New("too many transaction conflicts")

// BadgerOptions configures OpenBadger.
type BadgerOptions struct {
	Path            string
	InMemory        bool
	SyncWrites      bool
	ReadOnly        bool
	ConflictRetries int
}

// BadgerStore implements projection.Store on BadgerDB.
type BadgerStore struct {
	db              *badger.DB
	conflictRetries int

	// Writers to the same document hold the same stripe, so transactions
	// on one key never race each other inside this process.
	writers [writerStripes]sync.Mutex
}

// OpenBadger opens (or creates) a BadgerDB database at opts.Path.
func OpenBadger(opts BadgerOptions) (*BadgerStore, error) {
	bopts := badger.DefaultOptions(opts.Path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.SyncWrites = opts.SyncWrites
	bopts.ReadOnly = opts.ReadOnly

	// Reduce logging verbosity
	bopts.Logger = nil

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}
	return NewBadgerStore(db, opts.ConflictRetries), nil
}

// NewBadgerStore wraps an open database. The store takes ownership of db.
func NewBadgerStore(db *badger.DB, conflictRetries int) *BadgerStore {
	if conflictRetries <= 0 {
		conflictRetries = defaultConflictRetries
	}
	return &BadgerStore{db: db, conflictRetries: conflictRetries}
}

func (s *BadgerStore) writerLock(documentID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(documentID))
	return &s.writers[h.Sum32()%writerStripes]
}

// Upsert implements projection.Store. Writers of one document are
// serialized; read, precondition check and write then happen in one
// transaction. A conflict (another process on the same files, or a stripe
// shared with a different document's batch) retries with backoff.
func (s *BadgerStore) Upsert(ctx context.Context, documentID string, m projection.Mutation, pre projection.Precondition) (projection.UpsertResult, error) {
	key := documentKey(documentID)

	mu := s.writerLock(documentID)
	mu.Lock()
	defer mu.Unlock()

	backoff := conflictBackoff
	for attempt := 0; attempt < s.conflictRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return projection.UpsertResult{}, ctx.Err()
			case <-timer.C:
			}
			backoff = min(backoff*2, maxConflictBackoff)
		}
		if err := ctx.Err(); err != nil {
			return projection.UpsertResult{}, err
		}

		var res projection.UpsertResult
		err := s.db.Update(func(txn *badger.Txn) error {
			existing, err := readDocument(txn, key)
			if err != nil {
				return err
			}

			var doc *projection.Document
			doc, res = projection.ApplyUpsert(existing, documentID, m, pre)
			if doc == nil {
				return nil
			}

			data, err := json.Marshal(doc)
			if err != nil {
				return fmt.Errorf("marshal document: %w", err)
			}
			return txn.Set(key, data)
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			return projection.UpsertResult{}, fmt.Errorf("badger upsert %s: %w", documentID, err)
		}
		return res, nil
	}

	return projection.UpsertResult{}, fmt.Errorf("badger upsert %s: %w", documentID, ErrTooManyConflicts)
}

// Get implements projection.Store.
func (s *BadgerStore) Get(ctx context.Context, documentID string) (*projection.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var doc *projection.Document
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		doc, err = readDocument(txn, documentKey(documentID))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("badger get %s: %w", documentID, err)
	}
	if doc == nil {
		return nil, projection.ErrDocumentNotFound
	}
	return doc, nil
}

// Scan calls fn for every stored document in key order.
func (s *BadgerStore) Scan(ctx context.Context, fn func(*projection.Document) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(documentKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var doc projection.Document
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &doc)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			if err := fn(&doc); err != nil {
				return err
			}
		}
		return nil
	})
}

// gcDiscardRatio is the fraction of stale data a value log file must hold
// before GC rewrites it.
const gcDiscardRatio = 0.5

// Maintain implements Maintainer by running value log GC until no file
// qualifies for a rewrite.
func (s *BadgerStore) Maintain(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.RunValueLogGC(gcDiscardRatio)
		switch {
		case err == nil:
			continue
		case errors.Is(err, badger.ErrNoRewrite), errors.Is(err, badger.ErrGCInMemoryMode):
			return nil
		default:
			return fmt.Errorf("badger value log gc: %w", err)
		}
	}
}

// Ping implements projection.Pinger.
func (s *BadgerStore) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger database is closed")
	}
	return ctx.Err()
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func documentKey(id string) []byte {
	return []byte(documentKeyPrefix + id)
}

// readDocument returns nil without error when the key is absent.
func readDocument(txn *badger.Txn, key []byte) (*projection.Document, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	var doc projection.Document
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &doc)
	}); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}
