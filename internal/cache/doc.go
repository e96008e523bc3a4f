// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

/*
Package cache provides a bounded, TTL-aware LRU cache.

The query API puts it in front of the read store so hot customer documents
are served without a store round trip:

	docs := cache.NewLRU[projection.Document]("customers", 1024, 2*time.Second)
	if doc, ok := docs.Get(id); ok {
		return doc, nil
	}
	doc, err := store.Get(ctx, id)
	if err == nil {
		docs.Add(id, doc)
	}

Entries expire lazily on access and are evicted in least recently used
order once the capacity is reached. Every lookup is counted on the
ledgerview_cache_{hits,misses}_total series under the cache name.

The read model is eventually consistent, so a TTL of a few seconds only
widens a window that already exists between the event log and the store.
*/
package cache
