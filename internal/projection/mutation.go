// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package projection

import "slices"

// Mutation is a declarative change to one document.
//
// SetFields is a field-set: each field is overwritten. AddToSet is a
// set-add: each member is inserted into the named set if missing. A
// non-zero SetVersion writes Version in the same mutation.
type Mutation struct {
	SetFields  map[string]string
	SetVersion int64
	AddToSet   map[string][]string
}

// IsZero reports whether the mutation changes nothing.
func (m Mutation) IsZero() bool {
	return len(m.SetFields) == 0 && m.SetVersion == 0 && len(m.AddToSet) == 0
}

// Apply mutates doc in place and reports whether anything changed.
// The document ID is never touched.
func (m Mutation) Apply(doc *Document) bool {
	changed := false

	if m.SetVersion != 0 && doc.Version != m.SetVersion {
		doc.Version = m.SetVersion
		changed = true
	}

	if len(m.SetFields) > 0 && doc.Fields == nil {
		doc.Fields = make(map[string]string, len(m.SetFields))
	}
	for name, value := range m.SetFields {
		if current, ok := doc.Fields[name]; ok && current == value {
			continue
		}
		doc.Fields[name] = value
		changed = true
	}

	if len(m.AddToSet) > 0 && doc.Sets == nil {
		doc.Sets = make(map[string][]string, len(m.AddToSet))
	}
	for name, members := range m.AddToSet {
		set := doc.Sets[name]
		for _, member := range members {
			var added bool
			set, added = insertSorted(set, member)
			changed = changed || added
		}
		if set == nil {
			set = []string{}
		}
		doc.Sets[name] = set
	}

	return changed
}

func insertSorted(set []string, member string) ([]string, bool) {
	i, found := slices.BinarySearch(set, member)
	if found {
		return set, false
	}
	return slices.Insert(set, i, member), true
}
