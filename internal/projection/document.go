// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package projection

import (
	"maps"
	"slices"
)

// Document is a versioned read-model document.
//
// Version is the highest aggregate version whose field-set effects are
// reflected. Sets hold relation fields; members are sorted and unique.
type Document struct {
	ID      string              `json:"id"`
	Version int64               `json:"version"`
	Fields  map[string]string   `json:"fields,omitempty"`
	Sets    map[string][]string `json:"sets,omitempty"`
}

// NewDocument returns an empty document with default field values.
func NewDocument(id string) *Document {
	return &Document{
		ID:     id,
		Fields: map[string]string{},
		Sets:   map[string][]string{},
	}
}

// Clone returns a deep copy. Clone of nil is nil.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := &Document{
		ID:      d.ID,
		Version: d.Version,
		Fields:  maps.Clone(d.Fields),
		Sets:    make(map[string][]string, len(d.Sets)),
	}
	if c.Fields == nil {
		c.Fields = map[string]string{}
	}
	for name, members := range d.Sets {
		c.Sets[name] = slices.Clone(members)
	}
	return c
}

// Field returns a scalar field, empty when unset.
func (d *Document) Field(name string) string {
	return d.Fields[name]
}

// Members returns a copy of a set field, never nil.
func (d *Document) Members(name string) []string {
	members := slices.Clone(d.Sets[name])
	if members == nil {
		return []string{}
	}
	return members
}
