// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package projection

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/ledgerview/internal/events"
)

// Handler translates one event type into a Command for one read model.
// Handlers are pure: they hold no state between calls.
type Handler interface {
	Name() string
	Translate(env events.Envelope) (Command, error)
}

type handlerFunc struct {
	name string
	fn   func(events.Envelope) (Command, error)
}

// HandlerFunc adapts a translation function to Handler.
func HandlerFunc(name string, fn func(events.Envelope) (Command, error)) Handler {
	return handlerFunc{name: name, fn: fn}
}

func (h handlerFunc) Name() string { return h.name }

func (h handlerFunc) Translate(env events.Envelope) (Command, error) {
	return h.fn(env)
}

// Decode unmarshals and validates the typed payload of env. Failures are
// ErrMalformedEvent.
func Decode[P any](env events.Envelope) (P, error) {
	var payload P
	if err := env.DecodePayload(&payload); err != nil {
		return payload, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	return payload, nil
}

// CustomerDetails field names.
const (
	FieldFirstname = "firstname"
	FieldLastname  = "lastname"
	SetAccounts    = "accounts"
)

// Handler names.
const (
	CustomerCreatedHandlerName = "customer-details.customer-created"
	AccountCreatedHandlerName  = "customer-details.account-created"
)

// CustomerCreatedHandler writes the customer's names and version, gated on
// the aggregate version.
type CustomerCreatedHandler struct{}

// Name implements Handler.
func (CustomerCreatedHandler) Name() string { return CustomerCreatedHandlerName }

// Translate implements Handler.
func (CustomerCreatedHandler) Translate(env events.Envelope) (Command, error) {
	if env.AggregateID == "" {
		return Command{}, fmt.Errorf("%w: missing aggregate id", ErrMalformedEvent)
	}
	p, err := Decode[events.CustomerCreatedPayload](env)
	if err != nil {
		return Command{}, err
	}
	return FieldSet(env.AggregateID, env.AggregateVersion, map[string]string{
		FieldFirstname: p.Firstname,
		FieldLastname:  p.Lastname,
	}), nil
}

// AccountCreatedHandler adds the account to its owner's account set.
// The owner document is created if needed and its version is untouched.
type AccountCreatedHandler struct{}

// Name implements Handler.
func (AccountCreatedHandler) Name() string { return AccountCreatedHandlerName }

// Translate implements Handler.
func (AccountCreatedHandler) Translate(env events.Envelope) (Command, error) {
	if env.AggregateID == "" {
		return Command{}, fmt.Errorf("%w: missing account id", ErrMalformedEvent)
	}
	p, err := Decode[events.AccountCreatedPayload](env)
	if err != nil {
		return Command{}, err
	}
	return SetAdd(p.OwnerID, SetAccounts, env.AggregateID), nil
}

// CustomerDetails is the query view of a customer document.
type CustomerDetails struct {
	ID        string   `json:"id"`
	Version   int64    `json:"version"`
	Firstname string   `json:"firstname"`
	Lastname  string   `json:"lastname"`
	Accounts  []string `json:"accounts"`
}

// CustomerDetailsFromDocument builds the view from a stored document.
func CustomerDetailsFromDocument(doc *Document) *CustomerDetails {
	return &CustomerDetails{
		ID:        doc.ID,
		Version:   doc.Version,
		Firstname: doc.Field(FieldFirstname),
		Lastname:  doc.Field(FieldLastname),
		Accounts:  doc.Members(SetAccounts),
	}
}

// RegisterCustomerDetails wires the CustomerDetails handlers into r.
func RegisterCustomerDetails(r *Router) error {
	return errors.Join(
		r.Register(events.TypeCustomerCreated, CustomerCreatedHandler{}),
		r.Register(events.TypeAccountCreated, AccountCreatedHandler{}),
	)
}

// LoadCustomerDetails reads one customer document from store.
func LoadCustomerDetails(ctx context.Context, store Store, id string) (*CustomerDetails, error) {
	doc, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return CustomerDetailsFromDocument(doc), nil
}
