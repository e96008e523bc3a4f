// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package projection

import (
	"errors"
	"fmt"
)

// Outcome labels for a processed event.
const (
	OutcomeOK        = "ok"
	OutcomeIgnored   = "ignored"
	OutcomeMalformed = "malformed"
	OutcomeFailed    = "failed"
)

// HandlerOutcome is the result of one handler for one event.
type HandlerOutcome struct {
	Handler  string
	Decision Decision
	Err      error
}

// HandlerError attributes a failure to a handler and event type.
type HandlerError struct {
	Handler   string
	EventType string
	Err       error
}

func (e *HandlerError) Error() string {
	if e.Handler == "" {
		return fmt.Sprintf("%s: %v", e.EventType, e.Err)
	}
	return fmt.Sprintf("%s handler %s: %v", e.EventType, e.Handler, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// Result is what Engine.Process reports for one envelope.
type Result struct {
	EventID   string
	EventType string
	Outcomes  []HandlerOutcome

	// envelopeErr is set when the envelope failed validation and no handler ran.
	envelopeErr error
}

// Failures returns the outcomes that carry an error.
func (r Result) Failures() []HandlerOutcome {
	var failed []HandlerOutcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// Err joins every failure as *HandlerError values. Nil on success.
func (r Result) Err() error {
	var errs []error
	if r.envelopeErr != nil {
		errs = append(errs, &HandlerError{EventType: r.EventType, Err: r.envelopeErr})
	}
	for _, o := range r.Failures() {
		errs = append(errs, &HandlerError{Handler: o.Handler, EventType: r.EventType, Err: o.Err})
	}
	return errors.Join(errs...)
}

// Permanent reports whether the result failed and every failure is
// malformed, so redelivery cannot help.
func (r Result) Permanent() bool {
	if r.envelopeErr != nil {
		return IsMalformed(r.envelopeErr)
	}
	failed := r.Failures()
	if len(failed) == 0 {
		return false
	}
	for _, o := range failed {
		if !IsMalformed(o.Err) {
			return false
		}
	}
	return true
}

// Outcome returns the label recorded in metrics.
func (r Result) Outcome() string {
	switch {
	case r.Err() == nil && len(r.Outcomes) == 0:
		return OutcomeIgnored
	case r.Err() == nil:
		return OutcomeOK
	case r.Permanent():
		return OutcomeMalformed
	default:
		return OutcomeFailed
	}
}

// Decision returns the decision of the named handler.
func (r Result) Decision(handler string) (Decision, bool) {
	for _, o := range r.Outcomes {
		if o.Handler == handler {
			return o.Decision, true
		}
	}
	return DecisionSkipped, false
}
