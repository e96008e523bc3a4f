// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

// Package validation wraps go-playground/validator with a process-wide
// instance and readable messages.
//
// Event envelopes and payloads declare their requirements with struct tags:
//
//	type AccountCreatedPayload struct {
//	    OwnerID string `json:"owner_id" validate:"required"`
//	}
//
//	if err := validation.ValidateStruct(&p); err != nil {
//	    return fmt.Errorf("%w: %v", projection.ErrMalformedEvent, err)
//	}
package validation
