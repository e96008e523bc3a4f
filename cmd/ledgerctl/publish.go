// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/tomtom215/ledgerview/internal/eventprocessor"
	"github.com/tomtom215/ledgerview/internal/events"
	"github.com/tomtom215/ledgerview/internal/logging"
)

// maxLineSize bounds a single NDJSON envelope.
const maxLineSize = 1024 * 1024

// publishOptions holds flags for the publish command.
type publishOptions struct {
	*rootOptions
	File string
	URL  string
	Rate float64
}

// envelopePublisher is the part of eventprocessor.Publisher publish uses.
type envelopePublisher interface {
	PublishEnvelope(ctx context.Context, env *events.Envelope) error
}

// publishStats summarizes one publish run.
type publishStats struct {
	Published int
	Skipped   int
}

func newPublishCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &publishOptions{rootOptions: rootOpts}

	url := "nats://127.0.0.1:4222"
	if v := os.Getenv("NATS_URL"); v != "" {
		url = v
	}

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish NDJSON event envelopes to the bank event stream",
		Long: `Publish reads one event envelope per line and publishes it with its
event ID as the NATS message ID, so replays inside the stream's duplicate
window are dropped by the broker.

Examples:
  ledgerctl publish --file events.ndjson
  cat events.ndjson | ledgerctl publish --file - --rate 100`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPublish(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.File, "file", "", "NDJSON file of event envelopes, - for stdin (required)")
	_ = cmd.MarkFlagRequired("file")
	cmd.Flags().StringVar(&opts.URL, "url", url, "NATS server URL (default from NATS_URL)")
	cmd.Flags().Float64Var(&opts.Rate, "rate", 0, "max envelopes per second (0 = unlimited)")

	return cmd
}

func runPublish(cmd *cobra.Command, opts *publishOptions) error {
	if opts.Rate < 0 {
		return errors.New("--rate must not be negative")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()

	in := cmd.InOrStdin()
	if opts.File != "-" {
		f, err := os.Open(opts.File)
		if err != nil {
			return fmt.Errorf("open events file: %w", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	pub, err := eventprocessor.NewPublisher(
		eventprocessor.DefaultPublisherConfig(opts.URL),
		logging.NewWatermillAdapterWithLogger(logging.WithComponent("ledgerctl")),
	)
	if err != nil {
		return fmt.Errorf("connect publisher: %w", err)
	}
	defer func() { _ = pub.Close() }()

	stats, err := publishEnvelopes(ctx, pub, in, newLimiter(opts.Rate))
	fmt.Fprintf(cmd.OutOrStdout(), "published=%d skipped=%d\n", stats.Published, stats.Skipped)
	return err
}

func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// publishEnvelopes publishes one envelope per non-blank line of in.
// An invalid line stops the run with an error naming the line number.
func publishEnvelopes(ctx context.Context, pub envelopePublisher, in io.Reader, limiter *rate.Limiter) (publishStats, error) {
	var stats publishStats
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		data := scanner.Bytes()
		if len(bytes.TrimSpace(data)) == 0 {
			stats.Skipped++
			continue
		}

		env, err := eventprocessor.DeserializeEnvelope(data)
		if err != nil {
			return stats, fmt.Errorf("line %d: %w", line, err)
		}
		if err := env.Validate(); err != nil {
			return stats, fmt.Errorf("line %d: %w", line, err)
		}
		if err := limiter.Wait(ctx); err != nil {
			return stats, err
		}
		if err := pub.PublishEnvelope(ctx, env); err != nil {
			return stats, fmt.Errorf("line %d: publish %s: %w", line, env.EventID, err)
		}
		stats.Published++

		logging.Debug().
			Str("event_id", env.EventID).
			Str("event_type", env.EventType).
			Str("aggregate_id", env.AggregateID).
			Msg("Published envelope")
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("read events: %w", err)
	}
	return stats, nil
}
