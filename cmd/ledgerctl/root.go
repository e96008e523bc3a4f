// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package main

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/ledgerview/internal/logging"
)

// rootOptions holds flags shared by every command.
type rootOptions struct {
	LogLevel  string
	LogFormat string
	Timeout   time.Duration
}

var validLogFormats = []string{"console", "json"}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "ledgerctl",
		Short:        "Operator tool for the ledgerview read model",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !slices.Contains(validLogFormats, opts.LogFormat) {
				return fmt.Errorf("invalid log format %q: must be one of %v", opts.LogFormat, validLogFormats)
			}
			logging.Init(logging.Config{
				Level:  opts.LogLevel,
				Format: opts.LogFormat,
				Output: cmd.ErrOrStderr(),
			})
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "console", "log format (console|json)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 5*time.Minute, "overall timeout")

	cmd.AddCommand(newPublishCommand(opts))
	cmd.AddCommand(newInspectCommand(opts))

	return cmd
}
