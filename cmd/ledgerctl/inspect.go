// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/ledgerview/internal/projection"
	"github.com/tomtom215/ledgerview/internal/readstore"
)

// inspectOptions holds flags for the inspect command.
type inspectOptions struct {
	*rootOptions
	Path string
	ID   string
}

// documentSource is the read side of a Badger read store.
type documentSource interface {
	Get(ctx context.Context, id string) (*projection.Document, error)
	Scan(ctx context.Context, fn func(*projection.Document) error) error
}

func newInspectCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &inspectOptions{rootOptions: rootOpts}

	path := "/data/readmodel"
	if v := os.Getenv("STORE_PATH"); v != "" {
		path = v
	}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print customer documents from a Badger read store",
		Long: `Inspect opens the Badger read store read-only and prints one
CustomerDetails JSON object per line. Stop the server first: Badger allows
a single process per directory.

Examples:
  ledgerctl inspect --path /data/readmodel
  ledgerctl inspect --path /data/readmodel --id C1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Path, "path", path, "Badger read store directory (default from STORE_PATH)")
	cmd.Flags().StringVar(&opts.ID, "id", "", "customer id to print (empty = all customers)")

	return cmd
}

func runInspect(cmd *cobra.Command, opts *inspectOptions) error {
	if opts.Path == "" {
		return errors.New("--path is required")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()

	store, err := readstore.OpenBadger(readstore.BadgerOptions{
		Path:     opts.Path,
		ReadOnly: true,
	})
	if err != nil {
		return fmt.Errorf("open read store: %w", err)
	}
	defer func() { _ = store.Close() }()

	return inspect(ctx, store, opts.ID, cmd.OutOrStdout())
}

// inspect writes the requested customer, or every stored customer, to out
// as one JSON object per line.
func inspect(ctx context.Context, src documentSource, id string, out io.Writer) error {
	enc := json.NewEncoder(out)

	if id != "" {
		doc, err := src.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("customer %s: %w", id, err)
		}
		return enc.Encode(projection.CustomerDetailsFromDocument(doc))
	}

	return src.Scan(ctx, func(doc *projection.Document) error {
		return enc.Encode(projection.CustomerDetailsFromDocument(doc))
	})
}
