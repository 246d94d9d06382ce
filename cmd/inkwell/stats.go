// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkwell-dev/inkwell/internal/store/sqlite"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show knowledge base statistics",
		RunE:  runStats,
	}
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	index, err := sqlite.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer index.Close()

	documents, err := index.Count(cmd.Context(), cfg.Storage.Collection)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Documents: %d\n", documents)

	// The cache collection only exists once a query has been served.
	cached, err := index.Count(cmd.Context(), cfg.Storage.Collection+"_cache")
	if err == nil {
		fmt.Fprintf(out, "Cached responses: %d\n", cached)
	}
	return nil
}
