// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkwell-dev/inkwell/internal/store/sqlite"
)

func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <directory>",
		Short: "Index a directory of migration guides and contract examples",
		Args:  cobra.ExactArgs(1),
		RunE:  runIngest,
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	index, err := sqlite.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer index.Close()

	pipeline, err := buildPipeline(cfg, index)
	if err != nil {
		return err
	}

	report, err := pipeline.Run(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Processed %d files, %d chunks indexed\n", report.FilesProcessed, report.ChunksIndexed)
	if report.FilesFailed > 0 {
		fmt.Fprintf(out, "%d files failed:\n", report.FilesFailed)
		for _, fe := range report.Errors {
			fmt.Fprintf(out, "  %s: %v\n", fe.Path, fe.Err)
		}
	}
	return report.Err()
}
