// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

func newAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a single migration question",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}

	cmd.Flags().Bool("plain", false, "print the raw answer without markdown rendering")
	cmd.Flags().Bool("sources", false, "list the sources the answer was grounded on")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	svc, index, err := buildQueryService(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer index.Close()

	answer, err := svc.Ask(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	plain, _ := cmd.Flags().GetBool("plain")
	if plain {
		fmt.Fprintln(out, answer.Text)
	} else {
		rendered, err := glamour.Render(answer.Text, "auto")
		if err != nil {
			fmt.Fprintln(out, answer.Text)
		} else {
			fmt.Fprint(out, rendered)
		}
	}

	if sources, _ := cmd.Flags().GetBool("sources"); sources && len(answer.Used) > 0 {
		fmt.Fprintln(out, "Sources:")
		for _, used := range answer.Used {
			fmt.Fprintf(out, "  %s (score %.2f)\n", used.Source, used.Score)
		}
	}
	return nil
}
