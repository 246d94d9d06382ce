// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/inkwell-dev/inkwell/internal/tui"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive migration chat session",
		RunE:  runChat,
	}
}

func runChat(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	svc, index, err := buildQueryService(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer index.Close()

	return tui.Run(svc)
}
