// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package main

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/inkwell-dev/inkwell/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the knowledge base HTTP API",
		Long:  "Load configuration, open the vector store, and serve the REST API until interrupted.",
		RunE:  runServe,
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Server.Listen = listen
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, index, err := buildQueryService(ctx, cfg)
	if err != nil {
		return err
	}
	defer index.Close()

	pipeline, err := buildPipeline(cfg, index)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{ListenAddr: cfg.Server.Listen})
	if err != nil {
		return err
	}
	srv.RegisterServices(&server.Services{RAG: svc, Ingestor: pipeline})

	slog.Info("starting inkwell server",
		"listen", cfg.Server.Listen,
		"collection", cfg.Storage.Collection,
		"embedding", cfg.Embedding.Provider,
		"generation", cfg.Generation.Provider,
	)
	return srv.Start(ctx)
}
