// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// defaultConfigFile mirrors the config schema for the generated
// starter file. Values match the loader's defaults so the file is a
// template to edit, not a source of drift.
type defaultConfigFile struct {
	Server struct {
		Listen string `yaml:"listen"`
	} `yaml:"server"`
	Storage struct {
		Path       string `yaml:"path"`
		Collection string `yaml:"collection"`
	} `yaml:"storage"`
	Embedding struct {
		Provider string `yaml:"provider"`
		Model    string `yaml:"model,omitempty"`
		APIKey   string `yaml:"api_key,omitempty"`
	} `yaml:"embedding"`
	Generation struct {
		Provider string `yaml:"provider"`
		Model    string `yaml:"model,omitempty"`
		APIKey   string `yaml:"api_key,omitempty"`
	} `yaml:"generation"`
	RAG struct {
		Limit          int     `yaml:"limit"`
		ScoreThreshold float32 `yaml:"score_threshold"`
		CacheThreshold float32 `yaml:"cache_threshold"`
		CacheTTL       string  `yaml:"cache_ttl"`
	} `yaml:"rag"`
	Cache struct {
		Backend string `yaml:"backend"`
	} `yaml:"cache"`
}

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter config file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runInit,
	}

	cmd.Flags().Bool("force", false, "overwrite an existing config file")

	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	path := "inkwell.yaml"
	if len(args) == 1 {
		path = args[0]
	}

	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	var cfg defaultConfigFile
	cfg.Server.Listen = "127.0.0.1:8000"
	cfg.Storage.Path = "inkwell.db"
	cfg.Storage.Collection = "code_knowledge"
	cfg.Embedding.Provider = "openai"
	cfg.Embedding.Model = "text-embedding-3-small"
	cfg.Embedding.APIKey = "keyring://inkwell/embedding-api-key"
	cfg.Generation.Provider = "openai"
	cfg.Generation.Model = "gpt-4.1-mini"
	cfg.Generation.APIKey = "keyring://inkwell/generation-api-key"
	cfg.RAG.Limit = 5
	cfg.RAG.ScoreThreshold = 0.7
	cfg.RAG.CacheThreshold = 0.95
	cfg.RAG.CacheTTL = "24h"
	cfg.Cache.Backend = "vector"

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	fmt.Fprintln(cmd.OutOrStdout(), "Store API keys with: inkwell secret set embedding-api-key")
	return nil
}
