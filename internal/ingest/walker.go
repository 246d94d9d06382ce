// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

// Package ingest walks a documentation tree and indexes its files:
// chunk, embed, and upsert into the knowledge collection.
package ingest

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	inkerr "github.com/inkwell-dev/inkwell/pkg/errors"
)

// DefaultMaxFileSize caps how large a file the walker will hand to the
// pipeline. Bigger files are almost never prose worth indexing.
const DefaultMaxFileSize = 1 << 20 // 1 MiB

// DefaultExtensions lists the file types indexed by default: migration
// guides, Solidity originals, ink! examples, and plain notes.
var DefaultExtensions = []string{".md", ".sol", ".rs", ".txt"}

// defaultIgnoreDirs are directory names skipped at any depth.
var defaultIgnoreDirs = []string{
	".git",
	".idea",
	".vscode",
	"node_modules",
	"vendor",
	"target",
}

// WalkOptions controls file discovery.
type WalkOptions struct {
	Extensions  []string // indexed extensions, lowercase with dot
	IgnoreDirs  []string // directory names to skip, in addition to the defaults
	MaxFileSize int64
}

func (o WalkOptions) withDefaults() WalkOptions {
	if len(o.Extensions) == 0 {
		o.Extensions = DefaultExtensions
	}
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = DefaultMaxFileSize
	}
	return o
}

// Walk returns the relative paths of indexable files under root, in
// lexical order. Symlinks and oversized files are skipped silently;
// an unreadable root is an error.
func Walk(root string, opts WalkOptions) ([]string, error) {
	opts = opts.withDefaults()

	info, err := os.Stat(root)
	if err != nil {
		return nil, inkerr.Wrapf(err, inkerr.CodeIngestWalkFailure, "stat ingest root %s", root)
	}
	if !info.IsDir() {
		return nil, inkerr.Errorf(inkerr.CodeIngestWalkFailure, "ingest root %s is not a directory", root)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return inkerr.Wrapf(err, inkerr.CodeIngestWalkFailure, "walking %s", path)
		}

		name := d.Name()
		if d.IsDir() {
			if path != root && (slices.Contains(defaultIgnoreDirs, name) || slices.Contains(opts.IgnoreDirs, name)) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if !slices.Contains(opts.Extensions, strings.ToLower(filepath.Ext(name))) {
			return nil
		}
		fi, err := d.Info()
		if err != nil || fi.Size() > opts.MaxFileSize {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(paths)
	return paths, nil
}

// languageFor maps a file extension to the language tag recorded on its
// chunks.
func languageFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md":
		return "markdown"
	case ".sol":
		return "solidity"
	case ".rs":
		return "rust"
	default:
		return "text"
	}
}
