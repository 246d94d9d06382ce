// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package ingest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"unicode/utf8"

	"github.com/inkwell-dev/inkwell/internal/chunker"
	"github.com/inkwell-dev/inkwell/internal/embed"
	"github.com/inkwell-dev/inkwell/internal/store"
	inkerr "github.com/inkwell-dev/inkwell/pkg/errors"
)

// DefaultWorkers is the ingestion concurrency: embedding dominates the
// per-file cost, so a small pool keeps the upstream API busy without
// hammering it.
const DefaultWorkers = 4

// FileError records why one file failed during ingestion.
type FileError struct {
	Path string
	Err  error
}

// Report summarizes an ingestion run. A run with failures is still a
// run: successfully processed files stay indexed.
type Report struct {
	FilesProcessed int
	FilesFailed    int
	ChunksIndexed  int
	Errors         []FileError
}

// Err returns a partial-failure error when any file failed, nil
// otherwise.
func (r *Report) Err() error {
	if r.FilesFailed == 0 {
		return nil
	}
	return inkerr.Errorf(inkerr.CodeIngestPartialFailure,
		"%d of %d files failed to ingest", r.FilesFailed, r.FilesFailed+r.FilesProcessed)
}

// Options configures a Pipeline.
type Options struct {
	Collection string
	Workers    int
	Chunk      chunker.Options
	Walk       WalkOptions
}

// Pipeline ingests a directory tree: walk, then per file chunk, embed,
// and upsert. Files are processed by a bounded worker pool; chunks
// within a file are embedded sequentially, one attempt each, so a dead
// upstream fails the file fast instead of retry-storming per chunk.
type Pipeline struct {
	embedder embed.Embedder
	index    store.Index
	opts     Options
}

// NewPipeline creates a Pipeline.
func NewPipeline(embedder embed.Embedder, index store.Index, opts Options) *Pipeline {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	return &Pipeline{embedder: embedder, index: index, opts: opts}
}

// Run ingests every indexable file under root and returns a Report.
// The error return covers setup failures only (bad root, missing
// collection); per-file failures land in the Report.
func (p *Pipeline) Run(ctx context.Context, root string) (*Report, error) {
	paths, err := Walk(root, p.opts.Walk)
	if err != nil {
		return nil, err
	}
	if err := p.index.EnsureCollection(ctx, p.opts.Collection, p.embedder.Dimension()); err != nil {
		return nil, err
	}

	slog.Info("starting ingestion",
		"root", root,
		"files", len(paths),
		"workers", p.opts.Workers,
		"collection", p.opts.Collection,
	)

	var (
		mu     sync.Mutex
		report Report
		wg     sync.WaitGroup
	)
	jobs := make(chan string)

	for i := 0; i < p.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rel := range jobs {
				n, err := p.ingestFile(ctx, root, rel)
				mu.Lock()
				if err != nil {
					report.FilesFailed++
					report.Errors = append(report.Errors, FileError{Path: rel, Err: err})
					slog.Warn("file ingestion failed", "path", rel, "error", err)
				} else {
					report.FilesProcessed++
					report.ChunksIndexed += n
				}
				mu.Unlock()
			}
		}()
	}

loop:
	for _, rel := range paths {
		select {
		case <-ctx.Done():
			break loop
		case jobs <- rel:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return &report, inkerr.Wrap(err, inkerr.CodeIngestWalkFailure, "ingestion canceled")
	}

	sort.Slice(report.Errors, func(i, j int) bool { return report.Errors[i].Path < report.Errors[j].Path })
	slog.Info("ingestion finished",
		"processed", report.FilesProcessed,
		"failed", report.FilesFailed,
		"chunks", report.ChunksIndexed,
	)
	return &report, nil
}

// ingestFile processes one file and returns the number of chunks
// indexed. Existing records for the same source are replaced so
// re-ingestion never leaves stale chunks behind.
func (p *Pipeline) ingestFile(ctx context.Context, root, rel string) (int, error) {
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return 0, inkerr.Wrapf(err, inkerr.CodeIngestFileReadFailure, "reading %s", rel)
	}
	if !utf8.Valid(data) {
		return 0, inkerr.Errorf(inkerr.CodeIngestFileNotText, "%s is not valid UTF-8 text", rel)
	}

	chunks := chunker.Split(rel, languageFor(rel), string(data), p.opts.Chunk)
	if len(chunks) == 0 {
		return 0, nil
	}

	records := make([]store.Record, 0, len(chunks))
	for _, c := range chunks {
		vec, err := p.embedder.Embed(ctx, c.Text)
		if err != nil {
			code := inkerr.CodeOf(err)
			if code == "" {
				code = inkerr.CodeEmbedUpstreamFailure
			}
			return 0, inkerr.Wrapf(err, code, "embedding chunk %s of %s", c.ID, rel)
		}
		records = append(records, store.Record{
			ID:      c.ID,
			Vector:  vec,
			Source:  c.Source,
			Content: c.Text,
			Metadata: map[string]string{
				"language":   c.Language,
				"start_line": strconv.Itoa(c.StartLine),
				"end_line":   strconv.Itoa(c.EndLine),
			},
		})
	}

	if err := p.index.DeleteBySource(ctx, p.opts.Collection, rel); err != nil {
		return 0, err
	}
	if err := p.index.Upsert(ctx, p.opts.Collection, records); err != nil {
		return 0, err
	}
	return len(records), nil
}
