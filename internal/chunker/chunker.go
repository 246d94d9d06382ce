// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

// Package chunker splits source documents (markdown migration guides,
// Solidity and ink! contract files) into bounded, overlapping segments
// suitable for embedding and retrieval.
package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// DefaultMaxChunkSize bounds a chunk's core text in bytes. The bound is
	// soft only for a single line that exceeds it on its own; lines are
	// never split mid-line so line ranges stay meaningful.
	DefaultMaxChunkSize = 2048

	// DefaultOverlapLines is the number of trailing lines a chunk shares
	// with the start of its successor.
	DefaultOverlapLines = 2
)

// Chunk is a bounded segment of a source document. Text includes the
// leading overlap lines shared with the previous chunk; Overlap records
// how many of Text's leading lines are overlap, so core ranges
// (StartLine+Overlap .. EndLine) partition the document exactly.
type Chunk struct {
	ID        string
	Text      string
	Source    string
	Language  string
	StartLine int // 1-based, first line of Text (including overlap)
	EndLine   int // 1-based, last line of Text, inclusive
	Overlap   int // leading lines of Text shared with the previous chunk
}

// Options controls chunk boundaries.
type Options struct {
	MaxChunkSize int
	OverlapLines int
}

func (o Options) withDefaults() Options {
	if o.MaxChunkSize <= 0 {
		o.MaxChunkSize = DefaultMaxChunkSize
	}
	if o.OverlapLines < 0 {
		o.OverlapLines = DefaultOverlapLines
	}
	return o
}

// span is a half-open line range [start, end) into the document's lines.
type span struct {
	start int
	end   int
}

func (s span) size(lines []string) int {
	n := 0
	for i := s.start; i < s.end; i++ {
		n += len(lines[i]) + 1
	}
	return n
}

// Split divides content into chunks on natural boundaries (blank lines,
// fenced code blocks), falling back to hard line splitting when a single
// block exceeds opts.MaxChunkSize. It is deterministic: identical input
// and options always yield identical chunks, which the stable chunk id
// scheme depends on. Whitespace-only content yields no chunks; content
// within the size bound yields exactly one.
func Split(source, language, content string, opts Options) []Chunk {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	opts = opts.withDefaults()

	lines := strings.Split(content, "\n")
	blocks := buildBlocks(lines)

	// Greedily pack blocks into core spans bounded by MaxChunkSize.
	var cores []span
	cur := span{start: blocks[0].start, end: blocks[0].start}
	curSize := 0
	for _, b := range blocks {
		bSize := b.size(lines)
		if bSize > opts.MaxChunkSize {
			if cur.end > cur.start {
				cores = append(cores, cur)
			}
			cores = append(cores, hardSplit(lines, b, opts.MaxChunkSize)...)
			cur = span{start: b.end, end: b.end}
			curSize = 0
			continue
		}
		if curSize+bSize > opts.MaxChunkSize && cur.end > cur.start {
			cores = append(cores, cur)
			cur = span{start: b.start, end: b.start}
			curSize = 0
		}
		cur.end = b.end
		curSize += bSize
	}
	if cur.end > cur.start {
		cores = append(cores, cur)
	}

	chunks := make([]Chunk, 0, len(cores))
	for i, core := range cores {
		overlap := 0
		textStart := core.start
		if i > 0 && opts.OverlapLines > 0 {
			prev := cores[i-1]
			overlap = min(opts.OverlapLines, prev.end-prev.start)
			textStart = core.start - overlap
		}

		text := strings.Join(lines[textStart:core.end], "\n")
		c := Chunk{
			Text:      text,
			Source:    source,
			Language:  language,
			StartLine: textStart + 1,
			EndLine:   core.end,
			Overlap:   overlap,
		}
		c.ID = chunkID(c)
		chunks = append(chunks, c)
	}

	return chunks
}

// buildBlocks partitions the document's lines into natural blocks:
// fenced code blocks are kept whole, paragraphs break on blank lines,
// and blank runs attach to the preceding block so the blocks cover
// every line exactly once.
func buildBlocks(lines []string) []span {
	var blocks []span
	i := 0
	for i < len(lines) {
		switch {
		case isBlank(lines[i]):
			j := i
			for j < len(lines) && isBlank(lines[j]) {
				j++
			}
			if len(blocks) > 0 {
				blocks[len(blocks)-1].end = j
			} else {
				blocks = append(blocks, span{start: i, end: j})
			}
			i = j
		case isFence(lines[i]):
			j := i + 1
			for j < len(lines) && !isFence(lines[j]) {
				j++
			}
			if j < len(lines) {
				j++ // include the closing fence
			}
			blocks = append(blocks, span{start: i, end: j})
			i = j
		default:
			j := i
			for j < len(lines) && !isBlank(lines[j]) && !isFence(lines[j]) {
				j++
			}
			blocks = append(blocks, span{start: i, end: j})
			i = j
		}
	}
	return blocks
}

// hardSplit divides an oversized block into line runs of at most maxSize
// bytes each. A single line over the bound becomes its own span.
func hardSplit(lines []string, b span, maxSize int) []span {
	var out []span
	cur := span{start: b.start, end: b.start}
	size := 0
	for i := b.start; i < b.end; i++ {
		lineSize := len(lines[i]) + 1
		if size+lineSize > maxSize && cur.end > cur.start {
			out = append(out, cur)
			cur = span{start: i, end: i}
			size = 0
		}
		cur.end = i + 1
		size += lineSize
	}
	if cur.end > cur.start {
		out = append(out, cur)
	}
	return out
}

// chunkID derives a stable identifier from the chunk's position and text,
// so re-ingesting unchanged content upserts the same records.
func chunkID(c Chunk) string {
	h := sha256.Sum256(fmt.Appendf(nil, "%s|%d|%d|%s", c.Source, c.StartLine, c.EndLine, c.Text))
	return hex.EncodeToString(h[:8])
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

func isFence(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~")
}
