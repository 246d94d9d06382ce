// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package sqlite_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/inkwell-dev/inkwell/internal/store"
	"github.com/inkwell-dev/inkwell/internal/store/sqlite"
	inkerr "github.com/inkwell-dev/inkwell/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDBPath returns a temp SQLite database path.
func testDBPath(t *testing.T, name string) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "inkwell-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, name+".db")
}

func openIndex(t *testing.T, name string, dims int) *sqlite.Index {
	t.Helper()
	idx, err := sqlite.Open(testDBPath(t, name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	require.NoError(t, idx.EnsureCollection(context.Background(), "guides", dims))
	return idx
}

func rec(id string, vector []float32, source string) store.Record {
	return store.Record{ID: id, Vector: vector, Source: source, Content: "content of " + id}
}

func TestIndex_UpsertAndSearch(t *testing.T) {
	ctx := context.Background()
	idx := openIndex(t, "search", 3)

	require.NoError(t, idx.Upsert(ctx, "guides", []store.Record{
		rec("c1", []float32{1, 0, 0}, "guides/flipper.md"),
		rec("c2", []float32{0, 1, 0}, "guides/erc20.md"),
		rec("c3", []float32{0.9, 0.1, 0}, "guides/flipper.md"),
	}))

	results, err := idx.Search(ctx, "guides", []float32{1, 0, 0}, 2, 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "c1", results[0].ID)
	assert.Equal(t, "guides/flipper.md", results[0].Source)
	assert.Equal(t, "content of c1", results[0].Content)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestIndex_SearchThresholdExcludesWeakMatches(t *testing.T) {
	ctx := context.Background()
	idx := openIndex(t, "threshold", 3)

	require.NoError(t, idx.Upsert(ctx, "guides", []store.Record{
		rec("near", []float32{1, 0, 0}, "a.md"),
		rec("far", []float32{0, 1, 0}, "b.md"), // orthogonal, similarity ~0
	}))

	results, err := idx.Search(ctx, "guides", []float32{1, 0, 0}, 10, 0.7)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "near", results[0].ID)
	assert.GreaterOrEqual(t, results[0].Score, float32(0.7))
}

func TestIndex_UpsertReplacesByID(t *testing.T) {
	ctx := context.Background()
	idx := openIndex(t, "upsert", 3)

	require.NoError(t, idx.Upsert(ctx, "guides", []store.Record{rec("c1", []float32{1, 0, 0}, "a.md")}))
	require.NoError(t, idx.Upsert(ctx, "guides", []store.Record{rec("c1", []float32{0, 1, 0}, "a.md")}))

	n, err := idx.Count(ctx, "guides")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	results, err := idx.Search(ctx, "guides", []float32{0, 1, 0}, 1, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].ID)
	assert.InDelta(t, 1.0, float64(results[0].Score), 0.01)
}

func TestIndex_MetadataRoundTrip(t *testing.T) {
	ctx := context.Background()
	idx := openIndex(t, "metadata", 3)

	r := rec("c1", []float32{1, 0, 0}, "guides/flipper.md")
	r.Metadata = map[string]string{"language": "markdown", "start_line": "12"}
	require.NoError(t, idx.Upsert(ctx, "guides", []store.Record{r}))

	results, err := idx.Search(ctx, "guides", []float32{1, 0, 0}, 1, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "markdown", results[0].Metadata["language"])
	assert.Equal(t, "12", results[0].Metadata["start_line"])
	assert.False(t, results[0].CreatedAt.IsZero())
}

func TestIndex_EnsureCollectionDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	idx := openIndex(t, "mismatch", 3)

	err := idx.EnsureCollection(ctx, "guides", 5)
	require.Error(t, err)
	assert.True(t, inkerr.IsCollectionMismatch(err))
	assert.Contains(t, err.Error(), "3")
	assert.Contains(t, err.Error(), "5")

	// Same dimensions stays idempotent.
	assert.NoError(t, idx.EnsureCollection(ctx, "guides", 3))
}

func TestIndex_RegistrySurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := testDBPath(t, "reopen")

	idx, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, idx.EnsureCollection(ctx, "guides", 3))
	require.NoError(t, idx.Upsert(ctx, "guides", []store.Record{rec("c1", []float32{1, 0, 0}, "a.md")}))
	require.NoError(t, idx.Close())

	idx, err = sqlite.Open(path)
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	err = idx.EnsureCollection(ctx, "guides", 5)
	assert.True(t, inkerr.IsCollectionMismatch(err))

	n, err := idx.Count(ctx, "guides")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestIndex_DeleteBySource(t *testing.T) {
	ctx := context.Background()
	idx := openIndex(t, "delete-source", 3)

	require.NoError(t, idx.Upsert(ctx, "guides", []store.Record{
		rec("c1", []float32{1, 0, 0}, "guides/flipper.md"),
		rec("c2", []float32{0, 1, 0}, "guides/flipper.md"),
		rec("c3", []float32{0, 0, 1}, "guides/erc20.md"),
	}))

	require.NoError(t, idx.DeleteBySource(ctx, "guides", "guides/flipper.md"))

	n, err := idx.Count(ctx, "guides")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	results, err := idx.Search(ctx, "guides", []float32{1, 0, 0}, 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c3", results[0].ID)
}

func TestIndex_UnknownCollection(t *testing.T) {
	ctx := context.Background()
	idx := openIndex(t, "unknown", 3)

	_, err := idx.Search(ctx, "nope", []float32{1, 0, 0}, 1, 0)
	assert.True(t, inkerr.IsNotFound(err))

	_, err = idx.Count(ctx, "nope")
	assert.True(t, inkerr.IsNotFound(err))

	err = idx.Upsert(ctx, "nope", []store.Record{rec("c1", []float32{1, 0, 0}, "a.md")})
	assert.True(t, inkerr.IsNotFound(err))
}

func TestIndex_RejectsBadInput(t *testing.T) {
	ctx := context.Background()
	idx := openIndex(t, "bad-input", 3)

	err := idx.EnsureCollection(ctx, "Invalid-Name!", 3)
	assert.True(t, inkerr.IsInvalidInput(err))

	err = idx.Upsert(ctx, "guides", []store.Record{rec("", []float32{1, 0, 0}, "a.md")})
	assert.True(t, inkerr.IsInvalidInput(err))

	err = idx.Upsert(ctx, "guides", []store.Record{rec("c1", []float32{1, 0}, "a.md")})
	assert.True(t, inkerr.IsCollectionMismatch(err))
}
