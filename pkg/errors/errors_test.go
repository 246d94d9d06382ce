// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package errors_test

import (
	stderrors "errors"
	"net/http"
	"testing"

	inkerr "github.com/inkwell-dev/inkwell/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIncludesCodeAndFields(t *testing.T) {
	err := inkerr.New(
		inkerr.CodeStoreCollectionMismatch,
		"collection dimension mismatch",
		inkerr.FieldCollection("code_knowledge"),
		inkerr.Field("expected", 384),
		inkerr.Field("actual", 1536),
	)

	require.Error(t, err)
	assert.Equal(t, inkerr.CodeStoreCollectionMismatch, inkerr.CodeOf(err))
	assert.True(t, inkerr.HasCode(err, inkerr.CodeStoreCollectionMismatch))

	fields := inkerr.FieldsOf(err)
	assert.Equal(t, "code_knowledge", fields["collection"])
	assert.Equal(t, 384, fields["expected"])
	assert.Equal(t, 1536, fields["actual"])
}

func TestErrorfFormatsMessage(t *testing.T) {
	err := inkerr.Errorf(inkerr.CodeEmbedUpstreamFailure, "embedding chunk %d of %s", 3, "flipper.md")
	require.Error(t, err)
	assert.Equal(t, inkerr.CodeEmbedUpstreamFailure, inkerr.CodeOf(err))
	assert.Contains(t, err.Error(), "embedding chunk 3 of flipper.md")
}

func TestWrapPreservesWrappedErrorAndCode(t *testing.T) {
	root := stderrors.New("connection refused")
	err := inkerr.Wrap(
		root,
		inkerr.CodeGenerateUpstreamFailure,
		"calling generation API",
		inkerr.FieldProvider("google"),
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, root)
	assert.Equal(t, inkerr.CodeGenerateUpstreamFailure, inkerr.CodeOf(err))
	assert.True(t, inkerr.IsUpstreamFailure(err))
	assert.Equal(t, "google", inkerr.FieldsOf(err)["provider"])
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, inkerr.Wrap(nil, inkerr.CodeServerInternalFailure, "ignored"))
	assert.NoError(t, inkerr.Wrapf(nil, inkerr.CodeServerInternalFailure, "ignored %s", "arg"))
}

func TestReasonHelpers(t *testing.T) {
	assert.True(t, inkerr.IsInvalidInput(inkerr.New(inkerr.CodeQueryInvalidInput, "empty query")))
	assert.True(t, inkerr.IsTimeout(inkerr.New(inkerr.CodeEmbedUpstreamTimeout, "deadline exceeded")))
	assert.True(t, inkerr.IsUpstreamFailure(inkerr.New(inkerr.CodeGenerateUpstreamFailure, "bad gateway")))
	assert.True(t, inkerr.IsNotFound(inkerr.New(inkerr.CodeSecretNotFound, "no such key")))
	assert.True(t, inkerr.IsCollectionMismatch(inkerr.New(inkerr.CodeStoreCollectionMismatch, "dims differ")))
	assert.False(t, inkerr.IsInvalidInput(inkerr.New(inkerr.CodeStoreDatabaseFailure, "db broke")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, inkerr.IsRetryable(inkerr.New(inkerr.CodeEmbedUpstreamTimeout, "slow")))
	assert.True(t, inkerr.IsRetryable(inkerr.New(inkerr.CodeEmbedUpstreamFailure, "down")))
	assert.False(t, inkerr.IsRetryable(inkerr.New(inkerr.CodeEmbedRequestInvalid, "empty text")))
	assert.False(t, inkerr.IsRetryable(nil))
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", inkerr.New(inkerr.CodeQueryInvalidInput, "x"), http.StatusBadRequest},
		{"not found", inkerr.New(inkerr.CodeSecretNotFound, "x"), http.StatusNotFound},
		{"timeout", inkerr.New(inkerr.CodeGenerateUpstreamTimeout, "x"), http.StatusGatewayTimeout},
		{"upstream", inkerr.New(inkerr.CodeEmbedUpstreamFailure, "x"), http.StatusBadGateway},
		{"mismatch", inkerr.New(inkerr.CodeStoreCollectionMismatch, "x"), http.StatusConflict},
		{"internal", inkerr.New(inkerr.CodeStoreDatabaseFailure, "x"), http.StatusInternalServerError},
		{"plain error", stderrors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, inkerr.HTTPStatus(tc.err))
		})
	}
}

func TestCodeOfNonOopsError(t *testing.T) {
	assert.Equal(t, inkerr.Code(""), inkerr.CodeOf(stderrors.New("plain")))
	assert.Equal(t, inkerr.Code(""), inkerr.CodeOf(nil))
}
