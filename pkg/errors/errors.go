// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeChunkInputInvalid Code = "chunk.input.invalid"

	CodeIngestWalkFailure     Code = "ingest.walk.failure"
	CodeIngestFileReadFailure Code = "ingest.file.read.failure"
	CodeIngestFileNotText     Code = "ingest.file.encoding.invalid"
	CodeIngestPartialFailure  Code = "ingest.partial_failure"

	CodeEmbedRequestInvalid   Code = "embed.request.invalid_input"
	CodeEmbedUpstreamFailure  Code = "embed.upstream.failure"
	CodeEmbedUpstreamTimeout  Code = "embed.upstream.timeout"
	CodeEmbedResponseInvalid  Code = "embed.response.invalid"
	CodeEmbedDimensionInvalid Code = "embed.dimension.invalid"

	CodeGenerateRequestInvalid  Code = "generate.request.invalid_input"
	CodeGenerateUpstreamFailure Code = "generate.upstream.failure"
	CodeGenerateUpstreamTimeout Code = "generate.upstream.timeout"
	CodeGenerateResponseInvalid Code = "generate.response.invalid"

	CodeStoreDatabaseFailure     Code = "store.database.failure"
	CodeStoreInvalidInput        Code = "store.invalid_input"
	CodeStoreCollectionMismatch  Code = "store.collection.dimension_mismatch"
	CodeStoreCollectionNotFound  Code = "store.collection.not_found"
	CodeStoreRecordInvalid       Code = "store.record.invalid_input"

	CodeQueryInvalidInput Code = "query.request.invalid_input"
	CodeCacheLookupFailure Code = "cache.lookup.failure"
	CodeCacheStoreFailure  Code = "cache.store.failure"

	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"

	CodeSecretInvalidInput   Code = "secret.invalid_input"
	CodeSecretResolveFailure Code = "secret.resolve.failure"
	CodeSecretNotFound       Code = "secret.get.not_found"
	CodeSecretStoreFailure   Code = "secret.store.failure"
	CodeSecretDeleteFailure  Code = "secret.delete.failure"

	CodeServerRequestInvalid  Code = "server.request.invalid"
	CodeServerInternalFailure Code = "server.internal.failure"
	CodeServerStartFailure    Code = "server.start.failure"
	CodeServerShutdownFailure Code = "server.shutdown.failure"

	CodeCLISetupFailure  Code = "cli.setup.failure"
	CodeCLIInputInvalid  Code = "cli.input.invalid"
	CodeCLIRequestFailure Code = "cli.request.failure"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates a structured error field.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

func FieldSource(value string) Attr {
	return Field("source", value)
}

func FieldCollection(value string) Attr {
	return Field("collection", value)
}

func FieldProvider(value string) Attr {
	return Field("provider", value)
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Wrapf(err, format, args...)
}

// With adds structured fields to an existing error chain.
func With(err error, fields ...Attr) error {
	if err == nil {
		return nil
	}

	code := CodeOf(err)
	if code == "" {
		code = CodeServerInternalFailure
	}

	return oops.Code(code).With(flatten(fields)...).Wrap(err)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}

	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}

	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}

	return oopsErr.Context()
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

func IsNotFound(err error) bool {
	return reason(CodeOf(err)) == "not_found"
}

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value" || r == "invalid_format"
}

func IsTimeout(err error) bool {
	return reason(CodeOf(err)) == "timeout"
}

func IsUpstreamFailure(err error) bool {
	code := CodeOf(err)
	return strings.Contains(string(code), "upstream") && reason(code) == "failure"
}

// IsRetryable reports whether an error is worth retrying against the
// upstream: transient network failures and timeouts qualify, invalid
// input never does.
func IsRetryable(err error) bool {
	return IsTimeout(err) || IsUpstreamFailure(err)
}

func IsCollectionMismatch(err error) bool {
	return reason(CodeOf(err)) == "dimension_mismatch"
}

func HTTPStatus(err error) int {
	switch {
	case IsNotFound(err):
		return http.StatusNotFound
	case IsInvalidInput(err):
		return http.StatusBadRequest
	case IsCollectionMismatch(err):
		return http.StatusConflict
	case IsTimeout(err):
		return http.StatusGatewayTimeout
	case IsUpstreamFailure(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func Join(errs ...error) error {
	return oops.Code(CodeServerInternalFailure).Wrap(stderrors.Join(errs...))
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

func reason(code Code) string {
	if code == "" {
		return ""
	}

	raw := string(code)
	idx := strings.LastIndex(raw, ".")
	if idx == -1 || idx == len(raw)-1 {
		return raw
	}
	return raw[idx+1:]
}
