// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/inkwell-dev/inkwell/internal/ingest"
	"github.com/inkwell-dev/inkwell/internal/rag"
	"github.com/inkwell-dev/inkwell/internal/store"
	inkerr "github.com/inkwell-dev/inkwell/pkg/errors"
)

// QueryService is the RAG surface the HTTP layer depends on.
type QueryService interface {
	Ask(ctx context.Context, query string) (*rag.Answer, error)
	Search(ctx context.Context, query string, limit int, threshold float32) ([]store.Result, error)
	AddDocument(ctx context.Context, text string, metadata map[string]string) (string, error)
	Stats(ctx context.Context) (rag.Stats, error)
}

// Ingestor runs the ingestion pipeline over a directory tree.
type Ingestor interface {
	Run(ctx context.Context, root string) (*ingest.Report, error)
}

// Services bundles the dependencies the REST routes need.
type Services struct {
	RAG      QueryService
	Ingestor Ingestor // nil disables the ingest endpoint
}

// envelope is the uniform response wrapper. Application-level failures
// (empty query, upstream down) are reported inside a 200 response with
// success=false; transport-level failures (malformed JSON) keep huma's
// error statuses.
type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    *T     `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func okEnvelope[T any](data T) envelope[T] {
	return envelope[T]{Success: true, Data: &data}
}

func errEnvelope[T any](err error) envelope[T] {
	slog.Warn("request failed", "code", inkerr.CodeOf(err), "error", err)
	return envelope[T]{Success: false, Error: err.Error()}
}

// RegisterServices sets the service dependencies and registers REST
// routes.
func (s *Server) RegisterServices(svc *Services) {
	s.registerRoutes(svc)
}

func (s *Server) registerRoutes(svc *Services) {
	huma.Register(s.api, huma.Operation{
		OperationID: "add-document",
		Method:      http.MethodPost,
		Path:        "/rag/document",
		Summary:     "Add a document to the knowledge base",
		Tags:        []string{"rag"},
	}, makeAddDocumentHandler(svc.RAG))

	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodPost,
		Path:        "/rag/search",
		Summary:     "Search the knowledge base",
		Tags:        []string{"rag"},
	}, makeSearchHandler(svc.RAG))

	huma.Register(s.api, huma.Operation{
		OperationID: "query",
		Method:      http.MethodPost,
		Path:        "/rag/query",
		Summary:     "Answer a question with retrieved context",
		Tags:        []string{"rag"},
	}, makeQueryHandler(svc.RAG))

	huma.Register(s.api, huma.Operation{
		OperationID: "ask",
		Method:      http.MethodPost,
		Path:        "/ask",
		Summary:     "Ask the migration assistant",
		Tags:        []string{"assistant"},
	}, makeAskHandler(svc.RAG))

	huma.Register(s.api, huma.Operation{
		OperationID: "ask-get",
		Method:      http.MethodGet,
		Path:        "/ask",
		Summary:     "Ask the migration assistant (query string form)",
		Tags:        []string{"assistant"},
	}, makeAskGetHandler(svc.RAG))

	huma.Register(s.api, huma.Operation{
		OperationID: "stats",
		Method:      http.MethodGet,
		Path:        "/rag/stats",
		Summary:     "Knowledge base statistics",
		Tags:        []string{"rag"},
	}, makeStatsHandler(svc.RAG))

	if svc.Ingestor != nil {
		huma.Register(s.api, huma.Operation{
			OperationID: "ingest",
			Method:      http.MethodPost,
			Path:        "/rag/ingest",
			Summary:     "Ingest a directory of documents",
			Tags:        []string{"rag"},
		}, makeIngestHandler(svc.Ingestor))
	}
}

// --- Request/Response types ---

type addDocumentInput struct {
	Body struct {
		Text     string            `json:"text" doc:"Document text"`
		Metadata map[string]string `json:"metadata,omitempty" doc:"Optional metadata, e.g. source"`
	}
}

// addDocumentOutput carries the stored document id.
type addDocumentOutput struct {
	Body envelope[string]
}

type searchInput struct {
	Body struct {
		Query          string  `json:"query" doc:"Search text"`
		Limit          int     `json:"limit,omitempty" doc:"Maximum results"`
		ScoreThreshold float32 `json:"score_threshold,omitempty" doc:"Minimum similarity"`
	}
}

type searchResult struct {
	Content  string            `json:"content"`
	Score    float32           `json:"score"`
	Metadata map[string]string `json:"metadata"`
}

// searchOutput carries the matching results as a bare array.
type searchOutput struct {
	Body envelope[[]searchResult]
}

type queryInput struct {
	Body struct {
		Query string `json:"query" doc:"Natural-language question"`
	}
}

// askOutput carries the generated answer as a plain string.
type askOutput struct {
	Body envelope[string]
}

type askGetInput struct {
	Query string `query:"query" doc:"Natural-language question"`
}

type statsData struct {
	RegularDocuments int64 `json:"regular_documents"`
	CachedResponses  int64 `json:"cached_responses"`
}

type statsOutput struct {
	Body envelope[statsData]
}

type ingestInput struct {
	Body struct {
		Path string `json:"path" doc:"Directory to ingest"`
	}
}

type ingestData struct {
	FilesProcessed int      `json:"files_processed"`
	FilesFailed    int      `json:"files_failed"`
	ChunksIndexed  int      `json:"chunks_indexed"`
	Errors         []string `json:"errors,omitempty"`
}

type ingestOutput struct {
	Body envelope[ingestData]
}

// --- Handlers ---

func makeAddDocumentHandler(svc QueryService) func(context.Context, *addDocumentInput) (*addDocumentOutput, error) {
	return func(ctx context.Context, input *addDocumentInput) (*addDocumentOutput, error) {
		id, err := svc.AddDocument(ctx, input.Body.Text, input.Body.Metadata)
		if err != nil {
			return &addDocumentOutput{Body: errEnvelope[string](err)}, nil
		}
		return &addDocumentOutput{Body: okEnvelope(id)}, nil
	}
}

func makeSearchHandler(svc QueryService) func(context.Context, *searchInput) (*searchOutput, error) {
	return func(ctx context.Context, input *searchInput) (*searchOutput, error) {
		results, err := svc.Search(ctx, input.Body.Query, input.Body.Limit, input.Body.ScoreThreshold)
		if err != nil {
			return &searchOutput{Body: errEnvelope[[]searchResult](err)}, nil
		}
		return &searchOutput{Body: okEnvelope(toSearchResults(results))}, nil
	}
}

func makeQueryHandler(svc QueryService) func(context.Context, *queryInput) (*askOutput, error) {
	return func(ctx context.Context, input *queryInput) (*askOutput, error) {
		answer, err := svc.Ask(ctx, input.Body.Query)
		if err != nil {
			return &askOutput{Body: errEnvelope[string](err)}, nil
		}
		return &askOutput{Body: okEnvelope(answer.Text)}, nil
	}
}

func makeAskHandler(svc QueryService) func(context.Context, *queryInput) (*askOutput, error) {
	return func(ctx context.Context, input *queryInput) (*askOutput, error) {
		answer, err := svc.Ask(ctx, input.Body.Query)
		if err != nil {
			return &askOutput{Body: errEnvelope[string](err)}, nil
		}
		return &askOutput{Body: okEnvelope(answer.Text)}, nil
	}
}

func makeAskGetHandler(svc QueryService) func(context.Context, *askGetInput) (*askOutput, error) {
	return func(ctx context.Context, input *askGetInput) (*askOutput, error) {
		answer, err := svc.Ask(ctx, input.Query)
		if err != nil {
			return &askOutput{Body: errEnvelope[string](err)}, nil
		}
		return &askOutput{Body: okEnvelope(answer.Text)}, nil
	}
}

func makeStatsHandler(svc QueryService) func(context.Context, *struct{}) (*statsOutput, error) {
	return func(ctx context.Context, _ *struct{}) (*statsOutput, error) {
		stats, err := svc.Stats(ctx)
		if err != nil {
			return &statsOutput{Body: errEnvelope[statsData](err)}, nil
		}
		return &statsOutput{Body: okEnvelope(statsData{
			RegularDocuments: stats.RegularDocuments,
			CachedResponses:  stats.CachedResponses,
		})}, nil
	}
}

func makeIngestHandler(ing Ingestor) func(context.Context, *ingestInput) (*ingestOutput, error) {
	return func(ctx context.Context, input *ingestInput) (*ingestOutput, error) {
		if input.Body.Path == "" {
			return &ingestOutput{Body: errEnvelope[ingestData](
				inkerr.New(inkerr.CodeServerRequestInvalid, "Path cannot be empty"))}, nil
		}
		report, err := ing.Run(ctx, input.Body.Path)
		if err != nil {
			return &ingestOutput{Body: errEnvelope[ingestData](err)}, nil
		}

		data := ingestData{
			FilesProcessed: report.FilesProcessed,
			FilesFailed:    report.FilesFailed,
			ChunksIndexed:  report.ChunksIndexed,
		}
		for _, fe := range report.Errors {
			data.Errors = append(data.Errors, fe.Path+": "+fe.Err.Error())
		}
		return &ingestOutput{Body: okEnvelope(data)}, nil
	}
}

// toSearchResults converts store hits to the wire shape. Source is
// carried inside metadata so each hit serializes as
// {content, score, metadata}.
func toSearchResults(results []store.Result) []searchResult {
	out := make([]searchResult, 0, len(results))
	for _, r := range results {
		md := make(map[string]string, len(r.Metadata)+1)
		for k, v := range r.Metadata {
			md[k] = v
		}
		if r.Source != "" {
			md["source"] = r.Source
		}
		out = append(out, searchResult{
			Content:  r.Content,
			Score:    r.Score,
			Metadata: md,
		})
	}
	return out
}
