package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// Document is one retrieved source passage. Page is set only for paginated
// sources.
type Document struct {
	Source      string `json:"source"`
	Page        *int   `json:"page,omitempty"`
	PageContent string `json:"page_content"`
}

// Retriever is the retrieval/reranking subsystem behind the doc_search tool.
type Retriever interface {
	Search(ctx context.Context, query string) ([]Document, error)
}

// DocSearchTool searches bank product documents and returns the sources as
// JSON. Retrieval failures degrade to an empty source list so the agent loop
// can keep going.
type DocSearchTool struct {
	Retriever Retriever
	Logger    *slog.Logger
}

func NewDocSearchTool(retriever Retriever, logger *slog.Logger) *DocSearchTool {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocSearchTool{Retriever: retriever, Logger: logger}
}

func (t *DocSearchTool) Name() string { return "doc_search" }

func (t *DocSearchTool) Description() string {
	return "Search bank product documents (loan, deposit and service terms). " +
		"Returns JSON with a list of sources: file name, page (PDF only) and the passage text."
}

func (t *DocSearchTool) ParameterSchema() string {
	s := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Search query.",
			},
		},
		"required": []string{"query"},
	}
	b, _ := json.MarshalIndent(s, "", "  ")
	return string(b)
}

type docSearchResult struct {
	Sources []Document `json:"sources"`
}

func (t *DocSearchTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	query, _ := params["query"].(string)
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("missing required param: query")
	}

	empty := docSearchResult{Sources: []Document{}}

	if t.Retriever == nil {
		return marshalSources(empty), nil
	}
	docs, err := t.Retriever.Search(ctx, query)
	if err != nil {
		t.Logger.Error("doc_search_error", "query_len", len(query), "error", err.Error())
		return marshalSources(empty), nil
	}
	if len(docs) == 0 {
		return marshalSources(empty), nil
	}
	return marshalSources(docSearchResult{Sources: docs}), nil
}

func marshalSources(r docSearchResult) string {
	b, _ := json.Marshal(r)
	return string(b)
}
