// ABOUTME: MCP tool handler implementations for the threadsearch server
// ABOUTME: Tool failures are returned as error results, never as protocol errors
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harper/threadsearch/internal/logging"
	"github.com/harper/threadsearch/internal/models"
	"github.com/harper/threadsearch/internal/retrieval"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	engine      *retrieval.Engine
	defaultTopK int
	log         *logging.Logger
}

// NewHandlers creates handlers bound to engine
func NewHandlers(engine *retrieval.Engine, defaultTopK int, log *logging.Logger) *Handlers {
	if log == nil {
		log = logging.Nop()
	}
	return &Handlers{engine: engine, defaultTopK: defaultTopK, log: log}
}

// SearchResponse is the JSON body of a search_subthreads result.
type SearchResponse struct {
	Query   string                   `json:"query"`
	Count   int                      `json:"count"`
	Results []models.RetrievalResult `json:"results"`
}

// StatsResponse is the JSON body of an index_stats result.
type StatsResponse struct {
	SnapshotID    string `json:"snapshot_id"`
	CreatedAt     string `json:"created_at"`
	Subthreads    int    `json:"subthreads"`
	Conversations int    `json:"conversations"`
	Dimension     int    `json:"dimension"`
}

// SearchSubthreads handles the search_subthreads tool
func (h *Handlers) SearchSubthreads(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}
	topK := request.GetInt("top_k", h.defaultTopK)

	results, err := h.engine.Retrieve(ctx, query, topK)
	if err != nil {
		h.log.Warn("search failed", "top_k", topK, "err", err)
		if errors.Is(err, retrieval.ErrNoSnapshot) {
			return mcp.NewToolResultError("no index is loaded; run `threadsearch index` first"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	return jsonResult(SearchResponse{Query: query, Count: len(results), Results: results})
}

// GetSubthread handles the get_subthread tool
func (h *Handlers) GetSubthread(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	convID, err := request.RequireString("conversation_id")
	if err != nil {
		return mcp.NewToolResultError("conversation_id argument is required and must be a string"), nil
	}
	root, err := request.RequireInt("root_post_number")
	if err != nil {
		return mcp.NewToolResultError("root_post_number argument is required and must be a number"), nil
	}

	snap := h.engine.Snapshot()
	if snap == nil {
		return mcp.NewToolResultError("no index is loaded; run `threadsearch index` first"), nil
	}
	sub, ok := snap.Lookup(convID, root)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no subthread rooted at post %d in conversation %s", root, convID)), nil
	}
	return jsonResult(sub)
}

// IndexStats handles the index_stats tool
func (h *Handlers) IndexStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := h.engine.Snapshot()
	if snap == nil {
		return mcp.NewToolResultError("no index is loaded; run `threadsearch index` first"), nil
	}
	return jsonResult(StatsResponse{
		SnapshotID:    snap.ID,
		CreatedAt:     snap.CreatedAt.Format(time.RFC3339),
		Subthreads:    snap.Size(),
		Conversations: snap.Conversations(),
		Dimension:     snap.Dim(),
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
