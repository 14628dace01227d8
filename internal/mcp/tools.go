// ABOUTME: MCP tool definitions and registration for the threadsearch server
// ABOUTME: Exposes subthread retrieval and index inspection to LLM agents
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/threadsearch/internal/logging"
	"github.com/harper/threadsearch/internal/retrieval"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, engine *retrieval.Engine, defaultTopK int, log *logging.Logger) *Handlers {
	handlers := NewHandlers(engine, defaultTopK, log)

	// 1. search_subthreads - ranked retrieval over the published snapshot
	server.AddTool(mcp.Tool{
		Name:        "search_subthreads",
		Description: "Find the forum discussion subthreads most relevant to a natural-language query. Each result is a root post with all of its replies, ranked by cosine similarity.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural-language question or search text",
				},
				"top_k": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of subthreads to return",
					"default":     defaultTopK,
				},
			},
			Required: []string{"query"},
		},
	}, handlers.SearchSubthreads)

	// 2. get_subthread - fetch one indexed subthread by identity
	server.AddTool(mcp.Tool{
		Name:        "get_subthread",
		Description: "Get the full text and post numbers of one indexed subthread.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"conversation_id": map[string]interface{}{
					"type":        "string",
					"description": "Conversation (topic) identifier",
				},
				"root_post_number": map[string]interface{}{
					"type":        "number",
					"description": "Post number of the subthread root",
				},
			},
			Required: []string{"conversation_id", "root_post_number"},
		},
	}, handlers.GetSubthread)

	// 3. index_stats - describe the published snapshot
	server.AddTool(mcp.Tool{
		Name:        "index_stats",
		Description: "Report the size, embedding dimension and build id of the index currently being served.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.IndexStats)

	return handlers
}
