// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Serves subthread search to LLM agents over stdio
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/harper/threadsearch/internal/corpus"
	"github.com/harper/threadsearch/internal/mcp"
	"github.com/harper/threadsearch/internal/retrieval"
)

var (
	mcpCorpus string
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs threadsearch as an MCP (Model Context Protocol) server over
stdio. The saved snapshot is served as is; pass --corpus to rebuild
from a post export at startup instead.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by an MCP client)
  threadsearch mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "threadsearch": {
  #       "command": "threadsearch",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	cmd.Flags().StringVar(&mcpCorpus, "corpus", "", "Rebuild from this post export on startup")

	return cmd
}

func runMCP(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.log.Sync()

	engine, err := a.engine()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := loadServingSnapshot(ctx, a, engine); err != nil {
		return err
	}

	server := mcpserver.NewMCPServer(
		"threadsearch",
		versionInfo.Version,
		mcpserver.WithToolCapabilities(false),
	)
	mcp.RegisterTools(server, engine, a.cfg.TopK, a.log)

	a.log.Info("MCP server starting on stdio")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}
	return nil
}

// loadServingSnapshot publishes either a fresh build from --corpus or the
// saved snapshot. A missing snapshot is not fatal; tools report it.
func loadServingSnapshot(ctx context.Context, a *app, engine *retrieval.Engine) error {
	if mcpCorpus != "" {
		convs, err := corpus.LoadFile(mcpCorpus)
		if err != nil {
			return err
		}
		if _, err := engine.Rebuild(ctx, convs); err != nil {
			return fmt.Errorf("building index: %w", err)
		}
		return nil
	}

	db, store, err := a.openStore()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	snap, err := store.Load(ctx)
	if errors.Is(err, retrieval.ErrNoSnapshot) {
		a.log.Warn("no saved snapshot; tools will report an empty index until one is built", "path", a.cfg.DBPath)
		return nil
	}
	if err != nil {
		return err
	}
	engine.Publish(snap)
	a.log.Info("snapshot loaded", "snapshot_id", snap.ID, "subthreads", snap.Size())
	return nil
}
