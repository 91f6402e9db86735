package mcptools

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

const shutdownTimeout = 5 * time.Second

// NewMergeMCPServer creates an MCP server with the merge tools registered:
// list_entries, merge_entries, get_settings and set_setting.
func NewMergeMCPServer(svc *MergeService, logger *slog.Logger) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "mergeframes",
		Version: version,
	}, nil)

	if logger != nil {
		server.AddReceivingMiddleware(LoggingMiddleware(logger))
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_entries",
		Description: "List the entries in the host workspace with their selection state.",
	}, svc.ListEntries)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "merge_entries",
		Description: "Merge the selected workspace entries into one new entry with one frame per conformer. At least two entries must be selected.",
	}, svc.MergeEntries)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_settings",
		Description: "Get the current merge settings (align coordinates, delete originals).",
	}, svc.GetSettings)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_setting",
		Description: "Change one merge setting. Flag is align_coordinates or delete_originals.",
	}, svc.SetSetting)

	return server
}

// RunStdio runs the MCP server on stdio transport, blocking until stdin is
// closed or the context is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the MCP server over streamable HTTP on addr until ctx is
// cancelled.
func RunHTTP(ctx context.Context, server *mcp.Server, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled. RunHTTP returns once
	// in-flight tool calls have finished or shutdownTimeout has passed.
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-shutdownDone
	return nil
}
