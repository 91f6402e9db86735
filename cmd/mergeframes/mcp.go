package main

import (
	"github.com/dusk-indust/mergeframes/internal/host"
	"github.com/dusk-indust/mergeframes/internal/mcptools"
	"github.com/dusk-indust/mergeframes/internal/merge"
	"github.com/dusk-indust/mergeframes/internal/settings"
	"github.com/spf13/cobra"
)

func (a *app) newMCPCmd() *cobra.Command {
	var httpAddr string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Expose the merge workflow as MCP tools",
		Long: `Run an MCP server exposing list_entries, merge_entries, get_settings and
set_setting against the configured host. The server speaks stdio unless
--http is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := host.NewClient(a.cfg.HostURL, host.WithTimeout(a.cfg.RequestTimeout))
			wf, err := merge.NewWorkflow(client, a.cfg.MergeOptions(), merge.WithLogger(a.logger))
			if err != nil {
				return err
			}
			svc := mcptools.NewMergeService(client, wf, settings.New(a.cfg.SettingsDefaults()))
			server := mcptools.NewMergeMCPServer(svc, a.logger)

			if httpAddr != "" {
				a.logger.Info("serving MCP tools", "addr", httpAddr)
				return mcptools.RunHTTP(cmd.Context(), server, httpAddr)
			}
			return mcptools.RunStdio(cmd.Context(), server)
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http", "", "serve streamable HTTP on this address instead of stdio")
	return cmd
}
