package main

import (
	"context"
	"fmt"

	"github.com/dusk-indust/mergeframes/internal/host"
	"github.com/dusk-indust/mergeframes/internal/mcptools"
	"github.com/dusk-indust/mergeframes/internal/merge"
	"github.com/dusk-indust/mergeframes/internal/plugin"
	"github.com/dusk-indust/mergeframes/internal/settings"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func (a *app) newServeCmd() *cobra.Command {
	var (
		align   bool
		del     bool
		mcpAddr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Attach to the host and handle plugin events",
		Long: `Attach to the host, label the plugin buttons and handle run, settings and
toggle events until interrupted or the host closes the event stream.

Examples:
  mergeframes serve --host-url http://127.0.0.1:8765
  mergeframes serve --align --delete
  mergeframes serve --mcp-addr 127.0.0.1:8766`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defaults := a.cfg.SettingsDefaults()
			if cmd.Flags().Changed("align") {
				defaults.AlignCoordinates = align
			}
			if cmd.Flags().Changed("delete") {
				defaults.DeleteOriginals = del
			}
			return a.runServe(cmd.Context(), defaults, mcpAddr)
		},
	}

	cmd.Flags().BoolVar(&align, "align", false, "start with Align Coordinates on")
	cmd.Flags().BoolVar(&del, "delete", false, "start with Delete Entries on")
	cmd.Flags().StringVar(&mcpAddr, "mcp-addr", "", "also serve the MCP tools over HTTP on this address")
	return cmd
}

func (a *app) runServe(ctx context.Context, defaults settings.Snapshot, mcpAddr string) error {
	client := host.NewClient(a.cfg.HostURL, host.WithTimeout(a.cfg.RequestTimeout))
	state := settings.New(defaults)

	reporter := merge.NewProgressReporter()
	wf, err := merge.NewWorkflow(client, a.cfg.MergeOptions(),
		merge.WithLogger(a.logger),
		merge.WithProgress(reporter.Emit),
	)
	if err != nil {
		return err
	}
	session := plugin.NewSession(client, wf, state, plugin.WithLogger(a.logger))

	a.logger.Info("attaching to host", "url", client.Endpoint(),
		"align", defaults.AlignCoordinates, "delete", defaults.DeleteOriginals)

	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for ev := range reporter.Subscribe() {
			if a.verbose {
				fmt.Fprintln(a.out, merge.FormatProgress(ev))
			}
		}
	}()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return session.Run(ctx)
	})

	if mcpAddr != "" {
		svc := mcptools.NewMergeService(client, wf, state)
		server := mcptools.NewMergeMCPServer(svc, a.logger)
		g.Go(func() error {
			a.logger.Info("serving MCP tools", "addr", mcpAddr)
			return mcptools.RunHTTP(ctx, server, mcpAddr)
		})
	}

	// The session and the MCP handlers both emit through wf; close only after
	// both have returned.
	err = g.Wait()
	reporter.Close()
	<-printed
	return err
}
