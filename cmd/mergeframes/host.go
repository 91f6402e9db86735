package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dusk-indust/mergeframes/internal/devhost"
	"github.com/spf13/cobra"
)

func (a *app) newHostCmd() *cobra.Command {
	var (
		listen string
		seed   string
	)

	cmd := &cobra.Command{
		Use:   "host",
		Short: "Run a local development host",
		Long: `Run an in-memory development host that serves the host JSON-RPC methods
and the plugin event stream. Entries can be preloaded from a JSON seed file.

Examples:
  mergeframes host --seed ligands.json
  mergeframes host --listen 127.0.0.1:9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("listen") {
				listen = a.cfg.ListenAddr
			}
			if !cmd.Flags().Changed("seed") {
				seed = a.cfg.SeedFile
			}
			return a.runHost(cmd.Context(), listen, seed)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "address to listen on (default from config)")
	cmd.Flags().StringVar(&seed, "seed", "", "JSON file with entries to preload")
	return cmd
}

func (a *app) runHost(ctx context.Context, listen, seedPath string) error {
	store := devhost.NewStore()
	if seedPath != "" {
		seed, err := devhost.LoadSeedFile(seedPath)
		if err != nil {
			return err
		}
		ids := seed.Apply(store)
		a.logger.Info("workspace seeded", "file", seedPath, "entries", len(ids))
	}

	srv := devhost.NewServer(store, devhost.WithLogger(a.logger))
	if err := srv.Start(ctx, listen); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "development host listening on http://%s\n", srv.Addr())

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
