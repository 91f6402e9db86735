package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dusk-indust/mergeframes/internal/config"
	"github.com/spf13/cobra"
)

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(os.Stdout)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// app carries the global flags and everything PersistentPreRunE sets up.
type app struct {
	out io.Writer

	configDir string
	hostURL   string
	logLevel  string
	logFile   string
	verbose   bool

	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	cmd := &cobra.Command{
		Use:   "mergeframes",
		Short: "Merge selected workspace entries into one multi-frame entry",
		Long: `mergeframes is a host plugin that merges the selected workspace entries
into a single new entry. Every conformer of every source molecule becomes one
frame of the merged entry, in selection order.

Use "serve" to attach to a running host, "host" to start a local development
host, and "mcp" to drive merges from an MCP client.`,
		Version:            version,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}
	cmd.SetOut(out)

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.configDir, "config-dir", ".", "directory containing mergeframes.yml")
	pf.StringVar(&a.hostURL, "host-url", "", "host JSON-RPC endpoint (overrides config)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	pf.StringVar(&a.logFile, "log-file", "", "also write JSON logs to this file (overrides config)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "print merge progress")

	cmd.AddCommand(a.newServeCmd())
	cmd.AddCommand(a.newMCPCmd())
	cmd.AddCommand(a.newHostCmd())
	cmd.AddCommand(a.newTriggerCmd())
	cmd.AddCommand(a.newManifestCmd())

	return cmd
}

// setup loads the config file, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configDir)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("host-url") {
		cfg.HostURL = a.hostURL
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("log-file") {
		cfg.LogFile = a.logFile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	a.logger, a.closeLog = config.SetupLogger(cfg.LogFile, level)
	a.cfg = cfg
	return nil
}

func (a *app) teardown(_ *cobra.Command, _ []string) error {
	if a.closeLog == nil {
		return nil
	}
	return a.closeLog()
}
