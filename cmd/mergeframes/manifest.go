package main

import (
	"github.com/dusk-indust/mergeframes/internal/plugin"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (a *app) newManifestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "manifest",
		Short: "Print the plugin registration metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := yaml.NewEncoder(a.out)
			defer enc.Close()
			return enc.Encode(plugin.DefaultManifest(version))
		},
	}
}
