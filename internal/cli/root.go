// Package cli implements the slipway command line: one-shot pipeline
// runs without the HTTP surface.
package cli

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	RepoPath   string
	Verbose    bool
}

// NewRootCommand creates the root command for the slipway CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "slipway",
		Short: "Change-driven container pipeline driver",
		Long:  "Slipway builds, scans and publishes the container services a change actually touched.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.Verbose {
				log.SetLevel(log.DebugLevel)
			}
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "slipway.yaml", "path to the pipeline configuration")
	cmd.PersistentFlags().StringVar(&opts.RepoPath, "repo", ".", "repository checkout to operate on")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewSelectCommand(opts))
	cmd.AddCommand(NewServicesCommand(opts))

	return cmd
}
