package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	gitadapter "github.com/melih/slipway/internal/adapters/git"
	"github.com/melih/slipway/internal/config"
	"github.com/melih/slipway/internal/core/domain"
	"github.com/melih/slipway/internal/core/selector"
)

// NewSelectCommand creates the select command: resolve a selection and
// print it without running any stage.
func NewSelectCommand(opts *RootOptions) *cobra.Command {
	var (
		mode    string
		baseRef string
	)

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Show which services a run would process",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}

			parsed := domain.ParseMode(mode)
			var changed []string
			if parsed.Kind == domain.ModeAuto {
				ref := baseRef
				if ref == "" {
					ref = cfg.BaseRef
				}
				diff := gitadapter.NewDiffProvider(opts.RepoPath, cfg.SourceRoot)
				changed, err = diff.ChangedPaths(cmd.Context(), ref)
				if err != nil {
					return err
				}
			}

			services, err := selector.Select(parsed, cfg.Catalog(), changed)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(services) == 0 {
				fmt.Fprintln(out, "no services selected")
				return nil
			}
			for _, s := range services {
				fmt.Fprintln(out, s)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "auto", "selection mode (all, none, auto or a service name)")
	cmd.Flags().StringVar(&baseRef, "base", "", "base reference for auto mode (default from config)")

	return cmd
}
