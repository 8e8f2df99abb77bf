package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/melih/slipway/internal/config"
)

// NewServicesCommand creates the services command: list the catalog.
func NewServicesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "services",
		Short: "List the cataloged services",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			for _, s := range cfg.Services {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
}
