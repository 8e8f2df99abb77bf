package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/melih/slipway/internal/adapters/docker"
	gitadapter "github.com/melih/slipway/internal/adapters/git"
	"github.com/melih/slipway/internal/config"
	"github.com/melih/slipway/internal/core/domain"
	"github.com/melih/slipway/internal/core/pipeline"
)

// NewRunCommand creates the run command: execute the full pipeline for
// the selected services.
func NewRunCommand(opts *RootOptions) *cobra.Command {
	var (
		mode    string
		baseRef string
		tag     string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build, scan and publish the selected services",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}

			builder, err := docker.NewBuilder()
			if err != nil {
				return err
			}
			scanner, err := docker.NewScanRunner()
			if err != nil {
				return err
			}
			publisher, err := docker.NewPublisher()
			if err != nil {
				return err
			}
			diff := gitadapter.NewDiffProvider(opts.RepoPath, cfg.SourceRoot)

			orc := pipeline.New(cfg, opts.RepoPath, diff, builder, scanner, publisher)
			run, err := orc.Execute(cmd.Context(), domain.ParseMode(mode), baseRef, tag)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch run.Status {
			case domain.RunNoWork:
				fmt.Fprintln(out, "no services selected, nothing to do")
				return nil
			case domain.RunFailed:
				printStages(out, run)
				return fmt.Errorf("run %s failed: %s", run.ID, run.Error)
			default:
				printStages(out, run)
				fmt.Fprintf(out, "run %s succeeded (%d services)\n", run.ID, len(run.Services))
				return nil
			}
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "auto", "selection mode (all, none, auto or a service name)")
	cmd.Flags().StringVar(&baseRef, "base", "", "base reference for auto mode (default from config)")
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "image tag (default derived from the run id)")

	return cmd
}

func printStages(out io.Writer, run *domain.Run) {
	for _, st := range run.Stages {
		status := "ok"
		if !st.Passed {
			status = "FAILED"
		}
		name := string(st.Stage)
		if st.Scanner != "" {
			name = fmt.Sprintf("%s(%s)", st.Stage, st.Scanner)
		}
		fmt.Fprintf(out, "%-14s %-18s %s\n", st.Service, name, status)
	}
}
