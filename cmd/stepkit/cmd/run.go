package cmd

import (
	"github.com/spf13/cobra"

	"github.com/CrisisTextLine/stepkit"
	"github.com/CrisisTextLine/stepkit/suite"
)

// NewRunCommand creates the run command.
func NewRunCommand(flags *globalFlags) *cobra.Command {
	var (
		tags         string
		format       string
		artifactsDir string
	)

	runCmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Run feature files",
		Long: `Run feature files or directories. Paths default to the suite paths of
the configuration.

Examples:
  stepkit run --base-url http://localhost:8080
  stepkit run -c stepkit.yaml features/search
  stepkit run --tags @smoke --format progress`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd, flags, func(cfg *stepkit.Config) {
				if cmd.Flags().Changed("tags") {
					cfg.Suite.Tags = tags
				}
				if cmd.Flags().Changed("format") {
					cfg.Suite.Format = format
				}
				if cmd.Flags().Changed("artifacts-dir") {
					cfg.ArtifactsDir = artifactsDir
				}
				if len(args) > 0 {
					cfg.Suite.Paths = args
				}
			}, false)
			if err != nil {
				return err
			}

			s, err := suite.New(cfg, logger, suite.WithOutput(cmd.OutOrStdout()))
			if err != nil {
				return err
			}
			logger.Info("Running suite", "name", cfg.Suite.Name, "paths", cfg.Suite.Paths, "driver", cfg.Browser.Driver)
			if status := s.Run(); status != 0 {
				return ErrSuiteFailed
			}
			return nil
		},
	}

	runCmd.Flags().StringVarP(&tags, "tags", "t", "", "Tag expression selecting scenarios")
	runCmd.Flags().StringVarP(&format, "format", "f", "", "godog output format (pretty, progress, cucumber, junit)")
	runCmd.Flags().StringVar(&artifactsDir, "artifacts-dir", "", "Directory for failure snapshots")
	return runCmd
}
