package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/CrisisTextLine/stepkit/suite"
)

// NewStepsCommand creates the steps command listing the step vocabulary.
func NewStepsCommand(flags *globalFlags) *cobra.Command {
	var asYAML bool

	stepsCmd := &cobra.Command{
		Use:   "steps",
		Short: "List the step expressions of every enabled context",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd, flags, nil, true)
			if err != nil {
				return err
			}
			s, err := suite.New(cfg, logger)
			if err != nil {
				return err
			}
			vocabulary, err := s.Vocabulary()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asYAML {
				return yaml.NewEncoder(out).Encode(vocabulary)
			}
			for i, group := range vocabulary {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "%s:\n", group.Context)
				for _, step := range group.Steps {
					fmt.Fprintf(out, "  %s\n", step)
				}
			}
			return nil
		},
	}

	stepsCmd.Flags().BoolVar(&asYAML, "yaml", false, "Print the vocabulary as YAML")
	return stepsCmd
}
