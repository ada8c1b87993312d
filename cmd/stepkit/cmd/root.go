package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CrisisTextLine/stepkit"
)

// Define static errors
var (
	ErrSuiteFailed      = errors.New("suite failed")
	ErrUnexpectedTarget = errors.New("flags can only feed a stepkit config")
)

// placeholderBaseURL lets commands that never open a page run without a
// configured site.
const placeholderBaseURL = "http://localhost"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configFile string
	profile    string
	baseURL    string
	driver     string
	verbose    bool
}

// NewRootCommand creates the stepkit command with its subcommands.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "stepkit",
		Short: "Browser and CMS behaviour suites",
		Long: `stepkit runs Gherkin features against a site with a shared browser
session and content management backend.

Configuration is read from a YAML or TOML file, then STEPKIT_ environment
variables, then STEPKIT_<PROFILE>_ variables, then command line flags.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "Configuration file (.yaml, .yml or .toml)")
	root.PersistentFlags().StringVar(&flags.profile, "profile", "", "Environment profile, read from STEPKIT_<PROFILE>_ variables")
	root.PersistentFlags().StringVar(&flags.baseURL, "base-url", "", "Base URL of the site under test")
	root.PersistentFlags().StringVar(&flags.driver, "driver", "", "Browser driver: static or chrome")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Debug logging, including configuration feeding")

	root.AddCommand(NewRunCommand(flags))
	root.AddCommand(NewStepsCommand(flags))
	root.AddCommand(NewConfigCommand(flags))
	return root
}

// flagFeeder applies flags set on the command line over every other
// configuration source.
type flagFeeder struct {
	cmd      *cobra.Command
	global   *globalFlags
	apply    func(cfg *stepkit.Config)
	fallback bool
}

func (f *flagFeeder) Priority() int { return 300 }

func (f *flagFeeder) Feed(structure interface{}) error {
	cfg, ok := structure.(*stepkit.Config)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnexpectedTarget, structure)
	}
	if f.changed("base-url") {
		cfg.BaseURL = f.global.baseURL
	}
	if f.changed("driver") {
		cfg.Browser.Driver = f.global.driver
	}
	if f.changed("verbose") {
		cfg.Log.Verbose = f.global.verbose
		if f.global.verbose {
			cfg.Log.Level = "debug"
		}
	}
	if f.apply != nil {
		f.apply(cfg)
	}
	if f.fallback && cfg.BaseURL == "" {
		cfg.BaseURL = placeholderBaseURL
	}
	return nil
}

func (f *flagFeeder) changed(name string) bool {
	flag := f.cmd.Flags().Lookup(name)
	return flag != nil && flag.Changed
}

// loadConfig reads the configuration of cmd. apply sets the command's own
// flags; fallback fills in a placeholder base URL.
func loadConfig(cmd *cobra.Command, flags *globalFlags, apply func(cfg *stepkit.Config), fallback bool) (*stepkit.Config, stepkit.Logger, error) {
	var trace stepkit.Logger
	if flags.verbose {
		trace = stepkit.NewLogger(stepkit.LogConfig{Level: "debug"}, cmd.ErrOrStderr())
	}

	feeder := &flagFeeder{cmd: cmd, global: flags, apply: apply, fallback: fallback}
	cfg, err := stepkit.LoadConfig(flags.configFile, flags.profile, trace, feeder)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, stepkit.NewLogger(cfg.Log, cmd.ErrOrStderr()), nil
}
