package stepkit

import "time"

// Config is the configuration of a step suite run.
type Config struct {
	// BaseURL is the site under test; relative paths in steps resolve against it.
	BaseURL string `json:"base_url" yaml:"base_url" toml:"base_url" env:"BASE_URL" validate:"required,url" desc:"Base URL of the site under test"`

	// FilesPath is the directory fixture files are read from by file steps.
	FilesPath string `json:"files_path" yaml:"files_path" toml:"files_path" env:"FILES_PATH" desc:"Directory holding fixture files"`

	// ArtifactsDir receives HTML snapshots of failed steps.
	ArtifactsDir string `json:"artifacts_dir" yaml:"artifacts_dir" toml:"artifacts_dir" env:"ARTIFACTS_DIR" default:"/tmp/artifacts/html" validate:"required" desc:"Directory for failure snapshots"`

	// Contexts limits the step groups that are wired. Empty enables all.
	Contexts []string `json:"contexts" yaml:"contexts" toml:"contexts" env:"CONTEXTS" desc:"Enabled step groups"`

	Browser BrowserConfig `json:"browser" yaml:"browser" toml:"browser"`
	Suite   SuiteConfig   `json:"suite" yaml:"suite" toml:"suite"`
	CMS     CMSConfig     `json:"cms" yaml:"cms" toml:"cms"`
	Log     LogConfig     `json:"log" yaml:"log" toml:"log"`
}

// BrowserConfig selects and tunes the browser driver.
type BrowserConfig struct {
	// Driver is "static" (HTTP only, no JavaScript) or "chrome".
	Driver     string `json:"driver" yaml:"driver" toml:"driver" env:"BROWSER_DRIVER" default:"static" validate:"oneof=static chrome" desc:"Browser driver"`
	Headless   bool   `json:"headless" yaml:"headless" toml:"headless" env:"BROWSER_HEADLESS" default:"true"`
	NoSandbox  bool   `json:"no_sandbox" yaml:"no_sandbox" toml:"no_sandbox" env:"BROWSER_NO_SANDBOX" default:"true"`
	DisableGPU bool   `json:"disable_gpu" yaml:"disable_gpu" toml:"disable_gpu" env:"BROWSER_DISABLE_GPU" default:"true"`
	UserAgent  string `json:"user_agent" yaml:"user_agent" toml:"user_agent" env:"BROWSER_USER_AGENT" default:"stepkit/1.0"`
	// ExecPath overrides the Chrome binary.
	ExecPath string        `json:"exec_path" yaml:"exec_path" toml:"exec_path" env:"CHROME_BIN"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout" toml:"timeout" env:"BROWSER_TIMEOUT" default:"30s" desc:"Per-operation browser timeout"`

	WindowWidth  int `json:"window_width" yaml:"window_width" toml:"window_width" env:"WINDOW_WIDTH" default:"1024" validate:"min=1"`
	WindowHeight int `json:"window_height" yaml:"window_height" toml:"window_height" env:"WINDOW_HEIGHT" default:"768" validate:"min=1"`
	// ResizeOnScenarioStart resets the window to the default size before every scenario.
	ResizeOnScenarioStart bool `json:"resize_on_scenario_start" yaml:"resize_on_scenario_start" toml:"resize_on_scenario_start" env:"RESIZE_ON_SCENARIO_START" default:"true"`
}

// SuiteConfig is passed to the godog runner.
type SuiteConfig struct {
	Name   string   `json:"name" yaml:"name" toml:"name" env:"SUITE_NAME" default:"stepkit"`
	Paths  []string `json:"paths" yaml:"paths" toml:"paths" env:"SUITE_PATHS" default:"features"`
	Tags   string   `json:"tags" yaml:"tags" toml:"tags" env:"SUITE_TAGS"`
	Format string   `json:"format" yaml:"format" toml:"format" env:"SUITE_FORMAT" default:"pretty"`
	Strict bool     `json:"strict" yaml:"strict" toml:"strict" env:"SUITE_STRICT" default:"true"`
	// StopOnFailure stops the run at the first failed scenario.
	StopOnFailure bool `json:"stop_on_failure" yaml:"stop_on_failure" toml:"stop_on_failure" env:"SUITE_STOP_ON_FAILURE"`
}

// CMSConfig selects the content management backend.
type CMSConfig struct {
	Backend string `json:"backend" yaml:"backend" toml:"backend" env:"CMS_BACKEND" default:"memory" validate:"oneof=memory"`
	// Modules are the modules reported as enabled by the memory backend.
	Modules []string `json:"modules" yaml:"modules" toml:"modules" env:"CMS_MODULES"`
	// TrackShortcutEntities also records node, user and term shortcut
	// creations in the cleanup ledger.
	TrackShortcutEntities bool `json:"track_shortcut_entities" yaml:"track_shortcut_entities" toml:"track_shortcut_entities" env:"CMS_TRACK_SHORTCUT_ENTITIES"`
}

// LogConfig configures the suite logger.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" toml:"level" env:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format string `json:"format" yaml:"format" toml:"format" env:"LOG_FORMAT" default:"text" validate:"oneof=text json"`
	// Verbose traces configuration feeding.
	Verbose bool `json:"verbose" yaml:"verbose" toml:"verbose" env:"LOG_VERBOSE"`
}

// ContextEnabled reports whether the step group name should be wired.
func (c *Config) ContextEnabled(name string) bool {
	if len(c.Contexts) == 0 {
		return true
	}
	for _, enabled := range c.Contexts {
		if enabled == name {
			return true
		}
	}
	return false
}
