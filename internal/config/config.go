// Package config loads the robot configuration from YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/me/cmdbot/internal/input"
	"github.com/me/cmdbot/internal/logging"
	"github.com/me/cmdbot/internal/trigger"
	"github.com/me/cmdbot/pkg/model"
)

// RobotConfig holds configuration for one robot run.
type RobotConfig struct {
	Period            time.Duration `yaml:"period"`              // control loop period (default 20ms)
	MaxTicks          uint64        `yaml:"max_ticks"`           // stop after this many ticks; 0 runs until interrupted
	Mode              string        `yaml:"mode"`                // starting mode (default disabled)
	LogLevel          string        `yaml:"log_level"`           // debug, info, warn, error
	LogFormat         string        `yaml:"log_format"`          // text, json
	LogFile           string        `yaml:"log_file"`            // rotate logs into this file instead of stderr
	DashboardAddr     string        `yaml:"dashboard_addr"`      // empty disables the dashboard API
	DashboardSecret   string        `yaml:"dashboard_secret"`    // HS256 secret guarding dashboard writes
	DatalogPath       string        `yaml:"datalog_path"`        // SQLite telemetry log; empty disables it
	DatalogBucket     string        `yaml:"datalog_bucket"`      // S3 bucket the log is uploaded to after a run
	DatalogPrefix     string        `yaml:"datalog_prefix"`      // S3 key prefix
	AWSRegion         string        `yaml:"aws_region"`          // empty uses the AWS environment
	Auto              string        `yaml:"auto"`                // default autonomous routine
	HealthCheckRepeat bool          `yaml:"health_check_repeat"` // keep probing after the first pass
	Bindings          []Binding     `yaml:"bindings"`
	ScriptFile        string        `yaml:"script_file"` // resolved relative to the config file
	Script            *input.Script `yaml:"script"`
}

// Binding attaches a named command to a condition expression. Exactly one
// of the edge fields must be set.
type Binding struct {
	When          string `yaml:"when"`
	OnTrue        string `yaml:"on_true,omitempty"`
	OnFalse       string `yaml:"on_false,omitempty"`
	WhileTrue     string `yaml:"while_true,omitempty"`
	WhileFalse    string `yaml:"while_false,omitempty"`
	ToggleOnTrue  string `yaml:"toggle_on_true,omitempty"`
	ToggleOnFalse string `yaml:"toggle_on_false,omitempty"`
}

// Action returns the edge and command name of the binding.
func (b Binding) Action() (trigger.Edge, string, error) {
	var edge trigger.Edge
	var name string
	n := 0
	for _, c := range []struct {
		edge trigger.Edge
		name string
	}{
		{trigger.OnTrue, b.OnTrue},
		{trigger.OnFalse, b.OnFalse},
		{trigger.WhileTrue, b.WhileTrue},
		{trigger.WhileFalse, b.WhileFalse},
		{trigger.ToggleOnTrue, b.ToggleOnTrue},
		{trigger.ToggleOnFalse, b.ToggleOnFalse},
	} {
		if c.name != "" {
			edge, name = c.edge, c.name
			n++
		}
	}
	switch n {
	case 0:
		return "", "", fmt.Errorf("binding %q names no command", b.When)
	case 1:
		return edge, name, nil
	}
	return "", "", fmt.Errorf("binding %q sets %d edges, want one", b.When, n)
}

// DefaultRobotConfig returns the defaults used when no file is given.
func DefaultRobotConfig() RobotConfig {
	return RobotConfig{
		Period:    20 * time.Millisecond,
		Mode:      string(model.ModeDisabled),
		LogLevel:  "info",
		LogFormat: "text",
		Auto:      "b",
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (RobotConfig, error) {
	cfg := DefaultRobotConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.ScriptFile != "" {
		if cfg.Script != nil {
			return cfg, fmt.Errorf("config %s: script and script_file are exclusive", path)
		}
		sf := cfg.ScriptFile
		if !filepath.IsAbs(sf) {
			sf = filepath.Join(filepath.Dir(path), sf)
		}
		if cfg.Script, err = input.LoadScript(sf); err != nil {
			return cfg, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// envOverrides are the settings that may come from the environment. Unset
// variables leave the loaded value alone.
type envOverrides struct {
	Period          time.Duration `env:"CMDBOT_PERIOD"`
	Mode            string        `env:"CMDBOT_MODE"`
	LogLevel        string        `env:"CMDBOT_LOG_LEVEL"`
	LogFormat       string        `env:"CMDBOT_LOG_FORMAT"`
	LogFile         string        `env:"CMDBOT_LOG_FILE"`
	DashboardAddr   string        `env:"CMDBOT_DASHBOARD_ADDR"`
	DashboardSecret string        `env:"CMDBOT_DASHBOARD_SECRET"`
	DatalogPath     string        `env:"CMDBOT_DATALOG_PATH"`
	DatalogBucket   string        `env:"CMDBOT_DATALOG_BUCKET"`
	DatalogPrefix   string        `env:"CMDBOT_DATALOG_PREFIX"`
	Auto            string        `env:"CMDBOT_AUTO"`
}

// ApplyEnv overlays CMDBOT_* environment variables on c.
func ApplyEnv(c *RobotConfig) error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if o.Period != 0 {
		c.Period = o.Period
	}
	for _, f := range []struct {
		dst *string
		val string
	}{
		{&c.Mode, o.Mode},
		{&c.LogLevel, o.LogLevel},
		{&c.LogFormat, o.LogFormat},
		{&c.LogFile, o.LogFile},
		{&c.DashboardAddr, o.DashboardAddr},
		{&c.DashboardSecret, o.DashboardSecret},
		{&c.DatalogPath, o.DatalogPath},
		{&c.DatalogBucket, o.DatalogBucket},
		{&c.DatalogPrefix, o.DatalogPrefix},
		{&c.Auto, o.Auto},
	} {
		if f.val != "" {
			*f.dst = f.val
		}
	}
	return nil
}

// Validate reports every invalid field at once.
func (c RobotConfig) Validate() error {
	var errs model.ValidationErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, model.FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.Period <= 0 {
		add("period", "must be positive, got %s", c.Period)
	}
	if _, ok := model.ParseMode(c.Mode); !ok {
		add("mode", "unknown mode %q", c.Mode)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		add("log_level", "%v", err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		add("log_format", "must be text or json, got %q", c.LogFormat)
	}
	if c.DatalogBucket != "" && c.DatalogPath == "" {
		add("datalog_bucket", "requires datalog_path")
	}
	for i, b := range c.Bindings {
		field := fmt.Sprintf("bindings[%d]", i)
		if b.When == "" {
			add(field+".when", "condition is required")
		}
		if _, _, err := b.Action(); err != nil {
			add(field, "%v", err)
		}
	}
	if c.Script != nil {
		for i, st := range c.Script.Steps {
			if st.Mode == "" {
				continue
			}
			if _, ok := model.ParseMode(st.Mode); !ok {
				add(fmt.Sprintf("script.steps[%d].mode", i), "unknown mode %q", st.Mode)
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
