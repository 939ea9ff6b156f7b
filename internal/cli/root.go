package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/me/cmdbot/internal/config"
	"github.com/me/cmdbot/internal/logging"
	"github.com/spf13/cobra"
)

var (
	flagConfig    string
	flagServer    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger    *slog.Logger
	logCloser io.Closer
	client    *Client
	cfg       config.RobotConfig
)

// defaultServer returns the dashboard URL, checking CMDBOT_SERVER first.
func defaultServer() string {
	if s := os.Getenv("CMDBOT_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

// NewRootCmd creates the root cobra command for the cmdbot CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cmdbot",
		Short: "cmdbot: command-based robot scheduler",
		Long: `cmdbot runs a simulated command-based robot: subsystems, commands,
triggers and a health check on a fixed-period control loop, with an
optional dashboard API and SQLite telemetry log.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			closeLog()
			cfg = config.DefaultRobotConfig()
			if flagConfig != "" {
				loaded, err := config.Load(flagConfig)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if err := config.ApplyEnv(&cfg); err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = flagLogLevel
			}
			if cmd.Flags().Changed("log-format") {
				cfg.LogFormat = flagLogFormat
			}
			if flagDebug {
				cfg.LogLevel = "debug"
			}
			l, closer, err := logging.New(logging.Options{
				Level:  cfg.LogLevel,
				Format: cfg.LogFormat,
				Writer: cmd.ErrOrStderr(),
				File:   cfg.LogFile,
			})
			if err != nil {
				return err
			}
			logger, logCloser = l, closer
			client = NewClient(flagServer, logger)
			client.Secret = cfg.DashboardSecret
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			closeLog()
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Robot config file (YAML)")
	root.PersistentFlags().StringVar(&flagServer, "server", defaultServer(), "Dashboard URL for remote commands (or CMDBOT_SERVER env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newRunCmd(),
		newCheckCmd(),
		newAutosCmd(),
		newDatalogCmd(),
		newStatusCmd(),
		newModeCmd(),
		newSelectAutoCmd(),
	)

	return root
}

// Execute runs the CLI and releases the log file however the command ends.
func Execute(ctx context.Context) error {
	defer closeLog()
	return NewRootCmd().ExecuteContext(ctx)
}

// closeLog closes the log file opened for the current command, if any.
func closeLog() {
	if logCloser == nil {
		return
	}
	if err := logCloser.Close(); err != nil {
		fmt.Fprintln(os.Stderr, "close log file:", err)
	}
	logCloser = nil
}

// simulatedTime renders a tick count as elapsed robot time.
func simulatedTime(ticks uint64, period time.Duration) string {
	return fmt.Sprint(time.Duration(ticks) * period)
}
