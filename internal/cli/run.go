package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/me/cmdbot/internal/input"
	"github.com/me/cmdbot/internal/robot"
	"github.com/me/cmdbot/internal/scheduler"
	"github.com/me/cmdbot/internal/server"
	"github.com/me/cmdbot/internal/telemetry"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var (
		period     time.Duration
		maxTicks   uint64
		mode       string
		dashboard  string
		datalog    string
		auto       string
		scriptPath string
		bucket     string
		watch      bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the robot control loop",
		Long: `Runs the control loop at the configured period until interrupted or
until --max-ticks ticks have run. A script replays operator input, mode
changes and device faults at given ticks.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("period") {
				cfg.Period = period
			}
			if flags.Changed("max-ticks") {
				cfg.MaxTicks = maxTicks
			}
			if flags.Changed("mode") {
				cfg.Mode = mode
			}
			if flags.Changed("dashboard") {
				cfg.DashboardAddr = dashboard
			}
			if flags.Changed("datalog") {
				cfg.DatalogPath = datalog
			}
			if flags.Changed("datalog-bucket") {
				cfg.DatalogBucket = bucket
			}
			if flags.Changed("auto") {
				cfg.Auto = auto
			}
			if scriptPath != "" {
				sc, err := input.LoadScript(scriptPath)
				if err != nil {
					return err
				}
				cfg.Script = sc
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runRobot(ctx, cmd, watch)
		},
	}

	f := cmd.Flags()
	f.DurationVar(&period, "period", 20*time.Millisecond, "Control loop period")
	f.Uint64Var(&maxTicks, "max-ticks", 0, "Stop after this many ticks (0 = until interrupted)")
	f.StringVar(&mode, "mode", "disabled", "Starting mode (disabled, autonomous, teleop, test)")
	f.StringVar(&dashboard, "dashboard", "", "Dashboard listen address, e.g. :8080")
	f.StringVar(&datalog, "datalog", "", "SQLite telemetry log path")
	f.StringVar(&bucket, "datalog-bucket", "", "Upload the telemetry log to this S3 bucket after the run")
	f.StringVar(&auto, "auto", "b", "Default autonomous routine")
	f.StringVar(&scriptPath, "script", "", "Input script (YAML)")
	f.BoolVar(&watch, "watch", false, "Reload --config on change and apply its auto selection")

	return cmd
}

func runRobot(ctx context.Context, cmd *cobra.Command, watch bool) error {
	opts := robot.Options{Logger: logger}

	var rec *telemetry.Recorder
	if cfg.DatalogPath != "" {
		var err error
		rec, err = telemetry.OpenRecorder(ctx, cfg.DatalogPath, logger)
		if err != nil {
			return err
		}
		opts.Publisher = telemetry.OnChange(rec)
	}

	bot, err := robot.New(cfg, opts)
	if err != nil {
		if rec != nil {
			rec.Close()
		}
		return err
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	p := pool.New().WithContext(runCtx).WithCancelOnError()
	if cfg.DashboardAddr != "" {
		srv := server.New(bot.Table(), bot, logger, server.WithTokenSecret(cfg.DashboardSecret))
		p.Go(func(ctx context.Context) error {
			return srv.ListenAndServe(ctx, cfg.DashboardAddr)
		})
	}
	if watch && flagConfig == "" {
		logger.Warn("--watch needs --config; not watching")
	} else if watch {
		p.Go(func(ctx context.Context) error {
			return watchConfig(ctx, flagConfig, bot)
		})
	}

	loop := scheduler.NewLoop(scheduler.StepFunc(bot.Step),
		scheduler.Config{Period: cfg.Period, MaxTicks: cfg.MaxTicks}, logger)
	p.Go(func(ctx context.Context) error {
		// The loop ending stops everything else.
		defer cancelRun()
		err := loop.Start(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	loopErr := p.Wait()

	if rec != nil {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rec.Flush(flushCtx); err != nil {
			logger.Error("flush telemetry log", "error", err)
		}
		cancel()
		if err := rec.Close(); err != nil {
			logger.Error("close telemetry log", "error", err)
		} else if cfg.DatalogBucket != "" {
			uploadLog(ctx, cmd, cfg.DatalogPath, rec.Session())
		}
	}

	st := bot.Status()
	lastErr, errCount := bot.LastError()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Ticks:    %d (%s simulated, %d overruns)\n", loop.Ticks(), simulatedTime(loop.Ticks(), cfg.Period), loop.Overruns())
	fmt.Fprintf(out, "Mode:     %s\n", st.Mode)
	fmt.Fprintf(out, "Active:   %v\n", st.Active)
	fmt.Fprintf(out, "Hardware: %s\n", bot.Report().Summary())
	if errCount > 0 {
		fmt.Fprintf(out, "Errors:   %d (last: %s)\n", errCount, lastErr)
	}
	if rec != nil {
		fmt.Fprintf(out, "Datalog:  %s session %s (%d written, %d dropped)\n", cfg.DatalogPath, rec.Session(), rec.Written(), rec.Dropped())
	}
	return loopErr
}

// uploadLog archives a closed telemetry log. Failures are logged; the run
// itself already succeeded.
func uploadLog(ctx context.Context, cmd *cobra.Command, logPath, session string) {
	archive, err := telemetry.NewArchive(ctx, cfg.DatalogBucket, cfg.DatalogPrefix, cfg.AWSRegion)
	if err != nil {
		logger.Error("telemetry archive", "error", err)
		return
	}
	key, size, err := archive.Upload(ctx, logPath, session)
	if err != nil {
		logger.Error("telemetry archive", "error", err)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Uploaded: s3://%s/%s (%s)\n", archive.Bucket, key, humanize.Bytes(uint64(size)))
}
