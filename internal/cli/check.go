package cli

import (
	"fmt"
	"sort"

	"github.com/me/cmdbot/internal/robot"
	"github.com/me/cmdbot/pkg/model"
	"github.com/spf13/cobra"
)

// maxCheckTicks bounds a check run in case the health check never completes.
const maxCheckTicks = 100

func newCheckCmd() *cobra.Command {
	var disconnect []string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one hardware health check pass while disabled",
		Long: `Builds the robot disabled, runs the health check until every probe has
reported once, and prints each subsystem's connectivity. Exits non-zero
when any device is disconnected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg
			c.Mode = string(model.ModeDisabled)
			c.Script = nil
			bot, err := robot.New(c, robot.Options{Logger: logger})
			if err != nil {
				return err
			}
			for _, name := range disconnect {
				if err := bot.Bus().SetConnected(name, false); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			report := bot.Report()
			for i := 0; i < maxCheckTicks && report.Runs() == 0; i++ {
				if err := bot.Step(ctx); err != nil {
					return err
				}
			}
			if report.Runs() == 0 {
				return fmt.Errorf("health check did not complete in %d ticks", maxCheckTicks)
			}

			results := report.Results()
			keys := make([]string, 0, len(results))
			for k := range results {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-12s  %s\n", "SUBSYSTEM", "STATUS")
			fmt.Fprintf(out, "%-12s  %s\n", "---------", "------")
			for _, k := range keys {
				fmt.Fprintf(out, "%-12s  %s\n", k, results[k])
			}
			fmt.Fprintf(out, "\n%s\n", report.Summary())

			if !report.Healthy() {
				return fmt.Errorf("hardware check failed: %s", report.Summary())
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&disconnect, "disconnect", nil, "Simulate disconnected devices, e.g. drive.gyro,limelight")
	return cmd
}
