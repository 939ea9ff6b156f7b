package cli

import (
	"fmt"
	"strings"

	"github.com/me/cmdbot/pkg/model"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the status of a running robot (via its dashboard)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var st model.RobotStatus
			if err := client.Get(cmd.Context(), "/api/v1/robot/", &st); err != nil {
				return fmt.Errorf("get robot status: %w", err)
			}
			var hw []model.TelemetryEntry
			if err := client.Get(cmd.Context(), "/api/v1/telemetry/?prefix=Hardware/", &hw); err != nil {
				return fmt.Errorf("get hardware status: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Mode:   %s\n", st.Mode)
			fmt.Fprintf(out, "Tick:   %d\n", st.Tick)
			fmt.Fprintf(out, "Auto:   %s\n", st.SelectedAuto)
			fmt.Fprintf(out, "Active: %s\n", strings.Join(st.Active, ", "))
			for _, e := range hw {
				fmt.Fprintf(out, "  %-20s %v\n", strings.TrimPrefix(e.Key, "Hardware/"), e.Value)
			}
			return nil
		},
	}
}

func newModeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "mode <disabled|autonomous|teleop|test>",
		Short:     "Switch a running robot's mode",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"disabled", "autonomous", "teleop", "test"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := model.ParseMode(args[0]); !ok {
				return fmt.Errorf("unknown mode %q", args[0])
			}
			if err := client.Put(cmd.Context(), "/api/v1/robot/mode", model.ModeRequest{Mode: args[0]}, nil); err != nil {
				return fmt.Errorf("set mode: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Mode change to %s requested.\n", args[0])
			return nil
		},
	}
}

func newSelectAutoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select-auto <key>",
		Short: "Select the autonomous routine on a running robot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Put(cmd.Context(), "/api/v1/autos/selected", model.AutoSelection{Name: args[0]}, nil); err != nil {
				return fmt.Errorf("select auto: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Autonomous routine %s selected.\n", args[0])
			return nil
		},
	}
}
