package cli

import (
	"fmt"

	"github.com/me/cmdbot/internal/robot"
	"github.com/spf13/cobra"
)

func newAutosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "autos",
		Short: "List autonomous routines and bindable commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bot, err := robot.New(cfg, robot.Options{Logger: logger})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-4s  %-8s  %s\n", "KEY", "DEFAULT", "ROUTINE")
			fmt.Fprintf(out, "%-4s  %-8s  %s\n", "---", "-------", "-------")
			for _, o := range bot.Autos() {
				def := ""
				if o.Default {
					def = "yes"
				}
				fmt.Fprintf(out, "%-4s  %-8s  %s\n", o.Key, def, o.Description)
			}

			fmt.Fprintln(out, "\nCommands available to bindings:")
			for _, name := range bot.CommandNames() {
				fmt.Fprintf(out, "  %s\n", name)
			}
			return nil
		},
	}
}
