package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func sweepCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete stored uploads no project references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			s, err := app.Sweeper()
			if err != nil {
				return err
			}
			report, err := s.Sweep(cmd.Context(), dryRun)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			verb := "removed"
			if report.DryRun {
				verb = "would remove"
			}
			for _, name := range report.Removed {
				fmt.Fprintf(out, "%s %s\n", verb, name)
			}
			fmt.Fprintf(out, "scanned %d, kept %d, %s %d\n", report.Scanned, report.Kept, verb, len(report.Removed))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only report what would be removed")

	return cmd
}
