package main

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/office_scheduler/internal/app"
	"github.com/Freeeeeet/office_scheduler/internal/model"
	"github.com/spf13/cobra"
)

func reconcileCmd() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Repair slots left available under an active booking",
		RunE: func(cmd *cobra.Command, args []string) error {
			start := model.DateOf(time.Now())
			if from != "" {
				d, err := model.ParseDate(from)
				if err != nil {
					return fmt.Errorf("--from: %w", err)
				}
				start = d
			}

			return withContainer(cmd.Context(), func(c *app.Container) error {
				report, err := c.Reconciler.Reconcile(cmd.Context(), start)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(),
					"Checked %d active booking(s): repaired %d slot(s), %d double booking(s), %d without slot.\n",
					report.Checked, report.Repaired, report.Duplicates, report.Orphaned)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Check bookings from this date, YYYY-MM-DD (default today)")

	return cmd
}
