package main

import (
	"fmt"

	"github.com/Freeeeeet/office_scheduler/internal/app"
	"github.com/Freeeeeet/office_scheduler/internal/model"
	"github.com/spf13/cobra"
)

type generateFlags struct {
	from     string
	to       string
	start    string
	end      string
	duration int
	weekdays []int
	modality string
	note     string
}

func (f generateFlags) schedule() (model.SlotSchedule, error) {
	var (
		sch model.SlotSchedule
		err error
	)

	if sch.StartDate, err = model.ParseDate(f.from); err != nil {
		return sch, fmt.Errorf("--from: %w", err)
	}
	if sch.EndDate, err = model.ParseDate(f.to); err != nil {
		return sch, fmt.Errorf("--to: %w", err)
	}
	if sch.DailyStart, err = model.ParseClock(f.start); err != nil {
		return sch, fmt.Errorf("--start: %w", err)
	}
	if sch.DailyEnd, err = model.ParseClock(f.end); err != nil {
		return sch, fmt.Errorf("--end: %w", err)
	}
	if sch.Modality, err = model.ParseModality(f.modality); err != nil {
		return sch, fmt.Errorf("--modality: %w", err)
	}
	sch.DurationMinutes = f.duration
	sch.Weekdays = f.weekdays
	sch.Note = f.note

	return sch, sch.Validate()
}

func generateCmd() *cobra.Command {
	var flags generateFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate slots for a date range",
		Long: `Generate appointment slots for every selected weekday in the date range.

Existing slots with the same date and start time are skipped in best-effort
mode; in atomic mode (SLOT_BATCH_POLICY=atomic) any conflict aborts the batch.

Examples:
  # Mondays and Wednesdays of March, 09:00-12:00, 30 minute slots
  scheduler generate --from 2024-03-01 --to 2024-03-31 --start 09:00 --end 12:00 \
    --duration 30 --weekdays 1,3 --modality online`,
		RunE: func(cmd *cobra.Command, args []string) error {
			schedule, err := flags.schedule()
			if err != nil {
				return err
			}

			return withContainer(cmd.Context(), func(c *app.Container) error {
				res, err := c.SlotService.CreateSlots(cmd.Context(), schedule)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Created %d slot(s) over %d day(s), skipped %d existing.\n", res.Created, schedule.Days(), res.Skipped)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&flags.from, "from", "", "First date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&flags.to, "to", "", "Last date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&flags.start, "start", "09:00", "Daily start time, HH:MM")
	cmd.Flags().StringVar(&flags.end, "end", "18:00", "Daily end time, HH:MM")
	cmd.Flags().IntVar(&flags.duration, "duration", 60, "Slot duration in minutes")
	cmd.Flags().IntSliceVar(&flags.weekdays, "weekdays", []int{1, 2, 3, 4, 5}, "ISO weekdays, 1=Monday ... 7=Sunday")
	cmd.Flags().StringVar(&flags.modality, "modality", "either", "online, in-person or either")
	cmd.Flags().StringVar(&flags.note, "note", "", "Note attached to every slot")

	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}
