package main

import (
	"fmt"
	"time"

	"catsort/internal/schedule"
	"catsort/pkg/types"

	"github.com/spf13/cobra"
)

func (a *app) scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Configure when the daemon re-organizes a directory",
	}
	cmd.AddCommand(a.scheduleSetCmd())
	cmd.AddCommand(a.scheduleToggleCmd())
	return cmd
}

func (a *app) scheduleSetCmd() *cobra.Command {
	var (
		s        types.Schedule
		unit     string
		inactive bool
	)

	cmd := &cobra.Command{
		Use:   "set <dir>",
		Short: "Replace the schedule of a directory",
		Example: `  catsort schedule set ~/Downloads --type HOUR --interval 6
  catsort schedule set ~/Downloads --type DAY --time 09:00
  catsort schedule set ~/Downloads --type WEEK --weekday MONDAY --time 08:30
  catsort schedule set ~/Downloads --type MONTH --day 1 --time 00:00`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := dirArg(args[0])
			if err != nil {
				return err
			}
			s.Type = types.ScheduleType(unit)
			s.Active = !inactive
			if err := s.Validate(); err != nil {
				return err
			}
			cfg, err := a.store.SetSchedule(dir, s)
			if err != nil {
				return err
			}
			printSchedule(cmd, cfg)
			return nil
		},
	}

	cmd.Flags().StringVar(&unit, "type", string(types.Hour), "recurrence unit: SECOND, MINUTE, HOUR, DAY, WEEK, MONTH or YEAR")
	cmd.Flags().IntVar(&s.Interval, "interval", 1, "number of units between runs")
	cmd.Flags().StringVar(&s.Time, "time", "", "time of day as HH:MM (DAY and longer)")
	cmd.Flags().IntVar(&s.Day, "day", 0, "day of the month (MONTH, YEAR)")
	cmd.Flags().StringVar(&s.Weekday, "weekday", "", "day of the week (WEEK)")
	cmd.Flags().StringVar(&s.Month, "month", "", "month of the year (YEAR)")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "save the schedule switched off")
	return cmd
}

func (a *app) scheduleToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <dir>",
		Short: "Switch the schedule of a directory on or off",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.lookup(args[0])
			if err != nil {
				return err
			}
			s := cfg.Schedule
			s.Active = !s.Active
			if cfg, err = a.store.SetSchedule(cfg.Directory, s); err != nil {
				return err
			}
			printSchedule(cmd, cfg)
			return nil
		},
	}
}

func printSchedule(cmd *cobra.Command, cfg *types.Config) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s  %s\n", cfg.Directory, scheduleSummary(cfg.Schedule))
	if !cfg.Schedule.Active {
		return
	}
	if next, err := schedule.First(cfg.Schedule, time.Now()); err == nil {
		fmt.Fprintf(out, "next run: %s\n", next.Format("2006-01-02 15:04"))
	}
}
