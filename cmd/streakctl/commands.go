package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ksebe/streakd/internal/datekey"
	"github.com/ksebe/streakd/internal/services"
	"github.com/ksebe/streakd/internal/streak"
	"github.com/spf13/cobra"
)

func (a *app) print(w io.Writer, v any, text func(io.Writer)) error {
	if a.opts.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}

func printStats(w io.Writer, stats streak.Stats) {
	fmt.Fprintf(w, "today:          %s (practiced: %t)\n", stats.Today, stats.HasToday)
	fmt.Fprintf(w, "current streak: %d\n", stats.CurrentStreak)
	fmt.Fprintf(w, "longest streak: %d\n", stats.LongestStreak)
	if stats.LastDay != nil {
		fmt.Fprintf(w, "last day:       %s\n", *stats.LastDay)
	}
}

func joinDays(days []datekey.Key) string {
	if len(days) == 0 {
		return "(none)"
	}
	return strings.Join(datekey.Strings(days), "\n")
}

func newLogCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "log [YYYY-MM-DD]",
		Short: "Record a practice day (today when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			day := ""
			if len(args) == 1 {
				day = args[0]
			}
			days, err := a.streak.LogDay(ctx, a.opts.userID, day)
			if err != nil {
				return err
			}
			stats, err := a.streak.Stats(ctx, a.opts.userID)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), map[string]any{"days": days, "stats": stats}, func(w io.Writer) {
				fmt.Fprintf(w, "logged, %d days in log\n", len(days))
				printStats(w, stats)
			})
		},
	}
}

func newDaysCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "days",
		Short: "List logged days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			days, err := a.streak.Days(cmd.Context(), a.opts.userID)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), days, func(w io.Writer) {
				fmt.Fprintln(w, joinDays(days))
			})
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show current and longest streak",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := a.streak.Stats(cmd.Context(), a.opts.userID)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), stats, func(w io.Writer) {
				printStats(w, stats)
			})
		},
	}
}

func newWeekCmd(a *app) *cobra.Command {
	var minutes int
	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show the recap of the current Monday-to-Sunday week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := a.streak.Recap(cmd.Context(), a.opts.userID, minutes)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), summary, func(w io.Writer) {
				fmt.Fprintln(w, summary.Label)
				fmt.Fprintln(w, summary.Text)
				fmt.Fprintf(w, "streak: %d\n", summary.CurrentStreak)
				if summary.EstimatedMinutes != nil {
					fmt.Fprintf(w, "about %d min\n", *summary.EstimatedMinutes)
				}
			})
		},
	}
	cmd.Flags().IntVar(&minutes, "minutes", 0, "Minutes per practice for the time estimate")
	return cmd
}

func newReminderCmd(a *app) *cobra.Command {
	var mark bool
	cmd := &cobra.Command{
		Use:   "reminder",
		Short: "Show whether the evening reminder is due",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var (
				status services.ReminderStatus
				err    error
			)
			if mark {
				status, err = a.streak.MarkReminderShown(ctx, a.opts.userID)
			} else {
				status, err = a.streak.Reminder(ctx, a.opts.userID)
			}
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), status, func(w io.Writer) {
				fmt.Fprintf(w, "show: %t (from %02d:00, practiced today: %t, shown today: %t)\n",
					status.Show, status.Hour, status.HasToday, status.ShownToday)
			})
		},
	}
	cmd.Flags().BoolVar(&mark, "mark", false, "Record that today's reminder was shown")
	return cmd
}

func newSyncCmd(a *app) *cobra.Command {
	var pendingOnly bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror the log to practice events and pull remote days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSync(); err != nil {
				return err
			}
			ctx := cmd.Context()
			if pendingOnly {
				pending, err := a.sync.Pending(ctx, a.opts.userID)
				if err != nil {
					return err
				}
				return a.print(cmd.OutOrStdout(), pending, func(w io.Writer) {
					fmt.Fprintln(w, joinDays(pending))
				})
			}
			res, err := a.sync.Bootstrap(ctx, a.opts.userID)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), res, func(w io.Writer) {
				fmt.Fprintf(w, "synced %d pending, uploaded %d, pulled %d, %d still pending\n",
					res.Synced, res.Uploaded, res.Pulled, res.Pending)
			})
		},
	}
	cmd.Flags().BoolVar(&pendingOnly, "pending", false, "Only list days waiting for a retry")
	return cmd
}

func newEventsCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List recorded app events, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSync(); err != nil {
				return err
			}
			events, err := a.sync.Events(cmd.Context(), a.opts.userID, limit)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), events, func(w io.Writer) {
				for _, e := range events {
					fmt.Fprintf(w, "%s  %s  %v\n", e.CreatedAt.Format("2006-01-02 15:04:05"), e.Name, e.Props)
				}
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of events")
	return cmd
}
