// Command streakctl inspects and edits practice logs from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ksebe/streakd/internal/config"
	"github.com/ksebe/streakd/internal/db"
	"github.com/ksebe/streakd/internal/jobs"
	"github.com/ksebe/streakd/internal/logger"
	"github.com/ksebe/streakd/internal/repository"
	"github.com/ksebe/streakd/internal/repository/sqlite"
	"github.com/ksebe/streakd/internal/services"
	"github.com/spf13/cobra"
)

type options struct {
	dbPath       string
	memory       bool
	userID       string
	tzName       string
	logLevel     string
	reminderHour int
	now          string
	asJSON       bool
}

// app is the wiring shared by every subcommand for one invocation.
type app struct {
	opts   options
	db     *db.DB
	users  *services.Registry
	streak services.StreakService
	sync   services.SyncService
}

func (a *app) open(ctx context.Context) error {
	log := logger.New(
		logger.WithOutput(os.Stderr),
		logger.WithLevel(logger.ParseLevel(a.opts.logLevel)),
	)
	logger.SetDefault(log)

	loc, err := time.LoadLocation(a.opts.tzName)
	if err != nil {
		return fmt.Errorf("--tz: %w", err)
	}
	clock := time.Now
	if a.opts.now != "" {
		fixed, err := time.Parse(time.RFC3339, a.opts.now)
		if err != nil {
			return fmt.Errorf("--now must be RFC 3339: %w", err)
		}
		clock = func() time.Time { return fixed }
	}

	var (
		store     repository.KVStore
		events    repository.PracticeEventRepository
		appEvents repository.AppEventRepository
	)
	if a.opts.memory {
		store = repository.NewMemoryStore()
	} else {
		a.db, err = db.Open(a.opts.dbPath)
		if err != nil {
			return err
		}
		store = sqlite.NewKVStore(a.db.DB)
		events = sqlite.NewPracticeEventRepository(a.db.DB)
		appEvents = sqlite.NewAppEventRepository(a.db.DB)
	}

	a.users = services.NewRegistry(store, a.opts.reminderHour)
	var queue jobs.JobQueue
	streakOpts := []services.StreakOption{services.WithClock(clock), services.WithLocation(loc)}
	if events != nil {
		a.sync = services.NewSyncService(a.users, events, appEvents, services.WithSyncClock(clock))
		queue = jobs.NewInlineQueue(a.sync)
		streakOpts = append(streakOpts, services.WithEventLogger(a.sync))
	}
	a.streak = services.NewStreakService(a.users, queue, streakOpts...)
	return nil
}

func (a *app) close() error {
	if a.users != nil {
		a.users.Close()
		a.users = nil
	}
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *app) requireSync() error {
	if a.sync == nil {
		return fmt.Errorf("sync needs a database; drop --memory")
	}
	return nil
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	cfg := config.Load()

	root := &cobra.Command{
		Use:   "streakctl",
		Short: "Inspect and edit practice logs",
		Long: `streakctl works on the same SQLite database as the streakd server.

Every command acts on one user (--user). Days are YYYY-MM-DD calendar dates
read in --tz.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := services.ValidateUserID(a.opts.userID); err != nil {
				return err
			}
			return a.open(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.dbPath, "db", cfg.DBPath, "SQLite database path (DB_PATH)")
	flags.BoolVar(&a.opts.memory, "memory", false, "Use a throwaway in-memory store")
	flags.StringVarP(&a.opts.userID, "user", "u", "local", "User id")
	flags.StringVar(&a.opts.tzName, "tz", cfg.TZName, "Time zone for calendar days (TZ_NAME)")
	flags.StringVar(&a.opts.logLevel, "log-level", "WARN", "DEBUG, INFO, WARN or ERROR")
	flags.IntVar(&a.opts.reminderHour, "reminder-hour", cfg.ReminderHour, "Local hour from which the reminder shows")
	flags.StringVar(&a.opts.now, "now", "", "Pretend the current time is this RFC 3339 instant")
	flags.BoolVar(&a.opts.asJSON, "json", false, "Print JSON instead of text")
	_ = flags.MarkHidden("now")

	root.AddCommand(
		newLogCmd(a),
		newDaysCmd(a),
		newStatsCmd(a),
		newWeekCmd(a),
		newReminderCmd(a),
		newSyncCmd(a),
		newEventsCmd(a),
	)
	return root, a
}

// execute runs root and releases what its pre-run opened, whether or not the
// command failed. Cobra skips post-run hooks after a RunE error.
func execute(ctx context.Context, root *cobra.Command, a *app) error {
	err := root.ExecuteContext(ctx)
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func main() {
	root, a := newRootCmd()
	if err := execute(context.Background(), root, a); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
