package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/calendr/internal/calendar"
	"github.com/sadopc/calendr/internal/config"
	"github.com/sadopc/calendr/internal/eventfile"
	"github.com/sadopc/calendr/internal/logging"
	"github.com/sadopc/calendr/internal/prefs"
	"github.com/sadopc/calendr/internal/reminder"
	"github.com/sadopc/calendr/internal/tui"
)

type flags struct {
	configPath string
	watch      string
	open       string
}

func parseFlags() flags {
	var f flags
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	flag.StringVar(&f.configPath, "config", config.PathFromEnv(config.DefaultPath()), "Path to config file")
	flag.StringVar(&f.watch, "watch", "", "Print reminders for events in this JSON file without the UI")
	flag.StringVar(&f.open, "open", "", "Load this JSON file at startup")
	flag.Parse()
	return f
}

func main() {
	f := parseFlags()

	cfg, err := config.Load(f.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if f.watch != "" {
		logger := logging.Stderr(cfg.LogLevel)
		if err := watch(cfg, cfg.ResolvePath(f.watch), logger); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	logger, closer, err := logging.File(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	if err := run(cfg, f.open, logger); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, open string, logger *slog.Logger) error {
	p, err := prefs.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer p.Close()

	logger.Info("calendr starting", "db", cfg.DBPath, "open", open)

	app := tui.NewApp(calendar.NewStore(), p, tui.Options{
		ResolvePath: cfg.ResolvePath,
		DefaultDir:  cfg.EventsDir,
		OpenPath:    open,
		Logger:      logger,
	})
	prog := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := prog.Run(); err != nil {
		return err
	}
	logger.Info("calendr exiting")
	return nil
}

// watch loads path once and prints reminders on the configured schedule
// until SIGINT or SIGTERM.
func watch(cfg *config.Config, path string, logger *slog.Logger) error {
	events, err := eventfile.Load(path)
	if err != nil {
		return err
	}
	store := calendar.NewStore()
	store.AddAll(events)

	sch, err := reminder.NewScheduler(cfg.ReminderSchedule, store, notifier(os.Stdout), logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("watching", "path", path, "events", store.Len(), "schedule", cfg.ReminderSchedule)
	sch.Start()
	<-ctx.Done()
	sch.Stop()
	return nil
}

func notifier(w io.Writer) func(string) {
	return func(msg string) {
		fmt.Fprintln(w, msg)
	}
}
