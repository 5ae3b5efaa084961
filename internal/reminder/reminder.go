// Package reminder turns the event store's exact-time matches into
// notification messages, either on demand or on a cron schedule.
package reminder

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sadopc/calendr/internal/calendar"
)

// DefaultSchedule fires at second zero of every minute, so events stored
// at HH:MM:00 match exactly.
const DefaultSchedule = "* * * * *"

func Message(title string) string {
	return "Reminder: " + title
}

// Due returns one message per event on now's date whose time equals now,
// truncated to the second.
func Due(s *calendar.Store, now time.Time) []string {
	titles := s.CheckReminders(calendar.DateOf(now), calendar.ClockOf(now))
	if len(titles) == 0 {
		return nil
	}
	msgs := make([]string, len(titles))
	for i, t := range titles {
		msgs[i] = Message(t)
	}
	return msgs
}

// Scheduler runs the reminder check on a cron schedule. The store must not
// be modified after Start; checks read it from the cron goroutine.
type Scheduler struct {
	cron   *cron.Cron
	store  *calendar.Store
	notify func(string)
	logger *slog.Logger
	now    func() time.Time
}

func NewScheduler(spec string, s *calendar.Store, notify func(string), logger *slog.Logger) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultSchedule
	}
	if logger == nil {
		logger = slog.Default()
	}
	sch := &Scheduler{
		cron:   cron.New(),
		store:  s,
		notify: notify,
		logger: logger,
		now:    time.Now,
	}
	if _, err := sch.cron.AddFunc(spec, func() { sch.RunOnce(sch.now()) }); err != nil {
		return nil, fmt.Errorf("parse reminder schedule %q: %w", spec, err)
	}
	return sch, nil
}

func (s *Scheduler) Start() {
	s.logger.Info("reminder scheduler started", "events", s.Len())
	s.cron.Start()
}

// Stop halts the schedule and waits for a running check to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("reminder scheduler stopped")
}

// RunOnce performs a single check at now and returns the number of
// reminders sent.
func (s *Scheduler) RunOnce(now time.Time) int {
	msgs := Due(s.store, now)

	for _, m := range msgs {
		s.logger.Info("reminder", "message", m, "at", now.Format(time.DateTime))
		if s.notify != nil {
			s.notify(m)
		}
	}
	s.logger.Debug("reminder check", "at", now.Format(time.DateTime), "matched", len(msgs))
	return len(msgs)
}

func (s *Scheduler) Len() int {
	return s.store.Len()
}
