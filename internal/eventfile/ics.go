package eventfile

import (
	"fmt"
	"os"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/sadopc/calendr/internal/calendar"
)

const (
	icsProductID     = "-//calendr//calendr//EN"
	icsEventDuration = time.Hour

	// RFC 7986 COLOR property.
	icsColor = ical.ComponentProperty("COLOR")
)

var rruleFreq = map[calendar.Recurrence]rrule.Frequency{
	calendar.RecurDaily:   rrule.DAILY,
	calendar.RecurWeekly:  rrule.WEEKLY,
	calendar.RecurMonthly: rrule.MONTHLY,
}

// BuildICS converts events into an iCalendar document. Start times are
// floating local times, matching the zone-less event model.
func BuildICS(events []*calendar.Event, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(icsProductID)

	for _, e := range events {
		start := e.Time.On(e.Date, time.Local)

		ve := cal.AddEvent(e.ID + "@calendr")
		ve.SetDtStampTime(stamp)
		ve.SetProperty(ical.ComponentPropertyDtStart, start.Format("20060102T150405"))
		ve.SetProperty(ical.ComponentPropertyDtEnd, start.Add(icsEventDuration).Format("20060102T150405"))
		ve.SetSummary(e.Title)
		if e.Description != "" {
			ve.SetDescription(e.Description)
		}
		if e.Category != "" {
			ve.SetProperty(ical.ComponentPropertyCategories, e.Category)
		}
		ve.SetProperty(icsColor, e.Color.Hex())

		if freq, ok := rruleFreq[e.Recurrence]; ok {
			opt := rrule.ROption{Freq: freq}
			ve.SetProperty(ical.ComponentPropertyRrule, opt.RRuleString())
		}
	}
	return cal
}

func ToICS(events []*calendar.Event, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create ics file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(BuildICS(events, time.Now().UTC()).Serialize()); err != nil {
		return fmt.Errorf("write ics file: %w", err)
	}
	return nil
}
