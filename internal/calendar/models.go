package calendar

import "github.com/google/uuid"

// Recurrence tags how an event is meant to repeat. It is stored and
// round-tripped but never expanded into extra occurrences.
type Recurrence string

const (
	RecurNone    Recurrence = "None"
	RecurDaily   Recurrence = "Daily"
	RecurWeekly  Recurrence = "Weekly"
	RecurMonthly Recurrence = "Monthly"
)

// Recurrences are the choices offered when creating an event.
var Recurrences = []Recurrence{RecurNone, RecurDaily, RecurWeekly, RecurMonthly}

// Categories are the labels offered when creating an event. Stored events
// may carry any label.
var Categories = []string{"Work", "Personal", "Holiday"}

type Event struct {
	ID          string
	Date        Date
	Title       string
	Description string
	Category    string
	Color       Color
	Time        Clock
	Recurrence  Recurrence
}

// NewEvent builds an event with a fresh ID. A nil clock means the current
// time of day; an empty recurrence means RecurNone.
func NewEvent(date Date, title, description, category string, color Color, clock *Clock, recurrence Recurrence) *Event {
	t := Now()
	if clock != nil {
		t = *clock
	}
	if recurrence == "" {
		recurrence = RecurNone
	}
	return &Event{
		ID:          uuid.NewString(),
		Date:        date,
		Title:       title,
		Description: description,
		Category:    category,
		Color:       color,
		Time:        t,
		Recurrence:  recurrence,
	}
}

// CategoryCount is the number of events carrying one category label.
type CategoryCount struct {
	Category string
	Count    int
}
