package tui

import (
	"fmt"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/calendr/internal/calendar"
)

// viewState represents the currently active view.
type viewState int

const (
	viewCalendar viewState = iota
	viewOverview
	viewSettings
)

var viewNames = []string{"Calendar", "Overview", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type reminderTickMsg struct {
	at time.Time
}

type fileSavedMsg struct {
	path  string
	count int
}

type fileLoadedMsg struct {
	path   string
	events []*calendar.Event
}

type exportDoneMsg struct {
	path string
}

type settingsSavedMsg struct{}

// --- Helpers ---

func statusCmd(text string, isError bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isError: isError}
	}
}

// eventRow is the one-line form an event takes in the day list.
func eventRow(e *calendar.Event) string {
	return fmt.Sprintf("%s: %s at %s", e.Category, e.Title, e.Time)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// snapshot copies events so a background write never sees later edits.
func snapshot(events []*calendar.Event) []*calendar.Event {
	out := make([]*calendar.Event, len(events))
	for i, e := range events {
		c := *e
		out[i] = &c
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
