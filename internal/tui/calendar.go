package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/calendr/internal/calendar"
	"github.com/sadopc/calendr/internal/dateinput"
	"github.com/sadopc/calendr/internal/prefs"
)

const (
	defaultCellEvents = 3
	cellTitleRunes    = 10
	minCellWidth      = cellTitleRunes + 2
)

// eventColors are the choices offered in the add form.
var eventColors = []struct {
	name string
	hex  string
}{
	{"Green", "#00ff00"},
	{"Red", "#ff0000"},
	{"Blue", "#0000ff"},
	{"Yellow", "#ffff00"},
	{"Orange", "#ffa500"},
	{"Purple", "#800080"},
	{"Cyan", "#00ffff"},
	{"White", "#ffffff"},
}

// customColor is the select value that switches to a typed hex color.
const customColor = "custom"

type calendarModel struct {
	events *calendar.Store
	prefs  *prefs.Store
	width  int
	height int

	selected calendar.Date
	cursor   int // index into the selected day's events

	weekStart         time.Weekday
	cellEvents        int
	defaultCategory   string
	defaultColor      string
	defaultRecurrence string

	formActive bool
	form       *huh.Form
	formType   string // "add", "rename", "goto"
	editingID  string

	// Form field pointers (survive value copies)
	formTitle       *string
	formDesc        *string
	formDate        *string
	formTime        *string
	formCategory    *string
	formColor       *string
	formCustomColor *string
	formRecurrence  *string
}

func newCalendarModel(events *calendar.Store, p *prefs.Store) calendarModel {
	title, desc, date, clock := "", "", "", ""
	cat, color, custom, recur := "", "", "", ""
	return calendarModel{
		events:            events,
		prefs:             p,
		selected:          calendar.Today(),
		weekStart:         time.Monday,
		cellEvents:        defaultCellEvents,
		defaultCategory:   calendar.Categories[0],
		defaultColor:      calendar.DefaultColor.Hex(),
		defaultRecurrence: string(calendar.RecurNone),
		formTitle:         &title,
		formDesc:          &desc,
		formDate:          &date,
		formTime:          &clock,
		formCategory:      &cat,
		formColor:         &color,
		formCustomColor:   &custom,
		formRecurrence:    &recur,
	}
}

func (c *calendarModel) setSize(w, h int) {
	c.width = w
	c.height = h
}

type calendarPrefsMsg struct {
	weekStart         time.Weekday
	cellEvents        int
	defaultCategory   string
	defaultColor      string
	defaultRecurrence string
}

func (c calendarModel) refresh() tea.Cmd {
	p := c.prefs
	return func() tea.Msg {
		return calendarPrefsMsg{
			weekStart:         parseWeekStart(p.Setting(prefs.KeyWeekStart, "monday")),
			cellEvents:        parseCellEvents(p.Setting(prefs.KeyCellEvents, "")),
			defaultCategory:   p.Setting(prefs.KeyDefaultCategory, calendar.Categories[0]),
			defaultColor:      p.Setting(prefs.KeyDefaultColor, calendar.DefaultColor.Hex()),
			defaultRecurrence: p.Setting(prefs.KeyDefaultRecurrence, string(calendar.RecurNone)),
		}
	}
}

func parseWeekStart(s string) time.Weekday {
	if strings.EqualFold(s, "sunday") {
		return time.Sunday
	}
	return time.Monday
}

func parseCellEvents(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return defaultCellEvents
	}
	return min(n, 9)
}

// dayEvents returns the selected day's events.
func (c calendarModel) dayEvents() []*calendar.Event {
	return c.events.ListFor(c.selected)
}

func (c calendarModel) selectedEvent() *calendar.Event {
	evs := c.dayEvents()
	if c.cursor < 0 || c.cursor >= len(evs) {
		return nil
	}
	return evs[c.cursor]
}

func (c *calendarModel) selectDate(d calendar.Date) {
	if d != c.selected {
		c.cursor = 0
	}
	c.selected = d
}

func (c calendarModel) update(msg tea.Msg) (calendarModel, tea.Cmd) {
	switch msg := msg.(type) {
	case calendarPrefsMsg:
		c.weekStart = msg.weekStart
		c.cellEvents = msg.cellEvents
		c.defaultCategory = msg.defaultCategory
		c.defaultColor = msg.defaultColor
		c.defaultRecurrence = msg.defaultRecurrence
		return c, nil

	case fileLoadedMsg:
		c.cursor = clamp(c.cursor, 0, max(0, len(c.dayEvents())-1))
		return c, nil
	}

	if c.formActive && c.form != nil {
		return c.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			c.selectDate(c.selected.AddDays(-1))
		case key.Matches(msg, keys.Right):
			c.selectDate(c.selected.AddDays(1))
		case key.Matches(msg, keys.Up):
			c.selectDate(c.selected.AddDays(-7))
		case key.Matches(msg, keys.Down):
			c.selectDate(c.selected.AddDays(7))
		case key.Matches(msg, keys.PrevMonth):
			c.selectDate(c.selected.AddMonths(-1))
		case key.Matches(msg, keys.NextMonth):
			c.selectDate(c.selected.AddMonths(1))
		case key.Matches(msg, keys.Today):
			c.selectDate(calendar.Today())
		case key.Matches(msg, keys.ListUp):
			if c.cursor > 0 {
				c.cursor--
			}
		case key.Matches(msg, keys.ListDown):
			if c.cursor < len(c.dayEvents())-1 {
				c.cursor++
			}
		case key.Matches(msg, keys.New):
			return c.showAddForm()
		case key.Matches(msg, keys.Rename):
			if e := c.selectedEvent(); e != nil {
				return c.showRenameForm(e)
			}
		case key.Matches(msg, keys.Delete):
			return c.deleteSelected()
		case key.Matches(msg, keys.GoTo):
			return c.showGotoForm()
		}
	}
	return c, nil
}

func (c calendarModel) deleteSelected() (calendarModel, tea.Cmd) {
	e := c.selectedEvent()
	if e == nil {
		return c, nil
	}
	if !c.events.Remove(e.ID) {
		return c, statusCmd("Event already removed", true)
	}
	c.cursor = clamp(c.cursor, 0, max(0, len(c.dayEvents())-1))
	return c, statusCmd(fmt.Sprintf("Deleted %q", e.Title), false)
}

// --- Forms ---

func requireTitle(s string) error {
	if strings.TrimSpace(s) == "" {
		return calendar.ErrEmptyTitle
	}
	return nil
}

func validateClock(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	_, err := calendar.ParseClock(s)
	return err
}

func colorOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], len(eventColors))
	for i, ec := range eventColors {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(ec.hex)).Render("●")
		opts[i] = huh.NewOption(fmt.Sprintf("%s %s", dot, ec.name), ec.hex)
	}
	return append(opts, huh.NewOption("Custom…", customColor))
}

// splitColor maps a stored hex onto the color select: a preset selects
// itself, anything else selects custom with the hex as typed text.
func splitColor(hex string) (choice, custom string) {
	for _, ec := range eventColors {
		if ec.hex == hex {
			return hex, ""
		}
	}
	return customColor, hex
}

// joinColor is the inverse of splitColor.
func joinColor(choice, custom string) string {
	if choice == customColor {
		return strings.TrimSpace(custom)
	}
	return choice
}

func validateCustomColor(s string) error {
	_, err := calendar.ParseColor(strings.TrimSpace(s))
	if err != nil {
		return errors.New("enter a color as #RRGGBB")
	}
	return nil
}

func recurrenceOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], len(calendar.Recurrences))
	for i, r := range calendar.Recurrences {
		opts[i] = huh.NewOption(string(r), string(r))
	}
	return opts
}

func (c calendarModel) showAddForm() (calendarModel, tea.Cmd) {
	*c.formTitle = ""
	*c.formDesc = ""
	*c.formDate = c.selected.String()
	*c.formTime = ""
	*c.formCategory = c.defaultCategory
	*c.formColor, *c.formCustomColor = splitColor(c.defaultColor)
	*c.formRecurrence = c.defaultRecurrence
	c.formType = "add"

	c.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(c.formTitle).Validate(requireTitle),
			huh.NewInput().Title("Description").Value(c.formDesc),
			huh.NewInput().Title("Date").
				Description(`YYYY-MM-DD or a phrase like "next friday"`).
				Value(c.formDate).Validate(dateinput.Validate),
			huh.NewInput().Title("Time").
				Description("HH:MM or HH:MM:SS, blank for now").
				Value(c.formTime).Validate(validateClock),
		),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Category").
				Options(huh.NewOptions(calendar.Categories...)...).Value(c.formCategory),
			huh.NewSelect[string]().Title("Color").Options(colorOptions()...).Value(c.formColor),
			huh.NewSelect[string]().Title("Recurrence").Options(recurrenceOptions()...).Value(c.formRecurrence),
		),
		huh.NewGroup(
			huh.NewInput().Title("Custom color").Placeholder("#RRGGBB").
				Value(c.formCustomColor).Validate(validateCustomColor),
		).WithHideFunc(func() bool { return *c.formColor != customColor }),
	).WithShowHelp(true).WithShowErrors(true)

	c.formActive = true
	return c, c.form.Init()
}

func (c calendarModel) showRenameForm(e *calendar.Event) (calendarModel, tea.Cmd) {
	*c.formTitle = e.Title
	c.formType = "rename"
	c.editingID = e.ID

	c.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("New title").Value(c.formTitle).Validate(requireTitle),
		),
	).WithShowHelp(true).WithShowErrors(true)

	c.formActive = true
	return c, c.form.Init()
}

func (c calendarModel) showGotoForm() (calendarModel, tea.Cmd) {
	*c.formDate = ""
	c.formType = "goto"

	c.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Go to date").
				Description(`YYYY-MM-DD or a phrase like "in 3 days"`).
				Value(c.formDate).Validate(dateinput.Validate),
		),
	).WithShowHelp(true).WithShowErrors(true)

	c.formActive = true
	return c, c.form.Init()
}

func (c calendarModel) updateForm(msg tea.Msg) (calendarModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			c.formActive = false
			c.form = nil
			return c, nil
		}
	}

	form, cmd := c.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		c.form = f
	}

	if c.form.State == huh.StateAborted {
		c.formActive = false
		c.form = nil
		return c, nil
	}
	if c.form.State == huh.StateCompleted {
		c.formActive = false
		c.form = nil
		now := time.Now()
		switch c.formType {
		case "add":
			return c.submitAdd(now)
		case "rename":
			return c.submitRename()
		case "goto":
			return c.submitGoto(now)
		}
	}

	return c, cmd
}

// submitAdd creates an event from the add form values.
func (c calendarModel) submitAdd(now time.Time) (calendarModel, tea.Cmd) {
	title := strings.TrimSpace(*c.formTitle)
	if title == "" {
		return c, statusCmd("Title is required", true)
	}
	d, err := dateinput.Parse(*c.formDate, now)
	if err != nil {
		return c, statusCmd(err.Error(), true)
	}
	clock := calendar.ClockOf(now)
	if s := strings.TrimSpace(*c.formTime); s != "" {
		if clock, err = calendar.ParseClock(s); err != nil {
			return c, statusCmd(err.Error(), true)
		}
	}
	color, err := calendar.ParseColor(joinColor(*c.formColor, *c.formCustomColor))
	if err != nil {
		if *c.formColor == customColor {
			return c, statusCmd(validateCustomColor(*c.formCustomColor).Error(), true)
		}
		color = calendar.DefaultColor
	}

	e := calendar.NewEvent(d, title, *c.formDesc, *c.formCategory, color, &clock, calendar.Recurrence(*c.formRecurrence))
	c.events.Add(e)
	c.selectDate(d)
	c.cursor = len(c.dayEvents()) - 1

	c.defaultCategory = e.Category
	c.defaultColor = color.Hex()
	cmds := []tea.Cmd{statusCmd(fmt.Sprintf("Added %q on %s at %s", title, d, clock), false)}
	if err := c.rememberChoices(e.Category, color.Hex()); err != nil {
		cmds = append(cmds, statusCmd(err.Error(), true))
	}
	return c, tea.Sequence(cmds...)
}

func (c calendarModel) rememberChoices(category, color string) error {
	if err := c.prefs.SetSetting(prefs.KeyDefaultCategory, category); err != nil {
		return err
	}
	return c.prefs.SetSetting(prefs.KeyDefaultColor, color)
}

func (c calendarModel) submitRename() (calendarModel, tea.Cmd) {
	title := strings.TrimSpace(*c.formTitle)
	if err := c.events.Rename(c.editingID, title); err != nil {
		return c, statusCmd("Rename failed: "+err.Error(), true)
	}
	return c, statusCmd(fmt.Sprintf("Renamed to %q", title), false)
}

func (c calendarModel) submitGoto(now time.Time) (calendarModel, tea.Cmd) {
	d, err := dateinput.Parse(*c.formDate, now)
	if err != nil {
		return c, statusCmd(err.Error(), true)
	}
	c.selectDate(d)
	return c, nil
}

// --- Rendering ---

// monthGrid lays out the selected month as weeks of dates. Cells outside
// the month are zero dates.
func (c calendarModel) monthGrid() [][]calendar.Date {
	first := calendar.Date{Year: c.selected.Year, Month: c.selected.Month, Day: 1}
	lead := (int(first.Weekday()) - int(c.weekStart) + 7) % 7

	cells := make([]calendar.Date, lead, lead+first.DaysInMonth()+6)
	for day := 1; day <= first.DaysInMonth(); day++ {
		cells = append(cells, calendar.Date{Year: first.Year, Month: first.Month, Day: day})
	}
	for len(cells)%7 != 0 {
		cells = append(cells, calendar.Date{})
	}

	weeks := make([][]calendar.Date, 0, len(cells)/7)
	for i := 0; i < len(cells); i += 7 {
		weeks = append(weeks, cells[i:i+7])
	}
	return weeks
}

// cellLines returns the day number followed by up to cellEvents titles.
func (c calendarModel) cellLines(d calendar.Date) []string {
	lines := make([]string, 0, c.cellEvents+1)
	if d.IsZero() {
		return lines
	}

	num := strconv.Itoa(d.Day)
	if d == calendar.Today() {
		num = todayStyle.Render(num)
	}
	lines = append(lines, num)

	for i, e := range c.events.ListFor(d) {
		if i >= c.cellEvents {
			break
		}
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(e.Color.Hex()))
		lines = append(lines, style.Render(truncate(e.Title, cellTitleRunes)))
	}
	return lines
}

func (c calendarModel) cellWidth() int {
	return max(minCellWidth, (c.width-8)/7)
}

func (c calendarModel) weekdayHeader(cw int) string {
	names := make([]string, 7)
	for i := range names {
		wd := time.Weekday((int(c.weekStart) + i) % 7)
		names[i] = weekdayStyle.Width(cw).Render(wd.String()[:3])
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, names...)
}

func (c calendarModel) renderGrid() string {
	cw := c.cellWidth()
	rows := []string{c.weekdayHeader(cw)}
	for _, week := range c.monthGrid() {
		cells := make([]string, len(week))
		for i, d := range week {
			style := cellStyle
			if d == c.selected {
				style = selectedCellStyle
			}
			cells[i] = style.Width(cw).Height(c.cellEvents + 1).
				Render(strings.Join(c.cellLines(d), "\n"))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (c calendarModel) renderDayList() string {
	var rows []string
	heading := c.selected.In(time.Local).Format("Monday, January 2 2006")
	rows = append(rows, titleStyle.Render(heading))

	evs := c.dayEvents()
	if len(evs) == 0 {
		rows = append(rows, mutedStyle.Render("No events. Press n to add one."))
		return strings.Join(rows, "\n")
	}

	for i, e := range evs {
		cursor := "  "
		style := normalItemStyle
		if i == c.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(e.Color.Hex())).Render("●")
		line := style.Render(cursor) + dot + " " + style.Render(eventRow(e))
		if e.Recurrence != "" && e.Recurrence != calendar.RecurNone {
			line += mutedStyle.Render(" (" + string(e.Recurrence) + ")")
		}
		rows = append(rows, line)
		if i == c.cursor && e.Description != "" {
			rows = append(rows, subtitleStyle.Render("    "+e.Description))
		}
	}
	return strings.Join(rows, "\n")
}

func (c calendarModel) view() string {
	w := c.width - 4

	if c.formActive && c.form != nil {
		title := titleStyle.Render("New Event")
		switch c.formType {
		case "rename":
			title = titleStyle.Render("Rename Event")
		case "goto":
			title = titleStyle.Render("Go To Date")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", c.form.View())
		return panelStyle.Width(w).Render(content)
	}

	month := titleStyle.Render(c.selected.In(time.Local).Format("January 2006"))
	count := mutedStyle.Render(fmt.Sprintf("  %d events", c.events.Len()))
	nav := mutedStyle.Render("  ←→↑↓: move  [ ]: month  t: today  g: go to  n: new  r: rename  d: delete  J/K: pick")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			month+count, "", c.renderGrid(), "", c.renderDayList(), "", nav,
		),
	)
}
