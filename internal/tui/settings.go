package tui

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/calendr/internal/calendar"
	"github.com/sadopc/calendr/internal/prefs"
)

var settingLabels = map[string]string{
	prefs.KeyDefaultCategory:   "Default category",
	prefs.KeyDefaultColor:      "Default color",
	prefs.KeyDefaultRecurrence: "Default recurrence",
	prefs.KeyWeekStart:         "Week starts on",
	prefs.KeyCellEvents:        "Events per day cell",
}

type settingsModel struct {
	prefs  *prefs.Store
	width  int
	height int

	settings   []prefs.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	defaultCategory   *string
	defaultColor      *string
	customDefault     *string
	defaultRecurrence *string
	weekStart         *string
	cellEvents        *string
}

func newSettingsModel(p *prefs.Store) settingsModel {
	cat, color, custom, recur, ws, ce := "", "", "", "", "", ""
	return settingsModel{
		prefs:             p,
		defaultCategory:   &cat,
		defaultColor:      &color,
		customDefault:     &custom,
		defaultRecurrence: &recur,
		weekStart:         &ws,
		cellEvents:        &ce,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []prefs.Setting
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, err := s.prefs.GetAllSettings()
		if err != nil {
			return statusMsg{text: "Settings: " + err.Error(), isError: true}
		}
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(settingsDataMsg); ok {
		s.settings = msg.settings
		return s, nil
	}

	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New):
			return s.showForm()
		}
	}
	return s, nil
}

func validateCellEvents(v string) error {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 9 {
		return errors.New("enter a number from 1 to 9")
	}
	return nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.defaultCategory = s.prefs.Setting(prefs.KeyDefaultCategory, calendar.Categories[0])
	*s.defaultColor, *s.customDefault = splitColor(s.prefs.Setting(prefs.KeyDefaultColor, calendar.DefaultColor.Hex()))
	*s.defaultRecurrence = s.prefs.Setting(prefs.KeyDefaultRecurrence, string(calendar.RecurNone))
	*s.weekStart = s.prefs.Setting(prefs.KeyWeekStart, "monday")
	*s.cellEvents = s.prefs.Setting(prefs.KeyCellEvents, strconv.Itoa(defaultCellEvents))

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Default category").
				Options(huh.NewOptions(calendar.Categories...)...).Value(s.defaultCategory),
			huh.NewSelect[string]().Title("Default color").
				Options(colorOptions()...).Value(s.defaultColor),
			huh.NewSelect[string]().Title("Default recurrence").
				Options(recurrenceOptions()...).Value(s.defaultRecurrence),
		).Title("New events"),
		huh.NewGroup(
			huh.NewInput().Title("Custom default color").Placeholder("#RRGGBB").
				Value(s.customDefault).Validate(validateCustomColor),
		).WithHideFunc(func() bool { return *s.defaultColor != customColor }),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Week starts on").
				Options(
					huh.NewOption("Monday", "monday"),
					huh.NewOption("Sunday", "sunday"),
				).Value(s.weekStart),
			huh.NewInput().Title("Events per day cell").
				Value(s.cellEvents).Validate(validateCellEvents),
		).Title("Calendar"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateAborted {
		s.formActive = false
		s.form = nil
		return s, nil
	}
	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		if err := s.saveSettings(); err != nil {
			return s, statusCmd("Settings: "+err.Error(), true)
		}
		return s, tea.Batch(s.refresh(), func() tea.Msg { return settingsSavedMsg{} })
	}

	return s, cmd
}

func (s settingsModel) saveSettings() error {
	color := joinColor(*s.defaultColor, *s.customDefault)
	parsed, err := calendar.ParseColor(color)
	if err != nil {
		return validateCustomColor(color)
	}
	values := []prefs.Setting{
		{Key: prefs.KeyDefaultCategory, Value: *s.defaultCategory},
		{Key: prefs.KeyDefaultColor, Value: parsed.Hex()},
		{Key: prefs.KeyDefaultRecurrence, Value: *s.defaultRecurrence},
		{Key: prefs.KeyWeekStart, Value: *s.weekStart},
		{Key: prefs.KeyCellEvents, Value: *s.cellEvents},
	}
	for _, v := range values {
		if err := s.prefs.SetSetting(v.Key, v.Value); err != nil {
			return err
		}
	}
	return nil
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		formView := s.form.View()
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", formView),
		)
	}

	title := titleStyle.Render("Settings")
	hint := mutedStyle.Render("Press enter to edit settings")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(24).Render(settingLabel(setting.Key))
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	rows = append(rows, "")
	rows = append(rows, hint)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func settingLabel(k string) string {
	if l, ok := settingLabels[k]; ok {
		return l
	}
	return k
}

func formatSettingValue(k, v string) string {
	switch k {
	case prefs.KeyDefaultColor:
		if c, err := calendar.ParseColor(v); err == nil {
			dot := lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex())).Render("●")
			return dot + " " + c.Hex()
		}
	case prefs.KeyWeekStart:
		if v == "sunday" {
			return "Sunday"
		}
		return "Monday"
	case prefs.KeyCellEvents:
		if n, err := strconv.Atoi(v); err == nil {
			if n == 1 {
				return "1 title"
			}
			return fmt.Sprintf("%d titles", n)
		}
	}
	return v
}
