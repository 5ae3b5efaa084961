package tui

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/calendr/internal/calendar"
	"github.com/sadopc/calendr/internal/prefs"
	"github.com/sadopc/calendr/internal/reminder"
)

// Options configure an App. Zero values are usable.
type Options struct {
	// ResolvePath turns a typed path into the one opened. Nil means
	// filepath.Clean.
	ResolvePath func(string) string

	// DefaultDir holds events.json and exports until a file has been used.
	DefaultDir string

	// OpenPath is loaded at startup when set.
	OpenPath string

	Logger *slog.Logger
}

// App is the root Bubble Tea model.
type App struct {
	events *calendar.Store
	prefs  *prefs.Store
	opts   Options
	logger *slog.Logger
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int
	prompt        filePrompt

	calendar calendarModel
	overview overviewModel
	settings settingsModel

	help      help.Model
	status    string
	statusErr bool
}

func NewApp(events *calendar.Store, p *prefs.Store, opts Options) App {
	h := help.New()
	h.ShowAll = false

	if opts.ResolvePath == nil {
		opts.ResolvePath = filepath.Clean
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return App{
		events:     events,
		prefs:      p,
		opts:       opts,
		logger:     logger,
		activeView: viewCalendar,
		prompt:     newFilePrompt(),
		calendar:   newCalendarModel(events, p),
		overview:   newOverviewModel(events),
		settings:   newSettingsModel(p),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		a.calendar.refresh(),
		a.settings.refresh(),
		reminderCmd(),
	}
	if a.opts.OpenPath != "" {
		cmds = append(cmds, loadCmd(a.prefs, a.logger, a.opts.ResolvePath(a.opts.OpenPath)))
	}
	return tea.Batch(cmds...)
}

// reminderCmd fires on wall-clock minute boundaries.
func reminderCmd() tea.Cmd {
	return tea.Every(time.Minute, func(t time.Time) tea.Msg {
		return reminderTickMsg{at: t}
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.calendar.setSize(a.width, contentHeight)
		a.overview.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		if a.activeView == viewOverview {
			a.overview.show(a.overview.month)
		}
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.prompt.active {
			return a.updatePrompt(msg)
		}
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Save):
			return a.openPrompt(prefs.KindSave)
		case key.Matches(msg, keys.Open):
			return a.openPrompt(prefs.KindLoad)
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchTo(viewCalendar)
		case key.Matches(msg, keys.Tab2):
			return a.switchTo(viewOverview)
		case key.Matches(msg, keys.Tab3):
			return a.switchTo(viewSettings)
		case key.Matches(msg, keys.Tab):
			return a.switchTo((a.activeView + 1) % viewState(len(viewNames)))
		}

	case reminderTickMsg:
		if msgs := reminder.Due(a.events, msg.at); len(msgs) > 0 {
			for _, m := range msgs {
				a.logger.Info("reminder", "message", m, "at", msg.at.Format(time.DateTime))
			}
			a.status = strings.Join(msgs, "  ")
			a.statusErr = false
		}
		return a, reminderCmd()

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil

	case fileSavedMsg:
		a.status = "Saved " + pluralEvents(msg.count) + " to " + msg.path
		a.statusErr = false
		return a, nil

	case fileLoadedMsg:
		a.events.AddAll(msg.events)
		a.status = "Loaded " + pluralEvents(len(msg.events)) + " from " + msg.path
		a.statusErr = false
		var cmd tea.Cmd
		a.calendar, cmd = a.calendar.update(msg)
		if a.activeView == viewOverview {
			a.overview.show(a.overview.month)
		}
		return a, cmd

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusErr = false
		a.exportPicking = false
		return a, nil

	case settingsSavedMsg:
		a.status = "Settings saved"
		a.statusErr = false
		return a, a.calendar.refresh()

	case calendarPrefsMsg:
		var cmd tea.Cmd
		a.calendar, cmd = a.calendar.update(msg)
		return a, cmd

	case settingsDataMsg:
		var cmd tea.Cmd
		a.settings, cmd = a.settings.update(msg)
		return a, cmd
	}

	if a.prompt.active {
		return a.updatePrompt(msg)
	}
	return a.updateActiveView(msg)
}

func pluralEvents(n int) string {
	if n == 1 {
		return "1 event"
	}
	return fmt.Sprintf("%d events", n)
}

func (a App) switchTo(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	switch v {
	case viewCalendar:
		return a, a.calendar.refresh()
	case viewOverview:
		a.overview.show(a.calendar.selected)
	case viewSettings:
		return a, a.settings.refresh()
	}
	return a, nil
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewCalendar:
		a.calendar, cmd = a.calendar.update(msg)
	case viewOverview:
		a.overview, cmd = a.overview.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	if a.prompt.active {
		return true
	}
	switch a.activeView {
	case viewCalendar:
		return a.calendar.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

// --- File prompt ---

func (a App) defaultFile() string {
	if last := a.prefs.LastFile(); last != "" {
		return last
	}
	return filepath.Join(exportDir(a.prefs, a.opts.DefaultDir), defaultFileName)
}

func (a App) openPrompt(kind string) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	a.prompt, cmd = a.prompt.open(kind, a.defaultFile(), recentPaths(a.prefs, a.logger, kind))
	return a, cmd
}

func (a App) updatePrompt(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			a.prompt.close()
			return a, nil
		}
	}

	form, cmd := a.prompt.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.prompt.form = f
	}

	switch a.prompt.form.State {
	case huh.StateCompleted:
		path := a.opts.ResolvePath(*a.prompt.path)
		kind := a.prompt.kind
		a.prompt.close()
		if kind == prefs.KindLoad {
			return a, loadCmd(a.prefs, a.logger, path)
		}
		return a, saveCmd(a.prefs, a.logger, path, snapshot(a.events.All()))
	case huh.StateAborted:
		a.prompt.close()
		return a, nil
	}
	return a, cmd
}

// --- Rendering ---

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewCalendar:
		content = a.calendar.view()
	case viewOverview:
		content = a.overview.view()
	case viewSettings:
		content = a.settings.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(a.height-headerHeight-footerHeight, 1)

	// Overlays
	if a.exportPicking {
		content = a.renderExportPicker()
	} else if a.prompt.active {
		content = a.prompt.view(a.width - 4)
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("calendr")
	gap := max(a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := successStyle
		if a.statusErr {
			style = errorStyle
		} else if strings.HasPrefix(a.status, reminder.Message("")) {
			style = warningStyle
		}
		status = style.Render(" " + a.status)
	}

	left := footerStyle.Render(helpView)
	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(status)-2, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, status)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f.name))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		dir := exportDir(a.prefs, a.opts.DefaultDir)
		return a, exportCmd(a.prefs, a.logger, a.exportCursor, dir, snapshot(a.events.All()), time.Now())
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}
