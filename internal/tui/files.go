package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/calendr/internal/calendar"
	"github.com/sadopc/calendr/internal/eventfile"
	"github.com/sadopc/calendr/internal/prefs"
)

const defaultFileName = "events.json"

// recentLimit caps the recent paths offered as suggestions in the prompt.
const recentLimit = 5

// exportFormats are listed in the export picker, in cursor order.
var exportFormats = []struct {
	name string
	ext  string
	fn   func([]*calendar.Event, string) error
}{
	{"CSV", "csv", eventfile.ToCSV},
	{"iCalendar", "ics", eventfile.ToICS},
}

// filePrompt asks for the path of a save or load.
type filePrompt struct {
	active bool
	kind   string // prefs.KindSave or prefs.KindLoad
	form   *huh.Form
	path   *string
	recent []string
}

func newFilePrompt() filePrompt {
	p := ""
	return filePrompt{path: &p}
}

func validatePath(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("path is required")
	}
	return nil
}

func (f filePrompt) open(kind, initial string, recent []string) (filePrompt, tea.Cmd) {
	*f.path = initial
	f.kind = kind
	f.recent = recent

	title := "Save events to"
	if kind == prefs.KindLoad {
		title = "Load events from"
	}
	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title(title).Value(f.path).Validate(validatePath).
				Suggestions(recent),
		),
	).WithShowHelp(true).WithShowErrors(true)

	f.active = true
	return f, f.form.Init()
}

func (f *filePrompt) close() {
	f.active = false
	f.form = nil
	f.recent = nil
}

func (f filePrompt) view(w int) string {
	heading := "Save"
	if f.kind == prefs.KindLoad {
		heading = "Load"
	}
	parts := []string{titleStyle.Render(heading), "", f.form.View()}
	if len(f.recent) > 0 {
		parts = append(parts, "", mutedStyle.Render("Recent:"))
		for _, r := range f.recent {
			parts = append(parts, mutedStyle.Render("  "+r))
		}
	}
	content := lipgloss.JoinVertical(lipgloss.Left, parts...)
	return activePanelStyle.Width(w).Render(content)
}

// --- Commands ---

func saveCmd(p *prefs.Store, logger *slog.Logger, path string, events []*calendar.Event) tea.Cmd {
	return func() tea.Msg {
		if err := eventfile.Save(path, events); err != nil {
			logger.Error("save events", "path", path, "err", err)
			return statusMsg{text: "Save failed: " + err.Error(), isError: true}
		}
		if err := p.TouchRecent(path, prefs.KindSave); err != nil {
			logger.Warn("record recent file", "path", path, "err", err)
		}
		logger.Info("events saved", "path", path, "count", len(events))
		return fileSavedMsg{path: path, count: len(events)}
	}
}

func loadCmd(p *prefs.Store, logger *slog.Logger, path string) tea.Cmd {
	return func() tea.Msg {
		events, err := eventfile.Load(path)
		if err != nil {
			logger.Error("load events", "path", path, "err", err)
			return statusMsg{text: loadErrorText(path, err), isError: true}
		}
		if err := p.TouchRecent(path, prefs.KindLoad); err != nil {
			logger.Warn("record recent file", "path", path, "err", err)
		}
		logger.Info("events loaded", "path", path, "count", len(events))
		return fileLoadedMsg{path: path, events: events}
	}
}

func loadErrorText(path string, err error) string {
	switch {
	case errors.Is(err, eventfile.ErrRead):
		return fmt.Sprintf("Cannot read %s", path)
	case errors.Is(err, eventfile.ErrMalformed):
		return fmt.Sprintf("Invalid event file %s: %v", path, err)
	default:
		return "Load failed: " + err.Error()
	}
}

func exportCmd(p *prefs.Store, logger *slog.Logger, format int, dir string, events []*calendar.Event, now time.Time) tea.Cmd {
	f := exportFormats[format]
	path := filepath.Join(dir, fmt.Sprintf("calendr-export-%s.%s", now.Format("2006-01-02"), f.ext))
	return func() tea.Msg {
		if err := f.fn(events, path); err != nil {
			logger.Error("export events", "format", f.name, "path", path, "err", err)
			return statusMsg{text: fmt.Sprintf("%s error: %v", f.name, err), isError: true}
		}
		if err := p.TouchRecent(path, prefs.KindExport); err != nil {
			logger.Warn("record recent file", "path", path, "err", err)
		}
		logger.Info("events exported", "format", f.name, "path", path, "count", len(events))
		return exportDoneMsg{path: path}
	}
}

// recentPaths lists the newest paths used for kind. Errors are logged and
// yield no suggestions.
func recentPaths(p *prefs.Store, logger *slog.Logger, kind string) []string {
	files, err := p.ListRecent(kind, recentLimit)
	if err != nil {
		logger.Warn("list recent files", "kind", kind, "err", err)
		return nil
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}

// exportDir is the directory of the last saved or loaded file, falling back
// to fallback and then the home directory.
func exportDir(p *prefs.Store, fallback string) string {
	if last := p.LastFile(); last != "" {
		return filepath.Dir(last)
	}
	if fallback != "" {
		return fallback
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
