package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/calendr/internal/calendar"
)

// overviewModel charts events per day for one month, stacked by category.
type overviewModel struct {
	events *calendar.Store
	width  int
	height int

	month  calendar.Date // day is always 1
	counts []calendar.CategoryCount
	total  int

	chart barchart.Model
}

func newOverviewModel(events *calendar.Store) overviewModel {
	return overviewModel{
		events: events,
		month:  firstOfMonth(calendar.Today()),
		chart:  barchart.New(60, 12),
	}
}

func firstOfMonth(d calendar.Date) calendar.Date {
	return calendar.Date{Year: d.Year, Month: d.Month, Day: 1}
}

func (o *overviewModel) setSize(w, h int) {
	o.width = w
	o.height = h
}

// show recomputes totals and the chart for d's month. The event store is
// read on the UI goroutine only.
func (o *overviewModel) show(d calendar.Date) {
	o.month = firstOfMonth(d)
	o.counts = o.events.CountInMonth(o.month.Year, o.month.Month)
	o.total = 0
	for _, c := range o.counts {
		o.total += c.Count
	}
	o.buildChart()
}

func (o overviewModel) update(msg tea.Msg) (overviewModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Left), key.Matches(msg, keys.PrevMonth):
			o.show(o.month.AddMonths(-1))
		case key.Matches(msg, keys.Right), key.Matches(msg, keys.NextMonth):
			o.show(o.month.AddMonths(1))
		case key.Matches(msg, keys.Today):
			o.show(calendar.Today())
		}
	}
	return o, nil
}

// dayBars returns one bar per day of the month, each stacked by category in
// first-seen order.
func (o overviewModel) dayBars() []barchart.BarData {
	days := o.month.DaysInMonth()
	bars := make([]barchart.BarData, 0, days)
	for day := 1; day <= days; day++ {
		d := calendar.Date{Year: o.month.Year, Month: o.month.Month, Day: day}

		var order []string
		perCat := make(map[string]int)
		for _, e := range o.events.ListFor(d) {
			if _, seen := perCat[e.Category]; !seen {
				order = append(order, e.Category)
			}
			perCat[e.Category]++
		}

		var values []barchart.BarValue
		for _, cat := range order {
			values = append(values, barchart.BarValue{
				Name:  cat,
				Value: float64(perCat[cat]),
				Style: lipgloss.NewStyle().Foreground(categoryColor(cat)),
			})
		}
		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}

		bars = append(bars, barchart.BarData{
			Label:  strconv.Itoa(day),
			Values: values,
		})
	}
	return bars
}

func (o *overviewModel) buildChart() {
	chartWidth := max(o.width-8, 40)
	chartHeight := 12
	if o.height > 30 {
		chartHeight = 16
	}

	o.chart = barchart.New(chartWidth, chartHeight)
	o.chart.PushAll(o.dayBars())
	o.chart.Draw()
}

func (o overviewModel) view() string {
	w := o.width - 4

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Overview"), "  ",
		mutedStyle.Render(o.month.In(time.Local).Format("January 2006")),
	)

	nav := mutedStyle.Render("  ←/→: month  t: this month")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", o.chart.View(), "", o.renderLegend(), "", o.renderTotals(w), "", nav,
		),
	)
}

func (o overviewModel) renderTotals(w int) string {
	if len(o.counts) == 0 {
		return mutedStyle.Render("  No events this month")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-20s %8s", "Category", "Events")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 29))))
	for _, c := range o.counts {
		dot := lipgloss.NewStyle().Foreground(categoryColor(c.Category)).Render("●")
		rows = append(rows, fmt.Sprintf("  %s %-18s %8d", dot, c.Category, c.Count))
	}
	rows = append(rows, fmt.Sprintf("  %-20s %8d", "Total", o.total))
	return strings.Join(rows, "\n")
}

func (o overviewModel) renderLegend() string {
	var items []string
	for _, c := range o.counts {
		dot := lipgloss.NewStyle().Foreground(categoryColor(c.Category)).Render("●")
		items = append(items, fmt.Sprintf("%s %s", dot, c.Category))
	}
	if len(items) == 0 {
		return ""
	}
	return "  " + strings.Join(items, "  ")
}
