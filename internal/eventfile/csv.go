package eventfile

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/sadopc/calendr/internal/calendar"
)

var csvHeader = []string{"ID", "Date", "Time", "Title", "Category", "Color", "Recurrence", "Description"}

func ToCSV(events []*calendar.Event, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, e := range events {
		row := []string{
			e.ID,
			e.Date.String(),
			e.Time.String(),
			e.Title,
			e.Category,
			e.Color.Hex(),
			string(e.Recurrence),
			e.Description,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
