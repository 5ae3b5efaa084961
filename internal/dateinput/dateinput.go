// Package dateinput reads the dates typed into forms: ISO dates first,
// then English phrases such as "tomorrow" or "next friday".
package dateinput

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/sadopc/calendr/internal/calendar"
)

var ErrNoDate = errors.New("no date found")

var parser = newParser()

func newParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// Parse resolves text relative to base. Blank input yields base's date.
func Parse(text string, base time.Time) (calendar.Date, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return calendar.DateOf(base), nil
	}
	if d, err := calendar.ParseDate(text); err == nil {
		return d, nil
	}

	r, err := parser.Parse(text, base)
	if err != nil {
		return calendar.Date{}, fmt.Errorf("parse date %q: %w", text, err)
	}
	if r == nil {
		return calendar.Date{}, fmt.Errorf("parse date %q: %w", text, ErrNoDate)
	}
	return calendar.DateOf(r.Time), nil
}

// Validate is shaped for huh input validators.
func Validate(text string) error {
	_, err := Parse(text, time.Now())
	return err
}
