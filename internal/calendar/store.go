package calendar

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("event not found")
	ErrEmptyTitle = errors.New("title must not be empty")
)

// Store holds every event grouped by date. Buckets keep insertion order and
// an emptied bucket is dropped. It is not safe for concurrent use; the UI
// owns it on a single goroutine.
type Store struct {
	byDate map[Date][]*Event
	index  map[string]Date // event ID -> bucket
}

func NewStore() *Store {
	return &Store{
		byDate: make(map[Date][]*Event),
		index:  make(map[string]Date),
	}
}

// Add appends e to its date's bucket. Events without an ID get one, and an
// ID already in the store is replaced so two field-identical events stay
// distinct entries. Adding a pointer the store already holds stores a copy
// under a fresh ID, leaving the held event untouched.
func (s *Store) Add(e *Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if _, taken := s.index[e.ID]; taken {
		if held, _ := s.Get(e.ID); held == e {
			c := *e
			e = &c
		}
		e.ID = uuid.NewString()
	}
	s.byDate[e.Date] = append(s.byDate[e.Date], e)
	s.index[e.ID] = e.Date
}

func (s *Store) AddAll(events []*Event) {
	for _, e := range events {
		s.Add(e)
	}
}

// ListFor returns a copy of the events on d. It never creates a bucket.
func (s *Store) ListFor(d Date) []*Event {
	bucket := s.byDate[d]
	if len(bucket) == 0 {
		return nil
	}
	out := make([]*Event, len(bucket))
	copy(out, bucket)
	return out
}

func (s *Store) Get(id string) (*Event, bool) {
	d, ok := s.index[id]
	if !ok {
		return nil, false
	}
	for _, e := range s.byDate[d] {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// Remove deletes the event with the given ID and reports whether it was
// present.
func (s *Store) Remove(id string) bool {
	d, ok := s.index[id]
	if !ok {
		return false
	}
	bucket := s.byDate[d]
	for i, e := range bucket {
		if e.ID != id {
			continue
		}
		bucket = append(bucket[:i], bucket[i+1:]...)
		if len(bucket) == 0 {
			delete(s.byDate, d)
		} else {
			s.byDate[d] = bucket
		}
		delete(s.index, id)
		return true
	}
	return false
}

// Rename changes an event's title in place.
func (s *Store) Rename(id, title string) error {
	if title == "" {
		return ErrEmptyTitle
	}
	e, ok := s.Get(id)
	if !ok {
		return ErrNotFound
	}
	e.Title = title
	return nil
}

// Dates returns every date holding at least one event, ascending.
func (s *Store) Dates() []Date {
	dates := make([]Date, 0, len(s.byDate))
	for d := range s.byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// All flattens the store: dates ascending, insertion order within a date.
func (s *Store) All() []*Event {
	out := make([]*Event, 0, len(s.index))
	for _, d := range s.Dates() {
		out = append(out, s.byDate[d]...)
	}
	return out
}

func (s *Store) Len() int {
	return len(s.index)
}

// CountInMonth tallies events per category for one month, busiest first.
func (s *Store) CountInMonth(year int, month time.Month) []CategoryCount {
	counts := make(map[string]int)
	for d, bucket := range s.byDate {
		if d.Year != year || d.Month != month {
			continue
		}
		for _, e := range bucket {
			counts[e.Category]++
		}
	}
	out := make([]CategoryCount, 0, len(counts))
	for cat, n := range counts {
		out = append(out, CategoryCount{Category: cat, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// CheckReminders returns the titles of events on d whose time equals c to
// the second.
func (s *Store) CheckReminders(d Date, c Clock) []string {
	var titles []string
	for _, e := range s.byDate[d] {
		if e.Time == c {
			titles = append(titles, e.Title)
		}
	}
	return titles
}
