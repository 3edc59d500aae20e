package table

import (
	"sort"

	"github.com/MobilityData/gtfs-validator-sub012/internal/schema"
)

// Feed is the set of loaded tables of one run. It is built once every table
// has a terminal status and is read-only afterwards.
type Feed struct {
	tables  map[string]*Container
	ordered []*Container
}

// NewFeed indexes containers by filename. A later container replaces an
// earlier one with the same filename.
func NewFeed(containers []*Container) *Feed {
	f := &Feed{tables: make(map[string]*Container, len(containers))}
	for _, c := range containers {
		f.tables[schema.Key(c.Filename())] = c
	}
	f.ordered = make([]*Container, 0, len(f.tables))
	for _, c := range f.tables {
		f.ordered = append(f.ordered, c)
	}
	sort.Slice(f.ordered, func(i, j int) bool {
		return schema.Key(f.ordered[i].Filename()) < schema.Key(f.ordered[j].Filename())
	})
	return f
}

// Table returns the container for filename, ignoring case.
func (f *Feed) Table(filename string) (*Container, bool) {
	c, ok := f.tables[schema.Key(filename)]
	return c, ok
}

// Tables returns every container ordered by filename.
func (f *Feed) Tables() []*Container {
	return append([]*Container(nil), f.ordered...)
}

// StatusOf returns the status of filename's table.
func (f *Feed) StatusOf(filename string) (Status, bool) {
	c, ok := f.Table(filename)
	if !ok {
		return 0, false
	}
	return c.Status(), true
}

// IsParsed reports whether filename's table loaded without fatal rows.
func (f *Feed) IsParsed(filename string) bool {
	c, ok := f.Table(filename)
	return ok && c.IsParsed()
}

// StatusSummary maps each filename to its status.
func (f *Feed) StatusSummary() map[string]Status {
	out := make(map[string]Status, len(f.ordered))
	for _, c := range f.ordered {
		out[c.Filename()] = c.Status()
	}
	return out
}
