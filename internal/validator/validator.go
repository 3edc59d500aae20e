// Package validator defines the validator contracts, the explicit registry
// that replaces discovery, and the provider that binds registered validators
// to loaded tables while recording why the others were skipped.
//
// Validators come in three tiers:
//
//   - single-entity validators check one row of one table,
//   - single-file validators check one whole table,
//   - multi-file validators check relationships across several tables.
//
// A validator is only ever handed tables whose status is
// PARSABLE_HEADERS_AND_ROWS. Validators read tables and append notices; they
// never modify containers.
package validator

import (
	"fmt"
	"strings"
	"time"

	"github.com/MobilityData/gtfs-validator-sub012/internal/notice"
	"github.com/MobilityData/gtfs-validator-sub012/internal/parsing"
	"github.com/MobilityData/gtfs-validator-sub012/internal/schema"
	"github.com/MobilityData/gtfs-validator-sub012/internal/table"
)

// Tier is the capability tier of a validator.
type Tier int

const (
	SingleEntity Tier = iota
	SingleFile
	MultiFile
)

func (t Tier) String() string {
	switch t {
	case SingleEntity:
		return "single-entity"
	case SingleFile:
		return "single-file"
	case MultiFile:
		return "multi-file"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// Context carries the cross-cutting parameters of one validation run.
type Context struct {
	// CountryCode is the upper-case ISO 3166-1 alpha-2 code of the feed,
	// or parsing.UnknownCountry.
	CountryCode string
	// Now is the time the run started.
	Now time.Time
	// DateForValidation is the service date rules compare feed dates against.
	DateForValidation parsing.Date
}

// NewContext normalizes countryCode and derives the validation date from now.
func NewContext(countryCode string, now time.Time) Context {
	cc := strings.ToUpper(strings.TrimSpace(countryCode))
	if cc == "" {
		cc = parsing.UnknownCountry
	}
	return Context{
		CountryCode:       cc,
		Now:               now,
		DateForValidation: parsing.DateFromTime(now),
	}
}

// SingleEntityValidator checks one entity in isolation.
type SingleEntityValidator interface {
	Validate(e *table.Entity, sink *notice.Container)
}

// FileValidator checks one or more whole tables.
type FileValidator interface {
	Validate(sink *notice.Container)
}

// NeedsToRun is implemented by validators that can tell, once bound, that
// there is nothing for them to check.
type NeedsToRun interface {
	ShouldRun() bool
}

// Deps gives a file validator factory the containers it declared.
type Deps struct {
	feed   *table.Feed
	tables map[string]*table.Container
}

// Table returns the declared dependency for filename, or nil when it was not declared.
func (d Deps) Table(filename string) *table.Container {
	return d.tables[schema.Key(filename)]
}

// Feed returns the whole feed. It is nil for single-file validators.
func (d Deps) Feed() *table.Feed {
	return d.feed
}

// Registration describes one validator and how to build it.
type Registration struct {
	// Name identifies the validator in skip reports and system errors.
	Name string
	Tier Tier
	// Table is the table a single-entity or single-file validator is bound to.
	Table string
	// Dependencies are the tables a multi-file validator reads.
	Dependencies []string

	NewEntity func(ctx Context) SingleEntityValidator
	NewFile   func(ctx Context, deps Deps) FileValidator
}

// DependsOn returns the tables the validator needs to be parsable.
func (r Registration) DependsOn() []string {
	if r.Tier == MultiFile {
		return r.Dependencies
	}
	return []string{r.Table}
}
