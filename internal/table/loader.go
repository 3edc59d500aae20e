package table

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/MobilityData/gtfs-validator-sub012/internal/csvtable"
	"github.com/MobilityData/gtfs-validator-sub012/internal/notice"
	"github.com/MobilityData/gtfs-validator-sub012/internal/parsing"
	"github.com/MobilityData/gtfs-validator-sub012/internal/schema"
)

// ProgressInterval is how many rows are parsed between progress log lines.
const ProgressInterval = 200000

// Observer receives load statistics. Implementations must be safe for
// concurrent use because tables load in parallel.
type Observer interface {
	TableLoaded(filename string, status Status, rows int, elapsed time.Duration)
	CacheStats(filename, column string, stats parsing.CacheStats)
}

// LoadDeps are the collaborators of one table load.
type LoadDeps struct {
	// Notices receives every notice of the load. Required.
	Notices *notice.Container
	// FieldValidator checks cell hygiene and formats. Nil disables those checks.
	FieldValidator parsing.FieldValidator
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Observer is optional.
	Observer Observer
}

func (d LoadDeps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// LoadMissing returns the container for a table absent from the feed and
// reports it when the table is required or recommended.
func LoadMissing(desc *schema.TableDescriptor, sink *notice.Container) *Container {
	switch {
	case desc.Required:
		sink.AddValidationNotice(notice.MissingRequiredFile(desc.Filename))
	case desc.Recommended:
		sink.AddValidationNotice(notice.MissingRecommendedFile(desc.Filename))
	}
	return ForStatus(desc, MissingFile)
}

// LoadFailed returns the container for a member whose stream could not be opened.
func LoadFailed(desc *schema.TableDescriptor, err error, sink *notice.Container) *Container {
	sink.AddValidationNotice(notice.CsvParsingFailed(desc.Filename, err))
	return ForStatus(desc, InvalidHeaders)
}

// Load parses one table from r.
//
// The result is a parsed container, or the failure container of the first
// state that applies: an unreadable header gives INVALID_HEADERS, a stream
// without a header row gives EMPTY_FILE, a rejected header gives
// INVALID_HEADERS, and any fatal row gives UNPARSABLE_ROWS. Loading continues
// past fatal rows so that every notice of the table is reported.
func Load(desc *schema.TableDescriptor, r io.Reader, deps LoadDeps) *Container {
	start := time.Now()
	l := &loader{desc: desc, deps: deps, log: deps.logger().With("table", desc.Filename)}
	c := l.load(r)
	if deps.Observer != nil {
		deps.Observer.TableLoaded(desc.Filename, c.Status(), l.rows, time.Since(start))
	}
	return c
}

type loader struct {
	desc *schema.TableDescriptor
	deps LoadDeps
	log  *slog.Logger
	rows int
}

func (l *loader) load(r io.Reader) *Container {
	sink := l.deps.Notices

	tbl, err := csvtable.Open(r, l.desc.Filename)
	if err != nil {
		return LoadFailed(l.desc, err, sink)
	}
	if tbl.IsEmpty() {
		sink.AddValidationNotice(notice.EmptyFile(l.desc.Filename))
		return ForStatus(l.desc, EmptyFile)
	}

	header := tbl.Header()
	if !ValidateHeaders(l.desc, header, sink) {
		return ForStatus(l.desc, InvalidHeaders)
	}

	columns := make([]int, len(l.desc.Columns))
	for i, col := range l.desc.Columns {
		columns[i] = header.ColumnIndex(col.Name)
	}
	caches := newColumnCaches(l.desc)
	parser := parsing.NewRowParser(l.desc.Filename, header, l.deps.FieldValidator, sink)

	var entities []*Entity
	fatal := false
	for {
		row, err := tbl.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			sink.AddValidationNotice(notice.CsvParsingFailed(l.desc.Filename, err))
			fatal = true
			break
		}
		l.rows++
		if l.rows%ProgressInterval == 0 {
			l.log.Info("loading rows", "row", row.Number(), "bytes", tbl.BytesRead())
		}

		parser.SetRow(row)
		lengthOK := parser.CheckRowLength()

		values := make([]any, len(l.desc.Columns))
		for i, col := range l.desc.Columns {
			values[i] = caches.intern(i, parseColumn(parser, col, columns[i]))
		}

		if !lengthOK || parser.HasErrorsInRequiredFields() {
			fatal = true
			entities = nil
			continue
		}
		if !fatal {
			entities = append(entities, NewEntity(l.desc, row.Number(), values))
		}
	}

	caches.report(l.desc.Filename, l.log, l.deps.Observer)

	if fatal {
		l.log.Error("table has unparsable rows", "rows", l.rows)
		return ForStatus(l.desc, UnparsableRows)
	}
	if l.desc.SingleRow && len(entities) > 1 {
		sink.AddValidationNotice(notice.MoreThanOneEntity(l.desc.Filename, len(entities)))
	}
	return NewContainer(l.desc, header, entities)
}

// parseColumn reads one declared column of the current row. A column absent
// from the header parses as an absent value.
func parseColumn(p *parsing.RowParser, col schema.ColumnDescriptor, idx int) any {
	level := col.Level
	var (
		v  any
		ok bool
	)
	switch col.Type {
	case schema.FieldText:
		if col.MixedCase {
			v, ok = p.AsMixedCaseText(idx, level)
		} else {
			v, ok = p.AsText(idx, level)
		}
	case schema.FieldID:
		v, ok = p.AsID(idx, level)
	case schema.FieldURL:
		v, ok = p.AsURL(idx, level)
	case schema.FieldEmail:
		v, ok = p.AsEmail(idx, level)
	case schema.FieldPhoneNumber:
		v, ok = p.AsPhoneNumber(idx, level)
	case schema.FieldLanguageCode:
		v, ok = p.AsLanguageCode(idx, level)
	case schema.FieldTimezone:
		v, ok = p.AsTimezone(idx, level)
	case schema.FieldCurrencyCode:
		v, ok = p.AsCurrencyCode(idx, level)
	case schema.FieldInteger:
		v, ok = p.AsIntegerBounded(idx, level, col.Bounds)
	case schema.FieldFloat:
		v, ok = p.AsFloatBounded(idx, level, col.Bounds)
	case schema.FieldDecimal:
		v, ok = p.AsDecimalBounded(idx, level, col.Bounds)
	case schema.FieldLatitude:
		v, ok = p.AsLatitude(idx, level)
	case schema.FieldLongitude:
		v, ok = p.AsLongitude(idx, level)
	case schema.FieldColor:
		v, ok = p.AsColor(idx, level)
	case schema.FieldDate:
		v, ok = p.AsDate(idx, level)
	case schema.FieldTime:
		v, ok = p.AsTime(idx, level)
	case schema.FieldBoolean:
		v, ok = p.AsBoolean(idx, level)
	case schema.FieldEnum:
		v, ok = p.AsEnum(idx, level, col.KnownEnum)
	default:
		v, ok = p.AsText(idx, level)
	}
	if !ok {
		return nil
	}
	return v
}

// columnCaches holds the FieldCaches of one table load, one per cached
// column. They are never shared with another load.
type columnCaches struct {
	names   map[int]string
	strings map[int]*parsing.FieldCache[string]
	dates   map[int]*parsing.FieldCache[parsing.Date]
	times   map[int]*parsing.FieldCache[parsing.Time]
}

func newColumnCaches(desc *schema.TableDescriptor) *columnCaches {
	c := &columnCaches{
		names:   make(map[int]string),
		strings: make(map[int]*parsing.FieldCache[string]),
		dates:   make(map[int]*parsing.FieldCache[parsing.Date]),
		times:   make(map[int]*parsing.FieldCache[parsing.Time]),
	}
	for i, col := range desc.Columns {
		if !col.Cached {
			continue
		}
		switch col.Type {
		case schema.FieldDate:
			c.dates[i] = parsing.NewFieldCache[parsing.Date]()
		case schema.FieldTime:
			c.times[i] = parsing.NewFieldCache[parsing.Time]()
		case schema.FieldText, schema.FieldID, schema.FieldURL, schema.FieldEmail, schema.FieldPhoneNumber:
			c.strings[i] = parsing.NewFieldCache[string]()
		default:
			continue
		}
		c.names[i] = col.Name
	}
	return c
}

func (c *columnCaches) intern(col int, v any) any {
	if cache, ok := c.strings[col]; ok {
		s, _ := v.(string)
		return derefOrNil(cache.InternOrNull(ptrOrNil(s, v != nil)))
	}
	if cache, ok := c.dates[col]; ok {
		d, _ := v.(parsing.Date)
		return derefOrNil(cache.InternOrNull(ptrOrNil(d, v != nil)))
	}
	if cache, ok := c.times[col]; ok {
		t, _ := v.(parsing.Time)
		return derefOrNil(cache.InternOrNull(ptrOrNil(t, v != nil)))
	}
	return v
}

func ptrOrNil[T any](v T, present bool) *T {
	if !present {
		return nil
	}
	return &v
}

func derefOrNil[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func (c *columnCaches) report(filename string, log *slog.Logger, obs Observer) {
	emit := func(col int, stats parsing.CacheStats) {
		log.Debug("field cache",
			"column", c.names[col],
			"lookups", stats.Lookups,
			"hits", stats.Hits,
			"size", stats.Size,
		)
		if obs != nil {
			obs.CacheStats(filename, c.names[col], stats)
		}
	}
	for col, cache := range c.strings {
		emit(col, cache.Stats())
	}
	for col, cache := range c.dates {
		emit(col, cache.Stats())
	}
	for col, cache := range c.times {
		emit(col, cache.Stats())
	}
}
