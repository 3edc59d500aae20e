// Package parsing converts raw CSV cells into typed values.
//
// A RowParser is bound to one table and walks its rows one at a time. Every
// accessor either returns a value or records a notice and reports the value
// as absent; none of them fails the load. The parser remembers whether a
// problem hit a REQUIRED field so the loader can decide if the row is fatal.
package parsing

import (
	"math"
	"regexp"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"

	"github.com/MobilityData/gtfs-validator-sub012/internal/csvtable"
	"github.com/MobilityData/gtfs-validator-sub012/internal/notice"
	"github.com/MobilityData/gtfs-validator-sub012/internal/schema"
)

// decimalRegex matches plain decimals and scientific notation.
var decimalRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// RowParser parses the cells of the current row of one table.
type RowParser struct {
	filename string
	header   *csvtable.Header
	fields   FieldValidator
	country  string
	sink     *notice.Container

	row              csvtable.Row
	errorsInRequired bool

	zones map[string]*time.Location
}

// NewRowParser creates a parser for one table. fieldValidator may be nil to
// skip cell hygiene checks; URL, email and phone formats are always checked.
// Phone numbers use the validator's country when it exposes one.
func NewRowParser(filename string, header *csvtable.Header, fieldValidator FieldValidator, sink *notice.Container) *RowParser {
	country := UnknownCountry
	if c, ok := fieldValidator.(interface{ CountryCode() string }); ok {
		country = c.CountryCode()
	}
	return &RowParser{
		filename: filename,
		header:   header,
		fields:   fieldValidator,
		country:  country,
		sink:     sink,
		zones:    make(map[string]*time.Location),
	}
}

// SetRow makes row current and clears the required-field error flag.
func (p *RowParser) SetRow(row csvtable.Row) {
	p.row = row
	p.errorsInRequired = false
}

// HasErrorsInRequiredFields reports whether a REQUIRED field of the current
// row was missing or unusable.
func (p *RowParser) HasErrorsInRequiredFields() bool {
	return p.errorsInRequired
}

// CheckRowLength reports invalid_row_length and returns false when the row's
// cell count differs from the header's.
func (p *RowParser) CheckRowLength() bool {
	if p.row.ColumnCount() == p.header.ColumnCount() {
		return true
	}
	p.sink.AddValidationNotice(notice.InvalidRowLength(
		p.filename, p.row.Number(), p.row.ColumnCount(), p.header.ColumnCount()))
	return false
}

func (p *RowParser) cell(col int) CellContext {
	return CellContext{Filename: p.filename, RowNumber: p.row.Number(), FieldName: p.header.ColumnName(col)}
}

func (p *RowParser) addErrorInRow(level schema.FieldLevel, n notice.Notice) {
	p.flag(level)
	p.sink.AddValidationNotice(n)
}

func (p *RowParser) flag(level schema.FieldLevel) {
	if level == schema.Required {
		p.errorsInRequired = true
	}
}

// asString returns the cell after hygiene checks. A missing REQUIRED value
// is reported.
func (p *RowParser) asString(col int, level schema.FieldLevel) (string, bool) {
	s, ok := p.row.Cell(col)
	if ok && p.fields != nil {
		s = p.fields.ValidateField(s, p.cell(col), p.sink)
		ok = s != ""
	}
	if !ok {
		if level == schema.Required {
			p.addErrorInRow(level, notice.MissingRequiredField(p.filename, p.row.Number(), p.header.ColumnName(col)))
		}
		return "", false
	}
	return s, true
}

func (p *RowParser) parsingError(col int, level schema.FieldLevel, format, value string) {
	p.addErrorInRow(level, notice.FieldParsingError(p.filename, p.row.Number(), p.header.ColumnName(col), format, value))
}

func (p *RowParser) outOfRange(col int, level schema.FieldLevel, fieldType string, value any) {
	p.addErrorInRow(level, notice.NumberOutOfRange(p.filename, p.row.Number(), p.header.ColumnName(col), fieldType, value))
}

// AsText returns a free-text value.
func (p *RowParser) AsText(col int, level schema.FieldLevel) (string, bool) {
	return p.asString(col, level)
}

// AsMixedCaseText returns a free-text value expected to mix upper and lower case.
// A single-case value is reported but kept.
func (p *RowParser) AsMixedCaseText(col int, level schema.FieldLevel) (string, bool) {
	s, ok := p.asString(col, level)
	if ok && p.fields != nil {
		p.fields.ValidateMixedCase(s, p.cell(col), p.sink)
	}
	return s, ok
}

// AsID returns an identifier. Non-printable characters are reported but kept.
func (p *RowParser) AsID(col int, level schema.FieldLevel) (string, bool) {
	s, ok := p.asString(col, level)
	if ok && p.fields != nil {
		p.fields.ValidateID(s, p.cell(col), p.sink)
	}
	return s, ok
}

// formatted returns the cell when valid accepts it; otherwise the value is
// reported as a field parsing error in format and is absent.
func (p *RowParser) formatted(col int, level schema.FieldLevel, format string, valid func(string) bool) (string, bool) {
	s, ok := p.asString(col, level)
	if !ok {
		return "", false
	}
	if !valid(s) {
		p.parsingError(col, level, format, s)
		return "", false
	}
	return s, true
}

// AsURL returns an http or https URL with a host.
func (p *RowParser) AsURL(col int, level schema.FieldLevel) (string, bool) {
	return p.formatted(col, level, "URL", IsValidURL)
}

// AsEmail returns a bare email address.
func (p *RowParser) AsEmail(col int, level schema.FieldLevel) (string, bool) {
	return p.formatted(col, level, "email", IsValidEmail)
}

// AsPhoneNumber returns a phone number that is possible for the parser's country.
func (p *RowParser) AsPhoneNumber(col int, level schema.FieldLevel) (string, bool) {
	return p.formatted(col, level, "phone number", func(s string) bool {
		return IsPossiblePhoneNumber(s, p.country)
	})
}

// AsLanguageCode parses a BCP 47 language tag.
func (p *RowParser) AsLanguageCode(col int, level schema.FieldLevel) (language.Tag, bool) {
	s, ok := p.asString(col, level)
	if !ok {
		return language.Und, false
	}
	tag, err := language.Parse(s)
	if err != nil {
		p.parsingError(col, level, "language code", s)
		return language.Und, false
	}
	return tag, true
}

// AsTimezone resolves an IANA time zone name.
func (p *RowParser) AsTimezone(col int, level schema.FieldLevel) (*time.Location, bool) {
	s, ok := p.asString(col, level)
	if !ok {
		return nil, false
	}
	if loc, cached := p.zones[s]; cached {
		return loc, true
	}
	if s == "Local" {
		p.parsingError(col, level, "timezone", s)
		return nil, false
	}
	loc, err := time.LoadLocation(s)
	if err != nil {
		p.parsingError(col, level, "timezone", s)
		return nil, false
	}
	p.zones[s] = loc
	return loc, true
}

// AsCurrencyCode parses an ISO 4217 currency code.
func (p *RowParser) AsCurrencyCode(col int, level schema.FieldLevel) (currency.Unit, bool) {
	s, ok := p.asString(col, level)
	if !ok {
		return currency.Unit{}, false
	}
	unit, err := currency.ParseISO(s)
	if err != nil {
		p.parsingError(col, level, "currency code", s)
		return currency.Unit{}, false
	}
	return unit, true
}

// AsFloat parses a finite float.
func (p *RowParser) AsFloat(col int, level schema.FieldLevel) (float64, bool) {
	return p.AsFloatBounded(col, level, schema.Unbounded)
}

// AsFloatBounded parses a finite float and checks it against bounds.
func (p *RowParser) AsFloatBounded(col int, level schema.FieldLevel, bounds schema.Bounds) (float64, bool) {
	s, ok := p.asString(col, level)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		p.parsingError(col, level, "float", s)
		return 0, false
	}
	if !withinBounds(sign(v), bounds) {
		p.outOfRange(col, level, boundsName(bounds)+" float", v)
		return 0, false
	}
	return v, true
}

// AsInteger parses a base-10 integer.
func (p *RowParser) AsInteger(col int, level schema.FieldLevel) (int, bool) {
	return p.AsIntegerBounded(col, level, schema.Unbounded)
}

// AsIntegerBounded parses a base-10 integer and checks it against bounds.
func (p *RowParser) AsIntegerBounded(col int, level schema.FieldLevel, bounds schema.Bounds) (int, bool) {
	s, ok := p.asString(col, level)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		p.parsingError(col, level, "integer", s)
		return 0, false
	}
	if !withinBounds(sign(float64(v)), bounds) {
		p.outOfRange(col, level, boundsName(bounds)+" integer", v)
		return 0, false
	}
	return v, true
}

// AsDecimal parses an exact decimal.
func (p *RowParser) AsDecimal(col int, level schema.FieldLevel) (pgtype.Numeric, bool) {
	return p.AsDecimalBounded(col, level, schema.Unbounded)
}

// AsDecimalBounded parses an exact decimal and checks it against bounds.
func (p *RowParser) AsDecimalBounded(col int, level schema.FieldLevel, bounds schema.Bounds) (pgtype.Numeric, bool) {
	s, ok := p.asString(col, level)
	if !ok {
		return pgtype.Numeric{}, false
	}
	n, err := ParseDecimal(s)
	if err != nil {
		p.parsingError(col, level, "decimal", s)
		return pgtype.Numeric{}, false
	}
	if !withinBounds(n.Int.Sign(), bounds) {
		p.outOfRange(col, level, boundsName(bounds)+" decimal", s)
		return pgtype.Numeric{}, false
	}
	return n, true
}

// AsLatitude parses a float in [-90, 90].
func (p *RowParser) AsLatitude(col int, level schema.FieldLevel) (float64, bool) {
	return p.asCoordinate(col, level, "latitude", 90)
}

// AsLongitude parses a float in [-180, 180].
func (p *RowParser) AsLongitude(col int, level schema.FieldLevel) (float64, bool) {
	return p.asCoordinate(col, level, "longitude", 180)
}

func (p *RowParser) asCoordinate(col int, level schema.FieldLevel, format string, limit float64) (float64, bool) {
	s, ok := p.asString(col, level)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || v < -limit || v > limit {
		p.parsingError(col, level, format, s)
		return 0, false
	}
	return v, true
}

// AsColor parses a six-digit hex color.
func (p *RowParser) AsColor(col int, level schema.FieldLevel) (Color, bool) {
	s, ok := p.asString(col, level)
	if !ok {
		return Color{}, false
	}
	c, err := ParseColor(s)
	if err != nil {
		p.parsingError(col, level, "color", s)
		return Color{}, false
	}
	return c, true
}

// AsDate parses a YYYYMMDD date.
func (p *RowParser) AsDate(col int, level schema.FieldLevel) (Date, bool) {
	s, ok := p.asString(col, level)
	if !ok {
		return Date{}, false
	}
	d, err := ParseDate(s)
	if err != nil {
		p.parsingError(col, level, "date", s)
		return Date{}, false
	}
	return d, true
}

// AsTime parses an H:MM:SS or HH:MM:SS time.
func (p *RowParser) AsTime(col int, level schema.FieldLevel) (Time, bool) {
	s, ok := p.asString(col, level)
	if !ok {
		return Time{}, false
	}
	t, err := ParseTime(s)
	if err != nil {
		p.parsingError(col, level, "time", s)
		return Time{}, false
	}
	return t, true
}

// AsBoolean accepts 0 and 1.
func (p *RowParser) AsBoolean(col int, level schema.FieldLevel) (bool, bool) {
	s, ok := p.asString(col, level)
	if !ok {
		return false, false
	}
	switch s {
	case "0":
		return false, true
	case "1":
		return true, true
	default:
		p.parsingError(col, level, "boolean", s)
		return false, false
	}
}

// AsEnum parses an integer enum value. A value that known rejects is
// reported as a warning and still returned; it never marks the row invalid.
func (p *RowParser) AsEnum(col int, level schema.FieldLevel, known func(int) bool) (int, bool) {
	s, ok := p.asString(col, level)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		p.parsingError(col, level, "enum", s)
		return 0, false
	}
	if known != nil && !known(v) {
		p.sink.AddValidationNotice(notice.UnexpectedEnumValue(p.filename, p.row.Number(), p.header.ColumnName(col), v))
	}
	return v, true
}

// ParseDecimal parses s into an exact numeric.
func ParseDecimal(s string) (pgtype.Numeric, error) {
	if !decimalRegex.MatchString(s) {
		return pgtype.Numeric{}, strconv.ErrSyntax
	}
	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		return pgtype.Numeric{}, err
	}
	return n, nil
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func withinBounds(sign int, bounds schema.Bounds) bool {
	switch bounds {
	case schema.Positive:
		return sign > 0
	case schema.NonNegative:
		return sign >= 0
	case schema.NonZero:
		return sign != 0
	default:
		return true
	}
}

func boundsName(bounds schema.Bounds) string {
	switch bounds {
	case schema.Positive:
		return "positive"
	case schema.NonNegative:
		return "non-negative"
	case schema.NonZero:
		return "non-zero"
	default:
		return ""
	}
}
