package parsing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Date is a calendar day without a time zone, written YYYYMMDD in feeds.
type Date struct {
	year  int
	month time.Month
	day   int
}

// NewDate builds a date from its parts. Out-of-range parts are normalized
// the way time.Date normalizes them.
func NewDate(year int, month time.Month, day int) Date {
	return DateFromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateFromTime returns the calendar day of t in t's location.
func DateFromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{year: y, month: m, day: d}
}

// ParseDate parses exactly eight digits as YYYYMMDD.
func ParseDate(s string) (Date, error) {
	if len(s) != 8 || !allDigits(s) {
		return Date{}, fmt.Errorf("date %q: want YYYYMMDD", s)
	}
	t, err := time.Parse("20060102", s)
	if err != nil {
		return Date{}, fmt.Errorf("date %q: %w", s, err)
	}
	return DateFromTime(t), nil
}

func (d Date) Year() int          { return d.year }
func (d Date) Month() time.Month  { return d.month }
func (d Date) Day() int           { return d.day }
func (d Date) IsZero() bool       { return d == Date{} }
func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

// Compare returns -1, 0 or 1.
func (d Date) Compare(o Date) int {
	switch {
	case d.year != o.year:
		return cmpInt(d.year, o.year)
	case d.month != o.month:
		return cmpInt(int(d.month), int(o.month))
	default:
		return cmpInt(d.day, o.day)
	}
}

// String formats the date as YYYYMMDD.
func (d Date) String() string {
	return fmt.Sprintf("%04d%02d%02d", d.year, int(d.month), d.day)
}

// Time is a time of the service day. Hours may exceed 23 for trips that run
// past midnight, so it is stored as seconds since midnight.
type Time struct {
	seconds int
}

// TimeFromSeconds builds a time from seconds since midnight.
func TimeFromSeconds(seconds int) Time {
	return Time{seconds: seconds}
}

// ParseTime parses H:MM:SS or HH:MM:SS. The hour has no upper bound.
func ParseTime(s string) (Time, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 || len(parts[0]) == 0 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return Time{}, fmt.Errorf("time %q: want HH:MM:SS", s)
	}
	for _, p := range parts {
		if !allDigits(p) {
			return Time{}, fmt.Errorf("time %q: want HH:MM:SS", s)
		}
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return Time{}, fmt.Errorf("time %q: %w", s, err)
	}
	if h > (math.MaxInt-3599)/3600 {
		return Time{}, fmt.Errorf("time %q: hour out of range", s)
	}
	m, _ := strconv.Atoi(parts[1])
	sec, _ := strconv.Atoi(parts[2])
	if m > 59 || sec > 59 {
		return Time{}, fmt.Errorf("time %q: minutes and seconds must be below 60", s)
	}
	return Time{seconds: h*3600 + m*60 + sec}, nil
}

func (t Time) SecondsSinceMidnight() int { return t.seconds }
func (t Time) Hour() int                 { return t.seconds / 3600 }
func (t Time) Minute() int               { return t.seconds / 60 % 60 }
func (t Time) Second() int               { return t.seconds % 60 }
func (t Time) Before(o Time) bool        { return t.seconds < o.seconds }
func (t Time) After(o Time) bool         { return t.seconds > o.seconds }

// String formats the time as HH:MM:SS.
func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
}

// Color is an RGB color such as a route's background.
type Color struct {
	rgb int
}

// ColorFromRGB builds a color from a 0xRRGGBB value.
func ColorFromRGB(rgb int) Color {
	return Color{rgb: rgb & 0xFFFFFF}
}

// ParseColor parses six hexadecimal digits with an optional leading '#'.
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("color %q: want RRGGBB", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("color %q: %w", s, err)
	}
	return Color{rgb: int(v)}, nil
}

func (c Color) RGB() int { return c.rgb }

// Luma returns the perceived brightness in [0, 255].
func (c Color) Luma() float64 {
	r := float64(c.rgb >> 16 & 0xFF)
	g := float64(c.rgb >> 8 & 0xFF)
	b := float64(c.rgb & 0xFF)
	return 0.299*r + 0.587*g + 0.114*b
}

// String formats the color as upper-case RRGGBB.
func (c Color) String() string {
	return fmt.Sprintf("%06X", c.rgb)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
