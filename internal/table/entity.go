package table

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/MobilityData/gtfs-validator-sub012/internal/parsing"
	"github.com/MobilityData/gtfs-validator-sub012/internal/schema"
)

// Entity is one parsed row. Values are indexed like the descriptor's columns;
// an absent value is nil.
type Entity struct {
	desc   *schema.TableDescriptor
	row    int
	values []any
}

// NewEntity wraps parsed values. values must have one slot per descriptor column.
func NewEntity(desc *schema.TableDescriptor, rowNumber int, values []any) *Entity {
	return &Entity{desc: desc, row: rowNumber, values: values}
}

func (e *Entity) Filename() string                     { return e.desc.Filename }
func (e *Entity) RowNumber() int                       { return e.row }
func (e *Entity) Descriptor() *schema.TableDescriptor { return e.desc }

// Value returns the value of the i-th descriptor column.
func (e *Entity) Value(i int) any {
	if i < 0 || i >= len(e.values) {
		return nil
	}
	return e.values[i]
}

// Get returns the value of the named column, or nil.
func (e *Entity) Get(column string) any {
	return e.Value(e.desc.ColumnIndex(column))
}

// Has reports whether the named column has a value.
func (e *Entity) Has(column string) bool {
	return e.Get(column) != nil
}

// String returns the named column formatted as it would appear in a feed,
// or "" when absent.
func (e *Entity) String(column string) string {
	return FormatValue(e.Get(column))
}

func (e *Entity) Int(column string) (int, bool) {
	v, ok := e.Get(column).(int)
	return v, ok
}

func (e *Entity) Float(column string) (float64, bool) {
	v, ok := e.Get(column).(float64)
	return v, ok
}

func (e *Entity) Bool(column string) (bool, bool) {
	v, ok := e.Get(column).(bool)
	return v, ok
}

func (e *Entity) Date(column string) (parsing.Date, bool) {
	v, ok := e.Get(column).(parsing.Date)
	return v, ok
}

func (e *Entity) Time(column string) (parsing.Time, bool) {
	v, ok := e.Get(column).(parsing.Time)
	return v, ok
}

// Key returns the values of columns formatted and joined with commas, for
// display. ok is false when every one of them is absent.
func (e *Entity) Key(columns ...string) (key string, ok bool) {
	parts, ok := e.keyParts(columns)
	return strings.Join(parts, ","), ok
}

// IndexKey is like Key but length-prefixes each value, so distinct tuples
// never collide whatever the cells contain.
func (e *Entity) IndexKey(columns ...string) (key string, ok bool) {
	parts, ok := e.keyParts(columns)
	return JoinKey(parts...), ok
}

// JoinKey encodes key values the way IndexKey does.
func JoinKey(values ...string) string {
	var b strings.Builder
	for _, v := range values {
		b.WriteString(strconv.Itoa(len(v)))
		b.WriteByte(':')
		b.WriteString(v)
	}
	return b.String()
}

func (e *Entity) keyParts(columns []string) (parts []string, ok bool) {
	parts = make([]string, len(columns))
	for i, c := range columns {
		v := e.Get(c)
		if v != nil {
			ok = true
		}
		parts[i] = FormatValue(v)
	}
	return parts, ok
}

// FormatValue writes a parsed value back in its feed representation.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case *time.Location:
		return x.String()
	case pgtype.Numeric:
		var valuer driver.Valuer = x
		dv, err := valuer.Value()
		if err != nil || dv == nil {
			return ""
		}
		return fmt.Sprint(dv)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
