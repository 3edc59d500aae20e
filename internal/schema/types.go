// Package schema describes the tables of a feed: their columns, field types,
// levels and keys. Descriptors are plain data; loading and validation read them
// and never change them.
package schema

import "strings"

// FieldType is the expected data type of a column.
type FieldType int

const (
	FieldText FieldType = iota
	FieldID
	FieldInteger
	FieldFloat
	FieldDecimal
	FieldBoolean
	FieldColor
	FieldCurrencyCode
	FieldDate
	FieldEmail
	FieldEnum
	FieldLanguageCode
	FieldLatitude
	FieldLongitude
	FieldPhoneNumber
	FieldTime
	FieldTimezone
	FieldURL
)

var fieldTypeNames = map[FieldType]string{
	FieldText:         "text",
	FieldID:           "id",
	FieldInteger:      "integer",
	FieldFloat:        "float",
	FieldDecimal:      "decimal",
	FieldBoolean:      "boolean",
	FieldColor:        "color",
	FieldCurrencyCode: "currency code",
	FieldDate:         "date",
	FieldEmail:        "email",
	FieldEnum:         "enum",
	FieldLanguageCode: "language code",
	FieldLatitude:     "latitude",
	FieldLongitude:    "longitude",
	FieldPhoneNumber:  "phone number",
	FieldTime:         "time",
	FieldTimezone:     "timezone",
	FieldURL:          "url",
}

// String returns the human-readable name used in notices.
func (t FieldType) String() string {
	if name, ok := fieldTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// FieldLevel says how strongly a value is expected to be present.
type FieldLevel int

const (
	Optional FieldLevel = iota
	Recommended
	Required
)

func (l FieldLevel) String() string {
	switch l {
	case Required:
		return "required"
	case Recommended:
		return "recommended"
	default:
		return "optional"
	}
}

// Bounds restricts the range of a numeric column.
type Bounds int

const (
	Unbounded Bounds = iota
	Positive
	NonNegative
	NonZero
)

// Ref points at a column of another table.
type Ref struct {
	Table  string
	Column string
}

// ColumnDescriptor describes one column of a table.
type ColumnDescriptor struct {
	Name  string
	Type  FieldType
	Level FieldLevel

	HeaderRequired    bool // column must appear in the header
	HeaderRecommended bool // a warning is raised when the column is missing

	MixedCase bool // text values are expected to mix upper and lower case
	Cached    bool // values are interned while loading
	Bounds    Bounds

	// EnumValues lists the known values of an enum column.
	EnumValues []int

	PrimaryKey bool
	ForeignKey *Ref
	Indexed    bool // entities can be looked up by this column's value
}

// KnownEnum reports whether v is one of the column's enum values.
func (c ColumnDescriptor) KnownEnum(v int) bool {
	for _, known := range c.EnumValues {
		if known == v {
			return true
		}
	}
	return false
}

// TableDescriptor describes one table of a feed.
type TableDescriptor struct {
	Filename string
	Columns  []ColumnDescriptor

	// SingleRow tables hold at most one entity.
	SingleRow bool

	Required    bool // table must be present in the feed
	Recommended bool // a warning is raised when the table is absent
}

// Column returns the column with the given name.
func (d *TableDescriptor) Column(name string) (ColumnDescriptor, bool) {
	if i := d.ColumnIndex(name); i >= 0 {
		return d.Columns[i], true
	}
	return ColumnDescriptor{}, false
}

// ColumnIndex returns the position of the named column, or -1.
func (d *TableDescriptor) ColumnIndex(name string) int {
	for i := range d.Columns {
		if d.Columns[i].Name == name {
			return i
		}
	}
	return -1
}

// PrimaryKey returns the names of the key columns in declaration order.
func (d *TableDescriptor) PrimaryKey() []string {
	var key []string
	for _, c := range d.Columns {
		if c.PrimaryKey {
			key = append(key, c.Name)
		}
	}
	return key
}

// IndexedColumns returns the names of columns with a multi-value index.
func (d *TableDescriptor) IndexedColumns() []string {
	var names []string
	for _, c := range d.Columns {
		if c.Indexed {
			names = append(names, c.Name)
		}
	}
	return names
}

// ForeignKeys returns the columns that reference another table.
func (d *TableDescriptor) ForeignKeys() []ColumnDescriptor {
	var cols []ColumnDescriptor
	for _, c := range d.Columns {
		if c.ForeignKey != nil {
			cols = append(cols, c)
		}
	}
	return cols
}

// Key normalizes a filename for case-insensitive lookups.
func Key(filename string) string {
	return strings.ToLower(filename)
}
