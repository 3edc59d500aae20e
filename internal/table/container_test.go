package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MobilityData/gtfs-validator-sub012/internal/csvtable"
	"github.com/MobilityData/gtfs-validator-sub012/internal/parsing"
	"github.com/MobilityData/gtfs-validator-sub012/internal/schema"
)

func TestContainer_Indices(t *testing.T) {
	desc := testDescriptor()
	entities := []*Entity{
		NewEntity(desc, 2, []any{"s1", "a", 1.0}),
		NewEntity(desc, 3, []any{"s2", "a", nil}),
		NewEntity(desc, 4, []any{"s1", "b", nil}),
		NewEntity(desc, 5, []any{nil, "c", nil}),
	}

	c := NewContainer(desc, csvtable.NewHeader([]string{"id", "code", "value"}), entities)

	assert.True(t, c.IsParsed())
	assert.Equal(t, 4, c.Len())

	first, ok := c.ByKey("s1")
	require.True(t, ok)
	assert.Equal(t, 2, first.RowNumber(), "first occurrence of a key wins")

	_, ok = c.ByKey("")
	assert.False(t, ok, "entities without a key are not indexed")
	_, ok = c.ByKey()
	assert.False(t, ok)

	assert.True(t, c.HasIndex("code"))
	assert.False(t, c.HasIndex("id"))
	assert.Len(t, c.ByIndex("code", "a"), 2)
	assert.Nil(t, c.ByIndex("id", "s1"))
}

func TestContainer_CompositeKeysWithCommas(t *testing.T) {
	desc := &schema.TableDescriptor{
		Filename: "pairs.txt",
		Columns: []schema.ColumnDescriptor{
			{Name: "a", PrimaryKey: true},
			{Name: "b", PrimaryKey: true},
		},
	}
	c := NewContainer(desc, csvtable.NewHeader([]string{"a", "b"}), []*Entity{
		NewEntity(desc, 2, []any{"x,y", "z"}),
		NewEntity(desc, 3, []any{"x", "y,z"}),
	})

	first, ok := c.ByKey("x,y", "z")
	require.True(t, ok)
	assert.Equal(t, 2, first.RowNumber())
	second, ok := c.ByKey("x", "y,z")
	require.True(t, ok)
	assert.Equal(t, 3, second.RowNumber())

	k1, _ := first.IndexKey("a", "b")
	k2, _ := second.IndexKey("a", "b")
	assert.NotEqual(t, k1, k2)
	display, _ := second.Key("a", "b")
	assert.Equal(t, "x,y,z", display)
}

func TestForStatus(t *testing.T) {
	desc := testDescriptor()
	c := ForStatus(desc, UnparsableRows)

	assert.Equal(t, UnparsableRows, c.Status())
	assert.False(t, c.IsParsed())
	assert.True(t, c.IsEmpty())
	assert.Nil(t, c.Header())
	_, ok := c.ByKey("s1")
	assert.False(t, ok)
	assert.Equal(t, "filename.txt", c.Filename())
}

func TestEntity_Accessors(t *testing.T) {
	desc := &schema.TableDescriptor{
		Filename: "calendar.txt",
		Columns: []schema.ColumnDescriptor{
			{Name: "service_id"},
			{Name: "monday"},
			{Name: "start_date"},
			{Name: "headway"},
			{Name: "wheelchair"},
		},
	}
	start := parsing.NewDate(2024, 1, 15)
	e := NewEntity(desc, 7, []any{"weekday", 1, start, 2.5, true})

	assert.Equal(t, "calendar.txt", e.Filename())
	assert.Equal(t, 7, e.RowNumber())
	assert.Equal(t, "weekday", e.String("service_id"))
	assert.Equal(t, "1", e.String("monday"))
	assert.Equal(t, "20240115", e.String("start_date"))
	assert.Equal(t, "2.5", e.String("headway"))
	assert.Equal(t, "1", e.String("wheelchair"))
	assert.Equal(t, "", e.String("nope"))

	d, ok := e.Date("start_date")
	assert.True(t, ok)
	assert.Equal(t, start, d)
	_, ok = e.Int("service_id")
	assert.False(t, ok)
	b, ok := e.Bool("wheelchair")
	assert.True(t, ok && b)

	key, ok := e.Key("service_id", "start_date")
	assert.True(t, ok)
	assert.Equal(t, "weekday,20240115", key)
}

func TestFormatValue_Decimal(t *testing.T) {
	n, err := parsing.ParseDecimal("12.50")
	require.NoError(t, err)
	f, err := n.Float64Value()
	require.NoError(t, err)
	assert.InDelta(t, 12.5, f.Float64, 1e-9)
	assert.NotEmpty(t, FormatValue(n))
}

func TestFeed(t *testing.T) {
	stops := ForStatus(&schema.TableDescriptor{Filename: "stops.txt"}, UnparsableRows)
	agency := NewContainer(&schema.TableDescriptor{Filename: "agency.txt"}, csvtable.NewHeader(nil), nil)
	shapes := ForStatus(&schema.TableDescriptor{Filename: "shapes.txt"}, MissingFile)

	f := NewFeed([]*Container{stops, shapes, agency})

	c, ok := f.Table("STOPS.TXT")
	require.True(t, ok)
	assert.Same(t, stops, c)

	tables := f.Tables()
	require.Len(t, tables, 3)
	assert.Equal(t, "agency.txt", tables[0].Filename())
	assert.Equal(t, "shapes.txt", tables[1].Filename())
	assert.Equal(t, "stops.txt", tables[2].Filename())

	status, ok := f.StatusOf("shapes.txt")
	assert.True(t, ok)
	assert.Equal(t, MissingFile, status)
	_, ok = f.StatusOf("trips.txt")
	assert.False(t, ok)

	assert.True(t, f.IsParsed("agency.txt"))
	assert.False(t, f.IsParsed("stops.txt"))
	assert.False(t, f.IsParsed("trips.txt"))

	assert.Equal(t, map[string]Status{
		"agency.txt": ParsableHeadersAndRows,
		"shapes.txt": MissingFile,
		"stops.txt":  UnparsableRows,
	}, f.StatusSummary())
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "PARSABLE_HEADERS_AND_ROWS", ParsableHeadersAndRows.String())
	assert.Equal(t, "UNPARSABLE_ROWS", UnparsableRows.String())
	assert.Equal(t, "Status(42)", Status(42).String())
}
