// Package table holds the parsed tables of a feed and the loader that builds
// them.
//
// A Container is created once per table by Load, LoadFailed or LoadMissing and
// is read-only afterwards, so validators may share it across goroutines.
package table

import (
	"github.com/MobilityData/gtfs-validator-sub012/internal/csvtable"
	"github.com/MobilityData/gtfs-validator-sub012/internal/schema"
)

// Container is the parsed content of one table.
type Container struct {
	desc     *schema.TableDescriptor
	status   Status
	header   *csvtable.Header
	entities []*Entity

	byKey   map[string]*Entity
	byIndex map[string]map[string][]*Entity
}

// ForStatus returns the container used for a table that did not load:
// no header, no entities, no indices.
func ForStatus(desc *schema.TableDescriptor, status Status) *Container {
	return &Container{desc: desc, status: status}
}

// NewContainer builds a parsed container and its indices.
func NewContainer(desc *schema.TableDescriptor, header *csvtable.Header, entities []*Entity) *Container {
	c := &Container{
		desc:     desc,
		status:   ParsableHeadersAndRows,
		header:   header,
		entities: entities,
	}

	if pk := desc.PrimaryKey(); len(pk) > 0 {
		c.byKey = make(map[string]*Entity, len(entities))
		for _, e := range entities {
			key, ok := e.IndexKey(pk...)
			if !ok {
				continue
			}
			// First occurrence wins; duplicates are reported by validators.
			if _, exists := c.byKey[key]; !exists {
				c.byKey[key] = e
			}
		}
	}

	for _, column := range desc.IndexedColumns() {
		if c.byIndex == nil {
			c.byIndex = make(map[string]map[string][]*Entity)
		}
		index := make(map[string][]*Entity)
		for _, e := range entities {
			if v := e.Get(column); v != nil {
				value := FormatValue(v)
				index[value] = append(index[value], e)
			}
		}
		c.byIndex[column] = index
	}

	return c
}

func (c *Container) Descriptor() *schema.TableDescriptor { return c.desc }
func (c *Container) Filename() string                     { return c.desc.Filename }
func (c *Container) Status() Status                       { return c.status }

// Header returns the header read from the member, or nil for failure containers.
func (c *Container) Header() *csvtable.Header { return c.header }

// IsParsed reports whether the table loaded without fatal rows.
func (c *Container) IsParsed() bool { return c.status == ParsableHeadersAndRows }

// IsMissing reports whether the table was absent from the feed.
func (c *Container) IsMissing() bool { return c.status == MissingFile }

// IsEmpty reports whether the container holds no entities.
func (c *Container) IsEmpty() bool { return len(c.entities) == 0 }

// Len returns the number of entities.
func (c *Container) Len() int { return len(c.entities) }

// Entities returns the entities in file order. The slice must not be modified.
func (c *Container) Entities() []*Entity { return c.entities }

// ByKey looks an entity up by its primary key values, formatted as in the feed.
func (c *Container) ByKey(values ...string) (*Entity, bool) {
	if c.byKey == nil || len(values) == 0 {
		return nil, false
	}
	e, ok := c.byKey[JoinKey(values...)]
	return e, ok
}

// ByIndex returns the entities whose indexed column equals value.
func (c *Container) ByIndex(column, value string) []*Entity {
	return c.byIndex[column][value]
}

// HasIndex reports whether column has a multi-value index.
func (c *Container) HasIndex(column string) bool {
	_, ok := c.byIndex[column]
	return ok
}
