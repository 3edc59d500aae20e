package rules

import (
	"github.com/MobilityData/gtfs-validator-sub012/internal/notice"
	"github.com/MobilityData/gtfs-validator-sub012/internal/table"
)

// ForeignKeyValidator reports child values that no parent entity carries.
type ForeignKeyValidator struct {
	child        *table.Container
	childColumn  string
	parent       *table.Container
	parentColumn string
}

func (v *ForeignKeyValidator) Validate(sink *notice.Container) {
	exists := v.parentLookup()

	for _, e := range v.child.Entities() {
		if !e.Has(v.childColumn) {
			continue
		}
		value := e.String(v.childColumn)
		if exists(value) {
			continue
		}
		sink.AddValidationNotice(notice.ForeignKeyViolation(
			v.child.Filename(), v.childColumn,
			v.parent.Filename(), v.parentColumn,
			value, e.RowNumber(),
		))
	}
}

// parentLookup uses the parent's own indices when they cover the referenced
// column and falls back to a value set.
func (v *ForeignKeyValidator) parentLookup() func(string) bool {
	pk := v.parent.Descriptor().PrimaryKey()
	if len(pk) == 1 && pk[0] == v.parentColumn {
		return func(value string) bool {
			_, ok := v.parent.ByKey(value)
			return ok
		}
	}
	if v.parent.HasIndex(v.parentColumn) {
		return func(value string) bool {
			return len(v.parent.ByIndex(v.parentColumn, value)) > 0
		}
	}

	values := make(map[string]struct{}, v.parent.Len())
	for _, e := range v.parent.Entities() {
		if e.Has(v.parentColumn) {
			values[e.String(v.parentColumn)] = struct{}{}
		}
	}
	return func(value string) bool {
		_, ok := values[value]
		return ok
	}
}
