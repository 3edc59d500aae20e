package rules

import (
	"github.com/MobilityData/gtfs-validator-sub012/internal/notice"
	"github.com/MobilityData/gtfs-validator-sub012/internal/table"
)

// DuplicateKeyValidator reports entities that repeat the primary key of an
// earlier entity of the same table.
type DuplicateKeyValidator struct {
	table *table.Container
}

func (v *DuplicateKeyValidator) Validate(sink *notice.Container) {
	pk := v.table.Descriptor().PrimaryKey()
	firstRow := make(map[string]int, v.table.Len())

	for _, e := range v.table.Entities() {
		key, ok := e.IndexKey(pk...)
		if !ok {
			continue
		}
		if row, dup := firstRow[key]; dup {
			display, _ := e.Key(pk...)
			sink.AddValidationNotice(notice.DuplicateKey(v.table.Filename(), row, e.RowNumber(), display))
			continue
		}
		firstRow[key] = e.RowNumber()
	}
}
