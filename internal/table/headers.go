package table

import (
	"github.com/MobilityData/gtfs-validator-sub012/internal/csvtable"
	"github.com/MobilityData/gtfs-validator-sub012/internal/notice"
	"github.com/MobilityData/gtfs-validator-sub012/internal/schema"
)

// ValidateHeaders checks a header against the table's columns and returns
// false when an ERROR notice was raised.
//
// Empty and duplicated names and missing required columns are errors, missing
// recommended columns are warnings, and columns the table does not declare are
// reported for information.
func ValidateHeaders(desc *schema.TableDescriptor, header *csvtable.Header, sink *notice.Container) bool {
	valid := true
	seen := make(map[string]int, header.ColumnCount())

	for i := 0; i < header.ColumnCount(); i++ {
		name := header.ColumnName(i)
		if name == "" {
			sink.AddValidationNotice(notice.EmptyColumnName(desc.Filename, i))
			valid = false
			continue
		}
		if first, dup := seen[name]; dup {
			sink.AddValidationNotice(notice.DuplicatedColumn(desc.Filename, name, first, i))
			valid = false
			continue
		}
		seen[name] = i
		if desc.ColumnIndex(name) < 0 {
			sink.AddValidationNotice(notice.UnknownColumn(desc.Filename, name, i))
		}
	}

	for _, col := range desc.Columns {
		if _, ok := seen[col.Name]; ok {
			continue
		}
		switch {
		case col.HeaderRequired:
			sink.AddValidationNotice(notice.MissingRequiredColumn(desc.Filename, col.Name))
			valid = false
		case col.HeaderRecommended:
			sink.AddValidationNotice(notice.MissingRecommendedColumn(desc.Filename, col.Name))
		}
	}

	return valid
}
