package rules

import (
	"github.com/MobilityData/gtfs-validator-sub012/internal/notice"
	"github.com/MobilityData/gtfs-validator-sub012/internal/table"
)

// FeedServiceDateValidator reports a feed_info.txt entity whose feed_end_date
// precedes its feed_start_date.
type FeedServiceDateValidator struct{}

func (FeedServiceDateValidator) Validate(e *table.Entity, sink *notice.Container) {
	start, okStart := e.Date("feed_start_date")
	end, okEnd := e.Date("feed_end_date")
	if !okStart || !okEnd || !end.Before(start) {
		return
	}
	sink.AddValidationNotice(notice.StartAndEndRangeOutOfOrder(
		e.Filename(), e.RowNumber(),
		"feed_start_date", start.String(),
		"feed_end_date", end.String(),
	))
}
