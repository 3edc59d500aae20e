package rules

import (
	"github.com/MobilityData/gtfs-validator-sub012/internal/notice"
	"github.com/MobilityData/gtfs-validator-sub012/internal/table"
)

// StopTimeTripValidator reports trips served by fewer than two stop times,
// which riders cannot use.
type StopTimeTripValidator struct {
	trips     *table.Container
	stopTimes *table.Container
}

func (v *StopTimeTripValidator) Validate(sink *notice.Container) {
	for _, trip := range v.trips.Entities() {
		tripID := trip.String("trip_id")
		if len(v.stopTimes.ByIndex("trip_id", tripID)) < 2 {
			sink.AddValidationNotice(notice.UnusableTrip(trip.RowNumber(), tripID))
		}
	}
}
