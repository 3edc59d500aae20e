package schema

func init() {
	registerAgency()
	registerStops()
	registerRoutes()
	registerTrips()
	registerStopTimes()
	registerCalendar()
	registerCalendarDates()
	registerFareAttributes()
	registerFeedInfo()
	registerShapes()
	registerFrequencies()
}

var (
	binaryEnum        = []int{0, 1}
	accessibilityEnum = []int{0, 1, 2}
	pickupDropOffEnum = []int{0, 1, 2, 3}
)

func registerAgency() {
	Register(&TableDescriptor{
		Filename: "agency.txt",
		Required: true,
		Columns: []ColumnDescriptor{
			{Name: "agency_id", Type: FieldID, Level: Optional, PrimaryKey: true},
			{Name: "agency_name", Type: FieldText, Level: Required, HeaderRequired: true, MixedCase: true},
			{Name: "agency_url", Type: FieldURL, Level: Required, HeaderRequired: true},
			{Name: "agency_timezone", Type: FieldTimezone, Level: Required, HeaderRequired: true},
			{Name: "agency_lang", Type: FieldLanguageCode, Level: Optional},
			{Name: "agency_phone", Type: FieldPhoneNumber, Level: Optional},
			{Name: "agency_fare_url", Type: FieldURL, Level: Optional},
			{Name: "agency_email", Type: FieldEmail, Level: Optional},
		},
	})
}

func registerStops() {
	Register(&TableDescriptor{
		Filename: "stops.txt",
		Required: true,
		Columns: []ColumnDescriptor{
			{Name: "stop_id", Type: FieldID, Level: Required, HeaderRequired: true, PrimaryKey: true},
			{Name: "stop_code", Type: FieldText, Level: Optional},
			{Name: "stop_name", Type: FieldText, Level: Recommended, HeaderRecommended: true, MixedCase: true},
			{Name: "tts_stop_name", Type: FieldText, Level: Optional},
			{Name: "stop_desc", Type: FieldText, Level: Optional},
			{Name: "stop_lat", Type: FieldLatitude, Level: Recommended, HeaderRecommended: true},
			{Name: "stop_lon", Type: FieldLongitude, Level: Recommended, HeaderRecommended: true},
			{Name: "zone_id", Type: FieldID, Level: Optional, Cached: true},
			{Name: "stop_url", Type: FieldURL, Level: Optional},
			{Name: "location_type", Type: FieldEnum, Level: Optional, EnumValues: []int{0, 1, 2, 3, 4}},
			{Name: "parent_station", Type: FieldID, Level: Optional, Cached: true, Indexed: true,
				ForeignKey: &Ref{Table: "stops.txt", Column: "stop_id"}},
			{Name: "stop_timezone", Type: FieldTimezone, Level: Optional, Cached: true},
			{Name: "wheelchair_boarding", Type: FieldEnum, Level: Optional, EnumValues: accessibilityEnum},
			{Name: "level_id", Type: FieldID, Level: Optional},
			{Name: "platform_code", Type: FieldText, Level: Optional},
		},
	})
}

func registerRoutes() {
	Register(&TableDescriptor{
		Filename: "routes.txt",
		Required: true,
		Columns: []ColumnDescriptor{
			{Name: "route_id", Type: FieldID, Level: Required, HeaderRequired: true, PrimaryKey: true},
			{Name: "agency_id", Type: FieldID, Level: Optional, Cached: true,
				ForeignKey: &Ref{Table: "agency.txt", Column: "agency_id"}},
			{Name: "route_short_name", Type: FieldText, Level: Optional},
			{Name: "route_long_name", Type: FieldText, Level: Optional, MixedCase: true},
			{Name: "route_desc", Type: FieldText, Level: Optional},
			{Name: "route_type", Type: FieldEnum, Level: Required, HeaderRequired: true,
				EnumValues: []int{0, 1, 2, 3, 4, 5, 6, 7, 11, 12}},
			{Name: "route_url", Type: FieldURL, Level: Optional},
			{Name: "route_color", Type: FieldColor, Level: Optional},
			{Name: "route_text_color", Type: FieldColor, Level: Optional},
			{Name: "route_sort_order", Type: FieldInteger, Level: Optional, Bounds: NonNegative},
			{Name: "continuous_pickup", Type: FieldEnum, Level: Optional, EnumValues: pickupDropOffEnum},
			{Name: "continuous_drop_off", Type: FieldEnum, Level: Optional, EnumValues: pickupDropOffEnum},
		},
	})
}

func registerTrips() {
	Register(&TableDescriptor{
		Filename: "trips.txt",
		Required: true,
		Columns: []ColumnDescriptor{
			{Name: "route_id", Type: FieldID, Level: Required, HeaderRequired: true, Cached: true, Indexed: true,
				ForeignKey: &Ref{Table: "routes.txt", Column: "route_id"}},
			{Name: "service_id", Type: FieldID, Level: Required, HeaderRequired: true, Cached: true, Indexed: true},
			{Name: "trip_id", Type: FieldID, Level: Required, HeaderRequired: true, PrimaryKey: true},
			{Name: "trip_headsign", Type: FieldText, Level: Optional, Cached: true},
			{Name: "trip_short_name", Type: FieldText, Level: Optional},
			{Name: "direction_id", Type: FieldEnum, Level: Optional, EnumValues: binaryEnum},
			{Name: "block_id", Type: FieldID, Level: Optional, Cached: true, Indexed: true},
			{Name: "shape_id", Type: FieldID, Level: Optional, Cached: true,
				ForeignKey: &Ref{Table: "shapes.txt", Column: "shape_id"}},
			{Name: "wheelchair_accessible", Type: FieldEnum, Level: Optional, EnumValues: accessibilityEnum},
			{Name: "bikes_allowed", Type: FieldEnum, Level: Optional, EnumValues: accessibilityEnum},
		},
	})
}

func registerStopTimes() {
	Register(&TableDescriptor{
		Filename: "stop_times.txt",
		Required: true,
		Columns: []ColumnDescriptor{
			{Name: "trip_id", Type: FieldID, Level: Required, HeaderRequired: true, Cached: true,
				PrimaryKey: true, Indexed: true, ForeignKey: &Ref{Table: "trips.txt", Column: "trip_id"}},
			{Name: "arrival_time", Type: FieldTime, Level: Optional, Cached: true},
			{Name: "departure_time", Type: FieldTime, Level: Optional, Cached: true},
			{Name: "stop_id", Type: FieldID, Level: Required, HeaderRequired: true, Cached: true,
				ForeignKey: &Ref{Table: "stops.txt", Column: "stop_id"}},
			{Name: "stop_sequence", Type: FieldInteger, Level: Required, HeaderRequired: true,
				Bounds: NonNegative, PrimaryKey: true},
			{Name: "stop_headsign", Type: FieldText, Level: Optional, Cached: true},
			{Name: "pickup_type", Type: FieldEnum, Level: Optional, EnumValues: pickupDropOffEnum},
			{Name: "drop_off_type", Type: FieldEnum, Level: Optional, EnumValues: pickupDropOffEnum},
			{Name: "continuous_pickup", Type: FieldEnum, Level: Optional, EnumValues: pickupDropOffEnum},
			{Name: "continuous_drop_off", Type: FieldEnum, Level: Optional, EnumValues: pickupDropOffEnum},
			{Name: "shape_dist_traveled", Type: FieldFloat, Level: Optional, Bounds: NonNegative},
			{Name: "timepoint", Type: FieldEnum, Level: Optional, EnumValues: binaryEnum},
		},
	})
}

func registerCalendar() {
	day := func(name string) ColumnDescriptor {
		return ColumnDescriptor{Name: name, Type: FieldEnum, Level: Required, HeaderRequired: true, EnumValues: binaryEnum}
	}
	Register(&TableDescriptor{
		Filename: "calendar.txt",
		Columns: []ColumnDescriptor{
			{Name: "service_id", Type: FieldID, Level: Required, HeaderRequired: true, PrimaryKey: true},
			day("monday"),
			day("tuesday"),
			day("wednesday"),
			day("thursday"),
			day("friday"),
			day("saturday"),
			day("sunday"),
			{Name: "start_date", Type: FieldDate, Level: Required, HeaderRequired: true},
			{Name: "end_date", Type: FieldDate, Level: Required, HeaderRequired: true},
		},
	})
}

func registerCalendarDates() {
	Register(&TableDescriptor{
		Filename: "calendar_dates.txt",
		Columns: []ColumnDescriptor{
			{Name: "service_id", Type: FieldID, Level: Required, HeaderRequired: true, Cached: true,
				PrimaryKey: true, Indexed: true},
			{Name: "date", Type: FieldDate, Level: Required, HeaderRequired: true, Cached: true, PrimaryKey: true},
			{Name: "exception_type", Type: FieldEnum, Level: Required, HeaderRequired: true, EnumValues: []int{1, 2}},
		},
	})
}

func registerFareAttributes() {
	Register(&TableDescriptor{
		Filename: "fare_attributes.txt",
		Columns: []ColumnDescriptor{
			{Name: "fare_id", Type: FieldID, Level: Required, HeaderRequired: true, PrimaryKey: true},
			{Name: "price", Type: FieldDecimal, Level: Required, HeaderRequired: true, Bounds: NonNegative},
			{Name: "currency_type", Type: FieldCurrencyCode, Level: Required, HeaderRequired: true, Cached: true},
			{Name: "payment_method", Type: FieldEnum, Level: Required, HeaderRequired: true, EnumValues: binaryEnum},
			{Name: "transfers", Type: FieldEnum, Level: Optional, HeaderRequired: true, EnumValues: []int{0, 1, 2}},
			{Name: "agency_id", Type: FieldID, Level: Optional, Cached: true,
				ForeignKey: &Ref{Table: "agency.txt", Column: "agency_id"}},
			{Name: "transfer_duration", Type: FieldInteger, Level: Optional, Bounds: NonNegative},
		},
	})
}

func registerFeedInfo() {
	Register(&TableDescriptor{
		Filename:    "feed_info.txt",
		Recommended: true,
		SingleRow:   true,
		Columns: []ColumnDescriptor{
			{Name: "feed_publisher_name", Type: FieldText, Level: Required, HeaderRequired: true, MixedCase: true},
			{Name: "feed_publisher_url", Type: FieldURL, Level: Required, HeaderRequired: true},
			{Name: "feed_lang", Type: FieldLanguageCode, Level: Required, HeaderRequired: true},
			{Name: "default_lang", Type: FieldLanguageCode, Level: Optional},
			{Name: "feed_start_date", Type: FieldDate, Level: Recommended, HeaderRecommended: true},
			{Name: "feed_end_date", Type: FieldDate, Level: Recommended, HeaderRecommended: true},
			{Name: "feed_version", Type: FieldText, Level: Recommended, HeaderRecommended: true},
			{Name: "feed_contact_email", Type: FieldEmail, Level: Optional},
			{Name: "feed_contact_url", Type: FieldURL, Level: Optional},
		},
	})
}

func registerShapes() {
	Register(&TableDescriptor{
		Filename: "shapes.txt",
		Columns: []ColumnDescriptor{
			{Name: "shape_id", Type: FieldID, Level: Required, HeaderRequired: true, Cached: true,
				PrimaryKey: true, Indexed: true},
			{Name: "shape_pt_lat", Type: FieldLatitude, Level: Required, HeaderRequired: true},
			{Name: "shape_pt_lon", Type: FieldLongitude, Level: Required, HeaderRequired: true},
			{Name: "shape_pt_sequence", Type: FieldInteger, Level: Required, HeaderRequired: true,
				Bounds: NonNegative, PrimaryKey: true},
			{Name: "shape_dist_traveled", Type: FieldFloat, Level: Optional, Bounds: NonNegative},
		},
	})
}

func registerFrequencies() {
	Register(&TableDescriptor{
		Filename: "frequencies.txt",
		Columns: []ColumnDescriptor{
			{Name: "trip_id", Type: FieldID, Level: Required, HeaderRequired: true, Cached: true,
				PrimaryKey: true, Indexed: true, ForeignKey: &Ref{Table: "trips.txt", Column: "trip_id"}},
			{Name: "start_time", Type: FieldTime, Level: Required, HeaderRequired: true, PrimaryKey: true},
			{Name: "end_time", Type: FieldTime, Level: Required, HeaderRequired: true},
			{Name: "headway_secs", Type: FieldInteger, Level: Required, HeaderRequired: true, Bounds: Positive},
			{Name: "exact_times", Type: FieldEnum, Level: Optional, EnumValues: binaryEnum},
		},
	})
}
