package table

import "fmt"

// Status is the terminal load state of one table. It is set once, when the
// table finishes loading, and never changes afterwards.
type Status int

const (
	// ParsableHeadersAndRows means every row was usable.
	ParsableHeadersAndRows Status = iota
	// MissingFile means the table is absent from the feed.
	MissingFile
	// EmptyFile means the member has no header row.
	EmptyFile
	// InvalidHeaders means the stream was unreadable or the header was rejected.
	InvalidHeaders
	// UnparsableRows means at least one row was fatal.
	UnparsableRows
)

var statusNames = map[Status]string{
	ParsableHeadersAndRows: "PARSABLE_HEADERS_AND_ROWS",
	MissingFile:            "MISSING_FILE",
	EmptyFile:              "EMPTY_FILE",
	InvalidHeaders:         "INVALID_HEADERS",
	UnparsableRows:         "UNPARSABLE_ROWS",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
