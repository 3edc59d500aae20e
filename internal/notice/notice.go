// Package notice defines the diagnostics produced while loading and validating
// a feed, and the container that collects them for one validation run.
//
// Notices come in two partitions:
//
//   - Validation notices describe problems in the data itself (a malformed
//     date, a missing required column, a broken foreign key). They carry a
//     [Severity] and never abort the run.
//   - System errors describe failures of the validator itself (an I/O error
//     opening a member, a panic inside a loader or validator). They are
//     reported separately so that a crashing rule is never mistaken for a
//     data problem.
package notice

import (
	"fmt"
	"strings"
)

// Severity ranks how serious a notice is.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the upper-case name used in reports.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler so severities serialize by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "INFO":
		*s = SeverityInfo
	case "WARNING":
		*s = SeverityWarning
	case "ERROR":
		*s = SeverityError
	default:
		return fmt.Errorf("unknown severity %q", text)
	}
	return nil
}

// Field is one named context value of a notice.
type Field struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Notice is a single structured finding.
//
// Fields keep insertion order so that reports list context values (file, row,
// field name, offending value) the same way every time.
type Notice struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Fields   []Field  `json:"fields,omitempty"`
}

// New builds a notice from alternating name/value pairs.
// A trailing name without a value is stored with a nil value.
func New(code string, severity Severity, kv ...any) Notice {
	n := Notice{Code: code, Severity: severity}
	if len(kv) > 0 {
		n.Fields = make([]Field, 0, (len(kv)+1)/2)
	}
	for i := 0; i < len(kv); i += 2 {
		name, ok := kv[i].(string)
		if !ok {
			name = fmt.Sprint(kv[i])
		}
		var value any
		if i+1 < len(kv) {
			value = kv[i+1]
		}
		n.Fields = append(n.Fields, Field{Name: name, Value: value})
	}
	return n
}

// Field returns the value of the named context field.
func (n Notice) Field(name string) (any, bool) {
	for _, f := range n.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// IsError reports whether the notice has ERROR severity.
func (n Notice) IsError() bool {
	return n.Severity == SeverityError
}

func (n Notice) String() string {
	var b strings.Builder
	b.WriteString(n.Severity.String())
	b.WriteByte(' ')
	b.WriteString(n.Code)
	if len(n.Fields) == 0 {
		return b.String()
	}
	b.WriteString(" {")
	for i, f := range n.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %v", f.Name, f.Value)
	}
	b.WriteByte('}')
	return b.String()
}
