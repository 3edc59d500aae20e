package parsing

import (
	"net/mail"
	"net/url"
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"

	"github.com/MobilityData/gtfs-validator-sub012/internal/notice"
)

// CellContext locates a cell for notices.
type CellContext struct {
	Filename  string
	RowNumber int
	FieldName string
}

// FieldValidator checks cell contents before they are converted to typed values.
// Validate* methods report their own notices and return false when the value
// must be discarded.
type FieldValidator interface {
	// ValidateField reports whitespace and line-break problems and returns
	// the value to parse.
	ValidateField(value string, cell CellContext, sink *notice.Container) string
	ValidateID(value string, cell CellContext, sink *notice.Container) bool
	ValidateMixedCase(value string, cell CellContext, sink *notice.Container) bool
}

// UnknownCountry is the region code used when the feed's country is unknown.
const UnknownCountry = "ZZ"

// DefaultFieldValidator is the FieldValidator used for every feed.
type DefaultFieldValidator struct {
	countryCode string
}

// NewDefaultFieldValidator creates a validator for phone numbers of the given
// ISO 3166 alpha-2 country. An empty code means unknown.
func NewDefaultFieldValidator(countryCode string) *DefaultFieldValidator {
	code := strings.ToUpper(strings.TrimSpace(countryCode))
	if code == "" {
		code = UnknownCountry
	}
	return &DefaultFieldValidator{countryCode: code}
}

// CountryCode returns the region used for phone numbers. RowParser picks it up
// for AsPhoneNumber.
func (v *DefaultFieldValidator) CountryCode() string {
	return v.countryCode
}

func (v *DefaultFieldValidator) ValidateField(value string, cell CellContext, sink *notice.Container) string {
	trimmed := strings.TrimSpace(value)
	if trimmed != value {
		sink.AddValidationNotice(notice.LeadingOrTrailingWhitespaces(cell.Filename, cell.RowNumber, cell.FieldName, value))
	}
	if strings.ContainsAny(trimmed, "\n\r") {
		sink.AddValidationNotice(notice.NewLineInValue(cell.Filename, cell.RowNumber, cell.FieldName, value))
	}
	return trimmed
}

func (v *DefaultFieldValidator) ValidateID(value string, cell CellContext, sink *notice.Container) bool {
	if !HasOnlyPrintableASCII(value) {
		sink.AddValidationNotice(notice.NonASCIIOrNonPrintableChar(cell.Filename, cell.RowNumber, cell.FieldName, value))
		return false
	}
	return true
}

func (v *DefaultFieldValidator) ValidateMixedCase(value string, cell CellContext, sink *notice.Container) bool {
	if !isMixedCase(value) {
		sink.AddValidationNotice(notice.MixedCaseRecommendedField(cell.Filename, cell.RowNumber, cell.FieldName, value))
		return false
	}
	return true
}

// HasOnlyPrintableASCII reports whether s consists of characters 0x20 to 0x7E.
func HasOnlyPrintableASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7E {
			return false
		}
	}
	return true
}

// IsValidURL reports whether s is an absolute http or https URL with a host.
func IsValidURL(s string) bool {
	if strings.ContainsAny(s, " \t") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

// IsValidEmail reports whether s is a bare address with a dotted domain.
func IsValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	domain := s[at+1:]
	return strings.Contains(domain, ".") && !strings.HasSuffix(domain, ".")
}

// IsPossiblePhoneNumber reports whether s is a possible number in country.
// With UnknownCountry only internationally formatted numbers pass.
func IsPossiblePhoneNumber(s, country string) bool {
	num, err := phonenumbers.Parse(s, country)
	return err == nil && phonenumbers.IsPossibleNumber(num)
}

// isMixedCase is true unless the value has at least two letters and they are
// all upper case or all lower case. Values with digits are exempt, so route
// short names such as "A1" pass.
func isMixedCase(s string) bool {
	var letters, upper, lower int
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			return true
		case unicode.IsUpper(r):
			letters++
			upper++
		case unicode.IsLower(r):
			letters++
			lower++
		}
	}
	if letters < 2 {
		return true
	}
	return upper > 0 && lower > 0
}
