package notice

import (
	"fmt"
	"runtime/debug"
)

// Codes for every notice emitted by the loading and validation core.
const (
	CodeCsvParsingFailed            = "csv_parsing_failed"
	CodeEmptyFile                   = "empty_file"
	CodeInvalidRowLength            = "invalid_row_length"
	CodeMissingRequiredField        = "missing_required_field"
	CodeFieldParsingError           = "field_parsing_error"
	CodeNumberOutOfRange            = "number_out_of_range"
	CodeUnexpectedEnumValue         = "unexpected_enum_value"
	CodeMissingRequiredColumn       = "missing_required_column"
	CodeMissingRecommendedColumn    = "missing_recommended_column"
	CodeDuplicatedColumn            = "duplicated_column"
	CodeEmptyColumnName             = "empty_column_name"
	CodeUnknownColumn               = "unknown_column"
	CodeUnknownFile                 = "unknown_file"
	CodeMissingRequiredFile         = "missing_required_file"
	CodeMissingRecommendedFile      = "missing_recommended_file"
	CodeLeadingOrTrailingWhitespace = "leading_or_trailing_whitespaces"
	CodeNewLineInValue              = "new_line_in_value"
	CodeNonASCIIOrNonPrintableChar  = "non_ascii_or_non_printable_char"
	CodeDuplicateKey                = "duplicate_key"
	CodeForeignKeyViolation         = "foreign_key_violation"
	CodeMixedCaseRecommendedField   = "mixed_case_recommended_field"
	CodeMoreThanOneEntity           = "more_than_one_entity"
	CodeStartAndEndRangeOutOfOrder  = "start_and_end_range_out_of_order"
	CodeUnusableTrip                = "unusable_trip"

	CodeRuntimeExceptionInLoader    = "runtime_exception_in_loader"
	CodeRuntimeExceptionInValidator = "runtime_exception_in_validator"
	CodeThreadExecutionError        = "thread_execution_error"
	CodeIOError                     = "io_error"
)

// CsvParsingFailed reports a stream that could not be opened or tokenized.
func CsvParsingFailed(filename string, err error) Notice {
	return New(CodeCsvParsingFailed, SeverityError,
		"filename", filename,
		"message", errMessage(err),
	)
}

// EmptyFile reports a zero-byte table.
func EmptyFile(filename string) Notice {
	return New(CodeEmptyFile, SeverityError, "filename", filename)
}

// InvalidRowLength reports a row whose cell count differs from the header.
func InvalidRowLength(filename string, row, rowLength, headerCount int) Notice {
	return New(CodeInvalidRowLength, SeverityError,
		"filename", filename,
		"csvRowNumber", row,
		"rowLength", rowLength,
		"headerCount", headerCount,
	)
}

// MissingRequiredField reports an absent value for a REQUIRED column.
func MissingRequiredField(filename string, row int, field string) Notice {
	return New(CodeMissingRequiredField, SeverityError,
		"filename", filename,
		"csvRowNumber", row,
		"fieldName", field,
	)
}

// FieldParsingError reports a value that does not match the expected format.
func FieldParsingError(filename string, row int, field, format, value string) Notice {
	return New(CodeFieldParsingError, SeverityError,
		"filename", filename,
		"csvRowNumber", row,
		"fieldName", field,
		"fieldType", format,
		"fieldValue", value,
	)
}

// NumberOutOfRange reports a parsed number that violates its declared bounds.
func NumberOutOfRange(filename string, row int, field, fieldType string, value any) Notice {
	return New(CodeNumberOutOfRange, SeverityError,
		"filename", filename,
		"csvRowNumber", row,
		"fieldName", field,
		"fieldType", fieldType,
		"fieldValue", value,
	)
}

// UnexpectedEnumValue reports an integer outside the known enum range.
func UnexpectedEnumValue(filename string, row int, field string, value int) Notice {
	return New(CodeUnexpectedEnumValue, SeverityWarning,
		"filename", filename,
		"csvRowNumber", row,
		"fieldName", field,
		"fieldValue", value,
	)
}

// MissingRequiredColumn reports a required header absent from the file.
func MissingRequiredColumn(filename, field string) Notice {
	return New(CodeMissingRequiredColumn, SeverityError,
		"filename", filename,
		"fieldName", field,
	)
}

// MissingRecommendedColumn reports a recommended header absent from the file.
func MissingRecommendedColumn(filename, field string) Notice {
	return New(CodeMissingRecommendedColumn, SeverityWarning,
		"filename", filename,
		"fieldName", field,
	)
}

// DuplicatedColumn reports a header name that appears more than once.
func DuplicatedColumn(filename, field string, firstIndex, secondIndex int) Notice {
	return New(CodeDuplicatedColumn, SeverityError,
		"filename", filename,
		"fieldName", field,
		"firstIndex", firstIndex,
		"secondIndex", secondIndex,
	)
}

// EmptyColumnName reports a header cell without a name.
func EmptyColumnName(filename string, index int) Notice {
	return New(CodeEmptyColumnName, SeverityError,
		"filename", filename,
		"index", index,
	)
}

// UnknownColumn reports a header not described by the table schema.
func UnknownColumn(filename, field string, index int) Notice {
	return New(CodeUnknownColumn, SeverityInfo,
		"filename", filename,
		"fieldName", field,
		"index", index,
	)
}

// UnknownFile reports an archive member that matches no known table.
func UnknownFile(filename string) Notice {
	return New(CodeUnknownFile, SeverityInfo, "filename", filename)
}

// MissingRequiredFile reports a required table absent from the feed.
func MissingRequiredFile(filename string) Notice {
	return New(CodeMissingRequiredFile, SeverityError, "filename", filename)
}

// MissingRecommendedFile reports a recommended table absent from the feed.
func MissingRecommendedFile(filename string) Notice {
	return New(CodeMissingRecommendedFile, SeverityWarning, "filename", filename)
}

// LeadingOrTrailingWhitespaces reports a value padded with whitespace.
func LeadingOrTrailingWhitespaces(filename string, row int, field, value string) Notice {
	return New(CodeLeadingOrTrailingWhitespace, SeverityWarning,
		"filename", filename,
		"csvRowNumber", row,
		"fieldName", field,
		"fieldValue", value,
	)
}

// NewLineInValue reports a value containing a line break.
func NewLineInValue(filename string, row int, field, value string) Notice {
	return New(CodeNewLineInValue, SeverityError,
		"filename", filename,
		"csvRowNumber", row,
		"fieldName", field,
		"fieldValue", value,
	)
}

// NonASCIIOrNonPrintableChar reports an id with characters outside printable ASCII.
func NonASCIIOrNonPrintableChar(filename string, row int, field, value string) Notice {
	return New(CodeNonASCIIOrNonPrintableChar, SeverityWarning,
		"filename", filename,
		"csvRowNumber", row,
		"fieldName", field,
		"fieldValue", value,
	)
}

// DuplicateKey reports two rows sharing a primary key.
func DuplicateKey(filename string, oldRow, newRow int, key string) Notice {
	return New(CodeDuplicateKey, SeverityError,
		"filename", filename,
		"oldCsvRowNumber", oldRow,
		"newCsvRowNumber", newRow,
		"key", key,
	)
}

// ForeignKeyViolation reports a reference to a row that does not exist.
func ForeignKeyViolation(childFile, childField, parentFile, parentField, value string, row int) Notice {
	return New(CodeForeignKeyViolation, SeverityError,
		"childFilename", childFile,
		"childFieldName", childField,
		"parentFilename", parentFile,
		"parentFieldName", parentField,
		"fieldValue", value,
		"csvRowNumber", row,
	)
}

// MixedCaseRecommendedField reports a text value written in a single case.
func MixedCaseRecommendedField(filename string, row int, field, value string) Notice {
	return New(CodeMixedCaseRecommendedField, SeverityWarning,
		"filename", filename,
		"csvRowNumber", row,
		"fieldName", field,
		"fieldValue", value,
	)
}

// MoreThanOneEntity reports a single-row table that holds several rows.
func MoreThanOneEntity(filename string, entityCount int) Notice {
	return New(CodeMoreThanOneEntity, SeverityError,
		"filename", filename,
		"entityCount", entityCount,
	)
}

// StartAndEndRangeOutOfOrder reports a range whose end precedes its start.
func StartAndEndRangeOutOfOrder(filename string, row int, startField, startValue, endField, endValue string) Notice {
	return New(CodeStartAndEndRangeOutOfOrder, SeverityError,
		"filename", filename,
		"csvRowNumber", row,
		"startFieldName", startField,
		"startValue", startValue,
		"endFieldName", endField,
		"endValue", endValue,
	)
}

// UnusableTrip reports a trip served by fewer than two stops.
func UnusableTrip(row int, tripID string) Notice {
	return New(CodeUnusableTrip, SeverityWarning,
		"filename", "trips.txt",
		"csvRowNumber", row,
		"tripId", tripID,
	)
}

// RuntimeExceptionInLoader is the system error for a loader worker that panicked.
func RuntimeExceptionInLoader(filename string, recovered any) Notice {
	return New(CodeRuntimeExceptionInLoader, SeverityError,
		"filename", filename,
		"exception", fmt.Sprintf("%T", recovered),
		"message", fmt.Sprint(recovered),
		"stack", string(debug.Stack()),
	)
}

// RuntimeExceptionInValidator is the system error for a validator that panicked.
func RuntimeExceptionInValidator(validator string, recovered any) Notice {
	return New(CodeRuntimeExceptionInValidator, SeverityError,
		"validator", validator,
		"exception", fmt.Sprintf("%T", recovered),
		"message", fmt.Sprint(recovered),
	)
}

// ThreadExecutionError is the system error for a worker that failed outside any table.
func ThreadExecutionError(err error) Notice {
	return New(CodeThreadExecutionError, SeverityError, "message", errMessage(err))
}

// IOError is the system error for a member that could not be read.
func IOError(filename string, err error) Notice {
	return New(CodeIOError, SeverityError,
		"filename", filename,
		"message", errMessage(err),
	)
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
