package utils

import (
	"strings"
	"time"

	"github.com/juju/errors"
	"gorm.io/datatypes"
)

type DateFormat string

const (
	FormatISO8601Date DateFormat = "2006-01-02"
	FormatRFC3339Nano DateFormat = time.RFC3339Nano
	FormatRFC3339     DateFormat = time.RFC3339
	FormatLocalTime   DateFormat = "2006-01-02T15:04:05"
)

type DateValidator struct {
	supportedFormats []DateFormat
}

type ValidationResult struct {
	IsValid        bool
	DetectedFormat DateFormat
	ParsedTime     time.Time
	OriginalValue  string
}

func NewDateValidator() *DateValidator {
	return &DateValidator{
		supportedFormats: []DateFormat{
			FormatISO8601Date,
			FormatRFC3339Nano,
			FormatRFC3339,
			FormatLocalTime,
		},
	}
}

// ValidateAndConvert tries each supported layout in order. Layouts without
// an offset are read as UTC so the result never depends on time.Local.
func (dv *DateValidator) ValidateAndConvert(input string) ValidationResult {
	result := ValidationResult{OriginalValue: input}

	input = strings.TrimSpace(input)
	if input == "" {
		return result
	}

	for _, format := range dv.supportedFormats {
		parsedTime, err := time.ParseInLocation(string(format), input, time.UTC)
		if err != nil {
			continue
		}

		result.IsValid = true
		result.DetectedFormat = format
		result.ParsedTime = parsedTime
		return result
	}

	return result
}

// ParseCalendarDate reads a date or timestamp and keeps only the calendar
// day as written in the value's own offset. "2024-04-03T23:30:00-05:00" is
// April 3rd even though it is April 4th in UTC.
func ParseCalendarDate(input string) (datatypes.Date, error) {
	result := NewDateValidator().ValidateAndConvert(input)
	if !result.IsValid {
		return datatypes.Date{}, errors.NotValidf("date %q", input)
	}

	return CalendarDate(result.ParsedTime), nil
}

// CalendarDate drops the clock and zone of t, keeping the year, month and
// day t shows in its own location.
func CalendarDate(t time.Time) datatypes.Date {
	year, month, day := t.Date()
	return datatypes.Date(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

func FormatCalendarDate(date datatypes.Date) string {
	return time.Time(date).Format(string(FormatISO8601Date))
}

// FormatOptionalCalendarDate renders nil as nil so JSON responses carry null.
func FormatOptionalCalendarDate(date *datatypes.Date) *string {
	if date == nil {
		return nil
	}
	formatted := FormatCalendarDate(*date)
	return &formatted
}
