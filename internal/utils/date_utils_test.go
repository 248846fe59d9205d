package utils

import (
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateValidator_ValidateAndConvert(t *testing.T) {
	validator := NewDateValidator()

	testCases := []struct {
		input          string
		shouldBeValid  bool
		expectedFormat DateFormat
	}{
		{"2024-04-03", true, FormatISO8601Date},
		{"2024-04-03T12:00:00.000Z", true, FormatRFC3339Nano},
		{"2024-04-03T12:00:00Z", true, FormatRFC3339Nano},
		{"2024-04-03T12:00:00", true, FormatLocalTime},
		{"04/03/2024", false, ""},
		{"2024-13-01", false, ""},
		{"invalid-date", false, ""},
		{"", false, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			result := validator.ValidateAndConvert(tc.input)

			assert.Equal(t, tc.shouldBeValid, result.IsValid)
			if tc.shouldBeValid {
				assert.Equal(t, tc.expectedFormat, result.DetectedFormat)
			}
		})
	}
}

func TestParseCalendarDate(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Plain date", input: "2024-04-03", expected: "2024-04-03"},
		{name: "Midday UTC", input: "2024-04-03T12:00:00.000Z", expected: "2024-04-03"},
		{name: "Late evening west of UTC", input: "2024-04-03T23:30:00-05:00", expected: "2024-04-03"},
		{name: "Early morning east of UTC", input: "2024-04-03T00:30:00+09:00", expected: "2024-04-03"},
		{name: "Just before midnight UTC", input: "2024-04-03T23:59:59Z", expected: "2024-04-03"},
		{name: "Leap day", input: "2024-02-29", expected: "2024-02-29"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			date, err := ParseCalendarDate(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, FormatCalendarDate(date))
		})
	}
}

func TestParseCalendarDate_IgnoresServerTimezone(t *testing.T) {
	original := time.Local
	t.Cleanup(func() { time.Local = original })

	zones := []*time.Location{
		time.FixedZone("UTC-12", -12*60*60),
		time.UTC,
		time.FixedZone("UTC+14", 14*60*60),
	}

	for _, zone := range zones {
		t.Run(zone.String(), func(t *testing.T) {
			time.Local = zone

			for _, input := range []string{"2024-04-03", "2024-04-03T12:00:00.000Z", "2024-04-03T00:00:00"} {
				date, err := ParseCalendarDate(input)
				require.NoError(t, err)
				assert.Equal(t, "2024-04-03", FormatCalendarDate(date), input)
			}
		})
	}
}

func TestParseCalendarDate_Invalid(t *testing.T) {
	_, err := ParseCalendarDate("next tuesday")

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestCalendarDate_StoredAtUTCMidnight(t *testing.T) {
	evening := time.Date(2024, 4, 3, 22, 15, 0, 0, time.FixedZone("EDT", -4*60*60))

	stored := time.Time(CalendarDate(evening))

	assert.Equal(t, time.UTC, stored.Location())
	assert.Equal(t, 0, stored.Hour())
	assert.Equal(t, 3, stored.Day())
}

func TestFormatOptionalCalendarDate(t *testing.T) {
	assert.Nil(t, FormatOptionalCalendarDate(nil))

	date := CalendarDate(time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC))
	formatted := FormatOptionalCalendarDate(&date)
	require.NotNil(t, formatted)
	assert.Equal(t, "2024-01-09", *formatted)
}

func TestNormalizePlate(t *testing.T) {
	assert.Equal(t, "ABC123", NormalizePlate(" abc 123 "))
	assert.Equal(t, "Oil Change", CleanText("  Oil   Change\x00 "))
}
