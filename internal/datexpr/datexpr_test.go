package datexpr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var anchor = time.Date(2024, time.March, 15, 13, 45, 0, 0, time.UTC)

func TestParse_Absolute(t *testing.T) {
	cases := map[string]time.Time{
		"2020-01-31":           time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC),
		"2020-01-31T10:00:00Z": time.Date(2020, 1, 31, 10, 0, 0, 0, time.UTC),
		"2020-01-31 10:30:00":  time.Date(2020, 1, 31, 10, 30, 0, 0, time.UTC),
		"31.01.2020":           time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC),
		"31 January 2020":      time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC),
		"Jan 31, 2020":         time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := Parse(in, anchor)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), "%s: got %s", in, got)
	}
}

func TestParse_Relative(t *testing.T) {
	cases := map[string]string{
		"-1 year":          "2023-03-15",
		"+60 year":         "2084-03-15",
		"now -1 year":      "2023-03-15",
		"6 month":          "2024-09-15",
		"10 years":         "2034-03-15",
		"1 day":            "2024-03-16",
		"2 weeks ago":      "2024-03-01",
		"+1 year -2 days":  "2025-03-13",
		"today":            "2024-03-15",
		"tomorrow":         "2024-03-16",
		"yesterday":        "2024-03-14",
		"now":              "2024-03-15",
		"-18 years":        "2006-03-15",
	}
	for in, want := range cases {
		got, err := Date(in, anchor)
		require.NoError(t, err, in)
		assert.Equal(t, want, Format(got), in)
	}
}

func TestParse_Phrases(t *testing.T) {
	// anchor is a Friday
	cases := map[string]string{
		"next year":                 "2025-03-15",
		"last month":                "2024-02-15",
		"this week":                 "2024-03-15",
		"next monday":               "2024-03-18",
		"last monday":               "2024-03-11",
		"friday":                    "2024-03-15",
		"next friday":               "2024-03-22",
		"last fri":                  "2024-03-08",
		"saturday":                  "2024-03-16",
		"first day of next month":   "2024-04-01",
		"last day of next month":    "2024-04-30",
		"last day of":               "2024-03-31",
		"first day of -1 year":      "2023-03-01",
		"tomorrow +1 week":          "2024-03-23",
		"1 year 2 months ago":       "2023-01-15",
		"noon":                      "2024-03-15",
	}
	for in, want := range cases {
		got, err := Date(in, anchor)
		require.NoError(t, err, in)
		assert.Equal(t, want, Format(got), in)
	}

	jan31 := time.Date(2024, time.January, 31, 9, 0, 0, 0, time.UTC)
	got, err := Date("last day of next month", jan31)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", Format(got))
}

func TestParse_KeepsTimeOfDayForRelative(t *testing.T) {
	got, err := Parse("now -1 year", anchor)
	require.NoError(t, err)
	assert.Equal(t, 13, got.Hour())

	got, err = Parse("today", anchor)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Hour())
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "not a date", "+1 fortnite", "2020-13-45", "abc 1 year", "ago", "next blursday", "1 year ago later"} {
		_, err := Parse(in, anchor)
		assert.ErrorIs(t, err, ErrSyntax, in)
	}
}
