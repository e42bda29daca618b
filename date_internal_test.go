package schemaforge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freezeClock(t *testing.T, at time.Time) {
	t.Helper()
	prev := clock
	clock = func() time.Time { return at }
	t.Cleanup(func() { clock = prev })
}

func dateNode(t *testing.T, lo, hi string) *Node {
	t.Helper()
	n := NewDateString("birthday")
	if lo != "" {
		require.NoError(t, n.SetMinValue(lo))
	}
	if hi != "" {
		require.NoError(t, n.SetMaxValue(hi))
	}
	return n
}

func TestDate_BoundsResolveAtBuildTime(t *testing.T) {
	freezeClock(t, time.Date(2024, 6, 15, 12, 30, 0, 0, time.UTC))
	n := dateNode(t, "-1 year", "+60 year")
	assert.Equal(t, "2023-06-15", n.MinValue())
	assert.Equal(t, "2084-06-15", n.MaxValue())

	freezeClock(t, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2023-06-15", n.MinValue())

	err := NewDateString("d").SetMinValue("whenever")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestDate_PastBoundsActAsAgeLimits(t *testing.T) {
	freezeClock(t, time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	n := dateNode(t, "-1 year", "-20 years")

	iss := n.Validate(t.Context(), "2003-06-15", nil)
	require.Len(t, iss, 1)
	assert.Equal(t, CodeMoreThanMaxValue, iss[0].Code)
	assert.Equal(t, "Date '2003-06-15' does not match maxValue (2004-06-15) constraint", iss[0].Message)

	assert.Empty(t, n.Validate(t.Context(), "2010-01-01", nil))

	iss = n.Validate(t.Context(), "2024-01-01", nil)
	require.Len(t, iss, 1)
	assert.Equal(t, CodeLessThanMinValue, iss[0].Code)
	assert.Equal(t, "Date '2024-01-01' does not match minValue (2023-06-15) constraint", iss[0].Message)
}

func TestDate_FutureBoundsArePlainLimits(t *testing.T) {
	freezeClock(t, time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	n := dateNode(t, "+1 day", "+10 days")

	assert.Equal(t, []string{CodeLessThanMinValue}, n.Validate(t.Context(), "2024-06-15", nil).Codes())
	assert.Empty(t, n.Validate(t.Context(), "2024-06-20", nil))
	assert.Equal(t, []string{CodeMoreThanMaxValue}, n.Validate(t.Context(), "2024-07-05", nil).Codes())
}

func TestDate_InvalidInput(t *testing.T) {
	freezeClock(t, time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	n := dateNode(t, "", "")
	for _, in := range []any{"not a date", "2024-13-40"} {
		iss := n.Validate(t.Context(), in, nil)
		require.Len(t, iss, 1, "%v", in)
		assert.Equal(t, CodeNotValidDate, iss[0].Code)
	}
	assert.Empty(t, n.Validate(t.Context(), "2024-02-29", nil))
}

func TestDate_EmptyInputIsNow(t *testing.T) {
	freezeClock(t, time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	for _, in := range []any{"", nil} {
		assert.Empty(t, dateNode(t, "", "").Validate(t.Context(), in, nil), "%v", in)
		assert.Empty(t, dateNode(t, "", "-18 years").Validate(t.Context(), in, nil), "%v", in)
		assert.Equal(t, []string{CodeLessThanMinValue}, dateNode(t, "-1 year", "").Validate(t.Context(), in, nil).Codes(), "%v", in)
	}
}

func TestDate_BuildFromDeclaration(t *testing.T) {
	freezeClock(t, time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	root, err := Build(map[string]any{
		"properties": map[string]any{
			"birthday": map[string]any{"type": "string", "format": "date", "minValue": "-1 year", "maxValue": "-18 years"},
		},
	})
	require.NoError(t, err)
	n := root.Property("birthday")
	require.NotNil(t, n)
	assert.Equal(t, KindDateString, n.Kind())
	assert.Equal(t, "2006-06-15", n.MaxValue())

	iss := root.Validate(t.Context(), map[string]any{"birthday": "2000-05-01"}, nil)
	require.Len(t, iss, 1)
	assert.Equal(t, "#/birthday", iss[0].Path)
	assert.Equal(t, CodeMoreThanMaxValue, iss[0].Code)
}
