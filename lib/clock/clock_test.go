package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDayUsesUTC(t *testing.T) {
	// late evening in a western timezone is already the next day in UTC
	loc := time.FixedZone("UTC-5", -5*60*60)
	local := time.Date(2026, 8, 27, 23, 30, 0, 0, loc)
	require.Equal(t, "2026-08-28", Day(local))
}

func TestWindowStartOrdersBeforeToday(t *testing.T) {
	require.Less(t, WindowStart(7), Today())
	require.Equal(t, Today(), WindowStart(0))
}
