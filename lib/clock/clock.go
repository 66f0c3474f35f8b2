package clock

import "time"

const (
	timeLayout = "2006-01-02T15:04:05Z"
	dayLayout  = "2006-01-02"
)

func Now() string {
	return time.Now().UTC().Format(timeLayout)
}

// Day returns the UTC calendar-day key for a point in time.
// Daily usage counters are bucketed by this key so that the notion of
// "today" never shifts with the host timezone.
func Day(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

func Today() string {
	return Day(time.Now())
}

// WindowStart returns the day key opening a rolling window of the given
// length ending today, inclusive on both ends. Day keys are ISO dates and
// compare correctly as strings.
func WindowStart(days int) string {
	return Day(time.Now().AddDate(0, 0, -days))
}
