package billing

import "time"

// CycleLength is the fixed billing window: 30 days anchored to the user's
// subscription start date.
const CycleLength = 30 * 24 * time.Hour

// Cycle is one quota window. Numbers start at 1; Start is inclusive, End
// exclusive.
type Cycle struct {
	Number int       `json:"cycleNumber"`
	Start  time.Time `json:"cycleStart"`
	End    time.Time `json:"cycleEnd"`
}

// CycleAt returns the cycle containing t for the given anchor. Times before
// the anchor fall into cycle 1; the anchor itself starts cycle 1.
func CycleAt(anchor, t time.Time) Cycle {
	anchor = anchor.UTC()
	t = t.UTC()
	n := 1
	if t.After(anchor) {
		n = int(t.Sub(anchor)/CycleLength) + 1
	}
	return CycleBounds(anchor, n)
}

// CycleBounds returns the bounds for cycle number n (n >= 1).
func CycleBounds(anchor time.Time, n int) Cycle {
	if n < 1 {
		n = 1
	}
	anchor = anchor.UTC()
	start := anchor.Add(time.Duration(n-1) * CycleLength)
	return Cycle{
		Number: n,
		Start:  start,
		End:    start.Add(CycleLength),
	}
}

// Contains reports whether t falls inside the cycle window.
func (c Cycle) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(c.Start) && t.Before(c.End)
}
