package billing

import (
	"sort"
	"time"
)

// Entry is one analyzed recording's word charge, as stored in the usage log.
type Entry struct {
	RecordingID string    `json:"recordingId"`
	WordCount   int       `json:"wordCount"`
	CreatedAt   time.Time `json:"createdAt"`
	CycleNumber int       `json:"cycleNumber"`
	CycleStart  time.Time `json:"cycleStart"`
	CycleEnd    time.Time `json:"cycleEnd"`
}

// RunningPoint is an entry annotated with the cumulative word total up to and
// including it, ordered by creation time within a cycle.
type RunningPoint struct {
	CreatedAt    time.Time `json:"createdAt"`
	WordCount    int       `json:"wordCount"`
	RunningTotal int       `json:"runningTotal"`
}

// DayPoint consolidates all entries of one calendar day (UTC) into a single
// chart point.
type DayPoint struct {
	Day        time.Time `json:"day"`
	WordCount  int       `json:"wordCount"`
	EntryCount int       `json:"entryCount"`
}

// CycleSummary aggregates one billing cycle's entries for display.
type CycleSummary struct {
	Cycle       Cycle          `json:"cycle"`
	TotalWords  int            `json:"totalWords"`
	EntryCount  int            `json:"entryCount"`
	Running     []RunningPoint `json:"running"`
	Days        []DayPoint     `json:"days"`
	PercentUsed float64        `json:"percentUsed"`
}

// Summarize groups entries by billing cycle and computes per-cycle totals,
// running totals, and per-day consolidation. wordLimit sets PercentUsed;
// a non-positive limit yields 0. Empty input yields empty output. Cycles are
// returned in ascending cycle order; the sum of entry word counts in each
// summary equals its TotalWords.
func Summarize(entries []Entry, wordLimit int) []CycleSummary {
	if len(entries) == 0 {
		return nil
	}

	byCycle := make(map[int][]Entry)
	for _, e := range entries {
		byCycle[e.CycleNumber] = append(byCycle[e.CycleNumber], e)
	}

	numbers := make([]int, 0, len(byCycle))
	for n := range byCycle {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	out := make([]CycleSummary, 0, len(numbers))
	for _, n := range numbers {
		group := byCycle[n]
		sort.Slice(group, func(i, j int) bool {
			return group[i].CreatedAt.Before(group[j].CreatedAt)
		})

		summary := CycleSummary{
			Cycle: Cycle{
				Number: n,
				Start:  group[0].CycleStart,
				End:    group[0].CycleEnd,
			},
			EntryCount: len(group),
			Running:    runningTotals(group),
			Days:       ConsolidateByDay(group),
		}
		for _, e := range group {
			summary.TotalWords += e.WordCount
		}
		summary.PercentUsed = PercentOfLimit(summary.TotalWords, wordLimit)
		out = append(out, summary)
	}
	return out
}

func runningTotals(sorted []Entry) []RunningPoint {
	out := make([]RunningPoint, 0, len(sorted))
	total := 0
	for _, e := range sorted {
		total += e.WordCount
		out = append(out, RunningPoint{
			CreatedAt:    e.CreatedAt,
			WordCount:    e.WordCount,
			RunningTotal: total,
		})
	}
	return out
}

// ConsolidateByDay merges entries that share a UTC calendar day into single
// points, ordered by day. Charts with many recordings per day stay readable.
func ConsolidateByDay(entries []Entry) []DayPoint {
	if len(entries) == 0 {
		return nil
	}

	byDay := make(map[time.Time]*DayPoint)
	for _, e := range entries {
		day := e.CreatedAt.UTC().Truncate(24 * time.Hour)
		point, ok := byDay[day]
		if !ok {
			point = &DayPoint{Day: day}
			byDay[day] = point
		}
		point.WordCount += e.WordCount
		point.EntryCount++
	}

	out := make([]DayPoint, 0, len(byDay))
	for _, point := range byDay {
		out = append(out, *point)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Day.Before(out[j].Day)
	})
	return out
}

// PercentOfLimit returns used/limit as a percentage clamped to [0, 100].
func PercentOfLimit(used, limit int) float64 {
	if limit <= 0 || used <= 0 {
		return 0
	}
	pct := float64(used) / float64(limit) * 100.0
	if pct > 100 {
		return 100
	}
	return pct
}
