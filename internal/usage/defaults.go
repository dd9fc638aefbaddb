package usage

import (
	"time"

	"leadertalk-backend/internal/billing"
	"leadertalk-backend/internal/plans"
)

// defaultUsage starts a fresh cycle on the default plan anchored at now.
// New users and guests land here until a subscription says otherwise.
func defaultUsage(now time.Time) Usage {
	plan := plans.Default()
	cycle := billing.CycleAt(now, now)
	return Usage{
		Plan:        plan.Name,
		WordLimit:   plan.MonthlyWordLimit,
		Used:        0,
		CycleNumber: cycle.Number,
		CycleStart:  cycle.Start,
		CycleEnd:    cycle.End,
		ResetsAt:    cycle.End,
	}
}
