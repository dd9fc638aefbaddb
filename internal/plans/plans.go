package plans

import "strings"

// Plan is read-only reference data describing a subscription tier and its
// monthly word quota.
type Plan struct {
	Name             string   `json:"name"`
	MonthlyWordLimit int      `json:"monthlyWordLimit"`
	PriceCentsMonth  int      `json:"priceCentsMonth"`
	Features         []string `json:"features"`
}

const DefaultPlanName = "Starter"

var catalog = []Plan{
	{
		Name:             "Starter",
		MonthlyWordLimit: 5000,
		PriceCentsMonth:  0,
		Features: []string{
			"5,000 analyzed words per billing cycle",
			"1 leader persona",
			"Transcripts and basic analysis",
		},
	},
	{
		Name:             "Pro",
		MonthlyWordLimit: 50000,
		PriceCentsMonth:  1200,
		Features: []string{
			"50,000 analyzed words per billing cycle",
			"Up to 3 leader personas",
			"Alternative phrasing suggestions",
			"Usage history export",
		},
	},
	{
		Name:             "Executive",
		MonthlyWordLimit: 200000,
		PriceCentsMonth:  2900,
		Features: []string{
			"200,000 analyzed words per billing cycle",
			"Up to 3 leader personas",
			"Priority analysis queue",
			"Usage history export",
		},
	},
}

// All returns the plan catalog in display order.
func All() []Plan {
	out := make([]Plan, len(catalog))
	copy(out, catalog)
	return out
}

// ByName returns the plan with the given name, case-insensitively.
func ByName(name string) (Plan, bool) {
	for _, p := range catalog {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, true
		}
	}
	return Plan{}, false
}

// Default returns the plan assigned to new users and guests.
func Default() Plan {
	p, _ := ByName(DefaultPlanName)
	return p
}
