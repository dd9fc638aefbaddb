package leaders

import (
	"context"
	"sort"
)

type memoryRepo struct {
	leaders []Leader
}

// NewMemoryRepo constructs an in-memory repo seeded with the same personas
// the leaders migration ships.
func NewMemoryRepo() Repo {
	return &memoryRepo{leaders: seedLeaders()}
}

func (r *memoryRepo) List(ctx context.Context) ([]Leader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Leader, len(r.leaders))
	copy(out, r.leaders)
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (r *memoryRepo) ListFeatured(ctx context.Context) ([]Leader, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []Leader
	for _, l := range all {
		if l.Featured {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *memoryRepo) GetByID(ctx context.Context, leaderID string) (Leader, error) {
	if err := ctx.Err(); err != nil {
		return Leader{}, err
	}
	for _, l := range r.leaders {
		if l.ID == leaderID {
			return l, nil
		}
	}
	return Leader{}, ErrNotFound
}

func seedLeaders() []Leader {
	return []Leader{
		{
			ID:          "winston-churchill",
			Name:        "Winston Churchill",
			Title:       "Wartime Prime Minister",
			Bio:         "Rallied a nation with vivid imagery, rhythm, and unshakable resolve.",
			Traits:      []string{"rhetorical cadence", "vivid imagery", "resolve"},
			SampleQuote: "We shall never surrender.",
			Featured:    true,
			SortOrder:   1,
		},
		{
			ID:          "maya-angelou",
			Name:        "Maya Angelou",
			Title:       "Poet and Civil Rights Voice",
			Bio:         "Spoke with warmth and deliberate pacing that made listeners feel seen.",
			Traits:      []string{"warmth", "deliberate pacing", "storytelling"},
			SampleQuote: "People will never forget how you made them feel.",
			Featured:    true,
			SortOrder:   2,
		},
		{
			ID:          "steve-jobs",
			Name:        "Steve Jobs",
			Title:       "Product Storyteller",
			Bio:         "Stripped messages to a single idea and built anticipation around it.",
			Traits:      []string{"simplicity", "contrast", "anticipation"},
			SampleQuote: "Stay hungry, stay foolish.",
			Featured:    true,
			SortOrder:   3,
		},
		{
			ID:          "eleanor-roosevelt",
			Name:        "Eleanor Roosevelt",
			Title:       "Diplomat and Advocate",
			Bio:         "Plain-spoken empathy; framed hard topics around shared values.",
			Traits:      []string{"empathy", "plain language", "values framing"},
			SampleQuote: "No one can make you feel inferior without your consent.",
			SortOrder:   4,
		},
		{
			ID:          "martin-luther-king",
			Name:        "Martin Luther King Jr.",
			Title:       "Movement Leader",
			Bio:         "Anchored arguments in moral clarity and repetition that builds.",
			Traits:      []string{"moral clarity", "repetition", "crescendo"},
			SampleQuote: "The time is always right to do what is right.",
			SortOrder:   5,
		},
	}
}
