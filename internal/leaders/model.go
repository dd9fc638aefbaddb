package leaders

// Leader is a reference persona whose communication style the analysis
// compares against.
type Leader struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Bio         string   `json:"bio"`
	Traits      []string `json:"traits"`
	SampleQuote string   `json:"sampleQuote"`
	Featured    bool     `json:"featured"`
	SortOrder   int      `json:"-"`
}
