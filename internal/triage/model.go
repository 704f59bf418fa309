package triage

import "errors"

// Category is a triage priority bucket.
type Category string

const (
	// CategoryRed means immediate, life-threatening
	CategoryRed Category = "Red"

	// CategoryOrange means urgent
	CategoryOrange Category = "Orange"

	// CategoryYellow means less urgent
	CategoryYellow Category = "Yellow"

	// CategoryGreen means non-urgent
	CategoryGreen Category = "Green"

	// CategoryBlack means not enough information to triage
	CategoryBlack Category = "Black"
)

// Source records which path produced a verdict.
type Source string

const (
	SourceModel Source = "model"
	SourceRules Source = "rules"
)

// ErrInvalidInput is returned when symptom text is empty after trimming.
var ErrInvalidInput = errors.New("symptoms are required")

// Verdict is a triage classification. Category and Severity always agree
// with the category table; construct verdicts with VerdictFor.
type Verdict struct {
	Category    Category `json:"category"`
	Severity    int      `json:"severity"`
	Emoji       string   `json:"emoji"`
	Description string   `json:"description"`
}

// categories is ordered most severe first.
var categories = []Verdict{
	{
		Category:    CategoryRed,
		Severity:    4,
		Emoji:       "\U0001f534", // red circle
		Description: "Immediate attention required — life threatening.",
	},
	{
		Category:    CategoryOrange,
		Severity:    3,
		Emoji:       "\U0001f7e0", // orange circle
		Description: "Urgent — should be seen within 30 minutes.",
	},
	{
		Category:    CategoryYellow,
		Severity:    2,
		Emoji:       "\U0001f7e1", // yellow circle
		Description: "Less urgent — should be seen within 2 hours.",
	},
	{
		Category:    CategoryGreen,
		Severity:    1,
		Emoji:       "\U0001f7e2", // green circle
		Description: "Non-urgent — can wait several hours.",
	},
	{
		Category:    CategoryBlack,
		Severity:    0,
		Emoji:       "⚫", // black circle
		Description: "Assessment needed — please provide more specific symptoms.",
	},
}

// VerdictFor returns the verdict for a category, and false if the
// category is not one of the five known buckets.
func VerdictFor(c Category) (Verdict, bool) {
	for _, v := range categories {
		if v.Category == c {
			return v, true
		}
	}
	return Verdict{}, false
}

// Categories returns the category table, most severe first.
func Categories() []Verdict {
	out := make([]Verdict, len(categories))
	copy(out, categories)
	return out
}

func unknownVerdict() Verdict {
	v, _ := VerdictFor(CategoryBlack)
	return v
}
