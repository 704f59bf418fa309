package triage

import "strings"

// rule maps a keyword set to the category it triggers.
type rule struct {
	category Category
	keywords []string
}

// rules are evaluated in order and the first match wins, so a text naming
// both a Red and a Green symptom resolves to Red.
var rules = []rule{
	{CategoryRed, []string{
		"chest pain",
		"difficulty breathing",
		"severe bleeding",
		"unconscious",
		"cardiac arrest",
		"stroke",
		"severe trauma",
	}},
	{CategoryOrange, []string{
		"severe pain",
		"high fever",
		"vomiting blood",
		"severe headache",
		"broken bone",
		"seizure",
	}},
	{CategoryYellow, []string{
		"moderate pain",
		"fever",
		"nausea",
		"dizziness",
		"rash",
		"cough",
		"abdominal pain",
	}},
	{CategoryGreen, []string{
		"minor",
		"cold",
		"runny nose",
		"sore throat",
		"minor cut",
		"bruise",
	}},
}

// Classify returns the rule-based verdict for free-text symptoms.
//
// Matching is case-insensitive substring containment with no tokenization
// or negation handling: "no chest pain" matches Red. Text that matches no
// rule is Black.
func Classify(text string) Verdict {
	lower := strings.ToLower(text)
	for _, r := range rules {
		if containsAny(lower, r.keywords) {
			v, _ := VerdictFor(r.category)
			return v
		}
	}
	return unknownVerdict()
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
