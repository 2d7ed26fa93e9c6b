package fuzzy

import "sort"

// Match is a scored choice.
type Match struct {
	Choice string
	Score  int
	Index  int
}

// Extract scores every choice against query and returns the best limit
// matches, highest first. Equal scores keep the order of choices.
// A limit <= 0 returns every choice.
func Extract(query string, choices []string, scorer Scorer, limit int) []Match {
	matches := make([]Match, 0, len(choices))
	for i, c := range choices {
		matches = append(matches, Match{Choice: c, Score: scorer(query, c), Index: i})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
