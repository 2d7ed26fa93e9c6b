// Package fuzzy implements fuzzywuzzy-style string similarity scores in the
// range [0,100], computed from difflib sequence matching.
package fuzzy

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
)

// Scorer compares two strings and returns a similarity in [0,100].
type Scorer func(s1, s2 string) int

// Process normalises s for comparison: Latin-1 supplement characters are
// dropped, every non-word character becomes a space, letters are lower cased
// and the result is trimmed.
func Process(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= 128 && r <= 255 {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.TrimSpace(b.String())
}

// Ratio is the plain sequence similarity of s1 and s2.
func Ratio(s1, s2 string) int {
	if s1 == s2 {
		return 100
	}
	if s1 == "" || s2 == "" {
		return 0
	}
	return round(100 * difflib.NewMatcher(chars(s1), chars(s2)).Ratio())
}

// PartialRatio is the best Ratio of the shorter string against every
// same-length window of the longer string that is anchored on a matching block.
func PartialRatio(s1, s2 string) int {
	if s1 == s2 {
		return 100
	}
	if s1 == "" || s2 == "" {
		return 0
	}

	shorter, longer := chars(s1), chars(s2)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	best := 0.0
	for _, block := range difflib.NewMatcher(shorter, longer).GetMatchingBlocks() {
		start := block.B - block.A
		if start < 0 {
			start = 0
		}
		end := start + len(shorter)
		if end > len(longer) {
			end = len(longer)
		}
		r := difflib.NewMatcher(shorter, longer[start:end]).Ratio()
		if r > 0.995 {
			return 100
		}
		if r > best {
			best = r
		}
	}
	return round(100 * best)
}

// TokenSortRatio compares the processed, sorted tokens of both strings.
func TokenSortRatio(s1, s2 string) int {
	return Ratio(sortedTokens(s1), sortedTokens(s2))
}

// PartialTokenSortRatio is TokenSortRatio using PartialRatio.
func PartialTokenSortRatio(s1, s2 string) int {
	return PartialRatio(sortedTokens(s1), sortedTokens(s2))
}

// TokenSetRatio compares the shared tokens against each side's full set, so
// that one string being a reordered subset of the other scores 100.
func TokenSetRatio(s1, s2 string) int {
	return tokenSet(s1, s2, Ratio)
}

// PartialTokenSetRatio is TokenSetRatio using PartialRatio. Any shared token
// scores 100.
func PartialTokenSetRatio(s1, s2 string) int {
	return tokenSet(s1, s2, PartialRatio)
}

// WRatio weighs the other scorers by the length ratio of the inputs.
func WRatio(s1, s2 string) int {
	p1, p2 := Process(s1), Process(s2)
	if p1 == "" || p2 == "" {
		return 0
	}

	const unbaseScale = 0.95
	partialScale := 0.90

	base := float64(Ratio(p1, p2))
	l1, l2 := utf8.RuneCountInString(p1), utf8.RuneCountInString(p2)
	lenRatio := float64(max(l1, l2)) / float64(min(l1, l2))

	if lenRatio < 1.5 {
		tsor := float64(TokenSortRatio(p1, p2)) * unbaseScale
		tser := float64(TokenSetRatio(p1, p2)) * unbaseScale
		return round(math.Max(base, math.Max(tsor, tser)))
	}

	if lenRatio > 8 {
		partialScale = 0.6
	}
	partial := float64(PartialRatio(p1, p2)) * partialScale
	ptsor := float64(PartialTokenSortRatio(p1, p2)) * unbaseScale * partialScale
	ptser := float64(PartialTokenSetRatio(p1, p2)) * unbaseScale * partialScale
	return round(math.Max(math.Max(base, partial), math.Max(ptsor, ptser)))
}

func tokenSet(s1, s2 string, score Scorer) int {
	p1, p2 := Process(s1), Process(s2)
	if p1 == "" || p2 == "" {
		return 0
	}

	set1, set2 := tokenSetOf(p1), tokenSetOf(p2)
	var sect, diff1, diff2 []string
	for t := range set1 {
		if _, ok := set2[t]; ok {
			sect = append(sect, t)
		} else {
			diff1 = append(diff1, t)
		}
	}
	for t := range set2 {
		if _, ok := set1[t]; !ok {
			diff2 = append(diff2, t)
		}
	}
	sort.Strings(sect)
	sort.Strings(diff1)
	sort.Strings(diff2)

	sorted := strings.Join(sect, " ")
	combined1 := strings.TrimSpace(sorted + " " + strings.Join(diff1, " "))
	combined2 := strings.TrimSpace(sorted + " " + strings.Join(diff2, " "))

	return max(
		score(sorted, combined1),
		score(sorted, combined2),
		score(combined1, combined2),
	)
}

func tokenSetOf(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range strings.Fields(s) {
		set[t] = struct{}{}
	}
	return set
}

func sortedTokens(s string) string {
	tokens := strings.Fields(Process(s))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// chars splits s into one element per UTF-8 character.
func chars(s string) []string {
	return strings.Split(s, "")
}

func round(f float64) int {
	return int(math.RoundToEven(f))
}
