package ui

import (
	"sort"
	"strings"
)

const (
	// DefaultMaxDistance is the largest edit distance still offered as a suggestion
	DefaultMaxDistance = 3
	// DefaultMaxSuggestions bounds the number of suggestions returned
	DefaultMaxSuggestions = 3
)

type suggestion struct {
	value    string
	distance int
}

// Suggest returns up to DefaultMaxSuggestions candidates close to target,
// closest first. Matching ignores case and compares against both the full
// candidate and its last dotted segment, so "Prodct" finds "Model.Product".
//
//	Suggest("Pric", []string{"Price", "Name", "Id"}) // ["Price"]
func Suggest(target string, candidates []string) []string {
	want := strings.ToLower(target)
	if want == "" {
		return nil
	}

	var found []suggestion
	seen := make(map[string]bool)
	for _, candidate := range candidates {
		if seen[candidate] {
			continue
		}
		seen[candidate] = true

		full := strings.ToLower(candidate)
		dist := LevenshteinDistance(want, full)
		if i := strings.LastIndex(full, "."); i >= 0 {
			dist = min(dist, LevenshteinDistance(want, full[i+1:]))
		}
		if dist <= DefaultMaxDistance {
			found = append(found, suggestion{value: candidate, distance: dist})
		}
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].distance != found[j].distance {
			return found[i].distance < found[j].distance
		}
		return found[i].value < found[j].value
	})

	out := make([]string, 0, DefaultMaxSuggestions)
	for i := 0; i < len(found) && i < DefaultMaxSuggestions; i++ {
		out = append(out, found[i].value)
	}
	return out
}

// LevenshteinDistance counts the single-rune insertions, deletions and
// substitutions that turn s1 into s2.
func LevenshteinDistance(s1, s2 string) int {
	a, b := []rune(s1), []rune(s2)
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
