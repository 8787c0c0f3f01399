package aggregate

import "github.com/pkordes/match-results/backend/internal/domain"

// identity is the key under which two rows count as the same match.
type identity struct {
	location string
	address  string
	date     string
}

func identityOf(r domain.DisplayRow) identity {
	return identity{location: r.Location, address: r.Address, date: r.Date}
}

// Merge folds candidates into one row per identity (location, address, date).
// The first candidate seen for an identity supplies the row, including its
// Time; each later duplicate only increments NumberOfMatches. Rows keep the
// order in which their identity first appeared.
//
// Candidates are counted as one match each regardless of their own
// NumberOfMatches. The input is not modified and the result is never nil.
func Merge(candidates []domain.DisplayRow) []domain.DisplayRow {
	out := make([]domain.DisplayRow, 0, len(candidates))
	seen := make(map[identity]int, len(candidates))

	for _, c := range candidates {
		key := identityOf(c)
		if i, ok := seen[key]; ok {
			out[i].NumberOfMatches++
			continue
		}
		seen[key] = len(out)
		c.NumberOfMatches = 1
		out = append(out, c)
	}
	return out
}
