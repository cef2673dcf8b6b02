// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import "sort"

// Score pairs a candidate with a tally
type Score[C comparable] struct {
	Candidate C
	Votes     int
}

// FirstPreferences sums ballot weights by each ballot's top choice.
// Every candidate is present, starting at zero. First choices outside the
// candidate set and empty ballots are ignored.
func (e *Election[C]) FirstPreferences() map[C]int {
	tally := make(map[C]int, len(e.candidates))
	for _, c := range e.candidates {
		tally[c] = 0
	}

	for _, wb := range e.ballots {
		first, ok := wb.Ballot.First()
		if !ok || !e.Has(first) {
			continue
		}
		tally[first] += wb.Weight
	}

	return tally
}

// Standings returns first-preference scores, highest first.
// Equal scores keep enumeration order.
func (e *Election[C]) Standings() []Score[C] {
	tally := e.FirstPreferences()

	scores := make([]Score[C], len(e.candidates))
	for i, c := range e.candidates {
		scores[i] = Score[C]{Candidate: c, Votes: tally[c]}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Votes > scores[j].Votes
	})

	return scores
}

// PluralityWinner returns the candidate with strictly the most first
// preferences. There is no winner if the top two scores tie or nobody
// cast a first preference. A lone candidate with any first preferences
// wins outright.
func (e *Election[C]) PluralityWinner() (C, bool) {
	var zero C

	standings := e.Standings()
	if len(standings) == 0 {
		return zero, false
	}

	top := standings[0]
	if top.Votes == 0 {
		return zero, false
	}
	if len(standings) > 1 && standings[1].Votes == top.Votes {
		return zero, false
	}

	return top.Candidate, true
}
