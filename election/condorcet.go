// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

// Matchup is the weighted head-to-head result between two candidates
type Matchup[C comparable] struct {
	A    C
	B    C
	ForA int
	ForB int
}

// Winner returns the candidate with a strict majority in the matchup.
// A tie has no winner.
func (m Matchup[C]) Winner() (C, bool) {
	switch {
	case m.ForA > m.ForB:
		return m.A, true
	case m.ForB > m.ForA:
		return m.B, true
	default:
		var zero C
		return zero, false
	}
}

// HeadToHead sums the weight of ballots preferring a over b, and b over a.
// It panics if a ballot ranks neither candidate.
func (e *Election[C]) HeadToHead(a, b C) (forA, forB int) {
	for _, wb := range e.ballots {
		if wb.Ballot.MustWhoIsFirst(a, b) == a {
			forA += wb.Weight
		} else {
			forB += wb.Weight
		}
	}
	return forA, forB
}

// CondorcetWinner returns the candidate that strictly beats every other
// candidate head-to-head. A tie counts as a loss. There is no winner when
// the pairwise majorities are cyclic.
//
// A lone candidate has no opponents and wins. If the input is ill-formed
// and several candidates qualify, the last one in enumeration order is
// returned.
func (e *Election[C]) CondorcetWinner() (C, bool) {
	var (
		winner C
		found  bool
	)

outer:
	for _, candidate := range e.candidates {
		for _, other := range e.candidates {
			if other == candidate {
				continue
			}
			forCandidate, forOther := e.HeadToHead(candidate, other)
			if forCandidate <= forOther {
				continue outer
			}
		}
		winner, found = candidate, true
	}

	return winner, found
}

// Pairwise returns the matchup for every unordered pair of candidates,
// in enumeration order.
func (e *Election[C]) Pairwise() []Matchup[C] {
	n := len(e.candidates)
	matchups := make([]Matchup[C], 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a, b := e.candidates[i], e.candidates[j]
			forA, forB := e.HeadToHead(a, b)
			matchups = append(matchups, Matchup[C]{A: a, B: b, ForA: forA, ForB: forB})
		}
	}
	return matchups
}
