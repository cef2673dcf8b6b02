// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import "fmt"

// Ballot is a strict preference ordering over candidates.
// Index 0 is the most preferred candidate.
type Ballot[C comparable] struct {
	ranking []C
}

// NewBallot copies the ranking so later changes by the caller
// cannot affect the ballot.
func NewBallot[C comparable](ranking ...C) Ballot[C] {
	r := make([]C, len(ranking))
	copy(r, ranking)
	return Ballot[C]{ranking: r}
}

// Ranking returns a copy of the ordering
func (b Ballot[C]) Ranking() []C {
	r := make([]C, len(b.ranking))
	copy(r, b.ranking)
	return r
}

func (b Ballot[C]) Len() int {
	return len(b.ranking)
}

// First returns the most preferred candidate, if any
func (b Ballot[C]) First() (C, bool) {
	if len(b.ranking) == 0 {
		var zero C
		return zero, false
	}
	return b.ranking[0], true
}

// WhoIsFirst returns whichever of a and c appears earlier in the ranking.
// The bool is false when neither candidate is ranked.
func (b Ballot[C]) WhoIsFirst(a, c C) (C, bool) {
	for _, it := range b.ranking {
		if it == a {
			return a, true
		}
		if it == c {
			return c, true
		}
	}
	var zero C
	return zero, false
}

// MustWhoIsFirst is WhoIsFirst for callers that guarantee both candidates
// are ranked. It panics otherwise: a missing candidate would silently skew
// a pairwise tally.
func (b Ballot[C]) MustWhoIsFirst(a, c C) C {
	winner, ok := b.WhoIsFirst(a, c)
	if !ok {
		panic(fmt.Sprintf("election: ballot ranks neither %v nor %v", a, c))
	}
	return winner
}

// WeightedBallot is a ranking shared by Weight voters
type WeightedBallot[C comparable] struct {
	Weight int
	Ballot Ballot[C]
}

// Weighted is shorthand for building a WeightedBallot
func Weighted[C comparable](weight int, ranking ...C) WeightedBallot[C] {
	return WeightedBallot[C]{Weight: weight, Ballot: NewBallot(ranking...)}
}
