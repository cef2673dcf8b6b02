// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"errors"
	"fmt"
)

var (
	ErrNoCandidates     = errors.New("election has no candidates")
	ErrNegativeWeight   = errors.New("ballot weight is negative")
	ErrIncompleteBallot = errors.New("ballot does not rank every candidate")
	ErrDuplicateRanking = errors.New("ballot ranks a candidate more than once")
	ErrUnknownCandidate = errors.New("ballot ranks an unknown candidate")
)

// Election is a candidate set plus the weighted ballots cast over it.
// It is never mutated after New, so it is safe for concurrent use.
type Election[C comparable] struct {
	candidates []C
	index      map[C]int
	ballots    []WeightedBallot[C]
}

// New builds an election. Duplicate candidates are dropped, keeping the
// first occurrence. Ballots are not validated; see Validate.
func New[C comparable](candidates []C, ballots []WeightedBallot[C]) *Election[C] {
	e := &Election[C]{
		candidates: make([]C, 0, len(candidates)),
		index:      make(map[C]int, len(candidates)),
		ballots:    make([]WeightedBallot[C], len(ballots)),
	}
	for _, c := range candidates {
		if _, seen := e.index[c]; seen {
			continue
		}
		e.index[c] = len(e.candidates)
		e.candidates = append(e.candidates, c)
	}
	copy(e.ballots, ballots)
	return e
}

// Candidates returns a copy of the candidate set in enumeration order
func (e *Election[C]) Candidates() []C {
	out := make([]C, len(e.candidates))
	copy(out, e.candidates)
	return out
}

// Ballots returns a copy of the weighted ballots
func (e *Election[C]) Ballots() []WeightedBallot[C] {
	out := make([]WeightedBallot[C], len(e.ballots))
	copy(out, e.ballots)
	return out
}

// Has reports whether c is in the candidate set
func (e *Election[C]) Has(c C) bool {
	_, ok := e.index[c]
	return ok
}

// TotalWeight is the number of voters across all ballots
func (e *Election[C]) TotalWeight() int {
	total := 0
	for _, wb := range e.ballots {
		total += wb.Weight
	}
	return total
}

// Validate checks the preconditions the winner algorithms rely on and
// returns every violation found, joined.
func (e *Election[C]) Validate() error {
	var errs []error
	if len(e.candidates) == 0 {
		errs = append(errs, ErrNoCandidates)
	}

	for i, wb := range e.ballots {
		if wb.Weight < 0 {
			errs = append(errs, fmt.Errorf("ballot %d: %w: %d", i, ErrNegativeWeight, wb.Weight))
		}

		seen := make(map[C]bool, wb.Ballot.Len())
		for _, c := range wb.Ballot.ranking {
			if !e.Has(c) {
				errs = append(errs, fmt.Errorf("ballot %d: %w: %v", i, ErrUnknownCandidate, c))
				continue
			}
			if seen[c] {
				errs = append(errs, fmt.Errorf("ballot %d: %w: %v", i, ErrDuplicateRanking, c))
				continue
			}
			seen[c] = true
		}

		for _, c := range e.candidates {
			if !seen[c] {
				errs = append(errs, fmt.Errorf("ballot %d: %w: missing %v", i, ErrIncompleteBallot, c))
			}
		}
	}

	return errors.Join(errs...)
}
