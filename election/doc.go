// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package election computes winners from weighted ranked ballots.

# Ballots

A Ballot is a strict ordering, most preferred first. Voters who submitted
the same ordering are collapsed into one WeightedBallot:

	ballots := []election.WeightedBallot[string]{
		election.Weighted(35, "a", "b", "c"),
		election.Weighted(25, "b", "c", "a"),
		election.Weighted(15, "c", "b", "a"),
	}
	e := election.New([]string{"a", "b", "c"}, ballots)

The package is generic over any comparable candidate type.

# Condorcet

CondorcetWinner returns the candidate who beats every other candidate by a
strict weighted majority:

	winner, ok := e.CondorcetWinner() // "b", true

A pairwise tie counts as a loss, so cyclic majorities and even splits have
no winner.

# Plurality

PluralityWinner returns the candidate with strictly the most first
preferences. A tie for the top score has no winner.

# Preconditions

Both algorithms assume every ballot ranks every candidate. HeadToHead
panics when a ballot ranks neither candidate being compared. Call Validate
first when ballots come from an untrusted source:

	if err := e.Validate(); err != nil {
		return err
	}

An Election is immutable once built and safe for concurrent use.
*/
package election
