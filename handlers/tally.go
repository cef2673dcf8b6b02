// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/danielhkuo/ranked-pick/election"
	"github.com/danielhkuo/ranked-pick/models"
)

// pollElection is a poll's ballots in the shape the election package expects
type pollElection struct {
	Election  *election.Election[string]
	Labels    map[string]string // candidate ID -> label
	BallotIDs []string
}

// loadElection reads a poll's candidates and rankings. Ballots with an
// identical ordering are collapsed into one weighted ballot, in order of
// first submission.
func loadElection(q queryer, pollID string) (*pollElection, error) {
	candidates, err := getCandidates(q, pollID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(candidates))
	labels := make(map[string]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
		labels[c.ID] = c.Label
	}

	rankings, ballotIDs, err := getRankings(q, pollID)
	if err != nil {
		return nil, err
	}

	return &pollElection{
		Election:  election.New(ids, collapseRankings(rankings)),
		Labels:    labels,
		BallotIDs: ballotIDs,
	}, nil
}

// getRankings returns each ballot's ordering, oldest ballot first
func getRankings(q queryer, pollID string) ([][]string, []string, error) {
	rows, err := q.Query(`
		SELECT b.id, r.candidate_id
		FROM ballot b
		JOIN ranking r ON r.ballot_id = b.id
		WHERE b.poll_id = $1
		ORDER BY b.submitted_at, b.id, r.position
	`, pollID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query rankings: %w", err)
	}
	defer rows.Close()

	var rankings [][]string
	var ballotIDs []string
	for rows.Next() {
		var ballotID, candidateID string
		if err := rows.Scan(&ballotID, &candidateID); err != nil {
			return nil, nil, fmt.Errorf("failed to scan ranking: %w", err)
		}
		if len(ballotIDs) == 0 || ballotIDs[len(ballotIDs)-1] != ballotID {
			ballotIDs = append(ballotIDs, ballotID)
			rankings = append(rankings, nil)
		}
		last := len(rankings) - 1
		rankings[last] = append(rankings[last], candidateID)
	}

	return rankings, ballotIDs, rows.Err()
}

// collapseRankings groups identical orderings into weighted ballots
func collapseRankings(rankings [][]string) []election.WeightedBallot[string] {
	index := make(map[string]int)
	var ballots []election.WeightedBallot[string]

	for _, ranking := range rankings {
		key := strings.Join(ranking, "\x1f")
		if i, ok := index[key]; ok {
			ballots[i].Weight++
			continue
		}
		index[key] = len(ballots)
		ballots = append(ballots, election.Weighted(1, ranking...))
	}

	return ballots
}

// computeResults runs both winner rules and builds the snapshot body.
// The caller fills in ID and ComputedAt.
func computeResults(pe *pollElection, pollID, method string) (models.ResultSnapshot, error) {
	e := pe.Election
	if err := e.Validate(); err != nil {
		return models.ResultSnapshot{}, fmt.Errorf("invalid election for poll %s: %w", pollID, err)
	}

	snapshot := models.ResultSnapshot{
		PollID:      pollID,
		Method:      method,
		BallotCount: len(pe.BallotIDs),
		InputsHash:  computeInputsHash(pe.BallotIDs),
	}

	if winner, ok := e.CondorcetWinner(); ok {
		snapshot.CondorcetWinner = &winner
	}
	if winner, ok := e.PluralityWinner(); ok {
		snapshot.PluralityWinner = &winner
	}

	switch method {
	case models.MethodPlurality:
		snapshot.Winner = snapshot.PluralityWinner
	default:
		snapshot.Winner = snapshot.CondorcetWinner
	}

	wins := make(map[string]int)
	snapshot.Pairwise = []models.PairwiseResult{}
	for _, m := range e.Pairwise() {
		snapshot.Pairwise = append(snapshot.Pairwise, models.PairwiseResult{
			CandidateA: m.A,
			CandidateB: m.B,
			VotesA:     m.ForA,
			VotesB:     m.ForB,
		})
		if winner, ok := m.Winner(); ok {
			wins[winner]++
		}
	}

	firsts := e.FirstPreferences()
	results := make([]models.CandidateResult, 0, len(firsts))
	for _, id := range e.Candidates() {
		results = append(results, models.CandidateResult{
			CandidateID:      id,
			Label:            pe.Labels[id],
			FirstPreferences: firsts[id],
			PairwiseWins:     wins[id],
		})
	}

	// Primary key follows the poll's method
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]

		if method == models.MethodPlurality && a.FirstPreferences != b.FirstPreferences {
			return a.FirstPreferences > b.FirstPreferences
		}
		if a.PairwiseWins != b.PairwiseWins {
			return a.PairwiseWins > b.PairwiseWins
		}
		if a.FirstPreferences != b.FirstPreferences {
			return a.FirstPreferences > b.FirstPreferences
		}

		// Stable tie-breaking by candidate ID (ascending)
		return a.CandidateID < b.CandidateID
	})
	for i := range results {
		results[i].Rank = i + 1
	}
	snapshot.Candidates = results

	return snapshot, nil
}

// computeInputsHash fingerprints the set of ballots that produced a result
func computeInputsHash(ballotIDs []string) string {
	sorted := make([]string, len(ballotIDs))
	copy(sorted, ballotIDs)
	sort.Strings(sorted)

	sum := sha256.Sum256([]byte(strings.Join(sorted, "\n")))
	return hex.EncodeToString(sum[:])
}
