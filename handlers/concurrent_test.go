// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/danielhkuo/ranked-pick/models"
	"github.com/danielhkuo/ranked-pick/testutil"
)

// TestConcurrentBallotSubmissions verifies that simultaneous submissions
// from different voters are all stored
func TestConcurrentBallotSubmissions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	votingHandler := NewVotingHandler(db, cfg)

	pollID, _, shareSlug := testutil.CreateTestPoll(t, db, cfg, models.StatusOpen)
	a := testutil.AddTestCandidate(t, db, pollID, "A")
	b := testutil.AddTestCandidate(t, db, pollID, "B")
	c := testutil.AddTestCandidate(t, db, pollID, "C")
	orders := [][]string{{a, b, c}, {b, c, a}, {c, a, b}}

	numVoters := 40
	voterTokens := make([]string, numVoters)
	for i := range voterTokens {
		voterTokens[i] = testutil.CreateTestVoter(t, db, pollID, fmt.Sprintf("voter%02d", i))
	}

	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numVoters; i++ {
		wg.Add(1)
		go func(voterIdx int) {
			defer wg.Done()

			req := testutil.MakeRequest("POST", "/polls/"+shareSlug+"/ballots",
				models.SubmitBallotRequest{Ranking: orders[voterIdx%len(orders)]},
				map[string]string{"X-Voter-Token": voterTokens[voterIdx]})
			req.SetPathValue("slug", shareSlug)
			w := httptest.NewRecorder()

			votingHandler.SubmitBallot(w, req)

			if w.Code == http.StatusCreated {
				successCount.Add(1)
			} else {
				t.Errorf("voter %d: status %d: %s", voterIdx, w.Code, w.Body.String())
			}
		}(i)
	}

	wg.Wait()

	if int(successCount.Load()) != numVoters {
		t.Errorf("Expected %d successful submissions, got %d", numVoters, successCount.Load())
	}

	count, err := countBallots(db, pollID)
	if err != nil {
		t.Fatal(err)
	}
	if count != numVoters {
		t.Errorf("Expected %d ballots in database, got %d", numVoters, count)
	}

	var rankings int
	if err := db.QueryRow(`
		SELECT COUNT(*) FROM ranking r JOIN ballot b ON b.id = r.ballot_id WHERE b.poll_id = $1
	`, pollID).Scan(&rankings); err != nil {
		t.Fatal(err)
	}
	if rankings != numVoters*3 {
		t.Errorf("Expected %d ranking rows, got %d", numVoters*3, rankings)
	}
}

// TestConcurrentUsernameClaims verifies that exactly one of several
// simultaneous claims for the same username succeeds
func TestConcurrentUsernameClaims(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	votingHandler := NewVotingHandler(db, cfg)

	_, _, shareSlug := testutil.CreateTestPoll(t, db, cfg, models.StatusOpen)

	numAttempts := 8
	var created, conflicts atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numAttempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			req := testutil.MakeRequest("POST", "/polls/"+shareSlug+"/claim-username",
				models.ClaimUsernameRequest{Username: "contested"}, nil)
			req.SetPathValue("slug", shareSlug)
			w := httptest.NewRecorder()
			votingHandler.ClaimUsername(w, req)

			switch w.Code {
			case http.StatusCreated:
				created.Add(1)
			case http.StatusConflict:
				conflicts.Add(1)
			default:
				t.Errorf("Unexpected status %d: %s", w.Code, w.Body.String())
			}
		}()
	}

	wg.Wait()

	if created.Load() != 1 {
		t.Errorf("Expected exactly 1 successful claim, got %d", created.Load())
	}
	if int(conflicts.Load()) != numAttempts-1 {
		t.Errorf("Expected %d conflicts, got %d", numAttempts-1, conflicts.Load())
	}
}

// TestConcurrentBallotUpdates verifies that one voter resubmitting in
// parallel ends up with a single complete ballot
func TestConcurrentBallotUpdates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	votingHandler := NewVotingHandler(db, cfg)

	pollID, _, shareSlug := testutil.CreateTestPoll(t, db, cfg, models.StatusOpen)
	a := testutil.AddTestCandidate(t, db, pollID, "A")
	b := testutil.AddTestCandidate(t, db, pollID, "B")
	voterToken := testutil.CreateTestVoter(t, db, pollID, "alice")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			ranking := []string{a, b}
			if i%2 == 1 {
				ranking = []string{b, a}
			}
			req := testutil.MakeRequest("POST", "/polls/"+shareSlug+"/ballots",
				models.SubmitBallotRequest{Ranking: ranking},
				map[string]string{"X-Voter-Token": voterToken})
			req.SetPathValue("slug", shareSlug)
			w := httptest.NewRecorder()
			votingHandler.SubmitBallot(w, req)

			if w.Code != http.StatusCreated {
				t.Errorf("submission %d: status %d: %s", i, w.Code, w.Body.String())
			}
		}(i)
	}

	wg.Wait()

	count, err := countBallots(db, pollID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Expected 1 ballot, got %d", count)
	}

	rankings, _, err := getRankings(db, pollID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rankings) != 1 || len(rankings[0]) != 2 {
		t.Errorf("Expected one full ranking, got %v", rankings)
	}
}

// TestConcurrentPollClose verifies that only one close wins and exactly
// one snapshot is stored
func TestConcurrentPollClose(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	pollHandler := NewPollHandler(db, cfg)

	pollID, adminKey, _ := testutil.CreateTestPoll(t, db, cfg, models.StatusOpen)
	a := testutil.AddTestCandidate(t, db, pollID, "A")
	b := testutil.AddTestCandidate(t, db, pollID, "B")
	testutil.CastTestBallots(t, db, pollID, 3, []string{a, b})

	numAttempts := 5
	var closed, conflicts atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numAttempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			req := testutil.MakeRequest("POST", "/polls/"+pollID+"/close", nil,
				map[string]string{"X-Admin-Key": adminKey})
			req.SetPathValue("id", pollID)
			w := httptest.NewRecorder()
			pollHandler.ClosePoll(w, req)

			switch w.Code {
			case http.StatusOK:
				closed.Add(1)
			case http.StatusConflict:
				conflicts.Add(1)
			default:
				t.Errorf("Unexpected status %d: %s", w.Code, w.Body.String())
			}
		}()
	}

	wg.Wait()

	if closed.Load() != 1 {
		t.Errorf("Expected exactly 1 successful close, got %d", closed.Load())
	}
	if int(conflicts.Load()) != numAttempts-1 {
		t.Errorf("Expected %d conflicts, got %d", numAttempts-1, conflicts.Load())
	}

	var snapshots int
	if err := db.QueryRow(`SELECT COUNT(*) FROM result_snapshot WHERE poll_id = $1`, pollID).Scan(&snapshots); err != nil {
		t.Fatal(err)
	}
	if snapshots != 1 {
		t.Errorf("Expected 1 snapshot, got %d", snapshots)
	}
}

// TestConcurrentVoteAndClose verifies that a ballot is either counted in
// the snapshot or rejected, never stored after the close
func TestConcurrentVoteAndClose(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	pollHandler := NewPollHandler(db, cfg)
	votingHandler := NewVotingHandler(db, cfg)

	pollID, adminKey, shareSlug := testutil.CreateTestPoll(t, db, cfg, models.StatusOpen)
	a := testutil.AddTestCandidate(t, db, pollID, "A")
	b := testutil.AddTestCandidate(t, db, pollID, "B")

	numVoters := 20
	voterTokens := make([]string, numVoters)
	for i := range voterTokens {
		voterTokens[i] = testutil.CreateTestVoter(t, db, pollID, fmt.Sprintf("voter%02d", i))
	}

	var wg sync.WaitGroup
	for i := 0; i < numVoters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			req := testutil.MakeRequest("POST", "/polls/"+shareSlug+"/ballots",
				models.SubmitBallotRequest{Ranking: []string{a, b}},
				map[string]string{"X-Voter-Token": voterTokens[i]})
			req.SetPathValue("slug", shareSlug)
			w := httptest.NewRecorder()
			votingHandler.SubmitBallot(w, req)

			if w.Code != http.StatusCreated && w.Code != http.StatusConflict {
				t.Errorf("voter %d: status %d: %s", i, w.Code, w.Body.String())
			}
		}(i)
	}

	var snapshot models.ResultSnapshot
	wg.Add(1)
	go func() {
		defer wg.Done()

		req := testutil.MakeRequest("POST", "/polls/"+pollID+"/close", nil,
			map[string]string{"X-Admin-Key": adminKey})
		req.SetPathValue("id", pollID)
		w := httptest.NewRecorder()
		pollHandler.ClosePoll(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("close: status %d: %s", w.Code, w.Body.String())
			return
		}
		var resp models.ClosePollResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Errorf("close: bad response: %v", err)
			return
		}
		snapshot = resp.Snapshot
	}()

	wg.Wait()

	count, err := countBallots(db, pollID)
	if err != nil {
		t.Fatal(err)
	}
	if snapshot.BallotCount != count {
		t.Errorf("Snapshot counted %d ballots, database holds %d", snapshot.BallotCount, count)
	}
}
