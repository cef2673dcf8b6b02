// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/ranked-pick/models"
	"github.com/danielhkuo/ranked-pick/testutil"
)

func TestCreatePoll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	handler := NewPollHandler(db, testutil.GetTestConfig())

	tests := []struct {
		name           string
		requestBody    interface{}
		expectedStatus int
		wantMethod     string
	}{
		{
			name:           "default method",
			requestBody:    models.CreatePollRequest{Title: "Lunch", CreatorName: "Alice"},
			expectedStatus: http.StatusCreated,
			wantMethod:     models.MethodCondorcet,
		},
		{
			name:           "plurality method",
			requestBody:    models.CreatePollRequest{Title: "Lunch", CreatorName: "Alice", Method: models.MethodPlurality},
			expectedStatus: http.StatusCreated,
			wantMethod:     models.MethodPlurality,
		},
		{
			name:           "unknown method",
			requestBody:    models.CreatePollRequest{Title: "Lunch", CreatorName: "Alice", Method: "borda"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing title",
			requestBody:    models.CreatePollRequest{CreatorName: "Alice"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing creator",
			requestBody:    models.CreatePollRequest{Title: "Lunch"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/polls", tt.requestBody, nil)
			w := httptest.NewRecorder()
			handler.CreatePoll(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedStatus != http.StatusCreated {
				return
			}

			var resp models.CreatePollResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.PollID == "" || resp.AdminKey == "" {
				t.Fatal("Expected poll_id and admin_key")
			}

			var method, status string
			err := db.QueryRow(`SELECT method, status FROM poll WHERE id = $1`, resp.PollID).Scan(&method, &status)
			if err != nil {
				t.Fatalf("Failed to query poll: %v", err)
			}
			if method != tt.wantMethod {
				t.Errorf("Expected method %s, got %s", tt.wantMethod, method)
			}
			if status != models.StatusDraft {
				t.Errorf("Expected draft status, got %s", status)
			}
		})
	}
}

func TestCreatePollInvalidJSON(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	handler := NewPollHandler(db, testutil.GetTestConfig())

	req := httptest.NewRequest("POST", "/polls", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	handler.CreatePoll(w, req)

	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestAddCandidate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewPollHandler(db, cfg)
	pollID, adminKey, _ := testutil.CreateTestPoll(t, db, cfg, models.StatusDraft)

	tests := []struct {
		name           string
		adminKey       string
		label          string
		expectedStatus int
	}{
		{"valid candidate", adminKey, "Pizza", http.StatusCreated},
		{"duplicate label", adminKey, "Pizza", http.StatusConflict},
		{"blank label", adminKey, "   ", http.StatusBadRequest},
		{"bad admin key", "wrong", "Sushi", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/polls/"+pollID+"/candidates",
				models.AddCandidateRequest{Label: tt.label},
				map[string]string{"X-Admin-Key": tt.adminKey})
			req.SetPathValue("id", pollID)
			w := httptest.NewRecorder()
			handler.AddCandidate(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
		})
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM candidate WHERE poll_id = $1`, pollID).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Expected 1 candidate, got %d", count)
	}
}

func TestAddCandidateToNonDraftPoll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewPollHandler(db, cfg)
	pollID, adminKey, _ := testutil.CreateTestPoll(t, db, cfg, models.StatusOpen)

	req := testutil.MakeRequest("POST", "/polls/"+pollID+"/candidates",
		models.AddCandidateRequest{Label: "Late entry"},
		map[string]string{"X-Admin-Key": adminKey})
	req.SetPathValue("id", pollID)
	w := httptest.NewRecorder()
	handler.AddCandidate(w, req)

	testutil.AssertStatus(t, w, http.StatusConflict)
}

// TestInsertDraftCandidate checks the status guard on the insert itself,
// which is what holds when a publish lands after AddCandidate's status read.
func TestInsertDraftCandidate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()

	tests := []struct {
		name      string
		status    string
		want      bool
		wantCount int
	}{
		{"draft", models.StatusDraft, true, 1},
		{"open", models.StatusOpen, false, 0},
		{"closed", models.StatusClosed, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pollID, _, _ := testutil.CreateTestPoll(t, db, cfg, tt.status)

			inserted, err := insertDraftCandidate(db, "cand-"+tt.name, pollID, "Late entry")
			if err != nil {
				t.Fatalf("insertDraftCandidate failed: %v", err)
			}
			if inserted != tt.want {
				t.Errorf("Expected inserted=%v, got %v", tt.want, inserted)
			}

			candidates, err := getCandidates(db, pollID)
			if err != nil {
				t.Fatal(err)
			}
			if len(candidates) != tt.wantCount {
				t.Errorf("Expected %d candidates, got %d", tt.wantCount, len(candidates))
			}
		})
	}

	if inserted, err := insertDraftCandidate(db, "cand-missing", "no-such-poll", "X"); err != nil || inserted {
		t.Errorf("Expected no insert for missing poll, got inserted=%v err=%v", inserted, err)
	}
}

// TestClosePollAfterVotingOpens shows that once the candidate set is frozen,
// a poll with ballots can always be closed.
func TestClosePollAfterVotingOpens(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewPollHandler(db, cfg)
	pollID, adminKey, _ := testutil.CreateTestPoll(t, db, cfg, models.StatusOpen)
	a := testutil.AddTestCandidate(t, db, pollID, "A")
	b := testutil.AddTestCandidate(t, db, pollID, "B")
	testutil.CastTestBallots(t, db, pollID, 2, []string{a, b})

	req := testutil.MakeRequest("POST", "/polls/"+pollID+"/candidates",
		models.AddCandidateRequest{Label: "C"},
		map[string]string{"X-Admin-Key": adminKey})
	req.SetPathValue("id", pollID)
	w := httptest.NewRecorder()
	handler.AddCandidate(w, req)
	testutil.AssertStatus(t, w, http.StatusConflict)

	req = testutil.MakeRequest("POST", "/polls/"+pollID+"/close", nil,
		map[string]string{"X-Admin-Key": adminKey})
	req.SetPathValue("id", pollID)
	w = httptest.NewRecorder()
	handler.ClosePoll(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.ClosePollResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Snapshot.Winner == nil || *resp.Snapshot.Winner != a {
		t.Errorf("Expected %s to win, got %v", a, resp.Snapshot.Winner)
	}
}

func TestPublishPoll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewPollHandler(db, cfg)

	publish := func(pollID, adminKey string) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("POST", "/polls/"+pollID+"/publish", nil,
			map[string]string{"X-Admin-Key": adminKey})
		req.SetPathValue("id", pollID)
		w := httptest.NewRecorder()
		handler.PublishPoll(w, req)
		return w
	}

	t.Run("needs two candidates", func(t *testing.T) {
		pollID, adminKey, _ := testutil.CreateTestPoll(t, db, cfg, models.StatusDraft)
		testutil.AddTestCandidate(t, db, pollID, "Only")

		testutil.AssertStatus(t, publish(pollID, adminKey), http.StatusBadRequest)
	})

	t.Run("publishes draft", func(t *testing.T) {
		pollID, adminKey, _ := testutil.CreateTestPoll(t, db, cfg, models.StatusDraft)
		testutil.AddTestCandidate(t, db, pollID, "A")
		testutil.AddTestCandidate(t, db, pollID, "B")

		w := publish(pollID, adminKey)
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.PublishPollResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.ShareSlug == "" {
			t.Fatal("Expected share slug")
		}
		if resp.ShareURL != cfg.ShareBaseURL+"/polls/"+resp.ShareSlug {
			t.Errorf("Unexpected share URL %s", resp.ShareURL)
		}

		// Second publish is a conflict
		testutil.AssertStatus(t, publish(pollID, adminKey), http.StatusConflict)
	})

	t.Run("unknown poll", func(t *testing.T) {
		testutil.AssertStatus(t, publish("missing", "x"), http.StatusUnauthorized)
	})
}

func TestClosePoll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewPollHandler(db, cfg)
	pollID, adminKey, _ := testutil.CreateTestPoll(t, db, cfg, models.StatusOpen)

	a := testutil.AddTestCandidate(t, db, pollID, "A")
	b := testutil.AddTestCandidate(t, db, pollID, "B")
	testutil.CastTestBallots(t, db, pollID, 10, []string{a, b})
	testutil.CastTestBallots(t, db, pollID, 10, []string{b, a})

	closePoll := func() *httptest.ResponseRecorder {
		req := testutil.MakeRequest("POST", "/polls/"+pollID+"/close", nil,
			map[string]string{"X-Admin-Key": adminKey})
		req.SetPathValue("id", pollID)
		w := httptest.NewRecorder()
		handler.ClosePoll(w, req)
		return w
	}

	w := closePoll()
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.ClosePollResponse
	testutil.AssertJSON(t, w, &resp)

	// 10:10 is a tie in the only matchup
	if resp.Snapshot.Winner != nil {
		t.Errorf("Expected no winner, got %s", *resp.Snapshot.Winner)
	}
	if resp.Snapshot.BallotCount != 20 {
		t.Errorf("Expected 20 ballots, got %d", resp.Snapshot.BallotCount)
	}

	var status, snapshotID string
	err := db.QueryRow(`SELECT status, final_snapshot_id FROM poll WHERE id = $1`, pollID).Scan(&status, &snapshotID)
	if err != nil {
		t.Fatal(err)
	}
	if status != models.StatusClosed {
		t.Errorf("Expected closed, got %s", status)
	}
	if snapshotID != resp.Snapshot.ID {
		t.Errorf("Expected snapshot %s, got %s", resp.Snapshot.ID, snapshotID)
	}

	testutil.AssertStatus(t, closePoll(), http.StatusConflict)
}

func TestCloseDraftPoll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewPollHandler(db, cfg)
	pollID, adminKey, _ := testutil.CreateTestPoll(t, db, cfg, models.StatusDraft)

	req := testutil.MakeRequest("POST", "/polls/"+pollID+"/close", nil,
		map[string]string{"X-Admin-Key": adminKey})
	req.SetPathValue("id", pollID)
	w := httptest.NewRecorder()
	handler.ClosePoll(w, req)

	testutil.AssertStatus(t, w, http.StatusConflict)
}
