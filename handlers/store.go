// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/danielhkuo/ranked-pick/models"
)

var errPollNotFound = errors.New("poll not found")

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// execer is satisfied by both *sql.DB and *sql.Tx
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

const pollColumns = `id, title, description, creator_name, method, status,
	share_slug, closed_at, final_snapshot_id, created_at`

func scanPoll(row *sql.Row) (models.Poll, error) {
	var poll models.Poll
	err := row.Scan(
		&poll.ID, &poll.Title, &poll.Description, &poll.CreatorName,
		&poll.Method, &poll.Status, &poll.ShareSlug, &poll.ClosedAt,
		&poll.FinalSnapshotID, &poll.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return models.Poll{}, errPollNotFound
	}
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to scan poll: %w", err)
	}
	return poll, nil
}

// getPollByID loads a poll by its private ID
func getPollByID(q queryer, pollID string) (models.Poll, error) {
	return scanPoll(q.QueryRow(`SELECT `+pollColumns+` FROM poll WHERE id = $1`, pollID))
}

// getPollBySlug loads a poll by its public share slug
func getPollBySlug(q queryer, shareSlug string) (models.Poll, error) {
	return scanPoll(q.QueryRow(`SELECT `+pollColumns+` FROM poll WHERE share_slug = $1`, shareSlug))
}

// getCandidates returns a poll's candidates ordered by ID
func getCandidates(q queryer, pollID string) ([]models.Candidate, error) {
	rows, err := q.Query(`
		SELECT id, poll_id, label
		FROM candidate
		WHERE poll_id = $1
		ORDER BY id
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		var c models.Candidate
		if err := rows.Scan(&c.ID, &c.PollID, &c.Label); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}

	return candidates, rows.Err()
}

// countBallots returns the number of ballots cast in a poll
func countBallots(q queryer, pollID string) (int, error) {
	var count int
	err := q.QueryRow(`SELECT COUNT(*) FROM ballot WHERE poll_id = $1`, pollID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count ballots: %w", err)
	}
	return count, nil
}

// insertDraftCandidate adds a candidate only while the poll is still a
// draft, checked in the same statement as the insert. It reports false
// when the poll is missing or no longer a draft.
func insertDraftCandidate(e execer, candidateID, pollID, label string) (bool, error) {
	res, err := e.Exec(`
		INSERT INTO candidate (id, poll_id, label)
		SELECT $1, $2, $3
		WHERE EXISTS (SELECT 1 FROM poll WHERE id = $2 AND status = $4)
	`, candidateID, pollID, label, models.StatusDraft)
	if err != nil {
		return false, fmt.Errorf("failed to insert candidate: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	return n == 1, nil
}
