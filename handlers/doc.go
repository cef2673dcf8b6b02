// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Ranked Pick API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - PollHandler: Poll lifecycle (create, add candidates, publish, close)
  - VotingHandler: Username claims and ranked ballot submission
  - ResultsHandler: Poll info and results retrieval

	pollHandler := handlers.NewPollHandler(db, cfg)

# Poll Lifecycle

Polls progress through three states: draft → open → closed

	POST /polls                 → CreatePoll (returns admin_key)
	POST /polls/{id}/candidates → AddCandidate (draft only)
	POST /polls/{id}/publish    → PublishPoll (generates share_slug)
	POST /polls/{id}/close      → ClosePoll (computes winners)

Admin operations require the X-Admin-Key header.

# Voting Flow

	POST /polls/{slug}/claim-username → ClaimUsername (returns voter_token)
	POST /polls/{slug}/ballots        → SubmitBallot (create or replace)
	GET  /polls/{slug}/my-ballot      → GetMyBallot

A ballot is a full ranking: every candidate ID exactly once, most
preferred first. Voter operations require the X-Voter-Token header.

# Tallying

tally.go bridges stored ballots and the election package:

	pe, err := loadElection(tx, pollID)
	snapshot, err := computeResults(pe, pollID, method)

Identical rankings are collapsed into one weighted ballot. Both the
Condorcet and plurality winners are recorded; the poll's method decides
which one is reported as the winner.
*/
package handlers
