// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

  - CreatePollRequest: title, description, creator_name, method
  - AddCandidateRequest: label
  - ClaimUsernameRequest: username
  - SubmitBallotRequest: ranking (candidate IDs, most preferred first)

# Response Types

  - CreatePollResponse: poll_id, admin_key
  - AddCandidateResponse: candidate_id
  - PublishPollResponse: share_slug, share_url
  - ClaimUsernameResponse: voter_token
  - SubmitBallotResponse: ballot_id, message
  - MyBallotResponse: the caller's current ranking
  - ClosePollResponse: closed_at, snapshot
  - ResultsResponse: poll, snapshot, ballot_count
  - PollPreviewResponse: compact counters for link previews
  - ErrorResponse: error, message

# Domain Types

  - Poll: poll metadata, voting method and lifecycle state
  - Candidate: a rankable choice
  - Ballot: voter submission metadata
  - CandidateResult: per-candidate first preferences and pairwise wins
  - PairwiseResult: one head-to-head matchup
  - ResultSnapshot: immutable result record

# Constants

Status values:

	StatusDraft  = "draft"
	StatusOpen   = "open"
	StatusClosed = "closed"

Voting methods:

	MethodCondorcet = "condorcet"
	MethodPlurality = "plurality"
*/
package models
