// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Ranked Pick API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg)

# Endpoints

Health:

	GET /health

Poll management (admin, requires X-Admin-Key):

	POST /polls                 - Create poll
	GET  /polls/{id}/admin      - Get poll details
	POST /polls/{id}/candidates - Add candidate
	POST /polls/{id}/publish    - Open for voting
	POST /polls/{id}/close      - Compute winners and seal results

Voting (public, uses share slug):

	POST /polls/{slug}/claim-username - Claim voter identity
	POST /polls/{slug}/ballots        - Submit/replace ranking
	GET  /polls/{slug}/my-ballot      - Read own ranking

Results (public):

	GET /polls/{slug}              - Poll and candidates
	GET /polls/{slug}/results      - Snapshot (403 until closed)
	GET /polls/{slug}/ballot-count - Ballot count
	GET /polls/{slug}/preview      - Compact preview
*/
package router
