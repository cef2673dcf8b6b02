// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Ranked Pick API server.

Ranked Pick is a group polling service where voters rank every candidate.
When a poll closes, identical rankings are collapsed into weighted ballots
and the election package picks a Condorcet winner and a plurality winner.

# Starting the Server

SQLite is the default database:

	DATABASE_URL=file:ranked.db go run .

Or with flags and PostgreSQL:

	go run . -p 3318 -t postgres -d "postgres://..."

A .env file can supply any of the variables:

	go run . -env .env

# Configuration

Required settings:

  - DATABASE_URL (-d): Database connection string
  - ADMIN_KEY_SALT (-admin-salt): Secret for admin key HMAC
  - POLL_SLUG_SALT (-slug-salt): Secret for share slug generation

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - IP_HASH_SALT (-ip-salt): Secret for ballot IP fingerprints (default: admin salt)
  - SHARE_BASE_URL (-share-url): Prefix for share links

# Architecture

  - election: Condorcet and plurality winner algorithms (no I/O)
  - handlers: HTTP request handlers (polls, voting, results, tallying)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Request/response types
  - auth: Token generation and validation
  - db: Connections, schema, driver error helpers
  - cliparse: Configuration parsing
*/
package main
