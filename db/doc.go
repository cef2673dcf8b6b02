// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connections and schema creation.

# Connecting

Open picks the driver from the config. SQLite (modernc.org/sqlite) is the
default; PostgreSQL uses lib/pq:

	conn, err := db.Open(cfg)

SQLite connections get busy_timeout, foreign_keys and WAL pragmas unless
the DSN already sets its own.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The same DDL runs on both databases.

# Tables

  - poll: Poll metadata, voting method and lifecycle state
  - candidate: Candidates per poll
  - username_claim: Maps usernames to voter tokens
  - ballot: One ballot per voter per poll
  - ranking: Ordered candidate positions for a ballot
  - result_snapshot: Immutable election results

# Relationships

	poll 1──* candidate
	poll 1──* username_claim
	poll 1──* ballot
	ballot 1──* ranking
	poll 1──* result_snapshot

# Errors

IsUniqueViolation recognizes constraint failures from both drivers, so
handlers can map them to 409 Conflict without matching error strings.
*/
package db
