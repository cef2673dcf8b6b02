// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: Database connection string (required)
  - DatabaseType: "sqlite" (default) or "postgres"
  - AdminKeySalt: Secret for admin key HMAC (required)
  - PollSlugSalt: Secret for share slug generation (required)
  - IPHashSalt: Secret for ballot IP fingerprints (default: AdminKeySalt)
  - ShareBaseURL: Prefix for share links (default: https://ranked-pick.com)

# CLI Flags

	-p          Server port
	-d          Database URL
	-t          Database type
	-share-url  Share link base URL
	-env        Path to a .env file
	-admin-salt Admin key salt
	-slug-salt  Poll slug salt
	-ip-salt    IP fingerprint salt

# Environment Variables

Flags fall back to environment variables:

	PORT           → -p
	DATABASE_URL   → -d
	DATABASE_TYPE  → -t
	SHARE_BASE_URL → -share-url
	ENV_FILE       → -env
	ADMIN_KEY_SALT → -admin-salt
	POLL_SLUG_SALT → -slug-salt
	IP_HASH_SALT   → -ip-salt

CLI flags take precedence over environment variables. A .env file only
fills variables that are not already set in the process environment.

# Validation

ParseFlags returns an error if required values are missing or the
database type is unknown.
*/
package cliparse
