// Twitter Tracker - X/Twitter Account Monitoring and Realtime Alerts
// Copyright 2026 pitch6767
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pitch6767/twitter-tracker25

package database

import (
	"context"
	"fmt"
)

// schemaStatements create the posts table and its lookup index. Idempotent;
// safe to run against an existing database file.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS posts (
		post_id        BIGINT PRIMARY KEY,
		account_handle VARCHAR NOT NULL,
		account_name   VARCHAR NOT NULL DEFAULT '',
		author_handle  VARCHAR NOT NULL,
		is_reshare     BOOLEAN NOT NULL DEFAULT FALSE,
		discovered_at  TIMESTAMP NOT NULL,
		delivered      BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_account_handle ON posts (account_handle)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_discovered_at ON posts (discovered_at)`,
}

// ensureSchema creates the schema on first use. Every data access method
// calls this; the sync.Once makes the bootstrap race-free when the tracker
// and the API hit a fresh database concurrently.
func (db *DB) ensureSchema(ctx context.Context) error {
	db.schemaOnce.Do(func() {
		for _, stmt := range schemaStatements {
			if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
				db.schemaErr = fmt.Errorf("failed to initialize schema: %w", err)
				return
			}
		}
	})
	return db.schemaErr
}
