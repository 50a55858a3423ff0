// Twitter Tracker - X/Twitter Account Monitoring and Realtime Alerts
// Copyright 2026 pitch6767
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pitch6767/twitter-tracker25

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pitch6767/twitter-tracker25/internal/models"
)

// InsertPost records a discovered post, returning whether the row was
// actually inserted.
//
// Deduplication strategy:
//   - INSERT ... ON CONFLICT DO NOTHING (DuckDB-native syntax) so a repeat
//     sighting of the same post id is silently ignored
//   - RowsAffected distinguishes a fresh insert (1) from a duplicate (0);
//     only a fresh insert makes the post eligible for notification
//   - Under concurrent insert of the same id exactly one caller observes
//     inserted=true; the loser treats the post as already seen
func (db *DB) InsertPost(ctx context.Context, post *models.PostRecord) (bool, error) {
	if err := db.ensureSchema(ctx); err != nil {
		return false, err
	}
	if post.DiscoveredAt.IsZero() {
		post.DiscoveredAt = time.Now().UTC()
	}

	query := `INSERT INTO posts (
		post_id, account_handle, account_name, author_handle,
		is_reshare, discovered_at, delivered
	) VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT DO NOTHING`

	result, err := db.conn.ExecContext(ctx, query,
		post.PostID,
		post.AccountHandle,
		post.AccountName,
		post.AuthorHandle,
		post.IsReshare,
		post.DiscoveredAt,
		post.Delivered,
	)
	if err != nil {
		return false, fmt.Errorf("%w: insert post %d: %w", ErrStoreUnavailable, post.PostID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: rows affected for post %d: %w", ErrStoreUnavailable, post.PostID, err)
	}

	return rows > 0, nil
}

// PostExists reports whether a post id is already recorded.
func (db *DB) PostExists(ctx context.Context, postID int64) (bool, error) {
	if err := db.ensureSchema(ctx); err != nil {
		return false, err
	}

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM posts WHERE post_id = ?)`
	if err := db.conn.QueryRowContext(ctx, query, postID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check post %d: %w", postID, err)
	}
	return exists, nil
}

// MarkDelivered flips the delivered flag for a post. Called once at least
// one notification sink has accepted the rendered message.
func (db *DB) MarkDelivered(ctx context.Context, postID int64) error {
	if err := db.ensureSchema(ctx); err != nil {
		return err
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE posts SET delivered = TRUE WHERE post_id = ?`, postID)
	if err != nil {
		return fmt.Errorf("failed to mark post %d delivered: %w", postID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected for post %d: %w", postID, err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// GetPost fetches a single post by id. Returns ErrNotFound when absent.
func (db *DB) GetPost(ctx context.Context, postID int64) (*models.PostRecord, error) {
	if err := db.ensureSchema(ctx); err != nil {
		return nil, err
	}

	query := `SELECT post_id, account_handle, account_name, author_handle,
		is_reshare, discovered_at, delivered
	FROM posts WHERE post_id = ?`

	var post models.PostRecord
	err := db.conn.QueryRowContext(ctx, query, postID).Scan(
		&post.PostID,
		&post.AccountHandle,
		&post.AccountName,
		&post.AuthorHandle,
		&post.IsReshare,
		&post.DiscoveredAt,
		&post.Delivered,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post %d: %w", postID, err)
	}
	return &post, nil
}

// RecentPosts returns the newest posts, most recent first. Limit is clamped
// to [1, 500].
func (db *DB) RecentPosts(ctx context.Context, limit int) ([]models.PostRecord, error) {
	if err := db.ensureSchema(ctx); err != nil {
		return nil, err
	}

	if limit < 1 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	query := `SELECT post_id, account_handle, account_name, author_handle,
		is_reshare, discovered_at, delivered
	FROM posts
	ORDER BY discovered_at DESC, post_id DESC
	LIMIT ?`

	rows, err := db.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent posts: %w", err)
	}
	defer closeWithLog(rows, "recent posts rows")

	posts := make([]models.PostRecord, 0, limit)
	for rows.Next() {
		var post models.PostRecord
		if err := rows.Scan(
			&post.PostID,
			&post.AccountHandle,
			&post.AccountName,
			&post.AuthorHandle,
			&post.IsReshare,
			&post.DiscoveredAt,
			&post.Delivered,
		); err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate post rows: %w", err)
	}
	return posts, nil
}

// Stats returns aggregate counts for the stats endpoint.
func (db *DB) Stats(ctx context.Context) (total, reshares int64, perHandle []models.HandleStats, err error) {
	if err = db.ensureSchema(ctx); err != nil {
		return 0, 0, nil, err
	}

	query := `SELECT COUNT(*),
		COALESCE(SUM(CASE WHEN is_reshare THEN 1 ELSE 0 END), 0)
	FROM posts`
	if err = db.conn.QueryRowContext(ctx, query).Scan(&total, &reshares); err != nil {
		return 0, 0, nil, fmt.Errorf("failed to query post totals: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT account_handle, COUNT(*) FROM posts GROUP BY account_handle ORDER BY COUNT(*) DESC, account_handle`)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("failed to query per-handle counts: %w", err)
	}
	defer closeWithLog(rows, "per-handle stats rows")

	for rows.Next() {
		var hs models.HandleStats
		if scanErr := rows.Scan(&hs.Handle, &hs.Posts); scanErr != nil {
			return 0, 0, nil, fmt.Errorf("failed to scan handle stats row: %w", scanErr)
		}
		perHandle = append(perHandle, hs)
	}
	if err = rows.Err(); err != nil {
		return 0, 0, nil, fmt.Errorf("failed to iterate handle stats rows: %w", err)
	}

	return total, reshares, perHandle, nil
}
