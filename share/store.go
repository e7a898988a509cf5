// Package share runs Saucy's share server: crawler-friendly Open Graph
// pages for shared GIFs, a JSON API over a sqlite store, the per-user
// remote key endpoint, and websocket progress for running generations.
package share

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("not found")

// GIFRecord is one shared GIF
type GIFRecord struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	GIFURL    string    `json:"gifUrl"`
	MP4URL    string    `json:"mp4Url,omitempty"`
	PosterURL string    `json:"posterUrl,omitempty"`
	Width     int       `json:"width,omitempty"`
	Height    int       `json:"height,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store is the sqlite-backed persistence layer
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS gifs (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	gif_url    TEXT NOT NULL,
	mp4_url    TEXT NOT NULL DEFAULT '',
	poster_url TEXT NOT NULL DEFAULT '',
	width      INTEGER NOT NULL DEFAULT 0,
	height     INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS user_keys (
	user_id    TEXT PRIMARY KEY,
	api_key    TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// OpenStore opens (and migrates) the sqlite database at path.
// Use ":memory:" for tests.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateGIF stores a new shared GIF and assigns it an id
func (s *Store) CreateGIF(ctx context.Context, rec GIFRecord) (GIFRecord, error) {
	if rec.Title == "" {
		rec.Title = "Saucy sticker"
	}
	if rec.GIFURL == "" {
		return GIFRecord{}, fmt.Errorf("gif URL is required")
	}

	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO gifs (id, title, gif_url, mp4_url, poster_url, width, height, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Title, rec.GIFURL, rec.MP4URL, rec.PosterURL, rec.Width, rec.Height, rec.CreatedAt,
	)
	if err != nil {
		return GIFRecord{}, fmt.Errorf("failed to insert gif: %w", err)
	}
	return rec, nil
}

// GetGIF fetches a shared GIF by id
func (s *Store) GetGIF(ctx context.Context, id string) (GIFRecord, error) {
	var rec GIFRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, gif_url, mp4_url, poster_url, width, height, created_at
		 FROM gifs WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Title, &rec.GIFURL, &rec.MP4URL, &rec.PosterURL, &rec.Width, &rec.Height, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return GIFRecord{}, ErrNotFound
	}
	if err != nil {
		return GIFRecord{}, fmt.Errorf("failed to query gif: %w", err)
	}
	return rec, nil
}

// RecentGIFs lists the newest shared GIFs, capped at limit
func (s *Store) RecentGIFs(ctx context.Context, limit int) ([]GIFRecord, error) {
	if limit < 1 || limit > 100 {
		limit = 24
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, gif_url, mp4_url, poster_url, width, height, created_at
		 FROM gifs ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query gifs: %w", err)
	}
	defer rows.Close()

	var out []GIFRecord
	for rows.Next() {
		var rec GIFRecord
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.GIFURL, &rec.MP4URL, &rec.PosterURL,
			&rec.Width, &rec.Height, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan gif: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SaveUserKey upserts a user's stored API key
func (s *Store) SaveUserKey(ctx context.Context, userID, key string) error {
	if userID == "" || key == "" {
		return fmt.Errorf("user id and key are required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_keys (user_id, api_key, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET api_key = excluded.api_key, updated_at = excluded.updated_at`,
		userID, key, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save user key: %w", err)
	}
	return nil
}

// GetUserKey fetches a user's stored API key
func (s *Store) GetUserKey(ctx context.Context, userID string) (string, error) {
	var key string
	err := s.db.QueryRowContext(ctx,
		`SELECT api_key FROM user_keys WHERE user_id = ?`, userID,
	).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query user key: %w", err)
	}
	return key, nil
}
