package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"movie-discovery-match-service/internal/models"
)

// Dialect selects the SQL flavour of a SQLRepository.
type Dialect int

const (
	DialectPostgres Dialect = iota
	DialectSQLite
)

var placeholderRe = regexp.MustCompile(`\$\d+`)

// SQLRepository stores interactions, watchlists, friends and matches in a
// relational database. Queries are written with $n placeholders, each used
// once and in order, and rewritten to ? for SQLite.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLRepository creates a new SQLRepository.
func NewSQLRepository(db *sql.DB, dialect Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

func (r *SQLRepository) q(query string) string {
	if r.dialect == DialectSQLite {
		return placeholderRe.ReplaceAllString(query, "?")
	}
	return query
}

// UpsertInteraction stores rec keyed by (user, title id, title type).
// Repeating the current action keeps the original timestamp.
func (r *SQLRepository) UpsertInteraction(ctx context.Context, rec models.InteractionRecord) error {
	_, err := r.db.ExecContext(ctx, r.q(`
		INSERT INTO interactions (user_id, title_id, title_type, action, interacted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, title_id, title_type) DO UPDATE SET
			interacted_at = CASE WHEN interactions.action = EXCLUDED.action
				THEN interactions.interacted_at ELSE EXCLUDED.interacted_at END,
			action = EXCLUDED.action
	`), rec.UserID, rec.TitleID, string(rec.TitleType), string(rec.Action), rec.InteractedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert interaction: %w", err)
	}
	return nil
}

// ListInteractions returns a user's interactions, newest first.
func (r *SQLRepository) ListInteractions(ctx context.Context, userID string, limit int) ([]models.InteractionRecord, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`
		SELECT user_id, title_id, title_type, action, interacted_at
		FROM interactions
		WHERE user_id = $1
		ORDER BY interacted_at DESC
		LIMIT $2
	`), userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()

	var out []models.InteractionRecord
	for rows.Next() {
		var rec models.InteractionRecord
		var titleType, action string
		if err := rows.Scan(&rec.UserID, &rec.TitleID, &titleType, &action, &rec.InteractedAt); err != nil {
			slog.Error("failed to scan interaction row", "error", err)
			continue
		}
		rec.TitleType = models.TitleType(titleType)
		rec.Action = models.Action(action)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// InteractedTitleIDs returns the ids of every title the user acted on.
// An empty titleType matches all types.
func (r *SQLRepository) InteractedTitleIDs(ctx context.Context, userID string, titleType models.TitleType) ([]int, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if titleType == "" {
		rows, err = r.db.QueryContext(ctx, r.q(`
			SELECT title_id FROM interactions WHERE user_id = $1 ORDER BY title_id
		`), userID)
	} else {
		rows, err = r.db.QueryContext(ctx, r.q(`
			SELECT title_id FROM interactions WHERE user_id = $1 AND title_type = $2 ORDER BY title_id
		`), userID, string(titleType))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query interacted ids: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan interacted id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpsertWatchlistEntry adds e; adding an existing entry is a no-op.
func (r *SQLRepository) UpsertWatchlistEntry(ctx context.Context, e models.WatchlistEntry) error {
	_, err := r.db.ExecContext(ctx, r.q(`
		INSERT INTO watchlist (user_id, title_id, title_type, added_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, title_id, title_type) DO NOTHING
	`), e.UserID, e.TitleID, string(e.TitleType), e.AddedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert watchlist entry: %w", err)
	}
	return nil
}

// HasWatchlistEntry reports whether the user has the title on their watchlist.
func (r *SQLRepository) HasWatchlistEntry(ctx context.Context, userID string, titleID int, titleType models.TitleType) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, r.q(`
		SELECT 1 FROM watchlist WHERE user_id = $1 AND title_id = $2 AND title_type = $3
	`), userID, titleID, string(titleType)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query watchlist: %w", err)
	}
	return true, nil
}

// ListWatchlist returns a user's watchlist, most recently added first.
func (r *SQLRepository) ListWatchlist(ctx context.Context, userID string) ([]models.WatchlistEntry, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`
		SELECT user_id, title_id, title_type, added_at
		FROM watchlist
		WHERE user_id = $1
		ORDER BY added_at DESC
	`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist: %w", err)
	}
	defer rows.Close()

	var out []models.WatchlistEntry
	for rows.Next() {
		var e models.WatchlistEntry
		var titleType string
		if err := rows.Scan(&e.UserID, &e.TitleID, &titleType, &e.AddedAt); err != nil {
			slog.Error("failed to scan watchlist row", "error", err)
			continue
		}
		e.TitleType = models.TitleType(titleType)
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteWatchlistEntry removes a title from the watchlist.
func (r *SQLRepository) DeleteWatchlistEntry(ctx context.Context, userID string, titleID int, titleType models.TitleType) error {
	res, err := r.db.ExecContext(ctx, r.q(`
		DELETE FROM watchlist WHERE user_id = $1 AND title_id = $2 AND title_type = $3
	`), userID, titleID, string(titleType))
	if err != nil {
		return fmt.Errorf("failed to delete watchlist entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// FriendIDs returns the user's friends. Links are read in both directions.
func (r *SQLRepository) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`
		SELECT friend_id FROM friends WHERE user_id = $1
		UNION
		SELECT user_id FROM friends WHERE friend_id = $2
		ORDER BY 1
	`), userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query friends: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan friend id: %w", err)
		}
		if id != userID {
			ids = append(ids, id)
		}
	}
	return ids, rows.Err()
}

// FindMatch returns the match for the pair and title, or nil.
func (r *SQLRepository) FindMatch(ctx context.Context, pair models.Pair, titleID int, titleType models.TitleType) (*models.MatchRecord, error) {
	row := r.db.QueryRowContext(ctx, r.q(`
		SELECT id, user_a, user_b, title_id, title_type, status, created_at
		FROM matches
		WHERE user_a = $1 AND user_b = $2 AND title_id = $3 AND title_type = $4
	`), pair[0], pair[1], titleID, string(titleType))
	m, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query match: %w", err)
	}
	return m, nil
}

// CreateMatchIfAbsent inserts m unless the unique (pair, title) constraint
// already holds a row. It returns the stored record and whether it was
// created by this call.
func (r *SQLRepository) CreateMatchIfAbsent(ctx context.Context, m models.MatchRecord) (*models.MatchRecord, bool, error) {
	res, err := r.db.ExecContext(ctx, r.q(`
		INSERT INTO matches (id, user_a, user_b, title_id, title_type, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_a, user_b, title_id, title_type) DO NOTHING
	`), m.ID, m.ParticipantIDs[0], m.ParticipantIDs[1], m.TitleID, string(m.TitleType),
		string(m.Status), m.CreatedAt.UTC())
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert match: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 1 {
		return &m, true, nil
	}

	existing, err := r.FindMatch(ctx, m.ParticipantIDs, m.TitleID, m.TitleType)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("match %s neither inserted nor found", m.Key())
	}
	return existing, false, nil
}

// ListMatches returns matches involving userID, newest first.
func (r *SQLRepository) ListMatches(ctx context.Context, userID string, limit int) ([]models.MatchRecord, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`
		SELECT id, user_a, user_b, title_id, title_type, status, created_at
		FROM matches
		WHERE user_a = $1 OR user_b = $2
		ORDER BY created_at DESC
		LIMIT $3
	`), userID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var out []models.MatchRecord
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			slog.Error("failed to scan match row", "error", err)
			continue
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMatch(s scanner) (*models.MatchRecord, error) {
	var m models.MatchRecord
	var titleType, status string
	if err := s.Scan(&m.ID, &m.ParticipantIDs[0], &m.ParticipantIDs[1], &m.TitleID, &titleType, &status, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.TitleType = models.TitleType(titleType)
	m.Status = models.MatchStatus(status)
	return &m, nil
}
