package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pvp-analytics/internal/domain"

	"github.com/rs/zerolog"
)

const matchColumns = `id, start_time, end_time, arena_zone, arena_match_id, game_mode, duration, unique_hash, is_ranked, created_at`

type MatchRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewMatchRepository(sqlDB *sql.DB, logger zerolog.Logger) *MatchRepository {
	return &MatchRepository{
		db:     sqlDB,
		logger: logger,
	}
}

func (r *MatchRepository) GetByID(ctx context.Context, id int64) (*domain.Match, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = ?`, id)
	m, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match %d: %w", id, err)
	}
	return m, nil
}

// FindByHash returns nil, nil when no match carries the hash.
func (r *MatchRepository) FindByHash(ctx context.Context, hash string) (*domain.Match, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE unique_hash = ?`, hash)
	m, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find match by hash: %w", err)
	}
	return m, nil
}

// List returns matches ordered by start time, newest first.
func (r *MatchRepository) List(ctx context.Context, limit, offset int) ([]domain.Match, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+matchColumns+` FROM matches ORDER BY start_time DESC, id DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	var matches []domain.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, *m)
	}
	return matches, rows.Err()
}

// CreateWithDetails writes a match, its combat log entries and its results
// in one transaction. Entries and results get the new match ID. When a match
// with the same hash already exists nothing is written, match is overwritten
// with the stored row and created is false.
func (r *MatchRepository) CreateWithDetails(
	ctx context.Context,
	match *domain.Match,
	entries []domain.CombatLogEntry,
	results []domain.MatchResult,
) (created bool, err error) {
	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		inserted, err := insertMatch(ctx, tx, match)
		if err != nil {
			return err
		}
		if !inserted {
			return nil
		}

		for i := range entries {
			entries[i].MatchID = match.ID
		}
		for i := range results {
			results[i].MatchID = match.ID
		}

		if err := insertCombatLogEntries(ctx, tx, entries); err != nil {
			return err
		}
		if err := insertMatchResults(ctx, tx, results); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		match.ID = 0
		return false, err
	}

	if !created {
		existing, err := r.FindByHash(ctx, match.UniqueHash)
		if err != nil {
			return false, err
		}
		if existing == nil {
			return false, fmt.Errorf("failed to load existing match for hash %s: %w", match.UniqueHash, ErrNotFound)
		}
		*match = *existing
		r.logger.Debug().Int64("match_id", match.ID).Msg("match already stored, insert skipped")
		return false, nil
	}

	r.logger.Debug().
		Int64("match_id", match.ID).
		Int("entries", len(entries)).
		Int("results", len(results)).
		Msg("match stored")
	return true, nil
}

func (r *MatchRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete match %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func insertMatch(ctx context.Context, q DBTX, m *domain.Match) (bool, error) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO matches (start_time, end_time, arena_zone, arena_match_id, game_mode, duration, unique_hash, is_ranked, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (unique_hash) DO NOTHING`,
		formatTime(m.StartTime), formatTime(m.EndTime), int(m.ArenaZone), m.ArenaMatchID,
		string(m.GameMode), m.Duration, m.UniqueHash, boolToInt(m.IsRanked), formatTime(m.CreatedAt))
	if err != nil {
		return false, fmt.Errorf("failed to insert match: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	if m.ID, err = res.LastInsertId(); err != nil {
		return false, fmt.Errorf("failed to read match id: %w", err)
	}
	return true, nil
}

func scanMatch(s rowScanner) (*domain.Match, error) {
	var m domain.Match
	var start, end, createdAt, gameMode string
	var zone int
	if err := s.Scan(&m.ID, &start, &end, &zone, &m.ArenaMatchID, &gameMode, &m.Duration, &m.UniqueHash, &m.IsRanked, &createdAt); err != nil {
		return nil, err
	}
	m.ArenaZone = domain.ArenaZoneFromID(zone)
	m.GameMode = domain.GameMode(gameMode)

	var err error
	if m.StartTime, err = parseTime(start); err != nil {
		return nil, err
	}
	if m.EndTime, err = parseTime(end); err != nil {
		return nil, err
	}
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &m, nil
}
