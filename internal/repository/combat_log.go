package repository

import (
	"context"
	"database/sql"
	"fmt"

	"pvp-analytics/internal/domain"

	"github.com/rs/zerolog"
)

type CombatLogRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewCombatLogRepository(sqlDB *sql.DB, logger zerolog.Logger) *CombatLogRepository {
	return &CombatLogRepository{
		db:     sqlDB,
		logger: logger,
	}
}

// ListByMatch returns a match's entries in timestamp order.
func (r *CombatLogRepository) ListByMatch(ctx context.Context, matchID int64) ([]domain.CombatLogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, match_id, timestamp, event_type, source_player_id, target_player_id,
		       spell_id, spell_name, damage, healing, absorbed
		FROM combat_log_entries
		WHERE match_id = ?
		ORDER BY timestamp, id`, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query combat log entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.CombatLogEntry
	for rows.Next() {
		var (
			e      domain.CombatLogEntry
			ts     string
			target sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.MatchID, &ts, &e.EventType, &e.SourcePlayerID, &target,
			&e.SpellID, &e.SpellName, &e.Damage, &e.Healing, &e.Absorbed); err != nil {
			return nil, err
		}
		if e.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		if target.Valid {
			id := target.Int64
			e.TargetPlayerID = &id
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *CombatLogRepository) CountByMatch(ctx context.Context, matchID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM combat_log_entries WHERE match_id = ?`, matchID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count combat log entries: %w", err)
	}
	return n, nil
}

func (r *CombatLogRepository) AddRange(ctx context.Context, entries []domain.CombatLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		return insertCombatLogEntries(ctx, tx, entries)
	})
}

func (r *CombatLogRepository) DeleteByMatch(ctx context.Context, matchID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM combat_log_entries WHERE match_id = ?`, matchID); err != nil {
		return fmt.Errorf("failed to delete combat log entries for match %d: %w", matchID, err)
	}
	return nil
}

func insertCombatLogEntries(ctx context.Context, q DBTX, entries []domain.CombatLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	stmt, err := q.PrepareContext(ctx, `
		INSERT INTO combat_log_entries
			(match_id, timestamp, event_type, source_player_id, target_player_id, spell_id, spell_name, damage, healing, absorbed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare combat log insert: %w", err)
	}
	defer stmt.Close()

	for i := range entries {
		e := &entries[i]
		var target sql.NullInt64
		if e.TargetPlayerID != nil {
			target = sql.NullInt64{Int64: *e.TargetPlayerID, Valid: true}
		}

		res, err := stmt.ExecContext(ctx,
			e.MatchID, formatTime(e.Timestamp), e.EventType, e.SourcePlayerID, target,
			e.SpellID, e.SpellName, e.Damage, e.Healing, e.Absorbed)
		if err != nil {
			return fmt.Errorf("failed to insert combat log entry: %w", err)
		}
		if e.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read combat log entry id: %w", err)
		}
	}
	return nil
}
