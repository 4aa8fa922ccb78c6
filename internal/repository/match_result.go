package repository

import (
	"context"
	"database/sql"
	"fmt"

	"pvp-analytics/internal/domain"

	"github.com/rs/zerolog"
)

const matchResultColumns = `id, match_id, player_id, spec, team, rating, is_winner`

type MatchResultRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewMatchResultRepository(sqlDB *sql.DB, logger zerolog.Logger) *MatchResultRepository {
	return &MatchResultRepository{
		db:     sqlDB,
		logger: logger,
	}
}

func (r *MatchResultRepository) ListByMatch(ctx context.Context, matchID int64) ([]domain.MatchResult, error) {
	return r.list(ctx, `SELECT `+matchResultColumns+` FROM match_results WHERE match_id = ? ORDER BY id`, matchID)
}

func (r *MatchResultRepository) ListByPlayer(ctx context.Context, playerID int64) ([]domain.MatchResult, error) {
	return r.list(ctx, `SELECT `+matchResultColumns+` FROM match_results WHERE player_id = ? ORDER BY match_id`, playerID)
}

func (r *MatchResultRepository) AddRange(ctx context.Context, results []domain.MatchResult) error {
	if len(results) == 0 {
		return nil
	}
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		return insertMatchResults(ctx, tx, results)
	})
}

// Update writes the fields owned by the rating process: team, rating and
// the winner flag.
func (r *MatchResultRepository) Update(ctx context.Context, result *domain.MatchResult) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE match_results SET spec = ?, team = ?, rating = ?, is_winner = ? WHERE id = ?`,
		result.Spec, result.Team, result.Rating, boolToInt(result.IsWinner), result.ID)
	if err != nil {
		return fmt.Errorf("failed to update match result %d: %w", result.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MatchResultRepository) list(ctx context.Context, query string, arg int64) ([]domain.MatchResult, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query match results: %w", err)
	}
	defer rows.Close()

	var results []domain.MatchResult
	for rows.Next() {
		var mr domain.MatchResult
		if err := rows.Scan(&mr.ID, &mr.MatchID, &mr.PlayerID, &mr.Spec, &mr.Team, &mr.Rating, &mr.IsWinner); err != nil {
			return nil, err
		}
		results = append(results, mr)
	}
	return results, rows.Err()
}

func insertMatchResults(ctx context.Context, q DBTX, results []domain.MatchResult) error {
	if len(results) == 0 {
		return nil
	}

	stmt, err := q.PrepareContext(ctx, `
		INSERT INTO match_results (match_id, player_id, spec, team, rating, is_winner)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare match result insert: %w", err)
	}
	defer stmt.Close()

	for i := range results {
		mr := &results[i]
		res, err := stmt.ExecContext(ctx, mr.MatchID, mr.PlayerID, mr.Spec, mr.Team, mr.Rating, boolToInt(mr.IsWinner))
		if err != nil {
			return fmt.Errorf("failed to insert match result %d/%d: %w", mr.MatchID, mr.PlayerID, err)
		}
		if mr.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read match result id: %w", err)
		}
	}
	return nil
}
