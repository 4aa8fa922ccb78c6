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

const playerColumns = `id, name, realm, region, class, spec, faction, race, created_at, updated_at`

type PlayerRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{
		db:     sqlDB,
		logger: logger,
	}
}

func (r *PlayerRepository) GetByID(ctx context.Context, id int64) (*domain.Player, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = ?`, id)
	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player %d: %w", id, err)
	}
	return p, nil
}

// FindByNames returns every player whose name matches one of names,
// case-insensitively, on any realm. Names are queried in batches.
func (r *PlayerRepository) FindByNames(ctx context.Context, names []string) ([]domain.Player, error) {
	keys := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		k := domain.NameKey(n)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}

	var players []domain.Player
	err := inChunks(keys, func(chunk []string) error {
		args := make([]any, len(chunk))
		for i, k := range chunk {
			args[i] = k
		}

		rows, err := r.db.QueryContext(ctx,
			`SELECT `+playerColumns+` FROM players WHERE name_key IN (`+placeholders(len(chunk))+`) ORDER BY id`,
			args...)
		if err != nil {
			return fmt.Errorf("failed to query players: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanPlayer(rows)
			if err != nil {
				return err
			}
			players = append(players, *p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug().Int("names", len(keys)).Int("found", len(players)).Msg("batch player lookup")
	return players, nil
}

func (r *PlayerRepository) Add(ctx context.Context, player *domain.Player) error {
	return r.AddRange(ctx, []*domain.Player{player})
}

// AddRange inserts players in one transaction and assigns their IDs. A player
// whose (name, realm) already exists keeps the stored row's ID instead.
func (r *PlayerRepository) AddRange(ctx context.Context, players []*domain.Player) error {
	if len(players) == 0 {
		return nil
	}

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO players (name, realm, name_key, realm_key, region, class, spec, faction, race, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (name_key, realm_key) DO NOTHING`)
		if err != nil {
			return fmt.Errorf("failed to prepare player insert: %w", err)
		}
		defer stmt.Close()

		now := time.Now().UTC()
		return inChunks(players, func(chunk []*domain.Player) error {
			for _, p := range chunk {
				if p.CreatedAt.IsZero() {
					p.CreatedAt = now
				}
				p.UpdatedAt = now

				res, err := stmt.ExecContext(ctx,
					p.Name, p.Realm, domain.NameKey(p.Name), domain.NameKey(p.Realm), p.Region,
					p.Class, p.Spec, p.Faction, p.Race,
					formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
				if err != nil {
					return fmt.Errorf("failed to insert player %s-%s: %w", p.Name, p.Realm, err)
				}

				affected, err := res.RowsAffected()
				if err != nil {
					return fmt.Errorf("failed to read rows affected: %w", err)
				}
				if affected == 0 {
					// LastInsertId is unreliable after ON CONFLICT DO NOTHING
					err = tx.QueryRowContext(ctx,
						`SELECT id FROM players WHERE name_key = ? AND realm_key = ?`,
						domain.NameKey(p.Name), domain.NameKey(p.Realm)).Scan(&p.ID)
					if err != nil {
						return fmt.Errorf("failed to load existing player %s-%s: %w", p.Name, p.Realm, err)
					}
					continue
				}

				if p.ID, err = res.LastInsertId(); err != nil {
					return fmt.Errorf("failed to read player id: %w", err)
				}
			}
			return nil
		})
	})
}

func (r *PlayerRepository) Update(ctx context.Context, player *domain.Player) error {
	return r.UpdateRange(ctx, []*domain.Player{player})
}

func (r *PlayerRepository) UpdateRange(ctx context.Context, players []*domain.Player) error {
	if len(players) == 0 {
		return nil
	}

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			UPDATE players
			SET region = ?, class = ?, spec = ?, faction = ?, race = ?, updated_at = ?
			WHERE id = ?`)
		if err != nil {
			return fmt.Errorf("failed to prepare player update: %w", err)
		}
		defer stmt.Close()

		now := time.Now().UTC()
		return inChunks(players, func(chunk []*domain.Player) error {
			for _, p := range chunk {
				if p.ID == 0 {
					return fmt.Errorf("failed to update player %s-%s: not persisted", p.Name, p.Realm)
				}
				p.UpdatedAt = now
				if _, err := stmt.ExecContext(ctx,
					p.Region, p.Class, p.Spec, p.Faction, p.Race, formatTime(p.UpdatedAt), p.ID); err != nil {
					return fmt.Errorf("failed to update player %d: %w", p.ID, err)
				}
			}
			return nil
		})
	})
}

func (r *PlayerRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM players WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete player %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPlayer(s rowScanner) (*domain.Player, error) {
	var p domain.Player
	var createdAt, updatedAt string
	if err := s.Scan(&p.ID, &p.Name, &p.Realm, &p.Region, &p.Class, &p.Spec, &p.Faction, &p.Race, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
