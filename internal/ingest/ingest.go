package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"

	"pvp-analytics/internal/combatlog"
	"pvp-analytics/internal/domain"
)

var ErrUnknownFormat = errors.New("unknown log format")

// Ingester turns one complete upload into stored matches. It returns every
// match produced so far together with any error that stopped the run.
type Ingester interface {
	Ingest(ctx context.Context, r io.Reader) ([]domain.Match, error)
}

type PlayerStore interface {
	FindByNames(ctx context.Context, names []string) ([]domain.Player, error)
	AddRange(ctx context.Context, players []*domain.Player) error
	UpdateRange(ctx context.Context, players []*domain.Player) error
}

type MatchStore interface {
	FindByHash(ctx context.Context, hash string) (*domain.Match, error)
	CreateWithDetails(ctx context.Context, match *domain.Match, entries []domain.CombatLogEntry, results []domain.MatchResult) (bool, error)
}

// Enricher looks up a character profile. A nil profile with a nil error
// means the character is unknown.
type Enricher interface {
	GetPlayerData(ctx context.Context, realm, name, region string) (*domain.PlayerProfile, error)
}

type Factory struct {
	traditional *TraditionalIngester
	lua         *LuaIngester
}

func NewFactory(traditional *TraditionalIngester, lua *LuaIngester) *Factory {
	return &Factory{
		traditional: traditional,
		lua:         lua,
	}
}

func (f *Factory) For(format combatlog.Format) (Ingester, error) {
	switch format {
	case combatlog.FormatTraditional:
		return f.traditional, nil
	case combatlog.FormatLuaTable:
		return f.lua, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
}
