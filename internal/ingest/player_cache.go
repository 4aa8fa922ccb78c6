package ingest

import (
	"context"
	"fmt"

	"pvp-analytics/internal/combatlog"
	"pvp-analytics/internal/domain"
	"pvp-analytics/internal/metrics"

	"github.com/rs/zerolog"
)

// playerCache stages player lookups, creates and updates for one upload so
// the store is only hit at batch points. Resolved players stay cached for the
// whole upload, keyed by name and realm.
type playerCache struct {
	store  PlayerStore
	logger zerolog.Logger

	byKey    map[string]*domain.Player
	byName   map[string][]*domain.Player
	lookedUp map[string]struct{}

	creates []*domain.Player
	updates []*domain.Player
	dirty   map[*domain.Player]struct{}

	touched     []*domain.Player
	touchedSeen map[*domain.Player]struct{}
}

func newPlayerCache(store PlayerStore, logger zerolog.Logger) *playerCache {
	return &playerCache{
		store:       store,
		logger:      logger,
		byKey:       make(map[string]*domain.Player),
		byName:      make(map[string][]*domain.Player),
		lookedUp:    make(map[string]struct{}),
		dirty:       make(map[*domain.Player]struct{}),
		touchedSeen: make(map[*domain.Player]struct{}),
	}
}

// Resolve maps each actor's player key to a player. Names not cached yet are
// loaded from the store in one batch. Actors with a realm are matched on
// (name, realm) and staged as creates when unknown. Actors without a realm
// resolve only when exactly one known player carries that name.
func (c *playerCache) Resolve(ctx context.Context, actors []combatlog.PlayerName) (map[string]*domain.Player, error) {
	var lookup []string
	queued := make(map[string]struct{}, len(actors))
	for _, a := range actors {
		k := domain.NameKey(a.Name)
		if k == "" {
			continue
		}
		if _, ok := queued[k]; ok {
			continue
		}
		queued[k] = struct{}{}
		if _, ok := c.lookedUp[k]; ok {
			continue
		}
		lookup = append(lookup, k)
	}

	if len(lookup) > 0 {
		found, err := c.store.FindByNames(ctx, lookup)
		if err != nil {
			return nil, fmt.Errorf("failed to look up players: %w", err)
		}
		for _, k := range lookup {
			c.lookedUp[k] = struct{}{}
		}
		for i := range found {
			c.add(&found[i])
		}
		c.logger.Debug().Int("names", len(lookup)).Int("found", len(found)).Msg("resolved players from store")
	}

	out := make(map[string]*domain.Player, len(actors))
	// realm-qualified actors first so a realmless sighting can match a player
	// staged in the same call
	for _, a := range actors {
		if domain.NameKey(a.Name) == "" || !a.HasRealm() {
			continue
		}
		k := domain.PlayerKey(a.Name, a.Realm)
		if _, ok := out[k]; ok {
			continue
		}
		p, ok := c.byKey[k]
		if !ok {
			p = &domain.Player{Name: a.Name, Realm: a.Realm, Region: a.Region}
			c.add(p)
			c.creates = append(c.creates, p)
		}
		out[k] = p
		c.touch(p)
	}
	for _, a := range actors {
		k := domain.NameKey(a.Name)
		if k == "" || a.HasRealm() {
			continue
		}
		if _, ok := out[k]; ok {
			continue
		}
		candidates := c.byName[k]
		if len(candidates) != 1 {
			if len(candidates) > 1 {
				c.logger.Debug().Str("name", a.Name).Int("candidates", len(candidates)).Msg("ambiguous player without realm")
			}
			continue
		}
		out[k] = candidates[0]
		c.touch(candidates[0])
	}
	return out, nil
}

func (c *playerCache) add(p *domain.Player) {
	k := domain.PlayerKey(p.Name, p.Realm)
	if _, ok := c.byKey[k]; ok {
		return
	}
	c.byKey[k] = p
	name := domain.NameKey(p.Name)
	c.byName[name] = append(c.byName[name], p)
}

// MarkDirty queues a stored player for the next update batch. Staged creates
// are skipped because their insert carries the current fields.
func (c *playerCache) MarkDirty(p *domain.Player) {
	if p.ID == 0 {
		return
	}
	if _, ok := c.dirty[p]; ok {
		return
	}
	c.dirty[p] = struct{}{}
	c.updates = append(c.updates, p)
}

// Flush inserts staged creates, then pushes queued updates, then clears both.
// The name cache is kept.
func (c *playerCache) Flush(ctx context.Context) error {
	if len(c.creates) > 0 {
		if err := c.store.AddRange(ctx, c.creates); err != nil {
			return fmt.Errorf("failed to create players: %w", err)
		}
		metrics.PlayersCreated.Add(float64(len(c.creates)))
		c.logger.Debug().Int("count", len(c.creates)).Msg("players created")
		c.creates = nil
	}

	if len(c.updates) > 0 {
		if err := c.store.UpdateRange(ctx, c.updates); err != nil {
			return fmt.Errorf("failed to update players: %w", err)
		}
		c.logger.Debug().Int("count", len(c.updates)).Msg("players updated")
		c.updates = nil
		c.dirty = make(map[*domain.Player]struct{})
	}
	return nil
}

// Touched returns every player resolved during the upload in first-seen order.
func (c *playerCache) Touched() []*domain.Player {
	return c.touched
}

func (c *playerCache) touch(p *domain.Player) {
	if _, ok := c.touchedSeen[p]; ok {
		return
	}
	c.touchedSeen[p] = struct{}{}
	c.touched = append(c.touched, p)
}
