package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pvp-analytics/internal/combatlog"
	"pvp-analytics/internal/domain"
	"pvp-analytics/internal/inference"
	"pvp-analytics/internal/metrics"

	"github.com/rs/zerolog"
)

// run is the state of one ingestion call: the player cache, the matches
// finalized so far and, while recording, the open match.
type run struct {
	format   string
	players  *playerCache
	matches  MatchStore
	enricher Enricher
	tables   *inference.Tables
	logger   zerolog.Logger

	rec      *recording
	lastZone domain.ArenaZone
	out      []domain.Match
}

type recording struct {
	start        time.Time
	lastEvent    time.Time
	zone         domain.ArenaZone
	arenaMatchID string
	modeHint     string
	mode         domain.GameMode
	ranked       *bool

	actors   []combatlog.PlayerName
	actorIdx map[string]int
	realms   map[string][]string
	spells   map[string]inference.SpellSet
	entries  []bufferedEntry
}

// bufferedEntry keeps actor names until finalize resolves them to IDs.
type bufferedEntry struct {
	event     *combatlog.Event
	sourceKey string
	targetKey string
}

// matchStart describes the opening of a recording. An empty Mode lets the
// participant count decide.
type matchStart struct {
	Time         time.Time
	Zone         domain.ArenaZone
	ArenaMatchID string
	ModeHint     string
	Mode         domain.GameMode
	Ranked       *bool
}

func newRun(format string, players PlayerStore, matches MatchStore, enricher Enricher, tables *inference.Tables, logger zerolog.Logger) *run {
	return &run{
		format:   format,
		players:  newPlayerCache(players, logger),
		matches:  matches,
		enricher: enricher,
		tables:   tables,
		logger:   logger,
	}
}

// runLogger prefers the upload-scoped logger carried by ctx, which already
// names the format.
func runLogger(ctx context.Context, fallback zerolog.Logger, format string) zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return *l
	}
	return fallback.With().Str("format", format).Logger()
}

// begin opens a recording. A start while already recording closes the open
// match first, ending it at its last event.
func (r *run) begin(ctx context.Context, ms matchStart) error {
	if r.rec != nil {
		r.logger.Warn().Time("start", r.rec.start).Msg("match start while recording, closing previous match")
		if err := r.finalize(ctx, r.rec.lastEvent); err != nil {
			return err
		}
	}

	zone := ms.Zone
	if zone == domain.ZoneUnknown {
		zone = r.lastZone
	}
	r.rec = &recording{
		start:        ms.Time,
		lastEvent:    ms.Time,
		zone:         zone,
		arenaMatchID: ms.ArenaMatchID,
		modeHint:     ms.ModeHint,
		mode:         ms.Mode,
		ranked:       ms.Ranked,
		actorIdx:     make(map[string]int),
		realms:       make(map[string][]string),
		spells:       make(map[string]inference.SpellSet),
	}
	r.logger.Debug().Time("start", ms.Time).Str("arena_match_id", ms.ArenaMatchID).Msg("recording started")
	return nil
}

// zoneChanged closes the open recording, if any, and remembers the zone.
func (r *run) zoneChanged(ctx context.Context, ev *combatlog.Event) error {
	if r.rec != nil {
		if err := r.finalize(ctx, ev.Timestamp); err != nil {
			return err
		}
	}
	r.lastZone = domain.ArenaZoneFromID(ev.ZoneID)
	return nil
}

// observe feeds one combat event into the open recording. The source is
// always treated as the caster.
func (r *run) observe(ev *combatlog.Event) {
	rec := r.rec
	if rec == nil || ev.EventType == combatlog.EventArenaMatchEnd {
		return
	}
	if ev.Timestamp.After(rec.lastEvent) {
		rec.lastEvent = ev.Timestamp
	}

	sourceKey, sourceOK := rec.note(ev.SourceGUID, ev.SourceName)
	if !sourceOK {
		rec.note(ev.TargetGUID, ev.TargetName)
		return
	}

	rec.spells[sourceKey].Add(ev.SpellName)
	rec.entries = append(rec.entries, bufferedEntry{
		event:     ev,
		sourceKey: sourceKey,
	})
	// noted after the append so a realm takeover also rekeys this entry
	targetKey, _ := rec.note(ev.TargetGUID, ev.TargetName)
	rec.entries[len(rec.entries)-1].targetKey = targetKey
}

// note records a player actor and returns its player key. Non-player GUIDs
// and blank names are ignored. A sighting without a realm joins the only
// realm-qualified actor of that name; a first sighting with a realm takes
// over an earlier realmless actor.
func (rec *recording) note(guid, raw string) (string, bool) {
	if !combatlog.IsPlayerGUID(guid) {
		return "", false
	}
	pn := combatlog.ParsePlayerName(raw)
	if pn.Name == "" || strings.EqualFold(pn.Name, "nil") {
		return "", false
	}

	name := domain.NameKey(pn.Name)
	if !pn.HasRealm() {
		if keys := rec.realms[name]; len(keys) == 1 {
			return keys[0], true
		}
		if _, ok := rec.actorIdx[name]; !ok {
			rec.addActor(name, pn)
		}
		return name, true
	}

	key := domain.PlayerKey(pn.Name, pn.Realm)
	if _, ok := rec.actorIdx[key]; ok {
		return key, true
	}
	if i, ok := rec.actorIdx[name]; ok && len(rec.realms[name]) == 0 {
		rec.actors[i] = pn
		rec.actorIdx[key] = i
		delete(rec.actorIdx, name)
		rec.spells[key] = rec.spells[name]
		delete(rec.spells, name)
		for j := range rec.entries {
			if rec.entries[j].sourceKey == name {
				rec.entries[j].sourceKey = key
			}
			if rec.entries[j].targetKey == name {
				rec.entries[j].targetKey = key
			}
		}
	} else {
		rec.addActor(key, pn)
	}
	rec.realms[name] = append(rec.realms[name], key)
	return key, true
}

func (rec *recording) addActor(key string, pn combatlog.PlayerName) {
	rec.actorIdx[key] = len(rec.actors)
	rec.actors = append(rec.actors, pn)
	rec.spells[key] = inference.SpellSet{}
}

func (rec *recording) participantNames() []string {
	names := make([]string, 0, len(rec.actors))
	for _, a := range rec.actors {
		names = append(names, domain.PlayerKey(a.Name, a.Realm))
	}
	return names
}

// discard drops the open recording without persisting anything.
func (r *run) discard() {
	if r.rec != nil {
		r.logger.Debug().Time("start", r.rec.start).Msg("recording discarded")
	}
	r.rec = nil
}

// finalize closes the open recording and stores it as one match: resolve
// participants, check the hash, infer attributes, persist players, then
// write match, entries and results in one transaction.
func (r *run) finalize(ctx context.Context, end time.Time) error {
	rec := r.rec
	r.rec = nil
	if rec == nil {
		return nil
	}
	if end.Before(rec.start) {
		end = rec.start
	}

	resolved, err := r.players.Resolve(ctx, rec.actors)
	if err != nil {
		return err
	}

	var (
		participants []*domain.Player
		keys         []string
	)
	index := make(map[*domain.Player]int, len(rec.actors))
	for _, a := range rec.actors {
		k := domain.PlayerKey(a.Name, a.Realm)
		p, ok := resolved[k]
		if !ok {
			continue
		}
		// a realmless actor may resolve to a player already seen with a realm
		if i, dup := index[p]; dup {
			rec.spells[keys[i]].Merge(rec.spells[k])
			continue
		}
		index[p] = len(participants)
		participants = append(participants, p)
		keys = append(keys, k)
	}
	if len(participants) == 0 {
		metrics.DiscardedMatches.WithLabelValues(r.format).Inc()
		r.logger.Info().
			Time("start", rec.start).
			Int("actors", len(rec.actors)).
			Msg("no resolvable participants, match discarded")
		return nil
	}

	hash := matchHash(rec.participantNames(), rec.start, end, rec.arenaMatchID)
	existing, err := r.matches.FindByHash(ctx, hash)
	if err != nil {
		return fmt.Errorf("failed to check for duplicate match: %w", err)
	}
	if existing != nil {
		metrics.DuplicateMatches.WithLabelValues(r.format).Inc()
		r.logger.Info().Int64("match_id", existing.ID).Msg("match already ingested")
		r.out = append(r.out, *existing)
		return nil
	}

	specs := make([]string, len(participants))
	for i, p := range participants {
		spells := rec.spells[keys[i]]
		specs[i] = r.tables.InferSpec(spells)
		r.applyInference(p, spells, specs[i])
	}

	if err := r.players.Flush(ctx); err != nil {
		return err
	}

	results := make([]domain.MatchResult, len(participants))
	for i, p := range participants {
		results[i] = domain.MatchResult{PlayerID: p.ID, Spec: specs[i]}
	}

	entries := make([]domain.CombatLogEntry, 0, len(rec.entries))
	dropped := 0
	for _, be := range rec.entries {
		source, ok := resolved[be.sourceKey]
		if !ok || source.ID == 0 {
			dropped++
			continue
		}
		entry := domain.CombatLogEntry{
			Timestamp:      be.event.Timestamp,
			EventType:      be.event.EventType,
			SourcePlayerID: source.ID,
			SpellID:        be.event.SpellID,
			SpellName:      be.event.SpellName,
			Damage:         be.event.Damage,
			Healing:        be.event.Healing,
			Absorbed:       be.event.Absorbed,
		}
		if target, ok := resolved[be.targetKey]; ok && target.ID != 0 {
			id := target.ID
			entry.TargetPlayerID = &id
		}
		entries = append(entries, entry)
	}

	mode := rec.mode
	if mode == "" {
		mode = inference.ResolveGameMode(len(participants), rec.modeHint)
	}
	ranked := mode != domain.Skirmish
	if rec.ranked != nil {
		ranked = *rec.ranked
	}
	duration := int(end.Sub(rec.start).Seconds())

	match := domain.Match{
		StartTime:    rec.start,
		EndTime:      end,
		ArenaZone:    rec.zone,
		ArenaMatchID: rec.arenaMatchID,
		GameMode:     mode,
		Duration:     duration,
		UniqueHash:   hash,
		IsRanked:     ranked,
	}

	created, err := r.matches.CreateWithDetails(ctx, &match, entries, results)
	if err != nil {
		return fmt.Errorf("failed to store match: %w", err)
	}
	if created {
		metrics.MatchesCreated.WithLabelValues(r.format).Inc()
	} else {
		metrics.DuplicateMatches.WithLabelValues(r.format).Inc()
	}

	r.logger.Info().
		Int64("match_id", match.ID).
		Bool("created", created).
		Str("game_mode", string(match.GameMode)).
		Str("zone", match.ArenaZone.String()).
		Int("duration", match.Duration).
		Int("participants", len(participants)).
		Int("entries", len(entries)).
		Int("dropped_entries", dropped).
		Msg("match finalized")

	r.out = append(r.out, match)
	return nil
}

// applyInference fills blank player attributes from the spells cast in this
// match. Attributes already set are never overwritten.
func (r *run) applyInference(p *domain.Player, spells inference.SpellSet, spec string) {
	changed := false
	if p.Class == "" {
		if class := r.tables.InferClass(spells); class != "" {
			p.Class = class
			changed = true
		}
	}
	if p.Faction == "" {
		if faction := r.tables.InferFaction(spells); faction != "" {
			p.Faction = faction
			changed = true
		}
	}
	if p.Spec == "" && spec != "" {
		p.Spec = spec
		changed = true
	}
	if changed {
		r.players.MarkDirty(p)
	}
}

// finish flushes staged players, asks the enricher about players still
// missing attributes and flushes what it filled in.
func (r *run) finish(ctx context.Context) error {
	if err := r.players.Flush(ctx); err != nil {
		return err
	}
	r.enrich(ctx)
	return r.players.Flush(ctx)
}

func (r *run) enrich(ctx context.Context) {
	if r.enricher == nil {
		return
	}

	for _, p := range r.players.Touched() {
		if p.ID == 0 || p.Realm == "" || !p.MissingAttributes() {
			continue
		}

		profile, err := r.enricher.GetPlayerData(ctx, p.Realm, p.Name, p.Region)
		if err != nil {
			metrics.EnrichmentFailures.Inc()
			r.logger.Warn().Err(err).Str("player", p.Name).Str("realm", p.Realm).Msg("failed to enrich player")
			continue
		}
		if profile == nil {
			continue
		}

		changed := false
		for _, f := range []struct {
			dst *string
			src string
		}{
			{&p.Class, profile.Class},
			{&p.Spec, profile.Spec},
			{&p.Faction, profile.Faction},
			{&p.Race, profile.Race},
		} {
			if *f.dst == "" && f.src != "" {
				*f.dst = f.src
				changed = true
			}
		}
		if changed {
			r.players.MarkDirty(p)
		}
	}
}
