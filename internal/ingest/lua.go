package ingest

import (
	"context"
	"fmt"
	"io"
	"time"

	"pvp-analytics/internal/combatlog"
	"pvp-analytics/internal/constants"
	"pvp-analytics/internal/domain"
	"pvp-analytics/internal/inference"
	"pvp-analytics/internal/metrics"

	"github.com/rs/zerolog"
)

// LuaIngester ingests the addon's saved-variables document. Every match
// block becomes one recording.
type LuaIngester struct {
	players  PlayerStore
	matches  MatchStore
	enricher Enricher
	tables   *inference.Tables
	logger   zerolog.Logger
}

func NewLuaIngester(players PlayerStore, matches MatchStore, enricher Enricher, logger zerolog.Logger) *LuaIngester {
	return &LuaIngester{
		players:  players,
		matches:  matches,
		enricher: enricher,
		tables:   inference.Default(),
		logger:   logger,
	}
}

func (l *LuaIngester) Ingest(ctx context.Context, r io.Reader) ([]domain.Match, error) {
	format := combatlog.FormatLuaTable.String()
	logger := runLogger(ctx, l.logger, format)
	run := newRun(format, l.players, l.matches, l.enricher, l.tables, logger)

	doc, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read lua document: %w", err)
	}

	blocks := combatlog.ParseLuaTable(string(doc))
	logger.Debug().Int("blocks", len(blocks)).Msg("lua document parsed")

	var lines, skipped int
	for i, block := range blocks {
		start, ok := combatlog.ParseLuaTime(block.StartTime)
		if !ok {
			logger.Warn().Int("block", i).Str("start_time", block.StartTime).Msg("unparseable start time, block skipped")
			continue
		}

		ms := matchStart{
			Time:     start,
			Zone:     domain.ArenaZoneFromName(block.Zone),
			ModeHint: block.Mode,
		}
		if mode, ok := domain.ParseGameMode(block.Mode); ok {
			ms.Mode = mode
		}
		if err := run.begin(ctx, ms); err != nil {
			return run.out, err
		}

		baseDate := start.Local()
		for _, line := range block.Logs {
			if err := ctx.Err(); err != nil {
				run.discard()
				return run.out, err
			}
			lines++

			ev := combatlog.ParseSimplifiedLine(line, baseDate)
			if ev == nil {
				skipped++
				continue
			}
			// lines carry no date; a time far before the start crossed midnight
			if ev.Timestamp.Before(start.Add(-constants.MidnightRolloverAt)) {
				ev.Timestamp = ev.Timestamp.Add(24 * time.Hour)
			}
			run.observe(ev)
		}

		end, ok := combatlog.ParseLuaTime(block.EndTime)
		if !ok {
			end = run.rec.lastEvent
		}
		if err := run.finalize(ctx, end); err != nil {
			return run.out, err
		}
	}

	metrics.LinesProcessed.WithLabelValues(format).Add(float64(lines - skipped))
	metrics.LinesSkipped.WithLabelValues(format).Add(float64(skipped))

	if err := run.finish(ctx); err != nil {
		return run.out, err
	}

	logger.Info().
		Int("blocks", len(blocks)).
		Int("lines", lines).
		Int("skipped", skipped).
		Int("matches", len(run.out)).
		Msg("lua document ingested")
	return run.out, nil
}
