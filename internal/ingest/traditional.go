package ingest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"pvp-analytics/internal/combatlog"
	"pvp-analytics/internal/constants"
	"pvp-analytics/internal/domain"
	"pvp-analytics/internal/inference"
	"pvp-analytics/internal/metrics"

	"github.com/rs/zerolog"
)

// TraditionalIngester ingests line-oriented client combat logs.
type TraditionalIngester struct {
	players  PlayerStore
	matches  MatchStore
	enricher Enricher
	tables   *inference.Tables
	logger   zerolog.Logger
}

func NewTraditionalIngester(players PlayerStore, matches MatchStore, enricher Enricher, logger zerolog.Logger) *TraditionalIngester {
	return &TraditionalIngester{
		players:  players,
		matches:  matches,
		enricher: enricher,
		tables:   inference.Default(),
		logger:   logger,
	}
}

func (t *TraditionalIngester) Ingest(ctx context.Context, r io.Reader) ([]domain.Match, error) {
	format := combatlog.FormatTraditional.String()
	logger := runLogger(ctx, t.logger, format)
	run := newRun(format, t.players, t.matches, t.enricher, t.tables, logger)

	lr := newLineReader(r, constants.MaxLogLineBytes)

	var (
		lines, skipped int
		readErr        error
	)
	for {
		line, oversized, err := lr.next()
		if err != nil {
			if err != io.EOF {
				readErr = err
			}
			break
		}
		if err := ctx.Err(); err != nil {
			run.discard()
			return run.out, err
		}
		lines++

		if oversized {
			skipped++
			logger.Debug().Int("line", lines).Int("max_bytes", constants.MaxLogLineBytes).Msg("oversized line skipped")
			continue
		}

		ev := combatlog.ParseLine(line)
		if ev == nil {
			skipped++
			continue
		}

		switch ev.EventType {
		case combatlog.EventArenaMatchStart:
			err = run.begin(ctx, matchStart{
				Time:         ev.Timestamp,
				Zone:         domain.ArenaZoneFromID(ev.ZoneID),
				ArenaMatchID: ev.ArenaMatchID,
				ModeHint:     ev.ArenaMatchID + " " + ev.MatchType,
				Ranked:       ev.IsRanked,
			})
		case combatlog.EventZoneChange:
			err = run.zoneChanged(ctx, ev)
		default:
			run.observe(ev)
		}
		if err != nil {
			return run.out, err
		}
	}

	metrics.LinesProcessed.WithLabelValues(format).Add(float64(lines - skipped))
	metrics.LinesSkipped.WithLabelValues(format).Add(float64(skipped))

	if readErr != nil {
		run.discard()
		return run.out, fmt.Errorf("failed to read combat log: %w", readErr)
	}

	if run.rec != nil {
		if err := run.finalize(ctx, run.rec.lastEvent); err != nil {
			return run.out, err
		}
	}
	if err := run.finish(ctx); err != nil {
		return run.out, err
	}

	logger.Info().
		Int("lines", lines).
		Int("skipped", skipped).
		Int("matches", len(run.out)).
		Msg("combat log ingested")
	return run.out, nil
}

// lineReader splits a stream into lines of at most max bytes. A longer line
// is consumed whole and reported as oversized instead of failing the read.
type lineReader struct {
	br  *bufio.Reader
	max int
	buf []byte
}

func newLineReader(r io.Reader, max int) *lineReader {
	return &lineReader{
		br:  bufio.NewReaderSize(r, 64*1024),
		max: max,
	}
}

// next returns the next line without its line ending, or io.EOF once the
// stream is exhausted.
func (lr *lineReader) next() (string, bool, error) {
	lr.buf = lr.buf[:0]
	read, oversized := false, false
	for {
		chunk, err := lr.br.ReadSlice('\n')
		if len(chunk) > 0 {
			read = true
		}
		if !oversized {
			if len(lr.buf)+len(chunk) > lr.max {
				oversized = true
				lr.buf = lr.buf[:0]
			} else {
				lr.buf = append(lr.buf, chunk...)
			}
		}

		switch {
		case err == bufio.ErrBufferFull:
			continue
		case err == io.EOF:
			if !read {
				return "", false, io.EOF
			}
		case err != nil:
			return "", false, err
		}
		if oversized {
			return "", true, nil
		}
		return strings.TrimRight(string(lr.buf), "\r\n"), false, nil
	}
}
