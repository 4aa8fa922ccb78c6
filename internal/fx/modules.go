package fx

import (
	"pvp-analytics/internal/api"
	"pvp-analytics/internal/config"
	"pvp-analytics/internal/database"
	"pvp-analytics/internal/ingest"
	"pvp-analytics/internal/logger"
	"pvp-analytics/internal/repository"
	"pvp-analytics/internal/server"
	"pvp-analytics/internal/service"
	"pvp-analytics/internal/source"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvidePlayerStore(repo *repository.PlayerRepository) ingest.PlayerStore {
	return repo
}

func ProvideMatchStore(repo *repository.MatchRepository) ingest.MatchStore {
	return repo
}

// ProvideEnricher falls back to a no-op lookup when API credentials are missing.
func ProvideEnricher(cfg *config.Config, logger zerolog.Logger) ingest.Enricher {
	if !cfg.EnrichmentEnabled() {
		return api.NoopEnricher{}
	}
	return api.NewBlizzardClient(cfg, logger)
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(repository.NewMatchRepository),
	fx.Provide(repository.NewMatchResultRepository),
	fx.Provide(repository.NewCombatLogRepository),
	fx.Provide(repository.NewUploadRepository),
	fx.Provide(ProvidePlayerStore),
	fx.Provide(ProvideMatchStore),
	// enrichment
	fx.Provide(ProvideEnricher),
	// ingestion
	fx.Provide(ingest.NewTraditionalIngester),
	fx.Provide(ingest.NewLuaIngester),
	fx.Provide(ingest.NewFactory),
	fx.Provide(source.NewOpener),
	// svc
	fx.Provide(service.NewIngestService),
	// server
	fx.Provide(server.NewIngestServer),
)
