package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"pvp-analytics/internal/combatlog"
	"pvp-analytics/internal/constants"
	"pvp-analytics/internal/domain"
	"pvp-analytics/internal/ingest"
	"pvp-analytics/internal/metrics"
	"pvp-analytics/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var ErrEmptyUpload = errors.New("upload is empty")

type IngestResult struct {
	UploadID string
	Format   combatlog.Format
	Matches  []domain.Match
}

type IngestService struct {
	factory    *ingest.Factory
	uploadRepo *repository.UploadRepository
	logger     zerolog.Logger
}

func NewIngestService(factory *ingest.Factory, uploadRepo *repository.UploadRepository, logger zerolog.Logger) *IngestService {
	return &IngestService{factory: factory, uploadRepo: uploadRepo, logger: logger}
}

// Ingest detects the format of r, runs the matching ingester and records the
// upload. The result holds every match produced before a failure, so it is
// non-nil whenever the upload row was created.
func (s *IngestService) Ingest(ctx context.Context, fileName string, r io.ReadSeeker) (*IngestResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	size, err := streamSize(r)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, ErrEmptyUpload
	}

	format, err := combatlog.DetectFormat(r)
	if err != nil {
		return nil, fmt.Errorf("failed to detect format: %w", err)
	}

	upload := &domain.Upload{FileName: fileName, Format: format.String()}
	if err := s.uploadRepo.Create(ctx, upload); err != nil {
		return nil, fmt.Errorf("failed to record upload: %w", err)
	}

	base := s.logger
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		base = *l
	}
	logger := base.With().Str("upload_id", upload.ID).Str("format", upload.Format).Logger()
	ctx = logger.WithContext(ctx)

	logger.Info().Str("file_name", fileName).Int64("size", size).Msg("ingestion started")
	start := time.Now()

	result := &IngestResult{UploadID: upload.ID, Format: format}
	ingester, err := s.factory.For(format)
	if err == nil {
		// BOMOverride also turns UTF-16 uploads into UTF-8
		decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
		result.Matches, err = ingester.Ingest(ctx, decoded)
	}

	upload.MatchCount = len(result.Matches)
	upload.Status = domain.UploadCompleted
	if err != nil {
		upload.Status = domain.UploadFailed
		upload.Error = err.Error()
	}
	metrics.IngestDuration.WithLabelValues(upload.Format, string(upload.Status)).Observe(time.Since(start).Seconds())

	finishCtx, finishCancel := context.WithTimeout(context.WithoutCancel(ctx), constants.DatabaseTimeout)
	defer finishCancel()
	if ferr := s.uploadRepo.Finish(finishCtx, upload); ferr != nil {
		logger.Warn().Err(ferr).Msg("failed to record upload outcome")
	}

	if err != nil {
		logger.Error().Err(err).Int("matches", len(result.Matches)).Msg("ingestion failed")
		return result, fmt.Errorf("failed to ingest %s: %w", fileName, err)
	}

	logger.Info().
		Int("matches", len(result.Matches)).
		Dur("duration", time.Since(start)).
		Msg("ingestion completed")
	return result, nil
}

func streamSize(r io.Seeker) (int64, error) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("failed to read stream position: %w", err)
	}
	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("failed to seek stream: %w", err)
	}
	if _, err := r.Seek(pos, io.SeekStart); err != nil {
		return 0, fmt.Errorf("failed to restore stream position: %w", err)
	}
	return end - pos, nil
}
