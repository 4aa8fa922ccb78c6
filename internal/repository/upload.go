package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pvp-analytics/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type UploadRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewUploadRepository(sqlDB *sql.DB, logger zerolog.Logger) *UploadRepository {
	return &UploadRepository{
		db:     sqlDB,
		logger: logger,
	}
}

// Create stores a new upload in the processing state, generating its ID
// when blank.
func (r *UploadRepository) Create(ctx context.Context, upload *domain.Upload) error {
	if upload.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate nanoid: %w", err)
		}
		upload.ID = id
	}
	if upload.Status == "" {
		upload.Status = domain.UploadProcessing
	}
	if upload.StartedAt.IsZero() {
		upload.StartedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO uploads (id, file_name, format, status, match_count, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		upload.ID, upload.FileName, upload.Format, string(upload.Status), upload.MatchCount,
		upload.Error, formatTime(upload.StartedAt), formatNullTime(upload.FinishedAt))
	if err != nil {
		return fmt.Errorf("failed to insert upload: %w", err)
	}
	return nil
}

// Finish records the outcome of an upload.
func (r *UploadRepository) Finish(ctx context.Context, upload *domain.Upload) error {
	if upload.FinishedAt == nil {
		now := time.Now().UTC()
		upload.FinishedAt = &now
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE uploads SET format = ?, status = ?, match_count = ?, error = ?, finished_at = ?
		WHERE id = ?`,
		upload.Format, string(upload.Status), upload.MatchCount, upload.Error,
		formatNullTime(upload.FinishedAt), upload.ID)
	if err != nil {
		return fmt.Errorf("failed to update upload %s: %w", upload.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UploadRepository) GetByID(ctx context.Context, id string) (*domain.Upload, error) {
	var (
		u          domain.Upload
		status     string
		startedAt  string
		finishedAt sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, file_name, format, status, match_count, error, started_at, finished_at
		FROM uploads WHERE id = ?`, id).
		Scan(&u.ID, &u.FileName, &u.Format, &status, &u.MatchCount, &u.Error, &startedAt, &finishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get upload %s: %w", id, err)
	}

	u.Status = domain.UploadStatus(status)
	if u.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		t, err := parseTime(finishedAt.String)
		if err != nil {
			return nil, err
		}
		u.FinishedAt = &t
	}
	return &u, nil
}
