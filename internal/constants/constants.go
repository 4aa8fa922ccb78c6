package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 5 * time.Minute
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
	DBBatchSize       = 100
)

const (
	ShutdownTimeout   = 5 * time.Second
	ReadHeaderTimeout = 10 * time.Second
)

const (
	MaxUploadBytes     = 100 << 20
	MaxLogLineBytes    = 1 << 20
	IngestConcurrency  = 4
	TokenExpiryLeeway  = 30 * time.Second
	MidnightRolloverAt = 12 * time.Hour
)
