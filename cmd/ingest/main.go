package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"pvp-analytics/internal/constants"
	fxmodules "pvp-analytics/internal/fx"
	"pvp-analytics/internal/service"
	"pvp-analytics/internal/source"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"
)

const (
	exitSuccess = 0
	exitFailure = 1
)

func main() {
	os.Exit(run())
}

func run() int {
	concurrency := flag.Int("concurrency", constants.IngestConcurrency, "Number of uploads ingested at the same time")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-concurrency N] <path|s3://bucket/key>...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		return exitFailure
	}
	if *concurrency < 1 {
		fmt.Fprintf(os.Stderr, "error: -concurrency must be at least 1\n")
		return exitFailure
	}

	var (
		ingestSvc *service.IngestService
		opener    *source.Opener
		db        *sql.DB
		logger    zerolog.Logger
	)
	app := fx.New(
		fxmodules.Module,
		fx.NopLogger,
		fx.Populate(&ingestSvc, &opener, &db, &logger),
	)
	if err := app.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitFailure
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		g      errgroup.Group
		failed atomic.Int32
	)
	g.SetLimit(*concurrency)

	for _, location := range flag.Args() {
		location := location
		g.Go(func() error {
			if err := ingestOne(ctx, ingestSvc, opener, logger, location); err != nil {
				failed.Add(1)
				logger.Error().Err(err).Str("location", location).Msg("ingestion failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	if n := failed.Load(); n > 0 {
		logger.Error().Int32("failed", n).Int("total", flag.NArg()).Msg("some uploads failed")
		return exitFailure
	}
	return exitSuccess
}

func ingestOne(ctx context.Context, ingestSvc *service.IngestService, opener *source.Opener, logger zerolog.Logger, location string) error {
	upload, err := opener.Open(ctx, location)
	if err != nil {
		return err
	}

	result, err := ingestSvc.Ingest(ctx, upload.Name, upload.Reader)
	if err != nil {
		return err
	}

	logger.Info().
		Str("location", location).
		Str("upload_id", result.UploadID).
		Str("format", result.Format.String()).
		Int("matches", len(result.Matches)).
		Msg("upload ingested")
	return nil
}
