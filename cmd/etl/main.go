package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/county-data-etl/internal/adapter/census"
	"github.com/couchcryptid/county-data-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/county-data-etl/internal/adapter/duckdb"
	httpadapter "github.com/couchcryptid/county-data-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/county-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/county-data-etl/internal/config"
	"github.com/couchcryptid/county-data-etl/internal/observability"
	"github.com/couchcryptid/county-data-etl/internal/pipeline"
)

const metricsJob = "county_etl"

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fetcher := census.NewClient(cfg.CensusAPIURL, cfg.CensusAPIKey, cfg.CensusTimeout, metrics, logger)
	tables := csvfile.NewReader(map[string]csvfile.Source{
		pipeline.SourceHousing:    {Path: cfg.HousingPath},
		pipeline.SourceCrosswalk:  {Path: cfg.CrosswalkPath, Encoding: csvfile.Latin1},
		pipeline.SourcePopulation: {Path: cfg.PopulationPath, Encoding: csvfile.Latin1},
		pipeline.SourceRace:       {Path: cfg.RacePath},
		pipeline.SourceMobility:   {Path: cfg.MobilityPath},
	}, logger)

	loaders := []pipeline.Loader{
		csvfile.NewWriter(csvfile.Paths{
			Housing:  cfg.HousingOutputPath,
			Race:     cfg.RaceOutputPath,
			Mobility: cfg.MobilityOutputPath,
		}, logger),
	}

	// Optional sinks (feature-flagged via DUCKDB_PATH / KAFKA_BROKERS).
	if cfg.DuckDBEnabled() {
		store, err := duckdb.Open(ctx, cfg.DuckDBPath, logger)
		if err != nil {
			logger.Error("duckdb open failed", "error", err)
			return 1
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("duckdb close error", "error", err)
			}
		}()
		loaders = append(loaders, store)
		logger.Info("duckdb sink enabled", "path", cfg.DuckDBPath)
	}
	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		loaders = append(loaders, writer)
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	}

	p := pipeline.New(cfg.DataYear, fetcher, tables, loaders, logger, metrics)

	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	_, runErr := p.Run(ctx)

	if cfg.PushgatewayURL != "" {
		if err := metrics.Push(context.WithoutCancel(ctx), cfg.PushgatewayURL, metricsJob); err != nil {
			logger.Error("metrics push failed", "error", err)
		}
	}

	// With an HTTP server configured, stay up for health and metrics scrapes
	// until signalled.
	if srv != nil {
		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}

	if runErr != nil {
		return 1
	}
	logger.Info("shutdown complete")
	return 0
}
