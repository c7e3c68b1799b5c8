// Command authoringd serves the authoring service's HTTP surface: link
// creation and the admin collision-count metric. Wiring mirrors
// cmd/redirectd, minus the cache/broker components the authoring path
// doesn't need (no dashboard reads, no click ingestion happen here).
package main

import (
	"context"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/go-systems-lab/shortlink/internal/allocator"
	"github.com/go-systems-lab/shortlink/internal/authoring"
	"github.com/go-systems-lab/shortlink/internal/config"
	"github.com/go-systems-lab/shortlink/internal/httpapi"
	"github.com/go-systems-lab/shortlink/internal/linkstore"
	"github.com/go-systems-lab/shortlink/internal/obs"
	"github.com/go-systems-lab/shortlink/internal/server"
	"github.com/go-systems-lab/shortlink/internal/token"
)

// Version may be overridden at build time via -ldflags.
var Version = "latest"

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	log := logrus.NewEntry(logger)
	log.Info("starting authoringd")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	var tracer *obs.Tracer
	tp, err := obs.InitJaeger(obs.TracingConfig{
		ServiceName:    "authoringd",
		ServiceVersion: Version,
		Environment:    cfg.AppEnv,
		JaegerEndpoint: cfg.JaegerEndpoint,
	})
	if err != nil {
		log.WithError(err).Warn("failed to initialize tracing, continuing without it")
	} else {
		tracer = obs.NewTracer("authoringd")
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				log.WithError(err).Error("failed to shut down tracer provider")
			}
		}()
	}

	metrics := obs.NewMetrics()

	ctx := context.Background()

	store, mongoClient, err := linkstore.Connect(ctx, linkstore.Config{
		URI:            cfg.MongoURI,
		Database:       cfg.MongoDatabase,
		ConnTimeout:    cfg.MongoConnTimeout,
		QueryTimeout:   cfg.MongoQueryTimeout,
		DisconnTimeout: cfg.MongoDisconnTimeout,
		MinPoolSize:    cfg.MongoMinPoolSize,
		MaxPoolSize:    cfg.MongoMaxPoolSize,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to connect to mongo")
	}
	if err := store.EnsureIndexes(ctx); err != nil {
		log.WithError(err).Fatal("failed to ensure link store indexes")
	}

	verifier := token.New(cfg.JWTSecret)
	alloc := allocator.New(store, allocator.Params{
		InitialLength:   cfg.URLShortCodeLength,
		MaxRetries:      cfg.URLMaxRetries,
		BaseRetryDelay:  allocator.DefaultParams().BaseRetryDelay,
		MaxRetryDelay:   allocator.DefaultParams().MaxRetryDelay,
		LengthGrowEvery: allocator.DefaultParams().LengthGrowEvery,
	})
	authoringService := authoring.New(alloc, store, cfg.URLDefaultTTLDays)

	api := httpapi.NewAuthoringAPI(authoringService, alloc)
	router := httpapi.NewAuthoringRouter(api, verifier, metrics, tracer, httpapi.CORSConfig{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowMethods: cfg.CORSAllowMethods,
		AllowHeaders: cfg.CORSAllowHeaders,
	}, "authoringd")

	addr := ":" + strconv.Itoa(cfg.AppPort)
	srv := server.New(router, addr, 10*time.Second, 10*time.Second, 15*time.Second, log)

	srv.OnShutdown("link store", func(ctx context.Context) error {
		disconnectCtx, cancel := context.WithTimeout(ctx, cfg.MongoDisconnTimeout)
		defer cancel()
		return mongoClient.Disconnect(disconnectCtx)
	})

	if err := srv.Run(); err != nil {
		log.WithError(err).Fatal("authoringd exited with error")
	}
}
