// Command redirectd serves the redirect service's HTTP surface: health,
// short-code resolution, link info, and the dashboard read. Grounded on the
// teacher's services/rest-api-svc/cmd/main.go wiring order (tracing, then
// metrics, then gin router, then route registration), adapted to this
// module's Mongo/Redis/RabbitMQ stack and to the internal/server graceful
// shutdown chain SPEC_FULL.md §5 requires in place of the teacher's bare
// router.Run.
package main

import (
	"context"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/go-systems-lab/shortlink/internal/cache"
	"github.com/go-systems-lab/shortlink/internal/clickingest"
	"github.com/go-systems-lab/shortlink/internal/clickstore"
	"github.com/go-systems-lab/shortlink/internal/config"
	"github.com/go-systems-lab/shortlink/internal/dashboard"
	"github.com/go-systems-lab/shortlink/internal/geoip"
	"github.com/go-systems-lab/shortlink/internal/httpapi"
	"github.com/go-systems-lab/shortlink/internal/keyname"
	"github.com/go-systems-lab/shortlink/internal/linkstore"
	"github.com/go-systems-lab/shortlink/internal/obs"
	"github.com/go-systems-lab/shortlink/internal/redirect"
	"github.com/go-systems-lab/shortlink/internal/rpc"
	"github.com/go-systems-lab/shortlink/internal/server"
	"github.com/go-systems-lab/shortlink/internal/token"
	"github.com/go-systems-lab/shortlink/internal/uaparse"
)

// Version may be overridden at build time via -ldflags.
var Version = "latest"

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	log := logrus.NewEntry(logger)
	log.Info("starting redirectd")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	var tracer *obs.Tracer
	tp, err := obs.InitJaeger(obs.TracingConfig{
		ServiceName:    "redirectd",
		ServiceVersion: Version,
		Environment:    cfg.AppEnv,
		JaegerEndpoint: cfg.JaegerEndpoint,
	})
	if err != nil {
		log.WithError(err).Warn("failed to initialize tracing, continuing without it")
	} else {
		tracer = obs.NewTracer("redirectd")
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

	clicks := clickstore.New(mongoClient.Database(cfg.MongoDatabase))
	if err := clicks.EnsureIndexes(ctx); err != nil {
		log.WithError(err).Fatal("failed to ensure click store indexes")
	}

	redisCache := cache.New(cache.Config{
		Host:         cfg.RedisHost,
		Port:         cfg.RedisPort,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		ConnTimeout:  cfg.RedisConnTimeout,
		MaxRetries:   cfg.RedisMaxRetries,
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
	})
	if err := redisCache.HealthCheck(ctx); err != nil {
		log.WithError(err).Fatal("failed to reach redis")
	}

	rpcClient, err := rpc.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.WithError(err).Fatal("failed to dial rabbitmq")
	}
	if err := rpcClient.DeclareQueue(cfg.QueueDashboardRequest); err != nil {
		log.WithError(err).Fatal("failed to declare dashboard request queue")
	}
	if err := rpcClient.DeclareQueue(cfg.QueueClickEvents); err != nil {
		log.WithError(err).Fatal("failed to declare click events queue")
	}

	names := keyname.New(cfg.AppName)
	geo := geoip.New(redisCache, names, cfg.GeoIPEndpoint, cfg.GeoIPTimeout, cfg.RedisCacheTTL)
	ua := uaparse.New()
	verifier := token.New(cfg.JWTSecret)

	resolver := redirect.New(redisCache, store, names, cfg.RedisCacheTTL, cfg.RedisInvalidationFlagTTL)
	ingestor := clickingest.New(resolver, geo, ua, clicks, rpcClient, cfg.QueueClickEvents, cfg.ClickTrackingTimeout, log.WithField("component", "clickingest"))
	dashboardReader := dashboard.New(redisCache, rpcClient, names, cfg.RedisCacheTTL, cfg.RabbitMQRPCTimeout, cfg.QueueDashboardRequest)

	api := httpapi.NewRedirectAPI(resolver, ingestor, dashboardReader, "redirectd", Version)
	router := httpapi.NewRedirectRouter(api, verifier, metrics, tracer, httpapi.CORSConfig{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowMethods: cfg.CORSAllowMethods,
		AllowHeaders: cfg.CORSAllowHeaders,
	}, "redirectd")

	addr := ":" + strconv.Itoa(cfg.AppPort)
	srv := server.New(router, addr, 10*time.Second, 10*time.Second, 15*time.Second, log)

	srv.OnShutdown("link store", func(ctx context.Context) error {
		disconnectCtx, cancel := context.WithTimeout(ctx, cfg.MongoDisconnTimeout)
		defer cancel()
		return mongoClient.Disconnect(disconnectCtx)
	})
	srv.OnShutdown("cache", func(ctx context.Context) error {
		return redisCache.Close()
	})
	srv.OnShutdown("broker", func(ctx context.Context) error {
		return rpcClient.Close()
	})

	if err := srv.Run(); err != nil {
		log.WithError(err).Fatal("redirectd exited with error")
	}
}
