package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/Gaurav021106/GS-Infra-Estate/config"
	"github.com/Gaurav021106/GS-Infra-Estate/handlers"
	"github.com/Gaurav021106/GS-Infra-Estate/logging"
	"github.com/Gaurav021106/GS-Infra-Estate/mailer"
	"github.com/Gaurav021106/GS-Infra-Estate/media"
	"github.com/Gaurav021106/GS-Infra-Estate/middleware"
	"github.com/Gaurav021106/GS-Infra-Estate/monitor"
	"github.com/Gaurav021106/GS-Infra-Estate/notify"
	"github.com/Gaurav021106/GS-Infra-Estate/routes"
	"github.com/Gaurav021106/GS-Infra-Estate/seo"
	"github.com/Gaurav021106/GS-Infra-Estate/session"
	"github.com/Gaurav021106/GS-Infra-Estate/site"
	"github.com/Gaurav021106/GS-Infra-Estate/store"
	"github.com/Gaurav021106/GS-Infra-Estate/utils"
	"github.com/Gaurav021106/GS-Infra-Estate/views"
	"github.com/Gaurav021106/GS-Infra-Estate/worker"
)

const (
	shutdownTimeout = 30 * time.Second
	monitorInterval = 2 * time.Minute
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func setupIndexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup-indexes",
		Short: "Create the MongoDB indexes and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			client, db, err := config.ConnectDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer disconnect(client, logger)

			if err := config.EnsureIndexes(cmd.Context(), db, logger); err != nil {
				return err
			}
			logger.Info("indexes ready", zap.String("database", cfg.MongoDatabase))
			return nil
		},
	}
}

func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.IsProduction(), verbose)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func loadSite(path string) (*site.Site, error) {
	if path == "" {
		return site.Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading site file: %w", err)
	}
	return site.Parse(data)
}

func disconnect(client *mongo.Client, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		logger.Warn("mongodb disconnect failed", zap.Error(err))
	}
}

func runServe(ctx context.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	siteDef, err := loadSite(cfg.SiteFile)
	if err != nil {
		return err
	}

	client, db, err := config.ConnectDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer disconnect(client, logger)
	logger.Info("mongodb connected", zap.String("database", cfg.MongoDatabase))

	if err := config.EnsureIndexes(ctx, db, logger); err != nil {
		logger.Warn("index setup failed", zap.Error(err))
	}

	rdb := utils.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, caching and sessions degraded", zap.Error(err))
	}
	sessions := session.NewStore(rdb, cfg.SessionSecret, cfg.SessionTTL, cfg.CookieSecure)
	cache := utils.NewCache(rdb, cfg.CacheTTL)

	perf := monitor.New()
	properties := store.NewProperties(db, perf.RecordQuery)
	subscribers := store.NewSubscribers(db, perf.RecordQuery)

	pool := worker.NewPool(worker.Config{
		Workers:    cfg.MediaWorkers,
		QueueSize:  cfg.MediaQueue,
		JobTimeout: cfg.MediaJobTimeout,
	}, logger.Named("worker"))

	uploads := &media.Uploads{Dir: cfg.UploadDir, MaxBytes: cfg.MaxUploadBytes()}
	pipeline := &media.Pipeline{
		Pool:      pool,
		Uploads:   uploads,
		Optimizer: &media.Optimizer{FFmpeg: cfg.FFmpegPath},
		Store:     properties,
		Parallel:  cfg.MediaParallel,
		OnComplete: func(ctx context.Context, id primitive.ObjectID) {
			if err := cache.Invalidate(ctx, handlers.ListingsNamespace); err != nil {
				logger.Warn("cache invalidation failed", zap.String("property", id.Hex()), zap.Error(err))
			}
		},
		Logger: logger.Named("media"),
	}

	sender := mailer.NewResend(cfg.ResendAPIKey, cfg.FromEmail)
	alerts := &notify.Alerts{
		Subscribers: subscribers,
		Sender:      sender,
		Site:        siteDef,
		BaseURL:     cfg.BaseURL,
		Placeholder: cfg.AlertsTo,
		Logger:      logger.Named("alerts"),
	}

	renderer, err := views.New(siteDef, cfg.Phone, cfg.ContactEmail)
	if err != nil {
		return err
	}
	publisher := seo.Publisher{Site: siteDef, BaseURL: cfg.BaseURL, Phone: cfg.Phone, Email: cfg.ContactEmail}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.HTTPErrorHandler = handlers.ErrorHandler(logger, cfg.IsProduction())
	e.IPExtractor = echo.ExtractIPFromXFFHeader()

	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(logger.Named("http")))
	e.Use(middleware.Performance(perf))
	e.Use(middleware.Secure(cfg.IsProduction()))
	e.Use(middleware.Compress())
	e.Use(sessions.Middleware())

	routes.RegisterRoutes(e, routes.Handlers{
		Public:  handlers.NewPublicController(properties, siteDef, publisher, logger),
		API:     handlers.NewAPIController(properties, cache, logger),
		Enquiry: handlers.NewEnquiryController(sender, subscribers, properties, siteDef, cfg.ToEmail, logger),
		Alerts:  handlers.NewAlertsController(subscribers, alerts, logger),
		Auth: handlers.NewAdminAuthController(sessions, sender, siteDef, handlers.AdminCredentials{
			Email:     cfg.AdminEmail,
			Password:  cfg.AdminPassword,
			JWTSecret: cfg.JWTSecret,
			JWTTTL:    cfg.JWTExpiry,
		}, logger),
		Admin: handlers.NewAdminController(handlers.AdminDeps{
			Properties: properties,
			Cache:      cache,
			Uploads:    uploads,
			Media:      pipeline,
			Alerts:     alerts,
			Jobs:       pool,
			Health:     perf,
			Site:       siteDef,
			MaxMB:      cfg.MaxUploadMB,
			Logger:     logger,
		}),
		Health: handlers.NewHealthController(config.Pinger{Client: client}, sessions, logger),
	}, routes.Options{
		JWTSecret:          cfg.JWTSecret,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		UploadDir:          cfg.UploadDir,
		MaxBodyMB:          cfg.MaxUploadMB * 4,
	})

	monitorCtx, cancelMonitor := context.WithCancel(ctx)
	defer cancelMonitor()
	go perf.Run(monitorCtx, monitorInterval, logger.Named("monitor"))

	errc := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", cfg.Addr()), zap.String("env", cfg.Env))
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", zap.Error(err))
	}
	if err := pool.Shutdown(shutdownCtx); err != nil {
		logger.Warn("worker pool did not drain", zap.Error(err))
	}
	return nil
}
