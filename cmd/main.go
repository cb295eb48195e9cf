package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"complaintdesk/backend/internal/api/handler"
	"complaintdesk/backend/internal/attachments"
	"complaintdesk/backend/internal/auth"
	"complaintdesk/backend/internal/complaint"
	"complaintdesk/backend/internal/config"
	"complaintdesk/backend/internal/livehub"
	"complaintdesk/backend/internal/localization"
	"complaintdesk/backend/internal/logger"
	"complaintdesk/backend/internal/storage"
	"complaintdesk/backend/internal/telegram"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupDependencies(ctx context.Context, cfg *config.Config, log *zap.Logger) (*gorm.DB, *redis.Client, error) {
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("postgres handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}

	log.Info("database and redis connections established",
		zap.String("db_host", cfg.Database.Host),
		zap.String("redis_addr", cfg.Redis.Addr),
	)
	return db, rdb, nil
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	zl, err := logger.New(cfg.App.LogLevel, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
	zl.Info("server stopped")
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting complaint desk", zap.String("name", cfg.App.Name), zap.String("environment", cfg.App.Environment))

	db, rdb, err := setupDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer rdb.Close()

	store := storage.NewStorageService(db, rdb)
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	var notifier complaint.Notifier
	if cfg.Telegram.Enabled() {
		bot, err := telegram.NewBot(cfg.Telegram, log)
		if err != nil {
			return err
		}
		loc, err := localization.Default()
		if err != nil {
			return fmt.Errorf("load translations: %w", err)
		}
		formatter := telegram.Formatter{Localizer: loc, Lang: cfg.Notify.Language, Location: time.Local}
		dispatcher := telegram.NewDispatcher(bot, cfg.Telegram.ChatID, formatter, store, cfg.Notify.QueueSize, cfg.Notify.Timeout, log)
		notifier = dispatcher
		g.Go(func() error { return dispatcher.Run(gctx) })
	} else {
		log.Warn("telegram notifications disabled: bot token or chat id missing")
	}

	complaints := complaint.NewService(store, notifier, log)
	authSvc := auth.NewService(cfg.Auth, store)
	if len(cfg.Auth.Admins) == 0 {
		log.Warn("no administrator accounts configured; the admin API is unreachable")
	}

	hub := livehub.NewManagerService(log)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return hub.ListenPubSub(gctx, store.SubscribeEvents(gctx)) })

	h := handler.NewHandler(complaints, authSvc, store, log)
	h.Hub = hub
	h.HealthChecker = store
	h.AllowedOrigins = cfg.HTTP.AllowedOrigins
	if cfg.Storage.Endpoint != "" {
		objects, err := attachments.NewS3Store(cfg.Storage)
		if err != nil {
			return err
		}
		if err := objects.EnsureBucket(ctx); err != nil {
			return err
		}
		h.Uploader = attachments.NewUploader(objects, log)
	} else {
		log.Warn("attachment uploads disabled: storage.endpoint not set")
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	server := &http.Server{
		Addr:           cfg.HTTP.Addr,
		Handler:        handler.NewRouter(h),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	g.Go(func() error {
		log.Info("http server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down http server")
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
