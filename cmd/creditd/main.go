package main

import (
	"context"
	"errors"
	"flag"
	"io"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sketchmakerhq/creditd/internal/config"
	"github.com/sketchmakerhq/creditd/internal/costs"
	"github.com/sketchmakerhq/creditd/internal/credits"
	"github.com/sketchmakerhq/creditd/internal/db"
	creditdhttp "github.com/sketchmakerhq/creditd/internal/http"
	"github.com/sketchmakerhq/creditd/internal/ledger"
	"github.com/sketchmakerhq/creditd/internal/plans"
	"github.com/sketchmakerhq/creditd/internal/settings"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "path to the config file")
	flag.Parse()

	cfg, errLoad := config.Load(*configPath)
	if errLoad != nil {
		log.WithError(errLoad).Fatal("load config")
	}
	setupLogging(cfg.Log)

	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		log.WithError(errOpen).Fatal("open database")
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		log.WithError(errMigrate).Fatal("migrate database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if errRefresh := settings.RefreshDBConfigSnapshot(ctx, conn); errRefresh != nil {
		log.WithError(errRefresh).Fatal("load settings snapshot")
	}

	costTable, errCosts := costs.NewTable(ctx, conn)
	if errCosts != nil {
		log.WithError(errCosts).Fatal("load cost table")
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if errPing := redisClient.Ping(ctx).Err(); errPing != nil {
			log.WithError(errPing).Warn("redis unreachable; config broadcasts disabled")
			redisClient = nil
		}
	}
	notifier := settings.NewNotifier(redisClient)
	notifier.Listen(ctx, func(topic string) {
		if errRefresh := settings.RefreshDBConfigSnapshot(ctx, conn); errRefresh != nil {
			log.WithError(errRefresh).Warn("settings refresh after broadcast failed")
		}
		if errReload := costTable.Reload(ctx); errReload != nil {
			log.WithError(errReload).Warn("cost table reload after broadcast failed")
		}
		log.WithField("topic", topic).Debug("configuration reloaded")
	})

	ledgerStore := ledger.NewStore(conn)
	creditsSvc := credits.NewService(conn, costTable, ledgerStore)
	plansSvc := plans.NewService(conn)

	credits.NewRolloverRunner(creditsSvc).Start(ctx)
	ledger.NewRetentionCleaner(conn).Start(ctx)

	router := creditdhttp.NewRouter(creditdhttp.Deps{
		DB:       conn,
		Credits:  creditsSvc,
		Costs:    costTable,
		Ledger:   ledgerStore,
		Plans:    plansSvc,
		Notifier: notifier,
		JWT:      cfg.JWT,
	})

	server := &nethttp.Server{
		Addr:              cfg.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("creditd listening on %s", cfg.Listen)
		if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, nethttp.ErrServerClosed) {
			log.WithError(errServe).Fatal("http server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
		log.WithError(errShutdown).Warn("graceful shutdown failed")
	}
}

// setupLogging configures logrus output, level and rotation.
func setupLogging(logCfg config.LogConf) {
	level, errParse := log.ParseLevel(logCfg.Level)
	if errParse != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if logCfg.File == "" {
		return
	}
	rotated := &lumberjack.Logger{
		Filename:   logCfg.File,
		MaxSize:    orDefault(logCfg.MaxSizeMB, 100),
		MaxBackups: orDefault(logCfg.MaxBackups, 5),
		MaxAge:     orDefault(logCfg.MaxAgeDays, 30),
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotated))
}

func orDefault(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
