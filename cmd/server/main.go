package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/heart-disease-api/internal/classifier"
	"github.com/iliyamo/heart-disease-api/internal/config"
	"github.com/iliyamo/heart-disease-api/internal/database"
	"github.com/iliyamo/heart-disease-api/internal/handler"
	"github.com/iliyamo/heart-disease-api/internal/logging"
	"github.com/iliyamo/heart-disease-api/internal/middleware"
	"github.com/iliyamo/heart-disease-api/internal/predictor"
	"github.com/iliyamo/heart-disease-api/internal/queue"
	"github.com/iliyamo/heart-disease-api/internal/repository"
	"github.com/iliyamo/heart-disease-api/internal/router"
	"github.com/iliyamo/heart-disease-api/internal/service"
)

func main() {
	cfg := config.Load()
	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()
	os.Exit(finish(logger, err))
}

// finish logs the outcome of run and flushes the logger before the process
// exits, returning the exit code.
func finish(logger *zap.Logger, err error) int {
	code := 0
	if err != nil {
		logger.Error("server stopped", zap.Error(err))
		code = 1
	} else {
		logger.Info("server stopped")
	}
	_ = logger.Sync()
	return code
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	m, err := classifier.Open(loadCtx, cfg.ModelPath, cfg.ModelURI)
	cancel()
	if err != nil {
		return err
	}
	logger.Info("model loaded", zap.String("version", m.Version()), zap.Float64("threshold", m.Threshold()))

	var (
		audit predictor.Auditor
		store handler.PredictionLister
	)
	if cfg.DatabaseEnabled() {
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return err
		}
		defer db.Close()
		repo := repository.NewPredictionRepo(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		audit, store = repo, repo
		logger.Info("audit store enabled", zap.String("db_host", cfg.DBHost))
	}

	evCfg := config.LoadEventsConfig()
	pub := service.NewPublisher(evCfg, logger)
	defer pub.Close()
	if evCfg.ConsumerEnabled && evCfg.Broker == config.BrokerRabbitMQ {
		go func() {
			if err := queue.StartPredictionConsumer(ctx, evCfg.RabbitURL, evCfg.Queue, evCfg.LogDir, logger.Named("consumer")); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("prediction consumer stopped", zap.Error(err))
			}
		}()
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unavailable, rate limiting and caching disabled")
	} else {
		defer rdb.Close()
	}

	svc := predictor.NewService(m, audit, pub, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(logger))

	router.RegisterRoutes(e,
		handler.NewPredictHandler(svc, m, cfg.BatchMaxSize),
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	)
	router.RegisterOperator(e, handler.NewAuthHandler(cfg), handler.NewPredictionsHandler(store), cfg.JWTSecret)

	addr := ":" + cfg.Port
	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
