package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/api"
	"github.com/Freeeeeet/counseling_scheduler/internal/app"
	"github.com/Freeeeeet/counseling_scheduler/internal/config"
	"github.com/Freeeeeet/counseling_scheduler/internal/controller"
	"github.com/Freeeeeet/counseling_scheduler/internal/dispatch"
	"github.com/Freeeeeet/counseling_scheduler/internal/meeting"
	"github.com/Freeeeeet/counseling_scheduler/internal/mw"
	"github.com/Freeeeeet/counseling_scheduler/internal/notice"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository"
	"github.com/Freeeeeet/counseling_scheduler/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	shutdownTimeout   = 10 * time.Second
	limiterSweepEvery = time.Minute
	readHeaderTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	logger.Info("Starting counseling scheduler",
		zap.String("environment", cfg.Environment),
		zap.String("http_addr", cfg.HTTPAddr),
		zap.String("timezone", cfg.Timezone),
		zap.Bool("telegram_enabled", cfg.TelegramToken != ""),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Service stopped with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("👋 Service stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// База данных и миграции
	pool, err := app.NewPool(ctx, cfg.DBDSN, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, logger)
	if err != nil {
		return err
	}
	if err := migrator.Run(ctx); err != nil {
		migrator.Close()
		return err
	}
	migrator.Close()

	requests := repository.NewRequestRepository(pool)
	var directory service.Directory = repository.NewUserRepository(pool)
	if cfg.DirectoryCacheTTL > 0 {
		directory = repository.NewCachedDirectory(directory, cfg.DirectoryCacheTTL)
	}

	// Уведомления
	offices, err := notice.LoadOffices(cfg.OfficesFile)
	if err != nil {
		return err
	}
	if cfg.DefaultOffice != "" {
		offices.Default = cfg.DefaultOffice
	}
	composer := notice.NewComposer(offices)

	senders := []dispatch.Sender{dispatch.NewLogDispatcher(logger)}
	var tgBot *bot.Bot
	if cfg.TelegramToken != "" {
		tgBot, err = bot.New(cfg.TelegramToken)
		if err != nil {
			return fmt.Errorf("create telegram bot: %w", err)
		}
		senders = append(senders, dispatch.NewTelegramDispatcher(tgBot, logger))
	}
	dispatcher := dispatch.NewFanout(logger, senders...)

	provisioner, err := meeting.NewJitsiProvisioner(cfg.MeetingBaseURL, cfg.MeetingRoomPrefix, logger)
	if err != nil {
		return err
	}

	// Сервисы
	engine := service.NewLifecycleEngine(requests, directory, provisioner, dispatcher, composer, logger,
		service.WithLocation(loc),
		service.WithProvisionTimeout(cfg.ProvisionTimeout),
	)
	defer engine.Wait()

	projector := service.NewCalendarProjector(requests, directory, logger,
		service.WithProjectorLocation(loc),
	)

	// Фоновые задачи
	limiter := mw.NewIPRateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	scheduler := app.NewScheduler(engine, cfg.AutoCompleteInterval, logger)
	scheduler.Every("rate-limiter-sweep", limiterSweepEvery, func(context.Context) {
		if n := limiter.Sweep(); n > 0 {
			logger.Debug("Idle rate limiters removed", zap.Int("count", n))
		}
	})
	if cfg.DigestEnabled() {
		digest := app.NewDailyDigest(projector, directory, dispatcher, logger)
		if err := scheduler.Cron("daily-digest", cfg.DigestCron, digest.Run); err != nil {
			return err
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	relay := app.NewChangeRelay(requests, requests, directory, dispatcher, logger)
	go relay.Run(ctx)

	// Telegram бот консультантов
	if tgBot != nil {
		botController := controller.NewBotController(tgBot, engine, projector, directory, logger)
		if err := botController.RegisterHandlers(ctx); err != nil {
			logger.Warn("Bot commands menu not set", zap.Error(err))
		}
		go botController.Start(ctx)
	}

	// HTTP API
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := api.NewHandler(engine, projector, offices.Default, logger)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(handler, limiter, logger),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
