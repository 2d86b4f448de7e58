package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Freeeeeet/school_scheduler/internal/config"
	"github.com/Freeeeeet/school_scheduler/internal/controller/httpapi"
	"github.com/Freeeeeet/school_scheduler/internal/controller/notify"
	"github.com/Freeeeeet/school_scheduler/internal/cycle"
	"github.com/Freeeeeet/school_scheduler/internal/repository"
	"github.com/Freeeeeet/school_scheduler/internal/service"
	"github.com/Freeeeeet/school_scheduler/internal/tz"
)

// renewalInterval период рассылки напоминаний о продлении
const renewalInterval = 24 * time.Hour

// Run поднимает зависимости и обслуживает HTTP до отмены ctx
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	loc, err := tz.Load(cfg.ReferenceTZ)
	if err != nil {
		return fmt.Errorf("reference timezone: %w", err)
	}

	prices := cycle.DefaultPrices()
	if cfg.PriceTable != "" {
		if prices, err = cycle.ParsePriceTable(cfg.PriceTable); err != nil {
			return fmt.Errorf("price table: %w", err)
		}
	}

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	logger.Info("Connected to database")

	migrator, err := NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		return err
	}
	defer migrator.Close()

	if err := migrator.Run(ctx); err != nil {
		return err
	}

	var notifier service.Notifier = notify.Nop{}
	if cfg.TelegramToken != "" {
		b, err := notify.NewBot(cfg.TelegramToken)
		if err != nil {
			return err
		}
		notifier = notify.NewTelegram(b, loc, logger)
		logger.Info("Telegram notifications enabled")
	}

	// Репозитории
	users := repository.NewUserRepository(pool)
	plans := repository.NewPlanRepository(pool)
	bookings := repository.NewBookingRepository(pool)
	attendance := repository.NewAttendanceRepository(pool)
	templates := repository.NewSlotTemplateRepository(pool)
	store := repository.NewStore(pool)

	// Сервисы
	bookingService := service.NewBookingService(store, users, templates, bookings, notifier, logger)
	attendanceService := service.NewAttendanceService(store, bookings, attendance, users, notifier, logger)
	planService := service.NewPlanService(plans, store, users, prices, loc, notifier, logger)
	availabilityService := service.NewAvailabilityService(users, templates, bookings, attendance, loc, logger)

	scheduler := NewScheduler(planService, renewalInterval, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewRouter(logger, httpapi.Deps{
			Bookings:     bookingService,
			Attendance:   attendanceService,
			Plans:        planService,
			Availability: availabilityService,
			DB:           pool,
			RateLimitRPS: cfg.RateLimitRPS,
		}),
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	return nil
}
