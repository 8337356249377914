package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/diagnosis/frontdesk/pkg/auth"
	"github.com/diagnosis/frontdesk/pkg/config"
	"github.com/diagnosis/frontdesk/pkg/database"
	"github.com/diagnosis/frontdesk/pkg/events"
	"github.com/diagnosis/frontdesk/pkg/logger"
	mw "github.com/diagnosis/frontdesk/pkg/middleware"
	"github.com/diagnosis/frontdesk/services/frontdesk/internal/handlers"
	"github.com/diagnosis/frontdesk/services/frontdesk/internal/mailer"
	"github.com/diagnosis/frontdesk/services/frontdesk/internal/repository"
	"github.com/diagnosis/frontdesk/services/frontdesk/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		logger.Error("Front desk service error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.Database.RunMigrations {
		if err := database.RunMigrations(ctx, pool); err != nil {
			return err
		}
	}

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return err
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATS.Enabled {
		bus, err := events.NewNATSEventBus(cfg.NATS.URL)
		if err != nil {
			return err
		}
		publisher = bus
	}
	defer publisher.Close()

	var mail mailer.Service
	if cfg.Email.DevMode || cfg.Email.MailerSendKey == "" {
		mail = mailer.NewDevMailer()
	} else {
		mail = mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail)
	}

	// Repositories
	store := repository.NewStore(pool)
	employeeRepo := repository.NewEmployeeRepository(pool)
	activityRepo := repository.NewActivityRepository(pool)

	// Services
	audit := service.NewAuditTrail(activityRepo)
	ledger := service.NewRoomLedger(store, audit)
	guestDirectory := service.NewGuestDirectory(store)
	reservationService := service.NewReservationService(store, ledger, audit, publisher, mail, cfg.Hotel)
	occupancyService := service.NewOccupancyService(store, ledger, audit, publisher, cfg.Hotel)
	authService := service.NewAuthService(employeeRepo, audit, cfg.Auth)

	if user, pass := os.Getenv("BOOTSTRAP_ADMIN_USERNAME"), os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"); user != "" && pass != "" {
		if err := authService.EnsureEmployee(ctx, user, pass, "Administrator", auth.RoleAdmin); err != nil {
			return err
		}
	}

	h := handlers.New(guestDirectory, ledger, reservationService, occupancyService, authService,
		cfg.Auth.JWTSecret, cfg.Hotel.Location())

	loginLimiter := mw.NewRateLimiter(rdb, mw.RateLimitConfig{
		Requests: cfg.Auth.LoginMaxAttempts,
		Window:   cfg.Auth.LoginAttemptsSpan,
		KeyFunc:  handlers.LoginRateKeys,
	})
	idempotency := mw.IdempotencyMiddleware(mw.NewRedisIdempotencyStore(rdb), cfg.Redis.IdempotencyTTL)

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("frontdesk"))
	r.Use(mw.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Idempotent-Replayed"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.Health(pool.Ping))

	h.Routes(r, loginLimiter.Middleware(), idempotency)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting front desk service", "port", cfg.Server.Port, "hotel", cfg.Hotel.Name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down front desk service...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
