package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"projecthub/config"
	_ "projecthub/docs"
	"projecthub/internal/adapters/auth"
	"projecthub/internal/adapters/calendar"
	"projecthub/internal/adapters/email"
	"projecthub/internal/adapters/identity"
	httpdelivery "projecthub/internal/delivery/http"
	"projecthub/internal/delivery/http/controllers"
	"projecthub/internal/delivery/http/middleware"
	"projecthub/internal/repository/postgres"
	"projecthub/internal/services"
)

const (
	serviceTimeout    = 10 * time.Second
	outboxBatchSize   = 50
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
)

// @title ProjectHub API
// @version 1.0
// @description Project collaboration backend: Google sign-in, invite-code
// @description membership, tasks with deadlines, and Google Calendar sync.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	projectRepo := postgres.NewProjectRepository(db)
	invitationRepo := postgres.NewInvitationRepository(db)
	taskRepo := postgres.NewTaskRepository(db)
	eventRepo := postgres.NewTaskCalendarEventRepository(db)
	syncJobRepo := postgres.NewCalendarSyncJobRepository(db)

	// Adapters
	tokenIssuer := auth.NewJWTIssuer(cfg.JWTSecret)
	tokenVerifier := auth.NewJWTVerifier(cfg.JWTSecret)
	identityVerifier, err := identity.NewGoogleVerifier(ctx, cfg.GoogleClientID)
	if err != nil {
		logger.Error("failed to init google identity verifier", "err", err)
		os.Exit(1)
	}
	calendarProvider := calendar.NewGoogleProvider(calendar.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	}, nil)
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:          cfg.SESRegion,
			AccessKeyID:     cfg.SESAccessKeyID,
			SecretAccessKey: cfg.SESSecretKey,
		},
	})
	if err != nil {
		logger.Error("failed to init mailer", "err", err)
		os.Exit(1)
	}

	// The kick channel nudges the outbox worker right after a sync job is
	// enqueued so calendar updates land promptly between cron drains.
	kickCh := make(chan struct{}, 1)
	kick := func() {
		select {
		case kickCh <- struct{}{}:
		default:
		}
	}

	// Services
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer())
	authService := services.NewAuthService(userRepo, identityVerifier, tokenIssuer, cfg.JWTExpiry, calendarProvider, logger, serviceTimeout)
	projectService := services.NewProjectService(projectRepo, userRepo, serviceTimeout)
	invitationService := services.NewInvitationService(invitationRepo, projectRepo, userRepo, emailService, logger, serviceTimeout)
	taskService := services.NewTaskService(taskRepo, projectRepo, userRepo, eventRepo, syncJobRepo, kick, logger, serviceTimeout)
	syncService := services.NewCalendarSyncService(taskRepo, userRepo, eventRepo, syncJobRepo, calendarProvider, logger, serviceTimeout)

	// Outbox worker
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-kickCh:
				if err := syncService.ProcessPending(ctx, outboxBatchSize); err != nil {
					logger.Error("calendar outbox drain failed", "err", err)
				}
			}
		}
	}()

	// Periodic jobs: calendar outbox drain and invitation expiry sweep.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.OutboxDrainSpec, kick); err != nil {
		logger.Error("failed to schedule outbox drain", "err", err)
		os.Exit(1)
	}
	if _, err := scheduler.AddFunc(cfg.InvitationSweepSpec, func() {
		n, err := invitationService.CleanupExpired(ctx)
		if err != nil {
			logger.Error("invitation expiry sweep failed", "err", err)
			return
		}
		if n > 0 {
			logger.Info("expired invitations", "count", n)
		}
	}); err != nil {
		logger.Error("failed to schedule invitation sweep", "err", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// HTTP
	requireAuth := middleware.RequireAuth(tokenVerifier, logger)
	mux := httpdelivery.NewRouter(
		requireAuth,
		controllers.NewAuthController(logger, authService),
		controllers.NewProjectController(logger, projectService, invitationService),
		controllers.NewTaskController(logger, taskService),
	)
	handler := middleware.CORS(cfg.CORSAllowedOrigins, middleware.LoggingMiddleware(logger, mux))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
}
