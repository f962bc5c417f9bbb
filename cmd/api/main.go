// Conference Central API server.
//
// @title Conference Central API
// @version 1.0
// @description Conference organization backend: conferences, sessions, speakers, attendee profiles, wishlists, and announcements.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"confcentral/config"
	_ "confcentral/docs"
	"confcentral/internal/adapters/auth"
	"confcentral/internal/adapters/email"
	"confcentral/internal/cache"
	"confcentral/internal/datastore"
	"confcentral/internal/datastore/memstore"
	httpdelivery "confcentral/internal/delivery/http"
	"confcentral/internal/delivery/http/controllers"
	"confcentral/internal/delivery/http/middleware"
	"confcentral/internal/domain"
	"confcentral/internal/repository/postgres"
	"confcentral/internal/services"
	"confcentral/internal/tasks"
)

const serviceTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := config.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store datastore.Store
	switch cfg.Backend {
	case "postgres":
		db, err := sql.Open("postgres", cfg.DBUrl)
		if err != nil {
			logger.Error("open database", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		docStore := postgres.NewDocStore(db)
		if err := docStore.EnsureSchema(ctx); err != nil {
			logger.Error("ensure schema", "err", err)
			os.Exit(1)
		}
		store = docStore
	default:
		store = memstore.New()
	}
	logger.Info("datastore ready", "backend", cfg.Backend)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.MailProvider,
		FromAddress: cfg.MailFromAddress,
		FromName:    cfg.MailFromName,
		SES: email.SESConfig{
			Region:          cfg.SESRegion,
			AccessKeyID:     cfg.SESAccessKeyID,
			SecretAccessKey: cfg.SESSecretAccessKey,
		},
	})
	if err != nil {
		logger.Error("create mailer", "err", err)
		os.Exit(1)
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)

	appCache := cache.New()

	queue := tasks.NewQueue(logger, cfg.QueueBuffer)
	queue.Register(domain.TaskSendConfirmationEmail, tasks.NewConfirmationEmailHandler(emailService))
	queue.Register(domain.TaskCheckFeaturedSpeaker, tasks.NewFeaturedSpeakerHandler(store, appCache))
	queue.Start(ctx, cfg.QueueWorkers)
	defer queue.Close()

	issuer := auth.NewJWTIssuer(cfg.JWTSecret)
	verifier := auth.NewJWTVerifier(cfg.JWTSecret)
	hasher := auth.NewBcryptCodeHasher(bcrypt.DefaultCost)

	profileService := services.NewProfileService(store, serviceTimeout)
	conferenceService := services.NewConferenceService(store, queue, serviceTimeout)
	sessionService := services.NewSessionService(store, queue, serviceTimeout)
	speakerService := services.NewSpeakerService(store, appCache, serviceTimeout)
	announcementService := services.NewAnnouncementService(store, appCache, serviceTimeout)
	authService := services.NewAuthService(store, emailService, hasher, issuer, serviceTimeout)

	if cfg.AnnouncementInterval > 0 {
		go tasks.RunAnnouncementCron(ctx, announcementService, cfg.AnnouncementInterval, logger)
	}

	mux := httpdelivery.NewRouter(
		controllers.NewConferenceController(logger, conferenceService),
		controllers.NewProfileController(logger, profileService),
		controllers.NewSessionController(logger, sessionService),
		controllers.NewSpeakerController(logger, speakerService),
		controllers.NewAnnouncementController(logger, announcementService),
		controllers.NewAuthController(logger, authService),
		verifier,
		logger,
	)

	var handler http.Handler = mux
	if len(cfg.CORSAllowedOrigins) > 0 {
		handler = middleware.CORS(cfg.CORSAllowedOrigins, handler)
	}
	handler = middleware.LoggingMiddleware(logger, handler)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}
