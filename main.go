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

	"eventadmission/config"
	"eventadmission/internal/adapters/auth"
	"eventadmission/internal/adapters/email"
	"eventadmission/internal/adapters/notify"
	"eventadmission/internal/adapters/payments"
	"eventadmission/internal/adapters/scoring"
	"eventadmission/internal/adapters/tasks"
	deliveryhttp "eventadmission/internal/delivery/http"
	"eventadmission/internal/delivery/http/controllers"
	"eventadmission/internal/delivery/http/middleware"
	"eventadmission/internal/domain"
	"eventadmission/internal/eligibility"
	"eventadmission/internal/repository/postgres"
	"eventadmission/internal/services"
)

// @title Event Admission API
// @version 1.0
// @description Admission, reservation, and questionnaire API for community events.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("ping database", "err", err)
		os.Exit(1)
	}

	// Repositories
	eventRepo := postgres.NewEventRepository(db)
	orgRepo := postgres.NewOrganizationRepository(db)
	userRepo := postgres.NewUserRepository(db)
	invitationRepo := postgres.NewInvitationRepository(db)
	tierRepo := postgres.NewTicketTierRepository(db)
	ticketRepo := postgres.NewTicketRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	rsvpRepo := postgres.NewEventRSVPRepository(db)
	waitlistRepo := postgres.NewWaitlistRepository(db)
	attendeeRepo := postgres.NewAttendeeRepository(db)
	questionnaireRepo := postgres.NewQuestionnaireRepository(db)
	reservationRepo := postgres.NewReservationRepository(db)

	// Outbound adapters
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
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

	var notifier domain.Notifier
	if cfg.EmailProvider == "noop" {
		notifier = notify.NewLogNotifier(logger)
	} else {
		notifier = notify.NewEmailNotifier(mailer, userRepo, logger, cfg.BaseURL)
	}

	var gateway domain.PaymentGateway
	if cfg.PaymentsBaseURL != "" {
		gateway = payments.NewHTTPGateway(nil, cfg.PaymentsBaseURL, cfg.PaymentsAPIKey)
	} else {
		gateway = payments.NewNoopGateway()
	}

	var scorer domain.FreeTextScorer
	if cfg.ScoringBaseURL != "" {
		scorer = scoring.NewHTTPScorer(nil, cfg.ScoringBaseURL)
	} else {
		scorer = scoring.NewPendingScorer()
	}

	queue := tasks.NewRunner(logger, cfg.TaskBuffer, cfg.TaskMaxRetries, cfg.TaskBackoff)
	queue.Start(cfg.TaskWorkers)
	defer queue.Stop()

	// Admission pipeline and services
	snapshots := services.NewSnapshotReader(eventRepo, orgRepo, invitationRepo, attendeeRepo, tierRepo, questionnaireRepo)
	pipeline := eligibility.NewPipeline()

	eligibilitySvc := services.NewEligibilityService(snapshots, pipeline)
	reservationSvc := services.NewReservationService(
		eventRepo, tierRepo, ticketRepo, paymentRepo, rsvpRepo, waitlistRepo, reservationRepo,
		snapshots, pipeline, gateway, notifier, logger,
		cfg.ClaimWindow, cfg.PendingPaymentWindow,
	)
	evaluator := services.NewEvaluator(questionnaireRepo, scorer, notifier, logger)
	questionnaireSvc := services.NewQuestionnaireService(questionnaireRepo, orgRepo, evaluator, queue, notifier, logger)
	eventSvc := services.NewEventService(eventRepo, orgRepo, tierRepo, invitationRepo, attendeeRepo, userRepo, mailer, notifier)
	authSvc := services.NewAuthService(userRepo, invitationRepo, auth.NewBcryptHasher(bcrypt.DefaultCost), auth.NewJWTIssuer(cfg.JWTSecret), cfg.TokenExpiry)

	// HTTP delivery
	verifier := auth.NewJWTVerifier(cfg.JWTSecret)
	requireAuth := middleware.RequireAuth(verifier, logger)

	mux := deliveryhttp.NewRouter(
		requireAuth,
		controllers.NewAuthController(logger, authSvc),
		controllers.NewEventController(logger, eventSvc),
		controllers.NewEligibilityController(logger, eligibilitySvc),
		controllers.NewReservationController(logger, reservationSvc),
		controllers.NewQuestionnaireController(logger, questionnaireSvc),
	)

	handler := middleware.CORS(cfg.AllowedOrigins, middleware.LoggingMiddleware(logger, mux))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Periodic sweep keeps waitlist offers and pending payments moving even
	// when no request traffic triggers a cascade.
	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := reservationSvc.SweepExpirations(context.Background()); err != nil {
					logger.Error("sweep expirations", "err", err)
				}
			}
		}
	}()

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}
