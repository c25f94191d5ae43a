package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"eventtickets/config"
	authadapter "eventtickets/internal/adapters/auth"
	"eventtickets/internal/adapters/email"
	"eventtickets/internal/adapters/identity"
	"eventtickets/internal/adapters/publish"
	delivery "eventtickets/internal/delivery/http"
	"eventtickets/internal/delivery/http/controllers"
	"eventtickets/internal/delivery/http/middleware"
	"eventtickets/internal/domain"
	"eventtickets/internal/queue"
	"eventtickets/internal/repository/postgres"
	"eventtickets/internal/services"
)

// @title Event Tickets API
// @version 1.0
// @description Multi-tenant event and ticketing backend.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	// Repositories
	eventRepo := postgres.NewEventRepository(db)
	ticketTypeRepo := postgres.NewTicketTypeRepository(db)
	registrationRepo := postgres.NewRegistrationRepository(db)
	userRepo := postgres.NewUserRepository(db)

	// Adapters
	hasher := authadapter.NewBcryptHasher(10)
	tokenIssuer := authadapter.NewJWTIssuer(cfg.JWTSecret)
	tokenVerifier := authadapter.NewJWTVerifier(cfg.JWTSecret)
	membership := identity.NewHTTPVerifier(cfg.IdentityBaseURL, nil)

	var publisher domain.FactPublisher
	if cfg.AMQPUrl != "" {
		p, closePublisher, err := publish.NewAMQPPublisher(cfg.AMQPUrl, cfg.AMQPExchange)
		if err != nil {
			log.Fatalf("connect publisher: %v", err)
		}
		defer closePublisher()
		publisher = p
	} else {
		logger.Warn("AMQP_URL not set, facts will not be published")
		publisher = publish.NewNoopPublisher()
	}

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
		log.Fatalf("create mailer: %v", err)
	}

	// Services
	authService := services.NewAuthService(userRepo, hasher, tokenIssuer, cfg.TokenExpiry)
	eventService := services.NewEventService(eventRepo, ticketTypeRepo, membership, publisher, services.EventPolicy{
		RequireTicketTypesToPublish: cfg.RequireTicketTypesToPublish,
	}, logger)
	ticketTypeService := services.NewTicketTypeService(eventRepo, ticketTypeRepo, membership)
	registrationService := services.NewRegistrationService(eventRepo, registrationRepo, membership, publisher, logger)
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer())

	// Background notification consumer
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.AMQPUrl != "" {
		consumer := &queue.NotificationConsumer{
			URL:          cfg.AMQPUrl,
			Exchange:     cfg.AMQPExchange,
			EmailService: emailService,
			Logger:       logger,
		}
		go func() {
			if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("notification consumer stopped", "err", err)
			}
		}()
	}

	// HTTP
	authController := controllers.NewAuthController(logger, authService)
	eventController := controllers.NewEventController(logger, eventService)
	ticketTypeController := controllers.NewTicketTypeController(logger, ticketTypeService)
	registrationController := controllers.NewRegistrationController(logger, registrationService)
	requireAuth := middleware.RequireAuth(tokenVerifier, logger)

	mux := delivery.NewRouter(authController, eventController, ticketTypeController, registrationController, requireAuth)
	handler := middleware.CORS(cfg.AllowedOrigins, middleware.LoggingMiddleware(logger, mux))

	server := &http.Server{Addr: ":" + cfg.Port, Handler: handler}
	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server: %v", err)
	}
}
