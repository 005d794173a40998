package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/forgo/tontine/api/internal/config"
	"github.com/forgo/tontine/api/internal/database"
	"github.com/forgo/tontine/api/internal/handler"
	"github.com/forgo/tontine/api/internal/jobs"
	"github.com/forgo/tontine/api/internal/middleware"
	"github.com/forgo/tontine/api/internal/repository"
	"github.com/forgo/tontine/api/internal/service"
	"github.com/forgo/tontine/api/pkg/jwt"
	"github.com/forgo/tontine/api/pkg/logging"
)

func main() {
	// Initialize structured logging
	logging.Setup()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection
	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
	})

	ctx := context.Background()
	if err := db.Connect(ctx); err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	slog.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Database),
	)

	if err := database.EnsureSchema(ctx, db); err != nil {
		slog.Error("failed to apply database schema", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize JWT service
	jwtService, err := jwt.NewService(jwt.Config{
		PrivateKeyPath: cfg.JWT.PrivateKeyPath,
		PublicKeyPath:  cfg.JWT.PublicKeyPath,
		Issuer:         cfg.JWT.Issuer,
		ExpirationMins: cfg.JWT.ExpirationMins,
	})
	if err != nil {
		slog.Error("failed to initialize JWT service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	contributionRepo := repository.NewContributionRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	reliabilityRepo := repository.NewReliabilityRepository(db)

	// Initialize services
	tokenService := service.NewTokenService(service.TokenServiceConfig{
		JWTService: jwtService,
		TokenRepo:  tokenRepo,
	})

	authService := service.NewAuthService(service.AuthServiceConfig{
		UserRepo:     userRepo,
		TokenService: tokenService,
	})

	reliabilityService := service.NewReliabilityService(service.ReliabilityServiceConfig{
		ContributionRepo: contributionRepo,
		UserRepo:         userRepo,
		ReliabilityRepo:  reliabilityRepo,
	})

	groupService := service.NewGroupService(service.GroupServiceConfig{
		GroupRepo:     groupRepo,
		UserRepo:      userRepo,
		Contributions: contributionRepo,
	})

	paymentService := service.NewPaymentService(service.PaymentServiceConfig{
		PaymentRepo: paymentRepo,
	})

	contributionService := service.NewContributionService(service.ContributionServiceConfig{
		ContributionRepo: contributionRepo,
		GroupRepo:        groupRepo,
		Payments:         paymentRepo,
		Scorer:           reliabilityService,
	})

	generatorService := service.NewGeneratorService(service.GeneratorServiceConfig{
		ContributionRepo: contributionRepo,
		GroupRepo:        groupRepo,
	})

	statisticsService := service.NewStatisticsService(service.StatisticsServiceConfig{
		ContributionRepo: contributionRepo,
		GroupRepo:        groupRepo,
	})

	adminUsersService := service.NewAdminUsersService(db, userRepo)

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Rate:   100, // 100 requests per minute
		Window: time.Minute,
		Burst:  20, // Allow bursts up to 20
	})
	defer rateLimiter.Stop()

	// Initialize idempotency store
	idempotencyStore := middleware.NewIdempotencyStore(middleware.IdempotencyConfig{
		TTL:     24 * time.Hour,
		Cleanup: time.Hour,
	})
	defer idempotencyStore.Stop()

	// Background jobs
	if cfg.Jobs.Enabled {
		cycleProcessor := jobs.NewContributionCycleProcessor(generatorService, cfg.Jobs.ContributionInterval, cfg.Jobs.ContributionLookahead)
		cycleProcessor.Start()
		defer cycleProcessor.Stop()

		completionProcessor := jobs.NewGroupCompletionProcessor(groupService, cfg.Jobs.CompletionInterval)
		completionProcessor.Start()
		defer completionProcessor.Stop()
	}

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	groupHandler := handler.NewGroupHandler(groupService)
	contributionHandler := handler.NewContributionHandler(handler.ContributionHandlerConfig{
		Service:    contributionService,
		Generator:  generatorService,
		Statistics: statisticsService,
	})
	paymentHandler := handler.NewPaymentHandler(paymentService)
	reliabilityHandler := handler.NewReliabilityHandler(reliabilityService)
	adminUsersHandler := handler.NewAdminUsersHandler(adminUsersService)
	healthHandler := handler.NewHealthHandler(db)

	// Create router and register routes
	mux := http.NewServeMux()

	// Health and metrics endpoints
	mux.HandleFunc("GET /health", healthHandler.Check)
	mux.HandleFunc("GET /ready", healthHandler.Ready)
	mux.Handle("GET /metrics", middleware.MetricsHandler())

	// Auth endpoints (public)
	mux.HandleFunc("POST /v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /v1/auth/login", authHandler.Login)
	mux.HandleFunc("POST /v1/auth/refresh", authHandler.Refresh)

	// Auth endpoints (protected)
	authMiddleware := middleware.Auth(authService)
	adminMiddleware := middleware.AdminAuth()
	groupAccess := middleware.GroupAccess(groupService)
	mux.Handle("POST /v1/auth/logout", authMiddleware(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("GET /v1/auth/me", authMiddleware(http.HandlerFunc(authHandler.Me)))
	mux.Handle("PATCH /v1/auth/me", authMiddleware(http.HandlerFunc(authHandler.UpdateProfile)))
	mux.Handle("POST /v1/auth/password", authMiddleware(http.HandlerFunc(authHandler.ChangePassword)))

	// Group endpoints
	mux.Handle("GET /v1/groups", authMiddleware(http.HandlerFunc(groupHandler.List)))
	mux.Handle("POST /v1/groups", authMiddleware(http.HandlerFunc(groupHandler.Create)))
	mux.Handle("GET /v1/groups/discover", authMiddleware(http.HandlerFunc(groupHandler.Discover)))
	mux.Handle("GET /v1/groups/{groupId}", authMiddleware(http.HandlerFunc(groupHandler.Get)))
	mux.Handle("PATCH /v1/groups/{groupId}", authMiddleware(http.HandlerFunc(groupHandler.Update)))
	mux.Handle("DELETE /v1/groups/{groupId}", authMiddleware(http.HandlerFunc(groupHandler.Delete)))
	mux.Handle("POST /v1/groups/{groupId}/join", authMiddleware(http.HandlerFunc(groupHandler.Join)))
	mux.Handle("POST /v1/groups/{groupId}/leave", authMiddleware(http.HandlerFunc(groupHandler.Leave)))
	mux.Handle("GET /v1/groups/{groupId}/members", authMiddleware(http.HandlerFunc(groupHandler.GetMembers)))
	mux.Handle("PATCH /v1/groups/{groupId}/members/{userId}/role", authMiddleware(http.HandlerFunc(groupHandler.UpdateMemberRole)))
	mux.Handle("DELETE /v1/groups/{groupId}/members/{userId}", authMiddleware(http.HandlerFunc(groupHandler.RemoveMember)))

	// Contribution endpoints (group-scoped, members only)
	mux.Handle("POST /v1/groups/{groupId}/contributions", authMiddleware(groupAccess(http.HandlerFunc(contributionHandler.Create))))
	mux.Handle("POST /v1/groups/{groupId}/contributions/generate", authMiddleware(groupAccess(http.HandlerFunc(contributionHandler.Generate))))
	mux.Handle("GET /v1/groups/{groupId}/contributions", authMiddleware(groupAccess(http.HandlerFunc(contributionHandler.ListByGroup))))
	mux.Handle("GET /v1/groups/{groupId}/contributions/overdue", authMiddleware(groupAccess(http.HandlerFunc(contributionHandler.ListOverdue))))
	mux.Handle("GET /v1/groups/{groupId}/statistics", authMiddleware(groupAccess(http.HandlerFunc(contributionHandler.Statistics))))

	// Contribution endpoints (id-scoped)
	mux.Handle("GET /v1/contributions/{contributionId}", authMiddleware(http.HandlerFunc(contributionHandler.Get)))
	mux.Handle("POST /v1/contributions/{contributionId}/pay", authMiddleware(http.HandlerFunc(contributionHandler.MarkPaid)))
	mux.Handle("POST /v1/contributions/{contributionId}/penalties", authMiddleware(http.HandlerFunc(contributionHandler.AddPenalty)))
	mux.Handle("POST /v1/contributions/{contributionId}/cancel", authMiddleware(http.HandlerFunc(contributionHandler.Cancel)))
	mux.Handle("GET /v1/me/contributions", authMiddleware(http.HandlerFunc(contributionHandler.ListMine)))

	// Payment endpoints
	mux.Handle("POST /v1/payments", authMiddleware(http.HandlerFunc(paymentHandler.Create)))
	mux.Handle("GET /v1/payments", authMiddleware(http.HandlerFunc(paymentHandler.List)))
	mux.Handle("GET /v1/payments/{paymentId}", authMiddleware(http.HandlerFunc(paymentHandler.Get)))
	mux.Handle("POST /v1/payments/{paymentId}/settle", authMiddleware(http.HandlerFunc(paymentHandler.Settle)))

	// Reliability endpoints
	mux.Handle("GET /v1/me/reliability", authMiddleware(http.HandlerFunc(reliabilityHandler.GetMine)))
	mux.Handle("GET /v1/me/reliability/history", authMiddleware(http.HandlerFunc(reliabilityHandler.GetHistory)))
	mux.Handle("POST /v1/me/reliability/recompute", authMiddleware(http.HandlerFunc(reliabilityHandler.Recompute)))
	mux.Handle("GET /v1/users/{userId}/reliability", authMiddleware(http.HandlerFunc(reliabilityHandler.GetUserScore)))

	// Admin user management endpoints - requires admin role
	mux.Handle("GET /v1/admin/users", authMiddleware(adminMiddleware(http.HandlerFunc(adminUsersHandler.ListUsers))))
	mux.Handle("GET /v1/admin/users/{userId}", authMiddleware(adminMiddleware(http.HandlerFunc(adminUsersHandler.GetUser))))
	mux.Handle("PATCH /v1/admin/users/{userId}/role", authMiddleware(adminMiddleware(http.HandlerFunc(adminUsersHandler.UpdateRole))))
	mux.Handle("PATCH /v1/admin/users/{userId}/kyc", authMiddleware(adminMiddleware(http.HandlerFunc(adminUsersHandler.SetKycVerified))))
	mux.Handle("PATCH /v1/admin/users/{userId}/active", authMiddleware(adminMiddleware(http.HandlerFunc(adminUsersHandler.SetActive))))

	// Apply global middleware
	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.RateLimit(rateLimiter),
		middleware.Idempotency(idempotencyStore),
		middleware.Metrics(mux),
		middleware.Compress,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}
