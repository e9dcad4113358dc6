package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lingo-app/lingo-backend/internal/config"
	"github.com/lingo-app/lingo-backend/internal/database"
	authHandler "github.com/lingo-app/lingo-backend/internal/handler/http/auth"
	callHandler "github.com/lingo-app/lingo-backend/internal/handler/http/call"
	summaryHandler "github.com/lingo-app/lingo-backend/internal/handler/http/summary"
	userHandler "github.com/lingo-app/lingo-backend/internal/handler/http/user"
	"github.com/lingo-app/lingo-backend/internal/handler/ws"
	"github.com/lingo-app/lingo-backend/internal/middleware"
	"github.com/lingo-app/lingo-backend/internal/peer"
	"github.com/lingo-app/lingo-backend/internal/repository/postgres"
	redisRepo "github.com/lingo-app/lingo-backend/internal/repository/redis"
	authService "github.com/lingo-app/lingo-backend/internal/service/auth"
	callService "github.com/lingo-app/lingo-backend/internal/service/call"
	notificationService "github.com/lingo-app/lingo-backend/internal/service/notification"
	summaryService "github.com/lingo-app/lingo-backend/internal/service/summary"
	userService "github.com/lingo-app/lingo-backend/internal/service/user"
	"github.com/lingo-app/lingo-backend/pkg/email"
	"github.com/lingo-app/lingo-backend/pkg/jwt"
	"github.com/lingo-app/lingo-backend/pkg/logger"
	"github.com/lingo-app/lingo-backend/pkg/metrics"
	"github.com/lingo-app/lingo-backend/pkg/push"
)

const gracefulShutdownTimeout = 15 * time.Second

func main() {
	ctx := context.Background()

	cfg := config.Load()

	logger.InitDefault()
	defer logger.Sync()

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
		if len(cfg.JWTSecret) < 32 {
			logger.Fatal("JWT_SECRET must be set and at least 32 characters in production")
		}
	}

	jwtManager := jwt.NewManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	db, err := database.NewDB(ctx, cfg.DBConnString(), nil)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Connected to database", zap.String("host", cfg.DBHost))

	redisClient, err := database.NewRedisClient(&database.RedisConfig{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		PoolSize: 10,
		Timeout:  5 * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr()))

	// Repositories
	callRepo := postgres.NewCallRepository(db.Pool)
	userRepo := postgres.NewUserRepository(db.Pool)
	summaryRepo := postgres.NewSummaryRepository(db.Pool)
	sessionRepo := redisRepo.NewSessionRepository(redisClient)
	presenceRepo := redisRepo.NewPresenceRepository(redisClient)
	pushTokenRepo := redisRepo.NewPushTokenRepository(redisClient)

	// Outbound integrations
	emailSender := newEmailSender(cfg)
	pushProvider := newPushProvider(ctx, cfg)

	broker := peer.NewHTTPBroker(&peer.Config{
		BaseURL: cfg.PeerServerURL,
		Path:    cfg.PeerServerPath,
		Timeout: cfg.PeerTimeout,
	})

	m := metrics.New()

	// Services
	notificationSvc := notificationService.NewService(userRepo, pushTokenRepo, pushProvider)
	hub := ws.NewHub(presenceRepo, m)
	callSvc := callService.NewService(callRepo, broker, hub, cfg.RingTimeout, m, notificationSvc)
	authSvc := authService.NewService(userRepo, sessionRepo, emailSender, jwtManager, cfg.RefreshTokenTTL, cfg.AppURL)
	userSvc := userService.NewService(userRepo)
	summarySvc := summaryService.NewService(summaryRepo, callRepo)

	// Handlers
	authHdlr := authHandler.NewHandler(authSvc)
	callHdlr := callHandler.NewHandler(callRepo)
	summaryHdlr := summaryHandler.NewHandler(summarySvc)
	userHdlr := userHandler.NewHandler(userSvc, notificationSvc, presenceRepo)
	wsHdlr := ws.NewHandler(hub, callSvc)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS())
	router.Use(middleware.Prometheus(m))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "lingo-server",
			"time":    time.Now().UTC(),
		})
	})
	router.GET("/metrics", middleware.MetricsHandler(m))

	requireAuth := middleware.Auth(jwtManager)

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHdlr.Register)
			auth.POST("/login", authHdlr.Login)
			auth.POST("/refresh", authHdlr.Refresh)
			auth.POST("/verify-email", authHdlr.VerifyEmail)
			auth.POST("/forgot-password", authHdlr.ForgotPassword)
			auth.POST("/reset-password", authHdlr.ResetPassword)

			authed := auth.Group("")
			authed.Use(requireAuth)
			{
				authed.POST("/logout", authHdlr.Logout)
				authed.POST("/change-password", authHdlr.ChangePassword)
			}
		}

		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("", userHdlr.List)
			users.GET("/me", userHdlr.Me)
			users.PUT("/me", userHdlr.UpdateProfile)
			users.PUT("/me/security", userHdlr.UpdateSecurity)
			users.GET("/me/notifications", userHdlr.GetNotificationSettings)
			users.PUT("/me/notifications", userHdlr.UpdateNotificationSettings)
			users.POST("/me/devices", userHdlr.RegisterDevice)
			users.DELETE("/me/devices", userHdlr.UnregisterDevice)
			users.GET("/:id", userHdlr.Get)
			users.GET("/:id/presence", userHdlr.GetPresence)
		}

		calls := api.Group("/calls")
		calls.Use(requireAuth)
		{
			calls.GET("", callHdlr.ListCalls)
			calls.GET("/user/:userId", callHdlr.ListUserCalls)
			calls.GET("/user/:userId/contact/:contactId", callHdlr.ListContactCalls)
			calls.GET("/caller/:userId", callHdlr.ListOutgoingCalls)
			calls.GET("/receiver/:userId", callHdlr.ListIncomingCalls)
			calls.GET("/:id", callHdlr.GetCall)
		}

		summaries := api.Group("/summaries")
		summaries.Use(requireAuth)
		{
			summaries.POST("", summaryHdlr.Attach)
			summaries.GET("/call/:callId", summaryHdlr.GetByCall)
		}
	}

	router.GET("/ws", requireAuth, wsHdlr.ServeWS)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // long-lived websocket connections
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// newEmailSender picks SMTP when configured, the logging mock otherwise
func newEmailSender(cfg *config.Config) email.Sender {
	if cfg.SMTPHost == "" {
		logger.Info("SMTP not configured, using mock email sender")
		return &email.MockSender{}
	}
	return email.NewSMTPSender(&email.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
}

// newPushProvider picks FCM when configured, the logging mock otherwise
func newPushProvider(ctx context.Context, cfg *config.Config) push.Provider {
	if cfg.PushProvider != "fcm" {
		logger.Info("Using mock push provider")
		return &push.MockProvider{}
	}
	provider, err := push.NewFCMProvider(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentials)
	if err != nil {
		logger.Fatal("Failed to initialize FCM", zap.Error(err))
	}
	return provider
}
