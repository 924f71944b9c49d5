package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"authsvc/docs"
	"authsvc/internal/auth"
	"authsvc/internal/cache"
	"authsvc/internal/config"
	"authsvc/internal/db"
	"authsvc/internal/handler"
	"authsvc/internal/hasher"
	"authsvc/internal/logging"
	"authsvc/internal/repository"
	"authsvc/internal/router"
	"authsvc/internal/service"
)

// @title Auth Service API
// @version 1.0
// @description User signup, login and bearer token identity.
// @host localhost:8080
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.LogLevel)

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestID())

	gormDB, err := db.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		logger.Fatalf("database init: %v", err)
	}

	if cfg.ResetDB {
		logger.Warn("RESET_DB=true detected, dropping all tables")
		if err := db.Reset(gormDB); err != nil {
			logger.Warnf("reset database: %v", err)
		}
	}

	if err := db.Migrate(gormDB); err != nil {
		logger.Fatalf("%v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	credentialRepo := repository.NewCredentialRepository(gormDB)
	transactor := repository.NewTransactor(gormDB)

	// Initialize auth components
	passwordHasher, err := hasher.New(hasher.Options{
		Algorithm:  cfg.HashAlgorithm,
		BcryptCost: cfg.BcryptCost,
		Argon2: hasher.Argon2Params{
			MemoryKiB:   cfg.Argon2MemoryKiB,
			Iterations:  cfg.Argon2Iterations,
			Parallelism: cfg.Argon2Parallelism,
		},
		Concurrency: cfg.HashConcurrency,
	})
	if err != nil {
		logger.Fatalf("hasher init: %v", err)
	}
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	throttle := auth.NewThrottle(auth.NewAttemptStore(cacheClient), cfg.LoginMaxAttempts, cfg.LoginAttemptWindow)

	// Initialize services
	signupService := service.NewSignupService(userRepo, credentialRepo, transactor, passwordHasher, logger, cfg.StoreTimeout)
	authService := service.NewAuthService(userRepo, credentialRepo, passwordHasher, jwtService, throttle, logger, cfg.StoreTimeout)
	identityService := service.NewIdentityService()
	userService := service.NewUserService(userRepo, cacheClient, cfg.StoreTimeout)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(signupService, authService, identityService, logger)
	userHandler := handler.NewUserHandler(userService, logger)

	router.Register(e, cfg, jwtService, authHandler, userHandler)

	addr := ":" + cfg.ServerPort
	go func() {
		logger.WithField("addr", addr).Info("server starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server start: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
}
