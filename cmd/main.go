package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resale-pricing-server/config"
	_ "resale-pricing-server/docs"
	"resale-pricing-server/internal/handler"
	"resale-pricing-server/internal/notifier"
	"resale-pricing-server/internal/repository"
	"resale-pricing-server/internal/security"
	"resale-pricing-server/internal/service"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Resale-pricing-server
// @version 1.0
// @description REST API для оценки стоимости товаров по фотографиям

// @host localhost:8080

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	db, err := config.SetupDatabase(cfg.DatabaseConfig.DSN)
	if err != nil {
		log.Fatalf("Не удалось подключиться к БД: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Ошибка при закрытии БД: %v", err)
		}
	}()

	redisClient, err := config.SetupRedis(&cfg.RedisConfig)
	if err != nil {
		log.Fatalf("Ошибка подключения к Redis: %v", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Printf("Ошибка при закрытии Redis: %v", err)
		}
	}()

	srv, router := config.SetupServer(cfg.ServerAddr)

	lockoutWindow, err := time.ParseDuration(cfg.Auth.LockoutWindow)
	if err != nil {
		log.Fatalf("Некорректное значение lockout_window: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	attemptRepo := repository.NewLoginAttemptRepository(redisClient, cfg.Auth.MaxLoginAttempts, lockoutWindow)
	listingRepo := repository.NewListingRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, time.Duration(cfg.TTL.S3AndRedis)*time.Second)

	s3Service, err := service.NewS3Service(ctx, &cfg.S3Config)
	if err != nil {
		log.Fatalf("Ошибка создания S3 сервиса: %v", err)
	}
	visionClient, err := notifier.NewVisionClient(&cfg.Vision)
	if err != nil {
		log.Fatalf("Ошибка создания vision клиента: %v", err)
	}
	listingService := service.NewListingService(listingRepo, cacheRepo, s3Service, visionClient, time.Duration(cfg.TTL.S3AndRedis)*time.Second)

	jwtService := security.NewJWTService(&cfg.JWT)
	rotationService := service.NewRotationService(refreshTokenRepo, cfg.Webhook.URL)
	authService := service.NewAuthenticationService(refreshTokenRepo, cfg, jwtService, userRepo, attemptRepo, rotationService)
	userService := service.NewUserService(userRepo, authService, &cfg.Auth)

	authHandler := handler.NewAuthenticationHandler(authService, &cfg.JWT)
	userHandler := handler.NewUserHandler(userService)
	listingHandler := handler.NewListingHandler(listingService)

	router.Get("/swagger/*", httpSwagger.WrapHandler)

	setupAuthRoutes(router, authHandler, jwtService)
	setupUserRoutes(router, userHandler)
	setupListingRoutes(router, listingHandler, jwtService)

	runExpirySweeper(ctx, refreshTokenRepo, cfg.Auth.SweepInterval)

	runServer(ctx, srv)
}

func setupAuthRoutes(r chi.Router, h *handler.AuthenticationHandler, jwtService *security.JWTService) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(security.JWTMiddleware(jwtService))
			r.Get("/me", h.GetCurrentUsersUUID)
			r.Head("/me", h.GetCurrentUsersUUID)
			r.Post("/logout-all", h.LogoutAll)
		})
		r.Group(func(r chi.Router) {
			r.Post("/", h.Login)
			r.Post("/refresh", h.RefreshToken)
			r.Post("/logout", h.Logout)
		})
	})
}

func setupUserRoutes(r chi.Router, h *handler.UserHandler) {
	r.Post("/api/register", h.RegisterUser)
}

func setupListingRoutes(r chi.Router, h *handler.ListingHandler, jwtService *security.JWTService) {
	r.Route("/api/listings", func(r chi.Router) {
		r.Use(security.JWTMiddleware(jwtService))
		r.Get("/", h.ListListings)
		r.Post("/", h.CreateListing)

		r.Route("/{listing_id}", func(r chi.Router) {
			r.Get("/", h.GetListing)
			r.Post("/appraise", h.RequestAppraisal)
		})
	})
}

// runExpirySweeper запускает периодическое удаление просроченных refresh
// токенов. Чистка идёт отдельными запросами и не держит блокировок,
// мешающих обработке ротаций
func runExpirySweeper(ctx context.Context, repo *repository.RefreshTokenRepository, interval string) {
	sweepInterval, err := time.ParseDuration(interval)
	if err != nil {
		log.Fatalf("Некорректное значение sweep_interval: %v", err)
	}

	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				deleted, err := repo.DeleteExpired(ctx)
				if err != nil {
					log.Printf("ошибка чистки просроченных токенов: %v", err)
					continue
				}
				if deleted > 0 {
					log.Printf("удалено %d просроченных refresh токенов", deleted)
				}
			}
		}
	}()
}

func runServer(ctx context.Context, server *http.Server) {
	serverErrors := make(chan error, 1)
	go func() {
		log.Println("сервер запущен на " + server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil {
			log.Fatalf("ошибка работы сервера: %v", err)
		}
	case sig := <-signalChannel:
		log.Printf("получен сигнал %v остановки работы сервера ", sig)
	}

	shutDownCtx, shutDownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutDownCancel()

	if err := server.Shutdown(shutDownCtx); err != nil {
		log.Printf("ошибка при остановке сервера: %v", err)
	} else {
		log.Println("Сервер успешно остановлен")
	}
}
