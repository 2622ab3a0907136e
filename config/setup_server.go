package config

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	DatabaseConfig DatabaseConfig `yaml:"databaseConfig"`
	RedisConfig    RedisConfig    `yaml:"redisConfig"`
	ServerAddr     string         `yaml:"serverAddr"`
	S3Config       S3Config       `yaml:"s3Config"`
	JWT            JWTConfig      `yaml:"jwt"`
	Auth           AuthConfig     `yaml:"auth"`
	Vision         VisionConfig   `yaml:"vision"`
	Webhook        WebhookConfig  `yaml:"webhook"`
	TTL            TTL            `yaml:"TTL"`
}

// LoadConfig читает yaml-файл и секреты из окружения.
// Сервис не должен стартовать без секретов подписи токенов и cost-фактора
// хэширования, поэтому при их отсутствии возвращается ошибка, а не дефолт.
func LoadConfig(path string) (*AppConfig, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, err
	}

	cfg.JWT.AccessSecret = os.Getenv("ACCESS_TOKEN_SECRET")
	cfg.JWT.RefreshSecret = os.Getenv("REFRESH_TOKEN_SECRET")

	bcryptCost := os.Getenv("BCRYPT_COST")
	if bcryptCost != "" {
		cost, err := strconv.Atoi(bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("некорректное значение BCRYPT_COST: %w", err)
		}
		cfg.Auth.BcryptCost = cost
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate проверяет обязательные параметры при старте сервиса
func (cfg *AppConfig) Validate() error {
	if cfg.JWT.AccessSecret == "" {
		return fmt.Errorf("не задан ACCESS_TOKEN_SECRET")
	}
	if cfg.JWT.RefreshSecret == "" {
		return fmt.Errorf("не задан REFRESH_TOKEN_SECRET")
	}
	if cfg.JWT.AccessSecret == cfg.JWT.RefreshSecret {
		return fmt.Errorf("секреты access и refresh токенов должны отличаться")
	}
	if cfg.Auth.BcryptCost == 0 {
		return fmt.Errorf("не задан BCRYPT_COST")
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "resale-pricing-server"
	}
	if cfg.JWT.AccessAudience == "" {
		cfg.JWT.AccessAudience = "resale-api"
	}
	if cfg.JWT.RefreshAudience == "" {
		cfg.JWT.RefreshAudience = "resale-refresh"
	}
	if cfg.Auth.MaxLoginAttempts == 0 {
		cfg.Auth.MaxLoginAttempts = 5
	}
	if cfg.Auth.LockoutWindow == "" {
		cfg.Auth.LockoutWindow = "15m"
	}
	if cfg.Auth.MaxSessionsPerUser == 0 {
		cfg.Auth.MaxSessionsPerUser = 5
	}
	if cfg.Auth.SweepInterval == "" {
		cfg.Auth.SweepInterval = "1h"
	}
	return nil
}

func SetupServer(serverAddress string) (*http.Server, *chi.Mux) {
	router := chi.NewRouter()
	server := &http.Server{
		Addr:    serverAddress,
		Handler: router,
	}

	return server, router
}

func SetupDatabase(dsn string) (*Database, error) {
	return NewDatabaseConnection("postgres", dsn)
}

func SetupRedis(cfg *RedisConfig) (*RedisClient, error) {
	return NewRedisClient(cfg)
}
