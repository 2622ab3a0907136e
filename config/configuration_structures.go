package config

import "github.com/aws/aws-sdk-go-v2/service/s3"

type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	BasePath string `yaml:"base_path"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type S3Config struct {
	Bucket   string `yaml:"bucket"`
	Client   *s3.Client
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
	Local    bool   `yaml:"local"`
}

// JWTConfig описывает параметры выпуска токенов.
// Секреты не хранятся в yaml, они читаются из переменных окружения
// ACCESS_TOKEN_SECRET и REFRESH_TOKEN_SECRET при загрузке конфигурации.
type JWTConfig struct {
	AccessSecret    string `yaml:"-"`
	RefreshSecret   string `yaml:"-"`
	AccessTokenTTL  string `yaml:"access_token_ttl"`
	RefreshTokenTTL string `yaml:"refresh_token_ttl"`
	Issuer          string `yaml:"issuer"`
	AccessAudience  string `yaml:"access_audience"`
	RefreshAudience string `yaml:"refresh_audience"`
}

// AuthConfig описывает политику защиты входа и хранения refresh-токенов
type AuthConfig struct {
	MaxLoginAttempts   int    `yaml:"max_login_attempts"`
	LockoutWindow      string `yaml:"lockout_window"`
	MaxSessionsPerUser int    `yaml:"max_sessions_per_user"`
	SweepInterval      string `yaml:"sweep_interval"`
	BcryptCost         int    `yaml:"-"`
}

// VisionConfig : внешний сервис оценки фотографий товаров
type VisionConfig struct {
	URL     string `yaml:"url"`
	Timeout string `yaml:"timeout"`
}

type WebhookConfig struct {
	URL     string `yaml:"url"`
	Timeout string `yaml:"timeout"`
}

type TTL struct {
	S3AndRedis int `yaml:"s3_and_redis"`
}
