package utils

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	RabbitMQ  RabbitMQConfig
	Payment   PaymentConfig
	Session   SessionConfig
	Worker    WorkerConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Name            string
	Port            string
	Debug           bool
	LogPath         string
	ShutdownTimeout time.Duration
	// AllowedOrigins lists CORS origins; empty allows any origin without credentials.
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
	Migrate  bool
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
	PoolSize int
}

type RabbitMQConfig struct {
	URL      string
	Exchange string
}

// PaymentConfig holds the ZaloPay merchant credentials and endpoints.
type PaymentConfig struct {
	AppID         string
	Key1          string
	Key2          string
	AppUser       string
	Endpoint      string
	QueryEndpoint string
	CallbackURL   string
	RedirectURL   string
	BankCode      string
	Timeout       time.Duration
}

type SessionConfig struct {
	ExpiryHours int
}

type WorkerConfig struct {
	SweepInterval     time.Duration
	ReconcileInterval time.Duration
	ReconcileAfter    time.Duration
	ReconcileBatch    int
}

type RateLimitConfig struct {
	RPS     float64
	Burst   int
	// IdleTTL drops a client's bucket after this long without requests.
	IdleTTL time.Duration
}

func LoadConfig() (*Config, error) {
	return LoadConfigFrom(".env")
}

// LoadConfigFrom reads an optional env file, then lets real environment variables override it.
func LoadConfigFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")

	// Set defaults
	v.SetDefault("APP_NAME", "hotel-booking")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIGRATE", true)
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("AMQP_EXCHANGE", "hotel.events")
	v.SetDefault("ZALOPAY_APP_USER", "user123")
	v.SetDefault("ZALOPAY_ENDPOINT", "https://sb-openapi.zalopay.vn/v2/create")
	v.SetDefault("ZALOPAY_QUERY_ENDPOINT", "https://sb-openapi.zalopay.vn/v2/query")
	v.SetDefault("ZALOPAY_BANK_CODE", "zalopayapp")
	v.SetDefault("ZALOPAY_TIMEOUT", "10s")
	v.SetDefault("SESSION_EXPIRY_HOURS", 24)
	v.SetDefault("SWEEP_INTERVAL", "15m")
	v.SetDefault("RECONCILE_INTERVAL", "1m")
	v.SetDefault("RECONCILE_AFTER", "2m")
	v.SetDefault("RECONCILE_BATCH", 50)
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("RATE_LIMIT_IDLE_TTL", "10m")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	v.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:            v.GetString("APP_NAME"),
			Port:            v.GetString("PORT"),
			Debug:           v.GetBool("DEBUG"),
			LogPath:         v.GetString("LOG_PATH"),
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
			AllowedOrigins:  splitList(v.GetString("CORS_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASS"),
			MaxConns: v.GetInt32("DB_MAX_CONNS"),
			Migrate:  v.GetBool("DB_MIGRATE"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			PoolSize: v.GetInt("REDIS_POOL_SIZE"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      v.GetString("AMQP_URL"),
			Exchange: v.GetString("AMQP_EXCHANGE"),
		},
		Payment: PaymentConfig{
			AppID:         v.GetString("ZALOPAY_APP_ID"),
			Key1:          v.GetString("ZALOPAY_KEY1"),
			Key2:          v.GetString("ZALOPAY_KEY2"),
			AppUser:       v.GetString("ZALOPAY_APP_USER"),
			Endpoint:      v.GetString("ZALOPAY_ENDPOINT"),
			QueryEndpoint: v.GetString("ZALOPAY_QUERY_ENDPOINT"),
			CallbackURL:   v.GetString("ZALOPAY_CALLBACK_URL"),
			RedirectURL:   v.GetString("ZALOPAY_REDIRECT_URL"),
			BankCode:      v.GetString("ZALOPAY_BANK_CODE"),
			Timeout:       v.GetDuration("ZALOPAY_TIMEOUT"),
		},
		Session: SessionConfig{
			ExpiryHours: v.GetInt("SESSION_EXPIRY_HOURS"),
		},
		Worker: WorkerConfig{
			SweepInterval:     v.GetDuration("SWEEP_INTERVAL"),
			ReconcileInterval: v.GetDuration("RECONCILE_INTERVAL"),
			ReconcileAfter:    v.GetDuration("RECONCILE_AFTER"),
			ReconcileBatch:    v.GetInt("RECONCILE_BATCH"),
		},
		RateLimit: RateLimitConfig{
			RPS:     v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:   v.GetInt("RATE_LIMIT_BURST"),
			IdleTTL: v.GetDuration("RATE_LIMIT_IDLE_TTL"),
		},
	}

	return config, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
