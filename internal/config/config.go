package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	SMTP      SMTPConfig
	Payment   PaymentConfig
	Scheduler SchedulerConfig
	Purge     PurgeConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.Email != ""
}

type PaymentConfig struct {
	MidtransServerKey string
	IsProduction      bool
	FinishRedirectURL string
	// LockTimeout bounds how long a slot stays locked for an unpaid external payment.
	LockTimeout time.Duration
}

type SchedulerConfig struct {
	Enabled     bool
	Spec        string
	LogFilePath string
	LockKey     string
	LockTTL     time.Duration
	// CompletionSeconds is the call duration that completes an appointment on its own.
	CompletionSeconds int64
	// GraceMinutes after the scheduled start before an appointment is settled.
	GraceMinutes int
}

type PurgeConfig struct {
	Topic string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", ""),
			JwtSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "StarBooking"),
		},
		Payment: PaymentConfig{
			MidtransServerKey: getEnv("MIDTRANS_SERVER_KEY", ""),
			IsProduction:      getEnvAsBool("MIDTRANS_IS_PRODUCTION", false),
			FinishRedirectURL: getEnv("PAYMENT_FINISH_URL", "http://localhost:5173/appointments?payment=finished"),
			LockTimeout:       getEnvAsDuration("SLOT_LOCK_TIMEOUT", 10*time.Minute),
		},
		Scheduler: SchedulerConfig{
			Enabled:           getEnvAsBool("SCHEDULER_ENABLED", true),
			Spec:              getEnv("SCHEDULER_SPEC", "@every 1m"),
			LogFilePath:       getEnv("SCHEDULER_LOG_FILE_PATH", "logs/reconciliation.log"),
			LockKey:           getEnv("SCHEDULER_LOCK_KEY", "locks:appointment-reconciliation"),
			LockTTL:           getEnvAsDuration("SCHEDULER_LOCK_TTL", 55*time.Second),
			CompletionSeconds: int64(getEnvAsInt("SCHEDULER_COMPLETION_SECONDS", 300)),
			GraceMinutes:      getEnvAsInt("SCHEDULER_GRACE_MINUTES", 5),
		},
		Purge: PurgeConfig{
			Topic: getEnv("CONVERSATION_PURGE_TOPIC", "PURGE_CONVERSATION"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}
