package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultMileageAccrualRate = 0.10
	defaultOrderPageSize      = 10
	defaultGatewayTimeout     = 15 * time.Second
	defaultIamportBaseURL     = "https://api.iamport.kr"
	defaultCORSOrigin         = "http://localhost:3000"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string
	JWTSecret  string

	CORSAllowedOrigin string
	// Requests carrying this key in X-Service-Auth skip rate limiting.
	ServiceAuthKey string

	IamportAPIKey       string
	IamportAPISecret    string
	IamportBaseURL      string
	IamportWebhookToken string
	GatewayTimeout      time.Duration

	// Checkout tuning
	MileageAccrualRate float64
	OrderPageSize      int
	DeliveryAmount     int64
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:              os.Getenv("DB_HOST"),
		DBUser:              os.Getenv("DB_USER"),
		DBPassword:          os.Getenv("DB_PASSWORD"),
		DBName:              os.Getenv("DB_NAME"),
		DBPort:              os.Getenv("DB_PORT"),
		AppPort:             os.Getenv("APP_PORT"),
		AppEnv:              os.Getenv("APP_ENV"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		CORSAllowedOrigin:   envOrDefault("CORS_ALLOWED_ORIGIN", defaultCORSOrigin),
		ServiceAuthKey:      os.Getenv("SERVICE_AUTH_KEY"),
		IamportAPIKey:       os.Getenv("IAMPORT_API_KEY"),
		IamportAPISecret:    os.Getenv("IAMPORT_API_SECRET"),
		IamportBaseURL:      envOrDefault("IAMPORT_BASE_URL", defaultIamportBaseURL),
		IamportWebhookToken: os.Getenv("IAMPORT_WEBHOOK_TOKEN"),
		GatewayTimeout:      envSeconds("GATEWAY_TIMEOUT_SECONDS", defaultGatewayTimeout),
		MileageAccrualRate:  envFloat("MILEAGE_ACCRUAL_RATE", defaultMileageAccrualRate),
		OrderPageSize:       envInt("ORDER_PAGE_SIZE", defaultOrderPageSize),
		DeliveryAmount:      int64(envInt("DELIVERY_AMOUNT", 0)),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			return f
		}
	}
	return def
}

func envSeconds(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return def
}
