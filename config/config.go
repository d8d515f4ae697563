package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	AllowedOrigins    string `mapstructure:"ALLOWED_ORIGINS"`

	// MongoDB (payment attempt journal).
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`
	RedisQueueDB   int    `mapstructure:"REDIS_QUEUE_DB"`

	// Booking backend. The slot-block check and the booking endpoint are
	// configured separately because they are served from different hosts.
	BackendBaseURL      string        `mapstructure:"BACKEND_BASE_URL"`
	BookingEndpoint     string        `mapstructure:"BOOKING_ENDPOINT"`
	GatewayBaseURL      string        `mapstructure:"GATEWAY_BASE_URL"`
	HealthCheckURL      string        `mapstructure:"HEALTH_CHECK_URL"`
	HealthCheckInterval time.Duration `mapstructure:"HEALTH_CHECK_INTERVAL"`
	BackendTimeout      time.Duration `mapstructure:"BACKEND_TIMEOUT"`

	// Wizard sessions.
	SessionTTL       time.Duration `mapstructure:"SESSION_TTL"`
	PayLockTTL       time.Duration `mapstructure:"PAY_LOCK_TTL"`
	BusinessTimezone string        `mapstructure:"BUSINESS_TIMEZONE"`

	// Hosted checkout.
	StripeKey          string `mapstructure:"STRIPE_KEY"`
	StripeAPIURL       string `mapstructure:"STRIPE_API_URL"`
	GatewayCurrency    string `mapstructure:"GATEWAY_CURRENCY"`
	CheckoutSuccessURL string `mapstructure:"CHECKOUT_SUCCESS_URL"`
	CheckoutCancelURL  string `mapstructure:"CHECKOUT_CANCEL_URL"`

	// Agreement / notification delivery.
	NotificationURL string `mapstructure:"NOTIFICATION_URL"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "jeffjackson")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_SESSION_DB", 0)
	v.SetDefault("REDIS_QUEUE_DB", 1)
	v.SetDefault("BACKEND_BASE_URL", "http://localhost:8081")
	v.SetDefault("BOOKING_ENDPOINT", "http://localhost:8081/api/public/booking")
	v.SetDefault("GATEWAY_BASE_URL", "http://localhost:8081/api/public/payment")
	v.SetDefault("HEALTH_CHECK_URL", "http://localhost:8081/api/public/health")
	v.SetDefault("HEALTH_CHECK_INTERVAL", 5*time.Minute)
	v.SetDefault("BACKEND_TIMEOUT", 15*time.Second)
	v.SetDefault("SESSION_TTL", 30*time.Minute)
	v.SetDefault("PAY_LOCK_TTL", time.Minute)
	v.SetDefault("BUSINESS_TIMEZONE", "America/New_York")
	v.SetDefault("STRIPE_KEY", "")
	v.SetDefault("STRIPE_API_URL", "")
	v.SetDefault("GATEWAY_CURRENCY", "usd")
	v.SetDefault("CHECKOUT_SUCCESS_URL", "http://localhost:3000/booking/gateway/success")
	v.SetDefault("CHECKOUT_CANCEL_URL", "http://localhost:3000/booking/gateway/cancel")
	v.SetDefault("NOTIFICATION_URL", "")
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// IsDevelopment reports a local setup where any browser origin is accepted.
func IsDevelopment() bool {
	env := GetEnv()
	return env == "development" || env == "local"
}

// Location resolves BUSINESS_TIMEZONE, falling back to UTC.
func Location() *time.Location {
	loc, err := time.LoadLocation(AppConfig.BusinessTimezone)
	if err != nil || AppConfig.BusinessTimezone == "" {
		return time.UTC
	}
	return loc
}
