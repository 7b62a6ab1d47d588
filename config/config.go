package config

import (
	"newsletter_server/structs"
	"sync"
	"time"
)

var (
	configInstance *structs.Config
	configOnce     sync.Once
)

func GetConfig() *structs.Config {
	configOnce.Do(func() {
		configInstance = Load()
	})
	return configInstance
}

// Load reads a fresh configuration from the environment. Most callers want GetConfig.
func Load() *structs.Config {
	return &structs.Config{
		Server: &structs.ServerConfig{
			AppName:        getEnvAsString("APP_NAME", "NewsletterService_no_env"),
			Environment:    getEnvAsString("APP_ENV", "development"),
			Port:           getEnvAsString("APP_PORT", ":8082"),
			ServerURL:      getEnvAsString("SERVER_URL", "http://localhost:8082"),
			FrontendURL:    getEnvAsString("FRONTEND_URL", "http://localhost:3000"),
			ReadTimeout:    getEnvAsTimeDuration("SERVER_READ_TIME_OUT", 15*time.Second),
			WriteTimeout:   getEnvAsTimeDuration("SERVER_WRITE_TIME_OUT", 15*time.Second),
			IdleTimeout:    getEnvAsTimeDuration("SERVER_IDLE_TIME_OUT", 60*time.Second),
			MaxHeaderBytes: getEnvAsInt("SERVER_MAX_HEADER_BYTES", 1<<20), // 1 MB
			TrustedProxies: getEnvAsSlice("SERVER_TRUSTED_PROXIES", nil),
		},
		Cors: &structs.CorsConfig{
			AllowedOrigins:   getEnvAsSlice("CORS_ALLOW_ORIGINS", []string{"http://localhost:3000"}),
			AllowedMethods:   getEnvAsSlice("CORS_ALLOW_METHODS", []string{"GET", "POST", "OPTIONS"}),
			AllowedHeaders:   getEnvAsSlice("CORS_ALLOW_HEADERS", []string{"Origin", "Content-Type", "Accept", "Authorization"}),
			ExposedHeaders:   getEnvAsSlice("CORS_EXPOSED_HEADERS", []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining"}),
			AllowCredentials: getEnvAsBool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           getEnvAsInt("CORS_MAX_AGE", 300),
		},
		Database: &structs.DatabaseConfig{
			Driver:       getEnvAsString("DB_DRIVER", "pgdriver"),
			Host:         getEnvAsString("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnvAsString("DB_USER", "postgres"),
			Password:     getEnvAsString("DB_PASSWORD", "password"),
			Name:         getEnvAsString("DB_NAME", "newsletter_db"),
			SSLMode:      getEnvAsString("DB_SSL_MODE", "disable"),
			MaxConns:     getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:     getEnvAsInt("DB_MIN_CONNS", 2),
			MaxLifetime:  getEnvAsTimeDuration("DB_MAX_LIFETIME", 30*time.Minute),
			MaxIdleTime:  getEnvAsTimeDuration("DB_MAX_IDLE_TIME", 5*time.Minute),
			ReadTimeout:  getEnvAsTimeDuration("DB_READ_TIMEOUT", 5*time.Second),
			WriteTimeout: getEnvAsTimeDuration("DB_WRITE_TIMEOUT", 5*time.Second),
			SlowQuery:    getEnvAsTimeDuration("DB_SLOW_QUERY", time.Second),
		},
		Cache: &structs.CacheConfig{
			Address:         getEnvAsString("CACHE_ADDRESS", "localhost:6379"),
			Username:        getEnvAsString("CACHE_USERNAME", ""),
			Password:        getEnvAsString("CACHE_PASSWORD", ""),
			DB:              getEnvAsInt("CACHE_DB", 0),
			PoolSize:        getEnvAsInt("CACHE_POOL_SIZE", 10),
			MinIdleConns:    getEnvAsInt("CACHE_MIN_IDLE_CONNS", 2),
			MaxIdleConns:    getEnvAsInt("CACHE_MAX_IDLE_CONNS", 5),
			PoolTimeout:     getEnvAsTimeDuration("CACHE_POOL_TIMEOUT", 4*time.Second),
			IdleTimeout:     getEnvAsTimeDuration("CACHE_IDLE_TIMEOUT", 5*time.Minute),
			DialTimeout:     getEnvAsTimeDuration("CACHE_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:     getEnvAsTimeDuration("CACHE_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:    getEnvAsTimeDuration("CACHE_WRITE_TIMEOUT", 3*time.Second),
			MaxRetries:      getEnvAsInt("CACHE_MAX_RETRIES", 3),
			MinRetryBackoff: getEnvAsTimeDuration("CACHE_MIN_RETRY_BACKOFF", 8*time.Millisecond),
			MaxRetryBackoff: getEnvAsTimeDuration("CACHE_MAX_RETRY_BACKOFF", 512*time.Millisecond),
			CompanyNameTTL:  getEnvAsTimeDuration("CACHE_COMPANY_NAME_TTL", 10*time.Minute),
		},
		Email: &structs.EmailConfig{
			ApiKey:       getEnvAsString("EMAIL_API_KEY", ""),
			From:         getEnvAsString("EMAIL_FROM", "newsletter@example.com"),
			SupportEmail: getEnvAsString("EMAIL_SUPPORT", "support@example.com"),
			SendTimeout:  getEnvAsTimeDuration("EMAIL_SEND_TIMEOUT", 10*time.Second),
		},
		Auth: &structs.AuthConfig{
			AccessTokenSecret: getEnvAsString("AUTH_ACCESS_TOKEN_SECRET", "default_access_secret"),
		},
		RateLimit: &structs.RateLimitConfig{
			Enabled:          getEnvAsBool("RATE_LIMIT_ENABLED", true),
			NewsletterLimit:  getEnvAsInt("RATE_LIMIT_NEWSLETTER_LIMIT", 10),
			NewsletterWindow: getEnvAsTimeDuration("RATE_LIMIT_NEWSLETTER_WINDOW", time.Minute),
			GeneralLimit:     getEnvAsInt("RATE_LIMIT_GENERAL_LIMIT", 100),
			GeneralWindow:    getEnvAsTimeDuration("RATE_LIMIT_GENERAL_WINDOW", time.Minute),
		},
		Newsletter: &structs.NewsletterConfig{
			TokenBytes:                getEnvAsInt("NEWSLETTER_TOKEN_BYTES", 32),
			DefaultReason:             getEnvAsString("NEWSLETTER_DEFAULT_REASON", "User requested"),
			AllowAnonymousUnsubscribe: getEnvAsBool("NEWSLETTER_ALLOW_ANONYMOUS_UNSUBSCRIBE", false),
			StrictNotifications:       getEnvAsBool("NEWSLETTER_STRICT_NOTIFICATIONS", true),
		},
	}
}

func GetLogLevel() string {
	if GetConfig().Server.Environment == "production" {
		return "info"
	}
	return "debug"
}
