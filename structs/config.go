package structs

import "time"

type Config struct {
	Server     *ServerConfig
	Cors       *CorsConfig
	Database   *DatabaseConfig
	Cache      *CacheConfig
	Email      *EmailConfig
	Auth       *AuthConfig
	RateLimit  *RateLimitConfig
	Newsletter *NewsletterConfig
}

type ServerConfig struct {
	AppName        string // NewsletterService
	Environment    string // development, production
	Port           string // :8082
	ServerURL      string // public URL of this API
	FrontendURL    string // used to build resubscribe links
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int      // in bytes
	TrustedProxies []string // IPs or CIDRs allowed to set X-Forwarded-For / X-Real-IP
}

type CorsConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int // in seconds
}

type DatabaseConfig struct {
	Driver       string // pgdriver, pgx
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxConns     int
	MinConns     int
	MaxLifetime  time.Duration
	MaxIdleTime  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	SlowQuery    time.Duration
}

type CacheConfig struct {
	Address         string
	Username        string
	Password        string
	DB              int
	PoolSize        int
	MinIdleConns    int
	MaxIdleConns    int
	PoolTimeout     time.Duration
	IdleTimeout     time.Duration
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	MaxRetries      int
	MinRetryBackoff time.Duration
	MaxRetryBackoff time.Duration
	CompanyNameTTL  time.Duration
}

type EmailConfig struct {
	ApiKey       string
	From         string
	SupportEmail string
	SendTimeout  time.Duration
}

type AuthConfig struct {
	AccessTokenSecret string
}

type RateLimitConfig struct {
	Enabled          bool
	NewsletterLimit  int
	NewsletterWindow time.Duration
	GeneralLimit     int
	GeneralWindow    time.Duration
}

type NewsletterConfig struct {
	TokenBytes                int
	DefaultReason             string
	AllowAnonymousUnsubscribe bool
	StrictNotifications       bool
}
