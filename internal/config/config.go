package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Log          LogConfig
	Auth         AuthConfig
	Push         PushConfig
	Notification NotificationConfig
	Realtime     RealtimeConfig
}

type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrateOnStart  bool
}

type LogConfig struct {
	Level string
	Env   string
}

// AuthConfig holds the two credential scopes: the anonymous key handed to
// clients and the service key used by server-side callers such as the
// reminder scheduler. JWTSecret verifies user access tokens.
type AuthConfig struct {
	AnonKey    string
	ServiceKey string
	JWTSecret  string
}

type PushConfig struct {
	GatewayURL string
	// Timeout of zero leaves the HTTP client default in place.
	Timeout time.Duration
}

type NotificationConfig struct {
	ReminderStaleAfter time.Duration
}

type RealtimeConfig struct {
	SubscriberBuffer int
}

// Load reads configuration from the environment. When path is not empty the
// file is read first and environment variables override its values.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 3306)
	v.SetDefault("DB_USER", "seedorders")
	v.SetDefault("DB_PASSWORD", "secret")
	v.SetDefault("DB_NAME", "seedorders")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("DB_MIGRATE_ON_START", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_ENV", "production")
	v.SetDefault("ANON_KEY", "")
	v.SetDefault("SERVICE_ROLE_KEY", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("PUSH_GATEWAY_URL", "https://exp.host/--/api/v2/push/send")
	v.SetDefault("PUSH_GATEWAY_TIMEOUT", "0s")
	v.SetDefault("REMINDER_STALE_AFTER", "10m")
	v.SetDefault("REALTIME_SUBSCRIBER_BUFFER", 64)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	shutdownTimeout, err := time.ParseDuration(v.GetString("SERVER_SHUTDOWN_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("parsing SERVER_SHUTDOWN_TIMEOUT: %w", err)
	}

	connMaxLifetime, err := time.ParseDuration(v.GetString("DB_CONN_MAX_LIFETIME"))
	if err != nil {
		return nil, fmt.Errorf("parsing DB_CONN_MAX_LIFETIME: %w", err)
	}

	pushTimeout, err := time.ParseDuration(v.GetString("PUSH_GATEWAY_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("parsing PUSH_GATEWAY_TIMEOUT: %w", err)
	}

	staleAfter, err := time.ParseDuration(v.GetString("REMINDER_STALE_AFTER"))
	if err != nil {
		return nil, fmt.Errorf("parsing REMINDER_STALE_AFTER: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetInt("SERVER_PORT"),
			ShutdownTimeout: shutdownTimeout,
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: connMaxLifetime,
			MigrateOnStart:  v.GetBool("DB_MIGRATE_ON_START"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
			Env:   v.GetString("LOG_ENV"),
		},
		Auth: AuthConfig{
			AnonKey:    v.GetString("ANON_KEY"),
			ServiceKey: v.GetString("SERVICE_ROLE_KEY"),
			JWTSecret:  v.GetString("JWT_SECRET"),
		},
		Push: PushConfig{
			GatewayURL: v.GetString("PUSH_GATEWAY_URL"),
			Timeout:    pushTimeout,
		},
		Notification: NotificationConfig{
			ReminderStaleAfter: staleAfter,
		},
		Realtime: RealtimeConfig{
			SubscriberBuffer: v.GetInt("REALTIME_SUBSCRIBER_BUFFER"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.AnonKey == "" {
		return fmt.Errorf("ANON_KEY is required")
	}
	if c.Auth.ServiceKey == "" {
		return fmt.Errorf("SERVICE_ROLE_KEY is required")
	}
	if c.Auth.AnonKey == c.Auth.ServiceKey {
		return fmt.Errorf("ANON_KEY and SERVICE_ROLE_KEY must differ")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Notification.ReminderStaleAfter <= 0 {
		return fmt.Errorf("REMINDER_STALE_AFTER must be positive")
	}
	return nil
}

// DSN builds the go-sql-driver/mysql data source name.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&clientFoundRows=true",
		c.User, c.Password, c.Host, c.Port, c.Name,
	)
}
