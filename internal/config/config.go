package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type ErrorPolicy string

const (
	// ErrorPolicySurface reports upstream failures to the caller with a distinct error code.
	ErrorPolicySurface ErrorPolicy = "surface"
	// ErrorPolicySwallow logs upstream failures and answers with an empty success.
	ErrorPolicySwallow ErrorPolicy = "swallow"
)

type Config struct {
	Server       ServerConfig       `envPrefix:"SERVER_"`
	Database     DatabaseConfig     `envPrefix:"DATABASE_"`
	Redis        RedisConfig        `envPrefix:"REDIS_"`
	Kafka        KafkaConfig        `envPrefix:"KAFKA_"`
	Firebase     FirebaseConfig     `envPrefix:"FIREBASE_"`
	Auth         AuthConfig         `envPrefix:"AUTH_"`
	FanOut       FanOutConfig       `envPrefix:"FANOUT_"`
	Notification NotificationConfig `envPrefix:"NOTIFICATION_"`
	ErrorPolicy  ErrorPolicy        `env:"ERROR_POLICY" envDefault:"surface"`
}

type ServerConfig struct {
	Addr          string `env:"ADDR" envDefault:":8080"`
	CORSOrigins   string `env:"CORS_ORIGINS" envDefault:".*"`
	Pprof         bool   `env:"PPROF" envDefault:"false"`
	StatsdAddress string `env:"STATSD_ADDRESS"`
}

type DatabaseConfig struct {
	Hosts    []string `env:"HOSTS" envSeparator:"," envDefault:"localhost:27017"`
	Direct   bool     `env:"DIRECT" envDefault:"true"`
	Username string   `env:"USERNAME"`
	Password string   `env:"PASSWORD"`
	AuthDB   string   `env:"AUTH_DB" envDefault:"admin"`
	Database string   `env:"DATABASE" envDefault:"chat"`
}

type RedisConfig struct {
	// URL enables the fan-out dedup guard, e.g. redis://localhost:6379/0
	URL string `env:"URL"`
}

type KafkaConfig struct {
	Enabled bool     `env:"ENABLED" envDefault:"false"`
	Brokers []string `env:"BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	Topic   string   `env:"TOPIC" envDefault:"chat.fanout"`
	GroupID string   `env:"GROUP_ID" envDefault:"chat-fanout"`
	Version string   `env:"VERSION" envDefault:"2.8.0"`
}

type FirebaseConfig struct {
	ProjectID       string `env:"PROJECT_ID"`
	CredentialsFile string `env:"CREDENTIALS_FILE"`
}

type AuthConfig struct {
	// Provider is one of: firebase, jwt
	Provider  string `env:"PROVIDER" envDefault:"firebase"`
	JWTSecret string `env:"JWT_SECRET"`
	JWTIssuer string `env:"JWT_ISSUER"`
}

type FanOutConfig struct {
	Workers  int           `env:"WORKERS" envDefault:"8"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"30s"`
	DedupTTL time.Duration `env:"DEDUP_TTL" envDefault:"24h"`
	// MaxAttempts bounds how often the worker runs a job that failed with a
	// retryable code before committing past it.
	MaxAttempts  int           `env:"MAX_ATTEMPTS" envDefault:"3"`
	RetryBackoff time.Duration `env:"RETRY_BACKOFF" envDefault:"1s"`
}

type NotificationConfig struct {
	// Provider is one of: fcm, log
	Provider      string `env:"PROVIDER" envDefault:"fcm"`
	TitleTemplate string `env:"TITLE_TEMPLATE" envDefault:"{{.SenderName}} has sent a message on {{.ChannelName}}"`
	// AndroidChannelID is the android notification channel the payload targets,
	// the chat id when empty.
	AndroidChannelID string `env:"ANDROID_CHANNEL_ID"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Errorf("load config: %w", err))
	}
	return cfg
}

func (c *Config) Validate() error {
	switch c.ErrorPolicy {
	case ErrorPolicySurface, ErrorPolicySwallow:
	default:
		return fmt.Errorf("invalid ERROR_POLICY %q", c.ErrorPolicy)
	}
	switch c.Auth.Provider {
	case "firebase":
	case "jwt":
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("AUTH_JWT_SECRET is required for the jwt provider")
		}
	default:
		return fmt.Errorf("invalid AUTH_PROVIDER %q", c.Auth.Provider)
	}
	switch c.Notification.Provider {
	case "fcm", "log":
	default:
		return fmt.Errorf("invalid NOTIFICATION_PROVIDER %q", c.Notification.Provider)
	}
	if c.FanOut.Workers <= 0 {
		return fmt.Errorf("FANOUT_WORKERS must be positive")
	}
	return nil
}
