package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/trailpost/tours-api/internal/payment"
	"github.com/trailpost/tours-api/internal/pkg/mailer"
)

type AppConfig struct {
	API      *APIConfig         `mapstructure:"api"`
	Postgres *PostgresConfig    `mapstructure:"postgres"`
	JWT      *JWTConfig         `mapstructure:"jwt"`
	SMTP     *mailer.SMTPConfig `mapstructure:"smtp"`
	Stripe   *payment.Config    `mapstructure:"stripe"`
}

type APIConfig struct {
	Environment      string `mapstructure:"environment"`
	Host             string `mapstructure:"host"`
	Port             string `mapstructure:"port"`
	BaseURL          string `mapstructure:"base_url"`
	AllowedOrigins   string `mapstructure:"allowed_origins"`
	MaxLoginAttempts int    `mapstructure:"max_login_attempts"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

type JWTConfig struct {
	SigningKey  string `mapstructure:"signing_key"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

// Load reads the YAML file at path and layers environment variables on top.
// Any key can be overridden with an APP_ prefixed variable, e.g.
// APP_POSTGRES_PASSWORD or APP_STRIPE_SECRET_KEY.
func Load(path string) (*AppConfig, error) {
	viper.SetConfigFile(path)
	viper.SetDefault("api.max_login_attempts", 5)

	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("viper.ReadInConfig -> %w", err)
	}

	conf := &AppConfig{}
	if err := viper.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("viper.Unmarshal -> %w", err)
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}

	viper.OnConfigChange(func(e fsnotify.Event) {
		updated := &AppConfig{}
		if err := viper.Unmarshal(updated); err != nil {
			zap.L().Error("failed to reload config", zap.Error(err))
			return
		}

		*conf = *updated
		zap.L().Info("config reloaded", zap.String("file", e.Name))
	})
	viper.WatchConfig()

	return conf, nil
}

func (c *AppConfig) validate() error {
	if c.API == nil || c.API.Port == "" {
		return fmt.Errorf("config is missing api.port")
	}
	if c.JWT == nil || c.JWT.SigningKey == "" {
		return fmt.Errorf("config is missing jwt.signing_key")
	}
	if c.Postgres == nil {
		return fmt.Errorf("config is missing the postgres section")
	}

	return nil
}
