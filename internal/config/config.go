package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `yaml:"app" mapstructure:"app"`
	Telegram TelegramConfig `yaml:"telegram" mapstructure:"telegram"`
	Signal   SignalConfig   `yaml:"signal" mapstructure:"signal"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Redis    RedisConfig    `yaml:"redis" mapstructure:"redis"`
	Admin    AdminConfig    `yaml:"admin" mapstructure:"admin"`
	Motbot   MotbotConfig   `yaml:"motbot" mapstructure:"motbot"`
}

type AppConfig struct {
	Environment string `yaml:"environment" mapstructure:"environment"`
	Port        string `yaml:"port" mapstructure:"port"`
	LogLevel    string `yaml:"log_level" mapstructure:"log_level"`
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	BotToken string `yaml:"bot_token" mapstructure:"bot_token"`
	Debug    bool   `yaml:"debug" mapstructure:"debug"`
}

// SignalConfig points at a signal-cli-rest-api instance. Receiving uses
// its websocket endpoint, sending its JSON HTTP endpoint.
type SignalConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	APIURL  string `yaml:"api_url" mapstructure:"api_url"`
	Number  string `yaml:"number" mapstructure:"number"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     string `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	DBName   string `yaml:"db_name" mapstructure:"db_name"`
	SSLMode  string `yaml:"ssl_mode" mapstructure:"ssl_mode"`
	MaxConns int    `yaml:"max_conns" mapstructure:"max_conns"`
}

type RedisConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     string `yaml:"port" mapstructure:"port"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

type AdminConfig struct {
	Enabled        bool     `yaml:"enabled" mapstructure:"enabled"`
	Host           string   `yaml:"host" mapstructure:"host"`
	Port           int      `yaml:"port" mapstructure:"port"`
	JWTSecret      string   `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RateLimit      int      `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per minute
}

// MotbotConfig carries the retention-bot site defaults.
type MotbotConfig struct {
	// BaseURL is the public address of the API process, used to build the
	// helpful/unhelpful feedback links embedded in messages.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// SurveyURL is the site feedback survey offered alongside advice.
	// Empty disables the feedback strategy.
	SurveyURL string `yaml:"survey_url" mapstructure:"survey_url"`

	// DispatchSchedule is the cron spec for the intervention dispatcher.
	DispatchSchedule string `yaml:"dispatch_schedule" mapstructure:"dispatch_schedule"`

	// CleanupSchedule is the cron spec for the retention cleanup job.
	CleanupSchedule string `yaml:"cleanup_schedule" mapstructure:"cleanup_schedule"`

	// InterventionRetentionDays is how long terminal interventions are kept.
	InterventionRetentionDays int `yaml:"intervention_retention_days" mapstructure:"intervention_retention_days"`

	// EventRetentionDays is how long observed user events are kept.
	EventRetentionDays int `yaml:"event_retention_days" mapstructure:"event_retention_days"`

	// PredictionChannel is the redis pub/sub channel the predictor feed
	// subscribes to. Empty disables the feed.
	PredictionChannel string `yaml:"prediction_channel" mapstructure:"prediction_channel"`
}

func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Telegram.BotToken = getEnv("TELEGRAM_BOT_TOKEN", config.Telegram.BotToken)
	config.Signal.APIURL = getEnv("SIGNAL_API_URL", config.Signal.APIURL)
	config.Signal.Number = getEnv("SIGNAL_NUMBER", config.Signal.Number)
	config.Database.User = getEnv("DB_USER", config.Database.User)
	config.Database.Password = getEnv("DB_PASSWORD", config.Database.Password)
	config.Database.DBName = getEnv("DB_NAME", config.Database.DBName)
	config.Database.Port = getEnv("DB_PORT", config.Database.Port)
	config.Redis.Password = getEnv("REDIS_PASSWORD", config.Redis.Password)
	config.Admin.JWTSecret = getEnv("ADMIN_JWT_SECRET", config.Admin.JWTSecret)

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Motbot.DispatchSchedule == "" {
		c.Motbot.DispatchSchedule = "*/15 * * * *"
	}
	if c.Motbot.CleanupSchedule == "" {
		c.Motbot.CleanupSchedule = "0 2 * * *"
	}
	if c.Motbot.InterventionRetentionDays == 0 {
		c.Motbot.InterventionRetentionDays = 180
	}
	if c.Motbot.EventRetentionDays == 0 {
		c.Motbot.EventRetentionDays = 90
	}
	if c.Admin.RateLimit == 0 {
		c.Admin.RateLimit = 60
	}
}

func (c *Config) Validate() error {
	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
	}

	if c.Signal.Enabled {
		if c.Signal.APIURL == "" {
			return fmt.Errorf("signal.api_url is required when signal is enabled")
		}
		if c.Signal.Number == "" {
			return fmt.Errorf("signal.number is required when signal is enabled")
		}
	}

	if !c.Telegram.Enabled && !c.Signal.Enabled {
		return fmt.Errorf("at least one delivery channel must be enabled")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}

	if c.Database.Port == "" {
		return fmt.Errorf("database.port is required")
	}

	if c.Database.DBName == "" {
		return fmt.Errorf("database.db_name is required")
	}

	if c.Database.Password == "" {
		return fmt.Errorf("database.password is required")
	}

	if c.Admin.Enabled && c.Admin.JWTSecret == "" {
		return fmt.Errorf("admin.jwt_secret is required when the admin API is enabled")
	}

	if c.App.Environment == "production" && c.Motbot.BaseURL == "" {
		return fmt.Errorf("motbot.base_url is required for production")
	}

	return nil
}

func (c *Config) SafeString() string {
	return fmt.Sprintf(`Config:
		Environment: %s
		Port: %s
		Log Level: %s

		Telegram:
			Enabled: %t
			Bot Token: %s
			Debug: %t

		Signal:
			Enabled: %t
			API URL: %s
			Number: %s

		Database:
			Host: %s:%s
			User: %s
			Database: %s
			SSL Mode: %s
			Max Connections: %d

		Redis:
			Host: %s:%s
			Database: %d

		Motbot:
			Base URL: %s
			Survey URL: %s
			Dispatch Schedule: %s
			Cleanup Schedule: %s
			Intervention Retention: %d days
			Event Retention: %d days
			Prediction Channel: %s
		`,
		c.App.Environment,
		c.App.Port,
		c.App.LogLevel,
		c.Telegram.Enabled,
		maskSecret(c.Telegram.BotToken),
		c.Telegram.Debug,
		c.Signal.Enabled,
		c.Signal.APIURL,
		maskSecret(c.Signal.Number),
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.DBName,
		c.Database.SSLMode,
		c.Database.MaxConns,
		c.Redis.Host,
		c.Redis.Port,
		c.Redis.DB,
		c.Motbot.BaseURL,
		c.Motbot.SurveyURL,
		c.Motbot.DispatchSchedule,
		c.Motbot.CleanupSchedule,
		c.Motbot.InterventionRetentionDays,
		c.Motbot.EventRetentionDays,
		c.Motbot.PredictionChannel,
	)
}

func getEnv(key string, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	return value
}

func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}

	if len(s) <= 8 {
		return "********"
	}

	return s[:4] + "..." + s[len(s)-4:]
}
