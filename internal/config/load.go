// Package config loads service settings from file, .env and environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"cvereporter/internal/db"
	cverrors "cvereporter/internal/errors"
	"cvereporter/internal/notify"
)

// EnvPrefix prefixes every environment override, e.g. CVEREPORTER_FEED_LIMIT.
const EnvPrefix = "CVEREPORTER"

// Config is the typed view of the loaded settings.
type Config struct {
	Interval     time.Duration
	RunOnStart   bool
	KeywordsFile string

	FeedURL     string
	FeedLimit   int
	FeedTimeout time.Duration
	FeedRetries int

	StoreType string
	StorePath string
	StoreDSN  string
	Redis     db.RedisConfig

	MetricsPort int
	LogFile     string
	Verbose     bool

	Notifications notify.Config
}

// Load initializes the configuration from file and environment variables.
// A missing default config file is not an error; a missing explicit one is.
func Load(cfgFile string) error {
	// .env is optional
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Credentials keep the names the reporter has always used.
	_ = viper.BindEnv("notifications.slack.webhook_url", "SLACK_WEBHOOK")
	_ = viper.BindEnv("notifications.slack.bot_token", "SLACK_BOT_USER_TOKEN")
	_ = viper.BindEnv("notifications.discord.webhook_url", "DISCORD_WEBHOOK_URL")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return cverrors.NewConfigurationError("config", "cannot read config file", err)
		}
	} else {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("interval", "5m")
	viper.SetDefault("polling.run_on_start", true)
	viper.SetDefault("keywords_file", "config/keywords.yaml")

	viper.SetDefault("feed.url", "https://cve.circl.lu/api/query")
	viper.SetDefault("feed.limit", 100)
	viper.SetDefault("feed.timeout", "30s")
	viper.SetDefault("feed.retries", 3)

	viper.SetDefault("store.type", "file")
	viper.SetDefault("store.path", "")
	viper.SetDefault("store.dsn", "")
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("metrics_port", 2112)
	viper.SetDefault("log_file", "cve_reporter.log")
	viper.SetDefault("verbose", false)

	// Notification Defaults
	viper.SetDefault("notifications.slack.enabled", os.Getenv("SLACK_WEBHOOK") != "" || os.Getenv("SLACK_BOT_USER_TOKEN") != "")
	viper.SetDefault("notifications.slack.channel", "#general")
	viper.SetDefault("notifications.discord.enabled", os.Getenv("DISCORD_WEBHOOK_URL") != "")
}

// Get returns the typed configuration from the current viper state.
func Get() Config {
	return Config{
		Interval:     duration("interval"),
		RunOnStart:   viper.GetBool("polling.run_on_start"),
		KeywordsFile: viper.GetString("keywords_file"),

		FeedURL:     viper.GetString("feed.url"),
		FeedLimit:   viper.GetInt("feed.limit"),
		FeedTimeout: duration("feed.timeout"),
		FeedRetries: viper.GetInt("feed.retries"),

		StoreType: strings.ToLower(viper.GetString("store.type")),
		StorePath: viper.GetString("store.path"),
		StoreDSN:  viper.GetString("store.dsn"),
		Redis: db.RedisConfig{
			Address:  viper.GetString("redis.address"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},

		MetricsPort: viper.GetInt("metrics_port"),
		LogFile:     viper.GetString("log_file"),
		Verbose:     viper.GetBool("verbose"),

		Notifications: notify.Config{
			SlackEnabled:      viper.GetBool("notifications.slack.enabled"),
			SlackWebhookURL:   viper.GetString("notifications.slack.webhook_url"),
			SlackBotToken:     viper.GetString("notifications.slack.bot_token"),
			SlackChannel:      viper.GetString("notifications.slack.channel"),
			DiscordEnabled:    viper.GetBool("notifications.discord.enabled"),
			DiscordWebhookURL: viper.GetString("notifications.discord.webhook_url"),
		},
	}
}

// StoreConfig selects the watermark backend.
func (c Config) StoreConfig() db.StoreConfig {
	conn := c.StorePath
	if c.StoreType == "postgres" || c.StoreType == "postgresql" {
		conn = c.StoreDSN
	}
	return db.StoreConfig{Type: c.StoreType, ConnectionString: conn, Redis: c.Redis}
}

// duration reads key as a Go duration string; bare integers are seconds.
func duration(key string) time.Duration {
	switch v := viper.Get(key).(type) {
	case int:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	}
	return viper.GetDuration(key)
}
