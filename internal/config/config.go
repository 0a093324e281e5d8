package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Alpaca   Alpaca   `mapstructure:"alpaca"`
	Trading  Trading  `mapstructure:"trading"`
	Logger   Logger   `mapstructure:"logger"`
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
}

// Alpaca holds the configuration for the Alpaca API.
type Alpaca struct {
	ApiKey         string  `mapstructure:"apiKey"`
	SecretKey      string  `mapstructure:"secretKey"`
	BaseUrl        string  `mapstructure:"baseUrl"`
	DataBaseUrl    string  `mapstructure:"dataBaseUrl"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Trading holds the configuration for the rebalancing logic.
// GainThreshold decides WHEN a sell fires; SellFraction decides HOW MUCH of
// the position is sold. They default to the same value but are independent.
type Trading struct {
	Ticker        string  `mapstructure:"ticker"`
	GainThreshold float64 `mapstructure:"gain_threshold"`
	LossThreshold float64 `mapstructure:"loss_threshold"`
	SellFraction  float64 `mapstructure:"sell_fraction"`
	PollInterval  int     `mapstructure:"poll_interval"`
	DryRun        bool    `mapstructure:"dry_run"`
	ApiPort       int     `mapstructure:"api_port"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("alpaca.baseUrl", "https://paper-api.alpaca.markets")
	viper.SetDefault("alpaca.dataBaseUrl", "https://data.alpaca.markets")
	viper.SetDefault("alpaca.rate_limit", 3) // requests per second
	viper.SetDefault("alpaca.rate_limit_burst", 5)
	viper.SetDefault("trading.gain_threshold", 0.05)
	viper.SetDefault("trading.loss_threshold", 0.10)
	viper.SetDefault("trading.sell_fraction", 0.05)
	viper.SetDefault("trading.poll_interval", 30) // seconds between price polls

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
