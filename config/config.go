package config

import (
	"strings"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	GeneralVersion       string `mapstructure:"GENERAL_VERSION"`
	Environment          string `mapstructure:"ENVIRONMENT"`
	ServerPort           int    `mapstructure:"SERVER_PORT"`
	DatabaseDriver       string `mapstructure:"DB_DRIVER"`
	DatabaseHost         string `mapstructure:"DB_HOST"`
	DatabasePort         int    `mapstructure:"DB_PORT"`
	DatabaseName         string `mapstructure:"DB_NAME"`
	DatabaseUser         string `mapstructure:"DB_USER"`
	DatabasePassword     string `mapstructure:"DB_PASSWORD"`
	DatabasePath         string `mapstructure:"DB_PATH"`
	DatabaseCacheAddress string `mapstructure:"DB_CACHE_ADDRESS"`
	DatabaseCachePort    int    `mapstructure:"DB_CACHE_PORT"`
	DatabaseCacheReset   int    `mapstructure:"DB_CACHE_RESET"`
	CorsAllowOrigins     string `mapstructure:"CORS_ALLOW_ORIGINS"`
	JWTSecret            string `mapstructure:"JWT_SECRET"`
	JWTIssuer            string `mapstructure:"JWT_ISSUER"`
	JWTAudience          string `mapstructure:"JWT_AUDIENCE"`
	RateLimitPerMinute   int    `mapstructure:"RATE_LIMIT_PER_MINUTE"`
	RateLimitBurst       int    `mapstructure:"RATE_LIMIT_BURST"`
	CatalogRejectOverlap bool   `mapstructure:"CATALOG_REJECT_OVERLAP"`
}

var ConfigInstance Config

var envVars = []string{
	"GENERAL_VERSION", "ENVIRONMENT", "SERVER_PORT",
	"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD", "DB_PATH",
	"DB_CACHE_ADDRESS", "DB_CACHE_PORT", "DB_CACHE_RESET",
	"CORS_ALLOW_ORIGINS",
	"JWT_SECRET", "JWT_ISSUER", "JWT_AUDIENCE",
	"RATE_LIMIT_PER_MINUTE", "RATE_LIMIT_BURST",
	"CATALOG_REJECT_OVERLAP",
}

func New() (Config, error) {
	log := logger.New("config").Function("New")
	log.Info("Initializing config")

	viper.AutomaticEnv()

	viper.SetDefault("DB_DRIVER", DriverPostgres)
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_PATH", "vmtracker.db")
	viper.SetDefault("DB_CACHE_RESET", -1)
	viper.SetDefault("CORS_ALLOW_ORIGINS", "*")
	viper.SetDefault("JWT_ISSUER", "vmtracker")
	viper.SetDefault("JWT_AUDIENCE", "vmtracker-api")
	viper.SetDefault("RATE_LIMIT_PER_MINUTE", 120)
	viper.SetDefault("RATE_LIMIT_BURST", 30)

	for _, env := range envVars {
		if err := viper.BindEnv(env); err != nil {
			log.Warn("Failed to bind environment variable", "env", env, "error", err)
		}
	}

	if viper.IsSet("SERVER_PORT") && viper.IsSet("JWT_SECRET") {
		log.Info("Environment variables detected, skipping file loading")
	} else {
		log.Info("Environment variables not found, attempting to load from files")

		viper.SetConfigFile(".env")
		viper.SetConfigType("env")

		if err := viper.ReadInConfig(); err != nil {
			log.Warn("Could not find .env file", "error", err)
		} else {
			log.Info("Loaded .env file")
		}

		viper.SetConfigFile(".env.local")
		if err := viper.MergeInConfig(); err != nil {
			log.Debug("No .env.local file found", "error", err)
		} else {
			log.Info("Loaded .env.local overrides")
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, log.Err("Fatal error: could not unmarshal config", err)
	}
	config.DatabaseDriver = strings.ToLower(strings.TrimSpace(config.DatabaseDriver))

	log.Info(
		"Successfully initialized config",
		"environment", config.Environment,
		"port", config.ServerPort,
		"driver", config.DatabaseDriver,
	)

	if err := validateConfig(config, log); err != nil {
		return Config{}, err
	}

	return ConfigInstance, nil
}

func GetConfig() Config {
	return ConfigInstance
}

// CacheEnabled reports whether a valkey address was configured.
func (c Config) CacheEnabled() bool {
	return c.DatabaseCacheAddress != "" && c.DatabaseCachePort != 0
}

func validateConfig(config Config, log logger.Logger) error {
	if config.ServerPort <= 0 {
		return log.Error(
			"Fatal error: invalid server port",
			"port", config.ServerPort,
		)
	}

	if config.JWTSecret == "" {
		return log.ErrMsg("Fatal error: JWT_SECRET is required")
	}

	switch config.DatabaseDriver {
	case DriverPostgres, DriverMySQL:
		if config.DatabaseHost == "" || config.DatabaseName == "" || config.DatabaseUser == "" {
			return log.Error(
				"Fatal error: DB_HOST, DB_NAME and DB_USER are required",
				"driver", config.DatabaseDriver,
			)
		}
	case DriverSQLite:
		if config.DatabasePath == "" {
			return log.ErrMsg("Fatal error: DB_PATH is required for sqlite")
		}
	case DriverMemory:
	default:
		return log.Error(
			"Fatal error: unsupported database driver",
			"driver", config.DatabaseDriver,
		)
	}

	if config.RateLimitPerMinute < 0 || config.RateLimitBurst < 0 {
		return log.Error(
			"Fatal error: rate limits cannot be negative",
			"perMinute", config.RateLimitPerMinute,
			"burst", config.RateLimitBurst,
		)
	}

	ConfigInstance = config
	return nil
}
