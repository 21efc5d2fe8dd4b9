package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Email    EmailConfig    `mapstructure:"email"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Assign   AssignConfig   `mapstructure:"assign"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
	// BaseURL is the externally visible URL, used in invitation links.
	BaseURL string `mapstructure:"base_url"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// RedisConfig defines the listing cache. An empty address disables caching.
type RedisConfig struct {
	Addr string        `mapstructure:"addr"`
	TTL  time.Duration `mapstructure:"ttl"`
}

// EmailConfig defines invitation email delivery. Without a SendGrid key the
// console mailer is used.
type EmailConfig struct {
	SendgridKey string `mapstructure:"sendgrid_key"`
	FromName    string `mapstructure:"from_name"`
	FromEmail   string `mapstructure:"from_email"`
}

// AdminConfig defines the bootstrap admin account ensured at startup.
// Leave empty to skip bootstrapping.
type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// AssignConfig guards the questionnaire distribution trigger.
type AssignConfig struct {
	ServiceKey string `mapstructure:"service_key"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// --- Environment Variable Handling ---
	viper.AutomaticEnv()
	// Use replacer for nested keys e.g., server.address -> SERVER_ADDRESS
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	// --- Set default values ---
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("server.base_url", "http://localhost:8080")
	viper.SetDefault("database.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.name", "coaching_app")
	viper.SetDefault("s3.use_ssl", true)
	viper.SetDefault("s3.bucket_name", "player-profiles")
	viper.SetDefault("jwt.expiration", "12h")
	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.ttl", "5m")
	viper.SetDefault("email.from_name", "Coaching Platform")
	viper.SetDefault("email.from_email", "no-reply@localhost")

	// --- Read Config File ---
	err = viper.ReadInConfig()
	// Config file is optional; env vars and defaults may be enough.
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	return config, nil
}
