package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"cssl-judging/internal/logging"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	SMTP     SMTPConfig
	Telegram TelegramConfig
	Uploads  UploadsConfig
	LogLevel string
}

type ServerConfig struct {
	Port int
	Mode string
}

type DatabaseConfig struct {
	DSN string
}

type AuthConfig struct {
	JWTSecret string
	AdminUser string
	AdminPass string
	TokenTTL  time.Duration
}

type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
}

type TelegramConfig struct {
	Token string
}

type UploadsConfig struct {
	Dir string
}

// Load reads .env (if present), then config.yaml (if present), then the
// environment. Keys map to env vars with dots replaced by underscores,
// e.g. auth.jwt_secret -> AUTH_JWT_SECRET.
func Load(paths ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logging.Log.Debugf("no .env file loaded: %v", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		logging.Log.Info("no config.yaml found, using environment only")
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("auth.admin_user", "admin")
	v.SetDefault("auth.token_ttl", "8h")
	v.SetDefault("uploads.dir", "./uploads")
	v.SetDefault("log.level", "info")

	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range []string{"database.dsn", "auth.jwt_secret", "auth.admin_pass", "smtp.host", "smtp.port", "smtp.user", "smtp.pass", "telegram.token"} {
		v.SetDefault(key, "")
	}
}

func fromViper(v *viper.Viper) (*Config, error) {
	conf := &Config{
		Server: ServerConfig{
			Port: v.GetInt("server.port"),
			Mode: v.GetString("server.mode"),
		},
		Database: DatabaseConfig{
			DSN: v.GetString("database.dsn"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
			AdminUser: v.GetString("auth.admin_user"),
			AdminPass: v.GetString("auth.admin_pass"),
			TokenTTL:  v.GetDuration("auth.token_ttl"),
		},
		SMTP: SMTPConfig{
			Host: v.GetString("smtp.host"),
			Port: v.GetString("smtp.port"),
			User: v.GetString("smtp.user"),
			Pass: v.GetString("smtp.pass"),
		},
		Telegram: TelegramConfig{
			Token: v.GetString("telegram.token"),
		},
		Uploads: UploadsConfig{
			Dir: v.GetString("uploads.dir"),
		},
		LogLevel: v.GetString("log.level"),
	}

	var missing []string
	if conf.Database.DSN == "" {
		missing = append(missing, "database.dsn")
	}
	if conf.Auth.JWTSecret == "" {
		missing = append(missing, "auth.jwt_secret")
	}
	if conf.Auth.AdminPass == "" {
		missing = append(missing, "auth.admin_pass")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("required configuration missing: %s", strings.Join(missing, ", "))
	}
	if conf.Auth.TokenTTL <= 0 {
		conf.Auth.TokenTTL = 8 * time.Hour
	}

	return conf, nil
}
