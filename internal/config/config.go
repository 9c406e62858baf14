// Package config loads application configuration from the environment and
// an optional config file.
//
// Every value has a default, so the server starts with zero configuration
// (in a degraded mode: no auth without JWT_SECRET, no cache without Redis).
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Config holds every tunable the server reads at startup.
type Config struct {
	Port              int    `mapstructure:"PORT"`
	DBPath            string `mapstructure:"DB_PATH"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	GitHubClientID    string `mapstructure:"GITHUB_CLIENT_ID"`
	GitHubSecret      string `mapstructure:"GITHUB_CLIENT_SECRET"`
	GitHubCallbackURL string `mapstructure:"GITHUB_CALLBACK_URL"`
	// OwnerGitHubID identifies the site owner. The first time this GitHub
	// account signs in, the user row is created with the admin role.
	OwnerGitHubID int64  `mapstructure:"OWNER_GITHUB_ID"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
}

// Load reads config.yml (if present) and the environment, applying defaults
// for anything unset. Environment variables win over the file.
func Load() (*Config, error) {
	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
		// No file is fine — env vars and defaults cover everything.
	}

	v.SetDefault("PORT", 8080)
	v.SetDefault("DB_PATH", "data/bite.db")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("GITHUB_CLIENT_ID", "")
	v.SetDefault("GITHUB_CLIENT_SECRET", "")
	v.SetDefault("GITHUB_CALLBACK_URL", "")
	v.SetDefault("OWNER_GITHUB_ID", 0)
	v.SetDefault("REDIS_ADDR", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding config: %w", err)
	}

	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	return &cfg, nil
}
