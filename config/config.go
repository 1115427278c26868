package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL   string
	StoreBackend  string
	JWTSecret     string
	JWTIssuer     string
	JWTAudience   string
	JWTExpiration time.Duration
	ServerPort    string
}

// Load reads configuration from the environment with defaults suitable
// for local development.
func Load() *Config {
	v := viper.New()
	v.SetDefault("DATABASE_URL", "postgresql://postgres@localhost:5432/worklog")
	v.SetDefault("STORE_BACKEND", "postgres")
	v.SetDefault("JWT_SECRET", "your-super-secret-key-change-in-production")
	v.SetDefault("JWT_ISSUER", "worklog")
	v.SetDefault("JWT_AUDIENCE", "worklog-api")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("SERVER_PORT", "8080")
	v.AutomaticEnv()

	return &Config{
		DatabaseURL:   v.GetString("DATABASE_URL"),
		StoreBackend:  v.GetString("STORE_BACKEND"),
		JWTSecret:     v.GetString("JWT_SECRET"),
		JWTIssuer:     v.GetString("JWT_ISSUER"),
		JWTAudience:   v.GetString("JWT_AUDIENCE"),
		JWTExpiration: v.GetDuration("JWT_EXPIRATION"),
		ServerPort:    v.GetString("SERVER_PORT"),
	}
}
