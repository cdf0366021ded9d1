// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config holds all runtime configuration values.  It is built once at
// process start by Load and then passed by pointer to the components
// that need it (token service, cookie builder, handlers).  Nothing in the
// application mutates it afterwards.
type Config struct {
	Env              string        // application environment (e.g. "development", "production")
	Port             string        // HTTP port to listen on
	DBUser           string        // database username
	DBPass           string        // database password (optional)
	DBHost           string        // database host address
	DBPort           string        // database port number
	DBName           string        // database name
	DBAutoMigrate    bool          // apply pending migrations on server start
	JWTSecret        string        // secret used to sign access tokens
	JWTRefreshSecret string        // secret used to sign refresh tokens
	AccessTTL        time.Duration // access token lifetime
	RefreshTTL       time.Duration // refresh token lifetime
	BcryptCost       int           // bcrypt cost for password hashing
	CORSOrigin       string        // single browser origin allowed to send credentials
	Cache            CacheConfig   // Redis response cache settings
	Events           EventsConfig  // RabbitMQ customer event settings
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() *Config {
	jwtSecret := must("JWT_SECRET")
	cfg := &Config{
		Env:              envStr("APP_ENV", "development"),
		Port:             envStr("APP_PORT", "3000"),
		JWTSecret:        jwtSecret,
		JWTRefreshSecret: envStr("JWT_REFRESH_SECRET", jwtSecret+"_refresh"),
		AccessTTL:        time.Duration(envInt("ACCESS_TOKEN_TTL_MIN", 15)) * time.Minute,
		RefreshTTL:       time.Duration(envInt("REFRESH_TOKEN_TTL_DAYS", 7)) * 24 * time.Hour,
		BcryptCost:       envInt("BCRYPT_COST", bcrypt.DefaultCost),
		CORSOrigin:       envStr("CORS_ORIGIN", "http://localhost:5173"),
		Cache:            LoadCacheConfig(),
		Events:           LoadEventsConfig(),
	}
	loadDatabase(cfg)
	if cfg.BcryptCost < bcrypt.DefaultCost {
		log.Printf("BCRYPT_COST=%d is below %d; using %d", cfg.BcryptCost, bcrypt.DefaultCost, bcrypt.DefaultCost)
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.AccessTTL <= 0 {
		log.Fatalf("invalid ACCESS_TOKEN_TTL_MIN: must be positive")
	}
	if cfg.RefreshTTL <= 0 {
		log.Fatalf("invalid REFRESH_TOKEN_TTL_DAYS: must be positive")
	}
	return cfg
}

// LoadDatabase reads only the database settings.  The migrate command uses
// it so it does not need the token secrets.
func LoadDatabase() *Config {
	cfg := &Config{Env: envStr("APP_ENV", "development")}
	loadDatabase(cfg)
	return cfg
}

func loadDatabase(cfg *Config) {
	cfg.DBUser = must("DB_USER")
	cfg.DBPass = os.Getenv("DB_PASS")
	cfg.DBHost = must("DB_HOST")
	cfg.DBPort = envStr("DB_PORT", "3306")
	cfg.DBName = must("DB_NAME")
	cfg.DBAutoMigrate = envBool("DB_AUTO_MIGRATE", false)
}

// IsProduction reports whether the service runs with production settings
// (secure cookies, strict same-site, no internal error detail).
func (c *Config) IsProduction() bool { return c.Env == "production" }

// IsDevelopment reports whether internal error detail may be exposed.
func (c *Config) IsDevelopment() bool { return c.Env == "development" }

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
