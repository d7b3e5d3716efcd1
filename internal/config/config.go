package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values. It is built once at
// startup and passed by value into constructors; nothing reads environment
// variables after Load returns.
type Config struct {
	Env             string        // application environment (e.g. "dev", "prod")
	Port            string        // HTTP port to listen on
	DBUser          string        // database username
	DBPass          string        // database password (optional)
	DBHost          string        // database host address
	DBPort          string        // database port number
	DBName          string        // database name
	JWTSecret       string        // secret used to sign all tokens
	JWTAlgorithm    string        // signing algorithm, HS256 or HS512
	AccessTTLMin    int           // access token time-to-live in minutes
	RefreshTTLDays  int           // refresh token time-to-live in days
	ConfirmTTLHours int           // email-confirmation token time-to-live in hours
	BcryptCost      int           // bcrypt cost for password hashing
	IdentityTTL     time.Duration // identity cache entry time-to-live
	AvatarDir       string        // directory avatar uploads are written to
}

// Load reads configuration from environment variables. Required variables
// are enforced by must(); missing values abort startup with a fatal log.
func Load() Config {
	return Config{
		Env:             must("APP_ENV"),
		Port:            must("APP_PORT"),
		DBUser:          must("DB_USER"),
		DBPass:          os.Getenv("DB_PASS"), // empty allowed
		DBHost:          must("DB_HOST"),
		DBPort:          must("DB_PORT"),
		DBName:          must("DB_NAME"),
		JWTSecret:       must("JWT_SECRET"),
		JWTAlgorithm:    algorithm(),
		AccessTTLMin:    mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays:  mustInt("REFRESH_TOKEN_TTL_DAYS"),
		ConfirmTTLHours: mustInt("CONFIRM_TOKEN_TTL_HOURS"),
		BcryptCost:      mustInt("BCRYPT_COST"),
		IdentityTTL:     envDur("IDENTITY_CACHE_TTL", 5*time.Minute),
		AvatarDir:       envStr("AVATAR_DIR", "static/avatars"),
	}
}

// AccessTTL returns the access token TTL as a duration.
func (c Config) AccessTTL() time.Duration { return time.Duration(c.AccessTTLMin) * time.Minute }

// RefreshTTL returns the refresh token TTL as a duration.
func (c Config) RefreshTTL() time.Duration { return time.Duration(c.RefreshTTLDays) * 24 * time.Hour }

// ConfirmTTL returns the confirmation token TTL as a duration.
func (c Config) ConfirmTTL() time.Duration { return time.Duration(c.ConfirmTTLHours) * time.Hour }

// algorithm reads JWT_ALGORITHM and restricts it to the supported HMAC
// variants. An unsupported value is a configuration error, not a fallback.
func algorithm() string {
	v := os.Getenv("JWT_ALGORITHM")
	if v == "" {
		return "HS256"
	}
	if v != "HS256" && v != "HS512" {
		log.Fatalf("unsupported JWT_ALGORITHM: %q (allowed: HS256, HS512)", v)
	}
	return v
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
