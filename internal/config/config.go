package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	CodeStoreRedis    = "redis"
	CodeStorePostgres = "postgres"
)

type Config struct {
	Port     string
	LogLevel string
	LogJSON  bool

	DatabaseDSN string
	DBDebug     bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret   string
	JWTIssuer   string
	TokenTTL    time.Duration
	BcryptCost  int
	HashWorkers int

	CodeStore  string
	CodeTTL    time.Duration
	CodeLength int

	AdminEmails []string

	SMTP SMTP
}

type SMTP struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Configured reports whether outbound mail can be sent.
func (s SMTP) Configured() bool {
	return s.Host != "" && s.User != ""
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (Config, error) {
	var err error
	cfg := Config{
		Port:          getenv("PORT", "8080"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		DatabaseDSN:   os.Getenv("DATABASE_DSN"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTIssuer:     getenv("JWT_ISSUER", "estate-journal"),
		CodeStore:     strings.ToLower(getenv("CODE_STORE", CodeStoreRedis)),
		AdminEmails:   splitList(os.Getenv("ADMIN_EMAILS")),
		SMTP: SMTP{
			Host:     os.Getenv("SMTP_HOST"),
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     os.Getenv("FROM_EMAIL"),
		},
	}

	if cfg.LogJSON, err = getbool("LOG_JSON", false); err != nil {
		return Config{}, err
	}
	if cfg.DBDebug, err = getbool("DB_DEBUG", false); err != nil {
		return Config{}, err
	}
	if cfg.RedisDB, err = getint("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.TokenTTL, err = getduration("ACCESS_TOKEN_TTL", 7*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.CodeTTL, err = getduration("CODE_TTL", 10*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.CodeLength, err = getint("CODE_LENGTH", 6); err != nil {
		return Config{}, err
	}
	if cfg.BcryptCost, err = getint("BCRYPT_COST", bcrypt.DefaultCost); err != nil {
		return Config{}, err
	}
	if cfg.HashWorkers, err = getint("HASH_WORKERS", 0); err != nil {
		return Config{}, err
	}
	if cfg.SMTP.Port, err = getint("SMTP_PORT", 587); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET required"))
	}
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("DATABASE_DSN required"))
	}
	switch c.CodeStore {
	case CodeStoreRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR required when CODE_STORE=redis"))
		}
	case CodeStorePostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown CODE_STORE %q", c.CodeStore))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must be positive"))
	}
	if c.CodeTTL <= 0 {
		errs = append(errs, errors.New("CODE_TTL must be positive"))
	}
	if c.CodeLength < 4 || c.CodeLength > 12 {
		errs = append(errs, errors.New("CODE_LENGTH must be between 4 and 12"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	return errors.Join(errs...)
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getint(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getbool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

// getduration accepts "15m", "1h", "168h" or a bare number of minutes.
func getduration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Minute, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
