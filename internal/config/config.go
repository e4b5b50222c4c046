package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Port           string  `yaml:"port"`
	DBDriver       string  `yaml:"db_driver"`
	DBDSN          string  `yaml:"db_dsn"`
	DBMaxOpenConns int     `yaml:"db_max_open_conns"`
	DBMaxIdleConns int     `yaml:"db_max_idle_conns"`
	Secret         string  `yaml:"secret"`
	Session        Session `yaml:"session"`
	CSRFKey        string  `yaml:"csrf_key"`
	LogLevel       string  `yaml:"log_level"`
	LogFormat      string  `yaml:"log_format"`
	LoginPerMinute int     `yaml:"login_rate_per_minute"`
	Seed           Seed    `yaml:"seed"`
}

type Session struct {
	Name     string `yaml:"name"`
	Backend  string `yaml:"backend"`
	MaxAge   int    `yaml:"max_age"`
	Dir      string `yaml:"dir"`
	RedisURL string `yaml:"redis_url"`
	Secure   bool   `yaml:"secure"`
}

// Seed describes an executive account created when none exists.
type Seed struct {
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
}

func Default() *Config {
	return &Config{
		Port:           "8080",
		DBDriver:       "sqlite3",
		DBDSN:          "volunteer.db",
		DBMaxOpenConns: 10,
		DBMaxIdleConns: 5,
		Session: Session{
			Name:    "volunteer_session",
			Backend: "cookie",
			MaxAge:  86400 * 7,
			Dir:     "sessions",
		},
		LogLevel:       "info",
		LogFormat:      "text",
		LoginPerMinute: 10,
	}
}

// Load reads filename over the defaults, then applies .env and environment
// overrides. A missing file is not an error.
func Load(filename string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(filename)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parse %s: %w", filename, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	// .env is optional; variables already set in the environment win.
	_ = godotenv.Load()
	config.applyEnv()

	return config, nil
}

func (c *Config) applyEnv() {
	setString(&c.Port, "PORT")
	setString(&c.DBDriver, "DB_DRIVER")
	setString(&c.DBDSN, "DB_DSN")
	setString(&c.Secret, "SESSION_SECRET")
	setString(&c.Session.Backend, "SESSION_BACKEND")
	setString(&c.Session.RedisURL, "REDIS_URL")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")
	setString(&c.CSRFKey, "CSRF_KEY")
	setInt(&c.DBMaxOpenConns, "DB_MAX_OPEN_CONNS")
	setInt(&c.DBMaxIdleConns, "DB_MAX_IDLE_CONNS")
	setInt(&c.LoginPerMinute, "LOGIN_RATE_PER_MINUTE")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// setInt ignores values that do not parse.
func setInt(dst *int, key string) {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		*dst = v
	}
}

func (c *Config) Validate() error {
	var errs []error
	switch c.DBDriver {
	case "sqlite3", "postgres":
	default:
		errs = append(errs, fmt.Errorf("db_driver %q must be sqlite3 or postgres", c.DBDriver))
	}
	if c.DBDSN == "" {
		errs = append(errs, errors.New("db_dsn is required"))
	}
	if len(c.Secret) < 16 {
		errs = append(errs, errors.New("secret must be at least 16 bytes"))
	}
	switch c.Session.Backend {
	case "cookie", "filesystem":
	case "redis":
		if c.Session.RedisURL == "" {
			errs = append(errs, errors.New("session.redis_url is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("session.backend %q must be cookie, filesystem or redis", c.Session.Backend))
	}
	if c.CSRFKey != "" && len(c.CSRFKey) != 32 {
		errs = append(errs, errors.New("csrf_key must be 32 bytes"))
	}
	if c.LoginPerMinute <= 0 {
		errs = append(errs, errors.New("login_rate_per_minute must be positive"))
	}
	return errors.Join(errs...)
}

// String renders the config for logging with secrets masked.
func (c *Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "port=%s db_driver=%s db_dsn=%s ", c.Port, c.DBDriver, mask(c.DBDSN))
	fmt.Fprintf(&b, "session.backend=%s session.name=%s session.max_age=%d ", c.Session.Backend, c.Session.Name, c.Session.MaxAge)
	fmt.Fprintf(&b, "secret=%s csrf=%t log_level=%s", mask(c.Secret), c.CSRFKey != "", c.LogLevel)
	return b.String()
}

func mask(s string) string {
	if s == "" {
		return `""`
	}
	return "****"
}
