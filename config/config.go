package config

import (
	"io/ioutil"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	DefaultLocale           = "en"
	DefaultMigrationsTable  = "__migrations"
	DefaultLockKey          = "ralaver_migrations"
	DefaultLockSeconds      = 3
	DefaultConnectAttempts  = 100
	DefaultConnectTimeout   = 60 * time.Second
	DefaultConfigFile       = "ralaver.yml"
	envPlaceholderDelimiter = "%%"
)

var (
	ErrDatabaseURLMissing     = errors.New("database url was not defined")
	ErrMigrationsTableMissing = errors.New("migrations table was not defined")
)

type (
	App struct {
		Locale         string `yaml:"locale"`
		FallbackLocale string `yaml:"fallback_locale"`
	}

	Database struct {
		URL             string        `yaml:"url"`
		ConnectAttempts int           `yaml:"connect_attempts"`
		ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	}

	Migrations struct {
		Table   string `yaml:"table"`
		LockKey string `yaml:"lock_key"`
		LockFor int    `yaml:"lock_for"`
		NoLock  bool   `yaml:"no_lock"`
	}

	Log struct {
		SQL   bool `yaml:"sql"`
		Debug bool `yaml:"debug"`
		Color bool `yaml:"color"`
	}

	// Config is a read-only snapshot of the application settings. It is
	// handed by pointer to every migration operation.
	Config struct {
		Version    string     `yaml:"version"`
		App        App        `yaml:"app"`
		Database   Database   `yaml:"database"`
		Migrations Migrations `yaml:"migrations"`
		Log        Log        `yaml:"log"`
	}
)

// Default returns the configuration used when neither a config file
// nor the environment say otherwise
func Default() *Config {
	return &Config{
		Version: "1",
		App: App{
			Locale:         DefaultLocale,
			FallbackLocale: DefaultLocale,
		},
		Database: Database{
			ConnectAttempts: DefaultConnectAttempts,
			ConnectTimeout:  DefaultConnectTimeout,
		},
		Migrations: Migrations{
			Table:   DefaultMigrationsTable,
			LockKey: DefaultLockKey,
			LockFor: DefaultLockSeconds,
		},
		Log: Log{Color: true},
	}
}

// Load builds the configuration from defaults, the .env file, the yaml
// file at path (skipped when it does not exist) and the environment,
// in that order of precedence
func Load(path string) (*Config, error) {
	return LoadWith(path, nil)
}

// LoadWith is Load with a final override applied before validation,
// used for command line flags
func LoadWith(path string, override func(*Config)) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(errors.Cause(err)) {
		return nil, errors.Wrap(err, "could not load .env file")
	}

	cfg := Default()

	if path != "" && FileExists(path) {
		if err := cfg.readYaml(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if override != nil {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the settings required by the migrator are present
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return ErrDatabaseURLMissing
	}

	if c.Migrations.Table == "" {
		return ErrMigrationsTableMissing
	}

	return nil
}

func (c *Config) readYaml(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "could not open configuration file")
	}

	defer f.Close()

	b, err := ioutil.ReadAll(f)
	if err != nil {
		return errors.Wrap(err, "could not read configuration file")
	}

	if err := yaml.Unmarshal(b, c); err != nil {
		return errors.Wrap(err, "could not parse configuration file")
	}

	c.App.Locale = expandEnv(c.App.Locale)
	c.App.FallbackLocale = expandEnv(c.App.FallbackLocale)
	c.Database.URL = expandEnv(c.Database.URL)
	c.Migrations.Table = expandEnv(c.Migrations.Table)
	c.Migrations.LockKey = expandEnv(c.Migrations.LockKey)

	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("APP_LOCALE"); v != "" {
		c.App.Locale = v
	}

	if v := os.Getenv("APP_FALLBACK_LOCALE"); v != "" {
		c.App.FallbackLocale = v
	}

	if v := os.Getenv("MYSQL_URL"); v != "" {
		c.Database.URL = v
	}
}

// expandEnv resolves a %%NAME%% placeholder to the value of the
// environment variable NAME, any other value is returned as is
func expandEnv(v string) string {
	if len(v) > 2*len(envPlaceholderDelimiter) &&
		strings.HasPrefix(v, envPlaceholderDelimiter) &&
		strings.HasSuffix(v, envPlaceholderDelimiter) {
		return os.Getenv(strings.Trim(v, envPlaceholderDelimiter))
	}

	return v
}

func FileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}
