// Package config loads the ledger's settings. Sources, lowest precedence
// first: built-in defaults, a YAML file (ledger.yaml), a .env file, LEDGER_*
// environment variables, and finally any command-line flags bound by the
// caller.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/sakif/ledger/internal/model"
)

// EnvPrefix is prepended to every environment variable, so db.path is read
// from LEDGER_DB_PATH.
const EnvPrefix = "LEDGER"

type Config struct {
	DB struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"db"`

	Owner string `mapstructure:"owner"`
	Book  string `mapstructure:"book"`

	Ledger struct {
		MaxItemName int `mapstructure:"max_item_name"`
	} `mapstructure:"ledger"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	Server struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"server"`

	Auth struct {
		Secret string        `mapstructure:"secret"`
		TTL    time.Duration `mapstructure:"ttl"`
	} `mapstructure:"auth"`

	Currency string `mapstructure:"currency"`

	Render struct {
		Width int  `mapstructure:"width"`
		Plain bool `mapstructure:"plain"`
	} `mapstructure:"render"`

	Export struct {
		Delimiter string `mapstructure:"delimiter"`
	} `mapstructure:"export"`
}

// New returns a viper instance with defaults, the config file search path
// and the environment binding set up. Callers may bind flags to it before
// calling Load.
func New(configFile string) *viper.Viper {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("ledger")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.ledger")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db.path", "data/ledger.db")
	v.SetDefault("owner", "")
	v.SetDefault("book", string(model.BookBalance))
	v.SetDefault("ledger.max_item_name", 28)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("server.port", 8080)
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.ttl", "12h")
	v.SetDefault("currency", "USD")
	v.SetDefault("render.width", 100)
	v.SetDefault("render.plain", false)
	v.SetDefault("export.delimiter", ",")
}

// LoadEnv reads a .env file into the process environment if one exists.
// Variables already set are not overridden.
func LoadEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// Load reads the config file, if any, and decodes and validates the result.
// A missing config file is not an error.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: reading %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DB.Path) == "" {
		return errors.New("db.path is required")
	}
	if _, err := model.ParseBook(c.Book); err != nil {
		return fmt.Errorf("book: %w", err)
	}
	if c.Ledger.MaxItemName < 1 {
		return fmt.Errorf("ledger.max_item_name must be positive, got %d", c.Ledger.MaxItemName)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Auth.TTL <= 0 {
		return fmt.Errorf("auth.ttl must be positive, got %s", c.Auth.TTL)
	}
	if len(strings.TrimSpace(c.Currency)) != 3 {
		return fmt.Errorf("currency must be a 3-letter ISO code, got %q", c.Currency)
	}
	if utf8.RuneCountInString(c.Export.Delimiter) != 1 {
		return fmt.Errorf("export.delimiter must be a single character, got %q", c.Export.Delimiter)
	}
	return nil
}

// Delimiter returns the CSV field separator.
func (c *Config) Delimiter() rune {
	r, _ := utf8.DecodeRuneInString(c.Export.Delimiter)
	return r
}

// BookName returns the configured default book.
func (c *Config) BookName() model.Book {
	b, _ := model.ParseBook(c.Book)
	return b
}

// ParseLevel maps a level name to its slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("log.level: unknown level %q", s)
	}
	return level, nil
}

// NewLogger builds the process logger from the log settings.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
