package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Data   DataConfig        `yaml:"data"`
	Store  StoreConfig       `yaml:"store"`
	Search SearchConfig      `yaml:"search"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Data.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	return c.Search.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns the HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// DataConfig holds the dictionary source inputs. The IPA tables are
// optional; builds without them simply skip phonetic enrichment.
type DataConfig struct {
	SourcesDir string `yaml:"sources_dir"`
	IPAUKPath  string `yaml:"ipa_uk_path"`
	IPAUSPath  string `yaml:"ipa_us_path"`
}

// Validate validates the data configuration.
func (c *DataConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SourcesDir, validation.Required),
	)
}

// StoreConfig holds the compiled store and export artifact locations.
// ExportsDir may be empty to disable exports and downloads.
type StoreConfig struct {
	Path       string `yaml:"path"`
	ExportsDir string `yaml:"exports_dir"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SearchConfig tunes the query policy. Zero values fall back to the
// service defaults.
type SearchConfig struct {
	MinQueryLength int `yaml:"min_query_length"`
	PageSize       int `yaml:"page_size"`
	SuggestLimit   int `yaml:"suggest_limit"`
}

// Validate validates the search configuration.
func (c *SearchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MinQueryLength, validation.Min(0)),
		validation.Field(&c.PageSize, validation.Min(0), validation.Max(500)),
		validation.Field(&c.SuggestLimit, validation.Min(0), validation.Max(100)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Data: DataConfig{
			SourcesDir: "./data/dictionary",
		},
		Store: StoreConfig{
			Path:       "./dict.db",
			ExportsDir: "./static/files",
		},
		Search: SearchConfig{
			MinQueryLength: 3,
			PageSize:       30,
			SuggestLimit:   10,
		},
	}
}
