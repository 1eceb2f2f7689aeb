// Package config is the taxibot application configuration: the shared bot
// core settings plus reference data, pricing, order flow and database.
package config

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/taxibot/core/config"
	coredatabase "github.com/m3rciful/taxibot/core/database"
)

// DataConfig points at the static reference tables.
type DataConfig struct {
	CatalogPath string `yaml:"catalog_path" envconfig:"CATALOG_PATH"`
	RosterPath  string `yaml:"roster_path" envconfig:"ROSTER_PATH"`
}

// PricingConfig overrides the district base price table (whole hryvnias).
// An empty map keeps the built-in table.
type PricingConfig struct {
	Districts map[string]int64 `yaml:"districts"`
}

// OrderConfig tunes the conversation flow.
type OrderConfig struct {
	SearchDelay time.Duration `yaml:"search_delay" envconfig:"ORDER_SEARCH_DELAY"`
	SessionTTL  time.Duration `yaml:"session_ttl" envconfig:"ORDER_SESSION_TTL"`
}

const (
	defaultCatalogPath = "data/addresses.csv"
	defaultRosterPath  = "data/drivers.csv"
	defaultSearchDelay = 2 * time.Second
	defaultSessionTTL  = 30 * time.Minute
)

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Data     DataConfig          `yaml:"data"`
	Pricing  PricingConfig       `yaml:"pricing"`
	Order    OrderConfig         `yaml:"order"`
	Database coredatabase.Config `yaml:"database"`
}

// CoreConfig returns the embedded bot core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// Load reads the YAML file at path (optional), overlays the environment and
// validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates cfg and fills defaults in place.
func Normalize(cfg *Config) error {
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	cfg.Data.CatalogPath = strings.TrimSpace(cfg.Data.CatalogPath)
	if cfg.Data.CatalogPath == "" {
		cfg.Data.CatalogPath = defaultCatalogPath
	}
	cfg.Data.RosterPath = strings.TrimSpace(cfg.Data.RosterPath)
	if cfg.Data.RosterPath == "" {
		cfg.Data.RosterPath = defaultRosterPath
	}

	for district, price := range cfg.Pricing.Districts {
		if strings.TrimSpace(district) == "" {
			return fmt.Errorf("pricing.districts: empty district name")
		}
		if price < 0 {
			return fmt.Errorf("pricing.districts[%s] must be >= 0", district)
		}
	}

	switch {
	case cfg.Order.SearchDelay < 0:
		return fmt.Errorf("order.search_delay must be >= 0")
	case cfg.Order.SearchDelay == 0:
		cfg.Order.SearchDelay = defaultSearchDelay
	}
	switch {
	case cfg.Order.SessionTTL < 0:
		return fmt.Errorf("order.session_ttl must be >= 0")
	case cfg.Order.SessionTTL == 0:
		cfg.Order.SessionTTL = defaultSessionTTL
	}

	return cfg.Database.Normalize()
}
