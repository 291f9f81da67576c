// Package settings is the persisted user configuration of limitedseller,
// stored as json5 next to the binary (with the usual .local override).
package settings

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"limitedseller/internal/notify"
	"limitedseller/internal/pipeline"
	"limitedseller/lib/configutil"
	"limitedseller/lib/platforms/market/core"

	"github.com/shopspring/decimal"
)

const DefaultPath = "settings.json5"

const (
	StrategyCheapest = "cheapest"
	StrategyAbove    = "above"
)

type NotifySettings struct {
	// empty server disables the summary email
	Email notify.SmtpConfig `json:"email"`
}

type LicenseSettings struct {
	Disabled bool   `json:"disabled"`
	KeyFile  string `json:"key_file"`
}

type Settings struct {
	PricingStrategy  string  `json:"pricing_strategy"`
	PriceMultiplier  float64 `json:"price_multiplier"`
	ItemType         string  `json:"item_type"`
	Blacklist        []int64 `json:"blacklist"`
	PacingMs         int     `json:"pacing_ms"`
	PriceConcurrency int     `json:"price_concurrency"`

	Endpoints        core.Endpoints `json:"endpoints"`
	BrowserTransport bool           `json:"browser_transport"`

	HistoryDb string          `json:"history_db"`
	Notify    NotifySettings  `json:"notify"`
	License   LicenseSettings `json:"license"`
}

func Default() Settings {
	return Settings{
		PricingStrategy: StrategyCheapest,
		PriceMultiplier: 1.05,
		ItemType:        pipeline.FilterAll.String(),
		PacingMs:        int(pipeline.DefaultPacing / time.Millisecond),
		Endpoints:       core.DefaultEndpoints(),
		HistoryDb:       "history.db",
		License: LicenseSettings{
			KeyFile: "license.key",
		},
	}
}

// Load reads the settings at `path`, a missing file yields the defaults.
// Keys absent from the file keep their default value, keys that are present
// are validated as written.
func Load(path string) (Settings, error) {
	s, err := configutil.ReadConfigOnto(path, Default())
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Settings{}, err
	}

	err = s.Validate()
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func Save(path string, s Settings) error {
	err := s.Validate()
	if err != nil {
		return err
	}
	return configutil.WriteConfig(path, s)
}

func (s Settings) Validate() error {
	_, err := s.RunConfig(false)
	return err
}

func parseItemType(value string) (pipeline.CategoryFilter, error) {
	for _, f := range []pipeline.CategoryFilter{
		pipeline.FilterAll,
		pipeline.FilterUserGeneratedOnly,
		pipeline.FilterRestrictedOnly,
	} {
		if f.String() == value {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown item_type %q (expected all, ugc or roblox)", value)
}

func (s Settings) Strategy() (pipeline.PricingStrategy, error) {
	switch s.PricingStrategy {
	case StrategyCheapest:
		return pipeline.Cheapest(), nil
	case StrategyAbove:
		strategy := pipeline.AboveMarket(decimal.NewFromFloat(s.PriceMultiplier))
		return strategy, strategy.Validate()
	default:
		return pipeline.PricingStrategy{}, fmt.Errorf(
			"unknown pricing_strategy %q (expected cheapest or above)", s.PricingStrategy,
		)
	}
}

// RunConfig converts the settings into the immutable config of one run.
func (s Settings) RunConfig(dryRun bool) (pipeline.RunConfig, error) {
	strategy, err := s.Strategy()
	if err != nil {
		return pipeline.RunConfig{}, err
	}
	filter, err := parseItemType(s.ItemType)
	if err != nil {
		return pipeline.RunConfig{}, err
	}

	cfg := pipeline.RunConfig{
		Strategy:         strategy,
		CategoryFilter:   filter,
		Blacklist:        pipeline.NewBlacklist(s.Blacklist...),
		Pacing:           time.Duration(s.PacingMs) * time.Millisecond,
		DryRun:           dryRun,
		PriceConcurrency: s.PriceConcurrency,
	}
	return cfg, cfg.Validate()
}

// Keys lists what Set accepts.
var Keys = []string{
	"pricing_strategy",
	"price_multiplier",
	"item_type",
	"blacklist",
	"pacing_ms",
	"price_concurrency",
	"browser_transport",
	"history_db",
	"license.disabled",
}

// Set assigns a single setting from its textual form. Blacklists are comma
// separated, an empty value clears them.
func (s *Settings) Set(key, value string) error {
	value = strings.TrimSpace(value)

	switch key {
	case "pricing_strategy":
		s.PricingStrategy = strings.ToLower(value)
	case "price_multiplier":
		m, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid multiplier %q: %w", value, err)
		}
		s.PriceMultiplier = m
	case "item_type":
		s.ItemType = strings.ToLower(value)
	case "blacklist":
		ids, err := ParseBlacklist(value)
		if err != nil {
			return err
		}
		s.Blacklist = ids
	case "pacing_ms":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid pacing %q: %w", value, err)
		}
		s.PacingMs = n
	case "price_concurrency":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid concurrency %q: %w", value, err)
		}
		s.PriceConcurrency = n
	case "browser_transport":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		s.BrowserTransport = b
	case "history_db":
		s.HistoryDb = value
	case "license.disabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		s.License.Disabled = b
	default:
		return fmt.Errorf("unknown setting %q", key)
	}

	return s.Validate()
}

func ParseBlacklist(value string) ([]int64, error) {
	var ids []int64
	for _, field := range strings.Split(value, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid asset id %q in blacklist", field)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
