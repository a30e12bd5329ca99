package querycache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/chenqi92/inflowave-sub011/errors"
)

// Config contains configuration for cache creation. All four fields may also
// be changed at runtime through Configure.
type Config struct {
	// MaxTotalBytes is the bound on the summed estimated size of all entries.
	MaxTotalBytes int64 `json:"max_total_bytes"`

	// MaxEntries is the bound on the number of entries.
	MaxEntries int `json:"max_entries"`

	// DefaultTTL applies to entries inserted without a per-entry TTL.
	DefaultTTL time.Duration `json:"default_ttl"`

	// JanitorInterval is how often the background sweep removes expired entries.
	JanitorInterval time.Duration `json:"janitor_interval"`
}

// DefaultConfig returns a default cache configuration.
func DefaultConfig() Config {
	return Config{
		MaxTotalBytes:   100 * 1024 * 1024,
		MaxEntries:      1000,
		DefaultTTL:      5 * time.Minute,
		JanitorInterval: 1 * time.Minute,
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.MaxTotalBytes <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "querycache", "Validate",
			fmt.Sprintf("max_total_bytes bound check (got %d)", c.MaxTotalBytes))
	}
	if c.MaxEntries <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "querycache", "Validate",
			fmt.Sprintf("max_entries bound check (got %d)", c.MaxEntries))
	}
	if c.DefaultTTL <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "querycache", "Validate",
			fmt.Sprintf("default_ttl bound check (got %v)", c.DefaultTTL))
	}
	if c.JanitorInterval <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "querycache", "Validate",
			fmt.Sprintf("janitor_interval bound check (got %v)", c.JanitorInterval))
	}
	return nil
}

// Update carries a partial runtime reconfiguration. Nil fields leave the
// corresponding Config field unchanged.
type Update struct {
	MaxTotalBytes   *int64         `json:"max_total_bytes,omitempty"`
	MaxEntries      *int           `json:"max_entries,omitempty"`
	DefaultTTL      *time.Duration `json:"default_ttl,omitempty"`
	JanitorInterval *time.Duration `json:"janitor_interval,omitempty"`
}

// apply merges non-nil fields into the config and reports whether the janitor
// interval changed.
func (u Update) apply(c *Config) (intervalChanged bool) {
	if u.MaxTotalBytes != nil {
		c.MaxTotalBytes = *u.MaxTotalBytes
	}
	if u.MaxEntries != nil {
		c.MaxEntries = *u.MaxEntries
	}
	if u.DefaultTTL != nil {
		c.DefaultTTL = *u.DefaultTTL
	}
	if u.JanitorInterval != nil && *u.JanitorInterval != c.JanitorInterval {
		c.JanitorInterval = *u.JanitorInterval
		intervalChanged = true
	}
	return intervalChanged
}

// UnmarshalJSON implements custom JSON unmarshaling for Config to support
// duration strings (e.g., "1h", "5m", "30s") in addition to nanosecond integers.
func (c *Config) UnmarshalJSON(data []byte) error {
	// Use an alias to avoid infinite recursion
	type Alias Config

	aux := &struct {
		DefaultTTL      json.RawMessage `json:"default_ttl,omitempty"`
		JanitorInterval json.RawMessage `json:"janitor_interval,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(c),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if len(aux.DefaultTTL) > 0 {
		ttl, err := parseDurationField(aux.DefaultTTL, "default_ttl")
		if err != nil {
			return err
		}
		c.DefaultTTL = ttl
	}

	if len(aux.JanitorInterval) > 0 {
		interval, err := parseDurationField(aux.JanitorInterval, "janitor_interval")
		if err != nil {
			return err
		}
		c.JanitorInterval = interval
	}

	return nil
}

// parseDurationField parses a JSON duration field that can be either:
// - An integer (nanoseconds) for backward compatibility
// - A string (duration like "1h", "5m", "30s")
func parseDurationField(data json.RawMessage, fieldName string) (time.Duration, error) {
	// Try parsing as string first (most common case)
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		duration, err := time.ParseDuration(str)
		if err != nil {
			return 0, fmt.Errorf("invalid duration string for %s: %w", fieldName, err)
		}
		return duration, nil
	}

	// Fall back to integer (nanoseconds)
	var nsec int64
	if err := json.Unmarshal(data, &nsec); err != nil {
		return 0, fmt.Errorf("field %s must be either a duration string (e.g., '1h') or integer nanoseconds", fieldName)
	}
	return time.Duration(nsec), nil
}
