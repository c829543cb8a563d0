package routing

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the environment-driven part of EngineConfig.
type Config struct {
	Weights       Weights
	Speeds        Speeds
	SearchTimeout time.Duration
	MaxConcurrent int
}

// ConfigFromEnv reads ROUTING_BALANCED_WEIGHT, ROUTING_SAFEST_WEIGHT, ROUTING_DRIVE_SPEED_KMH,
// ROUTING_WALK_SPEED_KMH, ROUTING_SEARCH_TIMEOUT and ROUTING_MAX_CONCURRENT.
// Unset values keep their defaults; malformed or inconsistent values are an error.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		Weights:       DefaultWeights,
		Speeds:        DefaultSpeeds,
		SearchTimeout: DefaultSearchTimeout,
	}

	var err error
	if cfg.Weights.Balanced, err = floatFromEnv("ROUTING_BALANCED_WEIGHT", cfg.Weights.Balanced); err != nil {
		return Config{}, err
	}
	if cfg.Weights.Safest, err = floatFromEnv("ROUTING_SAFEST_WEIGHT", cfg.Weights.Safest); err != nil {
		return Config{}, err
	}
	if err := cfg.Weights.Validate(); err != nil {
		return Config{}, err
	}

	if cfg.Speeds.Drive, err = floatFromEnv("ROUTING_DRIVE_SPEED_KMH", cfg.Speeds.Drive); err != nil {
		return Config{}, err
	}
	if cfg.Speeds.Walk, err = floatFromEnv("ROUTING_WALK_SPEED_KMH", cfg.Speeds.Walk); err != nil {
		return Config{}, err
	}
	if err := cfg.Speeds.Validate(); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("ROUTING_SEARCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("ROUTING_SEARCH_TIMEOUT: invalid duration %q", v)
		}
		cfg.SearchTimeout = d
	}

	if v := os.Getenv("ROUTING_MAX_CONCURRENT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("ROUTING_MAX_CONCURRENT: invalid value %q", v)
		}
		cfg.MaxConcurrent = n
	}

	return cfg, nil
}

func floatFromEnv(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}
