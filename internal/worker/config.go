// Package worker provides background job processing for SafeRoute.
package worker

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds worker configuration.
type Config struct {
	// ProjectID is the Google Cloud project that owns the subscription.
	ProjectID string

	// SubscriptionName is the Pub/Sub subscription carrying job messages.
	SubscriptionName string

	// MaxOutstandingMessages bounds how many messages are processed at once.
	// Default: 4
	MaxOutstandingMessages int

	// JobTimeout bounds a single job.
	// Default: 10 minutes
	JobTimeout time.Duration
}

// DefaultConfig returns the default worker configuration.
func DefaultConfig() Config {
	return Config{
		SubscriptionName:       "saferoute-jobs",
		MaxOutstandingMessages: 4,
		JobTimeout:             10 * time.Minute,
	}
}

// ConfigFromEnv reads PUBSUB_PROJECT_ID, PUBSUB_SUBSCRIPTION, WORKER_MAX_OUTSTANDING
// and WORKER_JOB_TIMEOUT. PUBSUB_PROJECT_ID is required.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	cfg.ProjectID = os.Getenv("PUBSUB_PROJECT_ID")
	if cfg.ProjectID == "" {
		return Config{}, fmt.Errorf("PUBSUB_PROJECT_ID is required")
	}
	if v := os.Getenv("PUBSUB_SUBSCRIPTION"); v != "" {
		cfg.SubscriptionName = v
	}

	if v := os.Getenv("WORKER_MAX_OUTSTANDING"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("WORKER_MAX_OUTSTANDING: invalid value %q", v)
		}
		cfg.MaxOutstandingMessages = n
	}

	if v := os.Getenv("WORKER_JOB_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("WORKER_JOB_TIMEOUT: invalid duration %q", v)
		}
		cfg.JobTimeout = d
	}

	return cfg, nil
}
