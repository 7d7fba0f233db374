// Package config handles configuration for the server component:
// defaults, .env/environment overlay, command-line flags, and fail-fast
// validation of required settings.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aquawatch/aquawatch/internal/server/drift"
)

// Config holds runtime settings for the AquaWatch server.
//
// Fields:
//   - EndpointAddr: bind address for the public HTTP endpoint.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Required.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Required.
//   - TokenValidityDuration: access token lifetime.
//   - BrokerURL / BrokerTopic: MQTT broker address and telemetry topic. Required.
//   - LabelColumn: ground-truth column stripped from uploads before scoring.
//   - DriftThreshold: score above which the drift status flips to detected.
//   - BufferCapacity: size of the telemetry observation ring buffer.
//   - ScoreTimeout / StoreTimeout: bounded call timeouts for the model and
//     the report store.
//   - S3RootUser / S3RootPassword / S3Bucket / S3Region / S3BaseEndpoint:
//     optional object-storage settings for archiving raw uploads. The
//     archive is disabled when S3BaseEndpoint is empty.
type Config struct {
	EndpointAddr          string
	DatabaseDSN           string
	SecretKey             string
	TokenValidityDuration time.Duration
	BrokerURL             string
	BrokerTopic           string
	LabelColumn           string
	DriftThreshold        float64
	BufferCapacity        int
	ScoreTimeout          time.Duration
	StoreTimeout          time.Duration
	S3RootUser            string
	S3RootPassword        string
	S3Bucket              string
	S3Region              string
	S3BaseEndpoint        string
}

// LoadDefaults populates Config with development defaults. Settings the
// process must not guess (DSN, secret, broker) stay empty and are caught
// by Validate.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8000"
	c.TokenValidityDuration = 1 * time.Hour
	c.LabelColumn = "Potability"
	c.DriftThreshold = drift.DefaultThreshold
	c.BufferCapacity = 1024
	c.ScoreTimeout = 10 * time.Second
	c.StoreTimeout = 5 * time.Second
	c.S3Region = "us-east-1"
}

// Validate reports the required settings that are still missing. The
// caller must treat an error as fatal before accepting any traffic.
func (c *Config) Validate() error {
	var missing []string
	if c.DatabaseDSN == "" {
		missing = append(missing, "DATABASE_DSN")
	}
	if c.SecretKey == "" {
		missing = append(missing, "SECRET_KEY")
	}
	if c.BrokerURL == "" {
		missing = append(missing, "BROKER_URL")
	}
	if c.BrokerTopic == "" {
		missing = append(missing, "BROKER_TOPIC")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.DriftThreshold < 0 || c.DriftThreshold > 1 {
		return errors.New("DRIFT_THRESHOLD must be within [0,1]")
	}
	if c.BufferCapacity <= 0 {
		return errors.New("BUFFER_CAPACITY must be positive")
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from the environment (including an optional .env file) and finally from
// command-line flags. Validation is the caller's responsibility so tests
// can construct partial configs.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
