package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config fields from environment variables. A .env file
// in the working directory is loaded first when present; real environment
// variables win over .env entries (godotenv does not overwrite).
func parseEnv(config *Config) {
	_ = godotenv.Load()

	setString(&config.EndpointAddr, "ADDRESS")
	setString(&config.DatabaseDSN, "DATABASE_DSN")
	setString(&config.SecretKey, "SECRET_KEY")
	setString(&config.BrokerURL, "BROKER_URL")
	setString(&config.BrokerTopic, "BROKER_TOPIC")
	setString(&config.LabelColumn, "LABEL_COLUMN")
	setString(&config.S3RootUser, "S3_ROOT_USER")
	setString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	setString(&config.S3Bucket, "S3_BUCKET")
	setString(&config.S3Region, "S3_REGION")
	setString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")

	setDuration(&config.TokenValidityDuration, "TOKEN_VALIDITY_DURATION")
	setDuration(&config.ScoreTimeout, "SCORE_TIMEOUT")
	setDuration(&config.StoreTimeout, "STORE_TIMEOUT")

	if v := os.Getenv("DRIFT_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.DriftThreshold = f
		}
	}
	if v := os.Getenv("BUFFER_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.BufferCapacity = n
		}
	}
}

func setString(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, name string) {
	if v := os.Getenv(name); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
