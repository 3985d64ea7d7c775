package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/basementofbooks/internal/flagx"
	"github.com/dmitrijs2005/basementofbooks/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "30s" and integer nanoseconds are accepted.
type JsonConfig struct {
	HTTPAddr              string          `json:"http_addr"`
	DatabaseDSN           string          `json:"database_dsn"`
	SecretKey             string          `json:"secret_key"`
	TokenValidityDuration *timex.Duration `json:"token_validity_duration"`
	RequestTimeout        *timex.Duration `json:"request_timeout"`
	LogLevel              string          `json:"log_level"`
	RedisAddr             string          `json:"redis_addr"`
	KafkaBrokers          []string        `json:"kafka_brokers"`
	KafkaTopic            string          `json:"kafka_topic"`
	OmisePublicKey        string          `json:"omise_public_key"`
	OmiseSecretKey        string          `json:"omise_secret_key"`
	PaymentCurrency       string          `json:"payment_currency"`
	S3RootUser            string          `json:"s3_root_user"`
	S3RootPassword        string          `json:"s3_root_password"`
	S3Bucket              string          `json:"s3_bucket"`
	S3Region              string          `json:"s3_region"`
	S3BaseEndpoint        string          `json:"s3_base_endpoint"`
}

// parseJson loads the file named by -c / -config, if any, and copies every
// field present in it into config. Unreadable or invalid files panic.
func parseJson(config *Config) {
	path := flagx.ConfigPath(os.Args[1:])
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.TokenValidityDuration != nil {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.RequestTimeout != nil {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.RedisAddr, c.RedisAddr)
	if c.KafkaBrokers != nil {
		config.KafkaBrokers = c.KafkaBrokers
	}
	setString(&config.KafkaTopic, c.KafkaTopic)
	setString(&config.OmisePublicKey, c.OmisePublicKey)
	setString(&config.OmiseSecretKey, c.OmiseSecretKey)
	setString(&config.PaymentCurrency, c.PaymentCurrency)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
