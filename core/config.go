package core

import (
	"encoding/json"
	"fmt"
	"os"
)

// Environment variables consulted by ConfigFromEnv.
const (
	EnvRegion          = "S3_DUCKDB_REGION"
	EnvAccessKeyID     = "S3_DUCKDB_ACCESS_KEY_ID"
	EnvSecretAccessKey = "S3_DUCKDB_SECRET_ACCESS_KEY"
)

var ErrMissingConfig = func(field, envvar string) error {
	return fmt.Errorf("must provide valid %s, either in config or as %s env var", field, envvar)
}

// Config holds the object store credentials a connection registers with
// the engine.
type Config struct {
	Region          string `json:"s3_region"`
	AccessKeyID     string `json:"s3_access_key_id"`
	SecretAccessKey string `json:"s3_secret_access_key"`
}

// ConfigFromEnv reads credentials from the S3_DUCKDB_* environment variables.
func ConfigFromEnv() *Config {
	return &Config{
		Region:          os.Getenv(EnvRegion),
		AccessKeyID:     os.Getenv(EnvAccessKeyID),
		SecretAccessKey: os.Getenv(EnvSecretAccessKey),
	}
}

// Expand returns a copy of the config with template expanded fields.
func (c *Config) Expand() *Config {
	if c == nil {
		return &Config{}
	}
	return &Config{
		Region:          expandOrDefault(c.Region),
		AccessKeyID:     expandOrDefault(c.AccessKeyID),
		SecretAccessKey: expandOrDefault(c.SecretAccessKey),
	}
}

// Merge returns a copy of c where empty fields are taken from fallback.
func (c *Config) Merge(fallback *Config) *Config {
	out := &Config{}
	if c != nil {
		*out = *c
	}
	if fallback == nil {
		return out
	}

	if out.Region == "" {
		out.Region = fallback.Region
	}
	if out.AccessKeyID == "" {
		out.AccessKeyID = fallback.AccessKeyID
	}
	if out.SecretAccessKey == "" {
		out.SecretAccessKey = fallback.SecretAccessKey
	}
	return out
}

// Validate reports the first missing field.
func (c *Config) Validate() error {
	if c == nil {
		return ErrMissingConfig("s3_region", EnvRegion)
	}

	switch {
	case c.Region == "":
		return ErrMissingConfig("s3_region", EnvRegion)
	case c.AccessKeyID == "":
		return ErrMissingConfig("s3_access_key_id", EnvAccessKeyID)
	case c.SecretAccessKey == "":
		return ErrMissingConfig("s3_secret_access_key", EnvSecretAccessKey)
	}
	return nil
}

// MarshalJSON never writes out the secret access key.
func (c *Config) MarshalJSON() ([]byte, error) {
	secret := ""
	if c.SecretAccessKey != "" {
		secret = "<redacted>"
	}

	return json.Marshal(struct {
		Region          string `json:"s3_region"`
		AccessKeyID     string `json:"s3_access_key_id"`
		SecretAccessKey string `json:"s3_secret_access_key"`
	}{
		Region:          c.Region,
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: secret,
	})
}
