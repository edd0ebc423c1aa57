package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	testCases := []struct {
		name     string
		config   *Config
		expected error
	}{
		{
			name:     "complete",
			config:   &Config{Region: "eu-west-1", AccessKeyID: "id", SecretAccessKey: "secret"},
			expected: nil,
		},
		{
			name:     "missing region",
			config:   &Config{AccessKeyID: "id", SecretAccessKey: "secret"},
			expected: ErrMissingConfig("s3_region", EnvRegion),
		},
		{
			name:     "missing key id",
			config:   &Config{Region: "eu-west-1", SecretAccessKey: "secret"},
			expected: ErrMissingConfig("s3_access_key_id", EnvAccessKeyID),
		},
		{
			name:     "missing secret",
			config:   &Config{Region: "eu-west-1", AccessKeyID: "id"},
			expected: ErrMissingConfig("s3_secret_access_key", EnvSecretAccessKey),
		},
		{
			name:     "nil",
			config:   nil,
			expected: ErrMissingConfig("s3_region", EnvRegion),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.config.Validate()
			if tc.expected == nil {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tc.expected.Error())
		})
	}
}

func TestConfigFromEnvAndMerge(t *testing.T) {
	t.Setenv(EnvRegion, "us-east-1")
	t.Setenv(EnvAccessKeyID, "env-id")
	t.Setenv(EnvSecretAccessKey, "env-secret")

	cfg := (&Config{AccessKeyID: "explicit"}).Merge(ConfigFromEnv())

	assert.Equal(t, &Config{
		Region:          "us-east-1",
		AccessKeyID:     "explicit",
		SecretAccessKey: "env-secret",
	}, cfg)
}

func TestConfigExpand(t *testing.T) {
	t.Setenv("SNOWDUCK_TEST_REGION", "ap-south-1")

	cfg := (&Config{Region: "{{ env `SNOWDUCK_TEST_REGION` }}", AccessKeyID: "id"}).Expand()

	assert.Equal(t, "ap-south-1", cfg.Region)
	assert.Equal(t, "id", cfg.AccessKeyID)
}

func TestConfigMarshalJSONRedactsSecret(t *testing.T) {
	out, err := json.Marshal(&Config{Region: "r", AccessKeyID: "id", SecretAccessKey: "hunter2"})
	require.NoError(t, err)

	assert.NotContains(t, string(out), "hunter2")
	assert.JSONEq(t, `{"s3_region":"r","s3_access_key_id":"id","s3_secret_access_key":"<redacted>"}`, string(out))
}
