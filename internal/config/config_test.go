package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg := FromViper(newTestViper())

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, "us-east-1", cfg.Storage.Region)
	assert.True(t, cfg.Storage.UseSSL)
	assert.Equal(t, 30*time.Second, cfg.Processing.PollTimeout())
	assert.Equal(t, 2*time.Second, cfg.Processing.PollInterval())
	assert.Equal(t, time.Hour, cfg.Processing.LinkExpiry())
	assert.Equal(t, "input.pdf", cfg.Processing.InputSuffix)
	assert.Equal(t, "output.xlsx", cfg.Processing.OutputSuffix)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, "postgres", cfg.Database.Driver)
}

func TestFromViper_Overrides(t *testing.T) {
	v := newTestViper()
	v.Set("S3_BUCKET_NAME", "draftq-uploads")
	v.Set("POLL_TIMEOUT_SECONDS", 60)
	v.Set("POLL_INTERVAL_SECONDS", 3)

	cfg := FromViper(v)
	assert.Equal(t, "draftq-uploads", cfg.Storage.Bucket)
	assert.Equal(t, time.Minute, cfg.Processing.PollTimeout())
	assert.Equal(t, 3*time.Second, cfg.Processing.PollInterval())
}

func TestValidate(t *testing.T) {
	cfg := FromViper(newTestViper())
	require.Error(t, cfg.Validate(), "bucket is required")

	cfg.Storage.Bucket = "bucket"
	require.NoError(t, cfg.Validate())

	cfg.Database.Driver = "mysql"
	assert.Error(t, cfg.Validate())
}

func TestValidate_WriteTimeoutMustOutlastPoll(t *testing.T) {
	cfg := FromViper(newTestViper())
	cfg.Storage.Bucket = "bucket"

	cfg.Processing.PollTimeoutSeconds = 115
	cfg.Server.WriteTimeout = 115
	assert.Error(t, cfg.Validate())

	cfg.Server.WriteTimeout = 150
	assert.NoError(t, cfg.Validate())

	cfg.Server.WriteTimeout = 0
	assert.NoError(t, cfg.Validate(), "zero disables the write timeout")
}
