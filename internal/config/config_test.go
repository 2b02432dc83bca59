package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testBucket = "critical-events-test"
	testRegion = "eu-west-1"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("S3_BUCKET_NAME", testBucket)
	t.Setenv("S3_REGION_NAME", testRegion)
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, int64(10<<20), cfg.MaxBodyBytes)
	assert.Equal(t, "*", cfg.CORSAllowedOrigin)
	assert.Equal(t, testBucket, cfg.S3BucketName)
	assert.Equal(t, testRegion, cfg.S3Region)
	assert.Empty(t, cfg.S3Endpoint)
	assert.Equal(t, "royatali/", cfg.S3KeyPrefix)
	assert.Equal(t, 32, cfg.FileCacheSize)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "critical-events-requests", cfg.KafkaSourceTopic)
	assert.Equal(t, "critical-events-results", cfg.KafkaSinkTopic)
	assert.Equal(t, "critical-events-service", cfg.KafkaGroupID)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)
}

func TestLoad_CustomEnv(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "8081")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("MAX_BODY_BYTES", "1024")
	t.Setenv("CORS_ALLOWED_ORIGIN", "https://app.example.com")
	t.Setenv("S3_ENDPOINT", "http://localhost:9000")
	t.Setenv("S3_KEY_PREFIX", "uploads")
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIATEST")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, int64(1024), cfg.MaxBodyBytes)
	assert.Equal(t, "https://app.example.com", cfg.CORSAllowedOrigin)
	assert.Equal(t, "http://localhost:9000", cfg.S3Endpoint)
	assert.Equal(t, "uploads/", cfg.S3KeyPrefix)
	assert.Equal(t, "AKIATEST", cfg.AWSAccessKeyID)
	assert.Equal(t, "secret", cfg.AWSSecretAccessKey)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 1*time.Second, cfg.BatchFlushInterval)
}

func TestLoad_MissingBucket(t *testing.T) {
	t.Setenv("S3_REGION_NAME", testRegion)
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3_BUCKET_NAME")
}

func TestLoad_MissingRegion(t *testing.T) {
	t.Setenv("S3_BUCKET_NAME", testBucket)
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3_REGION_NAME")
}

func TestLoad_PartialCredentials(t *testing.T) {
	setRequired(t)
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIATEST")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AWS_SECRET_ACCESS_KEY")
}

func TestLoad_InvalidPort(t *testing.T) {
	for _, v := range []string{"abc", "0", "-1", "70000"} {
		t.Run(v, func(t *testing.T) {
			setRequired(t)
			t.Setenv("PORT", v)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "PORT")
		})
	}
}

func TestLoad_InvalidMaxBodyBytes(t *testing.T) {
	setRequired(t)
	t.Setenv("MAX_BODY_BYTES", "-5")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_BODY_BYTES")
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	setRequired(t)
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	setRequired(t)
	t.Setenv("BATCH_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_KafkaDisabledIgnoresEmptyTopics(t *testing.T) {
	setRequired(t)
	t.Setenv("KAFKA_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled)
}

func TestLoad_FileCacheSize(t *testing.T) {
	setRequired(t)

	t.Setenv("FILE_CACHE_SIZE", "0")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.FileCacheSize)

	t.Setenv("FILE_CACHE_SIZE", "-1")
	_, err = Load()
	require.ErrorContains(t, err, "invalid FILE_CACHE_SIZE")
}

func TestNormalizePrefix(t *testing.T) {
	assert.Equal(t, "royatali/", normalizePrefix("royatali"))
	assert.Equal(t, "a/b/", normalizePrefix("/a/b/"))
	assert.Equal(t, "", normalizePrefix(""))
}
