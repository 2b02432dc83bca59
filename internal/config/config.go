package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr          string
	LogLevel          string
	LogFormat         string
	ShutdownTimeout   time.Duration
	MaxBodyBytes      int64
	CORSAllowedOrigin string

	// Object storage configuration.
	S3BucketName       string
	S3Region           string
	S3Endpoint         string
	S3KeyPrefix        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	FileCacheSize      int

	// Stream mode configuration.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaSourceTopic   string
	KafkaSinkTopic     string
	KafkaGroupID       string
	BatchSize          int
	BatchFlushInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	port, err := parsePort()
	if err != nil {
		return nil, err
	}

	maxBody, err := parseMaxBodyBytes()
	if err != nil {
		return nil, err
	}

	cacheSize, err := parseFileCacheSize()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:          ":" + strconv.Itoa(port),
		LogLevel:          sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:         sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:   shutdownTimeout,
		MaxBodyBytes:      maxBody,
		CORSAllowedOrigin: sharedcfg.EnvOrDefault("CORS_ALLOWED_ORIGIN", "*"),

		S3BucketName:       os.Getenv("S3_BUCKET_NAME"),
		S3Region:           os.Getenv("S3_REGION_NAME"),
		S3Endpoint:         os.Getenv("S3_ENDPOINT"),
		S3KeyPrefix:        normalizePrefix(sharedcfg.EnvOrDefault("S3_KEY_PREFIX", "royatali/")),
		AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		FileCacheSize:      cacheSize,

		KafkaEnabled:       os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "critical-events-requests"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "critical-events-results"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "critical-events-service"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
	}

	if cfg.S3BucketName == "" {
		return nil, errors.New("S3_BUCKET_NAME is required")
	}
	if cfg.S3Region == "" {
		return nil, errors.New("S3_REGION_NAME is required")
	}
	if (cfg.AWSAccessKeyID == "") != (cfg.AWSSecretAccessKey == "") {
		return nil, errors.New("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set together")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	}

	return cfg, nil
}

func parsePort() (int, error) {
	s := sharedcfg.EnvOrDefault("PORT", "3000")
	port, err := strconv.Atoi(s)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("invalid PORT %q", s)
	}
	return port, nil
}

func parseMaxBodyBytes() (int64, error) {
	s := os.Getenv("MAX_BODY_BYTES")
	if s == "" {
		return 10 << 20, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid MAX_BODY_BYTES %q", s)
	}
	return n, nil
}

// parseFileCacheSize reads FILE_CACHE_SIZE; zero disables the cache.
func parseFileCacheSize() (int, error) {
	s := sharedcfg.EnvOrDefault("FILE_CACHE_SIZE", "32")
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid FILE_CACHE_SIZE %q", s)
	}
	return n, nil
}

func normalizePrefix(p string) string {
	p = strings.TrimLeft(p, "/")
	if p != "" && !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}
