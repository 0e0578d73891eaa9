package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	MaxRequestBytes int64

	// Kafka worker configuration. The worker only runs when KafkaEnabled is set.
	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string

	BatchSize          int
	BatchFlushInterval time.Duration

	// Section engine tuning.
	Section SectionConfig

	// Tracing configuration.
	TracingEnabled     bool
	TracingExporter    string // stdout | otlp
	TracingEndpoint    string
	TracingSampleRatio float64
}

// SectionConfig tunes the cross-section geometry stages.
type SectionConfig struct {
	Samples            int
	SearchRadius       float64
	Backfill           bool
	BackfillRadius     float64
	ProximityThreshold float64
	PitMaxDistance     float64
	CacheSize          int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
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

	section, err := loadSection()
	if err != nil {
		return nil, err
	}

	maxRequestBytes, err := parsePositiveInt("MAX_REQUEST_BYTES", 32<<20)
	if err != nil {
		return nil, err
	}

	sampleRatio, err := parseFloatInRange("TRACING_SAMPLE_RATIO", 1, 0, 1)
	if err != nil {
		return nil, err
	}

	// An explicit broker list implies the worker is wanted.
	kafkaEnabled := os.Getenv("KAFKA_BROKERS") != ""
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		MaxRequestBytes: int64(maxRequestBytes),

		KafkaEnabled:       kafkaEnabled,
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "cross-section-requests"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "cross-section-results"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "cross-section-service"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		Section: section,

		TracingEnabled:     strings.EqualFold(os.Getenv("TRACING_ENABLED"), "true"),
		TracingExporter:    strings.ToLower(sharedcfg.EnvOrDefault("TRACING_EXPORTER", "stdout")),
		TracingEndpoint:    os.Getenv("TRACING_ENDPOINT"),
		TracingSampleRatio: sampleRatio,
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	}
	if cfg.TracingExporter != "stdout" && cfg.TracingExporter != "otlp" {
		return nil, fmt.Errorf("invalid TRACING_EXPORTER %q", cfg.TracingExporter)
	}

	return cfg, nil
}

func loadSection() (SectionConfig, error) {
	samples, err := parsePositiveInt("SECTION_SAMPLES", 100)
	if err != nil {
		return SectionConfig{}, err
	}
	searchRadius, err := parsePositiveFloat("SECTION_SEARCH_RADIUS", 20)
	if err != nil {
		return SectionConfig{}, err
	}
	backfillRadius, err := parsePositiveFloat("SECTION_BACKFILL_RADIUS", 500)
	if err != nil {
		return SectionConfig{}, err
	}
	proximity, err := parsePositiveFloat("SECTION_PROXIMITY_THRESHOLD", 20)
	if err != nil {
		return SectionConfig{}, err
	}
	pitMax, err := parsePositiveFloat("SECTION_PIT_MAX_DISTANCE", 150)
	if err != nil {
		return SectionConfig{}, err
	}
	cacheSize, err := parsePositiveInt("SECTION_CACHE_SIZE", 256)
	if err != nil {
		return SectionConfig{}, err
	}

	return SectionConfig{
		Samples:            samples,
		SearchRadius:       searchRadius,
		Backfill:           os.Getenv("SECTION_BACKFILL") != "false",
		BackfillRadius:     backfillRadius,
		ProximityThreshold: proximity,
		PitMaxDistance:     pitMax,
		CacheSize:          cacheSize,
	}, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parsePositiveFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !isFinite(v) || v <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}

func parseFloatInRange(key string, def, lo, hi float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !isFinite(v) || v < lo || v > hi {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
