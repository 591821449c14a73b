package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// SyncFeed is one configured external calendar: "url|platform".
type SyncFeed struct {
	URL      string
	Platform string
}

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env                string
	HTTPAddr           string
	BaseURL            string
	AdminToken         string
	MongoURI           string
	MongoDB            string
	KafkaBrokers       []string
	KafkaTopicPrefix   string
	FeedTimeout        time.Duration
	SyncSchedule       string
	SyncFeeds          []SyncFeed
	IdempotencyTTL     time.Duration
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration
}

// Load parses configuration from the current environment. MONGO_URI and
// KAFKA_BROKERS are optional: without them the service runs on in-memory
// storage with outbox publishing disabled, which is how the dev setup and
// the test suite run it.
func Load() (Config, error) {
	cfg := Config{
		Env:              getEnv("APP_ENV", "dev"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		BaseURL:          getEnv("BASE_URL", "http://localhost:8080"),
		AdminToken:       os.Getenv("ADMIN_TOKEN"),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDB:          getEnv("MONGO_DB", "peppertree"),
		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", ""),
		SyncSchedule:     getEnv("SYNC_SCHEDULE", "@every 1h"),
	}
	brokers := getEnv("KAFKA_BROKERS", "")
	if brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	feeds, err := parseFeeds(os.Getenv("SYNC_FEEDS"))
	if err != nil {
		return Config{}, err
	}
	cfg.SyncFeeds = feeds

	feedTimeout, err := parseDurationEnv("FEED_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.FeedTimeout = feedTimeout

	idempotencyTTL, err := parseDurationEnv("IDEMP_TTL", 168*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cfg.IdempotencyTTL = idempotencyTTL

	poll, err := parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond)
	if err != nil {
		return Config{}, err
	}
	cfg.OutboxPollInterval = poll

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	return cfg, nil
}

// parseFeeds accepts a comma-separated list of "url|platform" pairs, e.g.
// "https://airbnb.example/cal.ics|airbnb,https://booking.example/x.ics|booking.com".
func parseFeeds(raw string) ([]SyncFeed, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var feeds []SyncFeed
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		url, platform, ok := strings.Cut(part, "|")
		if !ok || strings.TrimSpace(url) == "" || strings.TrimSpace(platform) == "" {
			return nil, fmt.Errorf("invalid SYNC_FEEDS entry %q: want url|platform", part)
		}
		feeds = append(feeds, SyncFeed{
			URL:      strings.TrimSpace(url),
			Platform: strings.ToLower(strings.TrimSpace(platform)),
		})
	}
	return feeds, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}
