package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Geocoding provider names accepted in GEOCODE_PROVIDERS.
const (
	ProviderGoogle    = "google"
	ProviderMapbox    = "mapbox"
	ProviderNominatim = "nominatim"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Cache configuration. An empty CacheDBPath selects the in-memory backend.
	CacheDBPath        string
	CacheSweepInterval time.Duration
	GeocodeTTL         time.Duration
	AnalysisTTL        time.Duration

	// Provider configuration. Order encodes preference; availability is
	// derived from credential presence.
	ProviderTimeout  time.Duration
	GeocodeProviders []string
	GoogleMapsAPIKey string
	MapboxToken      string
	NominatimBaseURL string
	GeminiAPIKey     string

	// Kafka mutation-event relay. Enabled iff brokers are configured.
	KafkaBrokers     []string
	KafkaEventsTopic string
	RelayEnabled     bool
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	sweepInterval, err := parseDuration("CACHE_SWEEP_INTERVAL", "1m")
	if err != nil {
		return nil, err
	}
	geocodeTTL, err := parseDuration("GEOCODE_TTL", "1h")
	if err != nil {
		return nil, err
	}
	analysisTTL, err := parseDuration("ANALYSIS_TTL", "1h")
	if err != nil {
		return nil, err
	}
	providerTimeout, err := parseDuration("PROVIDER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	providers, err := parseGeocodeProviders()
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		CacheDBPath:        os.Getenv("CACHE_DB_PATH"),
		CacheSweepInterval: sweepInterval,
		GeocodeTTL:         geocodeTTL,
		AnalysisTTL:        analysisTTL,

		ProviderTimeout:  providerTimeout,
		GeocodeProviders: providers,
		GoogleMapsAPIKey: os.Getenv("GOOGLE_MAPS_API_KEY"),
		MapboxToken:      os.Getenv("MAPBOX_TOKEN"),
		NominatimBaseURL: sharedcfg.EnvOrDefault("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),

		KafkaBrokers:     brokers,
		KafkaEventsTopic: sharedcfg.EnvOrDefault("KAFKA_EVENTS_TOPIC", "mutation-events"),
		RelayEnabled:     len(brokers) > 0,
	}

	if cfg.RelayEnabled && cfg.KafkaEventsTopic == "" {
		return nil, errors.New("KAFKA_EVENTS_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func parseDuration(name, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(name, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return d, nil
}

func parseGeocodeProviders() ([]string, error) {
	raw := sharedcfg.EnvOrDefault("GEOCODE_PROVIDERS", "google,mapbox,nominatim")
	parts := strings.Split(raw, ",")
	providers := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		switch p {
		case ProviderGoogle, ProviderMapbox, ProviderNominatim:
			providers = append(providers, p)
		default:
			return nil, fmt.Errorf("unknown geocode provider %q", p)
		}
	}
	if len(providers) == 0 {
		return nil, errors.New("GEOCODE_PROVIDERS must name at least one provider")
	}
	return providers, nil
}
