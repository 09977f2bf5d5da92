package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the flat set of typed options the platform is tuned with,
// loaded entirely from the environment.
type Config struct {
	Server    ServerConfig
	Worker    WorkerConfig
	Sources   SourcesConfig
	Ingestion IngestionConfig
	Alerts    AlertsConfig
	Anomaly   AnomalyConfig
	Sitrep    SitrepConfig
	Retrain   RetrainConfig
	DB        DatabaseConfig
	Redis     RedisConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

type SourcesConfig struct {
	WeatherEnabled      bool
	WeatherURL          string
	WeatherAPIKey       string
	WeatherPollInterval time.Duration

	GDACSEnabled      bool
	GDACSURL          string
	GDACSPollInterval time.Duration

	USGSEnabled       bool
	USGSURL           string
	USGSMinMagnitude  float64
	USGSPollInterval  time.Duration

	FIRMSEnabled      bool
	FIRMSBaseURL      string
	FIRMSAPIKey       string
	FIRMSPollInterval time.Duration

	SocialEnabled      bool
	SocialBearerToken  string
	SocialKeywords     []string
	SocialKeywordWeights map[string]float64
	SocialPollInterval time.Duration
}

// socialEnv holds the two Social-SOS adapter options that benefit from
// struct-tag decoding instead of the scalar getEnv* helpers: a list and
// a keyword->weight map, both with their own separator conventions.
type socialEnv struct {
	Keywords       []string           `env:"SOCIAL_KEYWORDS" envSeparator:","`
	KeywordWeights map[string]float64 `env:"SOCIAL_KEYWORD_WEIGHTS" envSeparator:"," envKeyValSeparator:":"`
}

type IngestionConfig struct {
	Enabled        bool
	MaxEventsPerPoll int
}

type AlertsConfig struct {
	SeverityThreshold string
	SendgridAPIKey    string
	SendgridFromEmail string

	// RecipientEmails/RecipientRoles are parallel lists describing the
	// static NGO/admin contact list alerts fan out to; the full user
	// directory this stands in for is out of scope.
	RecipientEmails []string
	RecipientRoles  []string
}

type AnomalyConfig struct {
	DetectionInterval time.Duration
	Contamination     float64
	MinSamples        int
	LookbackHours     int
}

type SitrepConfig struct {
	CronHourUTC int
}

type RetrainConfig struct {
	ThresholdMAE      float64
	ThresholdAccuracy float64
}

type DatabaseConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled bool
	Addr    string
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	var se socialEnv
	if err := env.Parse(&se); err != nil {
		return nil, fmt.Errorf("parse social adapter env: %w", err)
	}
	if len(se.Keywords) == 0 {
		se.Keywords = []string{"SOS", "help needed", "disaster", "earthquake", "flood", "rescue", "emergency relief", "trapped"}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 4),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 50),
		},
		Sources: SourcesConfig{
			WeatherEnabled:      getEnvBool("WEATHER_ENABLED", true),
			WeatherURL:          getEnv("WEATHER_URL", "https://api.openweathermap.org/data/2.5/weather"),
			WeatherAPIKey:       getEnv("WEATHER_API_KEY", ""),
			WeatherPollInterval: getEnvDuration("WEATHER_POLL_INTERVAL_S", 600*time.Second),

			GDACSEnabled:      getEnvBool("GDACS_ENABLED", true),
			GDACSURL:          getEnv("GDACS_URL", "https://www.gdacs.org/xml/rss.xml"),
			GDACSPollInterval: getEnvDuration("GDACS_POLL_INTERVAL_S", 900*time.Second),

			USGSEnabled:      getEnvBool("USGS_ENABLED", true),
			USGSURL:          getEnv("USGS_URL", "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_hour.geojson"),
			USGSMinMagnitude: getEnvFloat("USGS_MIN_MAGNITUDE", 4.0),
			USGSPollInterval: getEnvDuration("USGS_POLL_INTERVAL_S", 300*time.Second),

			FIRMSEnabled:      getEnvBool("FIRMS_ENABLED", true),
			FIRMSBaseURL:      getEnv("FIRMS_BASE_URL", "https://firms.modaps.eosdis.nasa.gov/api/area/csv"),
			FIRMSAPIKey:       getEnv("FIRMS_API_KEY", ""),
			FIRMSPollInterval: getEnvDuration("FIRMS_POLL_INTERVAL_S", 1800*time.Second),

			SocialEnabled:        getEnvBool("SOCIAL_ENABLED", true),
			SocialBearerToken:    getEnv("SOCIAL_BEARER_TOKEN", ""),
			SocialKeywords:       se.Keywords,
			SocialKeywordWeights: se.KeywordWeights,
			SocialPollInterval:   getEnvDuration("SOCIAL_POLL_INTERVAL_S", 300*time.Second),
		},
		Ingestion: IngestionConfig{
			Enabled:          getEnvBool("INGESTION_ENABLED", true),
			MaxEventsPerPoll: getEnvInt("MAX_EVENTS_PER_POLL", 50),
		},
		Alerts: AlertsConfig{
			SeverityThreshold: getEnv("ALERT_SEVERITY_THRESHOLD", "critical"),
			SendgridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
			SendgridFromEmail: getEnv("SENDGRID_FROM_EMAIL", "alerts@reliefgrid.local"),
			RecipientEmails:   getEnvList("ALERT_RECIPIENT_EMAILS", nil),
			RecipientRoles:    getEnvList("ALERT_RECIPIENT_ROLES", nil),
		},
		Anomaly: AnomalyConfig{
			DetectionInterval: getEnvDuration("ANOMALY_DETECTION_INTERVAL_S", 3600*time.Second),
			Contamination:     getEnvFloat("ANOMALY_CONTAMINATION", 0.05),
			MinSamples:        getEnvInt("ANOMALY_MIN_SAMPLES", 20),
			LookbackHours:     getEnvInt("ANOMALY_LOOKBACK_HOURS", 48),
		},
		Sitrep: SitrepConfig{
			CronHourUTC: getEnvInt("SITREP_CRON_HOUR_UTC", 6),
		},
		Retrain: RetrainConfig{
			ThresholdMAE:      getEnvFloat("AUTO_RETRAIN_THRESHOLD_MAE", 0.3),
			ThresholdAccuracy: getEnvFloat("AUTO_RETRAIN_THRESHOLD_ACCURACY", 0.6),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/triage-platform.db"),
		},
		Redis: RedisConfig{
			Enabled: getEnvBool("REDIS_ENABLED", false),
			Addr:    getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	validSeverities := map[string]bool{"low": true, "medium": true, "high": true, "critical": true}
	if !validSeverities[c.Alerts.SeverityThreshold] {
		return fmt.Errorf("invalid alert severity threshold: %s", c.Alerts.SeverityThreshold)
	}

	if c.Sources.USGSPollInterval < time.Minute {
		return fmt.Errorf("USGS poll interval must be at least 1 minute")
	}
	if c.Sources.GDACSPollInterval < time.Minute {
		return fmt.Errorf("GDACS poll interval must be at least 1 minute")
	}
	if c.Anomaly.Contamination <= 0 || c.Anomaly.Contamination >= 1 {
		return fmt.Errorf("anomaly contamination must be in (0,1): %f", c.Anomaly.Contamination)
	}
	if c.Sitrep.CronHourUTC < 0 || c.Sitrep.CronHourUTC > 23 {
		return fmt.Errorf("sitrep cron hour must be in [0,23]: %d", c.Sitrep.CronHourUTC)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(val); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}

// getEnvList splits a comma-separated env var into a trimmed slice,
// falling back to a default list when unset.
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
