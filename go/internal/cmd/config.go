package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mcdev12/kiradelay/go/internal/models"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Storage struct {
		Backend  string `yaml:"backend"`
		FilePath string `yaml:"file_path"`
		Table    string `yaml:"table"`
	} `yaml:"storage"`

	Profiles struct {
		HistoryCap int `yaml:"history_cap"`
	} `yaml:"profiles"`

	Game struct {
		SchoolStart     string `yaml:"school_start"`
		CommentaryEvery int    `yaml:"commentary_every"`
	} `yaml:"game"`

	Commentary struct {
		APIKey  string        `yaml:"api_key"`
		BaseURL string        `yaml:"base_url"`
		Model   string        `yaml:"model"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"commentary"`

	Events struct {
		Backend       string   `yaml:"backend"`
		NatsURL       string   `yaml:"nats_url"`
		Stream        string   `yaml:"stream"`
		SubjectPrefix string   `yaml:"subject_prefix"`
		KafkaBrokers  []string `yaml:"kafka_brokers"`
		KafkaTopic    string   `yaml:"kafka_topic"`
	} `yaml:"events"`
}

// Storage backends
const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StoragePostgres = "postgres"
	StoragePgx      = "pgx"
)

// Event backends
const (
	EventsLog   = "log"
	EventsNats  = "nats"
	EventsKafka = "kafka"
)

func defaultConfig() *Config {
	var c Config
	c.Server.Port = "8080"
	c.Storage.Backend = StorageFile
	c.Storage.FilePath = "kiradelay.json"
	c.Storage.Table = "kv_state"
	c.Profiles.HistoryCap = 50
	c.Game.SchoolStart = "08:00"
	c.Game.CommentaryEvery = 3
	c.Commentary.Timeout = 15 * time.Second
	c.Events.Backend = EventsLog
	c.Events.NatsURL = "nats://localhost:4222"
	c.Events.Stream = "KIRA_ROUNDS"
	c.Events.SubjectPrefix = "kira.events"
	c.Events.KafkaTopic = "kira-rounds"
	return &c
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// loadConfig reads path over the defaults, then applies environment overrides.
// A missing file is not an error.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	config.applyEnv()
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Storage.Backend = getEnv("STORAGE_BACKEND", c.Storage.Backend)
	c.Storage.FilePath = getEnv("STORAGE_FILE", c.Storage.FilePath)
	c.Storage.Table = getEnv("STORAGE_TABLE", c.Storage.Table)
	c.Profiles.HistoryCap = getEnvAsInt("HISTORY_CAP", c.Profiles.HistoryCap)
	c.Game.SchoolStart = getEnv("SCHOOL_START", c.Game.SchoolStart)
	c.Game.CommentaryEvery = getEnvAsInt("COMMENTARY_EVERY", c.Game.CommentaryEvery)
	c.Commentary.APIKey = getEnv("GEMINI_API_KEY", c.Commentary.APIKey)
	c.Commentary.BaseURL = getEnv("GEMINI_BASE_URL", c.Commentary.BaseURL)
	c.Commentary.Model = getEnv("GEMINI_MODEL", c.Commentary.Model)
	c.Commentary.Timeout = getEnvAsDuration("COMMENTARY_TIMEOUT", c.Commentary.Timeout)
	c.Events.Backend = getEnv("EVENTS_BACKEND", c.Events.Backend)
	c.Events.NatsURL = getEnv("NATS_URL", c.Events.NatsURL)
	c.Events.Stream = getEnv("NATS_STREAM", c.Events.Stream)
	c.Events.SubjectPrefix = getEnv("NATS_SUBJECT_PREFIX", c.Events.SubjectPrefix)
	c.Events.KafkaBrokers = getEnvAsList("KAFKA_BROKERS", c.Events.KafkaBrokers)
	c.Events.KafkaTopic = getEnv("KAFKA_TOPIC", c.Events.KafkaTopic)
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case StorageMemory, StorageFile, StoragePostgres, StoragePgx:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	switch c.Events.Backend {
	case EventsLog, EventsNats, EventsKafka:
	default:
		return fmt.Errorf("unknown events backend %q", c.Events.Backend)
	}
	if _, err := models.ParseTimeOfDay(c.Game.SchoolStart); err != nil {
		return fmt.Errorf("school_start: %w", err)
	}
	if c.Profiles.HistoryCap <= 0 {
		return fmt.Errorf("history_cap must be positive, got %d", c.Profiles.HistoryCap)
	}
	if c.Game.CommentaryEvery <= 0 {
		return fmt.Errorf("commentary_every must be positive, got %d", c.Game.CommentaryEvery)
	}
	return nil
}

// SchoolStart returns the validated school start time
func (c *Config) SchoolStart() models.TimeOfDay {
	return models.MustParseTimeOfDay(c.Game.SchoolStart)
}
