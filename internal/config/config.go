package config

import (
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server  Server  `yaml:"server"`
	Backend Backend `yaml:"backend"`
	Sync    Sync    `yaml:"sync"`
}

// Server holds HTTP server configuration
type Server struct {
	Host         string        `yaml:"host" env:"SERVER_HOST" env-default:"127.0.0.1"`
	Port         string        `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"15s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
}

// Address returns the full server address
func (s Server) Address() string {
	return s.Host + ":" + s.Port
}

// Backend holds chat backend API configuration
type Backend struct {
	BaseURL string `yaml:"base_url" env:"BACKEND_BASE_URL" env-default:"https://chat.example.com"`
	Token   string `yaml:"token" env:"BACKEND_TOKEN"`
	Role    string `yaml:"role" env:"BACKEND_ROLE" env-default:"user"`
}

// Sync holds synchronization cadence configuration
type Sync struct {
	ThreadInterval      time.Duration `yaml:"thread_interval" env:"SYNC_THREAD_INTERVAL" env-default:"30s"`
	FeedInterval        time.Duration `yaml:"feed_interval" env:"SYNC_FEED_INTERVAL" env-default:"45s"`
	MessagePollInterval time.Duration `yaml:"message_poll_interval" env:"SYNC_MESSAGE_POLL_INTERVAL" env-default:"5s"`
	DebounceQuiet       time.Duration `yaml:"debounce_quiet" env:"SYNC_DEBOUNCE_QUIET" env-default:"400ms"`
	PageLimit           int           `yaml:"page_limit" env:"SYNC_PAGE_LIMIT" env-default:"50"`
	FeedPageLimit       int           `yaml:"feed_page_limit" env:"SYNC_FEED_PAGE_LIMIT" env-default:"30"`
	ReplyLimit          int           `yaml:"reply_limit" env:"SYNC_REPLY_LIMIT" env-default:"3"`
}

// MustLoad loads configuration from environment and panics on error
func MustLoad() Config {
	// Load .env file if exists (for development)
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	return cfg
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
