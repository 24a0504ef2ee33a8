package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds the application configuration
type Config struct {
	DatabasePath   string `json:"database_path"`
	DataDir        string `json:"data_dir"`
	APIPort        string `json:"api_port"`
	OwnerAddress   string `json:"owner_address"`
	OpenAIAPIKey   string `json:"openai_api_key"`
	OpenAIModel    string `json:"openai_model"`
	OpenAIBaseURL  string `json:"openai_base_url"`
	EmbedBatchSize int    `json:"embed_batch_size"`
	EmbedWorkers   int    `json:"embed_workers"`
	CORSOrigins    string `json:"cors_origins"` // comma separated, * for all
}

// Default configuration values
const (
	DefaultDatabasePath   = "data/archive.db"
	DefaultDataDir        = "data"
	DefaultAPIPort        = "8080"
	DefaultOpenAIModel    = "text-embedding-3-small"
	DefaultEmbedBatchSize = 100
	DefaultEmbedWorkers   = 4
	DefaultCORSOrigins    = "*"
)

// Load loads configuration from environment variables and config file.
// Priority: Environment variables > Config file > Default values
func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath:   DefaultDatabasePath,
		DataDir:        DefaultDataDir,
		APIPort:        DefaultAPIPort,
		OpenAIModel:    DefaultOpenAIModel,
		EmbedBatchSize: DefaultEmbedBatchSize,
		EmbedWorkers:   DefaultEmbedWorkers,
		CORSOrigins:    DefaultCORSOrigins,
	}

	// Config file is optional
	_ = cfg.loadFromFile()

	cfg.loadFromEnv()

	return cfg, nil
}

// loadFromFile loads configuration from config.json
func (c *Config) loadFromFile() error {
	configPaths := []string{
		"config.json",
		filepath.Join(c.DataDir, "config.json"),
	}

	for _, path := range configPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := json.Unmarshal(data, c); err != nil {
			return err
		}
		return nil
	}

	return nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if val := os.Getenv("ARCHIVE_DATABASE_PATH"); val != "" {
		c.DatabasePath = val
	}
	if val := os.Getenv("ARCHIVE_DATA_DIR"); val != "" {
		c.DataDir = val
	}
	if val := os.Getenv("ARCHIVE_API_PORT"); val != "" {
		c.APIPort = val
	}
	if val := os.Getenv("ARCHIVE_OWNER_ADDRESS"); val != "" {
		c.OwnerAddress = val
	}
	if val := os.Getenv("ARCHIVE_OPENAI_API_KEY"); val != "" {
		c.OpenAIAPIKey = val
	}
	if val := os.Getenv("ARCHIVE_OPENAI_MODEL"); val != "" {
		c.OpenAIModel = val
	}
	if val := os.Getenv("ARCHIVE_OPENAI_BASE_URL"); val != "" {
		c.OpenAIBaseURL = val
	}
	if val := os.Getenv("ARCHIVE_EMBED_BATCH_SIZE"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			c.EmbedBatchSize = n
		}
	}
	if val := os.Getenv("ARCHIVE_EMBED_WORKERS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			c.EmbedWorkers = n
		}
	}
	if val := os.Getenv("ARCHIVE_CORS_ORIGINS"); val != "" {
		c.CORSOrigins = val
	}
}

// Save saves the current configuration to a file
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
