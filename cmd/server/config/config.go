package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/duragraph/mediagraph/internal/domain/graph"
)

// Config holds application configuration
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Backends    BackendConfig
	BlobStore   BlobStoreConfig
	Concurrency map[graph.NodeType]int
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int
	Host string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// BackendConfig holds the generation provider API keys. Gemini is required
// since it's the sole multimodal provider; Anthropic/OpenAI are optional
// text-only providers a node may name.
type BackendConfig struct {
	GeminiAPIKey    string
	AnthropicAPIKey string
	OpenAIAPIKey    string
}

// BlobStoreConfig holds the local filesystem media store's base path.
type BlobStoreConfig struct {
	BasePath string
}

// nodeTypeEnvNames maps each node type to the NODEGRAPH_CONCURRENCY_<TYPE>
// environment variable that overrides its batch worker-pool capacity.
var nodeTypeEnvNames = map[graph.NodeType]string{
	graph.NodeTypeGenerateText:   "NODEGRAPH_CONCURRENCY_GENERATE_TEXT",
	graph.NodeTypeGenerateImage:  "NODEGRAPH_CONCURRENCY_GENERATE_IMAGE",
	graph.NodeTypeGenerateVideo:  "NODEGRAPH_CONCURRENCY_GENERATE_VIDEO",
	graph.NodeTypeGenerateSpeech: "NODEGRAPH_CONCURRENCY_GENERATE_SPEECH",
	graph.NodeTypeGenerateMusic:  "NODEGRAPH_CONCURRENCY_GENERATE_MUSIC",
	graph.NodeTypeAnalyzeImage:   "NODEGRAPH_CONCURRENCY_ANALYZE_IMAGE",
	graph.NodeTypeTransformImage: "NODEGRAPH_CONCURRENCY_TRANSFORM_IMAGE",
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvInt("PORT", 8080),
			Host: getEnv("HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "appuser"),
			Password: getEnv("DB_PASSWORD", "apppass"),
			Database: getEnv("DB_NAME", "appdb"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Backends: BackendConfig{
			GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
			AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
			OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		},
		BlobStore: BlobStoreConfig{
			BasePath: getEnv("BLOBSTORE_BASE_PATH", "./data/blobs"),
		},
		Concurrency: make(map[graph.NodeType]int),
	}

	for nodeType, envName := range nodeTypeEnvNames {
		if v := os.Getenv(envName); v != "" {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
				cfg.Concurrency[nodeType] = n
			}
		}
	}

	return cfg, nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// ServerAddr returns the server address
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
