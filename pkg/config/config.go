package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Redis      RedisConfig
	SQLite     SQLiteConfig
	Neo4j      Neo4jConfig
	Vector     VectorConfig
	LLM        LLMConfig
	Sources    SourcesConfig
	Validation ValidationConfig
	Compiler   CompilerConfig
	Loop       LoopConfig
	Logging    LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type SQLiteConfig struct {
	Enabled bool
	Path    string
}

type Neo4jConfig struct {
	Enabled  bool
	URI      string
	Username string
	Password string
	Database string
}

type VectorConfig struct {
	Enabled        bool
	Endpoint       string
	APIKey         string
	CollectionName string
}

type LLMConfig struct {
	Enabled     bool
	Model       string
	APIKey      string
	Temperature float32
	MaxTokens   int
	TimeoutSec  int
}

type SourcesConfig struct {
	Enabled           []string
	SerpAPIKey        string
	BraveAPIKey       string
	MaxResults        int
	TimeoutSec        int
	WindowRequests    int
	WindowDurationSec int
}

type ValidationConfig struct {
	MaxRequests          int
	CacheTTLSec          int
	CredibilityThreshold float64
}

type CompilerConfig struct {
	MaxConcepts         int
	EmbeddingDimensions int
	SimilarityThreshold float64
	GraphMaxEntries     int
	QueryDepth          int
}

type LoopConfig struct {
	MaxIterations        int
	ConvergenceThreshold float64
	HistoryLimit         int
	MetricsRate          float64
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/cognitive-agent")

	viper.SetEnvPrefix("COGNITIVE_AGENT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 120)
	viper.SetDefault("server.bodyLimit", 1048576)

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("sqlite.enabled", true)
	viper.SetDefault("sqlite.path", "./data/cognitive.db")

	viper.SetDefault("neo4j.enabled", false)
	viper.SetDefault("neo4j.uri", "bolt://localhost:7687")
	viper.SetDefault("neo4j.username", "neo4j")
	viper.SetDefault("neo4j.password", "password")
	viper.SetDefault("neo4j.database", "neo4j")

	viper.SetDefault("vector.enabled", false)
	viper.SetDefault("vector.endpoint", "localhost:19530")
	viper.SetDefault("vector.collectionName", "concept_embeddings")

	viper.SetDefault("llm.enabled", false)
	viper.SetDefault("llm.model", "gpt-4")
	viper.SetDefault("llm.temperature", 0.2)
	viper.SetDefault("llm.maxTokens", 512)
	viper.SetDefault("llm.timeoutSec", 30)

	viper.SetDefault("sources.enabled", []string{"duckduckgo"})
	viper.SetDefault("sources.maxResults", 10)
	viper.SetDefault("sources.timeoutSec", 10)
	viper.SetDefault("sources.windowRequests", 100)
	viper.SetDefault("sources.windowDurationSec", 60)

	viper.SetDefault("validation.maxRequests", 10)
	viper.SetDefault("validation.cacheTTLSec", 3600)
	viper.SetDefault("validation.credibilityThreshold", 0.6)

	viper.SetDefault("compiler.maxConcepts", 50)
	viper.SetDefault("compiler.embeddingDimensions", 384)
	viper.SetDefault("compiler.similarityThreshold", 0.7)
	viper.SetDefault("compiler.graphMaxEntries", 10000)
	viper.SetDefault("compiler.queryDepth", 2)

	viper.SetDefault("loop.maxIterations", 5)
	viper.SetDefault("loop.convergenceThreshold", 0.8)
	viper.SetDefault("loop.historyLimit", 100)
	viper.SetDefault("loop.metricsRate", 0.1)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
