package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Port      string `mapstructure:"port"`
	UploadDir string `mapstructure:"upload_dir"`

	AIProvider string       `mapstructure:"ai_provider"` // "gemini" or "openai"
	Gemini     GeminiConfig `mapstructure:"gemini"`
	OpenAI     OpenAIConfig `mapstructure:"openai"`

	Chunking ChunkingConfig `mapstructure:"chunking"`

	MongoURI      string `mapstructure:"MONGODB_URI"`
	MongoDatabase string `mapstructure:"mongo_database"`

	WeaviateStoreConfig WeaviateStoreConfig `mapstructure:"weaviate_store_config"`
	Storage             StorageConfig       `mapstructure:"storage"`

	ArchivePath string `mapstructure:"archive_path"`
}

type GeminiConfig struct {
	APIKeys    []string `mapstructure:"api_keys"`
	Model      string   `mapstructure:"model"`
	EmbedModel string   `mapstructure:"embed_model"`
}

type OpenAIConfig struct {
	Endpoint   string `mapstructure:"endpoint"`
	APIKey     string `mapstructure:"OPENAI_API_KEY"`
	Model      string `mapstructure:"model"`
	EmbedModel string `mapstructure:"embed_model"`
}

type ChunkingConfig struct {
	MaxChunkSize int `mapstructure:"max_chunk_size"`
	OverlapSize  int `mapstructure:"overlap_size"`
}

type WeaviateStoreConfig struct {
	Host         string       `mapstructure:"host"`
	APIKey       string       `mapstructure:"WEAVIATE_APIKEY"` // Changed to match env var
	Text2Vec     string       `mapstructure:"text2vec"`
	ModuleConfig ModuleConfig `mapstructure:"module_config"`
}

type ModuleConfig map[string]interface{}

type StorageConfig struct {
	Backend string      `mapstructure:"backend"` // "local" or "minio"
	MinIO   MinIOConfig `mapstructure:"minio"`
}

type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"MINIO_ACCESS_KEY"`
	SecretKey string `mapstructure:"MINIO_SECRET_KEY"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set up Viper to read from config file
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Set up Viper to read from environment variables
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Bind environment variables
	v.BindEnv("OPENAI_API_KEY")
	v.BindEnv("WEAVIATE_APIKEY")
	v.BindEnv("MONGODB_URI")
	v.BindEnv("GEMINI_API_KEY")
	v.BindEnv("MINIO_ACCESS_KEY")
	v.BindEnv("MINIO_SECRET_KEY")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if key := v.GetString("GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKeys = append(config.Gemini.APIKeys, key)
	}
	if key := v.GetString("OPENAI_API_KEY"); key != "" {
		config.OpenAI.APIKey = key
	}
	if uri := v.GetString("MONGODB_URI"); uri != "" {
		config.MongoURI = uri
	}
	if key := v.GetString("MINIO_ACCESS_KEY"); key != "" {
		config.Storage.MinIO.AccessKey = key
	}
	if key := v.GetString("MINIO_SECRET_KEY"); key != "" {
		config.Storage.MinIO.SecretKey = key
	}

	applyDefaults(&config)

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Port == "" {
		config.Port = "8501"
	}
	if config.UploadDir == "" {
		config.UploadDir = "uploads"
	}
	if config.AIProvider == "" {
		config.AIProvider = "gemini"
	}
	if config.Gemini.Model == "" {
		config.Gemini.Model = "models/gemini-1.5-pro"
	}
	if config.Gemini.EmbedModel == "" {
		config.Gemini.EmbedModel = "models/embedding-001"
	}
	if config.OpenAI.EmbedModel == "" {
		config.OpenAI.EmbedModel = "text-embedding-3-small"
	}
	if config.Chunking.MaxChunkSize == 0 {
		config.Chunking.MaxChunkSize = 1024
	}
	if config.Chunking.OverlapSize == 0 {
		config.Chunking.OverlapSize = 128
	}
	if config.MongoDatabase == "" {
		config.MongoDatabase = "paperchat"
	}
	if config.Storage.Backend == "" {
		config.Storage.Backend = "local"
	}
	if config.ArchivePath == "" {
		config.ArchivePath = "data/storage.json"
	}
}
