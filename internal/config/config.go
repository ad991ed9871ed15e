package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"

	"github.com/stratumlab/sowforge/internal/pkg/apperr"
)

type Config struct {
	Port        int              `json:"port"`
	JWTSecret   string           `json:"jwt_secret"`
	JWTTTLHours int              `json:"jwt_ttl_hours"`
	CORSOrigins []string         `json:"cors_origins"`
	LogConfig   logger.LogConfig `json:"log_config"`
	Database    DatabaseConfig   `json:"database"`
	FileStore   FileStoreConfig  `json:"file_store"`
	AI          AIConfig         `json:"ai"`
	Chunking    ChunkingConfig   `json:"chunking"`
	Vector      VectorConfig     `json:"vector"`
	Warehouse   WarehouseConfig  `json:"warehouse"`
	Retry       RetryConfig      `json:"retry"`
	Jobs        JobsConfig       `json:"jobs"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// AIConfig selects the embedding and generation backends once at
// startup. An empty gen_provider leaves generation in templated
// fallback mode; embed_provider defaults to the offline hash embedder.
type AIConfig struct {
	EmbedProvider string      `json:"embed_provider"`
	EmbedModel    string      `json:"embed_model"`
	EmbedDim      int         `json:"embed_dim"`
	GenProvider   string      `json:"gen_provider"`
	GenModel      string      `json:"gen_model"`
	Data          interface{} `json:"data"`
}

type ChunkingConfig struct {
	Size    int `json:"size"`
	Overlap int `json:"overlap"`
}

type VectorConfig struct {
	// Mode is "memory" (local linear scan) or "remote".
	Mode   string            `json:"mode"`
	Remote RemoteIndexConfig `json:"remote"`
}

type RemoteIndexConfig struct {
	Host     string `json:"host"`
	Token    string `json:"token"`
	Endpoint string `json:"endpoint"`
	Index    string `json:"index"`
}

type WarehouseConfig struct {
	Enabled     bool   `json:"enabled"`
	Host        string `json:"host"`
	Token       string `json:"token"`
	WarehouseID string `json:"warehouse_id"`
	Catalog     string `json:"catalog"`
	Schema      string `json:"schema"`
}

type RetryConfig struct {
	MaxAttempts int    `json:"max_attempts"`
	Backoff     string `json:"backoff"`
	DelayMs     int    `json:"delay_ms"`
}

type JobsConfig struct {
	EmbeddingBackfillSpec string `json:"embedding_backfill_spec"`
	WarehouseSyncSpec     string `json:"warehouse_sync_spec"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() error {
	if c.JWTTTLHours == 0 {
		c.JWTTTLHours = 72
	}
	if c.LogConfig.Level == "" {
		c.LogConfig.Level = "info"
	}
	if c.FileStore.Type == "" {
		c.FileStore.Type = "local"
	}
	if c.AI.EmbedProvider == "" {
		c.AI.EmbedProvider = "hash"
	}
	if c.AI.EmbedDim == 0 {
		c.AI.EmbedDim = 384
	}
	if c.Chunking.Size == 0 {
		c.Chunking.Size = 800
	}
	if c.Chunking.Overlap == 0 {
		c.Chunking.Overlap = 120
	}
	if c.Vector.Mode == "" {
		c.Vector.Mode = "memory"
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.Backoff == "" {
		c.Retry.Backoff = "none"
	}
	if c.Jobs.EmbeddingBackfillSpec == "" {
		c.Jobs.EmbeddingBackfillSpec = "*/5 * * * *"
	}
	if c.Jobs.WarehouseSyncSpec == "" {
		c.Jobs.WarehouseSyncSpec = "*/10 * * * *"
	}
	return nil
}

func (c *Config) validate() error {
	if c.Port == 0 {
		return fmt.Errorf("%w: port is required", apperr.ErrInvalidConfig)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("%w: jwt_secret is required", apperr.ErrInvalidConfig)
	}
	if c.Database.DSN == "" && (c.Database.Host == "" || c.Database.DBName == "") {
		return fmt.Errorf("%w: database dsn or host/db_name is required", apperr.ErrInvalidConfig)
	}
	if c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("%w: chunking.overlap must be smaller than chunking.size", apperr.ErrInvalidConfig)
	}
	if c.AI.EmbedDim <= 0 {
		return fmt.Errorf("%w: ai.embed_dim must be positive", apperr.ErrInvalidConfig)
	}
	switch c.Vector.Mode {
	case "memory":
	case "remote":
		if c.Vector.Remote.Host == "" || c.Vector.Remote.Token == "" || c.Vector.Remote.Index == "" {
			return fmt.Errorf("%w: vector.remote host/token/index are required", apperr.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: vector.mode must be memory or remote", apperr.ErrInvalidConfig)
	}
	if c.Warehouse.Enabled {
		if c.Warehouse.Host == "" || c.Warehouse.Token == "" || c.Warehouse.WarehouseID == "" {
			return fmt.Errorf("%w: warehouse host/token/warehouse_id are required", apperr.ErrInvalidConfig)
		}
	}
	switch c.Retry.Backoff {
	case "none", "fixed", "exponential":
	default:
		return fmt.Errorf("%w: retry.backoff must be none, fixed or exponential", apperr.ErrInvalidConfig)
	}
	return nil
}
