// Package config aggregates every component's Config into one
// top-level structure, loaded from environment variables with an
// optional YAML overlay.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/arcadia-ai/arcadia/dht"
	"github.com/arcadia-ai/arcadia/feedback"
	"github.com/arcadia-ai/arcadia/goap"
	"github.com/arcadia-ai/arcadia/layers"
	"github.com/arcadia-ai/arcadia/learning"
	"github.com/arcadia-ai/arcadia/optimizer"
)

// Config holds every component's configuration plus process-wide
// settings.
type Config struct {
	LogLevel       string
	VectorDim      int
	ReplayCapacity int

	GOAP      goap.Config
	Feedback  feedback.Config
	Learning  learning.Config
	Optimizer optimizer.Config
	Layers    layers.Config
	DHT       dht.Config
}

// Load reads configuration from environment variables with sensible
// defaults, then applies a YAML overlay if path is non-empty.
func Load(path string) (*Config, error) {
	cfg := &Config{
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		VectorDim:      getEnvAsInt("ARCADIA_VECTOR_DIM", 128),
		ReplayCapacity: getEnvAsInt("ARCADIA_REPLAY_CAPACITY", 10000),

		GOAP:      goap.DefaultConfig(),
		Feedback:  feedback.DefaultConfig(),
		Learning:  learning.DefaultConfig(),
		Optimizer: optimizer.DefaultConfig(),
		Layers:    layers.Config{EnableFusion: getEnvAsBool("ARCADIA_ENABLE_LAYER_FUSION", false)},
		DHT: dht.Config{
			NodeID:             getEnv("ARCADIA_NODE_ID", "node-0"),
			ReplicationFactor:  getEnvAsInt("ARCADIA_REPLICATION_FACTOR", 3),
			HeartbeatTimeoutMs: int64(getEnvAsInt("ARCADIA_HEARTBEAT_TIMEOUT_MS", 5000)),
			ClusterSize:        getEnvAsInt("ARCADIA_CLUSTER_SIZE", 1),
		},
	}

	if path != "" {
		if err := applyYAMLOverlay(cfg, path); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	return cfg, nil
}

// overlay mirrors Config's shape for selective YAML overrides; a key
// absent from the file leaves the env-derived default untouched, while
// a key present in the file overrides it, even with a zero value.
type overlay struct {
	LogLevel       *string `yaml:"log_level"`
	VectorDim      *int    `yaml:"vector_dim"`
	ReplayCapacity *int    `yaml:"replay_capacity"`
	DHT            *struct {
		NodeID            *string `yaml:"node_id"`
		ReplicationFactor *int    `yaml:"replication_factor"`
	} `yaml:"dht"`
}

func applyYAMLOverlay(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var ov overlay
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return err
	}
	if ov.LogLevel != nil {
		cfg.LogLevel = *ov.LogLevel
	}
	if ov.VectorDim != nil {
		cfg.VectorDim = *ov.VectorDim
	}
	if ov.ReplayCapacity != nil {
		cfg.ReplayCapacity = *ov.ReplayCapacity
	}
	if ov.DHT != nil {
		if ov.DHT.NodeID != nil {
			cfg.DHT.NodeID = *ov.DHT.NodeID
		}
		if ov.DHT.ReplicationFactor != nil {
			cfg.DHT.ReplicationFactor = *ov.DHT.ReplicationFactor
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
