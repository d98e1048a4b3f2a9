package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds every environment-selected setting the server reads at
// startup. Fields are pruned to what the twofold session server and
// the out-of-scope history/viewer-auth collaborators actually read;
// there is no local-account, matchmaking, or time-control config
// because those features don't exist in this build.
type Config struct {
	Environment string `json:"environment"`
	Server      struct {
		Host string `json:"host"`
		Port int    `json:"port"`
	} `json:"server"`
	MongoDB struct {
		URI      string `json:"uri"`
		Database string `json:"database"`
	} `json:"mongodb"`
	Frontend struct {
		URL string `json:"url"`
	} `json:"frontend"`
	ViewerJWT struct {
		Secret string `json:"secret"`
		TTLMin int    `json:"ttlMinutes"`
	} `json:"viewerJwt"`
	OAuth struct {
		GoogleClientID     string `json:"googleClientId"`
		GoogleClientSecret string `json:"googleClientSecret"`
		GoogleRedirectURL  string `json:"googleRedirectUrl"`
	} `json:"oauth"`
	Debug struct {
		AdminKeyHash string `json:"adminKeyHash"` // bcrypt hash; gates /api/debug/setup
	} `json:"debug"`
	Session struct {
		ReconnectWindowSec int `json:"reconnectWindowSec"`
		GCIntervalSec      int `json:"gcIntervalSec"`
		IdleTimeoutSec     int `json:"idleTimeoutSec"`
	} `json:"session"`
}

func Load(env string) (*Config, error) {
	configDir := os.Getenv("CONFIG_DIR")
	if configDir == "" {
		configDir = "configs"
	}

	filename := fmt.Sprintf("config.%s.json", env)
	configPath := filepath.Join(configDir, filename)

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	configStr := expandEnvVars(string(data))

	var cfg Config
	if err := json.Unmarshal([]byte(configStr), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Environment = env
	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} with environment variable values.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		return os.Getenv(key)
	})
}

func GetEnv() string {
	env := os.Getenv("TWOFOLD_ENV")
	if env == "" {
		return "dev"
	}
	return env
}

// IsProduction reports whether the server is running in the
// environment that disables the debug-scenario endpoint regardless of
// admin key correctness (SPEC_FULL §4.4).
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
