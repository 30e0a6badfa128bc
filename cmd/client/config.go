package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the daemon configuration. Values come from the YAML config
// file and can be overridden by environment variables.
type Config struct {
	ServerURL      string `yaml:"server_url"`
	SessionDir     string `yaml:"session_dir"`
	HTTPAddr       string `yaml:"http_addr"`
	LogLevel       string `yaml:"log_level"`
	CallTimeoutSec int    `yaml:"call_timeout_sec"`
}

func defaultConfig() Config {
	return Config{
		ServerURL:      "ws://localhost:3000/ws",
		SessionDir:     ".doodleduel",
		HTTPAddr:       ":8090",
		LogLevel:       "info",
		CallTimeoutSec: 5,
	}
}

func loadConfig(path string) (Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return config, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse config: %w", err)
	}

	config.ServerURL = getEnv("SERVER_URL", config.ServerURL)
	config.SessionDir = getEnv("SESSION_DIR", config.SessionDir)
	config.HTTPAddr = getEnv("HTTP_ADDR", config.HTTPAddr)
	config.LogLevel = getEnv("LOG_LEVEL", config.LogLevel)
	config.CallTimeoutSec = getEnvAsInt("CALL_TIMEOUT_SEC", config.CallTimeoutSec)
	return config, nil
}

func (c Config) callTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSec) * time.Second
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
