package main

import (
	"os"

	"github.com/bytedance/sonic"
)

type Config struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`

	// Optional; empty means the in-memory session store.
	RedisAddr     string `json:"redis_addr,omitempty"`
	RedisPassword string `json:"redis_password,omitempty"`

	SessionTTLMinutes          int `json:"session_ttl_minutes,omitempty"`
	CollaboratorTimeoutSeconds int `json:"collaborator_timeout_seconds,omitempty"`
	MaxAttempts                int `json:"max_attempts,omitempty"`
}

func loadConfig(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var conf Config
	if err := sonic.Unmarshal(file, &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}
