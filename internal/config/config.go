// Package config loads server configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Challenges ChallengesConfig `yaml:"challenges"`
	Log        LogConfig        `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type ChallengesConfig struct {
	Dir string `yaml:"dir"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Default returns the configuration used when no file is present. Port
// 3001 matches what the web client expects.
func Default() *Config {
	return &Config{
		Server:     ServerConfig{Host: "", Port: 3001},
		Challenges: ChallengesConfig{Dir: "challenges"},
		Log:        LogConfig{Level: "info"},
	}
}

// Load reads config from a YAML file, then applies environment variable
// overrides. A missing file is not an error; defaults apply. Env vars
// use the prefix REPSQUAD_:
//
//	REPSQUAD_SERVER_HOST, REPSQUAD_SERVER_PORT,
//	REPSQUAD_CHALLENGES_DIR, REPSQUAD_LOG_LEVEL
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("config validation: invalid server port %d", cfg.Server.Port)
	}
	if cfg.Challenges.Dir == "" {
		return nil, fmt.Errorf("config validation: challenges dir is required")
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REPSQUAD_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("REPSQUAD_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("REPSQUAD_CHALLENGES_DIR"); v != "" {
		cfg.Challenges.Dir = v
	}
	if v := os.Getenv("REPSQUAD_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}
