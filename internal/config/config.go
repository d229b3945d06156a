package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

const configFileEnvVar = "CONSOLE_CONFIG"

type Config interface {
	EnvConfig
	APIConfig
	StorageConfig
}

type EnvConfig interface {
	GetAppName() string
	GetDataFolder() string
	GetLogLevel() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	API
	Storage
}

// New builds the configuration from environment variables only
func New() Config {
	return mainConfig{}
}

// Load builds the configuration from the TOML file named by CONSOLE_CONFIG (if any).
// Environment variables always win over values from the file.
func Load() (Config, error) {
	path := os.Getenv(configFileEnvVar)
	if path == "" {
		return New(), nil
	}
	return LoadFile(path)
}

// LoadFile builds the configuration from the given TOML file
func LoadFile(path string) (Config, error) {
	var f File
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("[config.LoadFile] decode %s: %w", path, err)
	}
	return mainConfig{
		EnvVars: EnvVars{file: &f},
		API:     API{file: &f},
		Storage: Storage{file: &f},
	}, nil
}
