package config

import (
	"os"
	"strings"
)

const (
	appNameVar   = "APP_NAME"
	folderEnvVar = "FOLDER"
	logLevelVar  = "LOG_LEVEL"
	envVar       = "ENV"
)

type EnvVars struct {
	file *File
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return getEnvOrFile(appNameVar, fileValue(e.file, func(f *File) string { return f.AppName }), "Farma Console")
}

func (e EnvVars) GetDataFolder() string {
	return getEnvOrFile(folderEnvVar, fileValue(e.file, func(f *File) string { return f.DataFolder }), "./data")
}

func (e EnvVars) GetLogLevel() string {
	return strings.ToLower(getEnvOrFile(logLevelVar, fileValue(e.file, func(f *File) string { return f.LogLevel }), "info"))
}

func (e EnvVars) GetEnv() string {
	return strings.ToUpper(getEnvOrFile(envVar, fileValue(e.file, func(f *File) string { return f.Env }), "DEV"))
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvOrFile resolves env var, then file value, then default
func getEnvOrFile(envVar, fileValue, defaultValue string) string {
	if fileValue != "" {
		defaultValue = fileValue
	}
	return GetEnv(envVar, defaultValue)
}
