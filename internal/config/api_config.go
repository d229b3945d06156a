package config

import (
	"strings"
	"time"
)

type APIConfig interface {
	GetAPIBaseURL() string
	GetRequestTimeout() time.Duration
	GetLogoutTimeout() time.Duration
}

type API struct {
	file *File
}

var _ APIConfig = API{}

// GetAPIBaseURL returns the backend base URL without a trailing slash
// (e.g., "http://localhost:8080/api/v1")
func (a API) GetAPIBaseURL() string {
	url := getEnvOrFile("API_URL", fileValue(a.file, func(f *File) string { return f.API.BaseURL }), "http://localhost:8080/api/v1")
	return strings.TrimRight(url, "/")
}

// GetRequestTimeout is the transport timeout for every backend call
func (a API) GetRequestTimeout() time.Duration {
	return durationOr(getEnvOrFile("API_TIMEOUT", fileValue(a.file, func(f *File) string { return f.API.Timeout }), ""), 30*time.Second)
}

// GetLogoutTimeout bounds the background logout notification
func (a API) GetLogoutTimeout() time.Duration {
	return durationOr(getEnvOrFile("API_LOGOUT_TIMEOUT", fileValue(a.file, func(f *File) string { return f.API.LogoutTimeout }), ""), 5*time.Second)
}

func durationOr(value string, defaultValue time.Duration) time.Duration {
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
