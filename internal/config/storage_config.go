package config

import (
	"strconv"
	"strings"
)

// StorageBackend selects the durable storage capability
type StorageBackend string

const (
	StorageNone   StorageBackend = "none"   // Headless, nothing is persisted
	StorageMemory StorageBackend = "memory" // Lives as long as the process
	StorageFile   StorageBackend = "file"   // JSON document in the data folder
	StorageRedis  StorageBackend = "redis"  // Shared Redis instance
)

type StorageConfig interface {
	GetStorageBackend() StorageBackend
	GetStorageSecret() string
	GetRedisAddr() string
	GetRedisDB() int
	GetRedisPrefix() string
}

type Storage struct {
	file *File
}

var _ StorageConfig = Storage{}

func (s Storage) GetStorageBackend() StorageBackend {
	backend := getEnvOrFile("STORAGE", fileValue(s.file, func(f *File) string { return f.Storage.Backend }), string(StorageFile))
	switch b := StorageBackend(strings.ToLower(backend)); b {
	case StorageNone, StorageMemory, StorageFile, StorageRedis:
		return b
	}
	return StorageNone
}

// GetStorageSecret returns the passphrase used to seal values at rest ("" disables sealing)
func (s Storage) GetStorageSecret() string {
	return getEnvOrFile("STORAGE_SECRET", fileValue(s.file, func(f *File) string { return f.Storage.Secret }), "")
}

func (s Storage) GetRedisAddr() string {
	return getEnvOrFile("REDIS_ADDR", fileValue(s.file, func(f *File) string { return f.Storage.RedisAddr }), "localhost:6379")
}

func (s Storage) GetRedisDB() int {
	fileDB := ""
	if s.file != nil && s.file.Storage.RedisDB != 0 {
		fileDB = strconv.Itoa(s.file.Storage.RedisDB)
	}
	db, err := strconv.Atoi(getEnvOrFile("REDIS_DB", fileDB, "0"))
	if err != nil {
		return 0
	}
	return db
}

func (s Storage) GetRedisPrefix() string {
	return getEnvOrFile("REDIS_PREFIX", fileValue(s.file, func(f *File) string { return f.Storage.RedisPrefix }), "farma-console||")
}
