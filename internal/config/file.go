package config

// File mirrors the optional TOML configuration file.
//
//	app_name = "Farma Console"
//	env = "PROD"
//
//	[api]
//	base_url = "https://farma.example.com/api/v1"
//	timeout = "15s"
//
//	[storage]
//	backend = "file"
type File struct {
	AppName    string      `toml:"app_name"`
	Env        string      `toml:"env"`
	DataFolder string      `toml:"data_folder"`
	LogLevel   string      `toml:"log_level"`
	API        FileAPI     `toml:"api"`
	Storage    FileStorage `toml:"storage"`
}

type FileAPI struct {
	BaseURL       string `toml:"base_url"`
	Timeout       string `toml:"timeout"`
	LogoutTimeout string `toml:"logout_timeout"`
}

type FileStorage struct {
	Backend     string `toml:"backend"`
	Secret      string `toml:"secret"`
	RedisAddr   string `toml:"redis_addr"`
	RedisDB     int    `toml:"redis_db"`
	RedisPrefix string `toml:"redis_prefix"`
}

// fileValue returns the value picked from the file, or "" when there is no file
func fileValue(f *File, pick func(*File) string) string {
	if f == nil {
		return ""
	}
	return pick(f)
}
