package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env    string
	HTTP   HTTP
	Data   Data
	Auth   Auth
	Search Search
}

type HTTP struct {
	Address string
	Port    int
}

type Data struct {
	Dir       string
	StaticDir string
}

type Auth struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type Search struct {
	IndexPath string
}

// MustLoad reads config/config.yaml if present and falls back to
// defaults. Every key can be overridden with an INKWELL_ prefixed
// environment variable (INKWELL_AUTH_SECRET, INKWELL_HTTP_PORT, ...).
func MustLoad() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("inkwell")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("env", "dev")

	viper.SetDefault("http.address", "0.0.0.0")
	viper.SetDefault("http.port", 8080)

	viper.SetDefault("data.dir", "blogdata")
	viper.SetDefault("data.static_dir", "static")

	viper.SetDefault("auth.secret", "")
	viper.SetDefault("auth.access_ttl", "15m")
	viper.SetDefault("auth.refresh_ttl", "168h")

	viper.SetDefault("search.index_path", "blogdata/search.bleve")

	// Missing config file is fine, defaults and env cover everything.
	_ = viper.ReadInConfig()

	return &Config{
		Env: viper.GetString("env"),
		HTTP: HTTP{
			Address: viper.GetString("http.address"),
			Port:    viper.GetInt("http.port"),
		},
		Data: Data{
			Dir:       viper.GetString("data.dir"),
			StaticDir: viper.GetString("data.static_dir"),
		},
		Auth: Auth{
			Secret:     viper.GetString("auth.secret"),
			AccessTTL:  viper.GetDuration("auth.access_ttl"),
			RefreshTTL: viper.GetDuration("auth.refresh_ttl"),
		},
		Search: Search{
			IndexPath: viper.GetString("search.index_path"),
		},
	}
}
