package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
)

// ServiceConfig configures the cropscoped HTTP service. It is read from an
// optional YAML file and CROPSCOPE_* environment variables.
type ServiceConfig struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Policy   string         `mapstructure:"policy"` // optional scoring policy file
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig configures the HTTP listener and its middleware.
type ServerConfig struct {
	Port        int      `mapstructure:"port"`
	APIKey      string   `mapstructure:"api_key"` // empty disables auth
	CORSOrigins []string `mapstructure:"cors_origins"`
	RateLimit   float64  `mapstructure:"rate_limit"` // requests per second per client; 0 disables
	RateBurst   int      `mapstructure:"rate_burst"`
}

// DatabaseConfig configures the catalog registry database.
type DatabaseConfig struct {
	URL     string `mapstructure:"url"` // empty runs without a registry
	Migrate bool   `mapstructure:"migrate"`
}

// StorageConfig selects the catalog blob store.
type StorageConfig struct {
	Driver   string `mapstructure:"driver"` // local, s3 or gcs
	Dir      string `mapstructure:"dir"`
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"` // S3-compatible endpoint override
}

// CatalogConfig controls which catalog serves requests.
type CatalogConfig struct {
	Path      string `mapstructure:"path"` // file catalog used when no registry version is active
	CacheSize int    `mapstructure:"cache_size"`
}

// LoadService reads the service configuration. path may be empty, in which
// case ./cropscoped.yaml is used if present.
func LoadService(path string) (*ServiceConfig, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("cropscoped")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("CROPSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.api_key", "")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 10.0)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("database.url", "")
	v.SetDefault("database.migrate", true)
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.dir", "./catalogs")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.prefix", "catalogs")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("catalog.path", "")
	v.SetDefault("catalog.cache_size", 8)
	v.SetDefault("policy", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); path != "" || !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg ServiceConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	switch cfg.Storage.Driver {
	case "local", "s3", "gcs":
	default:
		return nil, eris.Errorf("config: unknown storage driver %q", cfg.Storage.Driver)
	}
	if cfg.Storage.Driver != "local" && cfg.Storage.Bucket == "" {
		return nil, eris.Errorf("config: storage driver %s requires storage.bucket", cfg.Storage.Driver)
	}
	return &cfg, nil
}
