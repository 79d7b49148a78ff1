package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Storage backends accepted by LIBRARY_STORAGE.
const (
	StorageFile   = "file"
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageMongo  = "mongo"
)

type Config struct {
	APIURL             string        `env:"LIBRARY_API_URL,             default=http://localhost:5000/api"`
	HTTPTimeout        time.Duration `env:"LIBRARY_HTTP_TIMEOUT,        default=15s"`
	LogLevel           string        `env:"LIBRARY_LOG_LEVEL,           default=info"`
	LogPretty          bool          `env:"LIBRARY_LOG_PRETTY,          default=true"`
	ValidationInterval time.Duration `env:"LIBRARY_VALIDATION_INTERVAL, default=5m"`
	// AppVersion overrides the link-time build version. Leave empty in
	// production builds.
	AppVersion string `env:"LIBRARY_APP_VERSION"`
	StatusAddr string `env:"LIBRARY_STATUS_ADDR, default=127.0.0.1:9477"`

	Storage StorageConfig
	Redis   RedisConfig
	Mongo   MongoConfig
}

type StorageConfig struct {
	Backend string `env:"LIBRARY_STORAGE,    default=file"`
	File    string `env:"LIBRARY_STATE_FILE"`
	// Profile namespaces keys on shared backends (redis, mongo) so several
	// users or machines can share one server.
	Profile string `env:"LIBRARY_PROFILE,    default=default"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=library_client"`
}

// Load reads configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration through the given lookuper. Tests pass an
// envconfig.MapLookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.Storage.Backend == StorageFile && cfg.Storage.File == "" {
		cfg.Storage.File = defaultStateFile()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: LIBRARY_API_URL %q is not an absolute URL", c.APIURL)
	}
	switch c.Storage.Backend {
	case StorageFile, StorageMemory, StorageRedis, StorageMongo:
	default:
		return fmt.Errorf("config: unknown LIBRARY_STORAGE %q", c.Storage.Backend)
	}
	if c.ValidationInterval <= 0 {
		return fmt.Errorf("config: LIBRARY_VALIDATION_INTERVAL must be positive")
	}
	return nil
}

func defaultStateFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "library-client", "session.json")
}
