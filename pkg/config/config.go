package config

import (
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const envPrefix = "SHELFD_"

// Config holds all runtime configuration. Values are resolved in order:
// built-in defaults, then the optional YAML config file, then SHELFD_*
// environment variables. A double underscore separates key segments, so
// SHELFD_SERVER__PORT overrides server.port and SHELFD_DATABASE__FILE_PATH
// overrides database.file_path.
type Config struct {
	Environment string `koanf:"environment"`

	DatabaseFilePath          string        `koanf:"database.file_path"`
	DatabaseDebug             bool          `koanf:"database.debug"`
	DatabaseBusyTimeout       time.Duration `koanf:"database.busy_timeout"`
	DatabaseMaxRetries        int           `koanf:"database.max_retries"`
	DatabaseConnectRetryCount int           `koanf:"database.connect_retry_count"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database.connect_retry_delay"`

	ServerHost string `koanf:"server.host"`
	ServerPort int    `koanf:"server.port"`

	// TokenSecret verifies the bearer tokens minted by the identity service.
	TokenSecret string `koanf:"token.secret"`
}

func New() (*Config, error) {
	return load(configFilePath())
}

func load(filePath string) (*Config, error) {
	k := koanf.New(".")

	cfg := &Config{
		Environment:               "development",
		DatabaseFilePath:          "./tmp/data.sqlite",
		DatabaseBusyTimeout:       5 * time.Second,
		DatabaseMaxRetries:        3,
		DatabaseConnectRetryCount: 5,
		DatabaseConnectRetryDelay: 2 * time.Second,
		ServerHost:                "127.0.0.1",
		ServerPort:                4000,
	}

	if filePath != "" {
		err := k.Load(file.Provider(filePath), yaml.Parser())
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, errors.WithStack(err)
		}
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// The koanf tags use dotted paths, so flat-path matching is required for
	// them to line up with the nested map built by the providers.
	err = k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	switch cfg.Environment {
	case "development", "test", "production":
	default:
		return nil, errors.Errorf("unknown environment %q", cfg.Environment)
	}

	if cfg.Environment == "test" {
		cfg.DatabaseFilePath = "file::memory:?cache=shared"
	}
	if cfg.Environment == "production" && cfg.TokenSecret == "" {
		return nil, errors.New("token.secret is required in production")
	}

	return cfg, nil
}

// NewForTest returns a config suitable for unit tests: an in-memory database
// and no config file or environment lookups.
func NewForTest() *Config {
	return &Config{
		Environment:               "test",
		DatabaseFilePath:          "file::memory:?cache=shared",
		DatabaseBusyTimeout:       time.Second,
		DatabaseMaxRetries:        3,
		DatabaseConnectRetryCount: 1,
		DatabaseConnectRetryDelay: 10 * time.Millisecond,
		ServerHost:                "127.0.0.1",
		TokenSecret:               "test-secret",
	}
}

func configFilePath() string {
	if path := os.Getenv("SHELFD_CONFIG_FILE"); path != "" {
		return path
	}
	return "./shelfd.yml"
}
