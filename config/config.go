// Package config loads application settings from a YAML file or the
// environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/nspcc-dev/lukchat"
	"github.com/nspcc-dev/lukchat/storage"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath is an environment variable with the path to the config file.
const EnvConfigPath = "LUKCHAT_CONFIG"

type (
	// Config is the application configuration.
	Config struct {
		Node       NodeConfig       `yaml:"node"`
		Storage    storage.Options  `yaml:"storage"`
		Logger     LoggerConfig     `yaml:"logger"`
		Metrics    MetricsConfig    `yaml:"metrics"`
		Simulation SimulationConfig `yaml:"simulation"`
	}

	// NodeConfig describes the local node.
	NodeConfig struct {
		Role    string          `yaml:"role"`
		Key     string          `yaml:"key"`
		Profile lukchat.Profile `yaml:"profile"`
	}

	// MetricsConfig describes Prometheus endpoint.
	MetricsConfig struct {
		Enabled bool   `yaml:"enabled"`
		Address string `yaml:"address"`
	}

	// SimulationConfig describes a local multi-node run.
	SimulationConfig struct {
		Nodes    int           `yaml:"nodes"`
		Miners   int           `yaml:"miners"`
		Interval time.Duration `yaml:"interval"`
		Duration time.Duration `yaml:"duration"`
	}
)

// Default values.
const (
	DefaultRole               = "user"
	DefaultMetricsAddress     = ":9090"
	DefaultSimulationNodes    = 4
	DefaultSimulationMiners   = 2
	DefaultSimulationInterval = 200 * time.Millisecond
	DefaultSimulationDuration = 5 * time.Second
)

// Load reads the file from LUKCHAT_CONFIG if it is set, otherwise the
// configuration is built from LUKCHAT_* environment variables.
func Load() (*Config, error) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return LoadFile(path)
	}

	cfg := &Config{
		Node: NodeConfig{
			Role: getEnv("LUKCHAT_ROLE", DefaultRole),
			Key:  getEnv("LUKCHAT_KEY", ""),
			Profile: lukchat.Profile{
				Name:          getEnv("LUKCHAT_NAME", ""),
				ListenAddress: getEnv("LUKCHAT_LISTEN_ADDRESS", ""),
				LookupAddress: getEnv("LUKCHAT_LOOKUP_ADDRESS", ""),
				DataDir:       getEnv("LUKCHAT_DATA_DIR", ""),
			},
		},
		Storage: storage.Options{
			Driver: storage.Driver(getEnv("LUKCHAT_STORAGE_DRIVER", string(storage.DriverMemory))),
			Path:   getEnv("LUKCHAT_STORAGE_PATH", ""),
			Redis: storage.RedisOptions{
				Address:  getEnv("LUKCHAT_REDIS_ADDRESS", ""),
				Password: getEnv("LUKCHAT_REDIS_PASSWORD", ""),
				DB:       getEnvInt("LUKCHAT_REDIS_DB", 0),
				Prefix:   getEnv("LUKCHAT_REDIS_PREFIX", ""),
			},
		},
		Logger: LoggerConfig{
			Level:      getEnv("LUKCHAT_LOG_LEVEL", DefaultLogLevel),
			File:       getEnv("LUKCHAT_LOG_FILE", ""),
			MaxSize:    getEnvInt("LUKCHAT_LOG_MAX_SIZE_MB", DefaultLogMaxSize),
			MaxAge:     getEnvInt("LUKCHAT_LOG_MAX_AGE_DAYS", DefaultLogMaxAge),
			MaxBackups: getEnvInt("LUKCHAT_LOG_MAX_BACKUPS", 0),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("LUKCHAT_METRICS_ENABLED", false),
			Address: getEnv("LUKCHAT_METRICS_ADDRESS", DefaultMetricsAddress),
		},
		Simulation: SimulationConfig{
			Nodes:    getEnvInt("LUKCHAT_SIMULATION_NODES", DefaultSimulationNodes),
			Miners:   getEnvInt("LUKCHAT_SIMULATION_MINERS", DefaultSimulationMiners),
			Interval: getEnvDuration("LUKCHAT_SIMULATION_INTERVAL", DefaultSimulationInterval),
			Duration: getEnvDuration("LUKCHAT_SIMULATION_DURATION", DefaultSimulationDuration),
		},
	}

	return cfg, cfg.Validate()
}

// LoadFile reads configuration from a YAML file. Missing values are set to
// defaults.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "can't open config file")
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "can't decode config file")
	}

	cfg.setDefaults()

	return &cfg, cfg.Validate()
}

func (c *Config) setDefaults() {
	if c.Node.Role == "" {
		c.Node.Role = DefaultRole
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = storage.DriverMemory
	}
	if c.Logger.Level == "" {
		c.Logger.Level = DefaultLogLevel
	}
	if c.Logger.MaxSize == 0 {
		c.Logger.MaxSize = DefaultLogMaxSize
	}
	if c.Logger.MaxAge == 0 {
		c.Logger.MaxAge = DefaultLogMaxAge
	}
	if c.Metrics.Address == "" {
		c.Metrics.Address = DefaultMetricsAddress
	}
	if c.Simulation.Nodes == 0 {
		c.Simulation.Nodes = DefaultSimulationNodes
	}
	if c.Simulation.Miners == 0 {
		c.Simulation.Miners = DefaultSimulationMiners
	}
	if c.Simulation.Interval == 0 {
		c.Simulation.Interval = DefaultSimulationInterval
	}
	if c.Simulation.Duration == 0 {
		c.Simulation.Duration = DefaultSimulationDuration
	}
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if _, err := c.Node.ParseRole(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if _, err := c.Logger.ParseLevel(); err != nil {
		return err
	}

	s := c.Simulation
	switch {
	case s.Nodes <= 0:
		return errors.New("simulation requires at least one node")
	case s.Miners <= 0 || s.Miners > s.Nodes:
		return errors.Errorf("invalid number of simulation miners: %d of %d nodes", s.Miners, s.Nodes)
	case s.Interval <= 0:
		return errors.New("simulation interval must be positive")
	}

	return nil
}

// ParseRole returns configured node role.
func (n NodeConfig) ParseRole() (lukchat.Role, error) {
	return lukchat.ParseRole(n.Role)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
