package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultMarket   = "USD:BTS"
	DefaultFeeAsset = "BTS"
)

type Config struct {
	Exchange ExchangeConfig
	Storage  StorageConfig
	Workers  []WorkerConfig
	Runtime  RuntimeConfig
}

type ExchangeConfig struct {
	BaseUrl string
	WSUrl   string
	ApiKey  string
	Secret  string
	Timeout time.Duration
}

type StorageConfig struct {
	Driver string
	Path   string
	DSN    string
}

type WorkerConfig struct {
	Name     string
	Account  string
	Market   string
	FeeAsset string
	Bundle   bool
	Strategy string
	Params   map[string]any
}

type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

type RuntimeConfig struct {
	Log       LogConfig
	OrdersLog LogConfig
}

// Load reads configs/config.yaml from the working directory.
func Load() (*Config, error) {
	return LoadFrom("configs")
}

// LoadFrom reads config.yaml from dir. A .env file next to the working
// directory or inside dir is loaded first so ${VAR} references resolve.
func LoadFrom(dir string) (*Config, error) {
	_ = godotenv.Load(filepath.Join(dir, ".env"))
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName("config")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	cfg.Exchange = ExchangeConfig{
		BaseUrl: v.GetString("exchange.base_url"),
		WSUrl:   v.GetString("exchange.ws_url"),
		ApiKey:  envSub(v, "exchange.api_key"),
		Secret:  envSub(v, "exchange.secret"),
		Timeout: v.GetDuration("exchange.timeout"),
	}

	cfg.Storage = StorageConfig{
		Driver: v.GetString("storage.driver"),
		Path:   v.GetString("storage.path"),
		DSN:    envSub(v, "storage.dsn"),
	}

	cfg.Runtime = RuntimeConfig{
		Log:       logConfig(v, "runtime.log"),
		OrdersLog: logConfig(v, "runtime.orders_log"),
	}

	workers, err := workerConfigs(v)
	if err != nil {
		return nil, err
	}
	cfg.Workers = workers

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("exchange.timeout", 15*time.Second)
	v.SetDefault("storage.driver", "pebble")
	v.SetDefault("storage.path", "data/workers")
	v.SetDefault("runtime.log.level", "info")
	v.SetDefault("runtime.log.format", "text")
	v.SetDefault("runtime.orders_log.level", "info")
	v.SetDefault("runtime.orders_log.file", "logs/orders.log")
}

func logConfig(v *viper.Viper, prefix string) LogConfig {
	return LogConfig{
		Level:      v.GetString(prefix + ".level"),
		Format:     v.GetString(prefix + ".format"),
		File:       v.GetString(prefix + ".file"),
		MaxSize:    v.GetInt(prefix + ".max_size"),
		MaxBackups: v.GetInt(prefix + ".max_backups"),
		MaxAge:     v.GetInt(prefix + ".max_age"),
		Compress:   v.GetBool(prefix + ".compress"),
	}
}

func workerConfigs(v *viper.Viper) ([]WorkerConfig, error) {
	raw := v.GetStringMap("workers")
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	workers := make([]WorkerConfig, 0, len(names))
	for _, name := range names {
		prefix := "workers." + name
		w := WorkerConfig{
			Name:     name,
			Account:  v.GetString(prefix + ".account"),
			Market:   v.GetString(prefix + ".market"),
			FeeAsset: v.GetString(prefix + ".fee_asset"),
			Bundle:   v.GetBool(prefix + ".bundle"),
			Strategy: v.GetString(prefix + ".strategy"),
			Params:   v.GetStringMap(prefix),
		}
		if w.Account == "" {
			return nil, fmt.Errorf("worker %s: account is required", name)
		}
		if w.Market == "" {
			w.Market = DefaultMarket
		}
		if w.FeeAsset == "" {
			w.FeeAsset = DefaultFeeAsset
		}
		workers = append(workers, w)
	}
	return workers, nil
}

// Float returns a numeric strategy parameter, or def when absent.
func (w WorkerConfig) Float(key string, def float64) float64 {
	val, ok := w.Params[key]
	if !ok {
		return def
	}
	switch n := val.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		var f float64
		if _, err := fmt.Sscanf(n, "%g", &f); err == nil {
			return f
		}
	}
	return def
}

var envRef = regexp.MustCompile(`\$\{(\w+)\}`)

func envSub(v *viper.Viper, key string) string {
	val := v.GetString(key)
	if val == "" {
		return ""
	}

	return envRef.ReplaceAllStringFunc(val, func(match string) string {
		envKey := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(envKey)
	})
}
