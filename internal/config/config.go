// Package config loads the atlasreader configuration.
//
// Values come from, in increasing priority: the defaults, a YAML file, a
// .env file and ATLASREADER_* environment variables. The file is read with
// afs, so a local path or a URL afs supports such as file:// works.
// Keys left out keep their defaults:
//
//	log:
//	  level: debug
//	  json: false
//	resolver:
//	  click_radius: 200      # meters
//	  point_prevalence: 2    # meters
//	import:
//	  workers: 4
//	  skip_errors: true
//	  cache_bytes: 268435456 # 0 disables the atlas cache
//
// The same settings from the environment or a .env file:
//
//	ATLASREADER_LOG_LEVEL=warn
//	ATLASREADER_CLICK_RADIUS=50
//	ATLASREADER_WORKERS=2
//	ATLASREADER_CACHE_BYTES=67108864
//
// Load a file and hand its sections to the packages they configure:
//
//	cfg, err := config.Load("atlasreader.yaml", ".env")
//	if err != nil {
//	    return err
//	}
//	imp := importer.New(cfg.ImporterOptions())
//	resolver := spatial.NewResolver(a, cfg.SpatialOptions())
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/beetlebugorg/atlasreader/pkg/importer"
	"github.com/beetlebugorg/atlasreader/pkg/spatial"
)

// Environment variables overriding the file.
const (
	EnvLogLevel        = "ATLASREADER_LOG_LEVEL"
	EnvLogJSON         = "ATLASREADER_LOG_JSON"
	EnvClickRadius     = "ATLASREADER_CLICK_RADIUS"
	EnvPointPrevalence = "ATLASREADER_POINT_PREVALENCE"
	EnvWorkers         = "ATLASREADER_WORKERS"
	EnvCacheBytes      = "ATLASREADER_CACHE_BYTES"
)

// Config is the atlasreader configuration.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Resolver ResolverConfig `yaml:"resolver"`
	Import   ImportConfig   `yaml:"import"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// ResolverConfig configures map click resolution. Distances are meters.
type ResolverConfig struct {
	ClickRadius     float64 `yaml:"click_radius"`
	PointPrevalence float64 `yaml:"point_prevalence"`
}

// ImportConfig configures atlas loading.
type ImportConfig struct {
	Workers    int  `yaml:"workers"`
	SkipErrors bool `yaml:"skip_errors"`
	// CacheBytes bounds the memory of cached atlases; 0 disables the cache.
	CacheBytes int64 `yaml:"cache_bytes"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	so := spatial.DefaultOptions()
	imp := importer.DefaultOptions()
	return Config{
		Log:      LogConfig{Level: "info"},
		Resolver: ResolverConfig{ClickRadius: so.ClickRadius, PointPrevalence: so.PointPrevalence},
		Import:   ImportConfig{Workers: imp.Workers, SkipErrors: imp.SkipErrors},
	}
}

// Load reads the configuration. path may be empty; envFile is loaded when
// it exists and never overrides variables already set.
func Load(path, envFile string) (Config, error) {
	return LoadContext(context.Background(), afs.New(), path, envFile)
}

// LoadContext is Load reading the file through svc.
func LoadContext(ctx context.Context, svc afs.Service, path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := svc.DownloadWithURL(ctx, path)
		if err != nil {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.Log.Level = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv(EnvLogJSON); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvLogJSON, err)
		}
		c.Log.JSON = b
	}
	if v, ok := os.LookupEnv(EnvClickRadius); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvClickRadius, err)
		}
		c.Resolver.ClickRadius = f
	}
	if v, ok := os.LookupEnv(EnvPointPrevalence); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPointPrevalence, err)
		}
		c.Resolver.PointPrevalence = f
	}
	if v, ok := os.LookupEnv(EnvWorkers); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Import.Workers = n
	}
	if v, ok := os.LookupEnv(EnvCacheBytes); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCacheBytes, err)
		}
		c.Import.CacheBytes = n
	}
	return nil
}

// Validate checks distances, the worker count and the cache size.
func (c Config) Validate() error {
	switch {
	case c.Resolver.ClickRadius <= 0:
		return fmt.Errorf("click radius must be positive, got %v", c.Resolver.ClickRadius)
	case c.Resolver.PointPrevalence < 0:
		return fmt.Errorf("point prevalence must not be negative, got %v", c.Resolver.PointPrevalence)
	case c.Import.Workers < 0:
		return fmt.Errorf("workers must not be negative, got %d", c.Import.Workers)
	case c.Import.CacheBytes < 0:
		return fmt.Errorf("cache bytes must not be negative, got %d", c.Import.CacheBytes)
	}
	return nil
}

// SpatialOptions returns the resolver options.
func (c Config) SpatialOptions() spatial.Options {
	return spatial.Options{
		ClickRadius:     c.Resolver.ClickRadius,
		PointPrevalence: c.Resolver.PointPrevalence,
	}
}

// ImporterOptions returns the importer options.
func (c Config) ImporterOptions() importer.Options {
	opts := importer.DefaultOptions()
	opts.Workers = c.Import.Workers
	opts.SkipErrors = c.Import.SkipErrors
	return opts
}
