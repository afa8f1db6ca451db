// Package config loads the engine's configuration the way the rest of this
// codebase does: a YAML file read through viper, defaults set up front,
// environment variables overriding on top with an NZBTRIAGE_ prefix.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// NNTPConfig describes the single article-store the pool connects to.
type NNTPConfig struct {
	Host        string `mapstructure:"host" yaml:"host"`
	Port        int    `mapstructure:"port" yaml:"port"`
	User        string `mapstructure:"user" yaml:"user"`
	Pass        string `mapstructure:"pass" yaml:"pass"`
	UseTLS      bool   `mapstructure:"use_tls" yaml:"use_tls"`
	ConnTimeout int    `mapstructure:"conn_timeout_ms" yaml:"conn_timeout_ms"`
}

// Config is the full set of recognized keys from the external-interfaces
// contract, plus the Runner's own options.
type Config struct {
	ArchiveDirs []string   `mapstructure:"archive_dirs" yaml:"archive_dirs"`
	NNTP        NNTPConfig `mapstructure:"nntp_config" yaml:"nntp_config"`

	HealthCheckTimeoutMs int  `mapstructure:"health_check_timeout_ms" yaml:"health_check_timeout_ms"`
	MaxDecodedBytes      int  `mapstructure:"max_decoded_bytes" yaml:"max_decoded_bytes"`
	NNTPMaxConnections   int  `mapstructure:"nntp_max_connections" yaml:"nntp_max_connections"`
	ReuseNNTPPool        bool `mapstructure:"reuse_nntp_pool" yaml:"reuse_nntp_pool"`
	NNTPKeepAliveMs      int  `mapstructure:"nntp_keep_alive_ms" yaml:"nntp_keep_alive_ms"`
	MaxParallelNZBs      int  `mapstructure:"max_parallel_nzbs" yaml:"max_parallel_nzbs"` // 0 == unbounded
	StatSampleCount      int  `mapstructure:"stat_sample_count" yaml:"stat_sample_count"`
	ArchiveSampleCount   int  `mapstructure:"archive_sample_count" yaml:"archive_sample_count"`

	TimeBudgetMs        int      `mapstructure:"time_budget_ms" yaml:"time_budget_ms"`
	MaxCandidates       int      `mapstructure:"max_candidates" yaml:"max_candidates"`
	DownloadConcurrency int      `mapstructure:"download_concurrency" yaml:"download_concurrency"`
	DownloadTimeoutMs   int      `mapstructure:"download_timeout_ms" yaml:"download_timeout_ms"`
	PreferredSizeBytes  int64    `mapstructure:"preferred_size_bytes" yaml:"preferred_size_bytes"`
	PreferredIndexerIDs []string `mapstructure:"preferred_indexer_ids" yaml:"preferred_indexer_ids"`

	Log LogConfig `mapstructure:"log" yaml:"log"`
}

type LogConfig struct {
	Path          string `mapstructure:"path" yaml:"path"`
	Level         string `mapstructure:"level" yaml:"level"`
	IncludeStdout bool   `mapstructure:"include_stdout" yaml:"include_stdout"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.yaml"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if path == "config.yaml" {
			if _, errEx := os.Stat("/config/config.yaml"); errEx == nil {
				path = "/config/config.yaml"
			} else if _, errEx := os.Stat("config.yaml.example"); errEx == nil {
				return nil, fmt.Errorf("configuration file 'config.yaml' not found\n\n" +
					"To fix this, run:\n" +
					"  cp config.yaml.example config.yaml\n" +
					"Then edit it with your Usenet credentials.")
			} else {
				return nil, fmt.Errorf("config file not found: %s", path)
			}
		} else {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
	}

	v := viper.New()

	v.SetDefault("health_check_timeout_ms", 35000)
	v.SetDefault("max_decoded_bytes", 16384)
	v.SetDefault("nntp_max_connections", 60)
	v.SetDefault("reuse_nntp_pool", true)
	v.SetDefault("nntp_keep_alive_ms", 120000)
	v.SetDefault("max_parallel_nzbs", 0)
	v.SetDefault("stat_sample_count", 1)
	v.SetDefault("archive_sample_count", 1)
	v.SetDefault("nntp_config.port", 119)

	v.SetDefault("time_budget_ms", 12000)
	v.SetDefault("max_candidates", 25)
	v.SetDefault("download_concurrency", 8)
	v.SetDefault("download_timeout_ms", 10000)

	v.SetDefault("log.path", "nzbtriage.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.include_stdout", true)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	v.SetEnvPrefix("NZBTRIAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.NNTP.Host == "" {
		return errors.New("nntp_config.host is required")
	}
	if c.NNTP.Port == 0 {
		c.NNTP.Port = 119
	}
	if c.NNTPMaxConnections <= 0 {
		c.NNTPMaxConnections = 1
	}
	if c.TimeBudgetMs < 0 {
		return fmt.Errorf("time_budget_ms must be >= 0")
	}
	if c.MaxCandidates <= 0 {
		c.MaxCandidates = 25
	}
	if c.DownloadConcurrency <= 0 {
		c.DownloadConcurrency = 1
	}
	return nil
}
