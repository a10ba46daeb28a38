package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// ReconcileTagKey is the VPC tag whose value holds the zone filter list.
	ReconcileTagKey = "zone-vpc-sync/zone-filters"

	// SessionName identifies this reconciler's role sessions in the member
	// account's CloudTrail.
	SessionName = "zone-vpc-sync"
)

const (
	defaultSyncInterval = 5 * time.Minute
	defaultMetricsAddr  = ":9090"
	defaultLogLevel     = "info"
	defaultLogEnv       = "prod"
)

type Config struct {
	SyncInterval time.Duration `yaml:"syncInterval"`
	MetricsAddr  string        `yaml:"metricsAddr"`
	Log          Log           `yaml:"log"`
	Member       Member        `yaml:"member"`
	Reconcile    Reconcile     `yaml:"reconcile"`
}

// Member identifies the account whose VPCs are reconciled.
type Member struct {
	RoleArn string `yaml:"roleArn"`
	Region  string `yaml:"region"`
}

type Log struct {
	Level string `yaml:"level"`
	Env   string `yaml:"env"`
}

type Reconcile struct {
	DryRun bool `yaml:"dryRun"`
}

func Load(path string) (*Config, error) {
	configFile := true
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Default().Warn("fail find config file, proceeding", "path", path)
		configFile = false
	}

	var cfg Config
	if configFile {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, err
		}
		if err := f.Close(); err != nil {
			slog.Default().Warn("fail close config file", "path", path, "error", err)
		}
	}

	if cfg.SyncInterval == 0 {
		cfg.SyncInterval = defaultSyncInterval
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = defaultMetricsAddr
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
	if cfg.Log.Env == "" {
		cfg.Log.Env = defaultLogEnv
	}

	// Override from environment if set
	if roleArn := os.Getenv("ZONE_VPC_SYNC_ROLE_ARN"); roleArn != "" {
		cfg.Member.RoleArn = roleArn
	}
	if region := os.Getenv("ZONE_VPC_SYNC_REGION"); region != "" {
		cfg.Member.Region = region
	}
	if syncInterval := os.Getenv("ZONE_VPC_SYNC_INTERVAL"); syncInterval != "" {
		if interval, err := time.ParseDuration(syncInterval); err == nil {
			cfg.SyncInterval = interval
		} else {
			slog.Default().Warn("fail parse sync interval to duration from string", "interval", syncInterval, "error", err)
		}
	}
	if metricsAddr := os.Getenv("ZONE_VPC_SYNC_METRICS_ADDR"); metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}
	if dryRun := os.Getenv("ZONE_VPC_SYNC_DRYRUN"); dryRun != "" {
		switch strings.ToLower(dryRun) {
		case "true":
			cfg.Reconcile.DryRun = true
		case "false":
			cfg.Reconcile.DryRun = false
		default:
			slog.Default().Warn("fail parse dryrun to bool from string", "dryrun", dryRun)
		}
	}
	if loglevel := os.Getenv("ZONE_VPC_SYNC_LOG_LEVEL"); loglevel != "" {
		cfg.Log.Level = loglevel
	}
	if logenv := os.Getenv("ZONE_VPC_SYNC_LOG_ENV"); logenv != "" {
		cfg.Log.Env = logenv
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Member.RoleArn == "" {
		return fmt.Errorf("member role arn required")
	}
	if c.Member.Region == "" {
		return fmt.Errorf("member region required")
	}
	return nil
}
