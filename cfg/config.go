// Package cfg holds the configuration of the ezpool command: its layout, flag bindings,
// loading from flags and YAML files, and validation.
package cfg

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// DefaultWorkers is the pool size used when none is configured.
	DefaultWorkers = 16

	// DefaultAwaitPollInterval is how often AwaitIdle re-checks the pool.
	DefaultAwaitPollInterval = 10 * time.Millisecond
)

type Config struct {
	Pool PoolConfig `yaml:"pool"`

	Logging LoggingConfig `yaml:"logging"`

	Metrics MetricsConfig `yaml:"metrics"`

	Bench BenchConfig `yaml:"bench"`
}

type PoolConfig struct {
	Workers int `yaml:"workers"`

	StartPaused bool `yaml:"start-paused"`

	AwaitPollInterval time.Duration `yaml:"await-poll-interval"`

	AwaitTimeout time.Duration `yaml:"await-timeout"`

	ShutdownTimeout time.Duration `yaml:"shutdown-timeout"`
}

type LoggingConfig struct {
	Severity LogSeverity `yaml:"severity"`

	Format LogFormat `yaml:"format"`

	FilePath string `yaml:"file-path"`

	LogRotate LogRotateLoggingConfig `yaml:"log-rotate"`
}

type LogRotateLoggingConfig struct {
	MaxFileSizeMb int64 `yaml:"max-file-size-mb"`

	BackupFileCount int64 `yaml:"backup-file-count"`

	Compress bool `yaml:"compress"`
}

type MetricsConfig struct {
	PrometheusPort int64 `yaml:"prometheus-port"`
}

type BenchConfig struct {
	Tasks int `yaml:"tasks"`

	TaskDuration time.Duration `yaml:"task-duration"`
}

// flagBinding ties a command-line flag to its config key.
type flagBinding struct {
	flag string
	key  string
}

// BindFlags registers every config flag on flagSet and binds it into a fresh viper instance,
// which is returned so the caller can layer a config file on top of it.
func BindFlags(flagSet *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()

	flagSet.IntP("workers", "w", DefaultWorkers, "Number of workers the pool starts with.")
	flagSet.BoolP("start-paused", "", false, "Start workers with their run-flag cleared; they pick up no work until started.")
	flagSet.DurationP("await-poll-interval", "", DefaultAwaitPollInterval, "How often waiting for the pool to go idle re-checks the queue and workers.")
	flagSet.DurationP("await-timeout", "", 0, "Upper bound on waiting for the pool to go idle. 0 waits without limit.")
	flagSet.DurationP("shutdown-timeout", "", 30*time.Second, "Upper bound on waiting for workers to exit during shutdown. 0 waits without limit.")
	flagSet.StringP("log-severity", "", "info", "Specifies the logging severity expressed as one of [trace, debug, info, warning, error, off]")
	flagSet.StringP("log-format", "", "text", "The format of the log records: text or json.")
	flagSet.StringP("log-file", "", "", "The file for storing logs. When not provided, logs are printed to stdout.")
	flagSet.Int64P("log-rotate-max-file-size-mb", "", 512, "The maximum size in megabytes that a log file can reach before it is rotated.")
	flagSet.Int64P("log-rotate-backup-file-count", "", 10, "The maximum number of backup log files to retain after they have been rotated. 0 retains all backups.")
	flagSet.BoolP("log-rotate-compress", "", true, "Controls whether the rotated log files should be compressed using gzip.")
	flagSet.Int64P("prometheus-port", "", 0, "Expose Prometheus metrics endpoint on this port and a path of /metrics. 0 disables it.")
	flagSet.IntP("bench-tasks", "", 1000, "Number of tasks run by the benchmark.")
	flagSet.DurationP("bench-task-duration", "", time.Millisecond, "How long each benchmark task sleeps.")

	bindings := []flagBinding{
		{"workers", "pool.workers"},
		{"start-paused", "pool.start-paused"},
		{"await-poll-interval", "pool.await-poll-interval"},
		{"await-timeout", "pool.await-timeout"},
		{"shutdown-timeout", "pool.shutdown-timeout"},
		{"log-severity", "logging.severity"},
		{"log-format", "logging.format"},
		{"log-file", "logging.file-path"},
		{"log-rotate-max-file-size-mb", "logging.log-rotate.max-file-size-mb"},
		{"log-rotate-backup-file-count", "logging.log-rotate.backup-file-count"},
		{"log-rotate-compress", "logging.log-rotate.compress"},
		{"prometheus-port", "metrics.prometheus-port"},
		{"bench-tasks", "bench.tasks"},
		{"bench-task-duration", "bench.task-duration"},
	}
	for _, b := range bindings {
		if err := v.BindPFlag(b.key, flagSet.Lookup(b.flag)); err != nil {
			return nil, fmt.Errorf("error while binding flag %q: %w", b.flag, err)
		}
	}

	return v, nil
}

// Load builds a Config from v. When configFile is non-empty the YAML file is read first and
// explicitly set flags take precedence over it.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error while reading the config file: %w", err)
		}
	}

	var c Config
	err := v.Unmarshal(&c, viper.DecodeHook(DecodeHook()), func(decoderConfig *mapstructure.DecoderConfig) {
		decoderConfig.TagName = "yaml"
	})
	if err != nil {
		return nil, fmt.Errorf("error while unmarshaling the config: %w", err)
	}

	return &c, nil
}
