package cfg

import (
	"fmt"
)

func isValidPoolConfig(c *PoolConfig) error {
	if c.Workers < 0 {
		return fmt.Errorf("workers can't be negative")
	}
	if c.AwaitPollInterval <= 0 {
		return fmt.Errorf("await-poll-interval should be positive")
	}
	if c.AwaitTimeout < 0 {
		return fmt.Errorf("await-timeout can't be negative")
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("shutdown-timeout can't be negative")
	}
	return nil
}

func isValidLogRotateConfig(config *LogRotateLoggingConfig) error {
	if config.MaxFileSizeMb <= 0 {
		return fmt.Errorf("max-file-size-mb should be atleast 1")
	}
	if config.BackupFileCount < 0 {
		return fmt.Errorf("backup-file-count should be 0 (to retain all backup files) or a positive value")
	}
	return nil
}

func isValidLoggingConfig(c *LoggingConfig) error {
	if c.Severity.Rank() < 0 {
		return fmt.Errorf("invalid log severity level: %q", c.Severity)
	}
	if c.Format != TextLogFormat && c.Format != JSONLogFormat {
		return fmt.Errorf("invalid log format: %q", c.Format)
	}
	return isValidLogRotateConfig(&c.LogRotate)
}

func isValidBenchConfig(c *BenchConfig) error {
	if c.Tasks < 0 {
		return fmt.Errorf("tasks can't be negative")
	}
	if c.TaskDuration < 0 {
		return fmt.Errorf("task-duration can't be negative")
	}
	return nil
}

// ValidateConfig returns a non-nil error if the config is invalid.
func ValidateConfig(config *Config) error {
	var err error

	if err = isValidPoolConfig(&config.Pool); err != nil {
		return fmt.Errorf("error parsing pool config: %w", err)
	}

	if err = isValidLoggingConfig(&config.Logging); err != nil {
		return fmt.Errorf("error parsing logging config: %w", err)
	}

	if config.Metrics.PrometheusPort < 0 {
		return fmt.Errorf("error parsing metrics config: prometheus-port can't be negative")
	}

	if err = isValidBenchConfig(&config.Bench); err != nil {
		return fmt.Errorf("error parsing bench config: %w", err)
	}

	return nil
}
