// Package config loads preflightd's server configuration, adapted from the
// teacher's internal/config package.
package config

import "time"

// Config is the full daemon configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Persistence   PersistenceConfig   `yaml:"persistence"`
	EventBus      EventBusConfig      `yaml:"eventBus"`
	RepoSnapshot  RepoSnapshotConfig  `yaml:"repoSnapshot"`
	DiffEngine    DiffEngineConfig    `yaml:"diffEngine"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig configures the listening socket.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// PersistenceConfig configures the single-file SQLite snapshot store.
type PersistenceConfig struct {
	Path          string        `yaml:"path"`
	FlushInterval time.Duration `yaml:"flushInterval"`
}

// EventBusConfig configures the pub/sub fan-out.
type EventBusConfig struct {
	QueueDepth         int           `yaml:"queueDepth"`
	WaitTimeoutDefault time.Duration `yaml:"waitTimeoutDefault"`
	WaitTimeoutMax     time.Duration `yaml:"waitTimeoutMax"`
}

// RepoSnapshotConfig configures the RepoSnapshotter collaborator.
type RepoSnapshotConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// DiffEngineConfig bounds the algorithmic diff contract.
type DiffEngineConfig struct {
	MaxLines int `yaml:"maxLines"`
	MaxBytes int `yaml:"maxBytes"`
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures the Logger adapter.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, error
}
