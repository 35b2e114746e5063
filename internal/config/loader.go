package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoaderOptions describes how configuration should be discovered.
type LoaderOptions struct {
	ConfigPaths []string
	FileName    string
	EnvPrefix   string
}

// Load returns the merged configuration from files, environment variables,
// and the built-in defaults that satisfy every default named in §10 of the
// spec (queue depth 256, 30s timeout, 300s wait cap, 100,000/5MiB diff
// limits, 1s flush interval).
func Load(opts LoaderOptions) (Config, error) {
	v := viper.New()

	name := opts.FileName
	if name == "" {
		name = "preflightd"
	}

	configFile := locateConfigFile(name, opts.ConfigPaths)
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(name)
	}

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = "PREFLIGHT"
	}
	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AllowEmptyEnv(true)

	setDefaults(v)

	if configFile != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Persistence.Path = expandEnvString(cfg.Persistence.Path)

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 4173)

	v.SetDefault("persistence.path", defaultPersistencePath())
	v.SetDefault("persistence.flushInterval", time.Second)

	v.SetDefault("eventBus.queueDepth", 256)
	v.SetDefault("eventBus.waitTimeoutDefault", 30*time.Second)
	v.SetDefault("eventBus.waitTimeoutMax", 300*time.Second)

	v.SetDefault("repoSnapshot.timeout", 30*time.Second)

	v.SetDefault("diffEngine.maxLines", 100_000)
	v.SetDefault("diffEngine.maxBytes", 5*1024*1024)

	v.SetDefault("observability.logging.level", "info")
}

func defaultPersistencePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./preflight.db"
	}
	return filepath.Join(home, ".config", "preflight", "preflight.db")
}

// expandEnvString replaces ${VAR} or $VAR with environment variable values,
// the same two-pass expansion the teacher's loader applies to API keys.
func expandEnvString(s string) string {
	if s == "" {
		return s
	}

	braced := regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)
	s = braced.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	bare := regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)
	s = bare.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	return s
}

func locateConfigFile(name string, paths []string) string {
	searchPaths := append([]string{}, paths...)
	searchPaths = append(searchPaths, ".")
	for _, dir := range searchPaths {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name+".yaml")
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}
