package pool

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of a pool configuration, for hosts that
// tune the pool from a YAML or JSON file instead of code. Absent fields keep
// the package defaults; QueueCapacity is a pointer because zero is a valid
// capacity.
type FileConfig struct {
	CoreSize         int    `yaml:"core_size" json:"core_size"`
	MaxSize          int    `yaml:"max_size" json:"max_size"`
	QueueCapacity    *int   `yaml:"queue_capacity" json:"queue_capacity"`
	KeepAlive        string `yaml:"keep_alive" json:"keep_alive"`
	AllowCoreTimeout bool   `yaml:"allow_core_timeout" json:"allow_core_timeout"`
	NamePrefix       string `yaml:"name_prefix" json:"name_prefix"`
	RejectionPolicy  string `yaml:"rejection_policy" json:"rejection_policy"`
}

// LoadFile reads a pool configuration from a YAML (.yaml/.yml) or JSON
// (.json) file.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var conf FileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &conf); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &conf); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}

	return &conf, nil
}

// Options converts the file configuration into pool options. Malformed
// values (an unparseable duration, an unknown policy name) fail here; size
// consistency is still validated by New.
func (f *FileConfig) Options() ([]Option, error) {
	var opts []Option

	if f.CoreSize != 0 {
		opts = append(opts, WithCoreSize(f.CoreSize))
	}
	if f.MaxSize != 0 {
		opts = append(opts, WithMaxSize(f.MaxSize))
	}
	if f.QueueCapacity != nil {
		opts = append(opts, WithQueueCapacity(*f.QueueCapacity))
	}
	if f.KeepAlive != "" {
		d, err := time.ParseDuration(f.KeepAlive)
		if err != nil {
			return nil, fmt.Errorf("invalid keep_alive: %w", err)
		}
		opts = append(opts, WithKeepAlive(d))
	}
	if f.AllowCoreTimeout {
		opts = append(opts, WithAllowCoreTimeout(true))
	}
	if f.NamePrefix != "" {
		opts = append(opts, WithNamePrefix(f.NamePrefix))
	}
	if f.RejectionPolicy != "" {
		policy, err := ParseRejectionPolicy(f.RejectionPolicy)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithRejectionPolicy(policy))
	}

	return opts, nil
}
