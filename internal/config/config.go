// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/blinklabs-io/lazarus/database/models"
	"github.com/blinklabs-io/lazarus/database/plugin"
	"github.com/blinklabs-io/lazarus/recovery"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "lazarus.config"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

const (
	DefaultBlobPlugin     = "badger"
	DefaultMetadataPlugin = "sqlite"
)

type tempConfig struct {
	Config  *Config                              `yaml:"config,omitempty"`
	Plugins map[string]map[string]map[string]any `yaml:"plugins,omitempty"`
}

// CommitteeMember is a committee member as written in the config file
type CommitteeMember struct {
	PubKey string `yaml:"pubKey"`
	IP     string `yaml:"ip"`
	Port   uint16 `yaml:"port"`
}

type Config struct {
	DatabasePath     string            `yaml:"databasePath"     split_words:"true"`
	BlobPlugin       string            `yaml:"blobPlugin"       envconfig:"LAZARUS_DATABASE_BLOB_PLUGIN"`
	MetadataPlugin   string            `yaml:"metadataPlugin"   envconfig:"LAZARUS_DATABASE_METADATA_PLUGIN"`
	ColdStorePlugin  string            `yaml:"coldStorePlugin"  envconfig:"LAZARUS_COLDSTORE_PLUGIN"`
	NodeRole         string            `yaml:"nodeRole"         split_words:"true"`
	BindAddr         string            `yaml:"bindAddr"         split_words:"true"`
	InitialCommittee []CommitteeMember `yaml:"initialCommittee" ignored:"true"`
	EpochSize        uint64            `yaml:"epochSize"        split_words:"true"`
	RetentionEpochs  uint64            `yaml:"retentionEpochs"  split_words:"true"`
	MetricsPort      uint              `yaml:"metricsPort"      split_words:"true"`
	TrimIncomplete   bool              `yaml:"trimIncomplete"   split_words:"true"`
	ValidateStates   bool              `yaml:"validateStates"   split_words:"true"`
	ResyncOnFailure  bool              `yaml:"resyncOnFailure"  split_words:"true"`
	Tracing          bool              `yaml:"tracing"`
	TracingStdout    bool              `yaml:"tracingStdout"    split_words:"true"`
}

// Committee returns the configured initial committee
func (c *Config) Committee() ([]models.CommitteeMember, error) {
	ret := make([]models.CommitteeMember, 0, len(c.InitialCommittee))
	for i, member := range c.InitialCommittee {
		pubKey, err := hex.DecodeString(member.PubKey)
		if err != nil {
			return nil, fmt.Errorf(
				"invalid public key for committee member %d: %w",
				i,
				err,
			)
		}
		ret = append(ret, models.CommitteeMember{
			PubKey: pubKey,
			Peer:   models.Peer{IP: member.IP, Port: member.Port},
		})
	}
	return ret, nil
}

func defaultConfig() *Config {
	return &Config{
		DatabasePath:    ".lazarus",
		BlobPlugin:      DefaultBlobPlugin,
		MetadataPlugin:  DefaultMetadataPlugin,
		NodeRole:        string(recovery.NodeRoleNormal),
		BindAddr:        "127.0.0.1",
		EpochSize:       100,
		RetentionEpochs: 10,
		MetricsPort:     0,
		ValidateStates:  true,
	}
}

var globalConfig = defaultConfig()

func LoadConfig(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.lazarus/lazarus.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".lazarus", "lazarus.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/lazarus/lazarus.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/lazarus/lazarus.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		// First unmarshal into temp config to handle plugin sections
		var tempCfg tempConfig
		err = yaml.Unmarshal(buf, &tempCfg)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}

		// If config section exists, use it for main config
		if tempCfg.Config != nil {
			// Overlay config values onto existing defaults
			configBytes, err := yaml.Marshal(tempCfg.Config)
			if err != nil {
				return nil, fmt.Errorf("error re-marshalling config: %w", err)
			}
			err = yaml.Unmarshal(configBytes, globalConfig)
			if err != nil {
				return nil, fmt.Errorf("error parsing config section: %w", err)
			}
		} else {
			// Otherwise unmarshal the whole file as main config
			err = yaml.Unmarshal(buf, globalConfig)
			if err != nil {
				return nil, fmt.Errorf("error parsing config file: %w", err)
			}
		}

		if len(tempCfg.Plugins) > 0 {
			err = plugin.ProcessConfig(tempCfg.Plugins)
			if err != nil {
				return nil, fmt.Errorf(
					"error processing plugin config: %w",
					err,
				)
			}
		}
	}
	// Process environment variables
	err := envconfig.Process("lazarus", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %+w", err)
	}

	// Process plugin environment variables
	err = plugin.ProcessEnvVars()
	if err != nil {
		return nil, fmt.Errorf(
			"error processing plugin environment variables: %w",
			err,
		)
	}

	if !recovery.NodeRole(globalConfig.NodeRole).Valid() {
		return nil, fmt.Errorf(
			"invalid nodeRole: %q (must be 'normal', 'ds' or 'lookup')",
			globalConfig.NodeRole,
		)
	}
	if globalConfig.EpochSize == 0 {
		return nil, fmt.Errorf("invalid epochSize: must be greater than zero")
	}
	return globalConfig, nil
}

func GetConfig() *Config {
	return globalConfig
}
