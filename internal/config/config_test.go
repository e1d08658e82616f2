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
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/blinklabs-io/lazarus/database/models"
)

func resetGlobalConfig() {
	globalConfig = defaultConfig()
}

func TestLoad_CompareFullStruct(t *testing.T) {
	resetGlobalConfig()
	yamlContent := `
databasePath: "/var/lib/lazarus"
blobPlugin: "badger"
metadataPlugin: "sqlite"
nodeRole: "lookup"
bindAddr: "0.0.0.0"
epochSize: 50
retentionEpochs: 4
metricsPort: 12798
trimIncomplete: true
validateStates: false
resyncOnFailure: true
initialCommittee:
  - pubKey: "0a0b"
    ip: "10.0.0.1"
    port: 33133
`

	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "test-lazarus.yaml")

	err := os.WriteFile(tmpFile, []byte(yamlContent), 0644)
	if err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	expected := &Config{
		DatabasePath:    "/var/lib/lazarus",
		BlobPlugin:      "badger",
		MetadataPlugin:  "sqlite",
		NodeRole:        "lookup",
		BindAddr:        "0.0.0.0",
		EpochSize:       50,
		RetentionEpochs: 4,
		MetricsPort:     12798,
		TrimIncomplete:  true,
		ValidateStates:  false,
		ResyncOnFailure: true,
		InitialCommittee: []CommitteeMember{
			{PubKey: "0a0b", IP: "10.0.0.1", Port: 33133},
		},
	}

	actual, err := LoadConfig(tmpFile)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !reflect.DeepEqual(actual, expected) {
		t.Errorf(
			"Loaded config struct mismatch:\nExpected: %#v\nActual:   %#v",
			expected,
			actual,
		)
	}
}

func TestLoad_WithoutConfigFile_UsesDefaults(t *testing.T) {
	resetGlobalConfig()
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	expected := defaultConfig()
	if _, err := os.Stat("/etc/lazarus/lazarus.yaml"); err == nil {
		t.Skip("system config file present")
	}
	if !reflect.DeepEqual(cfg, expected) {
		t.Errorf(
			"config mismatch without file:\nExpected: %#v\nActual:   %#v",
			expected,
			cfg,
		)
	}
}

func TestLoad_ConfigSection(t *testing.T) {
	resetGlobalConfig()
	yamlContent := `
config:
  epochSize: 20
  nodeRole: "ds"
`
	tmpFile := filepath.Join(t.TempDir(), "lazarus.yaml")
	if err := os.WriteFile(tmpFile, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadConfig(tmpFile)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.EpochSize != 20 {
		t.Errorf("expected epochSize 20, got %d", cfg.EpochSize)
	}
	if cfg.NodeRole != "ds" {
		t.Errorf("expected nodeRole ds, got %q", cfg.NodeRole)
	}
	// Unset values keep their defaults
	if cfg.RetentionEpochs != 10 {
		t.Errorf("expected retentionEpochs 10, got %d", cfg.RetentionEpochs)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	resetGlobalConfig()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LAZARUS_RETENTION_EPOCHS", "3")
	t.Setenv("LAZARUS_TRIM_INCOMPLETE", "true")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.RetentionEpochs != 3 {
		t.Errorf("expected retentionEpochs 3, got %d", cfg.RetentionEpochs)
	}
	if !cfg.TrimIncomplete {
		t.Errorf("expected trimIncomplete to be set from environment")
	}
}

func TestLoad_InvalidNodeRole(t *testing.T) {
	resetGlobalConfig()
	tmpFile := filepath.Join(t.TempDir(), "lazarus.yaml")
	if err := os.WriteFile(tmpFile, []byte(`nodeRole: "miner"`), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	if _, err := LoadConfig(tmpFile); err == nil {
		t.Fatalf("expected error for invalid node role")
	}
}

func TestLoad_ZeroEpochSize(t *testing.T) {
	resetGlobalConfig()
	tmpFile := filepath.Join(t.TempDir(), "lazarus.yaml")
	if err := os.WriteFile(tmpFile, []byte(`epochSize: 0`), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	if _, err := LoadConfig(tmpFile); err == nil {
		t.Fatalf("expected error for zero epoch size")
	}
}

func TestCommittee(t *testing.T) {
	cfg := &Config{
		InitialCommittee: []CommitteeMember{
			{PubKey: "01ff", IP: "10.0.0.1", Port: 1},
			{PubKey: "02", IP: "10.0.0.2", Port: 2},
		},
	}
	members, err := cfg.Committee()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	expected := []models.CommitteeMember{
		{PubKey: []byte{0x01, 0xff}, Peer: models.Peer{IP: "10.0.0.1", Port: 1}},
		{PubKey: []byte{0x02}, Peer: models.Peer{IP: "10.0.0.2", Port: 2}},
	}
	if !reflect.DeepEqual(members, expected) {
		t.Errorf("committee mismatch:\nExpected: %#v\nActual:   %#v", expected, members)
	}

	cfg.InitialCommittee[1].PubKey = "zz"
	if _, err := cfg.Committee(); err == nil {
		t.Fatalf("expected error for invalid public key")
	}
}

func TestContext(t *testing.T) {
	if FromContext(context.Background()) != nil {
		t.Fatalf("expected nil config from empty context")
	}
	cfg := defaultConfig()
	ctx := WithContext(context.Background(), cfg)
	if FromContext(ctx) != cfg {
		t.Fatalf("expected config from context")
	}
}
