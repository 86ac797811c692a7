/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package config loads the JSON configuration files consumed by
// rucat-server and rucat-monitor. Both file formats reject unknown
// fields so a typo in a deployed config fails fast at boot rather than
// being silently ignored.
package config

import (
	"bytes"
	"encoding/json"
	"os"

	"rucat.dev/rucat/internal/rucaterr"
)

// DatabaseConfig selects and parameterizes the metadata store backend.
// Variant is either "embedded" (internal/store/memstore, single
// process, no persistence across restarts) or "etcd"
// (internal/store/etcdstore, networked, CAS via clientv3.Txn).
type DatabaseConfig struct {
	Variant     string   `json:"variant"`
	Credentials *string  `json:"credentials,omitempty"`
	Endpoints   []string `json:"endpoints,omitempty"`
}

const (
	DatabaseVariantEmbedded = "embedded"
	DatabaseVariantEtcd     = "etcd"
)

func (d DatabaseConfig) Validate() error {
	switch d.Variant {
	case DatabaseVariantEmbedded:
		return nil
	case DatabaseVariantEtcd:
		if len(d.Endpoints) == 0 {
			return rucaterr.NotAllowedf("database: etcd variant requires at least one endpoint")
		}
		return nil
	default:
		return rucaterr.NotAllowedf("database: unknown variant %q", d.Variant)
	}
}

// ServerConfig is the JSON configuration consumed by rucat-server.
type ServerConfig struct {
	AuthEnable       bool              `json:"auth_enable"`
	EngineBinaryPath string            `json:"engine_binary_path"`
	ListenAddr       string            `json:"listen_addr"`
	Database         DatabaseConfig    `json:"database"`
	StaticUsers      map[string]string `json:"static_users,omitempty"`
}

func (c ServerConfig) Validate() error {
	if c.ListenAddr == "" {
		return rucaterr.NotAllowedf("server config: listen_addr must not be empty")
	}
	if c.AuthEnable && len(c.StaticUsers) == 0 {
		return rucaterr.NotAllowedf("server config: auth_enable is true but static_users is empty")
	}
	return c.Database.Validate()
}

// MonitorConfig is the JSON configuration consumed by rucat-monitor.
type MonitorConfig struct {
	CheckIntervalSecs       uint8          `json:"check_interval_secs"`
	TriggerStateTimeoutSecs uint16         `json:"trigger_state_timeout_secs"`
	Database                DatabaseConfig `json:"database"`
}

func (c MonitorConfig) Validate() error {
	if c.CheckIntervalSecs == 0 {
		return rucaterr.NotAllowedf("monitor config: check_interval_secs must be > 0")
	}
	if c.TriggerStateTimeoutSecs == 0 {
		return rucaterr.NotAllowedf("monitor config: trigger_state_timeout_secs must be > 0")
	}
	return c.Database.Validate()
}

// decodeStrict unmarshals data into v, rejecting any field not present
// in v's JSON tags.
func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// LoadServerConfig reads and validates a ServerConfig from path.
func LoadServerConfig(path string) (ServerConfig, error) {
	var c ServerConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return c, rucaterr.Wrap(rucaterr.FailToLoadConfig, err, "reading %s", path)
	}
	if err := decodeStrict(data, &c); err != nil {
		return c, rucaterr.Wrap(rucaterr.FailToLoadConfig, err, "parsing %s", path)
	}
	if err := c.Validate(); err != nil {
		return c, rucaterr.Wrap(rucaterr.FailToLoadConfig, err, "validating server config")
	}
	return c, nil
}

// LoadMonitorConfig reads and validates a MonitorConfig from path.
func LoadMonitorConfig(path string) (MonitorConfig, error) {
	var c MonitorConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return c, rucaterr.Wrap(rucaterr.FailToLoadConfig, err, "reading %s", path)
	}
	if err := decodeStrict(data, &c); err != nil {
		return c, rucaterr.Wrap(rucaterr.FailToLoadConfig, err, "parsing %s", path)
	}
	if err := c.Validate(); err != nil {
		return c, rucaterr.Wrap(rucaterr.FailToLoadConfig, err, "validating monitor config")
	}
	return c, nil
}
