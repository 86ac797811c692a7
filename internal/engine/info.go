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

package engine

import (
	"bytes"
	"encoding/json"
	"time"

	"rucat.dev/rucat/internal/rucaterr"
)

// Info is the whole persisted record of an engine. Name, EngineType,
// Version, Config, and CreateTime are immutable after creation; only the
// store (on insert) and state transitions (by the monitor, and by the
// HTTP API's stop/restart handlers) ever mutate an Info.
type Info struct {
	Name       string
	EngineType Type
	Version    Version
	State      State
	Config     Config
	CreateTime time.Time
}

// infoJSON mirrors Info for JSON round-tripping with snake_case field
// names matching the HTTP API's wire format.
type infoJSON struct {
	Name       string    `json:"name"`
	EngineType Type      `json:"engine_type"`
	Version    Version   `json:"version"`
	State      State     `json:"state"`
	Config     Config    `json:"config"`
	CreateTime time.Time `json:"create_time"`
}

func (i Info) MarshalJSON() ([]byte, error) {
	return json.Marshal(infoJSON(i))
}

func (i *Info) UnmarshalJSON(data []byte) error {
	var raw infoJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*i = Info(raw)
	return nil
}

// CreateRequest is the body of POST /engine. UnmarshalJSON rejects
// unknown fields, per spec.md §6 ("reject unknown fields").
type CreateRequest struct {
	Name       string  `json:"name"`
	EngineType Type    `json:"engine_type"`
	Version    Version `json:"version"`
	Config     Config  `json:"config,omitempty"`
}

func (r *CreateRequest) UnmarshalJSON(data []byte) error {
	type alias CreateRequest
	var a alias
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&a); err != nil {
		return rucaterr.Wrap(rucaterr.NotAllowed, err, "invalid create engine request")
	}
	*r = CreateRequest(a)
	return nil
}

// ToInfo converts a validated CreateRequest into a fresh Info in state
// WaitToStart, with createTime supplied by the store at insert time
// (mirroring the original's EngineTime::now() call inside
// TryFrom<CreateEngineRequest>, relocated so the store, not the
// request, owns the creation timestamp).
func (r CreateRequest) ToInfo(createTime time.Time) Info {
	cfg := r.Config
	if cfg == nil {
		cfg = Config{}
	}
	return Info{
		Name:       r.Name,
		EngineType: r.EngineType,
		Version:    r.Version,
		State:      NewWaitToStart(),
		Config:     cfg,
		CreateTime: createTime,
	}
}
