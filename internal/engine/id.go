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

// Package engine holds the data types shared by the store, resource
// manager, state machine, monitor, and HTTP API: engine identity,
// configuration, state, and the create-request shape. Grounded on
// original_source/rucat_common/src/engine/*.rs, re-expressed without a
// borrow-checked Cow<str> since Go strings are already immutable value
// types.
package engine

import (
	"encoding/json"

	"github.com/google/uuid"

	"rucat.dev/rucat/internal/rucaterr"
)

// Id is the opaque, non-empty identifier of an engine. Equality is byte
// equality on the underlying string; ordering is lexicographic, which is
// what ListEngines relies on to return ids "sorted ascending" per
// spec.md §4.1.
type Id struct {
	value string
}

// NewId validates and wraps a raw id string. An empty string is invalid
// at construction, per spec.md §3 ("Empty string is invalid at
// construction").
func NewId(id string) (Id, error) {
	if id == "" {
		return Id{}, rucaterr.NotAllowedf("engine id cannot be empty")
	}
	return Id{value: id}, nil
}

// MustNewId panics on an invalid id; used in tests and for ids already
// known to be valid (e.g. freshly generated by the store).
func MustNewId(id string) Id {
	v, err := NewId(id)
	if err != nil {
		panic(err)
	}
	return v
}

// NewGeneratedId mints a fresh, store-assigned id. The store, not the
// caller, owns identity: a CreateRequest carries only a display Name
// (internal/engine.Info.Name), matching the original's EngineInfo,
// where "name" and the record's EngineId are always distinct fields.
func NewGeneratedId() Id {
	return Id{value: uuid.NewString()}
}

func (i Id) String() string { return i.value }

// Less reports whether i sorts before o, for sort.Slice over []Id.
func (i Id) Less(o Id) bool { return i.value < o.value }

func (i Id) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.value)
}

func (i *Id) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := NewId(s)
	if err != nil {
		return err
	}
	*i = v
	return nil
}
