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

// Package store defines the metadata-store contract the HTTP API and
// the monitor use to persist engine records. Compare-and-swap is the
// store's only synchronization primitive: every mutation other than
// AddEngine names the state it expects to find and fails without
// effect if that expectation is stale.
package store

import (
	"context"
	"time"

	"rucat.dev/rucat/internal/engine"
)

// UpdateResp reports the outcome of a conditional mutation.
type UpdateResp struct {
	// BeforeState is the state the record actually held at the time of
	// the attempt: the caller's expected state on success, or the
	// actual (differing) stored state on a failed CAS.
	BeforeState engine.State
	// Success is true only if the record's state equaled the caller's
	// expected state and the mutation was applied.
	Success bool
}

// EngineIdAndInfo pairs an id with its full record, returned by
// ListEnginesNeedUpdate so callers don't need a follow-up GetEngine
// per id.
type EngineIdAndInfo struct {
	Id   engine.Id
	Info engine.Info
}

// Store is the metadata-store capability the HTTP API and the monitor
// depend on. Every method is safe for concurrent use.
type Store interface {
	// AddEngine inserts a new record in state WaitToStart with fields
	// from req. nextUpdate is the wall-clock time a monitor should
	// next attempt to advance the engine; nil means never.
	AddEngine(ctx context.Context, req engine.CreateRequest, nextUpdate *time.Time) (engine.Id, error)

	// RemoveEngine conditionally deletes the record for id. It returns
	// (nil, nil) if id is absent. Otherwise it returns an UpdateResp
	// whose Success is true only if the stored state equaled expected,
	// in which case the record was deleted; if Success is false the
	// record is untouched.
	RemoveEngine(ctx context.Context, id engine.Id, expected engine.State) (*UpdateResp, error)

	// UpdateEngineState atomically compares the record's state to
	// before and, if equal, sets it to after and stores nextUpdate. It
	// returns (nil, nil) if id is absent, and an UpdateResp describing
	// the outcome (including the pre-existing state on a failed CAS)
	// otherwise. This is the only mechanism any caller ever uses to
	// change a stored engine's state.
	UpdateEngineState(ctx context.Context, id engine.Id, before, after engine.State, nextUpdate *time.Time) (*UpdateResp, error)

	// GetEngine returns the full record for id, or nil if absent.
	GetEngine(ctx context.Context, id engine.Id) (*engine.Info, error)

	// ListEngines returns every stored id, sorted ascending.
	ListEngines(ctx context.Context) ([]engine.Id, error)

	// ListEnginesNeedUpdate returns every engine the monitor should
	// consider this tick: engines in a Waiting state; engines in a
	// Trigger state whose next-update deadline has passed (a timed-out
	// acquisition); and engines Running or in an *InProgress state
	// whose next-update deadline has passed.
	ListEnginesNeedUpdate(ctx context.Context) ([]EngineIdAndInfo, error)
}
