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

// Package resource defines the resource-manager capability the monitor
// drives to create, observe, and delete the workload backing an
// engine. internal/resource/k8s provides the Spark-on-Kubernetes
// implementation; other backends implement the same interface.
package resource

import (
	"context"

	"rucat.dev/rucat/internal/engine"
)

// State is the non-failing, coarse observation of a workload's
// lifecycle as seen by the resource manager. It deliberately carries
// no backend-specific detail (pod phase, exit code, events) — that
// detail, if ever needed for diagnostics, belongs in logs, not in the
// state machine's input.
type State string

const (
	NotExisted State = "NotExisted"
	Pending    State = "Pending"
	Running    State = "Running"
	Succeeded  State = "Succeeded"
	Failed     State = "Failed"
	Unknown    State = "Unknown"
)

// Manager is the capability set the monitor needs from a resource
// backend. Implementations must make CreateResource and CleanResource
// idempotent: the monitor may call either more than once for the same
// engine id after a crash-and-retry (spec.md §4.4's "Idempotence &
// safety").
type Manager interface {
	// CreateResource provisions the workload backing id, using cfg as
	// the user-supplied submission config merged over the backend's
	// presets. It returns an error (not a State) because creation is a
	// one-shot side effect invoked only from a Trigger* state; its
	// success/failure decides the Trigger release mapping
	// (internal/statemachine), not the observed-state mapping.
	CreateResource(ctx context.Context, id engine.Id, version engine.Version, cfg engine.Config) error

	// GetResourceState observes the current state of the workload
	// backing id. It never fails: transient backend errors degrade to
	// Unknown rather than propagating, because the observed-state
	// mapping (internal/statemachine) has no transition defined for a
	// backend error and the monitor must keep making progress on other
	// engines.
	GetResourceState(ctx context.Context, id engine.Id) State

	// CleanResource removes the workload backing id. Called from a
	// Trigger* state (normal or error termination); must tolerate
	// being invoked against an already-absent resource.
	CleanResource(ctx context.Context, id engine.Id) error
}
