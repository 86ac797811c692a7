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

package monitor

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/tools/record"

	"rucat.dev/rucat/internal/engine"
)

// Event reasons for engine lifecycle transitions.
const (
	// ReasonEngineStarted indicates an engine's driver reached Running.
	ReasonEngineStarted = "EngineStarted"

	// ReasonEngineTerminated indicates an engine reached Terminated.
	ReasonEngineTerminated = "EngineTerminated"

	// ReasonEngineFailed indicates an engine entered the Error* lifecycle.
	ReasonEngineFailed = "EngineFailed"

	// ReasonEngineTriggerTimedOut indicates a Trigger* acquisition's
	// deadline passed and was self-refreshed.
	ReasonEngineTriggerTimedOut = "EngineTriggerTimedOut"
)

// EventRecorder emits Kubernetes events for engine lifecycle
// transitions. Engines have no first-class Kubernetes object of their
// own, so events are attached to a synthetic ConfigMap reference named
// after the engine id, generalising the teacher's EventRecorder wrapper
// (internal/controller/events.go) from Node/Pool objects to engine ids.
type EventRecorder struct {
	recorder  record.EventRecorder
	namespace string
}

// NewEventRecorder returns an EventRecorder that attaches events to
// synthetic ConfigMap references in namespace. An empty namespace
// defaults to "default".
func NewEventRecorder(recorder record.EventRecorder, namespace string) *EventRecorder {
	if namespace == "" {
		namespace = "default"
	}
	return &EventRecorder{recorder: recorder, namespace: namespace}
}

// engineRef builds the synthetic object an engine's events are attached
// to. It is never created on the API server; it exists only to give
// the EventRecorder a runtime.Object with a stable name and UID.
func (e *EventRecorder) engineRef(id engine.Id) *corev1.ConfigMap {
	return &corev1.ConfigMap{
		TypeMeta: metav1.TypeMeta{Kind: "ConfigMap", APIVersion: "v1"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      "rucat-engine-" + id.String(),
			Namespace: e.namespace,
			UID:       types.UID(id.String()),
		},
	}
}

// EngineStarted emits a normal event when an engine's driver reaches Running.
func (e *EventRecorder) EngineStarted(id engine.Id) {
	if e.recorder == nil {
		return
	}
	e.recorder.Event(e.engineRef(id), corev1.EventTypeNormal, ReasonEngineStarted,
		"Engine driver reached Running")
}

// EngineTerminated emits a normal event when an engine reaches Terminated.
func (e *EventRecorder) EngineTerminated(id engine.Id) {
	if e.recorder == nil {
		return
	}
	e.recorder.Event(e.engineRef(id), corev1.EventTypeNormal, ReasonEngineTerminated,
		"Engine terminated")
}

// EngineFailed emits a warning event when an engine enters the Error*
// lifecycle, carrying the message recorded in its new state.
func (e *EventRecorder) EngineFailed(id engine.Id, message string) {
	if e.recorder == nil {
		return
	}
	e.recorder.Eventf(e.engineRef(id), corev1.EventTypeWarning, ReasonEngineFailed,
		"Engine failed: %s", message)
}

// EngineTriggerTimedOut emits a warning event when a Trigger*
// acquisition's deadline passed before release and was self-refreshed.
func (e *EventRecorder) EngineTriggerTimedOut(id engine.Id, state engine.StateKind) {
	if e.recorder == nil {
		return
	}
	e.recorder.Eventf(e.engineRef(id), corev1.EventTypeWarning, ReasonEngineTriggerTimedOut,
		"Trigger state %s timed out before release, self-refreshing", state)
}
