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
	"encoding/json"
	"fmt"
)

// StateKind enumerates the twelve states of spec.md §3. Go has no sum
// type with per-variant payloads, so State pairs a Kind with an optional
// Message (populated only for the four Error* kinds) instead of the
// original's `EngineState::ErrorClean(Cow<str>)`-style variant payload.
type StateKind string

const (
	WaitToStart         StateKind = "WaitToStart"
	TriggerStart        StateKind = "TriggerStart"
	StartInProgress     StateKind = "StartInProgress"
	Running             StateKind = "Running"
	WaitToTerminate     StateKind = "WaitToTerminate"
	TriggerTermination  StateKind = "TriggerTermination"
	TerminateInProgress StateKind = "TerminateInProgress"
	Terminated          StateKind = "Terminated"
	ErrorWaitToClean    StateKind = "ErrorWaitToClean"
	ErrorTriggerClean   StateKind = "ErrorTriggerClean"
	ErrorCleanInProgress StateKind = "ErrorCleanInProgress"
	ErrorClean          StateKind = "ErrorClean"
)

// hasMessage is the set of Error* kinds that carry a message.
var hasMessage = map[StateKind]bool{
	ErrorWaitToClean:     true,
	ErrorTriggerClean:    true,
	ErrorCleanInProgress: true,
	ErrorClean:           true,
}

// State is an engine lifecycle state: a Kind plus, for the four Error*
// kinds, a carried message (spec.md §3, "parameterised by a message
// string carried through").
type State struct {
	Kind    StateKind
	Message string
}

// Plain constructors for the eight message-free states.
func NewWaitToStart() State         { return State{Kind: WaitToStart} }
func NewTriggerStart() State        { return State{Kind: TriggerStart} }
func NewStartInProgress() State     { return State{Kind: StartInProgress} }
func NewRunning() State             { return State{Kind: Running} }
func NewWaitToTerminate() State     { return State{Kind: WaitToTerminate} }
func NewTriggerTermination() State  { return State{Kind: TriggerTermination} }
func NewTerminateInProgress() State { return State{Kind: TerminateInProgress} }
func NewTerminated() State          { return State{Kind: Terminated} }

// Message-carrying constructors for the four Error* kinds.
func NewErrorWaitToClean(msg string) State     { return State{Kind: ErrorWaitToClean, Message: msg} }
func NewErrorTriggerClean(msg string) State    { return State{Kind: ErrorTriggerClean, Message: msg} }
func NewErrorCleanInProgress(msg string) State { return State{Kind: ErrorCleanInProgress, Message: msg} }
func NewErrorClean(msg string) State           { return State{Kind: ErrorClean, Message: msg} }

// Equal reports whether s and o are the same state, including message
// for Error* kinds. This is the predicate CAS compares against.
func (s State) Equal(o State) bool {
	return s.Kind == o.Kind && s.Message == o.Message
}

func (s State) String() string {
	if hasMessage[s.Kind] {
		return fmt.Sprintf("%s(%q)", s.Kind, s.Message)
	}
	return string(s.Kind)
}

// IsWaiting reports whether s is one of the Waiting states the monitor
// must pick up: WaitToStart, WaitToTerminate, ErrorWaitToClean.
func (s State) IsWaiting() bool {
	switch s.Kind {
	case WaitToStart, WaitToTerminate, ErrorWaitToClean:
		return true
	default:
		return false
	}
}

// IsTrigger reports whether s is a short-lived Trigger state: a monitor
// has acquired the engine and is performing a side effect.
func (s State) IsTrigger() bool {
	switch s.Kind {
	case TriggerStart, TriggerTermination, ErrorTriggerClean:
		return true
	default:
		return false
	}
}

// IsInProgressOrRunning reports whether s has an external resource that
// must be polled: StartInProgress, Running, TerminateInProgress,
// ErrorCleanInProgress.
func (s State) IsInProgressOrRunning() bool {
	switch s.Kind {
	case StartInProgress, Running, TerminateInProgress, ErrorCleanInProgress:
		return true
	default:
		return false
	}
}

// IsStableTerminal reports whether s is absorbing for the monitor:
// Terminated or ErrorClean. Only an API-initiated delete removes such a
// record.
func (s State) IsStableTerminal() bool {
	switch s.Kind {
	case Terminated, ErrorClean:
		return true
	default:
		return false
	}
}

type stateJSON struct {
	Kind    StateKind `json:"kind"`
	Message string    `json:"message,omitempty"`
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateJSON{Kind: s.Kind, Message: s.Message})
}

func (s *State) UnmarshalJSON(data []byte) error {
	var raw stateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Kind = raw.Kind
	s.Message = raw.Message
	return nil
}
