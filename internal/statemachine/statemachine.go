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

// Package statemachine holds the pure, table-driven mappings that
// decide an engine's next lifecycle state. Nothing here touches a
// store, a clock, or a resource manager: every function is a plain
// (state, ...) -> state computation, so internal/monitor and both
// internal/store backends can share exactly one copy of the transition
// tables instead of re-deriving them.
package statemachine

import (
	"time"

	"rucat.dev/rucat/internal/engine"
	"rucat.dev/rucat/internal/resource"
)

// NeedsUpdate decides whether an engine currently in state belongs in
// ListEnginesNeedUpdate's result: Waiting states always do (nothing has
// acquired them yet); Trigger and InProgress/Running states do only
// once nextUpdate has passed (a timed-out acquisition or a due
// recheck). Stable terminal states never do. Shared by both store
// backends so the classification window lives in exactly one place.
func NeedsUpdate(state engine.State, nextUpdate *time.Time, now time.Time) bool {
	switch {
	case state.IsWaiting():
		return true
	case state.IsTrigger(), state.IsInProgressOrRunning():
		return nextUpdate != nil && !now.Before(*nextUpdate)
	default:
		return false
	}
}

// ObservedToNext implements the observed-resource-state -> next-engine-state
// mapping. It is defined only for the four "in progress or running"
// states that own a live resource (StartInProgress, Running,
// TerminateInProgress, ErrorCleanInProgress); calling it with any other
// current state is a programming error, since the monitor only
// consults this table for engines already filtered to that category
// (engine.State.IsInProgressOrRunning).
//
// The bool result reports whether a transition applies; a dash cell in
// the source table ("no transition this round") returns false and the
// caller leaves the engine's state untouched.
func ObservedToNext(current engine.State, observed resource.State) (engine.State, bool) {
	switch current.Kind {
	case engine.StartInProgress:
		switch observed {
		case resource.NotExisted, resource.Succeeded, resource.Failed:
			return engine.NewErrorClean("Engine fails to start."), true
		case resource.Running:
			return engine.NewRunning(), true
		default:
			return engine.State{}, false
		}
	case engine.Running:
		switch observed {
		case resource.NotExisted, resource.Succeeded, resource.Failed:
			return engine.NewErrorClean("Engine terminates during running."), true
		case resource.Pending:
			return engine.NewErrorCleanInProgress("Engine restarts unexpected."), true
		default:
			return engine.State{}, false
		}
	case engine.TerminateInProgress:
		if observed == resource.NotExisted {
			return engine.NewTerminated(), true
		}
		return engine.State{}, false
	case engine.ErrorCleanInProgress:
		if observed == resource.NotExisted {
			return engine.NewErrorClean(current.Message), true
		}
		return engine.State{}, false
	default:
		return engine.State{}, false
	}
}

// TriggerRelease implements the trigger-release mapping: after the
// monitor performs the side effect associated with a Trigger* state
// (create_resource for TriggerStart, clean_resource for
// TriggerTermination and ErrorTriggerClean), it calls TriggerRelease
// with the side effect's outcome to get the state to CAS into.
//
// sideEffectErr is nil on success. Calling TriggerRelease with a
// current state that is not one of the three Trigger* kinds is a
// programming error.
func TriggerRelease(current engine.State, sideEffectErr error) engine.State {
	switch current.Kind {
	case engine.TriggerStart:
		if sideEffectErr == nil {
			return engine.NewStartInProgress()
		}
		return engine.NewErrorClean(sideEffectErr.Error())
	case engine.TriggerTermination:
		if sideEffectErr == nil {
			return engine.NewTerminateInProgress()
		}
		return engine.NewErrorWaitToClean(sideEffectErr.Error())
	case engine.ErrorTriggerClean:
		if sideEffectErr == nil {
			return engine.NewErrorCleanInProgress(current.Message)
		}
		return engine.NewErrorWaitToClean(current.Message + "\n\n" + sideEffectErr.Error())
	default:
		panic("statemachine: TriggerRelease called with non-Trigger state " + current.String())
	}
}

// Acquire implements the acquire mapping: the state a Waiting engine
// moves into when a monitor picks it up to perform its side effect.
// Calling Acquire with a current state that is not one of the three
// Waiting kinds is a programming error.
func Acquire(current engine.State) engine.State {
	switch current.Kind {
	case engine.WaitToStart:
		return engine.NewTriggerStart()
	case engine.WaitToTerminate:
		return engine.NewTriggerTermination()
	case engine.ErrorWaitToClean:
		return engine.NewErrorTriggerClean(current.Message)
	default:
		panic("statemachine: Acquire called with non-Waiting state " + current.String())
	}
}

// legalTransitions enumerates every (before, after) state-kind pair
// that can appear as consecutive observed states for one engine id,
// across the acquire mapping, the trigger release mapping, the
// observed-to-next mapping, and the API-driven stop/restart/self-refresh
// transitions (spec.md §8's "any two consecutive observed states must
// be a legal transition" property).
var legalTransitions = map[engine.StateKind]map[engine.StateKind]bool{
	engine.WaitToStart: {
		engine.TriggerStart: true,
	},
	engine.TriggerStart: {
		engine.TriggerStart:     true, // self-refresh on trigger timeout
		engine.StartInProgress:  true,
		engine.ErrorClean:       true,
	},
	engine.StartInProgress: {
		engine.Running:         true,
		engine.ErrorClean:      true,
		engine.WaitToTerminate: true, // API stop
	},
	engine.Running: {
		engine.WaitToTerminate:       true, // API stop
		engine.ErrorClean:            true,
		engine.ErrorCleanInProgress:  true,
	},
	engine.WaitToTerminate: {
		engine.TriggerTermination: true,
	},
	engine.TriggerTermination: {
		engine.TriggerTermination:    true, // self-refresh on trigger timeout
		engine.TerminateInProgress:   true,
		engine.ErrorWaitToClean:      true,
	},
	engine.TerminateInProgress: {
		engine.Terminated: true,
	},
	engine.Terminated: {
		engine.WaitToStart: true, // API restart
	},
	engine.ErrorWaitToClean: {
		engine.ErrorTriggerClean: true,
	},
	engine.ErrorTriggerClean: {
		engine.ErrorTriggerClean:    true, // self-refresh on trigger timeout
		engine.ErrorCleanInProgress: true,
		engine.ErrorWaitToClean:     true,
	},
	engine.ErrorCleanInProgress: {
		engine.ErrorClean: true,
	},
	engine.ErrorClean: {},
}

// IsLegalTransition reports whether after can immediately follow before
// as consecutive observed states of the same engine id. Two equal
// states are always legal: a CAS self-refresh (re-extending a trigger
// timeout) or an un-acquired waiting engine observed twice in a row
// both produce before == after on the *Kind*, though self-refresh of a
// Trigger* state is already covered by the explicit self-loop entries
// above; a Waiting state observed twice without being acquired is not
// a "transition" at all, so it is also permitted here.
func IsLegalTransition(before, after engine.State) bool {
	if before.Kind == after.Kind {
		return true
	}
	next, ok := legalTransitions[before.Kind]
	if !ok {
		return false
	}
	return next[after.Kind]
}
