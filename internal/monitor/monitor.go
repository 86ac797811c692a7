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

// Package monitor implements the reconciliation loop: the single
// long-running task that drives every engine's CAS-guarded state
// machine forward by polling the store for due work and invoking the
// resource manager's side effects. Grounded on
// original_source/rucat_state_monitor/src/lib.rs's run_state_monitor
// loop; Monitor owns no persistent state of its own, matching that
// original's "the monitor is a pure driver" design.
package monitor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"rucat.dev/rucat/internal/engine"
	"rucat.dev/rucat/internal/resource"
	"rucat.dev/rucat/internal/statemachine"
	"rucat.dev/rucat/internal/store"
)

// Config parameterises one Monitor: how often to sweep the store for
// due engines, and how long an acquired Trigger* state may sit before
// another sweep treats it as timed out and self-refreshes it.
type Config struct {
	CheckInterval  time.Duration
	TriggerTimeout time.Duration
}

// Monitor runs the reconciliation loop against a store and a resource
// manager. The zero value is not usable; construct with New.
type Monitor struct {
	store   store.Store
	manager resource.Manager
	cfg     Config
	log     *zap.Logger
	events  *EventRecorder
	clock   func() time.Time
}

// New returns a Monitor. A nil logger defaults to zap.NewNop(); a nil
// EventRecorder is accepted and simply emits no events (EventRecorder
// itself is nil-tolerant, matching the teacher's wrapper).
func New(s store.Store, m resource.Manager, cfg Config, log *zap.Logger, events *EventRecorder) *Monitor {
	if log == nil {
		log = zap.NewNop()
	}
	if events == nil {
		events = NewEventRecorder(nil, "")
	}
	return &Monitor{
		store:   s,
		manager: m,
		cfg:     cfg,
		log:     log,
		events:  events,
		clock:   time.Now,
	}
}

// Run sweeps the store every CheckInterval until ctx is cancelled,
// matching spec step 6: "sleep for max(0, T_check - (now - start)) and
// repeat." The loop never returns an error: every failure within an
// iteration is logged and either retried on the next tick or captured
// in engine state, per the propagation policy.
func (m *Monitor) Run(ctx context.Context) {
	for {
		start := m.clock()
		m.RunOnce(ctx)
		recordIterationDuration(m.clock().Sub(start).Seconds())

		elapsed := m.clock().Sub(start)
		sleep := m.cfg.CheckInterval - elapsed
		if sleep < 0 {
			sleep = 0
		}

		select {
		case <-ctx.Done():
			m.log.Info("monitor loop stopping", zap.Error(ctx.Err()))
			return
		case <-time.After(sleep):
		}
	}
}

// RunOnce performs one sweep: list engines due for attention and drive
// each one forward independently (spec.md §4.4's "one iteration").
// Exported so tests can invoke exactly one pass deterministically.
func (m *Monitor) RunOnce(ctx context.Context) {
	due, err := m.store.ListEnginesNeedUpdate(ctx)
	if err != nil {
		m.log.Error("failed to list engines needing update", zap.Error(err))
		recordReconcile(resultStoreError)
		return
	}

	for _, e := range due {
		m.processOne(ctx, e.Id, e.Info)
	}
}

// processOne drives a single due engine forward by exactly the step
// its current state category calls for, then returns: Waiting and
// timed-out Trigger* states are acquired and their side effect
// invoked; Running/*InProgress states are advanced via the
// observed-resource-state mapping; anything else is unreachable.
func (m *Monitor) processOne(ctx context.Context, id engine.Id, info engine.Info) {
	switch {
	case info.State.IsWaiting():
		m.acquireAndRelease(ctx, id, info, false)
	case info.State.IsTrigger():
		// list_engines_need_update only returns a Trigger* engine once
		// its deadline has passed (spec.md §4.1(c)): a prior monitor
		// died between acquisition and release. Self-refresh by
		// CAS'ing the same state back onto itself, then retry the side
		// effect; CreateResource/CleanResource must therefore be
		// idempotent (spec.md §4.4, "Idempotence & safety").
		recordTriggerTimeout()
		m.events.EngineTriggerTimedOut(id, info.State.Kind)
		m.acquireAndRelease(ctx, id, info, true)
	case info.State.IsInProgressOrRunning():
		m.advanceObserved(ctx, id, info)
	default:
		m.log.Error("engine in unreachable state for list_engines_need_update",
			zap.String("id", id.String()), zap.String("state", info.State.String()))
		recordReconcile(resultUnreachable)
	}
}

// acquireAndRelease implements spec steps 3 (acquire), 4 (side effect),
// and 5 (trigger release) for one engine. selfRefresh is true when the
// engine was already in the Trigger* state being acquired (a timed-out
// re-acquisition) rather than a Waiting state being acquired for the
// first time.
func (m *Monitor) acquireAndRelease(ctx context.Context, id engine.Id, info engine.Info, selfRefresh bool) {
	acquired := info.State
	if !selfRefresh {
		acquired = statemachine.Acquire(info.State)
	}

	acquireDeadline := m.clock().Add(m.cfg.TriggerTimeout)
	resp, err := m.store.UpdateEngineState(ctx, id, info.State, acquired, &acquireDeadline)
	if err != nil {
		m.log.Error("failed to CAS-acquire engine", zap.String("id", id.String()), zap.Error(err))
		recordReconcile(resultStoreError)
		return
	}
	if resp == nil {
		recordReconcile(resultEngineVanished)
		return
	}
	if !resp.Success {
		// Another monitor already acquired (or self-refreshed) this
		// engine first; this is the expected outcome of two monitors
		// racing on the same waiting/timed-out engine (spec.md §5,
		// "Concurrent monitors").
		m.log.Debug("lost CAS race acquiring engine", zap.String("id", id.String()))
		recordReconcile(resultCASMiss)
		return
	}
	recordReconcile(resultAcquired)
	recordTransition(info.State.Kind, acquired.Kind)

	sideEffectErr := m.invokeSideEffect(ctx, id, info, acquired)
	if sideEffectErr != nil {
		m.log.Warn("side effect failed for acquired engine",
			zap.String("id", id.String()), zap.String("trigger", string(acquired.Kind)), zap.Error(sideEffectErr))
	}

	released := statemachine.TriggerRelease(acquired, sideEffectErr)
	releaseDeadline := m.clock().Add(m.cfg.CheckInterval)
	releaseResp, err := m.store.UpdateEngineState(ctx, id, acquired, released, &releaseDeadline)
	if err != nil {
		m.log.Error("failed to CAS-release engine", zap.String("id", id.String()), zap.Error(err))
		recordReconcile(resultStoreError)
		return
	}
	if releaseResp == nil || !releaseResp.Success {
		// Nothing but this same monitor's own release is ever allowed
		// to move a Trigger* state; any other outcome means a second
		// actor illegally touched it.
		m.log.Error("unreachable: Trigger* state was not released by its own acquirer",
			zap.String("id", id.String()), zap.String("trigger", string(acquired.Kind)))
		recordReconcile(resultReleaseFailed)
		return
	}

	recordTransition(acquired.Kind, released.Kind)
	m.emitLifecycleEvent(id, acquired.Kind, released)
}

// invokeSideEffect runs the resource-manager call a Trigger* state
// commits to: create_resource for TriggerStart, clean_resource for
// TriggerTermination and ErrorTriggerClean (spec.md §4.4 step 4).
func (m *Monitor) invokeSideEffect(ctx context.Context, id engine.Id, info engine.Info, acquired engine.State) error {
	switch acquired.Kind {
	case engine.TriggerStart:
		return m.manager.CreateResource(ctx, id, info.Version, info.Config)
	case engine.TriggerTermination, engine.ErrorTriggerClean:
		return m.manager.CleanResource(ctx, id)
	default:
		panic("monitor: invokeSideEffect called with non-Trigger state " + acquired.String())
	}
}

// advanceObserved implements spec step 3's second bullet: compute the
// next state from the resource manager's observation and CAS into it
// if one applies; otherwise the CAS only refreshes next_update_time.
func (m *Monitor) advanceObserved(ctx context.Context, id engine.Id, info engine.Info) {
	observed := m.manager.GetResourceState(ctx, id)
	next, ok := statemachine.ObservedToNext(info.State, observed)
	nextUpdate := m.clock().Add(m.cfg.CheckInterval)

	if !ok {
		// No transition this round; still refresh the deadline so the
		// engine is polled again next tick rather than going stale.
		if _, err := m.store.UpdateEngineState(ctx, id, info.State, info.State, &nextUpdate); err != nil {
			m.log.Error("failed to refresh next-update deadline", zap.String("id", id.String()), zap.Error(err))
			recordReconcile(resultStoreError)
			return
		}
		recordReconcile(resultNoTransition)
		return
	}

	resp, err := m.store.UpdateEngineState(ctx, id, info.State, next, &nextUpdate)
	if err != nil {
		m.log.Error("failed to CAS engine to observed next state", zap.String("id", id.String()), zap.Error(err))
		recordReconcile(resultStoreError)
		return
	}
	if resp == nil {
		recordReconcile(resultEngineVanished)
		return
	}
	if !resp.Success {
		m.log.Debug("lost CAS race advancing observed engine state", zap.String("id", id.String()))
		recordReconcile(resultCASMiss)
		return
	}

	recordReconcile(resultTransitioned)
	recordTransition(info.State.Kind, next.Kind)
	m.emitLifecycleEvent(id, info.State.Kind, next)
}

// emitLifecycleEvent records the user-facing event, if any, for
// transitioning from a state of kind `from` into `to`.
func (m *Monitor) emitLifecycleEvent(id engine.Id, from engine.StateKind, to engine.State) {
	switch to.Kind {
	case engine.Running:
		m.events.EngineStarted(id)
	case engine.Terminated:
		m.events.EngineTerminated(id)
	case engine.ErrorClean, engine.ErrorWaitToClean, engine.ErrorCleanInProgress:
		if !isErrorKind(from) {
			m.events.EngineFailed(id, to.Message)
		}
	}
}

func isErrorKind(k engine.StateKind) bool {
	switch k {
	case engine.ErrorWaitToClean, engine.ErrorTriggerClean, engine.ErrorCleanInProgress, engine.ErrorClean:
		return true
	default:
		return false
	}
}
