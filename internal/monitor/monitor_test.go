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
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"rucat.dev/rucat/internal/engine"
	"rucat.dev/rucat/internal/resource"
	"rucat.dev/rucat/internal/statemachine"
	"rucat.dev/rucat/internal/store/memstore"
)

// fakeManager is a hand-written resource.Manager test double: no
// mockgen is run in this build, so call counts and canned responses
// are tracked directly instead of through a generated mock.
type fakeManager struct {
	mu          sync.Mutex
	createCalls int
	createErr   error
	cleanCalls  int
	cleanErr    error
	state       resource.State
}

func (f *fakeManager) CreateResource(_ context.Context, _ engine.Id, _ engine.Version, _ engine.Config) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	return f.createErr
}

func (f *fakeManager) GetResourceState(_ context.Context, _ engine.Id) resource.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeManager) CleanResource(_ context.Context, _ engine.Id) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanCalls++
	return f.cleanErr
}

var _ resource.Manager = (*fakeManager)(nil)

func (f *fakeManager) createCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls
}

func newTestRequest(name string) engine.CreateRequest {
	return engine.CreateRequest{Name: name, EngineType: engine.TypeSpark, Version: "3.5.3"}
}

func TestRunOnce_AcquiresWaitingEngineAndCreatesResource(t *testing.T) {
	s := memstore.New()
	fm := &fakeManager{state: resource.Pending}
	m := New(s, fm, Config{CheckInterval: time.Minute, TriggerTimeout: time.Minute}, nil, nil)
	ctx := context.Background()

	id, err := s.AddEngine(ctx, newTestRequest("e1"), nil)
	if err != nil {
		t.Fatal(err)
	}

	m.RunOnce(ctx)

	info, err := s.GetEngine(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if info.State.Kind != engine.StartInProgress {
		t.Fatalf("state = %v, want StartInProgress", info.State)
	}
	if fm.createCallCount() != 1 {
		t.Fatalf("createCalls = %d, want 1", fm.createCallCount())
	}
}

func TestRunOnce_CreateResourceFailure_GoesToErrorClean(t *testing.T) {
	s := memstore.New()
	fm := &fakeManager{createErr: errors.New("boom")}
	m := New(s, fm, Config{CheckInterval: time.Minute, TriggerTimeout: time.Minute}, nil, nil)
	ctx := context.Background()

	id, err := s.AddEngine(ctx, newTestRequest("e1"), nil)
	if err != nil {
		t.Fatal(err)
	}

	m.RunOnce(ctx)

	info, err := s.GetEngine(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if info.State.Kind != engine.ErrorClean {
		t.Fatalf("state = %v, want ErrorClean", info.State)
	}
	if info.State.Message != "boom" {
		t.Fatalf("message = %q, want %q", info.State.Message, "boom")
	}
}

func TestRunOnce_TimedOutTrigger_SelfRefreshesAndRetries(t *testing.T) {
	s := memstore.New()
	fm := &fakeManager{state: resource.Pending}
	m := New(s, fm, Config{CheckInterval: time.Minute, TriggerTimeout: time.Minute}, nil, nil)
	ctx := context.Background()

	id, err := s.AddEngine(ctx, newTestRequest("e1"), nil)
	if err != nil {
		t.Fatal(err)
	}
	info, err := s.GetEngine(ctx, id)
	if err != nil {
		t.Fatal(err)
	}

	// Simulate a previous monitor that acquired the engine and then
	// died before releasing it: the acquisition's deadline has passed.
	past := time.Now().Add(-time.Hour)
	resp, err := s.UpdateEngineState(ctx, id, info.State, engine.NewTriggerStart(), &past)
	if err != nil || resp == nil || !resp.Success {
		t.Fatalf("setup CAS failed: resp=%+v err=%v", resp, err)
	}

	m.RunOnce(ctx)

	info, err = s.GetEngine(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if info.State.Kind != engine.StartInProgress {
		t.Fatalf("state = %v, want StartInProgress", info.State)
	}
	if fm.createCallCount() != 1 {
		t.Fatalf("createCalls = %d, want 1 (the retried, idempotent create)", fm.createCallCount())
	}
}

func TestRunOnce_ObservedToNext_StartInProgressToRunning(t *testing.T) {
	s := memstore.New()
	fm := &fakeManager{state: resource.Running}
	m := New(s, fm, Config{CheckInterval: time.Minute, TriggerTimeout: time.Minute}, nil, nil)
	ctx := context.Background()

	id, err := s.AddEngine(ctx, newTestRequest("e1"), nil)
	if err != nil {
		t.Fatal(err)
	}
	info, err := s.GetEngine(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-time.Minute)
	if resp, err := s.UpdateEngineState(ctx, id, info.State, engine.NewStartInProgress(), &past); err != nil || resp == nil || !resp.Success {
		t.Fatalf("setup CAS failed: resp=%+v err=%v", resp, err)
	}

	m.RunOnce(ctx)

	info, err = s.GetEngine(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if info.State.Kind != engine.Running {
		t.Fatalf("state = %v, want Running", info.State)
	}
}

func TestRunOnce_ObservedToNext_NoTransition_LeavesStateUnchanged(t *testing.T) {
	s := memstore.New()
	fm := &fakeManager{state: resource.Pending} // StartInProgress x Pending is a dash cell
	m := New(s, fm, Config{CheckInterval: time.Minute, TriggerTimeout: time.Minute}, nil, nil)
	ctx := context.Background()

	id, err := s.AddEngine(ctx, newTestRequest("e1"), nil)
	if err != nil {
		t.Fatal(err)
	}
	info, err := s.GetEngine(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-time.Minute)
	if resp, err := s.UpdateEngineState(ctx, id, info.State, engine.NewStartInProgress(), &past); err != nil || resp == nil || !resp.Success {
		t.Fatalf("setup CAS failed: resp=%+v err=%v", resp, err)
	}

	m.RunOnce(ctx)

	info, err = s.GetEngine(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if info.State.Kind != engine.StartInProgress {
		t.Fatalf("state = %v, want unchanged StartInProgress", info.State)
	}
}

func TestRunOnce_FullLifecycleIsAllLegalTransitions(t *testing.T) {
	s := memstore.New()
	fm := &fakeManager{state: resource.Pending}
	// CheckInterval 0 makes the released StartInProgress engine due again
	// on the very next RunOnce.
	m := New(s, fm, Config{CheckInterval: 0, TriggerTimeout: time.Minute}, nil, nil)
	ctx := context.Background()

	id, err := s.AddEngine(ctx, newTestRequest("e1"), nil)
	if err != nil {
		t.Fatal(err)
	}
	observed := []engine.State{engine.NewWaitToStart()}

	record := func() {
		info, err := s.GetEngine(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if !info.State.Equal(observed[len(observed)-1]) {
			observed = append(observed, info.State)
		}
	}

	m.RunOnce(ctx) // WaitToStart -> TriggerStart -> StartInProgress
	record()

	fm.state = resource.Running
	m.RunOnce(ctx) // StartInProgress -> Running
	record()

	for i := 1; i < len(observed); i++ {
		if !statemachine.IsLegalTransition(observed[i-1], observed[i]) {
			t.Fatalf("illegal transition %v -> %v", observed[i-1], observed[i])
		}
	}
}

func TestRunOnce_ConcurrentMonitors_OnlyOneAcquires(t *testing.T) {
	s := memstore.New()
	fm := &fakeManager{state: resource.Pending}
	cfg := Config{CheckInterval: time.Minute, TriggerTimeout: time.Minute}
	m1 := New(s, fm, cfg, nil, nil)
	m2 := New(s, fm, cfg, nil, nil)
	ctx := context.Background()

	if _, err := s.AddEngine(ctx, newTestRequest("e1"), nil); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); m1.RunOnce(ctx) }()
	go func() { defer wg.Done(); m2.RunOnce(ctx) }()
	wg.Wait()

	if fm.createCallCount() != 1 {
		t.Fatalf("createCalls = %d, want exactly 1 across both racing monitors", fm.createCallCount())
	}
}

func TestRunOnce_ListEnginesNeedUpdate_NeverReturnsTerminalStates(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	id, err := s.AddEngine(ctx, newTestRequest("e1"), nil)
	if err != nil {
		t.Fatal(err)
	}
	info, err := s.GetEngine(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.UpdateEngineState(ctx, id, info.State, engine.NewTerminated(), nil); err != nil {
		t.Fatal(err)
	}

	due, err := s.ListEnginesNeedUpdate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range due {
		if e.Id == id {
			t.Fatalf("ListEnginesNeedUpdate returned a Terminated engine")
		}
	}
}
