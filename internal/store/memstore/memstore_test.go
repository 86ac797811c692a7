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

package memstore

import (
	"context"
	"sync"
	"testing"

	"rucat.dev/rucat/internal/engine"
)

func TestAddAndGetEngine(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, err := s.AddEngine(ctx, engine.CreateRequest{Name: "e1", EngineType: engine.TypeSpark, Version: "3.5.3"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	info, err := s.GetEngine(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if info == nil {
		t.Fatal("expected engine to be found")
	}
	if info.Name != "e1" || !info.State.Equal(engine.NewWaitToStart()) {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestGetEngine_Absent(t *testing.T) {
	s := New()
	info, err := s.GetEngine(context.Background(), engine.MustNewId("missing"))
	if err != nil {
		t.Fatal(err)
	}
	if info != nil {
		t.Fatal("expected nil for absent engine")
	}
}

func TestUpdateEngineState_CASSucceeds(t *testing.T) {
	s := New()
	ctx := context.Background()
	id, _ := s.AddEngine(ctx, engine.CreateRequest{Name: "e1", EngineType: engine.TypeSpark, Version: "3.5.3"}, nil)

	resp, err := s.UpdateEngineState(ctx, id, engine.NewWaitToStart(), engine.NewTriggerStart(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp == nil || !resp.Success {
		t.Fatalf("expected successful CAS, got %+v", resp)
	}

	info, _ := s.GetEngine(ctx, id)
	if !info.State.Equal(engine.NewTriggerStart()) {
		t.Fatalf("expected TriggerStart, got %v", info.State)
	}
}

func TestUpdateEngineState_CASFailsOnStaleExpectation(t *testing.T) {
	s := New()
	ctx := context.Background()
	id, _ := s.AddEngine(ctx, engine.CreateRequest{Name: "e1", EngineType: engine.TypeSpark, Version: "3.5.3"}, nil)

	resp, err := s.UpdateEngineState(ctx, id, engine.NewRunning(), engine.NewTriggerStart(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp == nil || resp.Success {
		t.Fatalf("expected failed CAS, got %+v", resp)
	}
	if !resp.BeforeState.Equal(engine.NewWaitToStart()) {
		t.Fatalf("expected BeforeState to report actual state, got %v", resp.BeforeState)
	}

	info, _ := s.GetEngine(ctx, id)
	if !info.State.Equal(engine.NewWaitToStart()) {
		t.Fatal("expected state to be untouched after failed CAS")
	}
}

func TestUpdateEngineState_Absent(t *testing.T) {
	s := New()
	resp, err := s.UpdateEngineState(context.Background(), engine.MustNewId("missing"), engine.NewWaitToStart(), engine.NewTriggerStart(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp != nil {
		t.Fatal("expected nil response for absent engine")
	}
}

func TestRemoveEngine(t *testing.T) {
	s := New()
	ctx := context.Background()
	id, _ := s.AddEngine(ctx, engine.CreateRequest{Name: "e1", EngineType: engine.TypeSpark, Version: "3.5.3"}, nil)

	if _, err := s.UpdateEngineState(ctx, id, engine.NewWaitToStart(), engine.NewTerminated(), nil); err != nil {
		t.Fatal(err)
	}

	resp, err := s.RemoveEngine(ctx, id, engine.NewTerminated())
	if err != nil {
		t.Fatal(err)
	}
	if resp == nil || !resp.Success {
		t.Fatalf("expected successful removal, got %+v", resp)
	}

	info, _ := s.GetEngine(ctx, id)
	if info != nil {
		t.Fatal("expected engine to be removed")
	}
}

func TestRemoveEngine_WrongExpectedState(t *testing.T) {
	s := New()
	ctx := context.Background()
	id, _ := s.AddEngine(ctx, engine.CreateRequest{Name: "e1", EngineType: engine.TypeSpark, Version: "3.5.3"}, nil)

	resp, err := s.RemoveEngine(ctx, id, engine.NewTerminated())
	if err != nil {
		t.Fatal(err)
	}
	if resp == nil || resp.Success {
		t.Fatalf("expected failed removal, got %+v", resp)
	}

	info, _ := s.GetEngine(ctx, id)
	if info == nil {
		t.Fatal("expected engine to still be present")
	}
}

func TestListEngines_SortedAscending(t *testing.T) {
	s := New()
	ctx := context.Background()
	ids := []engine.Id{}
	for _, name := range []string{"c", "a", "b"} {
		id, err := s.AddEngine(ctx, engine.CreateRequest{Name: name, EngineType: engine.TypeSpark, Version: "3.5.3"}, nil)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}

	got, err := s.ListEngines(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 ids, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if !got[i-1].Less(got[i]) {
			t.Fatalf("expected ascending order, got %v", got)
		}
	}
}

func TestListEnginesNeedUpdate(t *testing.T) {
	s := New()
	ctx := context.Background()

	waitId, _ := s.AddEngine(ctx, engine.CreateRequest{Name: "waiting", EngineType: engine.TypeSpark, Version: "3.5.3"}, nil)

	runningId, _ := s.AddEngine(ctx, engine.CreateRequest{Name: "running", EngineType: engine.TypeSpark, Version: "3.5.3"}, nil)
	if _, err := s.UpdateEngineState(ctx, runningId, engine.NewWaitToStart(), engine.NewRunning(), nil); err != nil {
		t.Fatal(err)
	}

	needUpdate, err := s.ListEnginesNeedUpdate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(needUpdate) != 1 || needUpdate[0].Id != waitId {
		t.Fatalf("expected only the waiting engine, got %+v", needUpdate)
	}
}

func TestConcurrentUpdateEngineState_OnlyOneCASWins(t *testing.T) {
	s := New()
	ctx := context.Background()
	id, _ := s.AddEngine(ctx, engine.CreateRequest{Name: "e1", EngineType: engine.TypeSpark, Version: "3.5.3"}, nil)

	const n = 50
	var wg sync.WaitGroup
	successes := make([]bool, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := s.UpdateEngineState(ctx, id, engine.NewWaitToStart(), engine.NewTriggerStart(), nil)
			if err != nil {
				t.Error(err)
				return
			}
			successes[i] = resp != nil && resp.Success
		}(i)
	}
	wg.Wait()

	count := 0
	for _, ok := range successes {
		if ok {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one CAS to succeed, got %d", count)
	}
}

func TestAddEngine_GeneratesUniqueIds(t *testing.T) {
	s := New()
	ctx := context.Background()
	seen := map[engine.Id]bool{}
	for i := 0; i < 10; i++ {
		id, err := s.AddEngine(ctx, engine.CreateRequest{Name: "same-name", EngineType: engine.TypeSpark, Version: "3.5.3"}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if seen[id] {
			t.Fatalf("duplicate id generated: %v", id)
		}
		seen[id] = true
	}
}
