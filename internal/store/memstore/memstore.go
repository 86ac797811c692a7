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

// Package memstore is an in-process, mutex-guarded reference
// implementation of store.Store. It is safe for concurrent use and is
// the implementation exercised by internal/monitor's unit tests and by
// rucat-server/rucat-monitor's standalone/demo mode; it carries no
// state across process restarts.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"rucat.dev/rucat/internal/engine"
	"rucat.dev/rucat/internal/statemachine"
	"rucat.dev/rucat/internal/store"
)

type record struct {
	info       engine.Info
	nextUpdate *time.Time
}

// Store is the in-process store.Store implementation. The zero value
// is not usable; construct with New.
type Store struct {
	mu      sync.RWMutex
	records map[engine.Id]*record
	clock   func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		records: make(map[engine.Id]*record),
		clock:   time.Now,
	}
}

var _ store.Store = (*Store)(nil)

func (s *Store) AddEngine(_ context.Context, req engine.CreateRequest, nextUpdate *time.Time) (engine.Id, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := engine.NewGeneratedId()
	for _, exists := s.records[id]; exists; _, exists = s.records[id] {
		id = engine.NewGeneratedId()
	}
	s.records[id] = &record{
		info:       req.ToInfo(s.clock()),
		nextUpdate: nextUpdate,
	}
	return id, nil
}

func (s *Store) RemoveEngine(_ context.Context, id engine.Id, expected engine.State) (*store.UpdateResp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	resp := &store.UpdateResp{BeforeState: rec.info.State, Success: rec.info.State.Equal(expected)}
	if resp.Success {
		delete(s.records, id)
	}
	return resp, nil
}

func (s *Store) UpdateEngineState(_ context.Context, id engine.Id, before, after engine.State, nextUpdate *time.Time) (*store.UpdateResp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	resp := &store.UpdateResp{BeforeState: rec.info.State, Success: rec.info.State.Equal(before)}
	if resp.Success {
		rec.info.State = after
		rec.nextUpdate = nextUpdate
	}
	return resp, nil
}

func (s *Store) GetEngine(_ context.Context, id engine.Id) (*engine.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	info := rec.info
	return &info, nil
}

func (s *Store) ListEngines(_ context.Context) ([]engine.Id, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]engine.Id, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids, nil
}

func (s *Store) ListEnginesNeedUpdate(_ context.Context) ([]store.EngineIdAndInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.clock()
	var out []store.EngineIdAndInfo
	for id, rec := range s.records {
		if statemachine.NeedsUpdate(rec.info.State, rec.nextUpdate, now) {
			out = append(out, store.EngineIdAndInfo{Id: id, Info: rec.info})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id.Less(out[j].Id) })
	return out, nil
}
