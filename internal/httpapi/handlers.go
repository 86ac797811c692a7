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

package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"rucat.dev/rucat/internal/engine"
	"rucat.dev/rucat/internal/rucaterr"
)

// createEngineResponse is the body of a successful POST /engine,
// matching the original's bare EngineId response re-shaped as an
// object so the wire format can grow additional fields later without a
// breaking change.
type createEngineResponse struct {
	Id string `json:"id"`
}

func (h *handlers) createEngine(w http.ResponseWriter, r *http.Request) {
	var req engine.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if rerr, ok := rucaterr.As(err); ok {
			writeError(w, rerr)
			return
		}
		writeError(w, rucaterr.Wrap(rucaterr.NotAllowed, err, "invalid create engine request"))
		return
	}
	if !req.EngineType.Valid() {
		writeError(w, rucaterr.NotAllowedf("unknown engine_type %q", req.EngineType))
		return
	}

	id, err := h.store.AddEngine(r.Context(), req, nil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, createEngineResponse{Id: id.String()})
}

func (h *handlers) listEngines(w http.ResponseWriter, r *http.Request) {
	ids, err := h.store.ListEngines(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	writeJSON(w, http.StatusOK, out)
}

// engineIdFromPath parses the {id} path variable, rejecting a
// malformed (here: empty) id before it ever reaches the store.
func engineIdFromPath(r *http.Request) (engine.Id, error) {
	return engine.NewId(mux.Vars(r)["id"])
}

func (h *handlers) getEngine(w http.ResponseWriter, r *http.Request) {
	id, err := engineIdFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	info, err := h.store.GetEngine(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if info == nil {
		writeError(w, rucaterr.NotFoundf("engine %s not found", id))
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// deleteEngine removes an engine's record. Precondition (spec.md §6's
// recommended one, adopted per the Open Question in SPEC_FULL.md §9):
// state must be Terminated or ErrorClean, so a resource is never
// orphaned by deleting its record out from under a live workload.
func (h *handlers) deleteEngine(w http.ResponseWriter, r *http.Request) {
	id, err := engineIdFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	info, err := h.store.GetEngine(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if info == nil {
		writeError(w, rucaterr.NotFoundf("engine %s not found", id))
		return
	}
	if !info.State.IsStableTerminal() {
		writeError(w, rucaterr.NotAllowedf("engine %s is in state %s, must be Terminated or ErrorClean to delete", id, info.State))
		return
	}

	resp, err := h.store.RemoveEngine(r.Context(), id, info.State)
	if err != nil {
		writeError(w, err)
		return
	}
	if resp == nil {
		writeError(w, rucaterr.NotFoundf("engine %s not found", id))
		return
	}
	if !resp.Success {
		writeError(w, rucaterr.NotAllowedf("engine %s changed state concurrently, retry", id))
		return
	}
	w.WriteHeader(http.StatusOK)
}

// stopEngine CASes a running engine into WaitToTerminate, per spec.md
// §6 ("CAS from Running or StartInProgress to WaitToTerminate").
func (h *handlers) stopEngine(w http.ResponseWriter, r *http.Request) {
	id, err := engineIdFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	info, err := h.store.GetEngine(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if info == nil {
		writeError(w, rucaterr.NotFoundf("engine %s not found", id))
		return
	}
	if info.State.Kind != engine.Running && info.State.Kind != engine.StartInProgress {
		writeError(w, rucaterr.NotAllowedf("engine %s is in state %s, cannot be stopped", id, info.State))
		return
	}

	resp, err := h.store.UpdateEngineState(r.Context(), id, info.State, engine.NewWaitToTerminate(), nil)
	if err != nil {
		writeError(w, err)
		return
	}
	if resp == nil {
		writeError(w, rucaterr.NotFoundf("engine %s not found", id))
		return
	}
	if !resp.Success {
		writeError(w, rucaterr.NotAllowedf("engine %s changed state concurrently, retry", id))
		return
	}
	w.WriteHeader(http.StatusOK)
}

// restartEngine CASes a terminated engine back into WaitToStart, per
// spec.md §6 ("CAS from Terminated to WaitToStart").
func (h *handlers) restartEngine(w http.ResponseWriter, r *http.Request) {
	id, err := engineIdFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	info, err := h.store.GetEngine(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if info == nil {
		writeError(w, rucaterr.NotFoundf("engine %s not found", id))
		return
	}
	if info.State.Kind != engine.Terminated {
		writeError(w, rucaterr.NotAllowedf("engine %s is in state %s, cannot be restarted", id, info.State))
		return
	}

	resp, err := h.store.UpdateEngineState(r.Context(), id, info.State, engine.NewWaitToStart(), nil)
	if err != nil {
		writeError(w, err)
		return
	}
	if resp == nil {
		writeError(w, rucaterr.NotFoundf("engine %s not found", id))
		return
	}
	if !resp.Success {
		writeError(w, rucaterr.NotAllowedf("engine %s changed state concurrently, retry", id))
		return
	}
	w.WriteHeader(http.StatusOK)
}
