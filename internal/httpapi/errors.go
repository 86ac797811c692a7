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

	"rucat.dev/rucat/internal/rucaterr"
)

// errorBody is the JSON shape every non-2xx response carries.
type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to an HTTP status via rucaterr.Error.StatusCode
// (falling back to 500 for an error this package did not produce
// itself) and writes a human-readable text body, per spec.md §7's
// propagation policy ("the API layer propagates errors as HTTP status
// codes with a human-readable text body").
func writeError(w http.ResponseWriter, err error) {
	if rerr, ok := rucaterr.As(err); ok {
		writeJSON(w, rerr.StatusCode(), errorBody{Error: rerr.Error()})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
}
