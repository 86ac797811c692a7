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

// Package httpapi is the HTTP surface rucat-server exposes: engine
// CRUD plus stop/restart, liveness/readiness, and Prometheus metrics.
// Grounded on original_source/rucat_server/src/engine_router.rs for
// route shapes and semantics, and on
// r3e-network-service_layer/cmd/gateway/main.go for the gorilla/mux
// router construction, auth middleware wrapping, and health/ready
// handler style.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"rucat.dev/rucat/internal/auth"
	"rucat.dev/rucat/internal/monitor"
	"rucat.dev/rucat/internal/store"
)

// Options configures the router.
type Options struct {
	AuthEnable    bool
	Authenticator auth.Authenticator
}

// NewRouter builds the gorilla/mux router for rucat-server. s is the
// metadata store every handler operates on; log is used for
// request-scoped diagnostics (never for control flow — handlers report
// outcomes entirely through HTTP status and body).
func NewRouter(s store.Store, opts Options, log *zap.Logger) *mux.Router {
	if log == nil {
		log = zap.NewNop()
	}
	h := &handlers{store: s, log: log}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", healthzHandler).Methods(http.MethodGet)
	r.HandleFunc("/readyz", h.readyzHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(monitor.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	if opts.AuthEnable && opts.Authenticator == nil {
		panic("httpapi: AuthEnable is true but no Authenticator was supplied")
	}
	wrap := func(next http.HandlerFunc) http.Handler {
		var h http.Handler = next
		if opts.AuthEnable {
			h = auth.Middleware(opts.Authenticator)(h)
		}
		return h
	}

	r.Handle("/engine", wrap(h.createEngine)).Methods(http.MethodPost)
	r.Handle("/engine", wrap(h.listEngines)).Methods(http.MethodGet)
	r.Handle("/engine/{id}", wrap(h.getEngine)).Methods(http.MethodGet)
	r.Handle("/engine/{id}", wrap(h.deleteEngine)).Methods(http.MethodDelete)
	r.Handle("/engine/{id}/stop", wrap(h.stopEngine)).Methods(http.MethodPost)
	r.Handle("/engine/{id}/restart", wrap(h.restartEngine)).Methods(http.MethodPost)

	return r
}

func healthzHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type handlers struct {
	store store.Store
	log   *zap.Logger
}

func (h *handlers) readyzHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.ListEngines(r.Context()); err != nil {
		h.log.Warn("readiness check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
