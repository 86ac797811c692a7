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

package client

import (
	"context"
	"net/http/httptest"
	"testing"

	"rucat.dev/rucat/internal/auth"
	"rucat.dev/rucat/internal/engine"
	"rucat.dev/rucat/internal/httpapi"
	"rucat.dev/rucat/internal/store/memstore"
)

func newTestServer() (*httptest.Server, func()) {
	s := memstore.New()
	h := httpapi.NewRouter(s, httpapi.Options{}, nil)
	srv := httptest.NewServer(h)
	return srv, srv.Close
}

func TestClient_CreateGetListDeleteLifecycle(t *testing.T) {
	srv, closeFn := newTestServer()
	defer closeFn()

	c := New(Config{BaseURL: srv.URL})
	ctx := context.Background()

	id, err := c.CreateEngine(ctx, engine.CreateRequest{
		Name:       "e1",
		EngineType: engine.TypeSpark,
		Version:    "3.5.3",
	})
	if err != nil {
		t.Fatal(err)
	}

	info, err := c.GetEngine(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if info.Name != "e1" || info.State.Kind != engine.WaitToStart {
		t.Fatalf("got %+v", info)
	}

	ids, err := c.ListEngines(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != id {
		t.Fatalf("got %v", ids)
	}

	if err := c.DeleteEngine(ctx, id); err == nil {
		t.Fatal("expected delete of a non-terminal engine to fail")
	}
}

func TestClient_GetEngine_NotFound(t *testing.T) {
	srv, closeFn := newTestServer()
	defer closeFn()

	c := New(Config{BaseURL: srv.URL})
	id := engine.MustNewId("does-not-exist")

	_, err := c.GetEngine(context.Background(), id)
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("got %T, want *client.Error", err)
	}
	if apiErr.StatusCode != 404 {
		t.Fatalf("status = %d, want 404", apiErr.StatusCode)
	}
}

func TestClient_StopAndRestart(t *testing.T) {
	ms := memstore.New()
	h := httpapi.NewRouter(ms, httpapi.Options{}, nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	ctx := context.Background()

	id, err := c.CreateEngine(ctx, engine.CreateRequest{Name: "e1", EngineType: engine.TypeSpark, Version: "3.5.3"})
	if err != nil {
		t.Fatal(err)
	}
	info, _ := ms.GetEngine(ctx, id)
	if _, err := ms.UpdateEngineState(ctx, id, info.State, engine.NewRunning(), nil); err != nil {
		t.Fatal(err)
	}

	if err := c.StopEngine(ctx, id); err != nil {
		t.Fatal(err)
	}
	info, _ = ms.GetEngine(ctx, id)
	if info.State.Kind != engine.WaitToTerminate {
		t.Fatalf("state = %v, want WaitToTerminate", info.State)
	}

	if _, err := ms.UpdateEngineState(ctx, id, info.State, engine.NewTerminated(), nil); err != nil {
		t.Fatal(err)
	}
	if err := c.RestartEngine(ctx, id); err != nil {
		t.Fatal(err)
	}
	info, _ = ms.GetEngine(ctx, id)
	if info.State.Kind != engine.WaitToStart {
		t.Fatalf("state = %v, want WaitToStart", info.State)
	}
}

func TestClient_BasicAuth(t *testing.T) {
	s := memstore.New()
	authenticator := auth.NewStaticAuthenticator(map[string]string{"alice": "s3cret"})
	h := httpapi.NewRouter(s, httpapi.Options{AuthEnable: true, Authenticator: authenticator}, nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx := context.Background()

	unauthenticated := New(Config{BaseURL: srv.URL})
	if _, err := unauthenticated.ListEngines(ctx); err == nil {
		t.Fatal("expected unauthenticated request to fail")
	}

	authenticated := New(Config{
		BaseURL: srv.URL,
		Credentials: &auth.Credentials{
			Scheme:   auth.SchemeBasic,
			Username: "alice",
			Password: "s3cret",
		},
	})
	if _, err := authenticated.ListEngines(ctx); err != nil {
		t.Fatalf("expected authenticated request to succeed, got %v", err)
	}
}
