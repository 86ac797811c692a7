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
	"testing"

	"rucat.dev/rucat/internal/rucaterr"
)

func TestNewId_EmptyRejected(t *testing.T) {
	_, err := NewId("")
	if err == nil {
		t.Fatal("expected error for empty id")
	}
	rerr, ok := rucaterr.As(err)
	if !ok || rerr.Kind != rucaterr.NotAllowed {
		t.Fatalf("expected NotAllowed, got %v", err)
	}
}

func TestId_JSONRoundTrip(t *testing.T) {
	id, err := NewId("abc")
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(id)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"abc"` {
		t.Fatalf("want %q, got %s", `"abc"`, data)
	}
	var got Id
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got != id {
		t.Fatalf("round-trip mismatch: %v != %v", got, id)
	}
}

func TestId_UnmarshalEmptyRejected(t *testing.T) {
	var id Id
	err := json.Unmarshal([]byte(`""`), &id)
	if err == nil {
		t.Fatal("expected error unmarshaling empty id")
	}
}

func TestId_Less(t *testing.T) {
	a := MustNewId("a")
	b := MustNewId("b")
	if !a.Less(b) || b.Less(a) {
		t.Fatalf("expected a < b")
	}
}
