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

package etcdstore

import (
	"testing"
	"time"

	"rucat.dev/rucat/internal/engine"
)

func TestKeyLayout(t *testing.T) {
	s := New(nil, "")
	id := engine.MustNewId("e1")

	if got, want := s.recordKey(id), "/rucat/engines/record/e1"; got != want {
		t.Fatalf("recordKey = %q, want %q", got, want)
	}
	if got, want := s.nextUpdateKey(id), "/rucat/engines/next_update/e1"; got != want {
		t.Fatalf("nextUpdateKey = %q, want %q", got, want)
	}
}

func TestKeyLayout_CustomPrefix(t *testing.T) {
	s := New(nil, "/custom")
	id := engine.MustNewId("e1")
	if got, want := s.recordKey(id), "/custom/record/e1"; got != want {
		t.Fatalf("recordKey = %q, want %q", got, want)
	}
}

func TestEncodeDecodeNextUpdate_RoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	encoded := encodeNextUpdate(&now)
	decoded := decodeNextUpdate(encoded)
	if decoded == nil || !decoded.Equal(now) {
		t.Fatalf("round-trip mismatch: %v", decoded)
	}
}

func TestEncodeDecodeNextUpdate_Nil(t *testing.T) {
	if encodeNextUpdate(nil) != "" {
		t.Fatal("expected empty string for nil time")
	}
	if decodeNextUpdate("") != nil {
		t.Fatal("expected nil for empty string")
	}
}

func TestDecodeNextUpdate_Malformed(t *testing.T) {
	if decodeNextUpdate("not-a-time") != nil {
		t.Fatal("expected nil for malformed timestamp")
	}
}
