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

package auth

import "testing"

func TestStaticAuthenticator_Basic(t *testing.T) {
	a := NewStaticAuthenticator(map[string]string{"alice": "s3cret"})

	if !a.Validate(Credentials{Scheme: SchemeBasic, Username: "alice", Password: "s3cret"}) {
		t.Fatal("expected valid basic credentials to pass")
	}
	if a.Validate(Credentials{Scheme: SchemeBasic, Username: "alice", Password: "wrong"}) {
		t.Fatal("expected wrong password to fail")
	}
	if a.Validate(Credentials{Scheme: SchemeBasic, Username: "bob", Password: "s3cret"}) {
		t.Fatal("expected unknown username to fail")
	}
}

func TestStaticAuthenticator_Bearer(t *testing.T) {
	a := NewStaticAuthenticator(map[string]string{"alice": "s3cret"})

	if !a.Validate(Credentials{Scheme: SchemeBearer, Token: "alice:s3cret"}) {
		t.Fatal("expected bearer token matching user:pass to pass")
	}
	if a.Validate(Credentials{Scheme: SchemeBearer, Token: "alice:wrong"}) {
		t.Fatal("expected mismatched bearer token to fail")
	}
}

func TestCredentialsFromHeader_Basic(t *testing.T) {
	creds, ok := credentialsFromHeader("Basic YWxpY2U6czNjcmV0") // alice:s3cret
	if !ok {
		t.Fatal("expected header to parse")
	}
	if creds.Scheme != SchemeBasic || creds.Username != "alice" || creds.Password != "s3cret" {
		t.Fatalf("got %+v", creds)
	}
}

func TestCredentialsFromHeader_Bearer(t *testing.T) {
	creds, ok := credentialsFromHeader("Bearer abc123")
	if !ok {
		t.Fatal("expected header to parse")
	}
	if creds.Scheme != SchemeBearer || creds.Token != "abc123" {
		t.Fatalf("got %+v", creds)
	}
}

func TestCredentialsFromHeader_Empty(t *testing.T) {
	if _, ok := credentialsFromHeader(""); ok {
		t.Fatal("expected empty header to fail")
	}
}

func TestCredentialsFromHeader_Malformed(t *testing.T) {
	if _, ok := credentialsFromHeader("Basic not-valid-base64!!"); ok {
		t.Fatal("expected malformed basic header to fail")
	}
	if _, ok := credentialsFromHeader("Bearer "); ok {
		t.Fatal("expected empty bearer token to fail")
	}
}
