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

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// Middleware returns a mux.MiddlewareFunc rejecting any request whose
// Authorization header fails to authenticate against a. Grounded on
// the original's auth() axum middleware (extract credentials, reject
// with Unauthorized if absent or invalid) and on the teacher pack's own
// mux.MiddlewareFunc authentication wrapper
// (r3e-network-service_layer/cmd/gateway/middleware.go's authMiddleware).
func Middleware(a Authenticator) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			creds, ok := credentialsFromHeader(r.Header.Get("Authorization"))
			if !ok || !a.Validate(creds) {
				w.Header().Set("WWW-Authenticate", `Basic realm="rucat", Bearer`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// credentialsFromHeader parses an Authorization header value into
// Credentials. Basic decoding is delegated to net/http's own
// (*http.Request).BasicAuth-equivalent base64 handling via
// http.ParseBasicAuth-style logic kept local since net/http does not
// export a standalone parser; Bearer is a plain prefix strip, matching
// the original's TypedHeader<Authorization<Bearer>> extraction.
func credentialsFromHeader(header string) (Credentials, bool) {
	if header == "" {
		return Credentials{}, false
	}
	if user, pass, ok := parseBasicAuth(header); ok {
		return Credentials{Scheme: SchemeBasic, Username: user, Password: pass}, true
	}
	if token, ok := strings.CutPrefix(header, "Bearer "); ok && token != "" {
		return Credentials{Scheme: SchemeBearer, Token: token}, true
	}
	return Credentials{}, false
}

// parseBasicAuth decodes a "Basic <base64(user:pass)>" header value,
// the same scheme net/http's own (*http.Request).BasicAuth implements
// internally without exposing a standalone parser.
func parseBasicAuth(header string) (username, password string, ok bool) {
	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}
	user, pass, found := strings.Cut(string(decoded), ":")
	if !found {
		return "", "", false
	}
	return user, pass, true
}
