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

// Package auth validates the credentials on /engine* requests when
// Config.AuthEnable is true. Grounded on
// original_source/rucat_server/src/authentication/{mod,
// static_auth_provider}.rs: a Credentials sum type (Basic or Bearer), an
// Authenticator trait with one Validate method, and a StaticAuthenticator
// reference implementation.
package auth

// Scheme is the credential scheme a request presented.
type Scheme string

const (
	SchemeBasic  Scheme = "Basic"
	SchemeBearer Scheme = "Bearer"
)

// Credentials is the parsed Authorization header, generalizing the
// original's Credentials enum (Basic(Basic) | Bearer(Bearer)) as a
// struct tagged by Scheme rather than an interface, matching
// internal/engine.State's sum-type-as-struct convention.
type Credentials struct {
	Scheme   Scheme
	Username string // set only for SchemeBasic
	Password string // set only for SchemeBasic
	Token    string // set only for SchemeBearer
}

// Authenticator validates credentials extracted from a request.
// Implementations must be safe for concurrent use.
type Authenticator interface {
	Validate(creds Credentials) bool
}

// StaticAuthenticator validates against a fixed, config-supplied
// username/password map, generalizing the original's
// StaticAuthProvider (which holds exactly one username/password pair
// plus one bearer token) to the multi-user map
// config.ServerConfig.StaticUsers carries. A Bearer token is accepted
// when it equals "username:password" for some configured user — the
// same encoding HTTP Basic itself uses — so the one credential map
// serves both schemes without a second, bearer-only secret in the
// config shape.
type StaticAuthenticator struct {
	users map[string]string
}

// NewStaticAuthenticator returns a StaticAuthenticator backed by users
// (username -> password). The map is not copied; callers must not
// mutate it afterward.
func NewStaticAuthenticator(users map[string]string) *StaticAuthenticator {
	return &StaticAuthenticator{users: users}
}

var _ Authenticator = (*StaticAuthenticator)(nil)

func (s *StaticAuthenticator) Validate(creds Credentials) bool {
	switch creds.Scheme {
	case SchemeBasic:
		pw, ok := s.users[creds.Username]
		return ok && pw == creds.Password
	case SchemeBearer:
		for user, pw := range s.users {
			if creds.Token == user+":"+pw {
				return true
			}
		}
		return false
	default:
		return false
	}
}
