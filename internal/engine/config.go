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

import "sort"

// Config is a mapping from config key to value. encoding/json sorts map
// keys when marshaling a map[string]string, so JSON serialisation is
// already deterministic; SortedKeys exists for callers (the Spark submit
// arg builder, reserved-key checks) that need the same order while
// iterating in Go rather than through json.Marshal, matching the
// original's BTreeMap<Cow<str>, Cow<str>>.
type Config map[string]string

// SortedKeys returns the keys of c in ascending order.
func SortedKeys(c Config) []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ContainsAny reports whether c has any key in reserved, returning the
// first offending key found (in sorted order, for deterministic error
// messages).
func ContainsAny(c Config, reserved []string) (string, bool) {
	reservedSet := make(map[string]struct{}, len(reserved))
	for _, k := range reserved {
		reservedSet[k] = struct{}{}
	}
	for _, k := range SortedKeys(c) {
		if _, ok := reservedSet[k]; ok {
			return k, true
		}
	}
	return "", false
}
