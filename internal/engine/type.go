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

// Type is the closed enum of engine kinds. Currently only Spark exists;
// new variants are additive, per spec.md §3.
type Type string

const (
	TypeSpark Type = "Spark"
)

// Valid reports whether t is a recognised engine type.
func (t Type) Valid() bool {
	switch t {
	case TypeSpark:
		return true
	default:
		return false
	}
}

// Version is an opaque, resource-manager-validated version string (e.g.
// "3.5.3"). The allow-list check lives with the resource manager
// (internal/resource/k8s), not here, per spec.md §3.
type Version string
