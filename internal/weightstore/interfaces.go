/*
Copyright 2025 The godea Authors

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

// Package weightstore spills peer-weight maps out of process memory.
// Weights are keyed by run (the Solution id) and DMU code and are dropped
// when the run's Solution is released.
package weightstore

import (
	"context"
)

// Reader provides read-only access to stored peer weights.
type Reader interface {
	// Get returns the peer weights recorded for dmu in run.
	// Returns an empty map if nothing was recorded.
	Get(ctx context.Context, run, dmu string) (map[string]float64, error)

	// Runs returns the ids of runs that still hold weights.
	Runs(ctx context.Context) ([]string, error)
}

// Writer provides write access to stored peer weights.
type Writer interface {
	// Put replaces the peer weights of dmu in run.
	Put(ctx context.Context, run, dmu string, weights map[string]float64) error

	// Drop removes every weight recorded for run.
	Drop(ctx context.Context, run string) error
}

// ReadWriter combines both read and write access to the store.
type ReadWriter interface {
	Reader
	Writer
}
