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

// Package datasource loads DEA data sets from external sources.
package datasource

import (
	"context"

	"github.com/araith/godea/pkg/core"
)

// Roles declares which loaded categories are inputs and which are outputs.
// Categories named in neither stay available to the model (for example as
// a categorical hierarchy) but take no part in the LP.
type Roles struct {
	Inputs  []string
	Outputs []string
}

// Source is the interface for pluggable data sources.
type Source interface {
	// Name returns a short description of the source (e.g., the file path).
	Name() string

	// Load reads every DMU and declares the categories named in roles.
	// The returned DataSet has been validated.
	Load(ctx context.Context, roles Roles) (*core.DataSet, error)
}
