// Copyright 2020 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package graph aggregates matched send/receive pairs into the message
// map a graph sink renders (spec.md §4.8). It owns no traversal logic of
// its own: site.Build already does the bucketing; this package is the
// named seam a driver calls into, and the point where an empty receiver-
// only bucket is worth a diagnostic note.
package graph

import (
	"sort"

	"github.com/mstrail/msgtrace/internal/pkg/diag"
	"github.com/mstrail/msgtrace/internal/pkg/site"
)

// Build buckets pairs by the sender's scope into a message map, inserting
// an empty bucket for any scope that only receives so it is still
// rendered by a downstream sink.
func Build(pairs []site.Pair, d diag.Sink) site.Map {
	m := site.Build(pairs)
	for scope, bucket := range m {
		if len(bucket) == 0 {
			d.Notef("graph: scope %s only receives, no outgoing sends recorded", scope)
		}
	}
	return m
}

// Scopes returns m's keys in sorted order. Map iteration order in Go is
// randomized, so any sink that needs a stable rendering order (DOT
// emission, a database insert order a reviewer can diff) should iterate
// through this instead of ranging over the map directly.
func Scopes(m site.Map) []string {
	out := make([]string, 0, len(m))
	for scope := range m {
		out = append(out, scope)
	}
	sort.Strings(out)
	return out
}
