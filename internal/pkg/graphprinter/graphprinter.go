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

// Package graphprinter renders a message map as DOT source: one concrete
// realization of the out-of-scope "graph file emitter" contract (spec.md
// §1, §4.8), grounded on the teacher's own internal/pkg/graphprinter,
// which renders a taint call graph the same way — a digraph with styled
// nodes for interesting roles and one edge statement per recorded flow.
// Here the interesting role is "sends a statically-known constant" rather
// than "is a taint source", and an edge is a site.Pair rather than a call
// edge.
package graphprinter

import (
	"bytes"
	"fmt"

	"github.com/mstrail/msgtrace/internal/pkg/graph"
	"github.com/mstrail/msgtrace/internal/pkg/site"
)

// Print renders mmap as a DOT digraph: one node per scope, one edge per
// pair labeled with the carried type, the propagated constant (if any),
// and the receive usage classification (omitted when it is unchecked or
// direct-use). Scopes are emitted in sorted
// order so the output is stable across runs with the same input.
func Print(mmap site.Map) string {
	var b bytes.Buffer

	b.WriteString("digraph messages {\n")

	for _, scope := range graph.Scopes(mmap) {
		b.WriteString(fmt.Sprintf("  %q;\n", scope))
	}

	for _, scope := range graph.Scopes(mmap) {
		for _, p := range mmap[scope] {
			b.WriteString(fmt.Sprintf("  %q -> %q [label=%q];\n",
				p.Send.Scope, p.Receive.Scope, edgeLabel(p)))
		}
	}

	b.WriteString("}\n")
	return b.String()
}

func edgeLabel(p site.Pair) string {
	label := p.Send.CarriedType
	if p.Send.Assignment != nil {
		label += fmt.Sprintf("=%d", *p.Send.Assignment)
	}
	if p.Receive.Usage != site.Unchecked && p.Receive.Usage != site.DirectUse {
		label += fmt.Sprintf(" (%s)", p.Receive.Usage)
	}
	return label
}
