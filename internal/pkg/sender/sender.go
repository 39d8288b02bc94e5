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

// Package sender implements constant propagation for a send site's payload
// argument: a depth-first def-use walk that stops at the first store of a
// constant integer (spec.md §4.4).
package sender

import (
	"github.com/mstrail/msgtrace/internal/pkg/diag"
	"github.com/mstrail/msgtrace/internal/pkg/ir"
	"github.com/mstrail/msgtrace/internal/pkg/site"
)

// Analyze walks s's payload argument's def-use chain looking for a constant
// assignment and, on success, sets s.Assignment. s must be a Send site; any
// other kind is a no-op. Failure to find a constant is not an error: it
// leaves s.Assignment nil and records a note, since many sends legitimately
// carry a non-constant (e.g. runtime-computed) payload.
func Analyze(s *site.Site, d diag.Sink) {
	if s.Kind != site.Send {
		return
	}
	args := s.Instr.Args()
	if len(args) == 0 {
		d.Warnf("sender: send site at %s has no arguments", s.Scope)
		return
	}
	payload := args[len(args)-1]

	store, ok := relevantStore(payload, map[ir.Value]bool{}, d)
	if !ok {
		d.Notef("sender: no constant store found for send at %s", s.Scope)
		return
	}

	v, ok := storedConstant(store)
	if !ok {
		d.Warnf("sender: store found for send at %s does not carry a constant", s.Scope)
		return
	}
	s.Assignment = &v
}

// storedConstant returns the constant integer a store instruction writes,
// by the Operands() = [address, value] convention.
func storedConstant(store ir.Instruction) (int64, bool) {
	ops := store.Operands()
	if len(ops) < 2 {
		return 0, false
	}
	val, ok := ops[1].(ir.Instruction)
	if !ok {
		return 0, false
	}
	return val.ConstInt()
}

// relevantStore recursively walks val's def-use chain for a store of a
// constant integer, the Go shape of the original analyzer's
// getRelevantStoreFromValue. It is a single depth-first search that returns
// on the first qualifying store it finds; a phi node is noted but its
// incoming values are deliberately not split-explored (spec.md §9's open
// question, resolved in DESIGN.md to match the original's documented
// limitation).
func relevantStore(val ir.Value, visited map[ir.Value]bool, d diag.Sink) (ir.Instruction, bool) {
	if visited[val] {
		return nil, false
	}
	visited[val] = true

	if instr, ok := val.(ir.Instruction); ok {
		switch instr.Kind() {
		case ir.KindPhi:
			d.Notef("sender: encountered a phi node in %s", instr.Function().Name())
		case ir.KindBitCast:
			if store, ok := relevantStore(instr.Operands()[0], visited, d); ok {
				return store, true
			}
		case ir.KindLoad:
			if store, ok := relevantStore(instr.Operands()[0], visited, d); ok {
				return store, true
			}
		}
	}

	for _, u := range val.Users() {
		switch u.Kind() {
		case ir.KindLoad:
			if store, ok := relevantStore(u.Operands()[0], visited, d); ok {
				return store, true
			}
		case ir.KindStore:
			ops := u.Operands()
			if len(ops) < 2 {
				continue
			}
			if vi, ok := ops[1].(ir.Instruction); ok {
				if _, isConst := vi.ConstInt(); isConst {
					return u, true
				}
			}
			if store, ok := relevantStore(ops[1], visited, d); ok {
				return store, true
			}
		case ir.KindBitCast:
			ops := u.Operands()
			if len(ops) > 0 && ops[0] == val {
				if store, ok := relevantStore(u, visited, d); ok {
					return store, true
				}
			} else if len(ops) > 0 {
				if store, ok := relevantStore(ops[0], visited, d); ok {
					return store, true
				}
			}
		case ir.KindAlloca:
			continue
		case ir.KindMemTransfer:
			ops := u.Operands()
			if len(ops) < 2 {
				continue
			}
			dest, src := ops[0], ops[1]
			if dest == val {
				if store, ok := relevantStore(src, visited, d); ok {
					return store, true
				}
			} else {
				if store, ok := relevantStore(dest, visited, d); ok {
					return store, true
				}
			}
		case ir.KindElementPtr:
			if store, ok := relevantStore(u, visited, d); ok {
				return store, true
			}
		}
	}
	return nil, false
}
