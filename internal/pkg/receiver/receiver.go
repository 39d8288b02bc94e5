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

// Package receiver classifies how a receive site's value is consumed: left
// unchecked, used directly, handed to a handler function, or unwrapped
// first and then one of those (spec.md §4.5). The analysis runs in two
// passes: collect every instruction the received value could plausibly
// reach (candidates), then walk the CFG forward from the receive site to
// find which candidate actually dominates the control flow and in what
// order.
package receiver

import (
	"github.com/mstrail/msgtrace/internal/pkg/demangle"
	"github.com/mstrail/msgtrace/internal/pkg/diag"
	"github.com/mstrail/msgtrace/internal/pkg/ir"
	"github.com/mstrail/msgtrace/internal/pkg/site"
	"github.com/mstrail/msgtrace/internal/pkg/symbol"
)

// Analyze classifies s's usage and sets s.Usage/s.UsageInstr. s must be a
// Receive site; any other kind is a no-op.
func Analyze(s *site.Site, classifier symbol.Classifier, demangler demangle.Func, d diag.Sink) {
	if s.Kind != site.Receive {
		return
	}

	matches := map[ir.BasicBlock]ir.Instruction{}
	collect(s.Instr, map[ir.Value]bool{}, matches, classifier, demangler, d)

	blk := s.Instr.Block()
	succs := blk.Successors()
	if len(succs) == 0 {
		d.Warnf("receiver: recv at %s has no successor block to analyze", s.Scope)
		return
	}

	usage, inst := findUsage(succs[0], map[ir.BasicBlock]bool{}, matches, false, nil, classifier, demangler)
	s.Usage = usage
	s.UsageInstr = inst
}

// collect recursively walks val's forward def-use chain, recording every
// switch and every call/invoke it reaches as a usage candidate. It mirrors
// the original analyzer's analyzeReceiveInst: a receive's result is
// followed through loads, stores, bitcasts, zero-extends,
// getelementptrs, and memory transfers, and an unwrap call's struct-return
// result is followed the same way its own struct-return argument would be.
func collect(val ir.Value, visited map[ir.Value]bool, matches map[ir.BasicBlock]ir.Instruction, classifier symbol.Classifier, demangler demangle.Func, d diag.Sink) {
	if visited[val] {
		return
	}
	visited[val] = true

	if instr, ok := val.(ir.Instruction); ok {
		switch instr.Kind() {
		case ir.KindCall, ir.KindInvoke:
			if isReceiveStructReturn(instr, classifier, demangler) {
				if args := instr.Args(); len(args) > 0 {
					collect(args[0], visited, matches, classifier, demangler, d)
				}
			}
		case ir.KindBitCast:
			if ops := instr.Operands(); len(ops) > 0 {
				collect(ops[0], visited, matches, classifier, demangler, d)
			}
		}
	}

	for _, u := range val.Users() {
		switch u.Kind() {
		case ir.KindStore:
			ops := u.Operands()
			if len(ops) < 2 {
				continue
			}
			if ops[0] != val {
				collect(ops[0], visited, matches, classifier, demangler, d)
			} else {
				collect(ops[1], visited, matches, classifier, demangler, d)
			}
		case ir.KindLoad:
			collect(u, visited, matches, classifier, demangler, d)
			if ops := u.Operands(); len(ops) > 0 && ops[0] != val {
				collect(ops[0], visited, matches, classifier, demangler, d)
			}
		case ir.KindBitCast:
			collect(u, visited, matches, classifier, demangler, d)
			if ops := u.Operands(); len(ops) > 0 && ops[0] != val {
				collect(ops[0], visited, matches, classifier, demangler, d)
			}
		case ir.KindMemTransfer:
			ops := u.Operands()
			if len(ops) < 2 {
				continue
			}
			collect(ops[0], visited, matches, classifier, demangler, d)
			if ops[1] != val {
				collect(ops[1], visited, matches, classifier, demangler, d)
			}
		case ir.KindElementPtr, ir.KindZExt:
			collect(u, visited, matches, classifier, demangler, d)
		case ir.KindSwitch:
			matches[u.Block()] = u
		case ir.KindCall, ir.KindInvoke:
			calleeName, ok := u.CalleeName()
			if !ok {
				continue
			}
			demangled, err := demangler(calleeName)
			if err != nil {
				d.Warnf("receiver: failed to demangle %q: %v", calleeName, err)
				continue
			}
			if classifier.IsResultUnwrap(demangled) {
				matches[u.Block()] = u
				if u.HasStructReturn() {
					visited[u] = true
					if args := u.Args(); len(args) > 0 {
						collect(args[0], visited, matches, classifier, demangler, d)
					}
				} else {
					collect(u, visited, matches, classifier, demangler, d)
				}
			} else if !visited[u] {
				visited[u] = true
				matches[u.Block()] = u
			}
		}
	}
}

func isReceiveStructReturn(instr ir.Instruction, classifier symbol.Classifier, demangler demangle.Func) bool {
	if !instr.HasStructReturn() {
		return false
	}
	calleeName, ok := instr.CalleeName()
	if !ok {
		return false
	}
	demangled, err := demangler(calleeName)
	if err != nil {
		return false
	}
	return classifier.IsReceive(demangled)
}

func isResultUnwrapCall(instr ir.Instruction, classifier symbol.Classifier, demangler demangle.Func) bool {
	calleeName, ok := instr.CalleeName()
	if !ok {
		return false
	}
	demangled, err := demangler(calleeName)
	if err != nil {
		return false
	}
	return classifier.IsResultUnwrap(demangled)
}

// findUsage walks the CFG forward from bb, classifying the first candidate
// instruction it reaches in a block that does not have exactly one
// successor (blocks with a single successor are skipped entirely, even if
// they hold a candidate; blocks with none or several are checked). When a
// block has no
// recorded candidate and splits into multiple successors, every successor
// is explored and the usages are joined to their lattice maximum
// (spec.md §4.5.2).
func findUsage(bb ir.BasicBlock, pathHistory map[ir.BasicBlock]bool, matches map[ir.BasicBlock]ir.Instruction, unwrapped bool, lastHit ir.Instruction, classifier symbol.Classifier, demangler demangle.Func) (site.UsageClass, ir.Instruction) {
	if len(matches) == 0 || pathHistory[bb] {
		if unwrapped {
			return site.UnwrappedDirectUse, lastHit
		}
		return site.DirectUse, nil
	}

	next := make(map[ir.BasicBlock]bool, len(pathHistory)+1)
	for k := range pathHistory {
		next[k] = true
	}
	next[bb] = true

	succs := bb.Successors()
	if len(succs) == 1 {
		return findUsage(succs[0], next, matches, unwrapped, lastHit, classifier, demangler)
	}

	inst, ok := matches[bb]
	if !ok {
		var result site.UsageClass = site.DirectUse
		var resultInst ir.Instruction
		for _, s := range succs {
			u, i := findUsage(s, next, matches, unwrapped, lastHit, classifier, demangler)
			if u >= result {
				result, resultInst = u, i
			}
		}
		return result, resultInst
	}

	switch inst.Kind() {
	case ir.KindSwitch:
		if unwrapped {
			return site.UnwrappedToSwitch, inst
		}
		delete(matches, bb)
		if len(succs) < 2 {
			return site.UnwrappedToSwitch, inst
		}
		return findUsage(succs[1], next, matches, true, inst, classifier, demangler)
	case ir.KindCall, ir.KindInvoke:
		if unwrapped {
			return site.UnwrappedToHandlerFunction, inst
		}
		if isResultUnwrapCall(inst, classifier, demangler) {
			delete(matches, bb)
			return findUsage(succs[0], next, matches, true, inst, classifier, demangler)
		}
		delete(matches, bb)
		return site.DirectHandlerCall, inst
	default:
		return site.DirectUse, nil
	}
}
