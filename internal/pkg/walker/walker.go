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

// Package walker implements the guided cross-component walker: an
// interprocedural CFG exploration that starts at a chosen send site,
// follows matched send/receive pairs into the receiver's function, and
// uses a send's propagated constant to resolve which switch successor a
// receiver's control flow actually takes (spec.md §4.7).
package walker

import (
	"github.com/mstrail/msgtrace/internal/pkg/config"
	"github.com/mstrail/msgtrace/internal/pkg/demangle"
	"github.com/mstrail/msgtrace/internal/pkg/diag"
	"github.com/mstrail/msgtrace/internal/pkg/ir"
	"github.com/mstrail/msgtrace/internal/pkg/nsresolve"
	"github.com/mstrail/msgtrace/internal/pkg/site"
	"github.com/mstrail/msgtrace/internal/pkg/symbol"
)

// Walker carries the shared state of a guided traversal: the message map
// being walked, a name-to-function index built from every loaded module
// (standing in for the direct-callee resolution a real IR loader would
// give for free), and a functions-visited set that persists across the
// whole walk so mutually recursive call chains terminate.
type Walker struct {
	mmap       site.Map
	classifier symbol.Classifier
	demangler  demangle.Func
	cfg        *config.Config
	diag       diag.Sink

	functions map[string]ir.Function
	visitedFn map[ir.Function]bool
}

// New builds a Walker over modules' combined function set and mmap (the
// message map produced by graph.Build over the matcher's pairs).
func New(modules []ir.Module, mmap site.Map, classifier symbol.Classifier, demangler demangle.Func, cfg *config.Config, d diag.Sink) *Walker {
	functions := map[string]ir.Function{}
	for _, mod := range modules {
		for _, fn := range mod.Functions() {
			functions[fn.Name()] = fn
		}
	}
	return &Walker{
		mmap:       mmap,
		classifier: classifier,
		demangler:  demangler,
		cfg:        cfg,
		diag:       d,
		functions:  functions,
		visitedFn:  map[ir.Function]bool{},
	}
}

// WalkFromSend seeds the output with chosen and begins traversal in the
// receiver's function under chosen as entry-point context — the
// guided-by-source-line entry mode.
func (w *Walker) WalkFromSend(chosen site.Pair) []site.Pair {
	out := []site.Pair{chosen}
	out = append(out, w.Walk(chosen.Receive.Instr.Function(), &chosen)...)
	return out
}

// WalkFromFunction begins traversal directly in fn with no entry-point
// context, discovering its own sends via BFS — the supplemented
// guided-by-function entry mode (spec.md §6 additions, grounded on
// analyzeGuidedFromFunction).
func (w *Walker) WalkFromFunction(fn ir.Function) []site.Pair {
	return w.Walk(fn, nil)
}

// SendingFunctions lists the distinct functions containing a send site
// within scope, keyed by debug-visible name — the candidate set a
// function-chooser guided-mode prompt shows the user.
func (w *Walker) SendingFunctions(scope string) map[string]ir.Function {
	out := map[string]ir.Function{}
	for _, pair := range w.mmap[scope] {
		fn := pair.Send.Instr.Function()
		out[fn.DebugName()] = fn
	}
	return out
}

// Walk traverses fn's CFG under entryPoint (nil for no prior context) and
// returns every send/receive pair discovered, in order.
func (w *Walker) Walk(fn ir.Function, entryPoint *site.Pair) []site.Pair {
	var out []site.Pair
	w.walk(fn, entryPoint, &out)
	return out
}

func (w *Walker) walk(fn ir.Function, entryPoint *site.Pair, out *[]site.Pair) {
	if w.visitedFn[fn] {
		return
	}
	w.visitedFn[fn] = true

	start := startBlock(fn, entryPoint)
	if start == nil {
		return
	}

	beenThere := map[ir.BasicBlock]bool{}
	queue := []ir.BasicBlock{start}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if beenThere[cur] {
			continue
		}
		beenThere[cur] = true

		for _, instr := range cur.Instructions() {
			if instr.Kind() == ir.KindInvoke || instr.Kind() == ir.KindCall {
				w.visitCall(instr, entryPoint, out)
			}
		}

		queue = w.successorsFor(cur, entryPoint, beenThere, queue)
	}
}

// startBlock picks where traversal begins in fn: when fn is the entry
// point's receive call's own function, the invoke's normal successor for
// an invoke receive, or the block containing the receive for a plain
// call; the function's entry block otherwise (spec.md §4.7 step 2).
func startBlock(fn ir.Function, entryPoint *site.Pair) ir.BasicBlock {
	if entryPoint != nil && entryPoint.Receive.Instr.Function() == fn {
		recv := entryPoint.Receive.Instr
		if recv.Kind() == ir.KindInvoke {
			succs := recv.Block().Successors()
			if len(succs) == 0 {
				return nil
			}
			return succs[0]
		}
		return recv.Block()
	}
	entry, ok := fn.Entry()
	if !ok {
		return nil
	}
	return entry
}

// visitCall handles a single call/invoke instruction encountered during
// the BFS: a matched send appends its pair(s) and recurses into the
// receiver's function; any other non-ignorable named callee recurses
// keeping the current entry-point context (spec.md §4.7 step 3).
func (w *Walker) visitCall(instr ir.Instruction, entryPoint *site.Pair, out *[]site.Pair) {
	calleeName, ok := instr.CalleeName()
	if !ok {
		return
	}
	demangled, err := w.demangler(calleeName)
	if err != nil {
		w.diag.Warnf("walker: failed to demangle %q: %v", calleeName, err)
		return
	}

	if w.classifier.IsSend(demangled) {
		scope := sendLookupScope(instr, entryPoint)
		for _, pair := range w.mmap[scope] {
			if pair.Send.Instr != instr {
				continue
			}
			// Intentionally no break: a send matching more than one pair
			// in the map is surfaced in full rather than silently picking
			// one, so a wrongly matched pairing is visible downstream.
			w.diag.Notef("walker: matched send at %s", scope)
			*out = append(*out, pair)
			*out = append(*out, w.Walk(pair.Receive.Instr.Function(), &pair)...)
		}
		return
	}

	if w.cfg.IsIgnorable(demangled) {
		return
	}
	callee, ok := w.functions[calleeName]
	if !ok {
		return
	}
	*out = append(*out, w.Walk(callee, entryPoint)...)
}

// sendLookupScope picks the message-map key used to find the pair(s) a
// send instruction belongs to: the current entry point's receive scope
// when one exists, otherwise the send instruction's own scope.
func sendLookupScope(instr ir.Instruction, entryPoint *site.Pair) string {
	if entryPoint != nil {
		return entryPoint.Receive.Scope
	}
	return nsresolve.Scope(instr)
}

// successorsFor enqueues cur's successors, special-casing a terminating
// switch whose receiver usage was classified UnwrappedToSwitch with a
// known send constant: only the successor at that constant's index is
// explored (spec.md §4.7 step 4; §9's open question on switch-successor
// indexing is resolved by trusting the producer compiler's convention
// that case values coincide with successor indices).
func (w *Walker) successorsFor(cur ir.BasicBlock, entryPoint *site.Pair, beenThere map[ir.BasicBlock]bool, queue []ir.BasicBlock) []ir.BasicBlock {
	if sw := terminatorSwitch(cur); sw != nil && w.takesGuidedBranch(sw, entryPoint) {
		idx := int(*entryPoint.Send.Assignment)
		succs := cur.Successors()
		if idx >= 0 && idx < len(succs) {
			if next := succs[idx]; !beenThere[next] {
				queue = append(queue, next)
			}
			return queue
		}
	}
	for _, succ := range cur.Successors() {
		if !beenThere[succ] {
			queue = append(queue, succ)
		}
	}
	return queue
}

func terminatorSwitch(bb ir.BasicBlock) ir.Instruction {
	instrs := bb.Instructions()
	if len(instrs) == 0 {
		return nil
	}
	if last := instrs[len(instrs)-1]; last.Kind() == ir.KindSwitch {
		return last
	}
	return nil
}

func (w *Walker) takesGuidedBranch(switchInstr ir.Instruction, entryPoint *site.Pair) bool {
	if entryPoint == nil || entryPoint.Send.Assignment == nil {
		return false
	}
	if entryPoint.Receive.Usage != site.UnwrappedToSwitch {
		return false
	}
	return entryPoint.Receive.UsageInstr == switchInstr
}
