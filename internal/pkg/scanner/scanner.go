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

// Package scanner discovers channel send/receive call sites across a set
// of IR modules (spec.md §4.3). It never mutates the IR it walks; its
// output is a deterministic function of the module set.
package scanner

import (
	"github.com/mstrail/msgtrace/internal/pkg/demangle"
	"github.com/mstrail/msgtrace/internal/pkg/diag"
	"github.com/mstrail/msgtrace/internal/pkg/ir"
	"github.com/mstrail/msgtrace/internal/pkg/nsresolve"
	"github.com/mstrail/msgtrace/internal/pkg/site"
	"github.com/mstrail/msgtrace/internal/pkg/symbol"
)

// Scan walks every module, function, and basic block looking for call and
// invoke instructions that classify as a channel send or receive, and
// returns them as two separate site lists in IR traversal order
// (module, function, block, instruction).
func Scan(modules []ir.Module, classifier symbol.Classifier, demangler demangle.Func, d diag.Sink) (sends, recvs []*site.Site) {
	for _, mod := range modules {
		for _, fn := range mod.Functions() {
			for _, blk := range fn.Blocks() {
				for _, instr := range blk.Instructions() {
					if !isCallSite(instr) {
						continue
					}
					s, ok := classify(instr, classifier, demangler, d)
					if !ok {
						continue
					}
					switch s.Kind {
					case site.Send:
						sends = append(sends, s)
					case site.Receive:
						recvs = append(recvs, s)
					}
				}
			}
		}
	}
	return sends, recvs
}

// isCallSite reports whether instr is a plain call, or an invoke acting as
// its block's terminator (spec.md §4.3's "The block's terminator if it is
// an invoke instruction. Every plain call instruction in the block body.").
func isCallSite(instr ir.Instruction) bool {
	switch instr.Kind() {
	case ir.KindCall, ir.KindInvoke:
		return true
	default:
		return false
	}
}

func classify(instr ir.Instruction, classifier symbol.Classifier, demangler demangle.Func, d diag.Sink) (*site.Site, bool) {
	mangled, ok := instr.CalleeName()
	if !ok {
		return nil, false
	}

	demangled, err := demangler(mangled)
	if err != nil {
		d.Warnf("scanner: failed to demangle %q: %v", mangled, err)
		return nil, false
	}

	var kind site.Kind
	switch {
	case classifier.IsSend(demangled):
		kind = site.Send
	case classifier.IsReceive(demangled):
		kind = site.Receive
	default:
		return nil, false
	}

	handle, ok := channelHandle(instr, kind)
	if !ok {
		d.Warnf("scanner: %s call %q has no channel-handle argument", kind, demangled)
		return nil, false
	}

	carried, ok := carriedType(handle, instr, classifier, kind)
	if !ok {
		d.Warnf("scanner: could not extract carried type for %s call %q", kind, demangled)
		return nil, false
	}

	scope := nsresolve.Scope(instr)
	return site.New(instr, kind, carried, scope), true
}

// channelHandle selects the argument conveying the channel handle: index 1
// if the call returns a struct via a hidden out-pointer, index 0
// otherwise (spec.md §4.3 step 3).
func channelHandle(instr ir.Instruction, kind site.Kind) (ir.Instruction, bool) {
	args := instr.Args()
	idx := 0
	if instr.HasStructReturn() {
		idx = 1
	}
	if idx >= len(args) {
		return nil, false
	}
	handle, ok := args[idx].(ir.Instruction)
	if !ok {
		return nil, false
	}
	return handle, true
}

// carriedType extracts the transmitted payload type from the channel
// handle's pointee struct type, applying the select-multiplexer special
// rule (spec.md §4.1): when the receiver struct is the select type, the
// carried type comes from the pointee type of the last call argument
// instead of the handle.
func carriedType(handle ir.Instruction, instr ir.Instruction, classifier symbol.Classifier, kind site.Kind) (string, bool) {
	isSend := kind == site.Send

	structName, ok := handle.PointeeTypeName()
	if !ok {
		return "", false
	}

	if kind == site.Receive && classifier.IsSelectReceiver(structName) {
		args := instr.Args()
		if len(args) == 0 {
			return "", false
		}
		last, ok := args[len(args)-1].(ir.Instruction)
		if !ok {
			return "", false
		}
		lastType, ok := last.PointeeTypeName()
		if !ok {
			return "", false
		}
		return classifier.CarriedType(lastType, isSend)
	}

	return classifier.CarriedType(structName, isSend)
}
