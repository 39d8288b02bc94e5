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

// Package ir defines the read-only façade the analyzer uses to look at a
// compiled intermediate-representation module. It is a contract, not an
// implementation: the real producer is an external IR-file loader (an LLVM
// bitcode reader, in the system this package was distilled from) that is
// out of scope for this repository. Everything downstream of this package
// consumes these interfaces only; it never knows whether a module came from
// a real loader or a test fixture.
package ir

// Kind discriminates the instruction shapes the analyzers pattern-match on.
// This is a closed tagged variant over instruction kinds, the way the spec's
// design notes ask for, so analyzers switch on Kind instead of doing
// dynamic type assertions against a foreign IR library.
type Kind int

const (
	KindOther Kind = iota
	KindCall
	KindInvoke
	KindLoad
	KindStore
	KindBitCast
	KindAlloca
	KindMemTransfer
	KindElementPtr
	KindPhi
	KindSwitch
	KindZExt
	KindReturn
)

func (k Kind) String() string {
	switch k {
	case KindCall:
		return "call"
	case KindInvoke:
		return "invoke"
	case KindLoad:
		return "load"
	case KindStore:
		return "store"
	case KindBitCast:
		return "bitcast"
	case KindAlloca:
		return "alloca"
	case KindMemTransfer:
		return "memtransfer"
	case KindElementPtr:
		return "elementptr"
	case KindPhi:
		return "phi"
	case KindSwitch:
		return "switch"
	case KindZExt:
		return "zext"
	case KindReturn:
		return "ret"
	default:
		return "other"
	}
}

// DebugLoc is the subset of debug metadata the analyzer reads: the source
// file a value was tied to, and the line used for guided-mode selection.
type DebugLoc struct {
	Filename string
	Line     int
}

// Value is anything that can appear as an instruction operand or be the
// target of a def-use edge: another instruction, a function argument, or a
// constant. Instructions satisfy Value too (an instruction's result is
// itself usable as an operand), mirroring how every SSA instruction is also
// an SSA value in the teacher's IR.
type Value interface {
	// Users returns every instruction that consumes this value as an
	// operand — the forward def-use edge the spec calls out explicitly.
	Users() []Instruction
}

// Instruction is an opaque handle into the IR with a queryable kind, an
// operand list, and a position in its enclosing basic block and function.
type Instruction interface {
	Value

	Kind() Kind
	// Operands returns this instruction's operand values, in IR order.
	Operands() []Value

	Block() BasicBlock
	Function() Function

	// DebugLoc returns the instruction's debug location and whether one
	// was recorded (not every instruction carries debug info).
	DebugLoc() (DebugLoc, bool)

	// CalleeName returns the mangled name of a direct callee for Call and
	// Invoke instructions, and ok=false otherwise or for indirect calls.
	CalleeName() (string, bool)
	// Args returns the call argument list for Call and Invoke
	// instructions (including the hidden struct-return pointer, if any,
	// at index 0).
	Args() []Value
	// HasStructReturn reports whether Args()[0] is a hidden out-pointer
	// for a struct-by-value return, per §4.3/§4.5.
	HasStructReturn() bool

	// PointeeTypeName returns the name of the struct type this
	// instruction's static type points to, used to extract a channel's
	// carried type from its handle argument.
	PointeeTypeName() (string, bool)

	// ConstInt returns the constant integer value this instruction
	// represents, if it is a constant-integer value (as opposed to a
	// computed one), and whether extraction succeeded.
	ConstInt() (int64, bool)
}

// BasicBlock is an ordered instruction sequence with enumerable successors.
// It belongs to exactly one function.
type BasicBlock interface {
	Function() Function
	Instructions() []Instruction
	// Successors returns this block's successor blocks, in terminator
	// operand order (so that, for a switch, index i is the successor for
	// case i and the convention described in spec.md §4.7 applies).
	Successors() []BasicBlock
	Name() string
}

// Function groups basic blocks and exposes the debug-visible name used for
// guided-mode function selection.
type Function interface {
	Name() string
	// DebugName returns the name recorded in debug metadata (e.g. the
	// unmangled subprogram name), falling back to Name() when absent.
	DebugName() string
	Blocks() []BasicBlock
	Entry() (BasicBlock, bool)
	Module() Module
}

// Module is the top-level, read-only unit the analyzer scans. Modules
// exclusively own their functions and instructions; the analyzer never
// mutates a Module.
type Module interface {
	Name() string
	Functions() []Function
}
