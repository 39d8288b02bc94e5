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

// Package irfixture builds small, hand-wired in-memory IR graphs that
// satisfy the ir package's interfaces. It stands in for the real IR-file
// loader (out of scope for this repository, per spec.md §1) so the
// analyzers can be exercised end to end without linking an LLVM bitcode
// reader.
package irfixture

import "github.com/mstrail/msgtrace/internal/pkg/ir"

// value is embedded by every fixture type that can appear as an operand,
// giving it the forward def-use edge the ir.Value interface requires.
type value struct {
	users []ir.Instruction
}

func (v *value) Users() []ir.Instruction { return v.users }

func (v *value) addUser(u ir.Instruction) { v.users = append(v.users, u) }

// Instruction is the fixture implementation of ir.Instruction.
type Instruction struct {
	value

	kind ir.Kind

	operands []ir.Value
	block    *Block
	fn       *Function

	debugLoc    ir.DebugLoc
	hasDebugLoc bool

	calleeName      string
	hasCallee       bool
	args            []ir.Value
	hasStructReturn bool

	pointeeType    string
	hasPointeeType bool

	constInt    int64
	hasConstInt bool
}

func (i *Instruction) Kind() ir.Kind        { return i.kind }
func (i *Instruction) Operands() []ir.Value { return i.operands }
func (i *Instruction) Block() ir.BasicBlock { return i.block }
func (i *Instruction) Function() ir.Function {
	if i.fn != nil {
		return i.fn
	}
	return i.block.fn
}

func (i *Instruction) DebugLoc() (ir.DebugLoc, bool) { return i.debugLoc, i.hasDebugLoc }

func (i *Instruction) CalleeName() (string, bool) { return i.calleeName, i.hasCallee }
func (i *Instruction) Args() []ir.Value           { return i.args }
func (i *Instruction) HasStructReturn() bool      { return i.hasStructReturn }

func (i *Instruction) PointeeTypeName() (string, bool) { return i.pointeeType, i.hasPointeeType }

func (i *Instruction) ConstInt() (int64, bool) { return i.constInt, i.hasConstInt }

// WithDebugLoc attaches a debug location and returns the instruction for
// chaining.
func (i *Instruction) WithDebugLoc(filename string, line int) *Instruction {
	i.debugLoc = ir.DebugLoc{Filename: filename, Line: line}
	i.hasDebugLoc = true
	return i
}

// WithStructReturn marks the call/invoke as returning via a hidden
// out-pointer at Args()[0].
func (i *Instruction) WithStructReturn() *Instruction {
	i.hasStructReturn = true
	return i
}

// WithPointeeType sets the struct type name the instruction's static type
// points to (used for channel-handle operands).
func (i *Instruction) WithPointeeType(name string) *Instruction {
	i.pointeeType = name
	i.hasPointeeType = true
	return i
}

// Block is the fixture implementation of ir.BasicBlock.
type Block struct {
	name   string
	fn     *Function
	instrs []ir.Instruction
	succs  []ir.BasicBlock
}

func (b *Block) Function() ir.Function          { return b.fn }
func (b *Block) Instructions() []ir.Instruction  { return b.instrs }
func (b *Block) Successors() []ir.BasicBlock     { return b.succs }
func (b *Block) Name() string                    { return b.name }
func (b *Block) SetSuccessors(succs ...*Block) *Block {
	b.succs = b.succs[:0]
	for _, s := range succs {
		b.succs = append(b.succs, s)
	}
	return b
}

// Function is the fixture implementation of ir.Function.
type Function struct {
	name      string
	debugName string
	mod       *Module
	blocks    []*Block
}

func (f *Function) Name() string { return f.name }
func (f *Function) DebugName() string {
	if f.debugName != "" {
		return f.debugName
	}
	return f.name
}
func (f *Function) Blocks() []ir.BasicBlock {
	out := make([]ir.BasicBlock, len(f.blocks))
	for i, b := range f.blocks {
		out[i] = b
	}
	return out
}
func (f *Function) Entry() (ir.BasicBlock, bool) {
	if len(f.blocks) == 0 {
		return nil, false
	}
	return f.blocks[0], true
}
func (f *Function) Module() ir.Module { return f.mod }

// Module is the fixture implementation of ir.Module.
type Module struct {
	name string
	fns  []*Function
}

func (m *Module) Name() string { return m.name }
func (m *Module) Functions() []ir.Function {
	out := make([]ir.Function, len(m.fns))
	for i, f := range m.fns {
		out[i] = f
	}
	return out
}

// ModuleBuilder assembles a Module.
type ModuleBuilder struct {
	mod *Module
}

// NewModuleBuilder creates a module fixture named name.
func NewModuleBuilder(name string) *ModuleBuilder {
	return &ModuleBuilder{mod: &Module{name: name}}
}

// Module returns the built ir.Module.
func (b *ModuleBuilder) Module() *Module { return b.mod }

// Func adds a function to the module and returns its builder.
func (b *ModuleBuilder) Func(name string) *FuncBuilder {
	fn := &Function{name: name, mod: b.mod}
	b.mod.fns = append(b.mod.fns, fn)
	return &FuncBuilder{fn: fn}
}

// FuncBuilder assembles a Function.
type FuncBuilder struct {
	fn *Function
}

// Func returns the built ir.Function.
func (b *FuncBuilder) Func() *Function { return b.fn }

// WithDebugName sets the function's debug-visible (unmangled) name.
func (b *FuncBuilder) WithDebugName(name string) *FuncBuilder {
	b.fn.debugName = name
	return b
}

// Block adds a basic block to the function and returns its builder. The
// first block added becomes the function's entry block.
func (b *FuncBuilder) Block(name string) *BlockBuilder {
	blk := &Block{name: name, fn: b.fn}
	b.fn.blocks = append(b.fn.blocks, blk)
	return &BlockBuilder{blk: blk}
}

// BlockBuilder assembles a Block and the instructions inside it.
type BlockBuilder struct {
	blk *Block
}

// Block returns the built ir.BasicBlock.
func (b *BlockBuilder) Block() *Block { return b.blk }

func (b *BlockBuilder) append(instr *Instruction) *Instruction {
	instr.block = b.blk
	b.blk.instrs = append(b.blk.instrs, instr)
	for _, op := range instr.operands {
		if u, ok := op.(interface{ addUser(ir.Instruction) }); ok {
			u.addUser(instr)
		}
	}
	return instr
}

func asValues(vs []ir.Value) []ir.Value { return vs }

// Call appends a plain call instruction with the given direct-callee name
// and argument list.
func (b *BlockBuilder) Call(calleeName string, args []ir.Value) *Instruction {
	instr := &Instruction{kind: ir.KindCall, calleeName: calleeName, hasCallee: true, args: args, operands: asValues(args)}
	return b.append(instr)
}

// Invoke appends an invoke (exceptional-control call) terminator and wires
// the block's successors to normal and unwind.
func (b *BlockBuilder) Invoke(calleeName string, args []ir.Value, normal, unwind *BlockBuilder) *Instruction {
	instr := &Instruction{kind: ir.KindInvoke, calleeName: calleeName, hasCallee: true, args: args, operands: asValues(args)}
	b.append(instr)
	b.blk.SetSuccessors(normal.blk, unwind.blk)
	return instr
}

// Load appends a load instruction over ptr.
func (b *BlockBuilder) Load(ptr ir.Value) *Instruction {
	return b.append(&Instruction{kind: ir.KindLoad, operands: []ir.Value{ptr}})
}

// Store appends a store of val into addr.
func (b *BlockBuilder) Store(addr, val ir.Value) *Instruction {
	return b.append(&Instruction{kind: ir.KindStore, operands: []ir.Value{addr, val}})
}

// BitCast appends a bitcast of src.
func (b *BlockBuilder) BitCast(src ir.Value) *Instruction {
	return b.append(&Instruction{kind: ir.KindBitCast, operands: []ir.Value{src}})
}

// Alloca appends a stack allocation.
func (b *BlockBuilder) Alloca() *Instruction {
	return b.append(&Instruction{kind: ir.KindAlloca})
}

// MemTransfer appends a memcpy-like transfer from src to dest.
func (b *BlockBuilder) MemTransfer(dest, src ir.Value) *Instruction {
	return b.append(&Instruction{kind: ir.KindMemTransfer, operands: []ir.Value{dest, src}})
}

// ElementPtr appends a getelementptr-style address computation over base.
func (b *BlockBuilder) ElementPtr(base ir.Value) *Instruction {
	return b.append(&Instruction{kind: ir.KindElementPtr, operands: []ir.Value{base}})
}

// Phi appends a phi join over the given incoming values.
func (b *BlockBuilder) Phi(incoming ...ir.Value) *Instruction {
	return b.append(&Instruction{kind: ir.KindPhi, operands: incoming})
}

// ZExt appends a zero-extend of src.
func (b *BlockBuilder) ZExt(src ir.Value) *Instruction {
	return b.append(&Instruction{kind: ir.KindZExt, operands: []ir.Value{src}})
}

// Switch appends a switch terminator over selector and wires the block's
// successors in the given order (index i is the successor for case i).
func (b *BlockBuilder) Switch(selector ir.Value, successors ...*BlockBuilder) *Instruction {
	instr := b.append(&Instruction{kind: ir.KindSwitch, operands: []ir.Value{selector}})
	blocks := make([]*Block, len(successors))
	for i, s := range successors {
		blocks[i] = s.blk
	}
	b.blk.SetSuccessors(blocks...)
	return instr
}

// Jump sets the block's single successor without emitting a distinct
// instruction (an unconditional branch terminator).
func (b *BlockBuilder) Jump(target *BlockBuilder) {
	b.blk.SetSuccessors(target.blk)
}

// Return appends a return terminator; the block has no successors.
func (b *BlockBuilder) Return() *Instruction {
	return b.append(&Instruction{kind: ir.KindReturn})
}

// ConstInt creates a standalone constant-integer value usable as an
// operand elsewhere. It is not appended to any block's instruction list
// (constants are not instructions in the surface this models), but it
// does implement ir.Instruction so sender analysis can recognize it via
// ConstInt() the way it recognizes a constant store's value operand.
func (b *BlockBuilder) ConstInt(v int64) *Instruction {
	return &Instruction{kind: ir.KindOther, constInt: v, hasConstInt: true, block: b.blk}
}
