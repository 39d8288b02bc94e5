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

package irfixture

import (
	"testing"

	"github.com/mstrail/msgtrace/internal/pkg/ir"
)

func TestDefUseEdgesAreWired(t *testing.T) {
	b := NewModuleBuilder("mod")
	fn := b.Func("f")
	blk := fn.Block("entry")

	alloca := blk.Alloca()
	store := blk.Store(alloca, blk.ConstInt(7))

	users := alloca.Users()
	if len(users) != 1 || users[0] != ir.Instruction(store) {
		t.Fatalf("Users() = %v, want [store]", users)
	}
}

func TestSwitchWiresSuccessorsInOrder(t *testing.T) {
	b := NewModuleBuilder("mod")
	fn := b.Func("f")
	entry := fn.Block("entry")
	case0 := fn.Block("case0")
	case1 := fn.Block("case1")

	entry.Switch(entry.ConstInt(1), case0, case1)

	succs := entry.Block().Successors()
	if len(succs) != 2 || succs[0] != ir.BasicBlock(case0.Block()) || succs[1] != ir.BasicBlock(case1.Block()) {
		t.Fatalf("Successors() = %v, want [case0, case1]", succs)
	}
}

func TestEntryBlockIsFirstAdded(t *testing.T) {
	b := NewModuleBuilder("mod")
	fn := b.Func("f")
	first := fn.Block("entry")
	fn.Block("second")

	entry, ok := fn.Func().Entry()
	if !ok || entry != ir.BasicBlock(first.Block()) {
		t.Fatalf("Entry() = %v, %v, want %v, true", entry, ok, first.Block())
	}
}
