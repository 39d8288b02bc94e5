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

package graphprinter

import (
	"strings"
	"testing"

	"github.com/mstrail/msgtrace/internal/pkg/irfixture"
	"github.com/mstrail/msgtrace/internal/pkg/site"
)

func TestPrintIncludesNodesAndLabeledEdge(t *testing.T) {
	b := irfixture.NewModuleBuilder("m").Func("f").Block("b")
	sendInstr := b.Call("send", nil)
	recvInstr := b.Call("recv", nil)

	send := site.New(sendInstr, site.Send, "u32", "sender.rs")
	assignment := int64(3)
	send.Assignment = &assignment

	recv := site.New(recvInstr, site.Receive, "u32", "recv.rs")
	recv.Usage = site.UnwrappedToSwitch

	mmap := site.Build([]site.Pair{{Send: send, Receive: recv}})

	out := Print(mmap)

	for _, want := range []string{
		`"sender.rs";`,
		`"recv.rs";`,
		`"sender.rs" -> "recv.rs"`,
		`u32=3`,
		`unwrapped-to-switch`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Print() = %s, want substring %q", out, want)
		}
	}
}

func TestPrintEmptyMapProducesEmptyDigraph(t *testing.T) {
	out := Print(site.Map{})
	if out != "digraph messages {\n}\n" {
		t.Errorf("Print(empty) = %q, want empty digraph", out)
	}
}
