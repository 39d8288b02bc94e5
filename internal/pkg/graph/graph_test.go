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

package graph

import (
	"testing"

	"github.com/mstrail/msgtrace/internal/pkg/diag"
	"github.com/mstrail/msgtrace/internal/pkg/irfixture"
	"github.com/mstrail/msgtrace/internal/pkg/site"
)

func TestBuildInsertsEmptyBucketForReceiverOnlyScope(t *testing.T) {
	b := irfixture.NewModuleBuilder("m").Func("f").Block("b")
	send := site.New(b.Call("send", nil), site.Send, "u32", "sender-scope")
	recv := site.New(b.Call("recv", nil), site.Receive, "u32", "recv-scope")

	m := Build([]site.Pair{{Send: send, Receive: recv}}, diag.Discard)

	if len(m["sender-scope"]) != 1 {
		t.Fatalf("sender-scope bucket = %v, want 1 pair", m["sender-scope"])
	}
	if bucket, ok := m["recv-scope"]; !ok || len(bucket) != 0 {
		t.Fatalf("recv-scope bucket = %v, ok=%v, want present and empty", bucket, ok)
	}
}

func TestScopesSorted(t *testing.T) {
	m := site.Map{"zebra": nil, "alpha": nil, "mid": nil}

	got := Scopes(m)

	want := []string{"alpha", "mid", "zebra"}
	if len(got) != len(want) {
		t.Fatalf("Scopes() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Scopes() = %v, want %v", got, want)
		}
	}
}
