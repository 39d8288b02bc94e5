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

package msgtrace

import (
	"testing"

	"github.com/mstrail/msgtrace/internal/pkg/config"
	"github.com/mstrail/msgtrace/internal/pkg/demangle"
	"github.com/mstrail/msgtrace/internal/pkg/diag"
	"github.com/mstrail/msgtrace/internal/pkg/ir"
	"github.com/mstrail/msgtrace/internal/pkg/irfixture"
	"github.com/mstrail/msgtrace/internal/pkg/symbol"
)

func testClassifier() symbol.Classifier {
	cfg := config.Default()
	return symbol.Classifier{
		SendMarkers:          cfg.Markers.SendMarkers,
		RecvMarkers:          cfg.Markers.RecvMarkers,
		UnwrapMarkers:        cfg.Markers.UnwrapMarkers,
		SenderTypePrefixes:   cfg.Markers.SenderTypePrefixes,
		ReceiverTypePrefixes: cfg.Markers.ReceiverTypePrefixes,
		SelectReceiverType:   cfg.Markers.SelectReceiverType,
	}
}

func TestAnalyzeEndToEnd(t *testing.T) {
	b := irfixture.NewModuleBuilder("weatherstation.bc")
	fn := b.Func("main")

	senderBlk := fn.Block("sender")
	sendHandle := senderBlk.Alloca().WithPointeeType("std::sync::mpsc::Sender<u32>")
	senderBlk.Call("$LT$std..sync..mpsc..Sender$LT$T$GT$$GT$::send::h1", []ir.Value{sendHandle})
	senderBlk.Return()

	recvBlk := fn.Block("receiver")
	recvHandle := recvBlk.Alloca().WithPointeeType("std::sync::mpsc::Receiver<u32>")
	recvBlk.Call("$LT$std..sync..mpsc..Receiver$LT$T$GT$$GT$::recv::h2", []ir.Value{recvHandle})
	recvBlk.Return()

	mmap, err := Analyze([]ir.Module{b.Module()}, testClassifier(), demangle.Identity, config.Default(), diag.Discard)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	bucket, ok := mmap["weatherstation.bc"]
	if !ok || len(bucket) != 1 {
		t.Fatalf("mmap[weatherstation.bc] = %v, ok=%v, want exactly one pair", bucket, ok)
	}
	if bucket[0].Send.CarriedType != "u32" || bucket[0].Receive.CarriedType != "u32" {
		t.Fatalf("pair = %+v, want both sides carrying u32", bucket[0])
	}
}

func TestRunMemoizesPerPass(t *testing.T) {
	b := irfixture.NewModuleBuilder("m")
	pass := &Pass{
		Modules:    []ir.Module{b.Module()},
		Classifier: testClassifier(),
		Demangler:  demangle.Identity,
		Config:     config.Default(),
		Diag:       diag.Discard,
	}

	calls := 0
	probe := &Stage{
		Name: "probe",
		Run: func(*Pass) (interface{}, error) {
			calls++
			return calls, nil
		},
	}
	dependent := &Stage{Name: "dependent", Requires: []*Stage{probe}, Run: func(p *Pass) (interface{}, error) {
		return p.ResultOf[probe], nil
	}}

	if _, err := Run(dependent, pass); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, err := Run(probe, pass); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if calls != 1 {
		t.Fatalf("probe ran %d times, want 1 (memoized across Run calls sharing pass)", calls)
	}
}
