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

// Command msgtrace is the headless driver mentioned in spec.md §1(b): a
// minimal CLI that wires config, demangling, and the msgtrace pipeline
// together and writes the resulting message map to a sink. It follows
// cmd/levee/main.go's one-call-to-main shape, adapted because the input
// here is a set of IR modules rather than a loaded Go package, so there
// is no singlechecker.Main to reuse.
//
// Per spec.md §1, the real IR-file loader, the directory scan, and a full
// command-line option surface are external collaborators out of scope
// for this repository. This command loads modules through a pluggable
// Loader; without one configured, it falls back to a small built-in
// fixture module (spec.md §8 scenario 1's weatherstation example) so the
// pipeline and its sinks can be exercised end to end without linking an
// external IR reader.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mstrail/msgtrace/internal/pkg/config"
	"github.com/mstrail/msgtrace/internal/pkg/demangle"
	"github.com/mstrail/msgtrace/internal/pkg/diag"
	"github.com/mstrail/msgtrace/internal/pkg/graphprinter"
	"github.com/mstrail/msgtrace/internal/pkg/graphstore"
	"github.com/mstrail/msgtrace/internal/pkg/guidedio"
	"github.com/mstrail/msgtrace/internal/pkg/ir"
	"github.com/mstrail/msgtrace/internal/pkg/irfixture"
	"github.com/mstrail/msgtrace/internal/pkg/msgtrace"
	"github.com/mstrail/msgtrace/internal/pkg/site"
	"github.com/mstrail/msgtrace/internal/pkg/symbol"
	"github.com/mstrail/msgtrace/internal/pkg/walker"
)

// Loader produces IR modules from the command-line arguments naming
// compiled IR files. A real deployment sets this to a function backed by
// its own IR-file reader before main runs; none is wired here since that
// reader is out of scope (spec.md §1(a)).
var Loader func(paths []string) ([]ir.Module, error)

var (
	format = flag.String("format", "dot", "output format for the message graph: dot or sqlite")
	out    = flag.String("out", "", "output file path; empty writes DOT to stdout (ignored for sqlite, which requires a path)")
	guided = flag.Bool("guided", false, "run the guided walker interactively instead of emitting the full message graph")
	fromFn = flag.Bool("from-function", false, "in guided mode, choose a starting function instead of a starting send line")
)

func init() {
	// Fold config.FlagSet's -config flag into the command's own flag set,
	// the way the teacher's analyzers register their Flags on a shared
	// flag.FlagSet rather than each owning a private one.
	config.FlagSet.VisitAll(func(f *flag.Flag) {
		flag.Var(f.Value, f.Name, f.Usage)
	})
}

func main() {
	flag.Parse()

	cfg, err := config.Read()
	if err != nil {
		log.Fatalf("msgtrace: %v", err)
	}

	modules, err := loadModules(flag.Args())
	if err != nil {
		log.Fatalf("msgtrace: %v", err)
	}

	classifier := symbol.Classifier{
		SendMarkers:          cfg.Markers.SendMarkers,
		RecvMarkers:          cfg.Markers.RecvMarkers,
		UnwrapMarkers:        cfg.Markers.UnwrapMarkers,
		SenderTypePrefixes:   cfg.Markers.SenderTypePrefixes,
		ReceiverTypePrefixes: cfg.Markers.ReceiverTypePrefixes,
		SelectReceiverType:   cfg.Markers.SelectReceiverType,
	}
	d := diag.NewLogger(log.New(os.Stderr, "", log.LstdFlags))

	mmap, err := msgtrace.Analyze(modules, classifier, demangle.Identity, cfg, d)
	if err != nil {
		log.Fatalf("msgtrace: %v", err)
	}

	if *guided {
		if err := runGuided(modules, mmap, classifier, cfg, d); err != nil {
			log.Fatalf("msgtrace: %v", err)
		}
		return
	}

	if err := emit(mmap); err != nil {
		log.Fatalf("msgtrace: %v", err)
	}
}

func loadModules(paths []string) ([]ir.Module, error) {
	if len(paths) == 0 {
		return []ir.Module{demoModule()}, nil
	}
	if Loader == nil {
		return nil, fmt.Errorf("no IR loader configured; this binary was built without one wired for %v", paths)
	}
	return Loader(paths)
}

func emit(mmap site.Map) error {
	switch *format {
	case "dot":
		dot := graphprinter.Print(mmap)
		if *out == "" {
			fmt.Print(dot)
			return nil
		}
		return os.WriteFile(*out, []byte(dot), 0o644)
	case "sqlite":
		if *out == "" {
			return fmt.Errorf("-format=sqlite requires -out")
		}
		return graphstore.Write(*out, mmap)
	default:
		return fmt.Errorf("unknown -format %q, want dot or sqlite", *format)
	}
}

func runGuided(modules []ir.Module, mmap site.Map, classifier symbol.Classifier, cfg *config.Config, d diag.Sink) error {
	prompter := guidedio.NewStdin(os.Stdin, os.Stdout)
	w := walker.New(modules, mmap, classifier, demangle.Identity, cfg, d)

	scope, err := prompter.ChooseScope(mmap)
	if err != nil {
		return err
	}

	var path []site.Pair
	if *fromFn {
		fn, err := prompter.ChooseFunction(w.SendingFunctions(scope))
		if err != nil {
			return err
		}
		path = w.WalkFromFunction(fn)
	} else {
		chosen, err := prompter.ChooseSend(mmap[scope])
		if err != nil {
			return err
		}
		path = w.WalkFromSend(chosen)
	}

	for _, p := range path {
		fmt.Printf("%s --[%s]--> %s\n", p.Send.Scope, p.Send.CarriedType, p.Receive.Scope)
	}
	return nil
}

// demoModule builds a small fixture: a send of the constant literal 3 on
// a weatherstation::Weather channel and a matching recv on the same
// carried type, so the default CLI invocation has one pair to show. The
// received value is not consumed, so the receive is not classified
// beyond its default usage.
func demoModule() ir.Module {
	b := irfixture.NewModuleBuilder("weatherstation.bc")
	fn := b.Func("main")

	senderBlk := fn.Block("sender")
	payload := senderBlk.ConstInt(3)
	sendHandle := senderBlk.Alloca().WithPointeeType("std::sync::mpsc::Sender<weatherstation::Weather>")
	senderBlk.Call("$LT$std..sync..mpsc..Sender$LT$T$GT$$GT$::send::h1", []ir.Value{sendHandle, payload})
	senderBlk.Return()

	recvBlk := fn.Block("receiver")
	recvHandle := recvBlk.Alloca().WithPointeeType("std::sync::mpsc::Receiver<weatherstation::Weather>")
	recvBlk.Call("$LT$std..sync..mpsc..Receiver$LT$T$GT$$GT$::recv::h2", []ir.Value{recvHandle})
	recvBlk.Return()

	return b.Module()
}
