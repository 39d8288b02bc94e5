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

// Package msgtrace stitches the scanner, sender, receiver, matcher and
// graph stages into a single pipeline, composed the way the teacher's
// pkg/levee/levee.go wraps its own source/fieldpropagator/fieldtags
// analyzers: named stages with declared Requires and a Flags set, run in
// dependency order. golang.org/x/tools/go/analysis.Pass is irreducibly
// tied to a loaded Go package (Pkg, TypesInfo, Fset), none of which has a
// meaningful analogue for a foreign IR module, so this package defines
// its own Stage/Pass pair with the same composition shape (Name, Doc,
// Flags, Requires, Run, ResultOf) instead of importing that type and
// leaving most of it unused.
package msgtrace

import (
	"flag"
	"fmt"

	"github.com/mstrail/msgtrace/internal/pkg/config"
	"github.com/mstrail/msgtrace/internal/pkg/demangle"
	"github.com/mstrail/msgtrace/internal/pkg/diag"
	"github.com/mstrail/msgtrace/internal/pkg/graph"
	"github.com/mstrail/msgtrace/internal/pkg/ir"
	"github.com/mstrail/msgtrace/internal/pkg/matcher"
	"github.com/mstrail/msgtrace/internal/pkg/receiver"
	"github.com/mstrail/msgtrace/internal/pkg/scanner"
	"github.com/mstrail/msgtrace/internal/pkg/sender"
	"github.com/mstrail/msgtrace/internal/pkg/site"
	"github.com/mstrail/msgtrace/internal/pkg/symbol"
)

// Pass carries one analysis request's input plus whatever its
// dependencies have already computed, the way an analysis.Pass carries a
// loaded package plus pass.ResultOf.
type Pass struct {
	Modules    []ir.Module
	Classifier symbol.Classifier
	Demangler  demangle.Func
	Config     *config.Config
	Diag       diag.Sink

	ResultOf map[*Stage]interface{}
}

// Stage is one pipeline step.
type Stage struct {
	Name     string
	Doc      string
	Flags    flag.FlagSet
	Requires []*Stage
	Run      func(*Pass) (interface{}, error)
}

type scanResult struct {
	sends, recvs []*site.Site
}

// ScannerAnalyzer discovers every channel send and receive call site
// across pass.Modules (spec.md §4.3).
var ScannerAnalyzer = &Stage{
	Name: "scanner",
	Doc:  "scans IR modules for channel send and receive call sites",
	Run: func(pass *Pass) (interface{}, error) {
		sends, recvs := scanner.Scan(pass.Modules, pass.Classifier, pass.Demangler, pass.Diag)
		return scanResult{sends: sends, recvs: recvs}, nil
	},
}

// SenderAnalyzer resolves, for each send site, the constant value its
// payload argument was assigned from, where one can be found (spec.md
// §4.4).
var SenderAnalyzer = &Stage{
	Name:     "sender",
	Doc:      "resolves a constant assigned to each send's payload, where one exists",
	Requires: []*Stage{ScannerAnalyzer},
	Run: func(pass *Pass) (interface{}, error) {
		scan := pass.ResultOf[ScannerAnalyzer].(scanResult)
		for _, s := range scan.sends {
			sender.Analyze(s, pass.Diag)
		}
		return scan.sends, nil
	},
}

// ReceiverAnalyzer classifies how each receive site's value is consumed
// (spec.md §4.5).
var ReceiverAnalyzer = &Stage{
	Name:     "receiver",
	Doc:      "classifies how each receive site's value is used",
	Requires: []*Stage{ScannerAnalyzer},
	Run: func(pass *Pass) (interface{}, error) {
		scan := pass.ResultOf[ScannerAnalyzer].(scanResult)
		for _, r := range scan.recvs {
			receiver.Analyze(r, pass.Classifier, pass.Demangler, pass.Diag)
		}
		return scan.recvs, nil
	},
}

// MatcherAnalyzer pairs every send site with every type-compatible
// receive site (spec.md §4.6).
var MatcherAnalyzer = &Stage{
	Name:     "matcher",
	Doc:      "pairs send sites with type-compatible receive sites",
	Requires: []*Stage{SenderAnalyzer, ReceiverAnalyzer},
	Run: func(pass *Pass) (interface{}, error) {
		sends := pass.ResultOf[SenderAnalyzer].([]*site.Site)
		recvs := pass.ResultOf[ReceiverAnalyzer].([]*site.Site)
		return matcher.Match(sends, recvs, pass.Config), nil
	},
}

// GraphAnalyzer buckets matched pairs into the message map (spec.md
// §4.8). It transitively requires every earlier stage, so running it
// alone runs the whole pipeline.
var GraphAnalyzer = &Stage{
	Name:     "graph",
	Doc:      "buckets matched send/receive pairs into a message map by sender scope",
	Requires: []*Stage{MatcherAnalyzer},
	Run: func(pass *Pass) (interface{}, error) {
		pairs := pass.ResultOf[MatcherAnalyzer].([]site.Pair)
		return graph.Build(pairs, pass.Diag), nil
	},
}

// Analyzer is the top-level stage a driver runs.
var Analyzer = GraphAnalyzer

// Run executes stage and its transitive Requires in dependency order,
// memoizing each stage's result in pass.ResultOf, and returns stage's own
// result.
func Run(stage *Stage, pass *Pass) (interface{}, error) {
	if pass.ResultOf == nil {
		pass.ResultOf = map[*Stage]interface{}{}
	}
	if res, ok := pass.ResultOf[stage]; ok {
		return res, nil
	}
	for _, dep := range stage.Requires {
		if _, err := Run(dep, pass); err != nil {
			return nil, fmt.Errorf("msgtrace: running %s: %w", dep.Name, err)
		}
	}
	res, err := stage.Run(pass)
	if err != nil {
		return nil, fmt.Errorf("msgtrace: running %s: %w", stage.Name, err)
	}
	pass.ResultOf[stage] = res
	return res, nil
}

// Analyze runs the full pipeline over modules and returns the resulting
// message map. It is the entry point a CLI driver calls; guided-mode
// traversal (internal/pkg/walker) starts from this result.
func Analyze(modules []ir.Module, classifier symbol.Classifier, demangler demangle.Func, cfg *config.Config, d diag.Sink) (site.Map, error) {
	pass := &Pass{
		Modules:    modules,
		Classifier: classifier,
		Demangler:  demangler,
		Config:     cfg,
		Diag:       d,
	}
	res, err := Run(Analyzer, pass)
	if err != nil {
		return nil, err
	}
	return res.(site.Map), nil
}
