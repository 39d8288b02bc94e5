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

// Package diag provides the capability used to report non-fatal analysis
// notes without relying on process-global state. The original analyzer this
// package was distilled from wrote debugging output directly to LLVM's
// global outs()/errs() streams; per the design notes, every such side
// output is replaced here by a Sink passed explicitly into each analyzer.
package diag

import (
	"fmt"
	"log"
)

// Sink receives diagnostic notes emitted by the analyzers. Implementations
// must be safe to call from a single analysis request; the analyzer is
// single-threaded, so Sink does not need to be concurrency-safe on its own.
type Sink interface {
	// Notef records an informational note (e.g. a phi-node encounter, a
	// duplicate site-pair match). It never affects control flow.
	Notef(format string, args ...interface{})
	// Warnf records a recoverable per-site or per-module problem, per
	// spec.md §7 (demangling failure, unresolvable channel struct, a
	// receive with no successor block). It never aborts the pipeline: the
	// site it concerns is either skipped (the scanner drops it) or left
	// partially annotated (the sender and receiver analyzers).
	Warnf(format string, args ...interface{})
}

// Discard is a Sink that drops every note. Useful in tests that don't care
// about diagnostics.
var Discard Sink = discard{}

type discard struct{}

func (discard) Notef(string, ...interface{}) {}
func (discard) Warnf(string, ...interface{}) {}

// Logger adapts the standard library's log.Logger to Sink.
type Logger struct {
	*log.Logger
}

// NewLogger builds a Sink that writes both notes and warnings through l,
// prefixing warnings distinctly so they can be grepped out of a run's
// output.
func NewLogger(l *log.Logger) Logger {
	return Logger{Logger: l}
}

func (l Logger) Notef(format string, args ...interface{}) {
	l.Logger.Output(2, "[note] "+fmt.Sprintf(format, args...))
}

func (l Logger) Warnf(format string, args ...interface{}) {
	l.Logger.Output(2, "[warn] "+fmt.Sprintf(format, args...))
}

// Collector is a Sink that buffers every note/warning in memory, useful for
// assertions in tests that want to verify a diagnostic was raised without
// asserting on log output.
type Collector struct {
	Notes    []string
	Warnings []string
}

func (c *Collector) Notef(format string, args ...interface{}) {
	c.Notes = append(c.Notes, fmt.Sprintf(format, args...))
}

func (c *Collector) Warnf(format string, args ...interface{}) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}
