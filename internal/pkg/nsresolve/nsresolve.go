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

// Package nsresolve maps an instruction to the scope string used to
// identify a message-graph node (spec.md §4.2).
package nsresolve

import "github.com/mstrail/msgtrace/internal/pkg/ir"

// Scope returns the debug-location filename for instr if one was
// recorded; otherwise it falls back to the name of the module that owns
// instr's enclosing function. This is a known limitation flagged directly
// by the source this was distilled from (original_source/properties.cpp's
// getNamespace): it does not attempt to trace a thread-spawn boundary or
// otherwise recover cross-module scoping, it only reads what debug info
// already gives it.
func Scope(instr ir.Instruction) string {
	if loc, ok := instr.DebugLoc(); ok && loc.Filename != "" {
		return loc.Filename
	}
	return instr.Function().Module().Name()
}
