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

// Package guidedio defines the interactive capability the guided walker's
// driver needs to let a human steer the traversal: choosing a starting
// scope, optionally a starting function within it, and a starting send
// within a scope. It is grounded on original_source/analysisguide.cpp's
// std::cin prompt loop (analyzeGuided/analyzeGuidedFromFunction), ported
// to an injected capability instead of a direct terminal dependency so
// the walker's driver stays testable.
package guidedio

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/mstrail/msgtrace/internal/pkg/ir"
	"github.com/mstrail/msgtrace/internal/pkg/site"
)

// Prompter chooses the guided walker's entry point interactively.
type Prompter interface {
	// ChooseScope prompts until the user names a key present in mmap,
	// printing substring matches to help narrow down a typo.
	ChooseScope(mmap site.Map) (string, error)
	// ChooseFunction prompts until the user names one of candidates'
	// keys — the supplemented "start from a function" guided mode.
	ChooseFunction(candidates map[string]ir.Function) (ir.Function, error)
	// ChooseSend prompts until the user picks a source line matching one
	// of candidates' send sites.
	ChooseSend(candidates []site.Pair) (site.Pair, error)
}

// Scripted is a Prompter that returns one canned answer per method call,
// for driving the guided walker in tests without a terminal attached.
type Scripted struct {
	Scope    string
	FuncName string
	Line     int
}

func (s Scripted) ChooseScope(mmap site.Map) (string, error) {
	if _, ok := mmap[s.Scope]; !ok {
		return "", fmt.Errorf("guidedio: scripted scope %q not present in message map", s.Scope)
	}
	return s.Scope, nil
}

func (s Scripted) ChooseFunction(candidates map[string]ir.Function) (ir.Function, error) {
	fn, ok := candidates[s.FuncName]
	if !ok {
		return nil, fmt.Errorf("guidedio: scripted function %q not among candidates", s.FuncName)
	}
	return fn, nil
}

func (s Scripted) ChooseSend(candidates []site.Pair) (site.Pair, error) {
	for _, p := range candidates {
		if p.Send.Line() == s.Line {
			return p, nil
		}
	}
	return site.Pair{}, fmt.Errorf("guidedio: scripted line %d matches no candidate send", s.Line)
}

// Stdin is a Prompter backed by a line-oriented reader (os.Stdin in the
// CLI), mirroring the original's std::cin prompt loop.
type Stdin struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewStdin builds a Stdin prompter reading lines from r and writing
// prompts/feedback to w.
func NewStdin(r io.Reader, w io.Writer) *Stdin {
	return &Stdin{in: bufio.NewScanner(r), out: w}
}

func (s *Stdin) prompt(msg string) (string, bool) {
	fmt.Fprint(s.out, msg)
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

func (s *Stdin) ChooseScope(mmap site.Map) (string, error) {
	fmt.Fprintln(s.out, "Please specify a starting point for the analysis. You may press enter to display matching components.")
	for {
		line, ok := s.prompt("  > ")
		if !ok {
			return "", fmt.Errorf("guidedio: no more input while choosing a scope")
		}
		if _, ok := mmap[line]; ok {
			return line, nil
		}
		fmt.Fprintln(s.out, "\nNo exact matches found!")
		scopes := make([]string, 0, len(mmap))
		for scope := range mmap {
			if strings.Contains(scope, line) {
				scopes = append(scopes, scope)
			}
		}
		sort.Strings(scopes)
		for _, scope := range scopes {
			fmt.Fprintf(s.out, "  %s\n", scope)
		}
	}
}

func (s *Stdin) ChooseFunction(candidates map[string]ir.Function) (ir.Function, error) {
	fmt.Fprintln(s.out, "Please select a function to start (only sending functions are shown).")
	names := make([]string, 0, len(candidates))
	for name := range candidates {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(s.out, "  %s\n", name)
	}
	for {
		line, ok := s.prompt("  > ")
		if !ok {
			return nil, fmt.Errorf("guidedio: no more input while choosing a function")
		}
		if fn, ok := candidates[line]; ok {
			return fn, nil
		}
	}
}

func (s *Stdin) ChooseSend(candidates []site.Pair) (site.Pair, error) {
	fmt.Fprintln(s.out, "Please choose a message dispatch (via line number) to begin.")
	for _, p := range candidates {
		fmt.Fprintf(s.out, "  Line: %d - %s\n", p.Send.Line(), p.Send.CarriedType)
	}
	for {
		line, ok := s.prompt("  > ")
		if !ok {
			return site.Pair{}, fmt.Errorf("guidedio: no more input while choosing a send")
		}
		n, err := strconv.Atoi(line)
		if err != nil {
			continue
		}
		for _, p := range candidates {
			if p.Send.Line() == n {
				return p, nil
			}
		}
	}
}
