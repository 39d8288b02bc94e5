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

// Package site defines the data model shared by every stage of the
// pipeline: the channel site record (MessagingNode in spec.md), site
// pairs, and the message map that the graph builder produces.
package site

import (
	"github.com/google/uuid"
	"github.com/mstrail/msgtrace/internal/pkg/ir"
)

// Kind discriminates a channel site as a Send or a Receive.
type Kind int

const (
	Send Kind = iota
	Receive
)

func (k Kind) String() string {
	if k == Send {
		return "send"
	}
	return "receive"
}

// UsageClass classifies how a receiver analyzer found the received value
// consumed. The ordering below is the lattice join used when the CFG
// forward pass encounters multiple successors (spec.md §3, §4.5.2): the
// maximum along this ordering wins.
type UsageClass int

const (
	Unchecked UsageClass = iota
	DirectUse
	DirectHandlerCall
	UnwrappedDirectUse
	UnwrappedToHandlerFunction
	UnwrappedToSwitch
)

func (u UsageClass) String() string {
	switch u {
	case DirectUse:
		return "direct-use"
	case DirectHandlerCall:
		return "direct-handler-call"
	case UnwrappedDirectUse:
		return "unwrapped-direct-use"
	case UnwrappedToHandlerFunction:
		return "unwrapped-to-handler-function"
	case UnwrappedToSwitch:
		return "unwrapped-to-switch"
	default:
		return "unchecked"
	}
}

// Join returns the maximum of u and v under the UsageClass lattice.
func (u UsageClass) Join(v UsageClass) UsageClass {
	if v > u {
		return v
	}
	return u
}

// Site is a channel send or receive call site (MessagingNode in spec.md).
// A Site is emitted at most once by the scanner and is owned by the
// scanner's output collection; downstream components borrow it immutably
// except for the single-mutation-point writes the sender/receiver
// analyzers make to their own kind-discriminated payload fields.
type Site struct {
	ID uuid.UUID

	Instr       ir.Instruction
	Kind        Kind
	CarriedType string
	Scope       string

	// Assignment is set by the sender analyzer for Send sites. A nil
	// pointer means no constant was found; the boundary encoding for
	// "absent" (spec.md §6) is applied only at serialization time, never
	// inside the core data model.
	Assignment *int64

	// Usage and UsageInstr are set by the receiver analyzer for Receive
	// sites. UsageInstr is the switch/handler instruction the
	// classification is anchored to, or nil for DirectUse/Unchecked.
	Usage      UsageClass
	UsageInstr ir.Instruction
}

// New constructs a Site with a fresh ID and Unchecked/absent payload.
func New(instr ir.Instruction, kind Kind, carriedType, scope string) *Site {
	return &Site{
		ID:          uuid.New(),
		Instr:       instr,
		Kind:        kind,
		CarriedType: carriedType,
		Scope:       scope,
		Usage:       Unchecked,
	}
}

// Line returns the site's source line, or 0 if no debug location was
// recorded.
func (s *Site) Line() int {
	if loc, ok := s.Instr.DebugLoc(); ok {
		return loc.Line
	}
	return 0
}

// Pair is an unordered send/receive tuple: an edge in the message graph.
type Pair struct {
	Send    *Site
	Receive *Site
}

// Map is scope -> ordered sequence of pairs originating from that scope
// (spec.md §3's "message map"). Every scope that appears as either
// endpoint of any pair is present as a key, with an empty slice if it only
// receives.
type Map map[string][]Pair

// Build buckets pairs by the sender's scope, inserting an empty bucket for
// any scope that only appears as a receiver (spec.md §4.8).
func Build(pairs []Pair) Map {
	m := Map{}
	for _, p := range pairs {
		m[p.Send.Scope] = append(m[p.Send.Scope], p)
		if _, ok := m[p.Receive.Scope]; !ok {
			m[p.Receive.Scope] = []Pair{}
		}
	}
	return m
}
