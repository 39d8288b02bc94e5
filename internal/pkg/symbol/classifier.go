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

// Package symbol recognizes send/receive/unwrap call sites from demangled
// function names, and extracts the carried type from a channel-handle
// struct name (spec.md §4.1).
package symbol

import "strings"

// Classifier recognizes channel-related calls from demangled names, using
// the marker/prefix lists in a config.ChannelMarkers-shaped value. It takes
// the markers directly (rather than a *config.Config) to stay decoupled
// from the config package's file-loading concerns.
type Classifier struct {
	SendMarkers          []string
	RecvMarkers          []string
	UnwrapMarkers        []string
	SenderTypePrefixes   []string
	ReceiverTypePrefixes []string
	SelectReceiverType   string
}

// IsSend reports whether a demangled call name is a channel send. A match
// is only accepted if nothing follows the marker but more of the same
// name (no further "::" scope separator), which rejects closures nested
// inside the send method whose demangled names would otherwise falsely
// match (spec.md §4.1).
func (c Classifier) IsSend(demangled string) bool {
	return matchesAny(demangled, c.SendMarkers)
}

// IsReceive reports whether a demangled call name is a channel receive
// (recv or try_recv on either channel flavor).
func (c Classifier) IsReceive(demangled string) bool {
	return matchesAny(demangled, c.RecvMarkers)
}

// IsResultUnwrap reports whether a demangled call name is the
// result-type's unwrap method.
func (c Classifier) IsResultUnwrap(demangled string) bool {
	return matchesAny(demangled, c.UnwrapMarkers)
}

func matchesAny(demangled string, markers []string) bool {
	for _, marker := range markers {
		pos := strings.Index(demangled, marker)
		if pos == -1 {
			continue
		}
		suffix := demangled[pos+len(marker):]
		return !strings.Contains(suffix, "::")
	}
	return false
}

// IsSelectReceiver reports whether a channel-handle struct name is the
// select-multiplexer type, which takes its carried type from the final
// call argument rather than the handle itself (spec.md §4.1's special
// rule, §8 scenario 5).
func (c Classifier) IsSelectReceiver(structName string) bool {
	return c.SelectReceiverType != "" && strings.Contains(structName, c.SelectReceiverType)
}

// CarriedType strips a known sender/receiver type prefix and the trailing
// '>' from a channel-handle struct name, returning the inner payload type.
// ok is false if no known prefix matches.
func (c Classifier) CarriedType(structName string, isSend bool) (typ string, ok bool) {
	prefixes := c.ReceiverTypePrefixes
	if isSend {
		prefixes = c.SenderTypePrefixes
	}
	for _, prefix := range prefixes {
		idx := strings.Index(structName, prefix)
		if idx == -1 {
			continue
		}
		rest := structName[idx+len(prefix):]
		end := strings.LastIndexByte(rest, '>')
		if end == -1 {
			continue
		}
		return rest[:end], true
	}
	return "", false
}
