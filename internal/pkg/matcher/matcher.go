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

// Package matcher pairs every send site with every receive site whose
// carried type matches, tolerating namespace-qualification differences
// (spec.md §4.6).
package matcher

import (
	"strings"

	"github.com/mstrail/msgtrace/internal/pkg/config"
	"github.com/mstrail/msgtrace/internal/pkg/site"
)

// Match pairs sends with recvs whose CarriedType is suffix-compatible:
// equal length requires an exact match; unequal length requires the
// longer type to end with the shorter one, tolerating a sender or
// receiver naming the same type with a fuller namespace path than the
// other. When cfg.SuppressUnitPayloads is set, sites carrying the unit
// type (or a Result/Option wrapping it) are skipped on both sides.
//
// A send matching more than one receive (or vice versa) produces a pair
// for every match rather than stopping at the first, deliberately
// over-approximating rather than silently discarding a possibly-wrong
// pairing.
func Match(sends, recvs []*site.Site, cfg *config.Config) []site.Pair {
	var pairs []site.Pair
	for _, s := range sends {
		if cfg.IsSuppressedType(s.CarriedType) {
			continue
		}
		for _, r := range recvs {
			if cfg.IsSuppressedType(r.CarriedType) {
				continue
			}
			if typesMatch(s.CarriedType, r.CarriedType) {
				pairs = append(pairs, site.Pair{Send: s, Receive: r})
			}
		}
	}
	return pairs
}

// typesMatch implements the suffix-tolerant comparison: equal-length
// types must be identical; otherwise the longer type's trailing
// characters, of the shorter type's length, must equal the shorter type.
func typesMatch(send, recv string) bool {
	switch {
	case len(send) == len(recv):
		return send == recv
	case len(send) < len(recv):
		return strings.HasSuffix(recv, send)
	default:
		return strings.HasSuffix(send, recv)
	}
}
