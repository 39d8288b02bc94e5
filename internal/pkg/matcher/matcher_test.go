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

package matcher

import (
	"testing"

	"github.com/mstrail/msgtrace/internal/pkg/config"
	"github.com/mstrail/msgtrace/internal/pkg/irfixture"
	"github.com/mstrail/msgtrace/internal/pkg/site"
	"github.com/stretchr/testify/assert"
)

func newSite(b *irfixture.BlockBuilder, kind site.Kind, carriedType, scope string) *site.Site {
	instr := b.Call("noop", nil)
	return site.New(instr, kind, carriedType, scope)
}

func TestMatchExactSameLength(t *testing.T) {
	b := irfixture.NewModuleBuilder("m").Func("f").Block("b")
	s := newSite(b, site.Send, "Weather", "sender-scope")
	r := newSite(b, site.Receive, "Weather", "recv-scope")

	pairs := Match([]*site.Site{s}, []*site.Site{r}, config.Default())

	assert.Len(t, pairs, 1)
	assert.Same(t, s, pairs[0].Send)
	assert.Same(t, r, pairs[0].Receive)
}

func TestMatchToleratesNamespacePrefix(t *testing.T) {
	b := irfixture.NewModuleBuilder("m").Func("f").Block("b")
	s := newSite(b, site.Send, "weatherstation::Weather", "sender-scope")
	r := newSite(b, site.Receive, "Weather", "recv-scope")

	pairs := Match([]*site.Site{s}, []*site.Site{r}, config.Default())

	assert.Len(t, pairs, 1)
}

func TestMatchRejectsDifferentTypes(t *testing.T) {
	b := irfixture.NewModuleBuilder("m").Func("f").Block("b")
	s := newSite(b, site.Send, "u32", "sender-scope")
	r := newSite(b, site.Receive, "bool", "recv-scope")

	pairs := Match([]*site.Site{s}, []*site.Site{r}, config.Default())

	assert.Empty(t, pairs)
}

func TestMatchFansOutToEveryCandidate(t *testing.T) {
	b := irfixture.NewModuleBuilder("m").Func("f").Block("b")
	s := newSite(b, site.Send, "u32", "sender-scope")
	r1 := newSite(b, site.Receive, "u32", "recv-scope-1")
	r2 := newSite(b, site.Receive, "u32", "recv-scope-2")

	pairs := Match([]*site.Site{s}, []*site.Site{r1, r2}, config.Default())

	assert.Len(t, pairs, 2)
}

func TestMatchSuppressesUnitPayloadsByDefault(t *testing.T) {
	b := irfixture.NewModuleBuilder("m").Func("f").Block("b")
	s := newSite(b, site.Send, "()", "sender-scope")
	r := newSite(b, site.Receive, "()", "recv-scope")

	pairs := Match([]*site.Site{s}, []*site.Site{r}, config.Default())

	assert.Empty(t, pairs)
}

func TestMatchSuppressesResultWrappedUnitPayloads(t *testing.T) {
	b := irfixture.NewModuleBuilder("m").Func("f").Block("b")
	s := newSite(b, site.Send, "core::result::Result<(), core::fmt::Error>", "sender-scope")
	r := newSite(b, site.Receive, "core::result::Result<(), core::fmt::Error>", "recv-scope")

	pairs := Match([]*site.Site{s}, []*site.Site{r}, config.Default())

	assert.Empty(t, pairs)
}

func TestMatchKeepsUnitPayloadsWhenSuppressionDisabled(t *testing.T) {
	b := irfixture.NewModuleBuilder("m").Func("f").Block("b")
	s := newSite(b, site.Send, "()", "sender-scope")
	r := newSite(b, site.Receive, "()", "recv-scope")

	cfg := config.Default()
	cfg.SuppressUnitPayloads = false

	pairs := Match([]*site.Site{s}, []*site.Site{r}, cfg)

	assert.Len(t, pairs, 1)
}
