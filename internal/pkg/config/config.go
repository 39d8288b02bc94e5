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

// Package config holds the policy knobs the analyzers consult: the
// symbol-classifier markers, the guided walker's ignorable-callee
// prefixes, and the matcher's suppressed-type filter. None of this is
// algorithm; it is data the algorithm is parameterized by, read once per
// analysis request the way the teacher's config.Config is read once per
// go vet-style invocation.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mstrail/msgtrace/internal/pkg/config/regexp"
)

// FlagSet should be used by drivers that want a reusable -config flag.
var FlagSet flag.FlagSet

var configFile string

func init() {
	FlagSet.StringVar(&configFile, "config", "", "path to analysis configuration file (JSON or YAML); empty uses defaults")
}

// ChannelMarkers names the demangled-name substrings that identify a send,
// receive, or unwrap call (spec.md §4.1, §6 "Symbol-name contracts").
type ChannelMarkers struct {
	SendMarkers   []string `json:"sendMarkers" yaml:"sendMarkers"`
	RecvMarkers   []string `json:"recvMarkers" yaml:"recvMarkers"`
	UnwrapMarkers []string `json:"unwrapMarkers" yaml:"unwrapMarkers"`

	// SenderTypePrefixes and ReceiverTypePrefixes name the channel-handle
	// struct prefixes stripped to extract the carried type (spec.md
	// §4.1's carried_type).
	SenderTypePrefixes   []string `json:"senderTypePrefixes" yaml:"senderTypePrefixes"`
	ReceiverTypePrefixes []string `json:"receiverTypePrefixes" yaml:"receiverTypePrefixes"`

	// SelectReceiverType names the select-multiplexer receiver struct,
	// which takes its carried type from the last call argument instead
	// of the handle (spec.md §4.1's "Special rules").
	SelectReceiverType string `json:"selectReceiverType" yaml:"selectReceiverType"`
}

// Config contains the matchers and scope information used by the
// analyzers.
type Config struct {
	Markers ChannelMarkers `json:"markers" yaml:"markers"`

	// IgnorablePrefixes names demangled-name prefixes the guided walker
	// will not descend into (spec.md §4.7 "Filtering").
	IgnorablePrefixes []regexp.Regexp `json:"ignorablePrefixes" yaml:"ignorablePrefixes"`

	// SuppressUnitPayloads, when true, tells the matcher to drop sites
	// whose carried type is the unit payload or a Result/Option wrapper
	// around it (spec.md §4.6's optional filter).
	SuppressUnitPayloads bool `json:"suppressUnitPayloads" yaml:"suppressUnitPayloads"`
}

// Default returns the built-in configuration, grounded directly on the
// symbol-name contracts spec.md §4.1 and §6 specify: the std::sync::mpsc
// and ipc_channel Sender/Receiver markers, and the
// core::result::Result::unwrap marker.
func Default() *Config {
	return &Config{
		Markers: ChannelMarkers{
			SendMarkers: []string{
				"$LT$std..sync..mpsc..Sender$LT$T$GT$$GT$::send::",
				"$LT$ipc_channel..ipc..IpcSender$LT$T$GT$$GT$::send::",
			},
			RecvMarkers: []string{
				"$LT$std..sync..mpsc..Receiver$LT$T$GT$$GT$::recv::",
				"$LT$std..sync..mpsc..Receiver$LT$T$GT$$GT$::try_recv::",
				"$LT$ipc_channel..ipc..IpcReceiver$LT$T$GT$$GT$::recv::",
				"$LT$ipc_channel..ipc..IpcReceiver$LT$T$GT$$GT$::try_recv::",
			},
			UnwrapMarkers: []string{
				"$LT$core..result..Result$LT$T$C$$u20$E$GT$$GT$::unwrap::",
			},
			SenderTypePrefixes: []string{
				"std::sync::mpsc::Sender<",
				"ipc_channel::ipc::IpcSender<",
			},
			ReceiverTypePrefixes: []string{
				"std::sync::mpsc::Receiver<",
				"ipc_channel::ipc::IpcReceiver<",
			},
			SelectReceiverType: "std::sync::mpsc::Select",
		},
		IgnorablePrefixes:    mustCompileAll(`^core::`, `^_\$LT\$core\.\.`, `^alloc::`, `^_\$LT\$alloc\.\.`),
		SuppressUnitPayloads: true,
	}
}

func mustCompileAll(patterns ...string) []regexp.Regexp {
	out := make([]regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		var r regexp.Regexp
		if err := r.UnmarshalJSON([]byte(fmt.Sprintf("%q", p))); err != nil {
			panic(fmt.Sprintf("config: invalid built-in pattern %q: %v", p, err))
		}
		out = append(out, r)
	}
	return out
}

var (
	readOnce   sync.Once
	readResult *Config
	readErr    error
)

// Read loads the configuration named by the -config flag, falling back to
// Default() when no path was given. The result is cached for the lifetime
// of the process, mirroring the teacher's sync.Once-guarded ReadConfig.
func Read() (*Config, error) {
	readOnce.Do(func() {
		readResult, readErr = load(configFile)
	})
	return readResult, readErr
}

func load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s as YAML: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s as JSON: %w", path, err)
		}
	}
	return cfg, nil
}

// IsIgnorable reports whether a demangled callee name matches one of the
// configured ignorable prefixes (stdlib/allocator scopes the guided
// walker should not descend into).
func (c *Config) IsIgnorable(demangledName string) bool {
	for _, re := range c.IgnorablePrefixes {
		if re.MatchString(demangledName) {
			return true
		}
	}
	return false
}

// IsSuppressedType reports whether t is a payload type the matcher should
// drop under the unit-payload suppression filter.
func (c *Config) IsSuppressedType(t string) bool {
	if !c.SuppressUnitPayloads {
		return false
	}
	if t == "()" {
		return true
	}
	if strings.HasPrefix(t, "core::result::Result<()") || strings.HasPrefix(t, "core::option::Option<()") {
		return true
	}
	return false
}
