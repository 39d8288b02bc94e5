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

// Package regexp wraps the standard library's regexp.Regexp so that it can
// be embedded directly in JSON- or YAML-decoded configuration structs.
package regexp

import (
	"encoding/json"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Regexp wraps regexp.Regexp to support unmarshalling from a plain string.
type Regexp struct {
	*regexp.Regexp
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Regexp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		return fmt.Errorf("regexp: empty pattern")
	}
	compiled, err := regexp.Compile(s)
	if err != nil {
		return fmt.Errorf("regexp: invalid pattern %q: %w", s, err)
	}
	r.Regexp = compiled
	return nil
}

// UnmarshalYAML implements yaml.v3's Unmarshaler, so the same struct can be
// read from either a JSON or a YAML config file.
func (r *Regexp) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		return fmt.Errorf("regexp: empty pattern")
	}
	compiled, err := regexp.Compile(s)
	if err != nil {
		return fmt.Errorf("regexp: invalid pattern %q: %w", s, err)
	}
	r.Regexp = compiled
	return nil
}

// MatchString reports whether s matches the wrapped pattern. A zero-value
// Regexp (no pattern compiled) never matches.
func (r Regexp) MatchString(s string) bool {
	if r.Regexp == nil {
		return false
	}
	return r.Regexp.MatchString(s)
}
