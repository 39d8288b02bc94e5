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

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsIgnorable(t *testing.T) {
	cfg := Default()
	tests := []struct {
		name string
		want bool
	}{
		{"core::result::Result$LT$T$GT$::unwrap", true},
		{"alloc::vec::Vec$LT$T$GT$::push", true},
		{"weatherstation::Weather::handle", false},
	}
	for _, tt := range tests {
		if got := cfg.IsIgnorable(tt.name); got != tt.want {
			t.Errorf("IsIgnorable(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIsSuppressedType(t *testing.T) {
	cfg := Default()
	for _, typ := range []string{"()", "core::result::Result<()>", "core::option::Option<()>"} {
		if !cfg.IsSuppressedType(typ) {
			t.Errorf("IsSuppressedType(%q) = false, want true", typ)
		}
	}
	if cfg.IsSuppressedType("weatherstation::Weather") {
		t.Errorf("IsSuppressedType(Weather) = true, want false")
	}

	cfg.SuppressUnitPayloads = false
	if cfg.IsSuppressedType("()") {
		t.Errorf("IsSuppressedType with suppression disabled = true, want false")
	}
}

func TestLoadJSONAndYAML(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "cfg.json")
	if err := os.WriteFile(jsonPath, []byte(`{"suppressUnitPayloads": true}`), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := load(jsonPath)
	if err != nil {
		t.Fatalf("load(json) = %v, want nil", err)
	}
	if !got.SuppressUnitPayloads {
		t.Errorf("SuppressUnitPayloads = false, want true")
	}

	yamlPath := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(yamlPath, []byte("suppressUnitPayloads: false\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err = load(yamlPath)
	if err != nil {
		t.Fatalf("load(yaml) = %v, want nil", err)
	}
	if got.SuppressUnitPayloads {
		t.Errorf("SuppressUnitPayloads = true, want false")
	}
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	got, err := load("")
	if err != nil {
		t.Fatalf("load(\"\") = %v, want nil", err)
	}
	if len(got.Markers.SendMarkers) == 0 {
		t.Errorf("load(\"\") did not return default markers")
	}
}
