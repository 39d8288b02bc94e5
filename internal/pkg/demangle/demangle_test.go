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

package demangle

import "testing"

func TestIdentity(t *testing.T) {
	got, err := Identity("anything")
	if err != nil || got != "anything" {
		t.Fatalf("Identity() = (%q, %v), want (%q, nil)", got, err, "anything")
	}
}

func TestLegacyRustV0(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"$LT$std..sync..mpsc..Sender$LT$T$GT$$GT$::send::h1", false},
		{"not_mangled_at_all", true},
		{"", true},
	}
	for _, tt := range tests {
		_, err := LegacyRustV0(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("LegacyRustV0(%q) err = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}
