// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package asmgen

import (
	"testing"

	"golang.org/x/mod/semver"
)

func TestGeneratorVersionIsValidSemver(t *testing.T) {
	if !semver.IsValid(GeneratorVersion) {
		t.Fatalf("GeneratorVersion %q is not a valid semver string", GeneratorVersion)
	}
}

func TestParseStageRoundTrip(t *testing.T) {
	got, err := ParseStage("prefill")
	if err != nil || got != Prefill {
		t.Errorf("ParseStage(prefill) = %v, %v, want Prefill, nil", got, err)
	}
	got, err = ParseStage("decode")
	if err != nil || got != Decode {
		t.Errorf("ParseStage(decode) = %v, %v, want Decode, nil", got, err)
	}
	if _, err := ParseStage("bogus"); err == nil {
		t.Error("ParseStage(bogus) error = nil, want UnsupportedStage")
	}
}
