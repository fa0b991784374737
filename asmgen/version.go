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

import "golang.org/x/mod/semver"

// GeneratorVersion is stamped into the header comment AttentionPlanner.Emit
// writes at the top of every emitted program, so a downstream assembler or
// simulator can report which revision of this generator produced a given
// instruction stream.
const GeneratorVersion = "v0.1.0"

func init() {
	if !semver.IsValid(GeneratorVersion) {
		panic("asmgen: GeneratorVersion is not a valid semantic version: " + GeneratorVersion)
	}
}
