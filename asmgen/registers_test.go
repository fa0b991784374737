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
	"errors"
	"testing"
)

func TestRegisterPoolInt(t *testing.T) {
	p := RegisterPool{IntRegs: []int{1, 2, 3, 4, 5}}
	got, err := p.Int(3, "Test")
	if err != nil {
		t.Fatalf("Int(3) error = %v", err)
	}
	want := []int{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("Int(3) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Int(3)[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestRegisterPoolStarvation(t *testing.T) {
	p := RegisterPool{IntRegs: []int{1, 2}}
	_, err := p.Int(6, "QKTEmitter")
	var ee *EmissionError
	if !errors.As(err, &ee) {
		t.Fatalf("Int(6) error = %v, want *EmissionError", err)
	}
	if ee.Kind != RegisterStarvation {
		t.Errorf("Kind = %v, want RegisterStarvation", ee.Kind)
	}
	if ee.Component != "QKTEmitter" {
		t.Errorf("Component = %q, want QKTEmitter", ee.Component)
	}
}

func TestRegisterPoolFPStarvation(t *testing.T) {
	p := RegisterPool{FPRegs: []int{1}}
	_, err := p.FP(5, "OnlineSoftmaxEmitter")
	var ee *EmissionError
	if !errors.As(err, &ee) || ee.Kind != RegisterStarvation {
		t.Fatalf("FP(5) error = %v, want RegisterStarvation", err)
	}
}
