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

package flashattn

import (
	"errors"
	"strings"
	"testing"

	"github.com/AICrossSim/PLENA-Compiler/asmgen"
)

func TestOutputEmitterAccumulate(t *testing.T) {
	prog, err := NewOutputEmitter().Accumulate(newPool(), AccumulateParams{
		MLEN: 128, MResBase: 10, PVBase: 2000, OOldBase: 4000, HeadDim: 64, QHeadNum: 8,
	})
	if err != nil {
		t.Fatalf("Accumulate() error = %v", err)
	}
	out := prog.String()
	for _, want := range []string{"V_MUL_VF", "V_ADD_VV"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestOutputEmitterAccumulateHeadDimExceedsMlen(t *testing.T) {
	_, err := NewOutputEmitter().Accumulate(newPool(), AccumulateParams{
		MLEN: 32, HeadDim: 64, QHeadNum: 8,
	})
	var emissionErr *asmgen.EmissionError
	if !errors.As(err, &emissionErr) || emissionErr.Kind != asmgen.ShapeViolation {
		t.Errorf("Accumulate() error = %v, want ShapeViolation EmissionError", err)
	}
}

func TestOutputEmitterRowwiseScale(t *testing.T) {
	prog, err := NewOutputEmitter().RowwiseScale(newPool(), RowwiseScaleParams{
		MLEN: 128, OOldBase: 4000, LOldBase: 20, ORowStride: 512, UseMask: true,
	})
	if err != nil {
		t.Fatalf("RowwiseScale() error = %v", err)
	}
	out := prog.String()
	if !strings.Contains(out, "S_RECI_FP") {
		t.Errorf("output missing reciprocal, got:\n%s", out)
	}
	if !strings.Contains(out, "V_MUL_VF gp1, gp1, f1, 1") {
		t.Errorf("expected mask_en=1 for UseMask=true, got:\n%s", out)
	}
}

func TestOutputEmitterRowwiseScaleNoMask(t *testing.T) {
	prog, err := NewOutputEmitter().RowwiseScale(newPool(), RowwiseScaleParams{
		MLEN: 128, OOldBase: 4000, LOldBase: 20, ORowStride: 512, UseMask: false,
	})
	if err != nil {
		t.Fatalf("RowwiseScale() error = %v", err)
	}
	if !strings.Contains(prog.String(), "V_MUL_VF gp1, gp1, f1, 0") {
		t.Errorf("expected mask_en=0 for UseMask=false, got:\n%s", prog.String())
	}
}

func TestOutputEmitterAddressOverflow(t *testing.T) {
	_, err := NewOutputEmitter().RowwiseScale(newPool(), RowwiseScaleParams{
		MLEN: 128, OOldBase: asmgen.Imm2Bound, LOldBase: 0,
	})
	var emissionErr *asmgen.EmissionError
	if !errors.As(err, &emissionErr) || emissionErr.Kind != asmgen.AddressOverflow {
		t.Errorf("RowwiseScale() error = %v, want AddressOverflow EmissionError", err)
	}
}
