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

func TestOnlineSoftmaxEmitterPrefillWrapsLoop(t *testing.T) {
	prog, err := NewOnlineSoftmaxEmitter().Emit(newPool(), SoftmaxParams{
		MLEN: 128, Stage: asmgen.Prefill, SAddress: 2000, MStartAddress: 10,
	})
	if err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	out := prog.String()
	if !strings.Contains(out, "C_LOOP_START") || !strings.Contains(out, "C_LOOP_END") {
		t.Errorf("prefill output missing hardware loop:\n%s", out)
	}
	if strings.Count(out, "V_RED_MAX") != 1 {
		t.Errorf("expected exactly one V_RED_MAX (loop body emitted once), got:\n%s", out)
	}
}

func TestOnlineSoftmaxEmitterDecodeSkipsLoop(t *testing.T) {
	prog, err := NewOnlineSoftmaxEmitter().Emit(newPool(), SoftmaxParams{
		MLEN: 1, Stage: asmgen.Decode, SAddress: 2000, MStartAddress: 10,
	})
	if err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	out := prog.String()
	if strings.Contains(out, "C_LOOP_START") {
		t.Errorf("decode output should not open a hardware loop:\n%s", out)
	}
	if !strings.Contains(out, "V_RED_MAX") {
		t.Errorf("decode output missing the row body:\n%s", out)
	}
}

func TestOnlineSoftmaxEmitterDefaultsQKScaleAddress(t *testing.T) {
	prog, err := NewOnlineSoftmaxEmitter().Emit(newPool(), SoftmaxParams{
		MLEN: 1, Stage: asmgen.Decode, SAddress: 0, MStartAddress: 0,
	})
	if err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if !strings.Contains(prog.String(), "S_LD_FP f5, gp0, 1\n") {
		t.Errorf("expected qk_scale load from FP-SRAM slot 1, got:\n%s", prog.String())
	}
}

func TestOnlineSoftmaxEmitterAddressOverflow(t *testing.T) {
	_, err := NewOnlineSoftmaxEmitter().Emit(newPool(), SoftmaxParams{
		MLEN: 1, Stage: asmgen.Decode, MStartAddress: asmgen.Imm2Bound,
	})
	var emissionErr *asmgen.EmissionError
	if !errors.As(err, &emissionErr) || emissionErr.Kind != asmgen.AddressOverflow {
		t.Errorf("Emit() error = %v, want AddressOverflow EmissionError", err)
	}
}

func TestOnlineSoftmaxEmitterUnsupportedStage(t *testing.T) {
	_, err := NewOnlineSoftmaxEmitter().Emit(newPool(), SoftmaxParams{MLEN: 1, Stage: asmgen.Stage(7)})
	var emissionErr *asmgen.EmissionError
	if !errors.As(err, &emissionErr) || emissionErr.Kind != asmgen.UnsupportedStage {
		t.Errorf("Emit() error = %v, want UnsupportedStage EmissionError", err)
	}
}
