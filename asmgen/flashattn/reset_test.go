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
	"strconv"
	"strings"
	"testing"

	"github.com/AICrossSim/PLENA-Compiler/asmgen"
)

func TestResetEmitterFPSRAMNoLoopWhenFlat(t *testing.T) {
	prog, err := NewResetEmitter().FPSRAM(newPool(), 2, 1, 3, 1, 0)
	if err != nil {
		t.Fatalf("FPSRAM() error = %v", err)
	}
	out := prog.String()
	if strings.Contains(out, "C_LOOP_START") {
		t.Errorf("count=1, perStride=1 should not emit a hardware loop:\n%s", out)
	}
	if !strings.Contains(out, "S_ST_FP") {
		t.Errorf("output missing store:\n%s", out)
	}
}

func TestResetEmitterFPSRAMNestedLoopsWhenGrouped(t *testing.T) {
	prog, err := NewResetEmitter().FPSRAM(newPool(), 2, 3, 9, 4, 0)
	if err != nil {
		t.Fatalf("FPSRAM() error = %v", err)
	}
	out := prog.String()
	if n := strings.Count(out, "C_LOOP_START"); n != 2 {
		t.Errorf("C_LOOP_START count = %d, want 2 (outer count loop + inner perStride loop):\n%s", n, out)
	}
	if n := strings.Count(out, "C_LOOP_END"); n != 2 {
		t.Errorf("C_LOOP_END count = %d, want 2:\n%s", n, out)
	}
}

func TestResetEmitterFPSRAMAddressOverflow(t *testing.T) {
	_, err := NewResetEmitter().FPSRAM(newPool(), asmgen.Imm2Bound, 1, 1, 1, 0)
	var emissionErr *asmgen.EmissionError
	if !errors.As(err, &emissionErr) || emissionErr.Kind != asmgen.AddressOverflow {
		t.Errorf("FPSRAM() error = %v, want AddressOverflow EmissionError", err)
	}
}

func TestResetEmitterVSRAMEmitsVectorClear(t *testing.T) {
	prog, err := NewResetEmitter().VSRAM(newPool(), 0, 64, 4, 256, 2)
	if err != nil {
		t.Fatalf("VSRAM() error = %v", err)
	}
	out := prog.String()
	if !strings.Contains(out, "V_MUL_VF") {
		t.Errorf("output missing vector clear V_MUL_VF:\n%s", out)
	}
	if n := strings.Count(out, "C_LOOP_START"); n != 2 {
		t.Errorf("C_LOOP_START count = %d, want 2 (outer*inner nest):\n%s", n, out)
	}
}

func TestResetEmitterVSRAMAddressOverflow(t *testing.T) {
	_, err := NewResetEmitter().VSRAM(newPool(), asmgen.Imm2Bound, 64, 1, 64, 1)
	var emissionErr *asmgen.EmissionError
	if !errors.As(err, &emissionErr) || emissionErr.Kind != asmgen.AddressOverflow {
		t.Errorf("VSRAM() error = %v, want AddressOverflow EmissionError", err)
	}
}

func TestResetEmitterKVPrefetchTightRegime(t *testing.T) {
	shape := asmgen.Shape{MLEN: 128, VLEN: 64, BLEN: 1, Batch: 1, HQ: 1, HKV: 1, D: 64, QLen: 64, KVLen: 64}
	prog, err := NewResetEmitter().KVPrefetch(newPool(), shape)
	if err != nil {
		t.Fatalf("KVPrefetch() error = %v", err)
	}
	out := prog.String()
	if !strings.Contains(out, "S_ADDI_INT gp1, gp0, "+strconv.Itoa(shape.MLEN*shape.KVLen*shape.Batch)) {
		t.Errorf("tight regime should scale by mlen*kv_len*batch:\n%s", out)
	}
}

func TestResetEmitterKVPrefetchWideRegime(t *testing.T) {
	shape := asmgen.Shape{MLEN: 32, VLEN: 512, BLEN: 1, Batch: 1, HQ: 4, HKV: 4, D: 64, QLen: 64, KVLen: 64}
	prog, err := NewResetEmitter().KVPrefetch(newPool(), shape)
	if err != nil {
		t.Fatalf("KVPrefetch() error = %v", err)
	}
	out := prog.String()
	total := shape.HKV * shape.D * shape.KVLen * shape.Batch
	if !strings.Contains(out, "S_ADDI_INT gp1, gp0, "+strconv.Itoa(total)) {
		t.Errorf("wide regime should scale by hkv*d*kv_len*batch:\n%s", out)
	}
}

func TestResetEmitterSetVMask(t *testing.T) {
	prog, err := NewResetEmitter().SetVMask(1, 4)
	if err != nil {
		t.Fatalf("SetVMask() error = %v", err)
	}
	want := "S_ADDI_INT gp1, gp0, 4\nC_SET_V_MASK_REG gp1"
	if got := strings.TrimSpace(prog.String()); got != want {
		t.Errorf("SetVMask() = %q, want %q", got, want)
	}
}

func TestResetEmitterSetVMaskAddressOverflow(t *testing.T) {
	_, err := NewResetEmitter().SetVMask(1, asmgen.Imm2Bound)
	var emissionErr *asmgen.EmissionError
	if !errors.As(err, &emissionErr) || emissionErr.Kind != asmgen.AddressOverflow {
		t.Errorf("SetVMask() error = %v, want AddressOverflow EmissionError", err)
	}
}
