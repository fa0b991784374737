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

import "github.com/AICrossSim/PLENA-Compiler/asmgen"

// MemoryPlan is the Vector-SRAM layout AttentionPlanner derives once per
// emission and every sub-emitter addresses relative to. Q, S/P, PV and O
// are laid out back-to-back starting at vsramBase, exactly as
// asm_templates/flashattn/overall.py computes them.
type MemoryPlan struct {
	QBase  int // Q preloaded here by the memory-planner collaborator, [q_len, hq, d]
	SBase  int // S then P, footprint group*MLEN^2
	PVBase int // PV footprint group*MLEN^2
	OBase  int // packed output, footprint q_len*hq*d
}

// NewMemoryPlan lays out the four VSRAM regions and checks every derived
// base address against the 18-bit immediate bound.
func NewMemoryPlan(shape asmgen.Shape, vsramBase int) (MemoryPlan, error) {
	qBase := vsramBase
	sBase := qBase + shape.QLen*shape.HQ*shape.D
	group := shape.HQ / shape.HKV
	pvBase := sBase + shape.MLEN*shape.MLEN*group
	oBase := pvBase + shape.MLEN*shape.MLEN*group

	for _, addr := range []struct {
		name string
		v    int
	}{
		{"q_base_address", qBase},
		{"s_base_address", sBase},
		{"pv_base_address", pvBase},
		{"o_old_base_address", oBase},
	} {
		if addr.v < 0 || addr.v >= asmgen.Imm2Bound {
			return MemoryPlan{}, &asmgen.EmissionError{
				Kind:       asmgen.AddressOverflow,
				Component:  "AttentionPlanner",
				Constraint: addr.name,
				Value:      addr.v,
			}
		}
	}

	return MemoryPlan{QBase: qBase, SBase: sBase, PVBase: pvBase, OBase: oBase}, nil
}
