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

const pvComponent = "PVEmitter"

// PVEmitter computes PV = P @ V for one Q head and writes it directly into
// packed output layout. V is re-prefetched on every call: K-prefetch in
// QKTEmitter and V-prefetch here both target MSRAM[0], so a stale V tile
// cannot be assumed to survive a QKT call for any other head.
type PVEmitter struct{}

// NewPVEmitter returns a PVEmitter.
func NewPVEmitter() PVEmitter { return PVEmitter{} }

// PVParams are the per-call inputs to Emit.
type PVParams struct {
	HeadDim         int
	BLEN            int
	MLEN            int
	VLEN            int
	Stage           asmgen.Stage
	PBaseAddress    int
	VHBMReg         int
	QHeadIndex      int
	VHeadIndex      int
	OutputBase      int
	HeadOffset      int
	VMSRAMBase      int
}

// Emit produces PV for one Q head, written at OutputBase + HeadOffset*HeadDim
// within the packed output row.
func (PVEmitter) Emit(pool asmgen.RegisterPool, params PVParams) (*asmgen.Program, error) {
	ints, err := pool.Int(6, pvComponent)
	if err != nil {
		return nil, err
	}
	pBaseReg, vBaseReg, outBaseReg, outerLoopReg, innerLoopReg, outColReg := ints[0], ints[1], ints[2], ints[3], ints[4], ints[5]

	pStart := params.PBaseAddress + params.QHeadIndex*params.MLEN*params.MLEN
	if err := checkAddr(pvComponent, "p_base_address", pStart); err != nil {
		return nil, err
	}
	if err := checkAddr(pvComponent, "v_base_address", params.VHeadIndex*params.HeadDim); err != nil {
		return nil, err
	}
	if err := checkAddr(pvComponent, "output_base_address", params.OutputBase); err != nil {
		return nil, err
	}
	if err := checkAddr(pvComponent, "v_msram_base", params.VMSRAMBase); err != nil {
		return nil, err
	}

	p := asmgen.NewProgram()
	p.Comment("%s PV Per KV Head Multiplication (packed output)", params.Stage)

	p.AddI(vBaseReg, 0, params.VHeadIndex*params.HeadDim)
	p.AddI(outBaseReg, 0, params.VMSRAMBase)
	p.PrefetchM(outBaseReg, vBaseReg, params.VHBMReg, 0, 1)

	p.AddI(pBaseReg, 0, pStart)
	p.AddI(vBaseReg, 0, params.VMSRAMBase)
	p.AddI(outBaseReg, 0, params.OutputBase+params.HeadOffset*params.HeadDim)

	switch params.Stage {
	case asmgen.Prefill:
		outerCount := params.HeadDim / params.BLEN
		innerCount := params.MLEN / params.BLEN
		p.AddI(outColReg, 0, params.OutputBase+params.HeadOffset*params.HeadDim)
		p.LoopStart(outerLoopReg, outerCount)
		p.LoopStart(innerLoopReg, innerCount)
		p.MM(0, vBaseReg, pBaseReg)
		p.MMWO(outBaseReg, 0)
		p.AddI(pBaseReg, pBaseReg, params.BLEN*params.MLEN)
		p.AddI(outBaseReg, outBaseReg, params.VLEN*params.BLEN)
		p.LoopEnd(innerLoopReg)
		p.AddI(pBaseReg, 0, pStart)
		p.AddI(outColReg, outColReg, params.BLEN)
		p.AddI(outBaseReg, outColReg, 0)
		p.AddI(vBaseReg, vBaseReg, params.BLEN)
		p.LoopEnd(outerLoopReg)
	case asmgen.Decode:
		loopCount := params.HeadDim / params.BLEN
		p.LoopStart(outerLoopReg, loopCount)
		p.MV(0, vBaseReg, pBaseReg)
		p.MVWO(outBaseReg, 0)
		p.AddI(outBaseReg, outBaseReg, params.BLEN)
		p.AddI(vBaseReg, vBaseReg, params.BLEN)
		p.LoopEnd(outerLoopReg)
	default:
		return nil, &asmgen.EmissionError{Kind: asmgen.UnsupportedStage, Component: pvComponent, Constraint: "stage must be prefill or decode", Value: int(params.Stage)}
	}

	pool.Release()
	return p, nil
}
