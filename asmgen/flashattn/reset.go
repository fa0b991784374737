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

const resetComponent = "ResetEmitter"

// ResetEmitter initializes FP-SRAM scalars, zeroes VSRAM output tiles, and
// configures the HBM prefetch stride/scale registers once per attention
// call. It is the leaf of the emitter dependency order: every other
// emitter assumes ResetEmitter already ran for the region it touches.
type ResetEmitter struct{}

// NewResetEmitter returns a ResetEmitter. The type carries no state; the
// constructor exists only so call sites read the same way as the other
// emitters.
func NewResetEmitter() ResetEmitter { return ResetEmitter{} }

// FPSRAM writes the float at FP-SRAM[valueAddr] to count runs of
// perStride slots separated by stride, starting at start. The outer loop
// over count is elided when count is 1 and the inner loop over perStride
// when perStride is 1, so a single one-slot run emits no loop at all.
func (ResetEmitter) FPSRAM(pool asmgen.RegisterPool, start, perStride, stride, count, valueAddr int) (*asmgen.Program, error) {
	ints, err := pool.Int(4, resetComponent)
	if err != nil {
		return nil, err
	}
	fps, err := pool.FP(1, resetComponent)
	if err != nil {
		return nil, err
	}
	addrReg, outerLoopReg, innerLoopReg, offsetReg := ints[0], ints[1], ints[2], ints[3]
	valReg := fps[0]

	if err := checkAddr(resetComponent, "reset_start_address", start); err != nil {
		return nil, err
	}
	if err := checkAddr(resetComponent, "reset_end_address", start+count*perStride); err != nil {
		return nil, err
	}

	p := asmgen.NewProgram()
	p.Comment("Reset FPSRAM Code from %d to %d with value %d", start, start+count*perStride, valueAddr)

	p.AddI(addrReg, 0, start)
	p.AddI(offsetReg, 0, start)
	p.LoadFP(valReg, 0, valueAddr)

	emitRun := func() {
		if perStride > 1 {
			p.LoopStart(innerLoopReg, perStride)
			p.StoreFP(valReg, addrReg, 0)
			p.AddI(addrReg, addrReg, 1)
			p.LoopEnd(innerLoopReg)
		} else {
			p.StoreFP(valReg, addrReg, 0)
			p.AddI(addrReg, addrReg, 1)
		}
	}

	if count > 1 {
		p.LoopStart(outerLoopReg, count)
		emitRun()
		p.AddI(offsetReg, offsetReg, stride)
		p.Add(addrReg, 0, offsetReg)
		p.LoopEnd(outerLoopReg)
	} else {
		emitRun()
	}

	pool.Release()
	return p, nil
}

// VSRAM zeroes count*perStride consecutive VSRAM rows (each vectDim wide)
// starting at start, by multiplying each row by f0 — the cheapest way to
// clear a vector row without a store. The runs are not spaced apart: stride
// enters only the end-address bound check and the section comment.
func (ResetEmitter) VSRAM(pool asmgen.RegisterPool, start, vectDim, perStride, stride, count int) (*asmgen.Program, error) {
	ints, err := pool.Int(3, resetComponent)
	if err != nil {
		return nil, err
	}
	addrReg, outerLoopReg, innerLoopReg := ints[0], ints[1], ints[2]

	if err := checkAddr(resetComponent, "reset_start_address", start); err != nil {
		return nil, err
	}
	if err := checkAddr(resetComponent, "reset_end_address", start+count*stride); err != nil {
		return nil, err
	}

	p := asmgen.NewProgram()
	p.Comment("Reset VSSRAM Code from %d to %d with value 0", start, start+count*stride)
	p.AddI(addrReg, 0, start)

	if count*perStride > 0 {
		p.LoopStart(outerLoopReg, count)
		p.LoopStart(innerLoopReg, perStride)
		p.MulVF(addrReg, addrReg, 0, 0)
		p.AddI(addrReg, addrReg, vectDim)
		p.LoopEnd(innerLoopReg)
		p.LoopEnd(outerLoopReg)
	}

	pool.Release()
	return p, nil
}

// KVPrefetch configures the HBM SCALE_REG/STRIDE_REG once per attention.
// Two regimes apply depending on whether a KV head's row (hkv*d elements)
// is narrower than one matrix-engine tile (mlen): tight packing uses
// mlen-based strides, wide packing uses the natural hkv*d*batch stride.
func (ResetEmitter) KVPrefetch(pool asmgen.RegisterPool, shape asmgen.Shape) (*asmgen.Program, error) {
	ints, err := pool.Int(1, resetComponent)
	if err != nil {
		return nil, err
	}
	reg := ints[0]

	total := shape.HKV * shape.D * shape.KVLen * shape.Batch
	if err := checkAddr(resetComponent, "hkv*d*kv_len*batch", total); err != nil {
		return nil, err
	}

	p := asmgen.NewProgram()
	p.Comment("Reset KV Prefetch Code")

	if shape.HKV*shape.D < shape.MLEN {
		p.AddI(reg, 0, shape.MLEN*shape.KVLen*shape.Batch)
		p.SetScaleReg(reg)
		p.AddI(reg, 0, shape.MLEN)
		p.SetStrideReg(reg)
	} else {
		p.AddI(reg, 0, total)
		p.SetScaleReg(reg)
		p.AddI(reg, 0, shape.HKV*shape.D*shape.Batch)
		p.SetStrideReg(reg)
	}

	pool.Release()
	return p, nil
}

// SetVMask loads the head-selecting bitmask into a scratch register and
// issues C_SET_V_MASK_REG, matching the original template's
// reset_vmask_asm(reg, mask) two-instruction sequence.
func (ResetEmitter) SetVMask(reg, mask int) (*asmgen.Program, error) {
	if err := checkAddr(resetComponent, "v_mask", mask); err != nil {
		return nil, err
	}
	p := asmgen.NewProgram()
	p.AddI(reg, 0, mask)
	p.SetVMaskReg(reg)
	return p, nil
}

// checkAddr is the shared IMM2_BOUND check every emitter in this package
// runs before appending a literal address to its Program, per spec.md's
// "validated at emission time, not deferred to the downstream assembler".
func checkAddr(component, constraint string, v int) error {
	if v < 0 || v >= asmgen.Imm2Bound {
		return &asmgen.EmissionError{Kind: asmgen.AddressOverflow, Component: component, Constraint: constraint, Value: v}
	}
	return nil
}
