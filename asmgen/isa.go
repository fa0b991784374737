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

// Package asmgen provides the target-ISA surface, shape/register bookkeeping,
// and structured errors shared by the Flash Attention assembly emitters in
// asmgen/flashattn. It mirrors the split go-highway draws between its core
// "hwy" package (pure, dependency-light vector primitives) and its
// contrib/cmd layers: asmgen has no logging, no global mutable state, and is
// safe to use concurrently as long as each caller owns its RegisterPool.
package asmgen

import (
	"fmt"
	"strings"
)

// Program accumulates one emission's instruction text. It has no hidden
// state beyond the text buffer. An emitter that fails a check returns a nil
// Program with its error, so a partly built buffer never reaches the caller.
type Program struct {
	b strings.Builder
}

// NewProgram returns an empty Program.
func NewProgram() *Program {
	return &Program{}
}

// String returns the accumulated instruction text.
func (p *Program) String() string {
	return p.b.String()
}

// Append concatenates another Program's text, for composing sub-emitters.
func (p *Program) Append(other *Program) {
	p.b.WriteString(other.b.String())
}

func (p *Program) line(format string, args ...any) {
	fmt.Fprintf(&p.b, format, args...)
	p.b.WriteByte('\n')
}

// Comment appends a ';'-prefixed comment line.
func (p *Program) Comment(format string, args ...any) {
	p.line("; "+format, args...)
}

// -- Scalar integer --

// AddI emits S_ADDI_INT gpRD, gpRS1, imm.
func (p *Program) AddI(rd, rs1, imm int) {
	p.line("S_ADDI_INT gp%d, gp%d, %d", rd, rs1, imm)
}

// Add emits S_ADD_INT gpRD, gpRS1, gpRS2.
func (p *Program) Add(rd, rs1, rs2 int) {
	p.line("S_ADD_INT gp%d, gp%d, gp%d", rd, rs1, rs2)
}

// -- Scalar floating point --

// AddFP emits S_ADD_FP fRD, fRS1, fRS2.
func (p *Program) AddFP(rd, rs1, rs2 int) {
	p.line("S_ADD_FP f%d, f%d, f%d", rd, rs1, rs2)
}

// SubFP emits S_SUB_FP fRD, fRS1, fRS2.
func (p *Program) SubFP(rd, rs1, rs2 int) {
	p.line("S_SUB_FP f%d, f%d, f%d", rd, rs1, rs2)
}

// MulFP emits S_MUL_FP fRD, fRS1, fRS2.
func (p *Program) MulFP(rd, rs1, rs2 int) {
	p.line("S_MUL_FP f%d, f%d, f%d", rd, rs1, rs2)
}

// LoadFP emits S_LD_FP fRD, gpBase, offset.
func (p *Program) LoadFP(rd, base, offset int) {
	p.line("S_LD_FP f%d, gp%d, %d", rd, base, offset)
}

// StoreFP emits S_ST_FP fRS, gpBase, offset.
func (p *Program) StoreFP(rs, base, offset int) {
	p.line("S_ST_FP f%d, gp%d, %d", rs, base, offset)
}

// ExpFP emits S_EXP_FP fRD, fRS.
func (p *Program) ExpFP(rd, rs int) {
	p.line("S_EXP_FP f%d, f%d", rd, rs)
}

// ReciFP emits S_RECI_FP fRD, fRS.
func (p *Program) ReciFP(rd, rs int) {
	p.line("S_RECI_FP f%d, f%d", rd, rs)
}

// -- Vector --

// MulVF emits V_MUL_VF gpRD, gpRS1, fRS2, maskEn.
func (p *Program) MulVF(rd, rs1, fs2, maskEn int) {
	p.line("V_MUL_VF gp%d, gp%d, f%d, %d", rd, rs1, fs2, maskEn)
}

// SubVF emits V_SUB_VF gpRD, gpRS1, fRS2, maskEn, reserved. The trailing
// operand is carried unexplained from the original template; this module
// always passes 0 for it, matching every call site observed there.
func (p *Program) SubVF(rd, rs1, fs2, maskEn, reserved int) {
	p.line("V_SUB_VF gp%d, gp%d, f%d, %d, %d", rd, rs1, fs2, maskEn, reserved)
}

// AddVV emits V_ADD_VV gpRD, gpRS1, gpRS2, maskEn.
func (p *Program) AddVV(rd, rs1, rs2, maskEn int) {
	p.line("V_ADD_VV gp%d, gp%d, gp%d, %d", rd, rs1, rs2, maskEn)
}

// ExpV emits V_EXP_V gpRD, gpRS, maskEn.
func (p *Program) ExpV(rd, rs, maskEn int) {
	p.line("V_EXP_V gp%d, gp%d, %d", rd, rs, maskEn)
}

// RedMax emits V_RED_MAX fRD, gpRS, maskEn.
func (p *Program) RedMax(rd, rs, maskEn int) {
	p.line("V_RED_MAX f%d, gp%d, %d", rd, rs, maskEn)
}

// RedSum emits V_RED_SUM fRD, gpRS.
func (p *Program) RedSum(rd, rs int) {
	p.line("V_RED_SUM f%d, gp%d", rd, rs)
}

// -- Matrix --

// BTMM emits M_BTMM flag, gpRS1, gpRS2 (prefill batched-transpose-multiply).
func (p *Program) BTMM(flag, rs1, rs2 int) {
	p.line("M_BTMM %d, gp%d, gp%d", flag, rs1, rs2)
}

// BMMWO emits M_BMM_WO gpRD, flag (prefill batched-multiply write-out).
func (p *Program) BMMWO(rd, flag int) {
	p.line("M_BMM_WO gp%d, %d", rd, flag)
}

// BTMV emits M_BTMV flag, gpRS1, gpRS2 (decode batched-transpose-multiply-vector).
func (p *Program) BTMV(flag, rs1, rs2 int) {
	p.line("M_BTMV %d, gp%d, gp%d", flag, rs1, rs2)
}

// BMVWO emits M_BMV_WO gpRD, flag (decode batched-multiply-vector write-out).
func (p *Program) BMVWO(rd, flag int) {
	p.line("M_BMV_WO gp%d, %d", rd, flag)
}

// MM emits M_MM flag, gpRS1, gpRS2 (prefill block matmul).
func (p *Program) MM(flag, rs1, rs2 int) {
	p.line("M_MM %d, gp%d, gp%d", flag, rs1, rs2)
}

// MMWO emits M_MM_WO gpRD, gp0, flag (prefill block matmul write-out).
func (p *Program) MMWO(rd, flag int) {
	p.line("M_MM_WO gp%d, gp0, %d", rd, flag)
}

// MV emits M_MV flag, gpRS1, gpRS2 (decode block matvec).
func (p *Program) MV(flag, rs1, rs2 int) {
	p.line("M_MV %d, gp%d, gp%d", flag, rs1, rs2)
}

// MVWO emits M_MV_WO gpRD, gp0, flag (decode block matvec write-out).
func (p *Program) MVWO(rd, flag int) {
	p.line("M_MV_WO gp%d, gp0, %d", rd, flag)
}

// -- HBM --

// PrefetchM emits H_PREFETCH_M gpRD, gpRS1, aHBMReg, strideEn, scaleEn.
func (p *Program) PrefetchM(rd, rs1, hbmReg, strideEn, scaleEn int) {
	p.line("H_PREFETCH_M gp%d, gp%d, a%d, %d, %d", rd, rs1, hbmReg, strideEn, scaleEn)
}

// -- Control --

// LoopStart emits C_LOOP_START gpCounter, tripCount, opening a hardware loop.
func (p *Program) LoopStart(counter, tripCount int) {
	p.line("C_LOOP_START gp%d, %d", counter, tripCount)
}

// LoopEnd emits C_LOOP_END gpCounter, closing the innermost open loop on
// that counter register.
func (p *Program) LoopEnd(counter int) {
	p.line("C_LOOP_END gp%d", counter)
}

// SetStrideReg emits C_SET_STRIDE_REG gpReg.
func (p *Program) SetStrideReg(reg int) {
	p.line("C_SET_STRIDE_REG gp%d", reg)
}

// SetScaleReg emits C_SET_SCALE_REG gpReg.
func (p *Program) SetScaleReg(reg int) {
	p.line("C_SET_SCALE_REG gp%d", reg)
}

// SetVMaskReg emits C_SET_V_MASK_REG gpReg.
func (p *Program) SetVMaskReg(reg int) {
	p.line("C_SET_V_MASK_REG gp%d", reg)
}
