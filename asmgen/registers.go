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

// RegisterPool is the caller-owned stack of currently-live-elsewhere-free
// registers. There is no register allocator in this module: callers pass
// pre-selected free indices, and emitters draw a contiguous prefix sized to
// their own demand. gp0/f0 are hard-zero and never handed out.
type RegisterPool struct {
	IntRegs []int // free_int[]
	FPRegs  []int // free_fp[]
}

// Int returns the first n entries of the int free list, scoped to one
// emitter call. A RegisterStarvation EmissionError is returned if fewer
// than n are available.
func (p RegisterPool) Int(n int, component string) ([]int, error) {
	if len(p.IntRegs) < n {
		return nil, registerStarvation(component, n, len(p.IntRegs))
	}
	return p.IntRegs[:n], nil
}

// FP returns the first n entries of the fp free list, scoped to one
// emitter call.
func (p RegisterPool) FP(n int, component string) ([]int, error) {
	if len(p.FPRegs) < n {
		return nil, registerStarvation(component, n, len(p.FPRegs))
	}
	return p.FPRegs[:n], nil
}

// Release is the conceptual "free" step between sub-emitters: the original
// template's reset_reg_asm/reset_fpreg_asm helpers emit no instructions of
// their own, they only document that a register slice returned to the
// arena may be reused by the next emitter. This method carries the same
// no-op contract; it exists so call sites can spell out the handoff the
// same way overall.py's emission pipeline does.
func (p RegisterPool) Release() {}
