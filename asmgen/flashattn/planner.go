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
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/AICrossSim/PLENA-Compiler/asmgen"
)

const plannerComponent = "AttentionPlanner"

// AttentionPlanner is the top-level entry point: it orchestrates the fixed
// loop nest (kv head -> key tile -> query tile -> q head within the group)
// and calls the leaf emitters in dependency order: ResetEmitter first, then
// QKTEmitter, OnlineSoftmaxEmitter, PVEmitter and OutputEmitter per q head.
//
// Emit is pure and single-threaded: given the same Shape and a RegisterPool
// it does not mutate, it produces the same Program every time. That purity
// is what makes EmitBatch safe to run many calls concurrently, one
// independent RegisterPool and MemoryPlan per call.
type AttentionPlanner struct {
	reset   ResetEmitter
	qkt     QKTEmitter
	softmax OnlineSoftmaxEmitter
	pv      PVEmitter
	output  OutputEmitter
}

// NewAttentionPlanner wires the five leaf emitters together.
func NewAttentionPlanner() AttentionPlanner {
	return AttentionPlanner{
		reset:   NewResetEmitter(),
		qkt:     NewQKTEmitter(),
		softmax: NewOnlineSoftmaxEmitter(),
		pv:      NewPVEmitter(),
		output:  NewOutputEmitter(),
	}
}

// EmitParams are the per-call inputs to Emit.
type EmitParams struct {
	Shape       asmgen.Shape
	Pool        asmgen.RegisterPool
	VSRAMBase   int
	FPSRAMStart int
	KHBMReg     int
	VHBMReg     int
}

// Emit lowers one GQA Flash Attention call to assembly text. The S scratch
// region (sized for one KV head's group, per NewMemoryPlan) is reused across
// kv-head iterations: QKTEmitter always writes at MemoryPlan.SBase and the
// inner q-head loop addresses each head's slice within it where that batched
// write puts it (MemoryPlan.SBase + headIndex*MLEN*MLEN in prefill,
// MemoryPlan.SBase + headIndex*MLEN in decode), rather than threading an
// additional per-kv-head offset through it.
func (a AttentionPlanner) Emit(params EmitParams) (*asmgen.Program, error) {
	derived, err := params.Shape.Validate()
	if err != nil {
		return nil, err
	}
	memPlan, err := NewMemoryPlan(params.Shape, params.VSRAMBase)
	if err != nil {
		return nil, err
	}

	prog := asmgen.NewProgram()
	prog.Comment("Flash Attention Generation (generator %s)", asmgen.GeneratorVersion)

	kvPrefetch, err := a.reset.KVPrefetch(params.Pool, params.Shape)
	if err != nil {
		return nil, err
	}
	prog.Append(kvPrefetch)

	for kvHead := 0; kvHead < params.Shape.HKV; kvHead++ {
		for kTile := 0; kTile < derived.KVIters; kTile++ {
			mFPStart := params.FPSRAMStart

			resetM, err := a.reset.FPSRAM(params.Pool, mFPStart, derived.Br, 3*derived.Br, derived.Group, 2)
			if err != nil {
				return nil, err
			}
			prog.Append(resetM)

			resetL, err := a.reset.FPSRAM(params.Pool, mFPStart+2*derived.Br, derived.Br, 3*derived.Br, derived.Group, 0)
			if err != nil {
				return nil, err
			}
			prog.Append(resetL)

			resetO, err := a.reset.VSRAM(params.Pool, memPlan.OBase, params.Shape.VLEN, params.Shape.D, derived.Group*derived.Br, derived.Group)
			if err != nil {
				return nil, err
			}
			prog.Append(resetO)

			for qTile := 0; qTile < derived.QIters; qTile++ {
				storedMResAddr := mFPStart + derived.Br

				qktProg, err := a.qkt.Emit(params.Pool, QKTParams{
					D:            params.Shape.D,
					MLEN:         params.Shape.MLEN,
					Stage:        derived.Stage,
					QBaseAddress: memPlan.QBase + kvHead*derived.Group*params.Shape.D,
					KHBMReg:      params.KHBMReg,
					QHeadIndex:   0,
					KHeadIndex:   kvHead,
					SBaseAddress: memPlan.SBase,
				})
				if err != nil {
					return nil, err
				}
				prog.Append(qktProg)
				params.Pool.Release()

				for innerQ := 0; innerQ < derived.Group; innerQ++ {
					sHeadAddr := memPlan.SBase + innerQ*params.Shape.MLEN*params.Shape.MLEN
					if derived.Stage == asmgen.Decode {
						sHeadAddr = memPlan.SBase + innerQ*params.Shape.MLEN
					}
					smProg, err := a.softmax.Emit(params.Pool, SoftmaxParams{
						MLEN:          params.Shape.MLEN,
						Stage:         derived.Stage,
						SAddress:      sHeadAddr,
						MStartAddress: mFPStart,
						QKScaleAddr:   1,
					})
					if err != nil {
						return nil, err
					}
					prog.Append(smProg)
					mFPStart += derived.Br * 3
					params.Pool.Release()

					pvProg, err := a.pv.Emit(params.Pool, PVParams{
						HeadDim:      params.Shape.D,
						BLEN:         params.Shape.BLEN,
						MLEN:         params.Shape.MLEN,
						VLEN:         params.Shape.VLEN,
						Stage:        derived.Stage,
						PBaseAddress: sHeadAddr,
						VHBMReg:      params.VHBMReg,
						QHeadIndex:   0,
						VHeadIndex:   kvHead,
						OutputBase:   memPlan.PVBase,
						HeadOffset:   innerQ,
					})
					if err != nil {
						return nil, err
					}
					prog.Append(pvProg)
					params.Pool.Release()

					vmaskReg, err := firstInt(params.Pool, plannerComponent)
					if err != nil {
						return nil, err
					}
					vmaskProg, err := a.reset.SetVMask(vmaskReg, 1<<uint(innerQ))
					if err != nil {
						return nil, err
					}
					prog.Append(vmaskProg)

					accProg, err := a.output.Accumulate(params.Pool, AccumulateParams{
						MLEN:     params.Shape.MLEN,
						Stage:    derived.Stage,
						MResBase: storedMResAddr,
						PVBase:   memPlan.PVBase,
						OOldBase: memPlan.OBase,
						HeadDim:  params.Shape.D,
						QHeadNum: params.Shape.HQ,
					})
					if err != nil {
						return nil, err
					}
					prog.Append(accProg)
					storedMResAddr += 3 * derived.Br
				}

				for scaleHead := 0; scaleHead < derived.Group; scaleHead++ {
					vmaskReg, err := firstInt(params.Pool, plannerComponent)
					if err != nil {
						return nil, err
					}
					vmaskProg, err := a.reset.SetVMask(vmaskReg, 1<<uint(scaleHead))
					if err != nil {
						return nil, err
					}
					prog.Append(vmaskProg)

					lOldBase := params.FPSRAMStart + scaleHead*3*derived.Br + 2*derived.Br
					scaleProg, err := a.output.RowwiseScale(params.Pool, RowwiseScaleParams{
						MLEN:       params.Shape.MLEN,
						Stage:      derived.Stage,
						OOldBase:   memPlan.OBase,
						LOldBase:   lOldBase,
						ORowStride: params.Shape.HQ * params.Shape.D,
						UseMask:    true,
					})
					if err != nil {
						return nil, err
					}
					prog.Append(scaleProg)
				}
			}
		}
	}

	return prog, nil
}

func firstInt(pool asmgen.RegisterPool, component string) (int, error) {
	ints, err := pool.Int(1, component)
	if err != nil {
		return 0, err
	}
	return ints[0], nil
}

// BatchRequest is one independent Emit call within EmitBatch.
type BatchRequest struct {
	Params EmitParams
}

// EmitBatch runs Emit for each request concurrently. Each request must own
// a disjoint RegisterPool and MemoryPlan base address: Emit never mutates
// shared state, so the only safety requirement is that callers not hand two
// requests overlapping registers or VSRAM regions. Every request runs to
// completion; an error in one does not cancel the others. The first error
// is returned once all have finished; results preserve request order.
func (a AttentionPlanner) EmitBatch(ctx context.Context, requests []BatchRequest) ([]*asmgen.Program, error) {
	results := make([]*asmgen.Program, len(requests))
	g, _ := errgroup.WithContext(ctx)
	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			prog, err := a.Emit(req.Params)
			if err != nil {
				return err
			}
			results[i] = prog
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
