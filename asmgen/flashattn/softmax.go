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

const softmaxComponent = "OnlineSoftmaxEmitter"

// OnlineSoftmaxEmitter updates the running (m, m_res, l) triple for one
// Q-head tile given the freshly scaled S row(s). In prefill this body runs
// once per row inside a hardware loop; in decode q_len == 1 so it runs
// exactly once and the loop wrapper is skipped entirely. Both stages share
// the same row body, factored below so the two code paths cannot drift the
// way the two near-duplicate Python branches did.
type OnlineSoftmaxEmitter struct{}

// NewOnlineSoftmaxEmitter returns an OnlineSoftmaxEmitter.
func NewOnlineSoftmaxEmitter() OnlineSoftmaxEmitter { return OnlineSoftmaxEmitter{} }

// SoftmaxParams are the per-call inputs to Emit.
type SoftmaxParams struct {
	MLEN          int
	Stage         asmgen.Stage
	SAddress      int
	MStartAddress int
	QKScaleAddr   int // FP-SRAM slot holding qk_scale; defaults to 1 when 0
}

// Emit produces the m/m_res/l update for one Q-head's S tile.
func (OnlineSoftmaxEmitter) Emit(pool asmgen.RegisterPool, params SoftmaxParams) (*asmgen.Program, error) {
	fps, err := pool.FP(5, softmaxComponent)
	if err != nil {
		return nil, err
	}
	ints, err := pool.Int(5, softmaxComponent)
	if err != nil {
		return nil, err
	}

	qkScaleAddr := params.QKScaleAddr
	if qkScaleAddr == 0 {
		qkScaleAddr = 1
	}
	if err := checkAddr(softmaxComponent, "m_start_address", params.MStartAddress); err != nil {
		return nil, err
	}

	mLastReg, lOldReg, tmpReg, sumPReg, qkScaleReg := fps[0], fps[1], fps[2], fps[3], fps[4]
	sAddrReg, mLastAddrReg, mResAddrReg, lOldAddrReg, loopReg := ints[0], ints[1], ints[2], ints[3], ints[4]

	// slot_stride is the gap between consecutive per-row scalar slots: mlen
	// rows share one S tile in prefill, a single scalar slot in decode.
	slotStride := params.MLEN
	if params.Stage == asmgen.Decode {
		slotStride = 1
	}

	p := asmgen.NewProgram()
	p.Comment("%s Online Softmax Code", params.Stage)
	p.AddI(sAddrReg, 0, params.SAddress)
	p.AddI(mLastAddrReg, 0, params.MStartAddress)
	p.AddI(mResAddrReg, mLastAddrReg, slotStride)
	p.AddI(lOldAddrReg, mResAddrReg, slotStride)
	p.LoadFP(qkScaleReg, 0, qkScaleAddr)

	row := func() {
		p.MulVF(sAddrReg, sAddrReg, qkScaleReg, 0)
		p.LoadFP(mLastReg, mLastAddrReg, 0)
		p.AddFP(tmpReg, mLastReg, 0)

		mCurrReg := mLastReg
		p.RedMax(mCurrReg, sAddrReg, 0)

		mResReg := tmpReg
		p.SubFP(mResReg, tmpReg, mCurrReg)
		p.ExpFP(mResReg, mResReg)

		p.StoreFP(tmpReg, mResAddrReg, 0)
		p.StoreFP(mCurrReg, mLastAddrReg, 0)

		p.SubVF(sAddrReg, sAddrReg, mCurrReg, 0, 0)
		p.ExpV(sAddrReg, sAddrReg, 0)

		p.LoadFP(lOldReg, lOldAddrReg, 0)
		p.AddFP(sumPReg, 0, 0)
		p.RedSum(sumPReg, sAddrReg)

		p.MulFP(lOldReg, lOldReg, tmpReg)
		lSReg := lOldReg
		p.AddFP(lSReg, sumPReg, lOldReg)
		p.StoreFP(lSReg, lOldAddrReg, 0)
	}

	switch params.Stage {
	case asmgen.Prefill:
		p.LoopStart(loopReg, params.MLEN)
		row()
		p.AddI(sAddrReg, sAddrReg, params.MLEN)
		p.AddI(mLastAddrReg, mLastAddrReg, 1)
		p.AddI(mResAddrReg, mResAddrReg, 1)
		p.AddI(lOldAddrReg, lOldAddrReg, 1)
		p.LoopEnd(loopReg)
	case asmgen.Decode:
		row()
	default:
		return nil, &asmgen.EmissionError{Kind: asmgen.UnsupportedStage, Component: softmaxComponent, Constraint: "stage must be prefill or decode", Value: int(params.Stage)}
	}

	pool.Release()
	return p, nil
}
