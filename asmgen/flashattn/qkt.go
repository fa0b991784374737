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

const qktComponent = "QKTEmitter"

// QKTEmitter computes S = Q @ K^T for one KV head, shared across the
// group of Q heads that use it. It prefetches K contiguously (stride_en=0:
// strided prefetch needs 64-element alignment that small rows violate),
// then issues the batched transpose-multiply appropriate to the stage.
type QKTEmitter struct{}

// NewQKTEmitter returns a QKTEmitter.
func NewQKTEmitter() QKTEmitter { return QKTEmitter{} }

// QKTParams are the per-call inputs to Emit.
type QKTParams struct {
	D             int
	MLEN          int
	Stage         asmgen.Stage
	QBaseAddress  int
	KHBMReg       int
	QHeadIndex    int
	KHeadIndex    int
	SBaseAddress  int
}

// Emit produces S, shaped [group, MLEN, MLEN] in prefill or
// [group, MLEN, 1] in decode. QBaseAddress/QHeadIndex locate this KV
// head's Q rows; SBaseAddress/QHeadIndex locate where the result lands.
func (QKTEmitter) Emit(pool asmgen.RegisterPool, params QKTParams) (*asmgen.Program, error) {
	ints, err := pool.Int(2, qktComponent)
	if err != nil {
		return nil, err
	}
	qBaseReg, kBaseReg := ints[0], ints[1]
	sBaseReg := qBaseReg

	p := asmgen.NewProgram()
	p.Comment("%s QKT Per KV Head Multiplication", params.Stage)

	qAddr := params.QBaseAddress + params.QHeadIndex*params.D
	if err := checkAddr(qktComponent, "q_base_address", qAddr); err != nil {
		return nil, err
	}
	p.AddI(qBaseReg, 0, qAddr)
	p.AddI(kBaseReg, 0, params.KHeadIndex*params.D)

	// Contiguous prefetch: strided access below 64-element rows is unaligned.
	p.PrefetchM(0, kBaseReg, params.KHBMReg, 0, 1)

	switch params.Stage {
	case asmgen.Prefill:
		sAddr := params.SBaseAddress + params.QHeadIndex*params.MLEN*params.MLEN
		if err := checkAddr(qktComponent, "s_base_address", sAddr); err != nil {
			return nil, err
		}
		p.BTMM(0, qBaseReg, 0)
		p.AddI(sBaseReg, 0, sAddr)
		p.BMMWO(sBaseReg, 0)
	case asmgen.Decode:
		sAddr := params.SBaseAddress + params.QHeadIndex*params.MLEN
		if err := checkAddr(qktComponent, "s_base_address", sAddr); err != nil {
			return nil, err
		}
		p.BTMV(0, qBaseReg, 0)
		p.AddI(sBaseReg, 0, sAddr)
		p.BMVWO(sBaseReg, 0)
	default:
		return nil, &asmgen.EmissionError{Kind: asmgen.UnsupportedStage, Component: qktComponent, Constraint: "stage must be prefill or decode", Value: int(params.Stage)}
	}

	pool.Release()
	return p, nil
}
