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

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Imm2Bound is the largest value representable in an 18-bit immediate
// operand. Every literal address this package emits must sit in [0, Imm2Bound).
const Imm2Bound = 1<<18 - 1

var titleCaser = cases.Title(language.English)

// Stage selects between the prefill and decode execution paths. Decode is
// the degenerate q_len == 1 case: row loops collapse to a single iteration
// and the batched-matmul matrix ops become batched-matvec ones.
type Stage int

const (
	Prefill Stage = iota
	Decode
)

// String renders the stage the way it appears in emitted section comments,
// e.g. "; Prefill QKT Per KV Head Multiplication".
func (s Stage) String() string {
	switch s {
	case Prefill:
		return titleCaser.String("prefill")
	case Decode:
		return titleCaser.String("decode")
	default:
		return titleCaser.String("unknown")
	}
}

// ParseStage parses a stage name as read from an external shape-dict config
// (spec.md §6, the graph-parser collaborator). Any value outside
// {"prefill", "decode"} is a fatal UnsupportedStage EmissionError.
func ParseStage(name string) (Stage, error) {
	switch name {
	case "prefill":
		return Prefill, nil
	case "decode":
		return Decode, nil
	default:
		return 0, unsupportedStage("ParseStage", len(name))
	}
}

// StageFor derives the stage from the query length, matching the original
// template's `"decode" if q_len == 1 else "prefill"`.
func StageFor(qLen int) Stage {
	if qLen == 1 {
		return Decode
	}
	return Prefill
}

// Shape carries the static, immutable-for-one-emission parameters of a
// grouped-query-attention layer.
type Shape struct {
	MLEN  int // matrix-engine tile side
	VLEN  int // packed output row width, hq*d
	BLEN  int // matrix-engine batch/systolic depth, must equal hq/hkv
	Batch int
	HQ    int // query heads
	HKV   int // key/value heads
	D     int // head dimension
	QLen  int
	KVLen int
}

// Derived holds the quantities computed once per emission from Shape.
type Derived struct {
	Stage    Stage
	Br       int // min(MLEN, QLen)
	Bc       int // min(MLEN, KVLen)
	QIters   int // ceil(QLen / MLEN)
	KVIters  int // ceil(KVLen / MLEN)
	Group    int // HQ / HKV, Q heads sharing one KV head
}

// Validate checks the shape invariants that are independent of register
// or memory placement (head_dim vs MLEN, BLEN vs group, positivity), and
// returns the Derived quantities on success.
func (s Shape) Validate() (Derived, error) {
	if s.MLEN <= 0 || s.VLEN <= 0 || s.BLEN <= 0 || s.Batch <= 0 ||
		s.HQ <= 0 || s.HKV <= 0 || s.D <= 0 || s.QLen <= 0 || s.KVLen <= 0 {
		return Derived{}, shapeViolation("AttentionPlanner", "all shape dimensions must be positive", 0)
	}
	if s.D > s.MLEN {
		return Derived{}, shapeViolation("AttentionPlanner", "head_dim must be <= MLEN", s.D)
	}
	if s.HQ%s.HKV != 0 {
		return Derived{}, shapeViolation("AttentionPlanner", "hq must be a multiple of hkv", s.HQ)
	}
	group := s.HQ / s.HKV
	if s.BLEN != group {
		return Derived{}, shapeViolation("AttentionPlanner", "BLEN must equal hq/hkv", s.BLEN)
	}

	d := Derived{
		Stage:   StageFor(s.QLen),
		Br:      min(s.MLEN, s.QLen),
		Bc:      min(s.MLEN, s.KVLen),
		QIters:  ceilDiv(s.QLen, s.MLEN),
		KVIters: ceilDiv(s.KVLen, s.MLEN),
		Group:   group,
	}
	return d, nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// checkImm enforces the 18-bit immediate bound on every literal address
// this package is about to emit, per spec.md's mandatory at-emission-time
// validation (never deferred to the downstream assembler).
func checkImm(component, constraint string, v int) error {
	if v < 0 || v >= Imm2Bound {
		return addressOverflow(component, constraint, v)
	}
	return nil
}
