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

package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/AICrossSim/PLENA-Compiler/asmgen"
)

// ShapeDict is the subset of an external graph parser's per-layer shape
// dictionary this CLI needs, named after the fields
// generator/passes/utilization_report.py reads from the same structure.
type ShapeDict struct {
	NumAttentionHeads   int `yaml:"num_attention_heads"`
	NumKeyValueHeads    int `yaml:"num_key_value_heads"`
	HeadDim             int `yaml:"head_dim"`
	HiddenSize          int `yaml:"hidden_size"`
	QueryLen            int `yaml:"query_len"`
	KeyValueLen         int `yaml:"key_value_len"`
	Batch               int `yaml:"batch"`
	MatrixEngineTileLen int `yaml:"mlen"`
	BatchLen            int `yaml:"blen"`
}

// loadShapeDict reads a YAML shape dictionary from path.
func loadShapeDict(path string) (ShapeDict, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ShapeDict{}, fmt.Errorf("reading shape dict %s: %w", path, err)
	}
	var dict ShapeDict
	if err := yaml.Unmarshal(data, &dict); err != nil {
		return ShapeDict{}, fmt.Errorf("parsing shape dict %s: %w", path, err)
	}
	return dict, nil
}

// toShape converts a parsed ShapeDict into the asmgen.Shape this module's
// emitters operate on. VLEN is derived as hq*head_dim, the packed output
// row width, since the shape dict has no separate field for it.
func (d ShapeDict) toShape() asmgen.Shape {
	return asmgen.Shape{
		MLEN:  d.MatrixEngineTileLen,
		VLEN:  d.NumAttentionHeads * d.HeadDim,
		BLEN:  d.BatchLen,
		Batch: d.Batch,
		HQ:    d.NumAttentionHeads,
		HKV:   d.NumKeyValueHeads,
		D:     d.HeadDim,
		QLen:  d.QueryLen,
		KVLen: d.KeyValueLen,
	}
}
