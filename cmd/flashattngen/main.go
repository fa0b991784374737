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

// Command flashattngen lowers a GQA Flash Attention shape dictionary to
// coprocessor assembly text. It is a thin demonstration driver around the
// asmgen/flashattn package: the real graph parser, simulator, and
// file-writing pipeline this would plug into in production are external
// collaborators, not part of this module.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/AICrossSim/PLENA-Compiler/asmgen"
	"github.com/AICrossSim/PLENA-Compiler/asmgen/flashattn"
)

var (
	shapeDictPath string
	vsramBase     int
	fpSRAMStart   int
	kHBMReg       int
	vHBMReg       int
	logLevel      string
)

var rootCmd = &cobra.Command{
	Use:   "flashattngen",
	Short: "Generate Flash Attention assembly for the PLENA coprocessor ISA",
}

var emitCmd = &cobra.Command{
	Use:   "emit",
	Short: "Emit assembly for the shape described by a YAML shape dictionary",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		dict, err := loadShapeDict(shapeDictPath)
		if err != nil {
			logrus.Fatalf("loading shape dict: %v", err)
		}
		shape := dict.toShape()
		logrus.Infof("generator version %s, stage inferred from q_len=%d", asmgen.GeneratorVersion, shape.QLen)

		pool := asmgen.RegisterPool{
			IntRegs: sequence(32),
			FPRegs:  sequence(32),
		}
		planner := flashattn.NewAttentionPlanner()
		prog, err := planner.Emit(flashattn.EmitParams{
			Shape:       shape,
			Pool:        pool,
			VSRAMBase:   vsramBase,
			FPSRAMStart: fpSRAMStart,
			KHBMReg:     kHBMReg,
			VHBMReg:     vHBMReg,
		})
		if err != nil {
			var emissionErr *asmgen.EmissionError
			if errors.As(err, &emissionErr) {
				logrus.Fatalf("emission failed: %s", emissionErr.Error())
			}
			logrus.Fatalf("emission failed: %v", err)
		}

		fmt.Println(prog.String())
	},
}

func sequence(n int) []int {
	regs := make([]int, n)
	for i := range regs {
		regs[i] = i + 1
	}
	return regs
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	emitCmd.Flags().StringVar(&shapeDictPath, "shape", "", "path to a YAML shape dictionary (required)")
	emitCmd.Flags().IntVar(&vsramBase, "vsram-base", 0, "Vector SRAM base address")
	emitCmd.Flags().IntVar(&fpSRAMStart, "fp-sram-start", 2, "FP SRAM scalar region start address")
	emitCmd.Flags().IntVar(&kHBMReg, "k-hbm-reg", 0, "HBM offset register index for K")
	emitCmd.Flags().IntVar(&vHBMReg, "v-hbm-reg", 1, "HBM offset register index for V")
	emitCmd.Flags().StringVar(&logLevel, "log", "info", "log level (debug, info, warn, error)")
	_ = emitCmd.MarkFlagRequired("shape")

	rootCmd.AddCommand(emitCmd)
}

func main() {
	Execute()
}
