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

import "fmt"

// ErrorKind identifies which emission-time constraint was violated.
type ErrorKind int

const (
	// AddressOverflow means an emitted literal address reached IMM2Bound.
	AddressOverflow ErrorKind = iota
	// ShapeViolation means a shape parameter combination is invalid
	// (head_dim > MLEN, BLEN != group, a non-positive dimension, ...).
	ShapeViolation
	// RegisterStarvation means the caller supplied fewer free registers
	// than a component's prefix demand.
	RegisterStarvation
	// UnsupportedStage means a stage value outside {prefill, decode}.
	UnsupportedStage
)

func (k ErrorKind) String() string {
	switch k {
	case AddressOverflow:
		return "AddressOverflow"
	case ShapeViolation:
		return "ShapeViolation"
	case RegisterStarvation:
		return "RegisterStarvation"
	case UnsupportedStage:
		return "UnsupportedStage"
	default:
		return "UnknownError"
	}
}

// EmissionError is returned by every emitter on a fatal condition. No
// partial emission is returned alongside it: a non-nil error means the
// Program the caller was building is not usable.
type EmissionError struct {
	Kind       ErrorKind
	Component  string // emitter that detected the violation, e.g. "QKTEmitter"
	Constraint string // symbolic name of the violated constraint
	Value      int    // the offending numeric value
}

func (e *EmissionError) Error() string {
	return fmt.Sprintf("%s: %s in %s (offending value %d)", e.Kind, e.Constraint, e.Component, e.Value)
}

func addressOverflow(component, constraint string, value int) error {
	return &EmissionError{Kind: AddressOverflow, Component: component, Constraint: constraint, Value: value}
}

func shapeViolation(component, constraint string, value int) error {
	return &EmissionError{Kind: ShapeViolation, Component: component, Constraint: constraint, Value: value}
}

func registerStarvation(component string, needed, have int) error {
	return &EmissionError{Kind: RegisterStarvation, Component: component, Constraint: "free register prefix demand", Value: needed - have}
}

func unsupportedStage(component string, value int) error {
	return &EmissionError{Kind: UnsupportedStage, Component: component, Constraint: "stage must be prefill or decode", Value: value}
}
