package core

import (
	"fmt"
	"strings"
)

// Attribute is one float field of a ParticleRecord as seen by a shader stage.
type Attribute struct {
	Name       string
	Components int
	Offset     uint64
	Location   uint32
}

// Layout is the view a shader stage has on a particle buffer.
type Layout struct {
	Stride     uint64
	Attributes []Attribute
}

// CapturedOutputs is the order in which the update stage writes a particle.
// It must match ParticleRecord field for field.
var CapturedOutputs = []string{"Position", "Age", "Life", "Velocity"}

// UpdateLayout exposes every field of the record to the update stage.
func UpdateLayout() Layout {
	return Layout{
		Stride: ParticleStride,
		Attributes: []Attribute{
			{Name: "Position", Components: 2, Offset: 0, Location: 0},
			{Name: "Age", Components: 1, Offset: 8, Location: 1},
			{Name: "Life", Components: 1, Offset: 12, Location: 2},
			{Name: "Velocity", Components: 2, Offset: 16, Location: 3},
		},
	}
}

// RenderLayout exposes position, age and life only. Velocity is skipped by the stride.
func RenderLayout() Layout {
	return Layout{
		Stride: ParticleStride,
		Attributes: []Attribute{
			{Name: "Position", Components: 2, Offset: 0, Location: 0},
			{Name: "Age", Components: 1, Offset: 8, Location: 1},
			{Name: "Life", Components: 1, Offset: 12, Location: 2},
		},
	}
}

// Stage selects which program a binding set feeds.
type Stage int

const (
	StageUpdate Stage = iota
	StageRender
)

func (s Stage) String() string {
	switch s {
	case StageUpdate:
		return "update"
	case StageRender:
		return "render"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// BindingSlot describes one of the four binding sets of a particle system.
// Source is the buffer the stage reads; Target is the buffer the update stage
// writes and is -1 for render slots.
type BindingSlot struct {
	Stage  Stage
	Source int
	Target int
	Layout Layout
}

// BindingPlan returns the four binding sets. Slots 0 and 1 drive the update
// stage from buffer k into buffer 1-k; slots 2 and 3 draw buffer k-2.
// Slot k and slot k+2 always read the same buffer.
func BindingPlan() [4]BindingSlot {
	var plan [4]BindingSlot
	for k := 0; k < 2; k++ {
		plan[k] = BindingSlot{Stage: StageUpdate, Source: k, Target: 1 - k, Layout: UpdateLayout()}
		plan[k+2] = BindingSlot{Stage: StageRender, Source: k, Target: -1, Layout: RenderLayout()}
	}
	return plan
}

// VerifyCaptureOrder checks that the fields a shader declares for its
// particle struct are exactly CapturedOutputs, in order. Names compare case-insensitively.
func VerifyCaptureOrder(fields []string) error {
	if len(fields) != len(CapturedOutputs) {
		return fmt.Errorf("captured outputs %v do not match record layout %v: %w",
			fields, CapturedOutputs, ErrProgramBuildFailure)
	}
	for i, want := range CapturedOutputs {
		if !strings.EqualFold(fields[i], want) {
			return fmt.Errorf("captured output %d is %q, want %q: %w",
				i, fields[i], want, ErrProgramBuildFailure)
		}
	}
	return nil
}
