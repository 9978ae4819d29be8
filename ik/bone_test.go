// Copyright © 2024 Galvanized Logic Inc.

package ik

import (
	"math"
	"testing"

	"github.com/galvanizedlogic/ssik/math/lin"
)

func TestBoneUpdateDerivedTransformRoot(t *testing.T) {
	root := NewBone(0, 0, "root")
	root.Position.SetS(1, 2, 3)
	root.Update(nil)

	if !root.DerivedPosition.Aeq(lin.NewV3S(1, 2, 3)) {
		t.Errorf("root derived position = %s, want (1 2 3)", root.DerivedPosition.Dump())
	}
}

func TestBoneUpdateDerivedTransformChild(t *testing.T) {
	parent := NewBone(0, 0, "parent")
	parent.Position.SetS(1, 0, 0)
	parent.Update(nil)

	child := NewBone(1, 0, "child")
	child.Position.SetS(0, 1, 0)
	child.Update(parent)

	want := lin.NewV3S(1, 1, 0)
	if !child.DerivedPosition.Aeq(want) {
		t.Errorf("child derived position = %s, want %s", child.DerivedPosition.Dump(), want.Dump())
	}
}

func TestBoneTranslateLocal(t *testing.T) {
	b := NewBone(0, 0, "b")
	b.Rotation.SetAa(0, 0, 1, math.Pi/2)
	b.Translate(nil, lin.NewV3S(1, 0, 0), Local)

	// a quarter turn about Z rotates local +X into +Y.
	want := lin.NewV3S(0, 1, 0)
	if !b.Position.Aeq(want) {
		t.Errorf("position = %s, want %s", b.Position.Dump(), want.Dump())
	}
}

func TestBoneTranslateArenaIsDirectAdd(t *testing.T) {
	b := NewBone(0, 0, "b")
	b.Position.SetS(1, 1, 1)
	b.Translate(nil, lin.NewV3S(1, 2, 3), Arena)

	want := lin.NewV3S(2, 3, 4)
	if !b.Position.Aeq(want) {
		t.Errorf("position = %s, want %s", b.Position.Dump(), want.Dump())
	}
}

func TestBoneRotateArenaComposesOnTheLeft(t *testing.T) {
	b := NewBone(0, 0, "b")
	b.Rotation.SetAa(0, 0, 1, math.Pi/4)
	q := lin.NewQ().SetAa(0, 0, 1, math.Pi/4)
	b.Rotate(nil, q, Arena)

	want := lin.NewQ().SetAa(0, 0, 1, math.Pi/2)
	if !b.Rotation.Aeq(want) {
		t.Errorf("rotation = %s, want %s", b.Rotation.Dump(), want.Dump())
	}
}

func TestBoneSetOrientationRejectsNaN(t *testing.T) {
	b := NewBone(0, 0, "b")
	b.SetOrientation(&lin.Q{X: math.NaN(), Y: 0, Z: 0, W: 1})

	if !b.Rotation.Aeq(lin.QI) {
		t.Errorf("rotation = %s, want identity after NaN input", b.Rotation.Dump())
	}
}

func TestBoneSetScaleRejectsNaN(t *testing.T) {
	b := NewBone(0, 0, "b")
	b.SetScale(&lin.V3{X: math.NaN(), Y: 1, Z: 1})

	if !b.Scale.Aeq(lin.NewV3S(1, 1, 1)) {
		t.Errorf("scale = %s, want (1 1 1) after NaN input", b.Scale.Dump())
	}
}

func TestBoneInitialPoseResets(t *testing.T) {
	b := NewBone(0, 0, "b")
	b.SetAsInitialPose()
	b.Position.SetS(5, 5, 5)
	b.Rotation.SetAa(1, 0, 0, 1)

	b.ResetToInitialPose()

	if !b.Position.Aeq(lin.NewV3()) {
		t.Errorf("position = %s, want zero after reset", b.Position.Dump())
	}
	if !b.Rotation.Aeq(lin.QI) {
		t.Errorf("rotation = %s, want identity after reset", b.Rotation.Dump())
	}
}
