// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package ik

// bone.go : animation_ik/ss_node.cpp, animation_ik/ss_node.h
//
// Bone is a node in the skeletal hierarchy. It keeps a local transform
// (relative to its parent) and a cached derived transform (relative to the
// skeleton's arena/world space). Parent linkage is by integer id, resolved
// by the Skeleton, not by a stored pointer: a Bone's methods that need the
// parent's transform take the parent as an explicit argument.

import (
	"log/slog"
	"math"

	"github.com/galvanizedlogic/ssik/math/lin"
)

// Frame is a reference frame a translate/rotate can be expressed in.
type Frame int

const (
	Local Frame = iota // relative to the bone's own current orientation.
	Object              // relative to the parent's derived transform.
	Arena               // relative to world/arena space.
)

// Bone is one node of a Skeleton.
type Bone struct {
	ID       int    // stable identifier; index into Skeleton.Bones when flat.
	ParentID int    // self-id for the root.
	Name     string

	Rotation *lin.Q  // local rotation, unit quaternion.
	Position *lin.V3 // local position.
	Scale    *lin.V3 // local scale.

	DerivedRotation *lin.Q  // composition with the parent's derived transform.
	DerivedPosition *lin.V3
	DerivedScale    *lin.V3

	InverseTpose *lin.M4 // inverse bind-pose world matrix, opaque to the solver.

	initialRotation *lin.Q // snapshot used by ResetToInitialPose.
	initialPosition *lin.V3
	initialScale    *lin.V3

	dirty bool
}

// NewBone creates a bone at the identity local transform, already dirty so
// the first Update call populates its derived transform.
func NewBone(id, parentID int, name string) *Bone {
	b := &Bone{
		ID: id, ParentID: parentID, Name: name,
		Rotation: lin.NewQI(), Position: lin.NewV3(), Scale: &lin.V3{X: 1, Y: 1, Z: 1},
		DerivedRotation: lin.NewQI(), DerivedPosition: lin.NewV3(), DerivedScale: &lin.V3{X: 1, Y: 1, Z: 1},
		InverseTpose: lin.NewM4I(),
		dirty:        true,
	}
	b.SetAsInitialPose()
	return b
}

// IsDirty reports whether this bone's derived transform needs recomputing.
func (b *Bone) IsDirty() bool { return b.dirty }

// SetDirty marks this bone as needing a derived-transform refresh. Only
// this bone's flag is set; descendants are not marked.
func (b *Bone) SetDirty() { b.dirty = true }

// SetOrientation replaces the local rotation. A non-finite input is logged
// and replaced with identity rather than propagated.
func (b *Bone) SetOrientation(q *lin.Q) {
	if isNaNQ(q) {
		slog.Warn("ik: bone orientation set to NaN, using identity", "bone", b.Name)
		b.Rotation.Set(lin.QI)
	} else {
		b.Rotation.Set(q).Unit()
	}
	b.dirty = true
}

// SetPosition replaces the local position. A non-finite input is logged and
// replaced with zero.
func (b *Bone) SetPosition(p *lin.V3) {
	if isNaNV3(p) {
		slog.Warn("ik: bone position set to NaN, using zero", "bone", b.Name)
		b.Position.SetS(0, 0, 0)
	} else {
		b.Position.Set(p)
	}
	b.dirty = true
}

// SetScale replaces the local scale. A non-finite input is logged and
// replaced with one.
func (b *Bone) SetScale(s *lin.V3) {
	if isNaNV3(s) {
		slog.Warn("ik: bone scale set to NaN, using one", "bone", b.Name)
		b.Scale.SetS(1, 1, 1)
	} else {
		b.Scale.Set(s)
	}
	b.dirty = true
}

// Translate moves the bone's local position by d expressed in the given
// frame. parent is nil for the root bone.
func (b *Bone) Translate(parent *Bone, d *lin.V3, frame Frame) {
	switch frame {
	case Local:
		delta := lin.NewV3().MultvQ(d, b.Rotation)
		b.Position.Add(b.Position, delta)
	case Object:
		if parent != nil {
			invRot := lin.NewQ().Inv(parent.DerivedRotation)
			delta := lin.NewV3().MultvQ(d, invRot)
			sx, sy, sz := safeScale(parent.DerivedScale.X), safeScale(parent.DerivedScale.Y), safeScale(parent.DerivedScale.Z)
			delta.SetS(delta.X/sx, delta.Y/sy, delta.Z/sz)
			b.Position.Add(b.Position, delta)
		} else {
			b.Position.Add(b.Position, d)
		}
	case Arena:
		b.Position.Add(b.Position, d)
	}
	b.dirty = true
}

// Rotate composes q (normalized first) into the bone's local rotation,
// expressed in the given frame. parent is nil for the root bone.
func (b *Bone) Rotate(parent *Bone, q *lin.Q, frame Frame) {
	n := lin.NewQ().Set(q).Unit()
	switch frame {
	case Local:
		b.Rotation.Mult(b.Rotation, n)
	case Object:
		// rotate about world axes expressed in local coordinates:
		// rotation = rotation · inverse(derived_rotation) · q · derived_rotation
		inv := lin.NewQ().Inv(b.DerivedRotation)
		t := lin.NewQ().Mult(inv, n)
		t.Mult(t, b.DerivedRotation)
		b.Rotation.Mult(b.Rotation, t)
	case Arena:
		b.Rotation.Mult(n, b.Rotation)
	}
	b.Rotation.Unit()
	_ = parent // frame semantics above do not need the parent directly; it is already folded into DerivedRotation.
	b.dirty = true
}

// UpdateDerivedTransform recomputes the cached world-relative transform
// from the current local transform and parent's derived transform. parent
// is nil for the root bone, in which case the derived transform equals the
// local transform.
func (b *Bone) UpdateDerivedTransform(parent *Bone) {
	if parent == nil {
		b.DerivedRotation.Set(b.Rotation)
		b.DerivedPosition.Set(b.Position)
		b.DerivedScale.Set(b.Scale)
		return
	}
	b.DerivedRotation.Mult(parent.DerivedRotation, b.Rotation).Unit()
	b.DerivedScale.Mult(parent.DerivedScale, b.Scale)
	scaled := lin.NewV3().Mult(parent.DerivedScale, b.Position)
	rotated := lin.NewV3().MultvQ(scaled, parent.DerivedRotation)
	b.DerivedPosition.Add(parent.DerivedPosition, rotated)
}

// Update refreshes the derived transform and clears the dirty flag.
func (b *Bone) Update(parent *Bone) {
	b.UpdateDerivedTransform(parent)
	b.dirty = false
}

// SetAsInitialPose snapshots the current local transform as the pose
// ResetToInitialPose returns to.
func (b *Bone) SetAsInitialPose() {
	b.initialRotation = lin.NewQ().Set(b.Rotation)
	b.initialPosition = lin.NewV3().Set(b.Position)
	b.initialScale = lin.NewV3().Set(b.Scale)
}

// ResetToInitialPose restores the local transform captured by
// SetAsInitialPose.
func (b *Bone) ResetToInitialPose() {
	if b.initialRotation == nil {
		return
	}
	b.Rotation.Set(b.initialRotation)
	b.Position.Set(b.initialPosition)
	b.Scale.Set(b.initialScale)
	b.dirty = true
}

func safeScale(s float64) float64 {
	if s == 0 {
		return 1
	}
	return s
}

func isNaNQ(q *lin.Q) bool {
	return math.IsNaN(q.X) || math.IsNaN(q.Y) || math.IsNaN(q.Z) || math.IsNaN(q.W)
}

func isNaNV3(v *lin.V3) bool {
	return math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsNaN(v.Z)
}
