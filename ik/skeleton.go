// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package ik

// skeleton.go : animation_ik/ss_skeleton.cpp, animation_ik/ss_skeleton.h

import "log/slog"

// ForeignBone is the per-bone transform snapshot exchanged with the
// animation pipeline's own skeleton representation. It is the flat wire
// shape: local rotation/position/scale plus cached derived values and the
// parent id, with no solver-internal state (dirty flags, initial pose).
type ForeignBone struct {
	ID       int
	ParentID int
	Name     string

	Rotation, DerivedRotation [4]float64 // x, y, z, w
	Position, DerivedPosition [3]float64
	Scale, DerivedScale       [3]float64
}

// ForeignSkeleton is the animation pipeline's flat bone array, the
// "foreign" representation that Skeleton.CopyFrom/CopyTo round-trip
// against.
type ForeignSkeleton struct {
	Bones []ForeignBone
}

// BoneByName looks up a bone by name in the foreign skeleton itself,
// letting callers read this frame's pose before it is copied into a
// Skeleton. Always O(n).
func (f *ForeignSkeleton) BoneByName(name string) *ForeignBone {
	for i := range f.Bones {
		if f.Bones[i].Name == name {
			return &f.Bones[i]
		}
	}
	return nil
}

// Skeleton is a flat, contiguous store of Bones. When IsFlat, a bone's id
// equals its index and id lookup is O(1); otherwise id lookup is a linear
// scan. Name lookup is always O(n).
type Skeleton struct {
	Bones  []*Bone
	IsFlat bool

	byID map[int]int // id -> index, maintained only while IsFlat.
}

// NewSkeleton creates an empty, flat skeleton.
func NewSkeleton() *Skeleton {
	return &Skeleton{IsFlat: true, byID: map[int]int{}}
}

// BoneCount returns the number of bones.
func (s *Skeleton) BoneCount() int { return len(s.Bones) }

// BoneByID looks up a bone by its stable id: O(1) when the skeleton is
// flat, O(n) otherwise.
func (s *Skeleton) BoneByID(id int) *Bone {
	if s.IsFlat {
		if idx, ok := s.byID[id]; ok {
			return s.Bones[idx]
		}
		return nil
	}
	for _, b := range s.Bones {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// BoneByName looks up a bone by name: always O(n).
func (s *Skeleton) BoneByName(name string) *Bone {
	for _, b := range s.Bones {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// ParentOf returns the parent of b, or nil if b is the root.
func (s *Skeleton) ParentOf(b *Bone) *Bone {
	if b.ParentID == b.ID {
		return nil
	}
	return s.BoneByID(b.ParentID)
}

// Update refreshes every bone's derived transform. Flat skeletons satisfy
// parent_id < id, so a single ascending pass updates parents before the
// children that consult them; non-flat skeletons fall back to resolving
// the parent by id on every bone, which is still correct as long as the
// same ordering invariant holds in the foreign data.
func (s *Skeleton) Update() {
	for _, b := range s.Bones {
		b.Update(s.ParentOf(b))
	}
}

// rebuildIndex repopulates the id->index lookup used when IsFlat.
func (s *Skeleton) rebuildIndex() {
	s.byID = make(map[int]int, len(s.Bones))
	for i, b := range s.Bones {
		s.byID[b.ID] = i
	}
}

// CopyFrom snapshots a foreign skeleton's transforms into this one. If the
// bone counts already match, only the transforms are copied in place and
// no parent relinking is needed. Otherwise the bone array is reallocated
// from the foreign bones (transforms and parent ids copied) and the id
// index rebuilt.
func (s *Skeleton) CopyFrom(foreign *ForeignSkeleton) {
	if len(s.Bones) == len(foreign.Bones) {
		for i, fb := range foreign.Bones {
			copyForeignInto(s.Bones[i], &fb)
		}
		return
	}

	s.Bones = make([]*Bone, len(foreign.Bones))
	s.IsFlat = true
	for i, fb := range foreign.Bones {
		b := NewBone(fb.ID, fb.ParentID, fb.Name)
		copyForeignInto(b, &fb)
		b.SetAsInitialPose()
		if b.ID != i {
			s.IsFlat = false
		}
		s.Bones[i] = b
	}
	s.rebuildIndex()
}

func copyForeignInto(b *Bone, fb *ForeignBone) {
	b.Rotation.SetS(fb.Rotation[0], fb.Rotation[1], fb.Rotation[2], fb.Rotation[3])
	b.Position.SetS(fb.Position[0], fb.Position[1], fb.Position[2])
	b.Scale.SetS(fb.Scale[0], fb.Scale[1], fb.Scale[2])
	b.DerivedRotation.SetS(fb.DerivedRotation[0], fb.DerivedRotation[1], fb.DerivedRotation[2], fb.DerivedRotation[3])
	b.DerivedPosition.SetS(fb.DerivedPosition[0], fb.DerivedPosition[1], fb.DerivedPosition[2])
	b.DerivedScale.SetS(fb.DerivedScale[0], fb.DerivedScale[1], fb.DerivedScale[2])
	b.SetDirty()
}

// CopyTo updates every bone's derived transform, then writes this
// skeleton's transforms and topology back into a foreign skeleton.
func (s *Skeleton) CopyTo(foreign *ForeignSkeleton) {
	s.Update()
	if len(foreign.Bones) != len(s.Bones) {
		foreign.Bones = make([]ForeignBone, len(s.Bones))
	}
	for i, b := range s.Bones {
		fb := &foreign.Bones[i]
		fb.ID, fb.ParentID, fb.Name = b.ID, b.ParentID, b.Name
		fb.Rotation = [4]float64{b.Rotation.X, b.Rotation.Y, b.Rotation.Z, b.Rotation.W}
		fb.Position = [3]float64{b.Position.X, b.Position.Y, b.Position.Z}
		fb.Scale = [3]float64{b.Scale.X, b.Scale.Y, b.Scale.Z}
		fb.DerivedRotation = [4]float64{b.DerivedRotation.X, b.DerivedRotation.Y, b.DerivedRotation.Z, b.DerivedRotation.W}
		fb.DerivedPosition = [3]float64{b.DerivedPosition.X, b.DerivedPosition.Y, b.DerivedPosition.Z}
		fb.DerivedScale = [3]float64{b.DerivedScale.X, b.DerivedScale.Y, b.DerivedScale.Z}
	}
}

// mustBone looks a bone up by name, logging and returning nil on a miss so
// callers can skip that effector rather than fail the frame.
func (s *Skeleton) mustBone(name string) *Bone {
	b := s.BoneByName(name)
	if b == nil {
		slog.Warn("ik: unknown bone, skipping", "bone", name)
	}
	return b
}
