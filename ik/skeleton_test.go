// Copyright © 2024 Galvanized Logic Inc.

package ik

import (
	"testing"

	"github.com/galvanizedlogic/ssik/math/lin"
)

func flatForeign() *ForeignSkeleton {
	return &ForeignSkeleton{Bones: []ForeignBone{
		{ID: 0, ParentID: 0, Name: "root", Rotation: [4]float64{0, 0, 0, 1}, Scale: [3]float64{1, 1, 1}},
		{ID: 1, ParentID: 0, Name: "mid", Rotation: [4]float64{0, 0, 0, 1}, Position: [3]float64{0, 1, 0}, Scale: [3]float64{1, 1, 1}},
		{ID: 2, ParentID: 1, Name: "end", Rotation: [4]float64{0, 0, 0, 1}, Position: [3]float64{0, 1, 0}, Scale: [3]float64{1, 1, 1}},
	}}
}

func TestSkeletonCopyFromReallocatesAndFlags(t *testing.T) {
	s := NewSkeleton()
	s.CopyFrom(flatForeign())

	if s.BoneCount() != 3 {
		t.Fatalf("bone count = %d, want 3", s.BoneCount())
	}
	if !s.IsFlat {
		t.Fatalf("expected flat skeleton when bone id equals index")
	}
	if s.BoneByID(2).Name != "end" {
		t.Errorf("BoneByID(2).Name = %q, want end", s.BoneByID(2).Name)
	}
	if s.BoneByName("mid") == nil {
		t.Errorf("BoneByName(mid) = nil")
	}
}

func TestSkeletonCopyFromInPlaceReusesBones(t *testing.T) {
	s := NewSkeleton()
	s.CopyFrom(flatForeign())
	first := s.Bones[1]

	again := flatForeign()
	again.Bones[1].Position = [3]float64{0, 2, 0}
	s.CopyFrom(again)

	if s.Bones[1] != first {
		t.Fatalf("expected in-place CopyFrom to reuse the existing *Bone")
	}
	if !s.Bones[1].Position.Aeq(lin.NewV3S(0, 2, 0)) {
		t.Errorf("position = %s, want (0 2 0)", s.Bones[1].Position.Dump())
	}
}

func TestSkeletonUpdateOrdersParentBeforeChild(t *testing.T) {
	s := NewSkeleton()
	s.CopyFrom(flatForeign())
	s.Update()

	end := s.BoneByName("end")
	want := lin.NewV3S(0, 2, 0)
	if !end.DerivedPosition.Aeq(want) {
		t.Errorf("end derived position = %s, want %s", end.DerivedPosition.Dump(), want.Dump())
	}
}

func TestSkeletonCopyToRoundTrips(t *testing.T) {
	s := NewSkeleton()
	s.CopyFrom(flatForeign())
	s.BoneByName("end").Position.SetS(0, 1, 5)

	var out ForeignSkeleton
	s.CopyTo(&out)

	if out.Bones[2].Position != ([3]float64{0, 1, 5}) {
		t.Errorf("out position = %v, want (0 1 5)", out.Bones[2].Position)
	}
	// DerivedPosition should reflect a full Update, not the stale local value.
	if out.Bones[2].DerivedPosition != ([3]float64{0, 2, 5}) {
		t.Errorf("out derived position = %v, want (0 2 5)", out.Bones[2].DerivedPosition)
	}
}

func TestSkeletonParentOfRootIsNil(t *testing.T) {
	s := NewSkeleton()
	s.CopyFrom(flatForeign())
	root := s.BoneByName("root")
	if s.ParentOf(root) != nil {
		t.Errorf("ParentOf(root) = non-nil, want nil")
	}
}
