// Copyright © 2024 Galvanized Logic Inc.

package ik

import (
	"testing"

	"github.com/galvanizedlogic/ssik/math/lin"
)

func threeBoneChain() *Skeleton {
	s := NewSkeleton()
	s.CopyFrom(&ForeignSkeleton{Bones: []ForeignBone{
		{ID: 0, ParentID: 0, Name: "root", Rotation: [4]float64{0, 0, 0, 1}, Scale: [3]float64{1, 1, 1}},
		{ID: 1, ParentID: 0, Name: "mid", Rotation: [4]float64{0, 0, 0, 1}, Position: [3]float64{0, 1, 0}, Scale: [3]float64{1, 1, 1}},
		{ID: 2, ParentID: 1, Name: "end", Rotation: [4]float64{0, 0, 0, 1}, Position: [3]float64{0, 1, 0}, Scale: [3]float64{1, 1, 1}},
	}})
	s.Update()
	return s
}

func TestTwoBoneReachesReachableTarget(t *testing.T) {
	s := threeBoneChain()
	targets := map[string]*lin.V3{"end": lin.NewV3S(1, 1, 0)}

	TwoBone{}.Solve(NewConfig(), s, targets, 0)
	s.Update()

	end := s.BoneByName("end")
	want := lin.NewV3S(1, 1, 0)
	if !end.DerivedPosition.Aeq(want) {
		t.Errorf("end derived position = %s, want %s", end.DerivedPosition.Dump(), want.Dump())
	}
}

func TestTwoBoneStretchesToUnreachableTarget(t *testing.T) {
	s := threeBoneChain()
	// start-to-target distance (10) exceeds a+b (2): the chain should fully
	// extend toward the target rather than folding or erroring.
	targets := map[string]*lin.V3{"end": lin.NewV3S(0, 10, 0)}

	TwoBone{}.Solve(NewConfig(), s, targets, 0)
	s.Update()

	root := s.BoneByName("root")
	end := s.BoneByName("end")
	dist := lin.NewV3().Sub(end.DerivedPosition, root.DerivedPosition).Len()
	if !lin.Aeq(dist, 2) {
		t.Errorf("start-to-end distance = %v, want 2 (fully extended)", dist)
	}
}

func TestTwoBoneRootDisplacementAppliedOncePerSolve(t *testing.T) {
	// a single Solve call resolves every effector before applying the root
	// displacement once, rather than once per effector chain (the original
	// applies it inline per chain, which would compound within one frame
	// when a skeleton has more than one end effector).
	s := NewSkeleton()
	s.CopyFrom(&ForeignSkeleton{Bones: []ForeignBone{
		{ID: 0, ParentID: 0, Name: "root", Rotation: [4]float64{0, 0, 0, 1}, Scale: [3]float64{1, 1, 1}},
		{ID: 1, ParentID: 0, Name: "midL", Rotation: [4]float64{0, 0, 0, 1}, Position: [3]float64{0, 1, 0}, Scale: [3]float64{1, 1, 1}},
		{ID: 2, ParentID: 1, Name: "endL", Rotation: [4]float64{0, 0, 0, 1}, Position: [3]float64{0, 1, 0}, Scale: [3]float64{1, 1, 1}},
		{ID: 3, ParentID: 0, Name: "midR", Rotation: [4]float64{0, 0, 0, 1}, Position: [3]float64{0, 1, 0}, Scale: [3]float64{1, 1, 1}},
		{ID: 4, ParentID: 3, Name: "endR", Rotation: [4]float64{0, 0, 0, 1}, Position: [3]float64{0, 1, 0}, Scale: [3]float64{1, 1, 1}},
	}})
	s.Update()
	targets := map[string]*lin.V3{
		"endL": lin.NewV3S(1, 1, 0),
		"endR": lin.NewV3S(-1, 1, 0),
	}

	TwoBone{}.Solve(NewConfig(), s, targets, 0.5)

	want := lin.NewV3S(0, 0, 0.5)
	if !s.BoneByName("root").Position.Aeq(want) {
		t.Errorf("root position = %s, want %s (displacement applied exactly once)", s.BoneByName("root").Position.Dump(), want.Dump())
	}
}
