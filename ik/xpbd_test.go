// Copyright © 2024 Galvanized Logic Inc.

package ik

import (
	"testing"

	"github.com/galvanizedlogic/ssik/math/lin"
)

func TestXPBDPinsEffectorToTarget(t *testing.T) {
	s := threeBoneChain()
	cfg := NewConfig(MomentSteps(8), IterTimes(12), Tau(0.1), Stiffness(1))
	targets := map[string]*lin.V3{"end": lin.NewV3S(0.5, 1.5, 0)}

	XPBD{}.Solve(cfg, s, targets, 0)
	s.Update()

	end := s.BoneByName("end")
	dist := lin.NewV3().Sub(end.DerivedPosition, targets["end"]).Len()
	if dist > 0.05 {
		t.Errorf("end derived position = %s, want within 0.05 of %s (got distance %v)", end.DerivedPosition.Dump(), targets["end"].Dump(), dist)
	}
}

func TestXPBDPreservesBoneLengths(t *testing.T) {
	s := threeBoneChain()
	cfg := NewConfig(MomentSteps(8), IterTimes(12), Tau(0.1), Stiffness(1))
	targets := map[string]*lin.V3{"end": lin.NewV3S(0.6, 1.2, 0.1)}

	XPBD{}.Solve(cfg, s, targets, 0)
	s.Update()

	root, mid, end := s.BoneByName("root"), s.BoneByName("mid"), s.BoneByName("end")
	rootMid := lin.NewV3().Sub(mid.DerivedPosition, root.DerivedPosition).Len()
	midEnd := lin.NewV3().Sub(end.DerivedPosition, mid.DerivedPosition).Len()

	if !lin.Aeq(rootMid, 1) {
		t.Errorf("root-mid length = %v, want 1", rootMid)
	}
	if !lin.Aeq(midEnd, 1) {
		t.Errorf("mid-end length = %v, want 1", midEnd)
	}
}

func TestXPBDEmptySkeletonNoPanic(t *testing.T) {
	s := NewSkeleton()
	XPBD{}.Solve(NewConfig(), s, map[string]*lin.V3{}, 0)
}
