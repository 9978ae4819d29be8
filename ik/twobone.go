// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package ik

// twobone.go : animation_ik/ik_algorithm.cpp (TwoBoneIKSolver::calculateIKResult)
//
// TwoBone is the closed-form law-of-cosines solver for a three-joint chain
// (start -> mid -> end), such as shoulder -> elbow -> hand.

import (
	"log/slog"
	"math"

	"github.com/galvanizedlogic/ssik/math/lin"
)

// TwoBone is the analytic two-bone Solver.
type TwoBone struct{}

var _ Solver = TwoBone{}

// Solve implements Solver. For each end-effector it walks up two parents to
// find the chain (end, mid, start), places mid on the triangle spanned by
// a=|mid-start|, b=|end-mid|, c=|target-start|, rotates start and then mid
// to reach it, and finally translates the bone named "root" by
// (0,0,rootDisplacement).
//
// The original unconditionally applies that root translation on every call,
// which accumulates across frames if the manager is driven once per frame.
// This is flagged in spec.md as an open question; DESIGN.md records the
// decision to reset the root's local position to its pre-solve value before
// applying the displacement, so repeated calls are idempotent rather than
// cumulative.
func (TwoBone) Solve(config *Config, skeleton *Skeleton, targets map[string]*lin.V3, rootDisplacement float64) {
	root := skeleton.BoneByName("root")
	var preSolveRootPos *lin.V3
	if root != nil {
		preSolveRootPos = lin.NewV3().Set(root.Position)
	}

	for name, target := range targets {
		solveChain(skeleton, name, target, rootDisplacement)
	}

	if root == nil {
		slog.Warn("ik: two-bone solver found no root bone to displace")
		return
	}
	// Reset to the pre-solve local position before applying the
	// displacement so repeated Solve calls (one per animation frame) do
	// not accumulate root.Translate's effect across frames.
	root.Position.Set(preSolveRootPos)
	root.Translate(skeleton.ParentOf(root), lin.NewV3S(0, 0, rootDisplacement), Arena)
	root.Update(skeleton.ParentOf(root))
}

func solveChain(skeleton *Skeleton, name string, rawTarget *lin.V3, rootDisplacement float64) {
	end := skeleton.mustBone(name)
	if end == nil {
		return
	}
	mid := skeleton.ParentOf(end)
	if mid == nil {
		slog.Warn("ik: two-bone solver missing mid joint, skipping effector", "bone", name)
		return
	}
	start := skeleton.ParentOf(mid)
	if start == nil {
		slog.Warn("ik: two-bone solver missing start joint, skipping effector", "bone", name)
		return
	}

	target := lin.NewV3().Set(rawTarget)
	target.Z -= rootDisplacement

	endPos, midPos, startPos := end.DerivedPosition, mid.DerivedPosition, start.DerivedPosition

	ikVector := lin.NewV3().Sub(midPos, startPos)
	originTarget := lin.NewV3().Sub(target, startPos)
	pole := lin.NewV3().Cross(originTarget, ikVector)
	projDir := lin.NewV3().Cross(pole, originTarget).Unit()
	radDir := lin.NewV3().Set(originTarget).Unit()

	a := lin.NewV3().Sub(midPos, startPos).Len()
	b := lin.NewV3().Sub(endPos, midPos).Len()
	c := originTarget.Len()

	midTarget := lin.NewV3()
	if a+b <= c {
		midTarget.Add(startPos, lin.NewV3().Scale(radDir, a))
		target.Add(startPos, lin.NewV3().Scale(radDir, a+b))
	} else {
		cosA := (a*a + c*c - b*b) / (2 * a * c)
		sinA := sqrtClamped(1 - cosA*cosA)
		proj := lin.NewV3().Scale(projDir, a*sinA)
		rad := lin.NewV3().Scale(radDir, a*cosA)
		midTarget.Add(startPos, proj)
		midTarget.Add(midTarget, rad)
	}

	startRotation := lin.NewQ().SetRotationTo(lin.NewV3().Sub(midPos, startPos), lin.NewV3().Sub(midTarget, startPos), lin.NewV3())
	start.Rotate(skeleton.ParentOf(start), startRotation, Object)
	start.Update(skeleton.ParentOf(start))
	mid.Update(start)
	end.Update(mid)

	midRotation := lin.NewQ().SetRotationTo(
		lin.NewV3().Sub(end.DerivedPosition, mid.DerivedPosition),
		lin.NewV3().Sub(target, midTarget),
		lin.NewV3(),
	)
	mid.Rotate(start, midRotation, Object)
}

func sqrtClamped(v float64) float64 {
	if v < 0 {
		return 0
	}
	return math.Sqrt(v)
}
