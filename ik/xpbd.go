// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package ik

// xpbd.go : physics/pbd_base_constraints.go (compliance/lambda formula),
//           animation_ik/ik_algorithm.h (XPBDIKSolver field defaults)
//
// XPBD is the iterative extended-position-based-dynamics solver: it moves
// every bone's position simultaneously under length constraints and
// one-shot directional forces, then recovers joint rotations from how each
// bone's children moved.

import (
	"sort"

	"github.com/galvanizedlogic/ssik/math/lin"
)

type lengthConstraint struct {
	i, j       int // indices into the working arrays, not bone ids.
	restLength float64
	k          float64
	lambda     float64
}

type directionForce struct {
	i     int
	force *lin.V3
}

// XPBD is the iterative Solver.
type XPBD struct{}

var _ Solver = XPBD{}

// Solve implements Solver per spec §4.7: build working sets sized by bone
// count, run MomentSteps outer iterations of predict/pin/project/re-pin/
// integrate, then recover each bone's rotation from how its children's
// positions moved relative to how its derived positions did.
func (XPBD) Solve(config *Config, skeleton *Skeleton, targets map[string]*lin.V3, rootDisplacement float64) {
	n := skeleton.BoneCount()
	if n == 0 {
		return
	}

	indexOf := make(map[int]int, n)
	for idx, b := range skeleton.Bones {
		indexOf[b.ID] = idx
	}

	position := make([]*lin.V3, n)
	lastPosition := make([]*lin.V3, n)
	velocity := make([]*lin.V3, n)
	invmass := make([]float64, n)
	for idx, b := range skeleton.Bones {
		lastPosition[idx] = lin.NewV3().Set(b.DerivedPosition)
		position[idx] = lin.NewV3()
		velocity[idx] = lin.NewV3()
		invmass[idx] = config.DefaultInvMass
	}
	markEffectorChains(skeleton, indexOf, targets, config, invmass)

	constraints := make([]*lengthConstraint, 0, n)
	for idx, b := range skeleton.Bones {
		if b.ParentID == b.ID {
			continue // root: no parent to constrain against.
		}
		parentIdx, ok := indexOf[b.ParentID]
		if !ok {
			continue
		}
		constraints = append(constraints, &lengthConstraint{
			i: idx, j: parentIdx,
			restLength: b.Position.Len(),
			k:          config.Stiffness,
		})
	}

	targetIdx := make(map[int]*lin.V3, len(targets))
	for name, p := range targets {
		if b := skeleton.BoneByName(name); b != nil {
			targetIdx[indexOf[b.ID]] = p
		}
	}

	forces := make([]*directionForce, 0, len(targets))
	for name, tuning := range config.Effectors {
		if tuning.Force == ([3]float64{}) {
			continue
		}
		if b := skeleton.BoneByName(name); b != nil {
			forces = append(forces, &directionForce{i: indexOf[b.ID], force: lin.NewV3S(tuning.Force[0], tuning.Force[1], tuning.Force[2])})
		}
	}
	for _, f := range forces {
		velocity[f.i].Add(velocity[f.i], lin.NewV3().Scale(f.force, invmass[f.i]*config.Tau))
	}

	for step := 0; step < config.MomentSteps; step++ {
		processMoment(config, position, lastPosition, velocity, invmass, constraints, targetIdx)
	}

	recoverRotations(skeleton, indexOf, position)
}

// processMoment runs one outer-loop iteration: predict, pin, reset lambda,
// project constraints IterTimes times, re-pin, then integrate. The order is
// fixed by spec §5: it is not safe to reorder these steps.
func processMoment(config *Config, position, lastPosition, velocity []*lin.V3, invmass []float64, constraints []*lengthConstraint, targets map[int]*lin.V3) {
	for i := range position {
		position[i].Add(lastPosition[i], velocity[i])
	}
	pinTargets(position, targets)

	for _, c := range constraints {
		c.lambda = 0
	}
	for iter := 0; iter < config.IterTimes; iter++ {
		for _, c := range constraints {
			projectConstraint(c, position, invmass, config.Tau)
		}
	}

	pinTargets(position, targets)

	for i := range position {
		velocity[i].Sub(position[i], lastPosition[i])
		lastPosition[i].Set(position[i])
	}
}

func pinTargets(position []*lin.V3, targets map[int]*lin.V3) {
	for idx, p := range targets {
		position[idx].Set(p)
	}
}

// projectConstraint applies one Gauss-Seidel XPBD update to a single
// length constraint (spec §4.7 step 4): compliance α̃ = k/τ², Δλ =
// (−C − α̃λ)/(w_i+w_j+α̃), correction = Δλ·normalize(dx).
func projectConstraint(c *lengthConstraint, position []*lin.V3, invmass []float64, tau float64) {
	dx := lin.NewV3().Sub(position[c.i], position[c.j])
	length := dx.Len()
	constraint := length - c.restLength

	alphaTilde := c.k / (tau * tau)
	wi, wj := invmass[c.i], invmass[c.j]
	denom := wi + wj + alphaTilde
	if denom == 0 {
		return
	}
	deltaLambda := (-constraint - alphaTilde*c.lambda) / denom
	c.lambda += deltaLambda

	dir := dx.Unit() // zero-length dx (coincident bones) yields a zero correction, not NaN.
	correction := dir.Scale(dir, deltaLambda)
	position[c.i].Add(position[c.i], lin.NewV3().Scale(correction, wi))
	position[c.j].Sub(position[c.j], lin.NewV3().Scale(correction, wj))
}

// markEffectorChains assigns EffectorInvMass to each end-effector bone this
// frame and its ancestors up to (but excluding) the root, so the chain the
// solver is dragging toward a target moves freely while the rest of the
// skeleton stays close to its predicted position. A per-effector InvMass
// override in config.Effectors takes precedence when nonzero.
func markEffectorChains(skeleton *Skeleton, indexOf map[int]int, targets map[string]*lin.V3, config *Config, invmass []float64) {
	for name := range targets {
		b := skeleton.BoneByName(name)
		if b == nil {
			continue
		}
		w := config.EffectorInvMass
		if tuning, ok := config.Effectors[name]; ok && tuning.InvMass > 0 {
			w = tuning.InvMass
		}
		for b != nil && b.ParentID != b.ID {
			invmass[indexOf[b.ID]] = w
			b = skeleton.ParentOf(b)
		}
	}
}

// recoverRotations implements reach_by_rotation (spec §4.7): for each
// non-leaf, non-root bone in ascending id order, rotate it so its children's
// mean derived position moves from where it was to where the constraint
// solve left it. Per spec §9's open question, both old_dir and new_dir use
// the solver's updated position[i] as the common subtrahend (not
// derived_position[i]), matching the intended rather than the shipped
// behavior.
func recoverRotations(skeleton *Skeleton, indexOf map[int]int, position []*lin.V3) {
	childrenOf := make(map[int][]int, skeleton.BoneCount())
	for _, b := range skeleton.Bones {
		if b.ParentID != b.ID {
			childrenOf[b.ParentID] = append(childrenOf[b.ParentID], b.ID)
		}
	}

	ordered := make([]*Bone, len(skeleton.Bones))
	copy(ordered, skeleton.Bones)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	for _, b := range ordered {
		children := childrenOf[b.ID]
		if len(children) == 0 || b.ParentID == b.ID {
			continue
		}
		idx := indexOf[b.ID]

		oldMean, newMean := lin.NewV3(), lin.NewV3()
		for _, childID := range children {
			child := skeleton.BoneByID(childID)
			oldMean.Add(oldMean, child.DerivedPosition)
			newMean.Add(newMean, position[indexOf[childID]])
		}
		n := float64(len(children))
		oldMean.Scale(oldMean, 1/n)
		newMean.Scale(newMean, 1/n)

		oldDir := lin.NewV3().Sub(oldMean, position[idx])
		newDir := lin.NewV3().Sub(newMean, position[idx])

		q := lin.NewQ().SetRotationTo(oldDir, newDir, lin.NewV3())
		parent := skeleton.ParentOf(b)
		b.Rotate(parent, q, Object)
		b.UpdateDerivedTransform(parent)
	}
}
