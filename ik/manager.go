// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package ik

// manager.go : animation_ik/ik_system.cpp, animation_ik/ik_system.h
//
// Manager bundles the IK-manager's global state (config cache, the solver's
// own persistent skeleton, the live effector and stable-rotation tables,
// root displacement) into a single owned value passed explicitly through
// the animation loop, rather than process-wide singletons (spec §9).

import (
	"log/slog"

	"github.com/galvanizedlogic/ssik/math/lin"
)

// Manager resolves per-frame end-effector targets and drives a Solver over
// a persistent internal Skeleton.
type Manager struct {
	scene  Scene
	solver Solver

	skeleton *Skeleton

	configCache map[string]*Config // keyed by config path; nil value means load failed.

	rootDisplacement float64
	effectors        map[string]*lin.V3
	stableRotations  map[string]*lin.Q
}

// NewManager creates a Manager with an empty internal skeleton. scene may
// be nil if every resolve call uses TestMode.
func NewManager(scene Scene, solver Solver) *Manager {
	return &Manager{
		scene:       scene,
		solver:      solver,
		skeleton:    NewSkeleton(),
		configCache: map[string]*Config{},
	}
}

// TryGetConfig returns the cached Config for path, loading it with load if
// it is not already cached. A nil Config (load failure) is cached too, so a
// broken path is not retried every frame; the caller must treat a nil
// result as "skip this resolve".
func (m *Manager) TryGetConfig(path string, load func(string) (*Config, error)) *Config {
	if cfg, ok := m.configCache[path]; ok {
		return cfg
	}
	cfg, err := load(path)
	if err != nil {
		slog.Error("ik: config load failed", "path", path, "err", err)
		cfg = nil
	}
	m.configCache[path] = cfg
	return cfg
}

// Resolve runs one frame of the IK manager's procedure (spec §4.5) against
// the animation pipeline's skeleton, using the tuning in config. Effector
// targets and stable-bone rotations are resolved off anim itself, the
// animation pipeline's always-fresh pose for this frame, before anything
// is copied into the solver's own persistent skeleton.
func (m *Manager) Resolve(anim *ForeignSkeleton, config *Config) {
	m.rootDisplacement = 0
	m.effectors = map[string]*lin.V3{}

	for name, tuning := range config.Effectors {
		m.resolveEffector(anim, name, tuning, config)
	}

	m.stableRotations = map[string]*lin.Q{}
	for _, name := range config.Stable {
		if fb := anim.BoneByName(name); fb != nil {
			m.stableRotations[name] = lin.NewQ().SetS(fb.DerivedRotation[0], fb.DerivedRotation[1], fb.DerivedRotation[2], fb.DerivedRotation[3])
		} else {
			slog.Warn("ik: unknown stable bone, skipping", "bone", name)
		}
	}

	m.skeleton.CopyFrom(anim)
	m.solver.Solve(config, m.skeleton, m.effectors, m.rootDisplacement)
	m.reapplyStableRotations()
	m.skeleton.CopyTo(anim)
}

// resolveEffector sets the live target m.effectors[name], either as a fixed
// offset from the bone's current derived position (test mode) or by
// ray-casting into the physics scene to find ground contact. The bone's
// position is read off anim, this frame's animation pose, never off the
// solver's own skeleton.
func (m *Manager) resolveEffector(anim *ForeignSkeleton, name string, tuning EffectorTuning, config *Config) {
	fb := anim.BoneByName(name)
	if fb == nil {
		slog.Warn("ik: unknown bone, skipping", "bone", name)
		return
	}
	pos := lin.NewV3S(fb.DerivedPosition[0], fb.DerivedPosition[1], fb.DerivedPosition[2])

	if config.TestMode {
		offset := lin.NewV3S(tuning.Offset[0], tuning.Offset[1], tuning.Offset[2])
		m.effectors[name] = lin.NewV3().Add(pos, offset)
		return
	}

	maxStepUp := tuning.MaxStepUp
	if maxStepUp <= 0 {
		maxStepUp = 0.5
	}
	origin := lin.NewV3().Add(pos, lin.NewV3S(0, 0, maxStepUp))
	down := lin.NewV3S(0, 0, -1)

	hits := m.scene.Raycast(origin, down, 2*maxStepUp)
	if len(hits) == 0 {
		slog.Warn("ik: no ground contact for effector, using bone position", "bone", name)
		m.effectors[name] = pos
		return
	}
	best := hits[0]
	for _, h := range hits[1:] {
		if h.Position.Z > best.Position.Z {
			best = h
		}
	}
	m.effectors[name] = lin.NewV3().Add(best.Position, lin.NewV3S(0, 0, tuning.FootHeight))
	if best.Position.Z < m.rootDisplacement {
		m.rootDisplacement = best.Position.Z
	}
}

// reapplyStableRotations restores each stable bone's pre-solve world
// rotation (spec §4.5 step 6): its local rotation is set so that composing
// with the parent's (post-solve) derived rotation reproduces the snapshot,
// and the derived rotation is force-refreshed to the snapshot directly so
// any child consulting it this frame sees the stable value immediately.
func (m *Manager) reapplyStableRotations() {
	for name, snap := range m.stableRotations {
		bone := m.skeleton.BoneByName(name)
		if bone == nil {
			continue
		}
		if parent := m.skeleton.ParentOf(bone); parent != nil {
			inv := lin.NewQ().Inv(parent.DerivedRotation)
			bone.Rotation.Mult(inv, snap).Unit()
		} else {
			bone.Rotation.Set(snap)
		}
		bone.DerivedRotation.Set(snap)
	}
}
