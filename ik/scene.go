// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package ik

import "github.com/galvanizedlogic/ssik/math/lin"

// Hit is one contact point reported by a Scene query.
type Hit struct {
	Position *lin.V3
	Normal   *lin.V3
}

// Shape is an opaque collision primitive understood by a Scene
// implementation (see physics.Shape); the ik package never inspects it.
type Shape interface{}

// Scene is the ground-probing oracle consumed by the IK manager: a
// read-only physics world queried by ray and sweep, and for overlap tests.
// An implementation is provided in package physics.
type Scene interface {
	Raycast(origin, direction *lin.V3, distance float64) []Hit
	Sweep(shape Shape, pose *lin.Affine, direction *lin.V3, distance float64) []Hit
	IsOverlap(shape Shape, pose *lin.Affine) bool
}
