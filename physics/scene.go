// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

// scene.go : caster.go (castRayPlane, castRaySphere), adapted to query
// static planes and spheres directly through an *lin.Affine pose instead
// of through a cgo-backed Body, so it has no dependency on body.go or
// collision.go. It implements ik.Scene (see ik/scene.go) so the IK
// manager can ground-probe end-effectors against a physics world.

import (
	"log/slog"
	"math"

	"github.com/galvanizedlogic/ssik/ik"
	"github.com/galvanizedlogic/ssik/math/lin"
)

// staticPlane is a one-sided infinite plane, normal defined in local space
// and rotated into place by its pose.
type staticPlane struct {
	pose   *lin.Affine
	normal *lin.V3
}

// staticSphere is a sphere centered at its pose's position.
type staticSphere struct {
	pose   *lin.Affine
	radius float64
}

// GroundScene is a minimal static Scene: a set of planes and spheres an
// IK manager can raycast or sweep against. It does not simulate motion or
// forces; it exists purely to answer ground-contact queries.
type GroundScene struct {
	planes  []*staticPlane
	spheres []*staticSphere
}

var _ ik.Scene = (*GroundScene)(nil)

// NewGroundScene creates an empty GroundScene.
func NewGroundScene() *GroundScene {
	return &GroundScene{}
}

// AddPlane registers a static plane at pose with local-space normal n.
// n must point the way the rays that should hit the plane travel, per
// castRayPlane's convention (see rayPlane): a ray whose direction has a
// positive dot product with n is the one that can register a hit.
func (s *GroundScene) AddPlane(pose *lin.Affine, n *lin.V3) {
	s.planes = append(s.planes, &staticPlane{pose: pose, normal: lin.NewV3().Set(n).Unit()})
}

// AddSphere registers a static sphere at pose with the given radius.
func (s *GroundScene) AddSphere(pose *lin.Affine, radius float64) {
	s.spheres = append(s.spheres, &staticSphere{pose: pose, radius: math.Abs(radius)})
}

// Raycast implements ik.Scene: it returns every plane and sphere contact
// along the ray within distance.
func (s *GroundScene) Raycast(origin, direction *lin.V3, distance float64) []ik.Hit {
	dir := lin.NewV3().Set(direction).Unit()
	hits := make([]ik.Hit, 0, len(s.planes)+len(s.spheres))
	for _, p := range s.planes {
		if hit, pt, nrm, d := rayPlane(origin, dir, p, 0); hit && d <= distance {
			hits = append(hits, ik.Hit{Position: pt, Normal: nrm})
		}
	}
	for _, sp := range s.spheres {
		if hit, pt, nrm, d := raySphere(origin, dir, sp, 0); hit && d <= distance {
			hits = append(hits, ik.Hit{Position: pt, Normal: nrm})
		}
	}
	return hits
}

// Sweep implements ik.Scene by conservatively inflating every static
// primitive by shape's bounding radius and raycasting pose's position
// along direction; this is the standard sphere-swept-volume
// approximation and is exact when shape is itself a sphere.
func (s *GroundScene) Sweep(shape ik.Shape, pose *lin.Affine, direction *lin.V3, distance float64) []ik.Hit {
	r := boundingRadius(shape)
	_, origin, _ := pose.Config()
	dir := lin.NewV3().Set(direction).Unit()

	hits := make([]ik.Hit, 0, len(s.planes)+len(s.spheres))
	for _, p := range s.planes {
		if hit, pt, nrm, d := rayPlane(origin, dir, p, r); hit && d <= distance {
			hits = append(hits, ik.Hit{Position: pt, Normal: nrm})
		}
	}
	for _, sp := range s.spheres {
		if hit, pt, nrm, d := raySphere(origin, dir, sp, r); hit && d <= distance {
			hits = append(hits, ik.Hit{Position: pt, Normal: nrm})
		}
	}
	return hits
}

// IsOverlap implements ik.Scene: true if shape at pose currently
// penetrates any registered plane or sphere.
func (s *GroundScene) IsOverlap(shape ik.Shape, pose *lin.Affine) bool {
	r := boundingRadius(shape)
	_, pos, _ := pose.Config()

	for _, p := range s.planes {
		prot, ppos, _ := p.pose.Config()
		nrm := lin.NewV3().MultvQ(p.normal, prot)
		diff := lin.NewV3().Sub(pos, ppos)
		if diff.Dot(nrm) <= r {
			return true
		}
	}
	for _, sp := range s.spheres {
		_, spos, _ := sp.pose.Config()
		if lin.NewV3().Sub(pos, spos).Len() <= r+sp.radius {
			return true
		}
	}
	return false
}

// boundingRadius returns an approximate bounding radius for shape, used to
// inflate sweeps and overlap tests. Unrecognized shapes log a warning and
// are treated as a point.
func boundingRadius(shape ik.Shape) float64 {
	switch v := shape.(type) {
	case Shape:
		switch v.Type() {
		case SphereShape:
			var ab Abox
			v.Aabb(lin.NewT(), &ab, 0)
			return (ab.Lx - ab.Sx) / 2
		case BoxShape:
			var ab Abox
			v.Aabb(lin.NewT(), &ab, 0)
			dx, dy, dz := (ab.Lx-ab.Sx)/2, (ab.Ly-ab.Sy)/2, (ab.Lz-ab.Sz)/2
			return math.Sqrt(dx*dx + dy*dy + dz*dz)
		}
	}
	slog.Warn("physics: scene query against an unrecognized shape, treating as a point")
	return 0
}

// rayPlane is castRayPlane (caster.go) reworked to take a ray described by
// (origin, unit direction) and a staticPlane instead of two cgo Bodies.
// inflate pushes the plane out along its normal by a swept shape's
// bounding radius; pass 0 for an exact (non-swept) raycast.
func rayPlane(origin, dir *lin.V3, p *staticPlane, inflate float64) (hit bool, point, normal *lin.V3, dist float64) {
	prot, ppos, _ := p.pose.Config()
	nrm := lin.NewV3().MultvQ(p.normal, prot)

	denom := dir.Dot(nrm)
	if lin.AeqZ(denom) || denom < 0 {
		return false, nil, nil, 0 // plane is behind the ray or the ray is parallel to it.
	}
	diff := lin.NewV3().Sub(ppos, origin)
	d := (diff.Dot(nrm) + inflate) / denom
	if d < 0 {
		return false, nil, nil, 0
	}
	point = lin.NewV3().Add(origin, lin.NewV3().Scale(dir, d))
	return true, point, nrm, d
}

// raySphere is castRaySphere (caster.go) reworked the same way. inflate
// grows the sphere's radius for a swept-shape test; pass 0 for an exact
// (non-swept) raycast.
func raySphere(origin, dir *lin.V3, sp *staticSphere, inflate float64) (hit bool, point, normal *lin.V3, dist float64) {
	_, center, _ := sp.pose.Config()
	sc := lin.NewV3().Sub(center, origin)
	d0 := dir.Dot(sc)
	if d0 < 0 {
		return false, nil, nil, 0
	}
	radius := sp.radius + inflate
	radius2 := radius * radius
	d1 := sc.Dot(sc) - d0*d0
	if d1 > radius2 {
		return false, nil, nil, 0
	}
	d := d0 - math.Sqrt(radius2-d1)
	point = lin.NewV3().Add(origin, lin.NewV3().Scale(dir, d))
	normal = lin.NewV3().Sub(point, center).Unit()
	return true, point, normal, d
}
