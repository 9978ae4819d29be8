// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package lin

// quat_robust.go : core/math/ops.cpp
//
// SetM (quaternion.go) picks a Shepperd-style branch but then forces every
// component positive, which loses the sign information the branch selection
// exists to recover and breaks down near rotations with a small trace. The
// methods here are a separate, branch-correct mat-to-quat plus the
// "rotate a onto b" and ZXY Euler conversions used by skeletal IK, where a
// bad quaternion extraction shows up as a visibly wrong joint.

import "math"

// SetMQuat updates quaternion q to be the rotation of matrix m using the
// four-branch largest-diagonal-term selection (trace, then the largest of
// Xx/Yy/Zz). Unlike SetM, the result is not forced non-negative: each branch
// already produces a consistent sign for all four components.
// The updated q is returned.
func (q *Q) SetMQuat(m *M3) *Q {
	tr := m.Xx + m.Yy + m.Zz + 1
	switch {
	case tr > 4e-4:
		s := math.Sqrt(tr)
		s2 := 0.5 / s
		q.W = s * 0.5
		q.X = (m.Zy - m.Yz) * s2
		q.Y = (m.Xz - m.Zx) * s2
		q.Z = (m.Yx - m.Xy) * s2
	case m.Xx > m.Yy && m.Xx > m.Zz:
		s := math.Sqrt(m.Xx - m.Yy - m.Zz + 1)
		s2 := 0.5 / s
		q.X = s * 0.5
		q.W = (m.Zy - m.Yz) * s2
		q.Y = (m.Xy + m.Yx) * s2
		q.Z = (m.Zx + m.Xz) * s2
	case m.Yy > m.Zz:
		s := math.Sqrt(m.Yy - m.Xx - m.Zz + 1)
		s2 := 0.5 / s
		q.Y = s * 0.5
		q.W = (m.Xz - m.Zx) * s2
		q.X = (m.Xy + m.Yx) * s2
		q.Z = (m.Yz + m.Zy) * s2
	default:
		s := math.Sqrt(m.Zz - m.Xx - m.Yy + 1)
		s2 := 0.5 / s
		q.Z = s * 0.5
		q.W = (m.Yx - m.Xy) * s2
		q.X = (m.Zx + m.Xz) * s2
		q.Y = (m.Yz + m.Zy) * s2
	}
	return q
}

// SetRotationTo updates quaternion q to be the rotation that takes unit(a)
// onto unit(b). If a and b already point the same way, q becomes identity.
// If they are anti-parallel, q becomes a Pi rotation about fallbackAxis, or,
// when fallbackAxis is the zero vector, about an axis orthogonal to a
// (cross with the X axis, falling back to the Y axis if that is too short).
// a, b and fallbackAxis are unchanged. The updated q is returned.
func (q *Q) SetRotationTo(a, b, fallbackAxis *V3) *Q {
	v0, v1 := NewV3().Set(a).Unit(), NewV3().Set(b).Unit()
	d := v0.Dot(v1)
	switch {
	case d >= 1:
		return q.SetS(0, 0, 0, 1)
	case d < 1e-6-1:
		axis := NewV3()
		if !fallbackAxis.AeqZ() {
			axis.Set(fallbackAxis)
		} else {
			axis.Cross(NewV3S(1, 0, 0), v0)
			if axis.LenSqr() < 0.0001*0.0001 {
				axis.Cross(NewV3S(0, 1, 0), v0)
			}
			axis.Unit()
		}
		return q.SetAa(axis.X, axis.Y, axis.Z, PI)
	default:
		s := math.Sqrt((1 + d) * 2)
		invs := 1 / s
		c := NewV3().Cross(v0, v1)
		q.X, q.Y, q.Z, q.W = c.X*invs, c.Y*invs, c.Z*invs, s*0.5
		return q.Unit()
	}
}

// SetQEuler updates vector v to be the ZXY Euler angles (X:pitch, Y:yaw,
// Z:roll, all radians) equivalent to quaternion q. Near the gimbal-lock
// boundary two candidate triples are computed and the one with the smaller
// sum of absolute values is kept, avoiding a jump in roll. q is unchanged.
// The updated v is returned.
func (v *V3) SetQEuler(q *Q) *V3 {
	m := NewM3().SetQ(q)
	cy := math.Hypot(m.Zz, m.Xz)
	if cy > Epsilon {
		e1x, e1y, e1z := math.Atan2(-m.Yz, cy), math.Atan2(m.Xz, m.Zz), math.Atan2(m.Yx, m.Yy)
		e2x, e2y, e2z := math.Atan2(-m.Yz, -cy), math.Atan2(-m.Xz, -m.Zz), math.Atan2(-m.Yx, -m.Yy)
		d1 := math.Abs(e1x) + math.Abs(e1y) + math.Abs(e1z)
		d2 := math.Abs(e2x) + math.Abs(e2y) + math.Abs(e2z)
		if d1 < d2 {
			return v.SetS(e1x, e1y, e1z)
		}
		return v.SetS(e2x, e2y, e2z)
	}
	return v.SetS(math.Atan2(-m.Yz, cy), 0, math.Atan2(-m.Xy, m.Xx))
}

// SetEuler updates quaternion q to be the rotation described by the ZXY
// Euler angles in vector e (X:pitch, Y:yaw, Z:roll, all radians): roll
// applied first, then pitch, then yaw, matching SetQEuler's convention.
// e is unchanged. The updated q is returned.
func (q *Q) SetEuler(e *V3) *Q {
	ti, tj, tk := e.Z*0.5, e.X*0.5, e.Y*0.5
	ci, cj, ck := math.Cos(ti), math.Cos(tj), math.Cos(tk)
	si, sj, sk := math.Sin(ti), math.Sin(tj), math.Sin(tk)
	cc, cs := ci*ck, ci*sk
	sc, ss := si*ck, si*sk
	q.W = cj*cc + sj*ss
	q.X = cj*ss + sj*cc
	q.Y = cj*cs - sj*sc
	q.Z = cj*sc - sj*cs
	return q
}
