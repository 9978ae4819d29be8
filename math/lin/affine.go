// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package lin

// affine.go : core/math/affine-transformation.cpp
//
// Affine generalizes transform.go's T (rotation+translation only) with a
// scale component and a lazily-synchronized matrix side, matching the
// dual (rotation, position, scale) / 4x4-matrix representation kept by
// the Piccolo affine transformation type.

// Outdated marks which side of an Affine is stale. The other side is
// authoritative until a mutator on the stale side is called.
type Outdated int

const (
	Synced      Outdated = iota // both sides agree.
	MatrixStale                 // config (rot/pos/scl) is authoritative.
	ConfigStale                 // matrix is authoritative.
)

// Affine holds a rotation/position/scale triple and a 4x4 matrix, only one
// side of which is guaranteed current. Reading the stale side reconstructs
// it and clears the staleness; reading the authoritative side never
// transitions state. Mutating either side makes the other side stale.
type Affine struct {
	rot *Q
	pos *V3
	scl *V3
	mat *M4

	state Outdated
}

// NewAffine creates an identity affine transform with both sides in sync.
func NewAffine() *Affine {
	return &Affine{rot: NewQI(), pos: NewV3(), scl: &V3{X: 1, Y: 1, Z: 1}, mat: NewM4I()}
}

// Config returns the current rotation, position and scale, reconstructing
// them from the matrix first if the matrix side is currently authoritative.
// The returned pointers must not be retained across a following mutator
// call: use MutableConfig to mutate.
func (a *Affine) Config() (rot *Q, pos *V3, scl *V3) {
	if a.state == ConfigStale {
		a.syncConfig()
		a.state = Synced
	}
	return a.rot, a.pos, a.scl
}

// Matrix returns the current 4x4 matrix, reconstructing it from
// rotation/position/scale first if the config side is currently
// authoritative.
func (a *Affine) Matrix() *M4 {
	if a.state == MatrixStale {
		a.syncMatrix()
		a.state = Synced
	}
	return a.mat
}

// MutableConfig returns the rotation/position/scale for in-place mutation.
// Callers are expected to change at least one of the three and leave the
// matrix side stale as a result.
func (a *Affine) MutableConfig() (rot *Q, pos *V3, scl *V3) {
	if a.state == ConfigStale {
		a.syncConfig()
	}
	a.state = MatrixStale
	return a.rot, a.pos, a.scl
}

// MutableMatrix returns the 4x4 matrix for in-place mutation, leaving the
// config side stale as a result.
func (a *Affine) MutableMatrix() *M4 {
	if a.state == MatrixStale {
		a.syncMatrix()
	}
	a.state = ConfigStale
	return a.mat
}

// syncMatrix rebuilds the matrix from rotation/position/scale:
//
//	matrix = Mat4(quat_to_mat(rotation)·diag(scale), position)
func (a *Affine) syncMatrix() {
	r := NewM3().SetQ(a.rot)
	r.ScaleSM(a.scl.X, a.scl.Y, a.scl.Z)
	a.mat.Xx, a.mat.Xy, a.mat.Xz, a.mat.Xw = r.Xx, r.Xy, r.Xz, 0
	a.mat.Yx, a.mat.Yy, a.mat.Yz, a.mat.Yw = r.Yx, r.Yy, r.Yz, 0
	a.mat.Zx, a.mat.Zy, a.mat.Zz, a.mat.Zw = r.Zx, r.Zy, r.Zz, 0
	a.mat.Wx, a.mat.Wy, a.mat.Wz, a.mat.Ww = a.pos.X, a.pos.Y, a.pos.Z, 1
}

// syncConfig decomposes the matrix into position, per-axis scale and
// rotation. If the extracted basis is left-handed, the basis and scale are
// both negated first so that the recovered rotation stays right-handed and
// the handedness flip shows up as a signed scale instead.
func (a *Affine) syncConfig() {
	m := a.mat
	a.pos.SetS(m.Wx, m.Wy, m.Wz)

	sx := NewV3S(m.Xx, m.Xy, m.Xz).Len()
	sy := NewV3S(m.Yx, m.Yy, m.Yz).Len()
	sz := NewV3S(m.Zx, m.Zy, m.Zz).Len()

	basis := NewM3().SetS(
		safeDiv(m.Xx, sx), safeDiv(m.Xy, sx), safeDiv(m.Xz, sx),
		safeDiv(m.Yx, sy), safeDiv(m.Yy, sy), safeDiv(m.Yz, sy),
		safeDiv(m.Zx, sz), safeDiv(m.Zy, sz), safeDiv(m.Zz, sz),
	)

	nx, ny, nz := NewV3S(basis.Xx, basis.Xy, basis.Xz), NewV3S(basis.Yx, basis.Yy, basis.Yz), NewV3S(basis.Zx, basis.Zy, basis.Zz)
	if NewV3().Cross(nx, ny).Dot(nz) < 0 {
		sx, sy, sz = -sx, -sy, -sz
		basis.Xx, basis.Xy, basis.Xz = -basis.Xx, -basis.Xy, -basis.Xz
		basis.Yx, basis.Yy, basis.Yz = -basis.Yx, -basis.Yy, -basis.Yz
		basis.Zx, basis.Zy, basis.Zz = -basis.Zx, -basis.Zy, -basis.Zz
	}

	a.scl.SetS(sx, sy, sz)
	a.rot.SetMQuat(basis)
}

func safeDiv(v, s float64) float64 {
	if s == 0 {
		return 0
	}
	return v / s
}
