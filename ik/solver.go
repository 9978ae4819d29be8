// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package ik

import "github.com/galvanizedlogic/ssik/math/lin"

// Solver is the contract shared by the two strategies named in the
// overview: an analytic two-bone reach and an iterative XPBD pass.
// targets is the end-effector target table the Manager populated this
// frame (bone name -> object-space position); rootDisplacement is the
// accumulated ground-offset computed during target resolution.
type Solver interface {
	Solve(config *Config, skeleton *Skeleton, targets map[string]*lin.V3, rootDisplacement float64)
}
