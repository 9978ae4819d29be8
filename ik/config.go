// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package ik

// config.go reduces the solver tuning surface using functional options.
// See: http://dave.cheney.net/2014/10/17/functional-options-for-friendly-apis

// EffectorTuning describes one end-effector's test-mode target offset and
// ground-probe parameters, keyed by bone name in Config.Effectors.
type EffectorTuning struct {
	Offset     [3]float64 // test-mode: added to the bone's current derived position.
	MaxStepUp  float64    // raycast: how far up/down to search for ground contact.
	FootHeight float64    // raycast: vertical offset from the ground hit to the target.
	InvMass    float64    // XPBD: 0 disables the per-bone override (use the default).
	Force      [3]float64 // XPBD: one-shot directional force applied to this bone.
}

// Config is the opaque tuning record a solver reads; it corresponds to the
// IKConfig asset record (spec §3's IKConfig, a bone-to-effector mapping
// plus tuning) and carries the defaults named in spec §3.
type Config struct {
	TestMode bool // true: use Effectors[name].Offset; false: raycast for ground contact.

	MomentSteps int     // outer XPBD iterations, default 5-10.
	IterTimes   int     // inner constraint-projection iterations, default 10.
	Tau         float64 // XPBD pseudo-time, default 0.1.
	Stiffness   float64 // default per-constraint k, default 1.0.

	DefaultInvMass  float64 // invmass for bones not named in Effectors, default 0.001.
	EffectorInvMass float64 // invmass for end-effector chain bones, default 1.0.

	Effectors map[string]EffectorTuning // bone name -> tuning.
	Stable    []string                  // bone names whose world rotation is preserved.
}

// defaultConfig returns the spec-mandated defaults (spec §3: moment_steps
// 5-10, iter_times 10, tau 0.1, stiffness 1.0).
func defaultConfig() *Config {
	return &Config{
		TestMode:        true,
		MomentSteps:     8,
		IterTimes:       10,
		Tau:             0.1,
		Stiffness:       1.0,
		DefaultInvMass:  0.001,
		EffectorInvMass: 1.0,
		Effectors:       map[string]EffectorTuning{},
	}
}

// Option configures a Config. For use with NewConfig.
type Option func(*Config)

// NewConfig builds a Config from the spec defaults plus the given options.
func NewConfig(opts ...Option) *Config {
	c := defaultConfig()
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MomentSteps sets the outer XPBD iteration count.
func MomentSteps(n int) Option { return func(c *Config) { c.MomentSteps = n } }

// IterTimes sets the inner constraint-projection iteration count.
func IterTimes(n int) Option { return func(c *Config) { c.IterTimes = n } }

// Tau sets the XPBD pseudo-time step.
func Tau(tau float64) Option { return func(c *Config) { c.Tau = tau } }

// Stiffness sets the default per-constraint stiffness k.
func Stiffness(k float64) Option { return func(c *Config) { c.Stiffness = k } }

// TestMode selects fixed target offsets instead of ground-probe raycasts.
func TestMode(on bool) Option { return func(c *Config) { c.TestMode = on } }

// Effector registers tuning for one end-effector bone.
func Effector(bone string, t EffectorTuning) Option {
	return func(c *Config) { c.Effectors[bone] = t }
}

// Stable marks bones whose world rotation must be restored after solving.
func Stable(bones ...string) Option {
	return func(c *Config) { c.Stable = append(c.Stable, bones...) }
}
