// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package load

// ikconfig.go loads an IKConfig asset: a bone-to-effector mapping plus
// solver tuning overrides. This mirrors shd.go's use of gopkg.in/yaml.v3
// for a struct-tagged config record; the ik package never parses files
// itself (spec §1/§6 name the loader as an external collaborator), it only
// consumes the typed ik.Config this produces.

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/galvanizedlogic/ssik/ik"
)

// effectorYAML is the on-disk shape of one EffectorTuning entry.
type effectorYAML struct {
	Offset     [3]float64 `yaml:"offset"`
	MaxStepUp  float64    `yaml:"max_step_up"`
	FootHeight float64    `yaml:"foot_height"`
	InvMass    float64    `yaml:"inv_mass"`
	Force      [3]float64 `yaml:"force"`
}

// ikConfigYAML is the on-disk shape of an IKConfig asset.
type ikConfigYAML struct {
	TestMode        bool                    `yaml:"test_mode"`
	MomentSteps     int                     `yaml:"moment_steps"`
	IterTimes       int                     `yaml:"iter_times"`
	Tau             float64                 `yaml:"tau"`
	Stiffness       float64                 `yaml:"stiffness"`
	DefaultInvMass  float64                 `yaml:"default_inv_mass"`
	EffectorInvMass float64                 `yaml:"effector_inv_mass"`
	Effectors       map[string]effectorYAML `yaml:"effectors"`
	Stable          []string                `yaml:"stable"`
}

// IKConfig reads and parses an IKConfig asset file at path into an
// ik.Config. A read or parse failure is returned to the caller rather than
// silently degraded; per spec §7 the manager treats a nil config as "skip
// this resolve" rather than retrying.
func IKConfig(path string) (*ik.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw ikConfigYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	opts := []ik.Option{
		ik.TestMode(raw.TestMode),
		ik.Stable(raw.Stable...),
	}
	if raw.MomentSteps > 0 {
		opts = append(opts, ik.MomentSteps(raw.MomentSteps))
	}
	if raw.IterTimes > 0 {
		opts = append(opts, ik.IterTimes(raw.IterTimes))
	}
	if raw.Tau > 0 {
		opts = append(opts, ik.Tau(raw.Tau))
	}
	if raw.Stiffness > 0 {
		opts = append(opts, ik.Stiffness(raw.Stiffness))
	}
	for name, e := range raw.Effectors {
		opts = append(opts, ik.Effector(name, ik.EffectorTuning{
			Offset: e.Offset, MaxStepUp: e.MaxStepUp, FootHeight: e.FootHeight,
			InvMass: e.InvMass, Force: e.Force,
		}))
	}
	cfg := ik.NewConfig(opts...)
	if raw.DefaultInvMass > 0 {
		cfg.DefaultInvMass = raw.DefaultInvMass
	}
	if raw.EffectorInvMass > 0 {
		cfg.EffectorInvMass = raw.EffectorInvMass
	}
	return cfg, nil
}
