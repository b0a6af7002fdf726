package config

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/coulomb/internal/dynamo"
	"github.com/san-kum/coulomb/internal/physics"
)

const (
	protonMass   = 938.0
	electronMass = 0.511
)

var Presets = map[string]func() *Config{
	"hydrogen-flyby": hydrogenFlyby,
	"dipole":         dipole,
	"proton-pair":    protonPair,
}

// hydrogenFlyby is a proton with a bound electron started at 1.1 rad on a
// Bohr-radius circle, and a second proton coming in from the left.
func hydrogenFlyby() *Config {
	c := base("hydrogen-flyby")
	k := c.Constants.K

	ex := BohrRadius * math.Cos(1.1)
	ey := BohrRadius * math.Sin(1.1)
	vi := math.Sqrt(math.Abs(k * 1 / BohrRadius * electronMass))

	c.Particles = physics.Ensemble{
		{X: 0, Y: 0, Mass: protonMass, Charge: 1},
		{X: ex, Y: ey, VX: vi * ey / BohrRadius, VY: vi * ex / BohrRadius, Mass: electronMass, Charge: -1},
		{X: -190, Y: 0, VX: vi * 0.4, Mass: protonMass, Charge: 1},
	}
	for i := range c.Particles {
		c.Particles[i].X -= 20
	}
	return c
}

func dipole() *Config {
	c := base("dipole")
	c.Steps = 2000
	c.Particles = physics.Ensemble{
		{X: -BohrRadius / 2, Mass: protonMass, Charge: 1},
		{X: BohrRadius / 2, Mass: protonMass, Charge: -1},
	}
	return c
}

func protonPair() *Config {
	c := base("proton-pair")
	c.Steps = 2000
	c.Particles = physics.Ensemble{
		{X: -BohrRadius / 2, Mass: protonMass, Charge: 1},
		{X: BohrRadius / 2, Mass: protonMass, Charge: 1},
	}
	return c
}

// GetPreset returns a fresh copy of the named scenario.
func GetPreset(name string) (*Config, error) {
	build, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, dynamo.ErrUnknownPreset)
	}
	return build(), nil
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
