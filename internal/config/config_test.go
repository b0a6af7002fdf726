package config

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/san-kum/coulomb/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Name != "hydrogen-flyby" {
		t.Errorf("expected hydrogen-flyby, got %s", cfg.Name)
	}
	if cfg.Dt != 1e-19 || cfg.Steps != 5000 {
		t.Errorf("unexpected run length dt=%g steps=%d", cfg.Dt, cfg.Steps)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestHydrogenFlyby(t *testing.T) {
	cfg, err := GetPreset("hydrogen-flyby")
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Particles) != 3 {
		t.Fatalf("expected 3 particles, got %d", len(cfg.Particles))
	}

	p, e, q := cfg.Particles[0], cfg.Particles[1], cfg.Particles[2]
	if p.X != -20 || p.Y != 0 {
		t.Errorf("proton should start at (-20, 0), got (%g, %g)", p.X, p.Y)
	}
	if q.X != -210 || q.VX <= 0 {
		t.Errorf("second proton should start at -210 moving right, got x=%g vx=%g", q.X, q.VX)
	}
	if d := math.Hypot(e.X-p.X, e.Y-p.Y); math.Abs(d-BohrRadius) > 1e-9 {
		t.Errorf("electron should start one Bohr radius away, got %g", d)
	}
	if e.Charge != -1 || e.Mass != electronMass {
		t.Errorf("unexpected electron %+v", e)
	}
	if speed := math.Hypot(e.VX, e.VY); math.Abs(q.VX/speed-0.4) > 1e-12 {
		t.Errorf("second proton should move at 0.4 of the electron speed")
	}
}

func TestGetPreset(t *testing.T) {
	for _, name := range ListPresets() {
		cfg, err := GetPreset(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if cfg.Name != name {
			t.Errorf("preset %s reports name %s", name, cfg.Name)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}

	a, _ := GetPreset("dipole")
	a.Particles[0].X = 1000
	b, _ := GetPreset("dipole")
	if b.Particles[0].X == 1000 {
		t.Error("presets must not share particle slices")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	cfg, err := GetPreset("nonexistent")
	if cfg != nil || !errors.Is(err, dynamo.ErrUnknownPreset) {
		t.Errorf("expected ErrUnknownPreset, got %v, %v", cfg, err)
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	want := []string{"dipole", "hydrogen-flyby", "proton-pair"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("expected %v, got %v", want, names)
		}
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")

	cfg, _ := GetPreset("proton-pair")
	cfg.Steps = 42
	cfg.Integrator = IntegratorRK4
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Name != "proton-pair" || loaded.Steps != 42 || loaded.Integrator != IntegratorRK4 {
		t.Errorf("round trip lost fields: %+v", loaded)
	}
	if len(loaded.Particles) != 2 || loaded.Particles[1].Charge != 1 {
		t.Errorf("round trip lost particles: %+v", loaded.Particles)
	}
	if loaded.Constants != cfg.Constants {
		t.Errorf("constants changed: %+v", loaded.Constants)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"unknown integrator", func(c *Config) { c.Integrator = "euler" }, dynamo.ErrParameterBounds},
		{"zero dt", func(c *Config) { c.Dt = 0 }, dynamo.ErrParameterBounds},
		{"negative steps", func(c *Config) { c.Steps = -1 }, dynamo.ErrParameterBounds},
		{"negative rtol", func(c *Config) { c.Rtol = -1 }, dynamo.ErrParameterBounds},
		{"zero eps", func(c *Config) { c.Constants.Eps = 0 }, dynamo.ErrParameterBounds},
		{"no particles", func(c *Config) { c.Particles = nil }, dynamo.ErrParameterBounds},
		{"massless", func(c *Config) { c.Particles[0].Mass = 0 }, dynamo.ErrParameterBounds},
		{"nan velocity", func(c *Config) { c.Particles[1].VY = math.NaN() }, dynamo.ErrInvalidState},
		{"empty grid", func(c *Config) { c.Field.N = 0 }, dynamo.ErrInvalidGrid},
		{"zero bound", func(c *Config) { c.Field.Bound = 0 }, dynamo.ErrInvalidGrid},
		{"zero skip", func(c *Config) { c.Playback.Skip = 0 }, dynamo.ErrParameterBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestClone(t *testing.T) {
	cfg := DefaultConfig()
	cp := cfg.Clone()
	cp.Particles[0].Charge = 5
	cp.Steps = 1
	if cfg.Particles[0].Charge == 5 || cfg.Steps == 1 {
		t.Error("Clone should not share state")
	}
	if d := cfg.Dynamo(); d.Dt != cfg.Dt || d.Steps != cfg.Steps {
		t.Errorf("unexpected dynamo config %+v", d)
	}
}
