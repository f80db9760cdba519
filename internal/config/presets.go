package config

import "sort"

var Presets = map[string]*Config{
	"tiny": {
		Particles: 64, Steps: 100, Mode: "seq", Seed: 1,
	},
	"small": {
		Particles: 256, Steps: 50, Mode: "par", Seed: 1,
	},
	"medium": {
		Particles: 2048, Steps: 10, Mode: "par", Seed: 1,
	},
	// 2^16 particles, one step: the reference throughput measurement.
	"reference": {
		Particles: 65536, Steps: 1, Mode: "par", Seed: 1,
		Bench: BenchConfig{Sizes: []int{16384, 32768, 65536}, Steps: 1},
	},
	"collapse": {
		Particles: 512, Steps: 200, Mode: "par", Seed: 7, Dt: 1e-5,
	},
}

// GetPreset returns the named preset merged over the defaults, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Particles = p.Particles
	cfg.Steps = p.Steps
	cfg.Mode = p.Mode
	cfg.Seed = p.Seed
	if p.Dt != 0 {
		cfg.Dt = p.Dt
	}
	if len(p.Bench.Sizes) > 0 {
		cfg.Bench.Sizes = append([]int(nil), p.Bench.Sizes...)
	}
	if p.Bench.Steps > 0 {
		cfg.Bench.Steps = p.Bench.Steps
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
