package lenia

import "strconv"

// Config controls the Lenia kernel and its initial seed.
type Config struct {
	Radius int
	Mu     float64
	Sigma  float64
	DT     float64

	Seed       int64
	SeedRadius float64
	Density    float64
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		Radius:     13,
		Mu:         0.15,
		Sigma:      0.015,
		DT:         0.1,
		Seed:       42,
		SeedRadius: 0.35,
		Density:    1.0,
	}
}

// FromMap populates the config from a string map (flag-style key/value pairs).
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if v, ok := cfg["radius"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 64 {
			c.Radius = parsed
		}
	}
	if v, ok := cfg["mu"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 {
			c.Mu = parsed
		}
	}
	if v, ok := cfg["sigma"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			c.Sigma = parsed
		}
	}
	if v, ok := cfg["dt"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 && parsed <= 1 {
			c.DT = parsed
		}
	}
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = parsed
		}
	}
	if v, ok := cfg["seed_radius"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 && parsed <= 1 {
			c.SeedRadius = parsed
		}
	}
	if v, ok := cfg["density"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 && parsed <= 1 {
			c.Density = parsed
		}
	}
	return c
}
