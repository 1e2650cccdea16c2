package fluid

import "strconv"

// DefaultPressureIterations is the number of Jacobi pressure passes per frame.
const DefaultPressureIterations = 100

// Config controls the fluid solver and its initial shear layer.
type Config struct {
	DT                 float64
	Speed              float64
	Dissipation        float64
	PressureIterations int
	Seed               int64
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		DT:                 1.0,
		Speed:              1.5,
		Dissipation:        0.999,
		PressureIterations: DefaultPressureIterations,
		Seed:               3,
	}
}

// FromMap populates the config from a string map (flag-style key/value pairs).
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if v, ok := cfg["dt"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			c.DT = parsed
		}
	}
	if v, ok := cfg["speed"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 {
			c.Speed = parsed
		}
	}
	if v, ok := cfg["dissipation"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 && parsed <= 1 {
			c.Dissipation = parsed
		}
	}
	if v, ok := cfg["pressure_iterations"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.PressureIterations = parsed
		}
	}
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = parsed
		}
	}
	return c
}
