package ui

import (
	"fmt"
	"sort"

	"gridsim/internal/core"
	"gridsim/internal/engine"
)

// StatusLines describes the simulation for the HUD: lifecycle, counters, the
// displayed buffer, kernel readiness and the last frame error.
func StatusLines(sim *engine.Simulation, view int, lastErr error) []string {
	v := sim.Variant()
	st := sim.Stats()
	size := sim.Size()
	lines := []string{
		fmt.Sprintf("%s %dx%d", v.Name, size.W, size.H),
		fmt.Sprintf("state: %s", sim.State()),
		fmt.Sprintf("frame %d, %d dispatches", st.Frames, st.Dispatches),
	}
	if view >= 0 && view < len(v.Buffers) {
		lines = append(lines, fmt.Sprintf("view: %s (V)", v.Buffers[view].Name))
	}

	kernels := sim.Kernels()
	entries := make([]string, 0, len(kernels))
	for entry := range kernels {
		entries = append(entries, entry)
	}
	sort.Strings(entries)
	for _, entry := range entries {
		lines = append(lines, fmt.Sprintf("  %s: %s", entry, kernels[entry].Kind))
	}
	if lastErr != nil {
		lines = append(lines, "error: "+lastErr.Error())
	}
	return lines
}

// ParamLines flattens a parameter snapshot into labelled rows.
func ParamLines(snapshot core.ParameterSnapshot) []string {
	var lines []string
	for _, g := range snapshot.Groups {
		lines = append(lines, g.Name)
		for _, p := range g.Params {
			lines = append(lines, fmt.Sprintf("  %s: %s", p.Label, p.Value))
		}
	}
	return lines
}

// wrap splits s into chunks of at most width characters.
func wrap(s string, width int) []string {
	if width <= 0 || len(s) <= width {
		return []string{s}
	}
	var out []string
	for len(s) > width {
		out = append(out, s[:width])
		s = s[width:]
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}
