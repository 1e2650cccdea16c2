package core

// Size describes the dimensions of a simulation grid.
type Size struct {
	W int
	H int
}

// Cells reports the number of cells covered by the size.
func (s Size) Cells() int { return s.W * s.H }

// Aligned reports whether both dimensions are positive multiples of tile.
func (s Size) Aligned(tile int) bool {
	return s.W > 0 && s.H > 0 && s.W%tile == 0 && s.H%tile == 0
}
