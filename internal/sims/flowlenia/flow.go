package flowlenia

import "github.com/chewxy/math32"

// spread is the reach of reintegration: displacements are clipped to one
// cell, so a displaced unit box overlaps cells at most two away.
const spread = 2

type field func(x, y int) float32

// sobel returns the Sobel gradient of f at (x, y), scaled to unit spacing.
func sobel(f field, x, y int) (float32, float32) {
	gx := (f(x+1, y-1) + 2*f(x+1, y) + f(x+1, y+1)) -
		(f(x-1, y-1) + 2*f(x-1, y) + f(x-1, y+1))
	gy := (f(x-1, y+1) + 2*f(x, y+1) + f(x+1, y+1)) -
		(f(x-1, y-1) + 2*f(x, y-1) + f(x+1, y-1))
	return gx / 8, gy / 8
}

// overlap is the 1-D overlap of two unit boxes whose centers are d apart.
func overlap(d float32) float32 {
	return math32.Max(0, 1-math32.Abs(d))
}

// transport gathers the mass that lands on cell (x, y) when every source cell
// moves its unit box by disp. Summed over the grid it conserves mass.
func transport(mass field, disp func(x, y int) (float32, float32), x, y int) float32 {
	var next float32
	for dy := -spread; dy <= spread; dy++ {
		for dx := -spread; dx <= spread; dx++ {
			sx, sy := x+dx, y+dy
			m := mass(sx, sy)
			if m <= 0 {
				continue
			}
			fx, fy := disp(sx, sy)
			next += m * overlap(float32(dx)+fx) * overlap(float32(dy)+fy)
		}
	}
	return next
}

// flow computes the clipped displacement of a source cell:
// dt * ((1-alpha) grad(growth) - alpha grad(mass)), alpha = clamp((A/theta)^n).
type flow struct {
	dt, theta, n float32
}

func (f flow) at(mass, growth field, x, y int) (float32, float32) {
	alpha := math32.Pow(mass(x, y)/f.theta, f.n)
	alpha = math32.Max(0, math32.Min(1, alpha))
	gx, gy := sobel(growth, x, y)
	ax, ay := sobel(mass, x, y)
	fx := (1-alpha)*gx - alpha*ax
	fy := (1-alpha)*gy - alpha*ay
	return clip(f.dt * fx), clip(f.dt * fy)
}

func clip(v float32) float32 {
	return math32.Max(-1, math32.Min(1, v))
}
