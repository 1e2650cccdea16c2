package fluid

import (
	"github.com/chewxy/math32"

	"gridsim/internal/core"
	rng "gridsim/pkg/core"
)

var (
	dyeInner = [4]float32{0.95, 0.55, 0.1, 1}
	dyeOuter = [4]float32{0.1, 0.3, 0.9, 1}
)

// shear returns the initial velocity and dye at (x, y): a band moving right
// through a field moving left, with a sinusoidal cross-flow perturbation.
func shear(size core.Size, speed float32, seed int64, x, y int) (vx, vy float32, dye [4]float32) {
	u := float32(x) / float32(size.W)
	v := float32(y) / float32(size.H)
	phase := rng.CellNoise(seed, 0, 0)
	vx, dye = -speed, dyeOuter
	if v >= 0.25 && v < 0.75 {
		vx, dye = speed, dyeInner
	}
	vy = 0.1 * speed * math32.Sin(2*math32.Pi*(4*u+phase))
	return vx, vy, dye
}

// gradient is the central-difference gradient of p at (x, y).
func gradient(p *core.Grid, x, y int) (float32, float32) {
	return 0.5 * (p.Float(x+1, y) - p.Float(x-1, y)),
		0.5 * (p.Float(x, y+1) - p.Float(x, y-1))
}

// sampledGradient is the central-difference gradient of p at a continuous
// position.
func sampledGradient(p *core.Grid, x, y float32) (float32, float32) {
	return 0.5 * (p.Sample(x+1, y) - p.Sample(x-1, y)),
		0.5 * (p.Sample(x, y+1) - p.Sample(x, y-1))
}

// divergence is the central-difference divergence of (vx, vy) at (x, y).
func divergence(vx, vy *core.Grid, x, y int) float32 {
	return 0.5 * ((vx.Float(x+1, y) - vx.Float(x-1, y)) + (vy.Float(x, y+1) - vy.Float(x, y-1)))
}

// jacobi performs one pressure relaxation step at (x, y).
func jacobi(p, vx, vy *core.Grid, x, y int) float32 {
	sum := p.Float(x-1, y) + p.Float(x+1, y) + p.Float(x, y-1) + p.Float(x, y+1)
	return (sum - divergence(vx, vy, x, y)) / 4
}

type advection struct {
	dt, dissipation float32
}

// step projects the velocity at (x, y) with the current pressure, traces it
// back one time step and samples the projected velocity and dye there.
func (a advection) step(color, vx, vy, p *core.Grid, x, y int) (nx, ny float32, dye [4]float32) {
	gx, gy := gradient(p, x, y)
	ux := vx.Float(x, y) - gx
	uy := vy.Float(x, y) - gy
	bx := float32(x) - a.dt*ux
	by := float32(y) - a.dt*uy
	sgx, sgy := sampledGradient(p, bx, by)
	nx = (vx.Sample(bx, by) - sgx) * a.dissipation
	ny = (vy.Sample(bx, by) - sgy) * a.dissipation
	return nx, ny, color.SampleRGBA(bx, by)
}
