//go:build ebiten

package ui

import (
	"image/color"
	"math"

	"gridsim/internal/core"
	"gridsim/internal/engine"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Overlay draws velocity arrows over variants that carry velocity_x and
// velocity_y fields. W toggles it.
type Overlay struct {
	vx, vy *core.Grid
	size   core.Size
	scale  int
	show   bool

	pixel   *ebiten.Image
	samples []vectorSample
	span    float64
}

// NewOverlay constructs an overlay for sim drawn at the given scale.
func NewOverlay(sim *engine.Simulation, scale int) *Overlay {
	o := &Overlay{size: sim.Size(), scale: max(1, scale)}
	vx, okx := sim.Field("velocity_x")
	vy, oky := sim.Field("velocity_y")
	if okx && oky {
		o.vx, o.vy = vx, vy
	}
	o.samples, o.span = sampleGrid(o.size, o.scale)
	o.pixel = ebiten.NewImage(1, 1)
	o.pixel.Fill(color.White)
	return o
}

// Update handles the overlay toggle.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyW) {
		o.show = !o.show
	}
}

// Draw renders the overlay onto the provided screen.
func (o *Overlay) Draw(screen *ebiten.Image) {
	if !o.show || o.vx == nil || len(o.samples) == 0 {
		return
	}

	const (
		calmThreshold    = 0.05
		maxSpeedEstimate = 2.0
		headAngle        = math.Pi / 6
		calmDotScale     = 0.18
		minThickness     = 0.65
		maxThickness     = 1.05
	)

	scale := float64(o.scale)
	minLength := o.span * 0.35
	maxLength := o.span * 0.7
	calmDotSize := math.Max(o.span*calmDotScale, scale*0.75)

	xs, ys := o.vx.Floats(), o.vy.Floats()
	for _, s := range o.samples {
		idx := int(s.cy)*o.size.W + int(s.cx)
		vx, vy := float64(xs[idx]), float64(ys[idx])
		speed := math.Hypot(vx, vy)
		if speed < calmThreshold {
			o.drawPoint(screen, s.sx, s.sy, calmDotSize, color.RGBA{R: 90, G: 130, B: 170, A: 120})
			continue
		}

		nx, ny := vx/speed, vy/speed
		normalized := clamp01(speed / maxSpeedEstimate)
		length := minLength + (maxLength-minLength)*math.Sqrt(normalized)
		headLength := math.Min(length*0.3, scale*4.5)
		tailLength := length * 0.4
		tipX := s.sx + nx*(length-tailLength)
		tipY := s.sy + ny*(length-tailLength)
		tailX := s.sx - nx*tailLength
		tailY := s.sy - ny*tailLength
		bodyEndX := tipX - nx*headLength
		bodyEndY := tipY - ny*headLength
		thickness := math.Max(1, scale*(minThickness+(maxThickness-minThickness)*normalized))

		col := interpolateColor(normalized)
		o.drawLine(screen, tailX, tailY, bodyEndX, bodyEndY, thickness, col)

		angle := math.Atan2(ny, nx)
		o.drawLine(screen, tipX, tipY,
			tipX-math.Cos(angle+headAngle)*headLength, tipY-math.Sin(angle+headAngle)*headLength,
			thickness*0.85, col)
		o.drawLine(screen, tipX, tipY,
			tipX-math.Cos(angle-headAngle)*headLength, tipY-math.Sin(angle-headAngle)*headLength,
			thickness*0.85, col)
	}
}

func (o *Overlay) drawPoint(screen *ebiten.Image, x, y, size float64, col color.RGBA) {
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(size, size)
	op.GeoM.Translate(x-size*0.5, y-size*0.5)
	op.ColorScale.ScaleWithColor(col)
	screen.DrawImage(o.pixel, op)
}

func (o *Overlay) drawLine(screen *ebiten.Image, x1, y1, x2, y2, thickness float64, col color.RGBA) {
	dx := x2 - x1
	dy := y2 - y1
	length := math.Hypot(dx, dy)
	if length <= 1e-4 || thickness <= 0 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(length, thickness)
	op.GeoM.Translate(0, -thickness/2)
	op.GeoM.Rotate(math.Atan2(dy, dx))
	op.GeoM.Translate(x1, y1)
	op.ColorScale.ScaleWithColor(col)
	screen.DrawImage(o.pixel, op)
}
