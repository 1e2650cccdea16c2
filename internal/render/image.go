package render

import (
	"image"

	"golang.org/x/image/draw"

	"gridsim/internal/core"
)

// Image renders g into an RGBA image upscaled by scale with nearest-neighbour
// sampling so cell edges stay sharp.
func Image(g *core.Grid, scale int) *image.RGBA {
	if scale <= 0 {
		scale = 1
	}
	src := image.NewRGBA(image.Rect(0, 0, g.W, g.H))
	Fill(src.Pix, g)
	if scale == 1 {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, g.W*scale, g.H*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
