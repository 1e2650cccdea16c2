package render

import (
	"image/color"
	"testing"

	"gridsim/internal/core"
)

func TestFillColorIsOpaqueCopy(t *testing.T) {
	g := core.NewGrid(8, 8, core.FormatRGBA8Unorm, 0)
	g.Fill([4]float32{1, 0.5, 0, 0})
	buf := make([]byte, 8*8*4)
	Fill(buf, g)
	if buf[0] != 255 || buf[1] != 128 || buf[2] != 0 || buf[3] != 255 {
		t.Fatalf("unexpected pixel %v", buf[:4])
	}
}

func TestFillHeatmapIsSymmetric(t *testing.T) {
	g := core.NewGrid(8, 8, core.FormatR32Float, 1)
	values := make([]float32, 64)
	values[0] = -2
	values[1] = 2
	g.LoadFloats(values)
	buf := make([]byte, 8*8*4)
	Fill(buf, g)

	neg := heatPalette[0]
	pos := heatPalette[255]
	mid := heatPalette[128]
	if got := (color.RGBA{buf[0], buf[1], buf[2], buf[3]}); got != neg {
		t.Fatalf("negative extreme = %v, want %v", got, neg)
	}
	if got := (color.RGBA{buf[4], buf[5], buf[6], buf[7]}); got != pos {
		t.Fatalf("positive extreme = %v, want %v", got, pos)
	}
	if got := (color.RGBA{buf[8], buf[9], buf[10], buf[11]}); got != mid {
		t.Fatalf("zero = %v, want %v", got, mid)
	}
}

func TestFillHeatmapFlatField(t *testing.T) {
	buf := make([]byte, 4*4)
	fillHeatmapRGBA(buf, make([]float32, 4), 0)
	for i := 0; i < len(buf); i += 4 {
		if buf[i+3] != 255 {
			t.Fatalf("pixel %d not opaque", i/4)
		}
	}
}

func TestFillPaletteClampsAndClears(t *testing.T) {
	buf := []byte{9, 9, 9, 9, 9, 9, 9, 9}
	fillPaletteRGBA(buf, []uint8{0, 5}, nil)
	for _, b := range buf {
		if b != 0 {
			t.Fatalf("expected cleared buffer, got %v", buf)
		}
	}
	pal := []color.RGBA{{R: 1, A: 255}, {R: 2, A: 255}}
	fillPaletteRGBA(buf, []uint8{0, 5}, pal)
	if buf[0] != 1 || buf[4] != 2 {
		t.Fatalf("unexpected palette mapping %v", buf)
	}
}

func TestImageScalesNearest(t *testing.T) {
	g := core.NewGrid(8, 8, core.FormatRGBA8Unorm, 0)
	g.Fill([4]float32{0, 1, 0, 1})
	img := Image(g, 3)
	if b := img.Bounds(); b.Dx() != 24 || b.Dy() != 24 {
		t.Fatalf("bounds = %v, want 24x24", b)
	}
	if got := img.RGBAAt(23, 23); got != (color.RGBA{0, 255, 0, 255}) {
		t.Fatalf("corner pixel = %v", got)
	}
	if img := Image(g, 0); img.Bounds().Dx() != 8 {
		t.Fatalf("non-positive scale should keep size, got %v", img.Bounds())
	}
}
