package tile

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
)

// LUT maps gray levels to colours
type LUT [256]color.RGBA

type colorStop struct {
	pos     float64
	r, g, b float64
}

var audacityStops = []colorStop{
	{0.00, 0, 0, 0},
	{0.25, 0, 0, 120},
	{0.45, 0, 120, 255},
	{0.70, 255, 120, 0},
	{0.88, 255, 220, 0},
	{1.00, 255, 255, 160},
}

// AudacityLUT is black through blue and orange to pale yellow
var AudacityLUT = buildLUT(audacityStops)

// GrayLUT is the identity ramp
var GrayLUT = func() LUT {
	var l LUT
	for i := range l {
		l[i] = color.RGBA{uint8(i), uint8(i), uint8(i), 255}
	}
	return l
}()

func buildLUT(stops []colorStop) LUT {
	var lut LUT
	for i := range lut {
		x := float64(i) / 255
		for j := 0; j < len(stops)-1; j++ {
			s0, s1 := stops[j], stops[j+1]
			if x < s0.pos || x > s1.pos {
				continue
			}
			t := 0.0
			if s1.pos != s0.pos {
				t = (x - s0.pos) / (s1.pos - s0.pos)
			}
			lut[i] = color.RGBA{
				R: uint8(math.Round(s0.r + t*(s1.r-s0.r))),
				G: uint8(math.Round(s0.g + t*(s1.g-s0.g))),
				B: uint8(math.Round(s0.b + t*(s1.b-s0.b))),
				A: 255,
			}
			break
		}
	}
	return lut
}

// LookupColormap resolves a colormap name
func LookupColormap(name string) (LUT, error) {
	switch strings.ToLower(name) {
	case "", "gray", "grey":
		return GrayLUT, nil
	case "audacity":
		return AudacityLUT, nil
	default:
		return LUT{}, fmt.Errorf("unknown colormap %q (gray, audacity)", name)
	}
}

// Colorize applies lut to every pixel of g
func Colorize(g *image.Gray, lut LUT) *image.RGBA {
	b := g.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.SetRGBA(x, y, lut[g.GrayAt(x, y).Y])
		}
	}
	return out
}
