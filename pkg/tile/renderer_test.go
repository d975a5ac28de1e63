package tile

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/spectro-tab/pkg/spectral"
)

// gridMatrix has 10 Hz bins up to 1000 Hz and 0.05 s frames over 10 s;
// the value ramps with frequency so rows are distinguishable.
func gridMatrix() *spectral.Matrix {
	const bins, frames = 101, 200
	m := &spectral.Matrix{
		Freqs: make([]float64, bins),
		Times: make([]float64, frames),
		VMax:  0,
		VMin:  -90,
	}
	for k := range m.Freqs {
		m.Freqs[k] = float64(k) * 10
	}
	for i := range m.Times {
		m.Times[i] = 0.025 + float64(i)*0.05
	}
	m.Values = make([][]float64, bins)
	for k := range m.Values {
		m.Values[k] = make([]float64, frames)
		for i := range m.Values[k] {
			m.Values[k][i] = -90 + 90*float64(k)/float64(bins-1)
		}
	}
	return m
}

func TestRenderIsDeterministic(t *testing.T) {
	m := gridMatrix()
	r := NewRenderer(nil)
	limits := NewLimits(10, 70, 600)
	vp := Viewport{TimeMin: 1.3, TimeMax: 4.2, FreqMin: 100, FreqMax: 400}

	a, err := r.Render(m, vp, limits, DefaultGamma)
	require.NoError(t, err)
	b, err := r.Render(m, vp, limits, DefaultGamma)
	require.NoError(t, err)

	assert.Equal(t, a.Image.Pix, b.Image.Pix)
	assert.Equal(t, a.Transform, b.Transform)
}

func TestRenderSelectsViewportCells(t *testing.T) {
	m := gridMatrix()
	tile, err := NewRenderer(nil).Render(m, Viewport{TimeMin: 1.0, TimeMax: 2.0, FreqMin: 100, FreqMax: 200}, NewLimits(10, 70, 600), 1)
	require.NoError(t, err)

	// times 1.025..1.975 -> frames 20..39; freqs 100..200 -> bins 10..20
	assert.Equal(t, [2]int{20, 40}, tile.TimeIndex)
	assert.Equal(t, [2]int{10, 21}, tile.FreqIndex)
	assert.Equal(t, image.Rect(0, 0, 20, 11), tile.Image.Bounds())

	// row 0 is the highest frequency
	top := tile.Image.GrayAt(0, 0).Y
	bottom := tile.Image.GrayAt(0, tile.Rows()-1).Y
	assert.Greater(t, top, bottom)

	assert.InDelta(t, 1.0, tile.Transform.OriginTime, 1e-12)
	assert.InDelta(t, 200.0, tile.Transform.OriginFreq, 1e-12)
	assert.InDelta(t, 0.05, tile.Transform.TimeStep, 1e-12)
	assert.InDelta(t, -10.0, tile.Transform.FreqStep, 1e-12)
}

func TestRenderGammaMapping(t *testing.T) {
	m := gridMatrix()
	limits := NewLimits(10, 0, 1000)
	tile, err := NewRenderer(nil).Render(m, Full(limits), limits, 1)
	require.NoError(t, err)

	// bottom row is vmin, top row vmax
	assert.Equal(t, uint8(0), tile.Image.GrayAt(0, tile.Rows()-1).Y)
	assert.Equal(t, uint8(254), tile.Image.GrayAt(0, 0).Y)

	g2, err := NewRenderer(nil).Render(m, Full(limits), limits, 2)
	require.NoError(t, err)
	mid := tile.Rows() / 2
	assert.Less(t, g2.Image.GrayAt(0, mid).Y, tile.Image.GrayAt(0, mid).Y)
}

func TestRenderExtremeZoomKeepsTwoCells(t *testing.T) {
	m := gridMatrix()
	limits := NewLimits(10, 70, 600)

	for _, vp := range []Viewport{
		{TimeMin: 5, TimeMax: 5, FreqMin: 300, FreqMax: 300},
		{TimeMin: 9.99, TimeMax: 10, FreqMin: 599.5, FreqMax: 600},
		{TimeMin: 0, TimeMax: 0.001, FreqMin: 70, FreqMax: 70.5},
		{TimeMin: -5, TimeMax: 50, FreqMin: -100, FreqMax: 1e6},
	} {
		tile, err := NewRenderer(nil).Render(m, vp, limits, DefaultGamma)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, tile.Cols(), 2, "%+v", vp)
		assert.GreaterOrEqual(t, tile.Rows(), 2, "%+v", vp)
		assert.LessOrEqual(t, tile.TimeIndex[1], m.Frames())
		assert.LessOrEqual(t, tile.FreqIndex[1], m.Bins())
	}
}

func TestRenderRejectsBadInput(t *testing.T) {
	r := NewRenderer(nil)
	_, err := r.Render(nil, Viewport{}, Limits{}, 1)
	assert.ErrorIs(t, err, ErrTooSmall)
	_, err = r.Render(gridMatrix(), Viewport{}, NewLimits(10, 70, 600), 0)
	assert.Error(t, err)
}

func TestTransformInvert(t *testing.T) {
	tr := Transform{OriginTime: 2, OriginFreq: 500, TimeStep: 0.05, FreqStep: -2.5}
	tm, f := tr.Apply(10, 4)
	assert.InDelta(t, 2.5, tm, 1e-12)
	assert.InDelta(t, 490.0, f, 1e-12)

	col, row := tr.Invert(tm, f)
	assert.InDelta(t, 10.0, col, 1e-9)
	assert.InDelta(t, 4.0, row, 1e-9)
}

func TestColorizeAndEncode(t *testing.T) {
	m := gridMatrix()
	limits := NewLimits(10, 0, 1000)
	tile, err := NewRenderer(nil).Render(m, Full(limits), limits, 1)
	require.NoError(t, err)

	rgba := Colorize(tile.Image, AudacityLUT)
	assert.Equal(t, AudacityLUT[0], rgba.RGBAAt(0, tile.Rows()-1))

	scaled, err := Scale(rgba, 320, 240)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 320, 240), scaled.Bounds())

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, scaled, ".png"))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, scaled.Bounds(), decoded.Bounds())

	assert.Error(t, Encode(&buf, scaled, ".gif"))
	_, err = Scale(rgba, 0, 10)
	assert.Error(t, err)
}

func TestAudacityLUTStops(t *testing.T) {
	assert.Equal(t, uint8(0), AudacityLUT[0].R)
	assert.Equal(t, uint8(0), AudacityLUT[0].B)
	last := AudacityLUT[255]
	assert.Equal(t, [3]uint8{255, 255, 160}, [3]uint8{last.R, last.G, last.B})

	_, err := LookupColormap("viridis")
	assert.Error(t, err)
	lut, err := LookupColormap("AUDACITY")
	require.NoError(t, err)
	assert.Equal(t, AudacityLUT, lut)
}
