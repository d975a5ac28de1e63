package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLoop(t *testing.T) {
	a, b, err := parseLoop("1.5:3")
	require.NoError(t, err)
	assert.Equal(t, 1.5, a)
	assert.Equal(t, 3.0, b)

	// order is resolved by the engine
	a, b, err = parseLoop(" 4 : 2 ")
	require.NoError(t, err)
	assert.Equal(t, 4.0, a)
	assert.Equal(t, 2.0, b)

	for _, bad := range []string{"", "1.5", "a:b", "1:NaN", "Inf:2"} {
		_, _, err := parseLoop(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseMark(t *testing.T) {
	tm, f, err := parseMark("1:220")
	require.NoError(t, err)
	assert.Equal(t, 1.0, tm)
	assert.Equal(t, 220.0, f)

	tm, f, err = parseMark("2:A4")
	require.NoError(t, err)
	assert.Equal(t, 2.0, tm)
	assert.InDelta(t, 440, f, 1e-9)

	for _, bad := range []string{"0.25:440hz", "x:A4", "1"} {
		_, _, err := parseMark(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseSize(t *testing.T) {
	w, h, err := parseSize("800x400")
	require.NoError(t, err)
	assert.Equal(t, 800, w)
	assert.Equal(t, 400, h)

	w, h, err = parseSize("64X32")
	require.NoError(t, err)
	assert.Equal(t, 64, w)
	assert.Equal(t, 32, h)

	for _, bad := range []string{"800", "0x10", "10x-1", "axb"} {
		_, _, err := parseSize(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"440", 440},
		{"220Hz", 220},
		{" 110.5 ", 110.5},
		{"A4", 440},
		{"a3", 220},
		{"E2", 82.40688922821748},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseFrequency(tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	for _, bad := range []string{"0", "-3", "H2", ""} {
		_, err := parseFrequency(bad)
		assert.Error(t, err, bad)
	}
}

func TestParsePitch(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"E2", 40},
		{"C#4", 61},
		{"64", 64},
		{"440", 69},
		{"329.6", 64},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parsePitch(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parsePitch("zz")
	assert.Error(t, err)
}
