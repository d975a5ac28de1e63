package pitch

import (
	"cmp"
	"slices"
)

// findPeaks returns the indices of local maxima of x, in ascending order,
// that are at least distance samples apart and stand at least prominence
// above the higher of their two surrounding bases. Flat tops count once,
// at their middle sample. The first and last samples are never peaks.
func findPeaks(x []float64, prominence float64, distance int) []int {
	peaks := localMaxima(x)
	if distance > 1 {
		peaks = selectByDistance(x, peaks, distance)
	}

	kept := peaks[:0]
	for _, p := range peaks {
		if peakProminence(x, p) >= prominence {
			kept = append(kept, p)
		}
	}
	return kept
}

func localMaxima(x []float64) []int {
	var peaks []int
	i := 1
	last := len(x) - 1
	for i < last {
		if x[i-1] < x[i] {
			ahead := i + 1
			for ahead < last && x[ahead] == x[i] {
				ahead++
			}
			if x[ahead] < x[i] {
				peaks = append(peaks, (i+ahead-1)/2)
				i = ahead
			}
		}
		i++
	}
	return peaks
}

// selectByDistance keeps the tallest peaks first and drops any neighbour
// closer than distance. Ties keep the rightmost peak.
func selectByDistance(x []float64, peaks []int, distance int) []int {
	order := make([]int, len(peaks))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(x[peaks[a]], x[peaks[b]])
	})

	keep := make([]bool, len(peaks))
	for i := range keep {
		keep[i] = true
	}
	for j := len(order) - 1; j >= 0; j-- {
		i := order[j]
		if !keep[i] {
			continue
		}
		for k := i - 1; k >= 0 && peaks[i]-peaks[k] < distance; k-- {
			keep[k] = false
		}
		for k := i + 1; k < len(peaks) && peaks[k]-peaks[i] < distance; k++ {
			keep[k] = false
		}
	}

	var out []int
	for i, p := range peaks {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}

// peakProminence walks outward from p until a higher sample or the edge
// and measures p against the higher of the two minima found.
func peakProminence(x []float64, p int) float64 {
	h := x[p]

	leftMin := h
	for i := p; i >= 0 && x[i] <= h; i-- {
		leftMin = min(leftMin, x[i])
	}
	rightMin := h
	for i := p; i < len(x) && x[i] <= h; i++ {
		rightMin = min(rightMin, x[i])
	}
	return h - max(leftMin, rightMin)
}
