package events

// FindPeaks returns the indices of local maxima in x, in ascending order.
// A peak is strictly greater than its neighbours; a flat plateau counts
// once, at its midpoint (rounded down). The first and last samples are
// never peaks. When minProminence > 0 only peaks whose prominence is at
// least minProminence are kept.
func FindPeaks(x []float64, minProminence float64) []int {
	var peaks []int
	n := len(x)
	for i := 1; i < n-1; i++ {
		if !(x[i-1] < x[i]) {
			continue
		}
		ahead := i + 1
		for ahead < n-1 && x[ahead] == x[i] {
			ahead++
		}
		if x[ahead] < x[i] {
			peaks = append(peaks, (i+ahead-1)/2)
			i = ahead
		}
	}

	if minProminence <= 0 {
		return peaks
	}
	kept := peaks[:0]
	for _, p := range peaks {
		if Prominence(x, p) >= minProminence {
			kept = append(kept, p)
		}
	}
	return kept
}

// Prominence returns how far x[peak] rises above the higher of the two
// lowest points reachable on either side before meeting a higher sample.
func Prominence(x []float64, peak int) float64 {
	if peak < 0 || peak >= len(x) {
		return 0
	}
	h := x[peak]

	leftMin := h
	for j := peak; j >= 0 && x[j] <= h; j-- {
		if x[j] < leftMin {
			leftMin = x[j]
		}
	}
	rightMin := h
	for j := peak; j < len(x) && x[j] <= h; j++ {
		if x[j] < rightMin {
			rightMin = x[j]
		}
	}

	base := leftMin
	if rightMin > base {
		base = rightMin
	}
	return h - base
}
