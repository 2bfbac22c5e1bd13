package sensors

import "sort"

// Number is any numeric sample type the filters accept.
type Number interface {
	~int | ~int16 | ~int32 | ~int64 | ~float32 | ~float64
}

// Median returns the median of in without modifying it. Even-length input
// yields the mean of the two central elements; empty input yields 0.
func Median[T Number](in []T) float64 {
	n := len(in)
	if n == 0 {
		return 0
	}
	sorted := make([]T, n)
	copy(sorted, in)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	if n%2 == 1 {
		return float64(sorted[n/2])
	}
	return (float64(sorted[n/2-1]) + float64(sorted[n/2])) / 2
}
