package common

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// ClampPixelRatio limits a device pixel ratio to the range (0, max].
// A zero, negative or NaN ratio (unknown display scale) is treated as 1.
//
// Parameters:
//   - ratio: the reported device pixel ratio
//   - max: the upper bound, typically 2
//
// Returns:
//   - float32: the clamped ratio
func ClampPixelRatio(ratio, max float32) float32 {
	if !(ratio > 0) {
		return 1
	}
	return min(ratio, max)
}
