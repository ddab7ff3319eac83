package indicator

import "math"

// Value represents an indicator value that is undefined until enough history exists.
type Value struct {
	Float float64
	Valid bool
}

// Defined returns a valid indicator value.
func Defined(v float64) Value {
	return Value{Float: v, Valid: true}
}

// rolling applies the provided reducer over a trailing inclusive window of the
// provided data. Positions with fewer than window entries are left undefined.
func rolling(data []float64, window int, reduce func(set []float64) float64) []Value {
	out := make([]Value, len(data))
	if window <= 0 {
		return out
	}

	for idx := window - 1; idx < len(data); idx++ {
		out[idx] = Defined(reduce(data[idx-window+1 : idx+1]))
	}

	return out
}

// MovingAverage calculates the simple moving average of the provided closes.
func MovingAverage(closes []float64, window int) []Value {
	return rolling(closes, window, func(set []float64) float64 {
		var sum float64
		for idx := range set {
			sum += set[idx]
		}

		return sum / float64(len(set))
	})
}

// RollingMin calculates the rolling minimum of the provided lows.
func RollingMin(lows []float64, window int) []Value {
	return rolling(lows, window, func(set []float64) float64 {
		min := math.Inf(1)
		for idx := range set {
			min = math.Min(min, set[idx])
		}

		return min
	})
}

// RollingMax calculates the rolling maximum of the provided highs.
func RollingMax(highs []float64, window int) []Value {
	return rolling(highs, window, func(set []float64) float64 {
		max := math.Inf(-1)
		for idx := range set {
			max = math.Max(max, set[idx])
		}

		return max
	})
}
