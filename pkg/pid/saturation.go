package pid

// Limit clamps value into [low, high]. The upper bound is checked first, so
// when low > high any value above high yields high.
func Limit(value, low, high float64) float64 {
	if value > high {
		return high
	}
	if value < low {
		return low
	}
	return value
}
