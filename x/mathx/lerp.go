package mathx

// Lerp returns the linear interpolation between a and b at t, rounded.
// t is not clamped; t=0 gives a, t=1 gives b. a may be greater than b.
func Lerp(a, b uint16, t float64) uint16 {
	v := float64(a) + t*(float64(b)-float64(a))
	if v < 0 {
		return 0
	}
	if v > 65535 {
		return 65535
	}
	return uint16(v + 0.5)
}
