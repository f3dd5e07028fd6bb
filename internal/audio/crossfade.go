package audio

// Smoothstep returns 3t^2 - 2t^3 for t clamped to [0,1].
func Smoothstep(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}

// Crossfade blends outgoing into incoming at progress (0 = all outgoing,
// 1 = all incoming) along a smoothstep curve. Frames must have equal length.
func Crossfade(outgoing, incoming []int16, progress float64) []int16 {
	gain := Smoothstep(progress)
	mixed := make([]int16, len(outgoing))
	for i := range outgoing {
		mixed[i] = clip16(float64(outgoing[i])*(1-gain) + float64(incoming[i])*gain)
	}
	return mixed
}

func clip16(v float64) int16 {
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	}
	return int16(v)
}
