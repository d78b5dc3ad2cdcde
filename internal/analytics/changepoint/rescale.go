package changepoint

// MinMaxScale maps values affinely onto [lo, hi]. A constant series maps to lo.
func MinMaxScale(values []float64, lo, hi float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	minV, maxV := values[0], values[0]
	for _, v := range values[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}

	span := maxV - minV
	if span == 0 {
		span = 1
	}
	scale := (hi - lo) / span
	for i, v := range values {
		out[i] = (v-minV)*scale + lo
	}
	return out
}
