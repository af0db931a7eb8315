package spatial

import "math"

// MeanBearing returns the circular mean of compass bearings in degrees, in
// [0,360), and the mean resultant length R. R is 1 when every bearing agrees
// and near 0 when they cancel out, in which case the mean is meaningless.
func MeanBearing(bearings []float64) (mean, r float64) {
	if len(bearings) == 0 {
		return 0, 0
	}

	var sumSin, sumCos float64
	for _, b := range bearings {
		rad := b * math.Pi / 180
		sumSin += math.Sin(rad)
		sumCos += math.Cos(rad)
	}

	n := float64(len(bearings))
	r = math.Hypot(sumSin, sumCos) / n

	mean = math.Atan2(sumSin, sumCos) * 180 / math.Pi
	if mean < 0 {
		mean += 360
	}
	return mean, r
}

// BearingDifference returns the smallest angle between two bearings, in [0,180]
func BearingDifference(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}
