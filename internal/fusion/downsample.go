package fusion

// DefaultDisplayLimit caps how many field samples the live view places on the map
const DefaultDisplayLimit = 200

// Stride returns the step used to bring n samples under target.
// It is 1 when no thinning is needed.
func Stride(n, target int) int {
	if target <= 0 || n <= target {
		return 1
	}
	return (n + target - 1) / target
}

// Downsample keeps every k-th sample starting with the first, k = ceil(n/target).
// Input with at most target samples is returned unchanged.
func Downsample[T any](samples []T, target int) []T {
	k := Stride(len(samples), target)
	if k == 1 {
		return samples
	}

	out := make([]T, 0, (len(samples)+k-1)/k)
	for i := 0; i < len(samples); i += k {
		out = append(out, samples[i])
	}
	return out
}
