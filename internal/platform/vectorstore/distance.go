package vectorstore

import (
	"fmt"
	"math"
)

type Metric string

const (
	Cosine       Metric = "cosine"
	L2           Metric = "l2"
	InnerProduct Metric = "ip"
)

func ParseMetric(s string) (Metric, error) {
	switch m := Metric(s); m {
	case Cosine, L2, InnerProduct:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
	}
}

// Distance follows the hnswlib conventions: cosine is 1 - cos(a, b), l2 is the
// squared euclidean distance and ip is 1 - a·b.
func (m Metric) Distance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}

	switch m {
	case Cosine:
		var dot, na, nb float64
		for i := range a {
			x, y := float64(a[i]), float64(b[i])
			dot += x * y
			na += x * x
			nb += y * y
		}
		if na == 0 || nb == 0 {
			return 1, nil
		}
		return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb)), nil
	case L2:
		var sum float64
		for i := range a {
			d := float64(a[i]) - float64(b[i])
			sum += d * d
		}
		return sum, nil
	case InnerProduct:
		var dot float64
		for i := range a {
			dot += float64(a[i]) * float64(b[i])
		}
		return 1 - dot, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, string(m))
	}
}
