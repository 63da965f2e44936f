package splat

import (
	"time"

	"github.com/aukilabs/spatial/geom"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	sorterLabel = "sorter"
	outputLabel = "output"

	quadOutput = "quad"
	rawOutput  = "raw"
)

var (
	sortDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "splat_sort_duration_seconds",
		Help:    "The time to depth sort a point cloud.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{
		sorterLabel,
		outputLabel,
	})

	sortedPoints = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splat_sorted_points_total",
		Help: "The number of points depth sorted.",
	}, []string{
		sorterLabel,
		outputLabel,
	})
)

// WithMetrics wraps s to record sort durations and point counts under the
// given sorter name.
func WithMetrics(s DepthSorter, name string) DepthSorter {
	return &sorterWithMetrics{
		DepthSorter: s,
		name:        name,
	}
}

type sorterWithMetrics struct {
	DepthSorter

	name string
}

func (s *sorterWithMetrics) Sort(centers []float32, model geom.Matrix, camera geom.Matrix, out []uint32) {
	defer s.measure(time.Now(), quadOutput)
	s.DepthSorter.Sort(centers, model, camera, out)
}

func (s *sorterWithMetrics) SortRaw(centers []float32, model geom.Matrix, camera geom.Matrix, out []uint32) {
	defer s.measure(time.Now(), rawOutput)
	s.DepthSorter.SortRaw(centers, model, camera, out)
}

func (s *sorterWithMetrics) measure(start time.Time, output string) {
	labels := prometheus.Labels{
		sorterLabel: s.name,
		outputLabel: output,
	}

	sortDuration.With(labels).Observe(time.Since(start).Seconds())
	sortedPoints.With(labels).Add(float64(s.Count()))
}
