package picking

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	queryLabel = "query"
	hitLabel   = "hit"

	queryRaycast    = "raycast"
	queryRaycastAll = "raycast_all"
	queryOverlap    = "overlap"
)

var queryCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "picking_queries_total",
	Help: "The number of picking queries.",
}, []string{
	queryLabel,
	hitLabel,
})

func instrumentQuery(query string, hit bool) {
	queryCount.
		With(prometheus.Labels{
			queryLabel: query,
			hitLabel:   strconv.FormatBool(hit),
		}).
		Inc()
}
