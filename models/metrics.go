package models

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	appKeyLabel = "app_key"
)

var (
	sessionCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "session_count",
		Help: "The number of sessions.",
	}, []string{appKeyLabel})

	sessionCountTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "session_count_total",
		Help: "The total number of sessions.",
	}, []string{appKeyLabel})

	entityCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "entity_count",
		Help: "The number of entities.",
	}, []string{appKeyLabel})

	colliderCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "collider_count",
		Help: "The number of entity colliders attached to a collision system.",
	}, []string{appKeyLabel})

	pointCloudCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "point_cloud_count",
		Help: "The number of point clouds.",
	}, []string{appKeyLabel})
)

func instrumentIncreaseSessionGauge(appKey string) {
	sessionCount.
		With(prometheus.Labels{appKeyLabel: appKey}).
		Inc()
}

func instrumentDecreaseSessionGauge(appKey string) {
	sessionCount.
		With(prometheus.Labels{appKeyLabel: appKey}).
		Dec()
}

func instrumentCountSession(appKey string) {
	sessionCountTotal.
		With(prometheus.Labels{appKeyLabel: appKey}).
		Inc()
}

func instrumentIncreaseEntityGauge(appKey string) {
	entityCount.
		With(prometheus.Labels{appKeyLabel: appKey}).
		Inc()
}

func instrumentDecreaseEntityGauge(appKey string) {
	entityCount.
		With(prometheus.Labels{appKeyLabel: appKey}).
		Dec()
}

func instrumentIncreaseColliderGauge(appKey string) {
	colliderCount.
		With(prometheus.Labels{appKeyLabel: appKey}).
		Inc()
}

func instrumentDecreaseColliderGauge(appKey string) {
	colliderCount.
		With(prometheus.Labels{appKeyLabel: appKey}).
		Dec()
}

func instrumentIncreasePointCloudGauge(appKey string) {
	pointCloudCount.
		With(prometheus.Labels{appKeyLabel: appKey}).
		Inc()
}

func instrumentDecreasePointCloudGauge(appKey string) {
	pointCloudCount.
		With(prometheus.Labels{appKeyLabel: appKey}).
		Dec()
}
