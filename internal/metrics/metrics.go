// Package metrics 匹配、对局、段位同步与选角模拟的 Prometheus 指标
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 业务指标
type Metrics interface {
	QueueSize(queue string, size int)
	MatchFormed(queue string)
	MatchClosed(queue string, state string)
	RatingUpdateFailed(reason string)
	TierSyncCompleted(elapsed time.Duration, players int, failed int)
	RoleMutation(op string)
	DraftFinished(winner string)
}

// NewMetrics 在给定注册表上创建指标
func NewMetrics(registry *prometheus.Registry) Metrics {
	return setupPrometheusMetrics(registry)
}

type noopMetrics struct{}

func (noopMetrics) QueueSize(string, int) {}
func (noopMetrics) MatchFormed(string) {}
func (noopMetrics) MatchClosed(string, string) {}
func (noopMetrics) RatingUpdateFailed(string) {}
func (noopMetrics) TierSyncCompleted(time.Duration, int, int) {}
func (noopMetrics) RoleMutation(string) {}
func (noopMetrics) DraftFinished(string) {}

// Noop 不采集任何数据
func Noop() Metrics {
	return noopMetrics{}
}
