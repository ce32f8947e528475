package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	recruitRegisterOnce sync.Once

	applicationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "campusrecruit",
			Subsystem: "recruit",
			Name:      "applications_total",
			Help:      "成功提交的岗位申请总数。",
		},
	)

	roundsAdvancedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campusrecruit",
			Subsystem: "recruit",
			Name:      "rounds_advanced_total",
			Help:      "轮次推进操作总数，按结束状态区分。",
		},
		[]string{"status"},
	)

	massMessagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "campusrecruit",
			Subsystem: "recruit",
			Name:      "mass_messages_total",
			Help:      "成功落库的群发消息总数。",
		},
	)
)

func registerRecruitMetrics() {
	recruitRegisterOnce.Do(func() {
		prometheus.MustRegister(applicationsTotal, roundsAdvancedTotal, massMessagesTotal)
	})
}

// ObserveApplication 记录一次成功的岗位申请。
func ObserveApplication() {
	registerRecruitMetrics()
	applicationsTotal.Inc()
}

// ObserveRoundAdvanced 记录一次轮次推进及其结束状态。
func ObserveRoundAdvanced(status string) {
	registerRecruitMetrics()
	roundsAdvancedTotal.WithLabelValues(status).Inc()
}

// ObserveMassMessage 记录一次群发消息。
func ObserveMassMessage() {
	registerRecruitMetrics()
	massMessagesTotal.Inc()
}
