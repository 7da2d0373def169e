package transaction

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// submissionsTotal 提交次数（按结果分类）
	submissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "upwood",
			Subsystem: "tx",
			Name:      "submissions_total",
			Help:      "Total number of transaction submissions by result",
		},
		[]string{"result"}, // sent, wallet_error, codec_error
	)

	// pollsTotal 状态轮询次数（按返回状态分类）
	pollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "upwood",
			Subsystem: "tx",
			Name:      "polls_total",
			Help:      "Total number of block item status polls by observed status",
		},
		[]string{"status"},
	)

	// pollErrorsTotal 轮询失败次数
	pollErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "upwood",
		Subsystem: "tx",
		Name:      "poll_errors_total",
		Help:      "Total number of failed status polls",
	})

	// finalizedTotal 最终结果（按分类）
	finalizedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "upwood",
			Subsystem: "tx",
			Name:      "finalized_total",
			Help:      "Total number of finalized transactions by outcome",
		},
		[]string{"outcome"},
	)

	// finalizationSeconds 提交到最终确定的耗时
	finalizationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "upwood",
		Subsystem: "tx",
		Name:      "finalization_seconds",
		Help:      "Time from wallet submission to observed finalization",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s ~ 256s
	})
)

func init() {
	prometheus.MustRegister(
		submissionsTotal,
		pollsTotal,
		pollErrorsTotal,
		finalizedTotal,
		finalizationSeconds,
	)
}
