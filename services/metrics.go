package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"smartsheet2jira/models"
)

// ルールごとの処理結果 (rules_total の result ラベル)
const (
	RuleProcessed     = "processed"
	RuleSheetNotFound = "sheet_not_found"
	RuleAborted       = "aborted"
)

// RunMetrics は1回の実行の集計をPrometheus形式で保持します
type RunMetrics struct {
	registry *prometheus.Registry
	rows     *prometheus.CounterVec
	rules    *prometheus.CounterVec
	lastRun  prometheus.Gauge
}

// NewRunMetrics は実行ごとの専用レジストリにメトリクスを登録します
func NewRunMetrics() *RunMetrics {
	m := &RunMetrics{
		registry: prometheus.NewRegistry(),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smartsheet2jira",
			Name:      "rows_total",
			Help:      "Reconciled sheet rows by outcome.",
		}, []string{"outcome"}),
		rules: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smartsheet2jira",
			Name:      "rules_total",
			Help:      "Transform rules by result.",
		}, []string{"result"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "smartsheet2jira",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last sync run finished.",
		}),
	}
	m.registry.MustRegister(m.rows, m.rules, m.lastRun)
	return m
}

// ObserveOutcome は1行の結果を記録します
func (m *RunMetrics) ObserveOutcome(outcome models.Outcome) {
	m.rows.WithLabelValues(string(outcome.Kind)).Inc()
}

// ObserveRule はルールの処理結果を記録します
func (m *RunMetrics) ObserveRule(result string) {
	m.rules.WithLabelValues(result).Inc()
}

// MarkFinished は実行完了時刻を記録します
func (m *RunMetrics) MarkFinished(t time.Time) {
	m.lastRun.Set(float64(t.Unix()))
}

// Registry はメトリクスのレジストリを返します
func (m *RunMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile は node_exporter の textfile collector 形式でメトリクスを書き出します
func (m *RunMetrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
