// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// プロトコル境界と照合ワーカーの両方から利用する。
type Collector struct {
	operations           *prometheus.CounterVec
	faults               prometheus.Counter
	loansCreated         prometheus.Counter
	loansReturned        prometheus.Counter
	adjustmentsConfirmed prometheus.Counter
	adjustmentsAbandoned prometheus.Counter
	adjustmentsPending   prometheus.Gauge
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lendman_operations_total",
			Help: "操作別・結果別の処理数",
		}, []string{"operation", "outcome"}),
		faults: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lendman_soap_faults_total",
			Help: "フォルトエンベロープを返した回数",
		}),
		loansCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lendman_loans_created_total",
			Help: "作成された貸出の合計数",
		}),
		loansReturned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lendman_loans_returned_total",
			Help: "返却された貸出の合計数",
		}),
		adjustmentsConfirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lendman_adjustments_confirmed_total",
			Help: "確認済みに遷移した在庫調整の合計数",
		}),
		adjustmentsAbandoned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lendman_adjustments_abandoned_total",
			Help: "打ち切られた在庫調整の合計数",
		}),
		adjustmentsPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lendman_adjustments_pending",
			Help: "未確認の在庫調整の件数",
		}),
	}

	reg.MustRegister(
		c.operations,
		c.faults,
		c.loansCreated,
		c.loansReturned,
		c.adjustmentsConfirmed,
		c.adjustmentsAbandoned,
		c.adjustmentsPending,
	)

	return c
}

// ObserveOperation は操作の処理結果を記録する。
func (c *Collector) ObserveOperation(operation, outcome string) {
	c.operations.WithLabelValues(operation, outcome).Inc()
}

// ObserveFault はフォルトレスポンスを記録する。
func (c *Collector) ObserveFault() {
	c.faults.Inc()
}

// ObserveLoanCreated は貸出の作成を記録する。
func (c *Collector) ObserveLoanCreated() {
	c.loansCreated.Inc()
}

// ObserveLoanReturned は貸出の返却を記録する。
func (c *Collector) ObserveLoanReturned() {
	c.loansReturned.Inc()
}

// ObserveAdjustmentConfirmed は在庫調整の確認済み遷移を記録する。
func (c *Collector) ObserveAdjustmentConfirmed() {
	c.adjustmentsConfirmed.Inc()
}

// ObserveAdjustmentAbandoned は在庫調整の打ち切りを記録する。
func (c *Collector) ObserveAdjustmentAbandoned() {
	c.adjustmentsAbandoned.Inc()
}

// SetAdjustmentsPending は未確認の在庫調整件数を設定する。
func (c *Collector) SetAdjustmentsPending(count int) {
	c.adjustmentsPending.Set(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
