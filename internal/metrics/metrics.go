package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"stablecoin-vault-sol/internal/logic/core"
	"stablecoin-vault-sol/internal/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vault"

// LedgerMetrics 记录账本操作的结果与数量
type LedgerMetrics struct {
	registry *prometheus.Registry

	ops       *prometheus.CounterVec
	amounts   *prometheus.CounterVec
	rewards   *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	published *prometheus.CounterVec
}

func NewLedgerMetrics() *LedgerMetrics {
	m := &LedgerMetrics{
		registry: prometheus.NewRegistry(),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "ops_total",
			Help:      "Ledger operations segmented by kind and outcome.",
		}, []string{"kind", "outcome"}),
		amounts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "collateral_amount_total",
			Help:      "Collateral base units moved by committed deposits and withdrawals.",
		}, []string{"market", "kind"}),
		rewards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "reward_swept_total",
			Help:      "Reward base units swept to users after venue calls.",
		}, []string{"market", "token"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "op_duration_seconds",
			Help:      "Latency distribution for ledger transactions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Events handed to the event sink segmented by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(m.ops, m.amounts, m.rewards, m.latency, m.published)
	return m
}

// ObserveOp 记录一次操作的结果，失败时按错误分类打标签
func (m *LedgerMetrics) ObserveOp(kind string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "committed"
	if err != nil {
		outcome = core.Classify(err).String()
	}
	m.ops.WithLabelValues(kind, outcome).Inc()
	m.latency.WithLabelValues(kind).Observe(duration.Seconds())
}

// ObserveSkipped 记录因幂等判重而跳过的操作
func (m *LedgerMetrics) ObserveSkipped(kind string) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(kind, "skipped").Inc()
}

// ObserveEvent 记录已提交事件中的数量
func (m *LedgerMetrics) ObserveEvent(market string, ev *core.Event) {
	if m == nil || ev == nil {
		return
	}
	switch ev.Type {
	case core.EventCollateralDeposited, core.EventCollateralWithdrawn:
		m.amounts.WithLabelValues(market, ev.Type.String()).Add(float64(ev.Amount))
		m.rewards.WithLabelValues(market, "a").Add(float64(ev.Reward))
		if ev.RewardB > 0 {
			m.rewards.WithLabelValues(market, "b").Add(float64(ev.RewardB))
		}
	}
}

func (m *LedgerMetrics) ObservePublish(count int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.published.WithLabelValues("failed").Add(float64(count))
		return
	}
	m.published.WithLabelValues("ok").Add(float64(count))
}

func (m *LedgerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Server 在 addr 上暴露 /metrics，实现 go-zero 的 Service 接口
type Server struct {
	srv *http.Server
}

func NewServer(addr string, m *LedgerMetrics) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return &Server{srv: &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}}
}

func (s *Server) Start() {
	logger.Infof("[metrics] listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Errorf("[metrics] server error: %v", err)
	}
}

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}
