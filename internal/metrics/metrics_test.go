package metrics

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stablecoin-vault-sol/internal/logic/core"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveOp(t *testing.T) {
	m := NewLedgerMetrics()
	m.ObserveOp("deposit_collateral", nil, time.Millisecond)
	m.ObserveOp("deposit_collateral", fmt.Errorf("wrap: %w", core.ErrInsufficientFunds), time.Millisecond)
	m.ObserveSkipped("deposit_collateral")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ops.WithLabelValues("deposit_collateral", "committed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ops.WithLabelValues("deposit_collateral", core.KindInsufficientFunds.String())))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ops.WithLabelValues("deposit_collateral", "skipped")))
}

func TestObserveEvent(t *testing.T) {
	m := NewLedgerMetrics()
	m.ObserveEvent("ray", &core.Event{Type: core.EventCollateralDeposited, Amount: 1000, Reward: 5})
	m.ObserveEvent("ray", &core.Event{Type: core.EventCollateralWithdrawn, Amount: 400, Reward: 10, RewardB: 3})
	m.ObserveEvent("ray", &core.Event{Type: core.EventUserTroveCreated})

	assert.Equal(t, 1000.0, testutil.ToFloat64(m.amounts.WithLabelValues("ray", "CollateralDeposited")))
	assert.Equal(t, 15.0, testutil.ToFloat64(m.rewards.WithLabelValues("ray", "a")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.rewards.WithLabelValues("ray", "b")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *LedgerMetrics
	assert.NotPanics(t, func() {
		m.ObserveOp("x", nil, 0)
		m.ObserveEvent("x", &core.Event{})
		m.ObservePublish(1, nil)
	})
}

func TestHandler(t *testing.T) {
	m := NewLedgerMetrics()
	m.ObservePublish(2, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `vault_events_published_total{outcome="ok"} 2`))
}
