package engine

import (
	"context"
	"testing"

	"loyalty/internal/domain"
	"loyalty/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestSettle_MetricsWaitForObserve(t *testing.T) {
	s := newMemStore()
	s.chain(chainIDs(8)...) // levels 6 and 7 are above the base ceiling
	o := newTestOrchestrator(t, s)

	settled := metrics.DistributionsTotal.WithLabelValues(string(domain.ReasonPurchase), "settled")
	onhold := metrics.CPLegsTotal.WithLabelValues(string(domain.StatusOnHold))
	settledBefore, onholdBefore := counterValue(t, settled), counterValue(t, onhold)

	// A transaction retried after a lock conflict runs the settlement twice and commits once.
	var st *Settlement
	for i := 0; i < 2; i++ {
		var err error
		st, err = o.Settle(context.Background(), s.tx(), Event{
			Reason:          domain.ReasonPurchase,
			SubjectMemberID: 1,
			Pool:            decimal.NewFromInt(100),
			Split:           RegistrationSplit(),
		})
		require.NoError(t, err)
	}
	require.Equal(t, settledBefore, counterValue(t, settled))
	require.Equal(t, onholdBefore, counterValue(t, onhold))

	st.Observe()
	require.Equal(t, settledBefore+1, counterValue(t, settled))
	require.Equal(t, onholdBefore+2, counterValue(t, onhold))
}

func TestUnlockResult_Observe(t *testing.T) {
	before := counterValue(t, metrics.UnlockEventsTotal)
	released := counterValue(t, metrics.ReleasedCPTotal)

	(&UnlockResult{Unlocked: true, Released: decimal.RequireFromString("1.50")}).Observe()
	(&UnlockResult{Released: decimal.Zero}).Observe()
	var none *UnlockResult
	none.Observe()

	require.Equal(t, before+1, counterValue(t, metrics.UnlockEventsTotal))
	require.InDelta(t, released+1.5, counterValue(t, metrics.ReleasedCPTotal), 1e-9)
}
