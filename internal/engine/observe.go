package engine

import "loyalty/internal/metrics"

// Observe records a committed distribution. Callers invoke it once the surrounding
// transaction commits, so retried attempts are not counted.
func (r *DistributionResult) Observe() {
	if r == nil {
		return
	}
	for _, leg := range r.Legs {
		metrics.CPLegsTotal.WithLabelValues(string(leg.Status)).Inc()
		metrics.CPAmountTotal.WithLabelValues(string(leg.Status)).Add(leg.Amount.InexactFloat64())
	}
	for _, skip := range r.Skips {
		metrics.LevelSkipsTotal.WithLabelValues(skip.Reason).Inc()
	}
}

// Observe records a committed settlement and its CP walk.
func (s *Settlement) Observe() {
	if s == nil {
		return
	}
	s.CP.Observe()
	metrics.DistributionsTotal.WithLabelValues(string(s.Reason), "settled").Inc()
}

// Observe records a committed unlock.
func (r *UnlockResult) Observe() {
	if r == nil {
		return
	}
	if r.Unlocked {
		metrics.UnlockEventsTotal.Inc()
	}
	if r.Released.IsPositive() {
		metrics.ReleasedCPTotal.Add(r.Released.InexactFloat64())
	}
}
