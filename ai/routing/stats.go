package routing

import "sync/atomic"

// Statistics holds process-wide routing counters. All fields are updated with
// atomic increments; the counters are advisory telemetry and are never read
// back into a routing decision. Reset only by explicit operator action.
type Statistics struct {
	totalRequests   atomic.Int64
	keywordResolved atomic.Int64
	aiConfirmed     atomic.Int64
	aiFallback      atomic.Int64
	bypassMatches   atomic.Int64

	keywordTimeMs atomic.Int64
	hybridTimeMs  atomic.Int64
	aiTimeMs      atomic.Int64
}

// StatisticsSnapshot is a point-in-time copy of the counters.
type StatisticsSnapshot struct {
	TotalRequests   int64 `json:"total_requests"`
	KeywordResolved int64 `json:"keyword_resolved"`
	AIConfirmed     int64 `json:"ai_confirmed"`
	AIFallback      int64 `json:"ai_fallback"`
	BypassMatches   int64 `json:"bypass_matches"`
	KeywordTimeMs   int64 `json:"keyword_time_ms"`
	HybridTimeMs    int64 `json:"hybrid_time_ms"`
	AITimeMs        int64 `json:"ai_time_ms"`
}

// NewStatistics creates zeroed statistics.
func NewStatistics() *Statistics {
	return &Statistics{}
}

func (s *Statistics) record(strategy Strategy, elapsedMs int64) {
	s.totalRequests.Add(1)
	switch strategy {
	case StrategyKeyword:
		s.keywordResolved.Add(1)
		s.keywordTimeMs.Add(elapsedMs)
	case StrategyHybrid:
		s.aiConfirmed.Add(1)
		s.hybridTimeMs.Add(elapsedMs)
	case StrategyAI:
		s.aiFallback.Add(1)
		s.aiTimeMs.Add(elapsedMs)
	case StrategyBypass:
		s.bypassMatches.Add(1)
	}
}

// RecordBypass counts a bypass-sourced decision.
func (s *Statistics) RecordBypass() {
	s.record(StrategyBypass, 0)
}

// Snapshot returns a consistent-enough copy of the counters. Individual
// loads are atomic; cross-counter consistency is not required for telemetry.
func (s *Statistics) Snapshot() StatisticsSnapshot {
	return StatisticsSnapshot{
		TotalRequests:   s.totalRequests.Load(),
		KeywordResolved: s.keywordResolved.Load(),
		AIConfirmed:     s.aiConfirmed.Load(),
		AIFallback:      s.aiFallback.Load(),
		BypassMatches:   s.bypassMatches.Load(),
		KeywordTimeMs:   s.keywordTimeMs.Load(),
		HybridTimeMs:    s.hybridTimeMs.Load(),
		AITimeMs:        s.aiTimeMs.Load(),
	}
}

// Reset zeroes all counters.
func (s *Statistics) Reset() {
	s.totalRequests.Store(0)
	s.keywordResolved.Store(0)
	s.aiConfirmed.Store(0)
	s.aiFallback.Store(0)
	s.bypassMatches.Store(0)
	s.keywordTimeMs.Store(0)
	s.hybridTimeMs.Store(0)
	s.aiTimeMs.Store(0)
}
