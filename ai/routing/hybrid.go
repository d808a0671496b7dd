package routing

import (
	"context"
	"log/slog"
	"time"

	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/ai/internal/strutil"
)

// Thresholds hold the hybrid policy knobs.
type Thresholds struct {
	// KeywordConfidenceThreshold selects the keyword fast path.
	KeywordConfidenceThreshold float64
	// UseAIConfirmation enables the confirmation band below the fast path.
	UseAIConfirmation bool
	// AIConfirmationThreshold is the lower bound of the confirmation band.
	AIConfirmationThreshold float64
}

// DefaultThresholds returns the stock policy: fast path at 0.5, confirmation
// band disabled, band floor at 0.3.
func DefaultThresholds() Thresholds {
	return Thresholds{
		KeywordConfidenceThreshold: 0.5,
		UseAIConfirmation:          false,
		AIConfirmationThreshold:    0.3,
	}
}

// HybridRouter combines keyword scoring with LLM classification. The keyword
// fast path must dominate typical traffic; the classifier is consulted only
// when lexical signal is weak or contradictory.
type HybridRouter struct {
	scorer       *KeywordScorer
	classifier   *IntentClassifier
	descriptions []*DomainDescription
	thresholds   Thresholds
	stats        *Statistics
	cache        *DecisionCache
	metrics      MetricsRecorder
}

// HybridConfig configures the HybridRouter.
type HybridConfig struct {
	Thresholds Thresholds
	// Cache is optional; nil disables decision caching.
	Cache   *DecisionCache
	Stats   *Statistics
	Metrics MetricsRecorder
}

// NewHybridRouter creates a hybrid router. Domain descriptions are treated as
// immutable after startup.
func NewHybridRouter(scorer *KeywordScorer, classifier *IntentClassifier, descriptions []*DomainDescription, cfg HybridConfig) *HybridRouter {
	stats := cfg.Stats
	if stats == nil {
		stats = NewStatistics()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &HybridRouter{
		scorer:       scorer,
		classifier:   classifier,
		descriptions: descriptions,
		thresholds:   cfg.Thresholds,
		stats:        stats,
		cache:        cfg.Cache,
		metrics:      metrics,
	}
}

// Stats exposes the running counters for operator tooling.
func (r *HybridRouter) Stats() *Statistics {
	return r.stats
}

// Route produces one final routing decision for the message.
//
// Policy, in order: keyword fast path at the confidence threshold; optional
// AI confirmation when keyword confidence falls in the band
// [AIConfirmationThreshold, KeywordConfidenceThreshold); straight AI fallback
// below the band. When the classifier disagrees with a band result, the
// classifier wins outright.
func (r *HybridRouter) Route(ctx context.Context, organizationID, message string) *HybridRoutingResult {
	start := time.Now()

	if r.cache != nil {
		if cached, ok := r.cache.Get(organizationID, message); ok {
			r.finish(ctx, message, cached, start)
			return cached
		}
	}

	kw := r.scorer.Score(message)
	t := r.thresholds

	if kw.Confidence >= t.KeywordConfidenceThreshold {
		result := &HybridRoutingResult{
			Domain:         kw.Domain,
			Confidence:     kw.Confidence,
			Strategy:       StrategyKeyword,
			MatchedSignals: kw.MatchedKeywords,
		}
		r.finish(ctx, message, result, start)
		r.store(ctx, organizationID, message, result)
		return result
	}

	var result *HybridRoutingResult
	switch {
	case t.UseAIConfirmation && kw.Confidence >= t.AIConfirmationThreshold:
		result = r.confirmWithAI(ctx, message, kw)
	default:
		// Lexical signal too weak to trust; hand the whole call to the
		// classifier.
		ai := r.classifier.Classify(ctx, message, r.descriptions)
		result = &HybridRoutingResult{
			Domain:         ai.Domain,
			Confidence:     ai.Confidence,
			Strategy:       StrategyAI,
			MatchedSignals: signalsFromAI(ai),
			FallbackUsed:   true,
		}
	}

	r.finish(ctx, message, result, start)
	r.store(ctx, organizationID, message, result)
	return result
}

// confirmWithAI cross-checks a medium-confidence keyword result against the
// classifier. Agreement boosts confidence; disagreement trusts the
// classifier outright.
func (r *HybridRouter) confirmWithAI(ctx context.Context, message string, kw *RoutingResult) *HybridRoutingResult {
	ai := r.classifier.Classify(ctx, message, r.descriptions)

	if ai.Domain == kw.Domain {
		confidence := (kw.Confidence+ai.Confidence)/2 + 0.1
		if confidence > 1.0 {
			confidence = 1.0
		}
		return &HybridRoutingResult{
			Domain:         kw.Domain,
			Confidence:     confidence,
			Strategy:       StrategyHybrid,
			MatchedSignals: append(kw.MatchedKeywords, signalsFromAI(ai)...),
		}
	}

	return &HybridRoutingResult{
		Domain:         ai.Domain,
		Confidence:     ai.Confidence,
		Strategy:       StrategyAI,
		MatchedSignals: signalsFromAI(ai),
		FallbackUsed:   true,
	}
}

// finish stamps timing and records telemetry. A cancelled request writes
// nothing to the shared statistics.
func (r *HybridRouter) finish(ctx context.Context, message string, result *HybridRoutingResult, start time.Time) {
	elapsed := time.Since(start)
	result.ProcessingTimeMs = elapsed.Milliseconds()

	if ctx.Err() != nil {
		return
	}

	r.stats.record(result.Strategy, result.ProcessingTimeMs)
	r.metrics.ObserveDecision(result.Strategy, result.Domain, elapsed.Seconds())

	slog.Debug("message routed",
		"input", strutil.Truncate(message, 50),
		"domain", result.Domain,
		"strategy", result.Strategy,
		"confidence", result.Confidence,
		"fallback", result.FallbackUsed,
		"latency_ms", result.ProcessingTimeMs)
}

// store caches the result. Cancelled requests and zero-confidence results
// are skipped; the latter come from degraded classifier calls and caching
// them would pin a transient failure for the TTL.
func (r *HybridRouter) store(ctx context.Context, organizationID, message string, result *HybridRoutingResult) {
	if r.cache == nil || ctx.Err() != nil || result.Confidence <= 0 {
		return
	}
	r.cache.Set(organizationID, message, result)
}

func signalsFromAI(ai *AIRoutingResult) []string {
	if ai.Reasoning == "" {
		return nil
	}
	return []string{ai.Reasoning}
}
