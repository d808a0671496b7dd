// Package routing implements the layered message routing engine: tenant
// bypass rules, keyword scoring, LLM classification, and the hybrid policy
// that combines them into a single routed decision.
package routing

import "context"

// Strategy identifies which layer produced a routing decision.
type Strategy string

const (
	StrategyBypass  Strategy = "bypass"
	StrategyKeyword Strategy = "keyword"
	StrategyAI      Strategy = "ai"
	StrategyHybrid  Strategy = "hybrid"
)

// Generator is the narrow language-model contract the classifier consumes.
// Implementations must honor context cancellation and treat an empty string
// as a valid "no answer" response.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error)
}

// RoutingResult is the outcome of keyword scoring for one message.
type RoutingResult struct {
	Domain          string   `json:"domain"`
	Confidence      float64  `json:"confidence"`
	MatchedKeywords []string `json:"matched_keywords,omitempty"`
}

// AIRoutingResult is the outcome of one classifier call. Failures are
// absorbed into the result; a classifier call never errors to the caller.
type AIRoutingResult struct {
	Domain     string  `json:"domain"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

// HybridRoutingResult is the final outcome of the hybrid policy.
type HybridRoutingResult struct {
	Domain           string   `json:"domain"`
	Confidence       float64  `json:"confidence"`
	Strategy         Strategy `json:"strategy_used"`
	MatchedSignals   []string `json:"matched_signals,omitempty"`
	FallbackUsed     bool     `json:"fallback_used"`
	ProcessingTimeMs int64    `json:"processing_time_ms"`
}

// RoutingDecision is the engine output handed to session resolution and
// dispatch. RuleID is set only for bypass-sourced decisions.
type RoutingDecision struct {
	Domain           string   `json:"domain"`
	Agent            string   `json:"agent,omitempty"`
	Confidence       float64  `json:"confidence"`
	Strategy         Strategy `json:"strategy_used"`
	MatchedSignals   []string `json:"matched_signals,omitempty"`
	IsolatedHistory  bool     `json:"isolated_history"`
	RuleID           string   `json:"rule_id,omitempty"`
	FallbackUsed     bool     `json:"fallback_used"`
	ProcessingTimeMs int64    `json:"processing_time_ms"`
}

// MetricsRecorder receives routing telemetry. The engine only writes to it;
// recorded values never feed back into decisions.
type MetricsRecorder interface {
	ObserveDecision(strategy Strategy, domain string, seconds float64)
	IncClassifierFailure()
	IncBypassMatch()
	IncCacheHit()
	IncCacheMiss()
}

// NopMetrics is a MetricsRecorder that discards everything.
type NopMetrics struct{}

func (NopMetrics) ObserveDecision(Strategy, string, float64) {}
func (NopMetrics) IncClassifierFailure()                     {}
func (NopMetrics) IncBypassMatch()                           {}
func (NopMetrics) IncCacheHit()                              {}
func (NopMetrics) IncCacheMiss()                             {}
