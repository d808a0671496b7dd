package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/ai/internal/strutil"
	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/ai/routing"
	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/ai/session"
	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/store"
)

// healthCheckTimeout bounds the aggregate health fan-out.
const healthCheckTimeout = 10 * time.Second

// DispatchResult is the outcome of one handled message.
type DispatchResult struct {
	RequestID     string           `json:"request_id"`
	Domain        string           `json:"domain"`
	Agent         string           `json:"agent"`
	SessionID     string           `json:"session_id"`
	Confidence    float64          `json:"confidence"`
	Strategy      routing.Strategy `json:"strategy_used"`
	FallbackUsed  bool             `json:"fallback_used"`
	HandlerResult *HandlerResult   `json:"handler_result,omitempty"`
}

// SessionResolver is the session resolution contract the orchestrator
// depends on.
type SessionResolver interface {
	Resolve(ctx context.Context, baseSessionID string, decision *routing.RoutingDecision) (string, *session.ConversationContext)
}

// Orchestrator wires the routing layers together: bypass rules first, hybrid
// routing otherwise, session resolution, then handler invocation.
type Orchestrator struct {
	bypass   *routing.BypassEvaluator
	hybrid   *routing.HybridRouter
	sessions SessionResolver
	registry *Registry
	metrics  routing.MetricsRecorder
}

// NewOrchestrator creates the top-level dispatcher.
func NewOrchestrator(bypass *routing.BypassEvaluator, hybrid *routing.HybridRouter, sessions SessionResolver, registry *Registry, metrics routing.MetricsRecorder) *Orchestrator {
	if metrics == nil {
		metrics = routing.NopMetrics{}
	}
	return &Orchestrator{
		bypass:   bypass,
		hybrid:   hybrid,
		sessions: sessions,
		registry: registry,
		metrics:  metrics,
	}
}

// Handle routes and executes one inbound message. Only structurally invalid
// input errors out; routing failures degrade to the default domain and
// handler errors are returned alongside the routed result.
func (o *Orchestrator) Handle(ctx context.Context, msg *IncomingMessage) (*DispatchResult, error) {
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}

	start := time.Now()
	requestID := uuid.NewString()
	decision := o.decide(ctx, msg, start)

	// A cancelled turn must leave no trace: no context is created and no
	// handler runs.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("request cancelled before dispatch: %w", err)
	}

	sessionID, conv := o.sessions.Resolve(ctx, msg.BaseSessionID(), decision)

	handler, ok := o.registry.Get(decision.Domain)
	if !ok {
		handler = o.registry.Default()
		decision.FallbackUsed = true
		slog.Warn("no handler registered for domain, using default",
			"domain", decision.Domain,
			"default", handler.Name())
	}
	if decision.Agent == "" {
		decision.Agent = handler.Name()
	}

	result := &DispatchResult{
		RequestID:    requestID,
		Domain:       decision.Domain,
		Agent:        decision.Agent,
		SessionID:    sessionID,
		Confidence:   decision.Confidence,
		Strategy:     decision.Strategy,
		FallbackUsed: decision.FallbackUsed,
	}

	handlerResult, err := handler.Execute(ctx, msg, sessionID, conv, decision)
	if err != nil {
		return result, fmt.Errorf("handler %s failed: %w", decision.Agent, err)
	}
	result.HandlerResult = handlerResult

	slog.Debug("message dispatched",
		"request_id", requestID,
		"input", strutil.Truncate(msg.Text, 50),
		"domain", result.Domain,
		"agent", result.Agent,
		"session_id", sessionID,
		"strategy", result.Strategy,
		"latency_ms", time.Since(start).Milliseconds())

	return result, nil
}

// decide produces the routing decision: bypass rules win outright, otherwise
// the hybrid policy runs.
func (o *Orchestrator) decide(ctx context.Context, msg *IncomingMessage, start time.Time) *routing.RoutingDecision {
	scope := store.Scope{OrganizationID: msg.OrganizationID}

	if match := o.bypass.Evaluate(ctx, msg.SenderID, msg.ChannelID, scope); match != nil {
		o.hybrid.Stats().RecordBypass()
		o.metrics.IncBypassMatch()
		o.metrics.ObserveDecision(routing.StrategyBypass, match.Domain, time.Since(start).Seconds())
		return &routing.RoutingDecision{
			Domain:           match.Domain,
			Agent:            match.TargetAgent,
			Confidence:       1.0,
			Strategy:         routing.StrategyBypass,
			IsolatedHistory:  match.IsolatedHistory,
			RuleID:           match.RuleID,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
		}
	}

	routed := o.hybrid.Route(ctx, msg.OrganizationID, msg.Text)
	return &routing.RoutingDecision{
		Domain:           routed.Domain,
		Confidence:       routed.Confidence,
		Strategy:         routed.Strategy,
		MatchedSignals:   routed.MatchedSignals,
		FallbackUsed:     routed.FallbackUsed,
		ProcessingTimeMs: routed.ProcessingTimeMs,
	}
}

// HealthCheck queries every registered handler concurrently and aggregates
// the results by domain. The default handler reports under "default".
func (o *Orchestrator) HealthCheck(ctx context.Context) map[string]HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	var mu sync.Mutex
	results := make(map[string]HealthStatus)

	g, gctx := errgroup.WithContext(ctx)
	for _, domain := range o.registry.Domains() {
		domain := domain
		handler, ok := o.registry.Get(domain)
		if !ok {
			continue
		}
		g.Go(func() error {
			status := handler.HealthCheck(gctx)
			mu.Lock()
			results[domain] = status
			mu.Unlock()
			return nil
		})
	}
	if def := o.registry.Default(); def != nil {
		g.Go(func() error {
			status := def.HealthCheck(gctx)
			mu.Lock()
			results["default"] = status
			mu.Unlock()
			return nil
		})
	}

	// Handlers report status instead of failing; the group only propagates
	// context cancellation.
	_ = g.Wait()
	return results
}
