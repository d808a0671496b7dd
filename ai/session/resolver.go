package session

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/ai/routing"
)

// isolationFragmentLen is the number of leading hex characters of a rule id
// appended to the base session id for isolated conversations.
const isolationFragmentLen = 8

// SessionIsolationResolver derives the effective session id for a routing
// decision and loads or seeds its conversation context.
//
// Isolation guarantee: a context created under one effective session id
// never becomes reachable through a different one, except for the one-time
// inherit-on-creation copy from the parent.
type SessionIsolationResolver struct {
	contexts ContextStore
}

// NewSessionIsolationResolver creates a resolver over the given store.
func NewSessionIsolationResolver(contexts ContextStore) *SessionIsolationResolver {
	return &SessionIsolationResolver{contexts: contexts}
}

// IsolationFragment returns the session id suffix for a rule id: its first
// eight hex characters (dashes stripped).
func IsolationFragment(ruleID string) string {
	cleaned := strings.ToLower(strings.ReplaceAll(ruleID, "-", ""))
	if len(cleaned) > isolationFragmentLen {
		cleaned = cleaned[:isolationFragmentLen]
	}
	return cleaned
}

// Resolve derives the effective session id for the decision and returns its
// context. Non-isolated decisions (or decisions without a rule id) resolve
// to the base id. Isolated decisions resolve to base + "_" + rule fragment;
// the isolated context is seeded once from the parent context if that
// exists, and never re-inherited afterwards.
//
// A context store failure degrades to a fresh in-memory context for this
// turn only: continuity is lost but the turn completes.
func (r *SessionIsolationResolver) Resolve(ctx context.Context, baseSessionID string, decision *routing.RoutingDecision) (string, *ConversationContext) {
	if decision == nil || !decision.IsolatedHistory || decision.RuleID == "" {
		return baseSessionID, r.loadOrCreate(ctx, baseSessionID)
	}

	effectiveID := baseSessionID + "_" + IsolationFragment(decision.RuleID)

	existing, ok, err := r.contexts.Get(ctx, effectiveID)
	if err != nil {
		return effectiveID, r.degraded(effectiveID, err)
	}
	if ok {
		// Never re-inherit: the isolated conversation's own history wins
		// over any stale copy of the parent.
		return effectiveID, existing
	}

	initial := r.buildInitialContext(ctx, baseSessionID, effectiveID)

	created, err := r.contexts.CreateIfAbsent(ctx, effectiveID, initial)
	if err != nil {
		return effectiveID, r.degraded(effectiveID, err)
	}
	return effectiveID, created
}

// buildInitialContext seeds a new isolated context from the parent when one
// exists, otherwise starts empty.
func (r *SessionIsolationResolver) buildInitialContext(ctx context.Context, baseSessionID, effectiveID string) *ConversationContext {
	parent, ok, err := r.contexts.Get(ctx, baseSessionID)
	if err != nil || !ok {
		if err != nil {
			slog.Warn("parent context lookup failed, starting isolated context empty",
				"base_session_id", baseSessionID,
				"error", err)
		}
		return NewConversationContext(effectiveID)
	}

	inherited := parent.Clone()
	inherited.ConversationID = effectiveID
	inherited.TotalTurns = 0
	inherited.LastUserMessage = ""
	inherited.LastBotResponse = ""
	inherited.Metadata[MetadataInheritedFrom] = baseSessionID
	inherited.Metadata[MetadataInheritedAt] = time.Now().Format(time.RFC3339)
	now := time.Now()
	inherited.CreatedAt = now
	inherited.UpdatedAt = now

	slog.Debug("isolated context inherited from parent",
		"base_session_id", baseSessionID,
		"effective_session_id", effectiveID)

	return inherited
}

func (r *SessionIsolationResolver) loadOrCreate(ctx context.Context, sessionID string) *ConversationContext {
	existing, ok, err := r.contexts.Get(ctx, sessionID)
	if err != nil {
		return r.degraded(sessionID, err)
	}
	if ok {
		return existing
	}

	created, err := r.contexts.CreateIfAbsent(ctx, sessionID, NewConversationContext(sessionID))
	if err != nil {
		return r.degraded(sessionID, err)
	}
	return created
}

// degraded returns a throwaway context when the store is unavailable.
func (r *SessionIsolationResolver) degraded(sessionID string, err error) *ConversationContext {
	slog.Error("context store unavailable, using ephemeral context for this turn",
		"session_id", sessionID,
		"error", err)
	return NewConversationContext(sessionID)
}
