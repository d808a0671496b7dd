package routing

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/ai/internal/strutil"
	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/store"
)

// BypassMatch is the outcome of a bypass rule hit: the message skips scoring
// and routes directly to the rule's domain and agent.
type BypassMatch struct {
	OrganizationID  string `json:"organization_id"`
	Domain          string `json:"domain"`
	TargetAgent     string `json:"target_agent"`
	IsolatedHistory bool   `json:"isolated_history"`
	RuleID          string `json:"rule_id"`
}

// RuleMatches evaluates a single bypass rule against the sender and channel
// identifiers. A missing required discriminator (e.g. no channel id for a
// channel-scoped rule) is a non-match, not an error. Disabled rules never
// match.
func RuleMatches(rule *store.BypassRule, senderID, channelID string) bool {
	if rule == nil || !rule.Enabled {
		return false
	}

	switch rule.RuleType {
	case store.RuleTypePhoneNumber:
		if rule.Pattern == "" || senderID == "" {
			return false
		}
		if strings.HasSuffix(rule.Pattern, "*") {
			return strings.HasPrefix(senderID, strings.TrimSuffix(rule.Pattern, "*"))
		}
		return senderID == rule.Pattern

	case store.RuleTypePhoneNumberList:
		if senderID == "" {
			return false
		}
		for _, n := range rule.PhoneNumbers {
			if senderID == n {
				return true
			}
		}
		return false

	case store.RuleTypeWhatsAppPhoneNumberID:
		// Sender id is ignored for channel-scoped rules.
		if rule.PhoneNumberID == "" || channelID == "" {
			return false
		}
		return channelID == rule.PhoneNumberID

	default:
		return false
	}
}

// BypassEvaluator applies tenant-defined override rules before any scoring
// runs. It is read-only over the rule set.
type BypassEvaluator struct {
	tenants        store.TenantStore
	fallbackDomain string
}

// NewBypassEvaluator creates an evaluator backed by the given tenant store.
// fallbackDomain is the system-wide default used when a matching rule has no
// target domain and the tenant has no default either.
func NewBypassEvaluator(tenants store.TenantStore, fallbackDomain string) *BypassEvaluator {
	return &BypassEvaluator{tenants: tenants, fallbackDomain: fallbackDomain}
}

// Evaluate returns the first matching enabled rule in (priority desc,
// rule_name asc) order, or nil when no rule matches. A rule store failure is
// logged and treated as "no match" so the caller proceeds to scoring; the
// engine always produces some decision.
func (e *BypassEvaluator) Evaluate(ctx context.Context, senderID, channelID string, scope store.Scope) *BypassMatch {
	rules, err := e.tenants.GetEnabledBypassRules(ctx, scope)
	if err != nil {
		slog.Warn("bypass rule load failed, continuing without overrides",
			"organization_id", scope.OrganizationID,
			"error", err)
		return nil
	}
	if len(rules) == 0 {
		return nil
	}

	// The store contract returns rules ordered, but ordering is what makes
	// evaluation deterministic, so it is enforced here as well.
	ordered := make([]*store.BypassRule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority > ordered[j].Priority
		}
		return ordered[i].RuleName < ordered[j].RuleName
	})

	for _, rule := range ordered {
		if !RuleMatches(rule, senderID, channelID) {
			continue
		}

		match := &BypassMatch{
			OrganizationID:  rule.OrganizationID,
			Domain:          e.resolveDomain(ctx, rule),
			TargetAgent:     rule.TargetAgent,
			IsolatedHistory: rule.Isolated(),
			RuleID:          rule.ID,
		}
		slog.Debug("bypass rule matched",
			"rule", rule.RuleName,
			"rule_id", rule.ID,
			"sender", strutil.Truncate(senderID, 20),
			"domain", match.Domain,
			"isolated", match.IsolatedHistory)
		return match
	}
	return nil
}

// resolveDomain picks the routed domain for a matched rule: the rule's own
// target, else the tenant default, else the system fallback.
func (e *BypassEvaluator) resolveDomain(ctx context.Context, rule *store.BypassRule) string {
	if rule.TargetDomain != "" {
		return rule.TargetDomain
	}
	if domain, err := e.tenants.GetDefaultDomain(ctx, rule.OrganizationID); err == nil && domain != "" {
		return domain
	}
	return e.fallbackDomain
}
