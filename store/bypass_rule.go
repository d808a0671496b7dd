// Package store defines the persistence contracts consumed by the routing
// engine and the record types they exchange.
package store

import (
	"context"
	"time"
)

// RuleType discriminates how a bypass rule matches an inbound message.
type RuleType string

const (
	// RuleTypePhoneNumber matches the sender id against a pattern,
	// optionally wildcarded with a trailing '*'.
	RuleTypePhoneNumber RuleType = "phone_number"

	// RuleTypePhoneNumberList matches the sender id against an exact set.
	RuleTypePhoneNumberList RuleType = "phone_number_list"

	// RuleTypeWhatsAppPhoneNumberID matches the channel id exactly;
	// the sender id is ignored.
	RuleTypeWhatsAppPhoneNumberID RuleType = "whatsapp_phone_number_id"
)

// BypassRule is a tenant-defined override that routes specific senders or
// channels directly to a domain/agent, skipping scoring. Exactly one of
// Pattern / PhoneNumbers / PhoneNumberID is meaningful, selected by RuleType.
// Rules are read-only to the engine; administrators own their lifecycle.
type BypassRule struct {
	ID             string
	OrganizationID string
	RuleName       string
	RuleType       RuleType
	Pattern        string
	PhoneNumbers   []string
	PhoneNumberID  string
	TargetDomain   string // empty falls back to the tenant default domain
	TargetAgent    string
	// IsolatedHistory is nullable in storage; nil means false.
	IsolatedHistory *bool
	Priority        int
	Enabled         bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Isolated reports the effective isolation flag (false when unset).
func (r *BypassRule) Isolated() bool {
	return r.IsolatedHistory != nil && *r.IsolatedHistory
}

// Scope selects which rules an evaluation sees: a single tenant's rules, or
// the global set when OrganizationID is empty.
type Scope struct {
	OrganizationID string
}

// Global reports whether the scope covers all tenants.
func (s Scope) Global() bool {
	return s.OrganizationID == ""
}

// TenantStore is the tenant/organization persistence contract.
type TenantStore interface {
	// GetEnabledBypassRules returns enabled rules for the scope ordered by
	// (priority desc, rule_name asc).
	GetEnabledBypassRules(ctx context.Context, scope Scope) ([]*BypassRule, error)

	// GetDefaultDomain returns the tenant's configured default domain, or
	// empty when the tenant has none.
	GetDefaultDomain(ctx context.Context, organizationID string) (string, error)
}
