package store

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
)

// MemoryTenantStore is an in-memory TenantStore. Rule reloads swap the whole
// slice atomically so in-flight evaluations keep the snapshot they started
// with. Used by tests and by deployments that push rules from config.
type MemoryTenantStore struct {
	rules          atomic.Pointer[[]*BypassRule]
	defaultDomains map[string]string
	mu             sync.RWMutex
}

// NewMemoryTenantStore creates a store seeded with the given rules.
func NewMemoryTenantStore(rules []*BypassRule) *MemoryTenantStore {
	s := &MemoryTenantStore{
		defaultDomains: make(map[string]string),
	}
	s.Reload(rules)
	return s
}

// Reload replaces the rule set. The new slice is sorted once and published
// with an atomic pointer swap; readers never observe partial updates.
func (s *MemoryTenantStore) Reload(rules []*BypassRule) {
	sorted := make([]*BypassRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority > sorted[j].Priority
		}
		return sorted[i].RuleName < sorted[j].RuleName
	})
	s.rules.Store(&sorted)
}

// SetDefaultDomain configures a tenant's default domain.
func (s *MemoryTenantStore) SetDefaultDomain(organizationID, domain string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultDomains[organizationID] = domain
}

// GetEnabledBypassRules returns enabled rules for the scope ordered by
// (priority desc, rule_name asc).
func (s *MemoryTenantStore) GetEnabledBypassRules(_ context.Context, scope Scope) ([]*BypassRule, error) {
	snapshot := s.rules.Load()
	if snapshot == nil {
		return nil, nil
	}

	var out []*BypassRule
	for _, r := range *snapshot {
		if !r.Enabled {
			continue
		}
		if !scope.Global() && r.OrganizationID != scope.OrganizationID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// GetDefaultDomain returns the tenant's configured default domain.
func (s *MemoryTenantStore) GetDefaultDomain(_ context.Context, organizationID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultDomains[organizationID], nil
}

var _ TenantStore = (*MemoryTenantStore)(nil)
