package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/store"
)

// GetEnabledBypassRules returns enabled rules for the scope ordered by
// (priority desc, rule_name asc). Disabled rules are filtered in SQL.
func (d *DB) GetEnabledBypassRules(ctx context.Context, scope store.Scope) ([]*store.BypassRule, error) {
	query := `SELECT id, organization_id, rule_name, rule_type, pattern, phone_numbers,
		phone_number_id, target_domain, target_agent, isolated_history, priority, enabled,
		created_at, updated_at
		FROM bypass_rules WHERE enabled = TRUE`
	args := []any{}

	if !scope.Global() {
		query += " AND organization_id = " + placeholder(1)
		args = append(args, scope.OrganizationID)
	}
	query += " ORDER BY priority DESC, rule_name ASC"

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bypass rules: %w", err)
	}
	defer rows.Close()

	var rules []*store.BypassRule
	for rows.Next() {
		var r store.BypassRule
		var pattern, phoneNumberID, targetDomain sql.NullString
		var isolated sql.NullBool
		var numbers pq.StringArray

		err := rows.Scan(&r.ID, &r.OrganizationID, &r.RuleName, &r.RuleType,
			&pattern, &numbers, &phoneNumberID, &targetDomain, &r.TargetAgent,
			&isolated, &r.Priority, &r.Enabled, &r.CreatedAt, &r.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bypass rule: %w", err)
		}

		r.Pattern = pattern.String
		r.PhoneNumbers = []string(numbers)
		r.PhoneNumberID = phoneNumberID.String
		r.TargetDomain = targetDomain.String
		if isolated.Valid {
			v := isolated.Bool
			r.IsolatedHistory = &v
		}
		rules = append(rules, &r)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bypass rule rows: %w", err)
	}
	return rules, nil
}

// GetDefaultDomain returns the tenant's configured default domain, or empty
// when the tenant is unknown or has none configured.
func (d *DB) GetDefaultDomain(ctx context.Context, organizationID string) (string, error) {
	stmt := `SELECT default_domain FROM organizations WHERE id = ` + placeholder(1)

	var domain sql.NullString
	err := d.db.QueryRowContext(ctx, stmt, organizationID).Scan(&domain)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get default domain: %w", err)
	}
	return domain.String, nil
}

var _ store.TenantStore = (*DB)(nil)
