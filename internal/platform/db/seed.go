package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"sentra/internal/platform/config"
)

// Seed provisions the default organisation, its admin user, and a
// conservative default policy set. Safe to run on every boot.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	var orgID string
	err := pool.QueryRow(ctx, `
    INSERT INTO organisations (name, status)
    VALUES ($1, 'active')
    ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
    RETURNING id
  `, cfg.SeedOrgName).Scan(&orgID)
	if err != nil {
		return fmt.Errorf("seed organisation: %w", err)
	}

	if strings.TrimSpace(cfg.SeedAdminEmail) != "" {
		password := cfg.SeedAdminPassword
		if password == "" {
			password = "change-me"
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		if _, err := pool.Exec(ctx, `
      INSERT INTO users (organisation_id, email, full_name, password_hash, role, status)
      VALUES ($1, $2, 'Administrator', $3, 'admin', 'active')
      ON CONFLICT (organisation_id, email) DO NOTHING
    `, orgID, strings.ToLower(cfg.SeedAdminEmail), string(hash)); err != nil {
			return fmt.Errorf("seed admin user: %w", err)
		}
	}

	type defaultPolicy struct {
		dataType      string
		retentionDays int
		graceDays     int
		legalBasis    string
		regulation    string
		eraseMethod   string
		automatic     bool
	}
	defaults := []defaultPolicy{
		{"audit_logs", 2555, 30, "legal_obligation", "statutory audit trail retention", "simple_delete", false},
		{"communications", 180, 30, "legitimate_interest", "", "overwrite_multiple", true},
		{"course_progress", 1095, 30, "contract", "", "simple_delete", true},
		{"certificates", 1825, 60, "legal_obligation", "statutory qualification records", "simple_delete", false},
		{"user_profile", 1095, 30, "consent", "", "overwrite_multiple", false},
	}
	for _, p := range defaults {
		if _, err := pool.Exec(ctx, `
      INSERT INTO retention_policies
        (organisation_id, data_type, retention_period_days, grace_period_days,
         priority, legal_basis, regulatory_requirement, automatic_deletion,
         deletion_method, secure_erase_method, enabled)
      VALUES ($1, $2, $3, $4, 0, $5, NULLIF($6, ''), $7, 'soft_delete', $8, true)
      ON CONFLICT (organisation_id, data_type, priority) DO NOTHING
    `, orgID, p.dataType, p.retentionDays, p.graceDays, p.legalBasis, p.regulation, p.automatic, p.eraseMethod); err != nil {
			return fmt.Errorf("seed policy %s: %w", p.dataType, err)
		}
	}

	slog.Info("seed completed", "organisationId", orgID)
	return nil
}
