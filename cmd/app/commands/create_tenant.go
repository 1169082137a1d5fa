package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	tenantDomain "github.com/allisson/trustlog/internal/tenant/domain"
	tenantUseCase "github.com/allisson/trustlog/internal/tenant/usecase"
)

// RunCreateTenant registers a tenant. A retentionYears of zero keeps the
// statutory default; values below it are rejected by the use case.
func RunCreateTenant(
	ctx context.Context,
	tenantUseCase tenantUseCase.TenantUseCase,
	logger *slog.Logger,
	writer io.Writer,
	slug, displayName, consentText string,
	retentionYears int,
	allowForeignIdentity bool,
	format string,
) error {
	if retentionYears < 0 {
		return fmt.Errorf("retention years must be a positive number, got: %d", retentionYears)
	}

	logger.Info("creating tenant", slog.String("slug", slug))

	input := &tenantDomain.CreateTenantInput{
		Slug:                 slug,
		DisplayName:          displayName,
		ConsentText:          consentText,
		AllowForeignIdentity: allowForeignIdentity,
	}
	if retentionYears > 0 {
		input.Retention = &tenantDomain.RetentionPeriod{Years: retentionYears}
	}

	tenant, err := tenantUseCase.Create(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}

	if format == "json" {
		if err := writeJSON(writer, map[string]any{
			"id":           tenant.ID.String(),
			"slug":         tenant.Slug,
			"display_name": tenant.DisplayName,
			"retention":    tenant.Retention,
		}); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(writer, "Tenant created successfully\n")
		_, _ = fmt.Fprintf(writer, "ID: %s\n", tenant.ID)
		_, _ = fmt.Fprintf(writer, "Slug: %s\n", tenant.Slug)
		_, _ = fmt.Fprintf(writer, "Retention: %dy %dm %dd\n",
			tenant.Retention.Years, tenant.Retention.Months, tenant.Retention.Days)
	}

	logger.Info("tenant created", slog.String("tenant_id", tenant.ID.String()))
	return nil
}
