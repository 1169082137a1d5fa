package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/netip"
	"strings"
	"time"

	authDomain "github.com/allisson/trustlog/internal/auth/domain"
	authUseCase "github.com/allisson/trustlog/internal/auth/usecase"
)

// RunCreateOperator creates an operator with a single tenant membership and
// prints the generated secret. The secret is shown only once.
func RunCreateOperator(
	ctx context.Context,
	operatorUseCase authUseCase.OperatorUseCase,
	logger *slog.Logger,
	writer io.Writer,
	username, tenantID, role, allowedCIDRs string,
	validDays int,
	format string,
) error {
	tid, err := parseID("tenant id", tenantID)
	if err != nil {
		return err
	}

	r := authDomain.Role(role)
	if !authDomain.ValidRole(r) {
		return fmt.Errorf("invalid role: %s (valid options: admin, staff, viewer)", role)
	}

	if validDays < 0 {
		return fmt.Errorf("valid days must be a positive number, got: %d", validDays)
	}

	var prefixes []netip.Prefix
	for _, raw := range strings.Split(allowedCIDRs, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		prefix, err := netip.ParsePrefix(raw)
		if err != nil {
			return fmt.Errorf("invalid cidr %q: %w", raw, err)
		}
		prefixes = append(prefixes, prefix)
	}

	input := &authDomain.CreateOperatorInput{
		Username: username,
		IsActive: true,
		Memberships: []authDomain.Membership{{
			TenantID:    tid,
			Role:        r,
			Permissions: authDomain.DefaultPermissions(r),
		}},
		AllowedCIDRs: prefixes,
	}
	if validDays > 0 {
		until := time.Now().UTC().Add(time.Duration(validDays) * 24 * time.Hour)
		input.ValidUntil = &until
	}

	logger.Info("creating operator",
		slog.String("username", username),
		slog.String("tenant_id", tid.String()),
		slog.String("role", role),
	)

	output, err := operatorUseCase.Create(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to create operator: %w", err)
	}

	if format == "json" {
		if err := writeJSON(writer, map[string]any{
			"id":     output.ID.String(),
			"secret": output.PlainSecret,
		}); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintln(writer, "Operator created successfully")
		_, _ = fmt.Fprintf(writer, "ID: %s\n", output.ID)
		_, _ = fmt.Fprintf(writer, "Secret: %s\n", output.PlainSecret)
		_, _ = fmt.Fprintln(writer, "WARNING: Save this secret securely. It will not be shown again.")
	}

	logger.Info("operator created", slog.String("operator_id", output.ID.String()))
	return nil
}
