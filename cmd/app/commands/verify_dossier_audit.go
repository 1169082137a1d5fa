package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	dossierUseCase "github.com/allisson/trustlog/internal/dossier/usecase"
)

// RunVerifyDossierAudit checks the HMAC signature of every audit entry of a
// dossier and exits non-zero when any entry was altered.
func RunVerifyDossierAudit(
	ctx context.Context,
	dossierUseCase dossierUseCase.DossierUseCase,
	logger *slog.Logger,
	writer io.Writer,
	tenantID, dossierID string,
	format string,
) error {
	tid, err := parseID("tenant id", tenantID)
	if err != nil {
		return err
	}
	did, err := parseID("dossier id", dossierID)
	if err != nil {
		return err
	}

	logger.Info("verifying dossier audit trail",
		slog.String("tenant_id", tid.String()),
		slog.String("dossier_id", did.String()),
	)

	report, err := dossierUseCase.VerifyAudit(ctx, tid, did)
	if err != nil {
		return fmt.Errorf("failed to verify dossier audit trail: %w", err)
	}

	if format == "json" {
		if err := writeJSON(writer, map[string]any{
			"dossier_id": did.String(),
			"checked":    report.Checked,
			"valid":      report.Valid,
			"invalid":    report.Invalid,
			"unsigned":   report.Unsigned,
			"passed":     report.Invalid == 0,
		}); err != nil {
			return fmt.Errorf("failed to output JSON: %w", err)
		}
	} else {
		_, _ = fmt.Fprintf(writer, "Dossier Audit Trail Verification\n")
		_, _ = fmt.Fprintf(writer, "================================\n\n")
		_, _ = fmt.Fprintf(writer, "Dossier:  %s\n\n", did)
		_, _ = fmt.Fprintf(writer, "Checked:  %d\n", report.Checked)
		_, _ = fmt.Fprintf(writer, "Valid:    %d\n", report.Valid)
		_, _ = fmt.Fprintf(writer, "Invalid:  %d\n", report.Invalid)
		_, _ = fmt.Fprintf(writer, "Unsigned: %d\n\n", report.Unsigned)
		if report.Invalid > 0 {
			_, _ = fmt.Fprintf(writer, "Status: FAILED\n")
		} else {
			_, _ = fmt.Fprintf(writer, "Status: PASSED\n")
		}
	}

	logger.Info("verification completed",
		slog.Int("checked", report.Checked),
		slog.Int("valid", report.Valid),
		slog.Int("invalid", report.Invalid),
	)

	if report.Invalid > 0 {
		return fmt.Errorf("integrity check failed: %d invalid audit entr(ies)", report.Invalid)
	}

	return nil
}
