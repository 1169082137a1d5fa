package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	recordDomain "github.com/allisson/trustlog/internal/record/domain"
	retentionUseCase "github.com/allisson/trustlog/internal/retention/usecase"
)

var allKinds = []recordDomain.Kind{recordDomain.KindSession, recordDomain.KindSyslog, recordDomain.KindFlow}

// parseKinds resolves a --kind flag. "all" selects every record kind.
func parseKinds(kind string) ([]recordDomain.Kind, error) {
	if kind == "all" {
		return allKinds, nil
	}
	k := recordDomain.Kind(kind)
	if !k.Valid() {
		return nil, fmt.Errorf("invalid kind: %s (valid options: session, syslog, flow, all)", kind)
	}
	return []recordDomain.Kind{k}, nil
}

// RunArchive archives the sealed records of the tenant that passed their
// archive_after threshold, one job per kind.
func RunArchive(
	ctx context.Context,
	retentionUseCase retentionUseCase.RetentionUseCase,
	logger *slog.Logger,
	writer io.Writer,
	tenantID, kind string,
	format string,
) error {
	tid, err := parseID("tenant id", tenantID)
	if err != nil {
		return err
	}
	kinds, err := parseKinds(kind)
	if err != nil {
		return err
	}

	results := make([]map[string]any, 0, len(kinds))
	for _, k := range kinds {
		logger.Info("running archive", slog.String("tenant_id", tid.String()), slog.String("kind", string(k)))

		job, err := retentionUseCase.RunArchive(ctx, tid, k)
		if err != nil {
			return fmt.Errorf("failed to archive %s records: %w", k, err)
		}

		result := map[string]any{"kind": string(k), "records": 0}
		if job != nil {
			result["job_id"] = job.ID.String()
			result["status"] = string(job.Status)
			result["backend"] = string(job.Backend)
			result["records"] = job.RecordCount
			result["sha256"] = job.SHA256
		}
		results = append(results, result)

		if format != "json" {
			if job == nil {
				_, _ = fmt.Fprintf(writer, "%s: nothing to archive\n", k)
			} else {
				_, _ = fmt.Fprintf(writer, "%s: archived %d record(s) to %s (job %s, %s)\n",
					k, job.RecordCount, job.Backend, job.ID, job.Status)
			}
		}
	}

	if format == "json" {
		return writeJSON(writer, map[string]any{"tenant_id": tid.String(), "jobs": results})
	}
	return nil
}

// RunCleanup deletes archived records of the tenant whose retention expired
// and that pass every deletion check. Skipped records are reported by reason.
func RunCleanup(
	ctx context.Context,
	retentionUseCase retentionUseCase.RetentionUseCase,
	logger *slog.Logger,
	writer io.Writer,
	tenantID, kind string,
	format string,
) error {
	tid, err := parseID("tenant id", tenantID)
	if err != nil {
		return err
	}
	kinds, err := parseKinds(kind)
	if err != nil {
		return err
	}

	results := make([]map[string]any, 0, len(kinds))
	for _, k := range kinds {
		logger.Info("running cleanup", slog.String("tenant_id", tid.String()), slog.String("kind", string(k)))

		report, err := retentionUseCase.RunCleanup(ctx, tid, k)
		if err != nil {
			return fmt.Errorf("failed to clean up %s records: %w", k, err)
		}

		results = append(results, map[string]any{
			"kind":    string(k),
			"checked": report.Checked,
			"purged":  report.Purged,
			"skipped": report.Skipped,
			"reasons": report.Reasons,
		})

		if format != "json" {
			_, _ = fmt.Fprintf(writer, "%s: checked %d, purged %d, skipped %d\n",
				k, report.Checked, report.Purged, report.Skipped)
			for reason, count := range report.Reasons {
				_, _ = fmt.Fprintf(writer, "  - %s: %d\n", reason, count)
			}
		}
	}

	if format == "json" {
		return writeJSON(writer, map[string]any{"tenant_id": tid.String(), "results": results})
	}
	return nil
}
