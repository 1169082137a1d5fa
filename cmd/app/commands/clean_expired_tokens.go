package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	authUseCase "github.com/allisson/trustlog/internal/auth/usecase"
)

// RunCleanExpiredTokens deletes operator tokens that expired more than days ago.
// The scheduler purges expired tokens daily; this command runs the same purge
// on demand with a custom cutoff.
func RunCleanExpiredTokens(
	ctx context.Context,
	tokenUseCase authUseCase.TokenUseCase,
	logger *slog.Logger,
	writer io.Writer,
	days int,
	format string,
) error {
	if days < 0 {
		return fmt.Errorf("days must be a positive number, got: %d", days)
	}

	logger.Info("cleaning expired tokens", slog.Int("days", days))

	before := time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
	count, err := tokenUseCase.PurgeExpired(ctx, before)
	if err != nil {
		return fmt.Errorf("failed to purge expired tokens: %w", err)
	}

	if format == "json" {
		if err := writeJSON(writer, map[string]any{
			"count": count,
			"days":  days,
		}); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(writer, "Successfully deleted %d expired token(s) older than %d day(s)\n", count, days)
	}

	logger.Info("cleanup completed", slog.Int64("count", count), slog.Int("days", days))
	return nil
}
