package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	dossierUsecase "github.com/allisson/trustlog/internal/dossier/usecase"
	retentionDomain "github.com/allisson/trustlog/internal/retention/domain"
)

// Job keys.
const (
	JobSignerTick       = "signer.tick"
	JobAlertSchedules   = "alerts.schedules"
	JobDossierIntegrity = "dossiers.integrity"
	JobSyslogClients    = "syslog.clients"
	JobOutboxPurge      = "outbox.purge"
	JobTokenPurge       = "auth.token_purge"
)

// RetentionJobKey returns the key of the retention job for a cadence.
func RetentionJobKey(cadence retentionDomain.Cadence) string {
	return "retention." + string(cadence)
}

// CadenceSpecs maps every retention cadence to its cron spec.
var CadenceSpecs = map[retentionDomain.Cadence]string{
	retentionDomain.CadenceDaily:     "@daily",
	retentionDomain.CadenceWeekly:    "@weekly",
	retentionDomain.CadenceMonthly:   "@monthly",
	retentionDomain.CadenceQuarterly: "0 0 1 */3 *",
}

// Signer ticks the timestamp signing worker.
type Signer interface {
	Tick(ctx context.Context) error
}

// AlertScheduler fires schedule-triggered alert rules.
type AlertScheduler interface {
	RunSchedules(ctx context.Context) error
}

// RetentionRunner runs archive and cleanup for the policies of a cadence.
type RetentionRunner interface {
	RunDue(ctx context.Context, cadence retentionDomain.Cadence) error
}

// DossierSweeper re-verifies frozen dossiers.
type DossierSweeper interface {
	SweepIntegrity(ctx context.Context) (*dossierUsecase.SweepReport, error)
}

// ClientSweeper marks silent syslog clients offline.
type ClientSweeper interface {
	SweepClients(ctx context.Context) (int64, error)
}

// OutboxPurger removes relayed outbox events past their retention.
type OutboxPurger interface {
	Purge(ctx context.Context) (int64, error)
}

// TokenPurger removes expired operator tokens.
type TokenPurger interface {
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

// Jobs holds the components driven by the scheduler. Nil components are not
// scheduled.
type Jobs struct {
	Signer     Signer
	Alerts     AlertScheduler
	Retention  RetentionRunner
	Dossiers   DossierSweeper
	Syslog     ClientSweeper
	Outbox     OutboxPurger
	Tokens     TokenPurger
	SignerTick time.Duration
}

// Register adds every configured job to s.
func Register(s *Scheduler, jobs Jobs) error {
	if jobs.Signer != nil {
		tick := jobs.SignerTick
		if tick <= 0 {
			tick = 5 * time.Second
		}
		if err := s.Add(JobSignerTick, fmt.Sprintf("@every %s", tick), jobs.Signer.Tick); err != nil {
			return err
		}
	}

	if jobs.Alerts != nil {
		if err := s.Add(JobAlertSchedules, "@every 1m", jobs.Alerts.RunSchedules); err != nil {
			return err
		}
	}

	if jobs.Retention != nil {
		for _, cadence := range retentionDomain.Cadences {
			runner := jobs.Retention
			job := func(ctx context.Context) error {
				return runner.RunDue(ctx, cadence)
			}
			if err := s.Add(RetentionJobKey(cadence), CadenceSpecs[cadence], job); err != nil {
				return err
			}
		}
	}

	if jobs.Dossiers != nil {
		sweeper := jobs.Dossiers
		job := func(ctx context.Context) error {
			report, err := sweeper.SweepIntegrity(ctx)
			if err != nil {
				return err
			}
			s.logger.Info("dossier integrity sweep finished",
				slog.Int("checked", report.Checked),
				slog.Int("tampered", report.Tampered),
				slog.Int("rebound", report.Rebound),
				slog.Int("errors", report.Errors),
			)
			return nil
		}
		if err := s.Add(JobDossierIntegrity, "@daily", job); err != nil {
			return err
		}
	}

	if jobs.Syslog != nil {
		job := counted(s, "syslog clients marked offline", jobs.Syslog.SweepClients)
		if err := s.Add(JobSyslogClients, "@every 1m", job); err != nil {
			return err
		}
	}

	if jobs.Outbox != nil {
		if err := s.Add(JobOutboxPurge, "@hourly", counted(s, "outbox events purged", jobs.Outbox.Purge)); err != nil {
			return err
		}
	}

	if jobs.Tokens != nil {
		purger := jobs.Tokens
		purge := func(ctx context.Context) (int64, error) {
			return purger.PurgeExpired(ctx, time.Now().UTC())
		}
		if err := s.Add(JobTokenPurge, "@hourly", counted(s, "expired tokens purged", purge)); err != nil {
			return err
		}
	}

	return nil
}

func counted(s *Scheduler, msg string, fn func(ctx context.Context) (int64, error)) Job {
	return func(ctx context.Context) error {
		n, err := fn(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			s.logger.Info(msg, slog.Int64("count", n))
		}
		return nil
	}
}
