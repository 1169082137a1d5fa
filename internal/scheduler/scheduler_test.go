package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	dossierUsecase "github.com/allisson/trustlog/internal/dossier/usecase"
	retentionDomain "github.com/allisson/trustlog/internal/retention/domain"
)

func newTestScheduler() *Scheduler {
	return NewScheduler(slog.New(slog.DiscardHandler), nil)
}

func TestScheduler_Add(t *testing.T) {
	t.Run("Success_DescriptorAndStandardSpec", func(t *testing.T) {
		s := newTestScheduler()
		defer s.Stop()

		require.NoError(t, s.Add("a", "@every 1m", func(ctx context.Context) error { return nil }))
		require.NoError(t, s.Add("b", "0 0 1 */3 *", func(ctx context.Context) error { return nil }))

		keys := s.Keys()
		sort.Strings(keys)
		assert.Equal(t, []string{"a", "b"}, keys)
	})

	t.Run("Error_DuplicateKey", func(t *testing.T) {
		s := newTestScheduler()
		defer s.Stop()

		require.NoError(t, s.Add("a", "@daily", func(ctx context.Context) error { return nil }))
		assert.Error(t, s.Add("a", "@daily", func(ctx context.Context) error { return nil }))
	})

	t.Run("Error_SecondsFieldRejected", func(t *testing.T) {
		s := newTestScheduler()
		defer s.Stop()

		assert.Error(t, s.Add("a", "0 0 0 1 * *", func(ctx context.Context) error { return nil }))
		assert.Empty(t, s.Keys())
	})
}

func TestScheduler_Trigger(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("SkipsWhileRunning", func(t *testing.T) {
		s := newTestScheduler()

		started := make(chan struct{})
		release := make(chan struct{})
		var runs atomic.Int32
		require.NoError(t, s.Add("slow", "@daily", func(ctx context.Context) error {
			runs.Add(1)
			close(started)
			<-release
			return nil
		}))

		assert.True(t, s.Trigger("slow"))
		<-started
		assert.False(t, s.Trigger("slow"))

		close(release)
		s.Stop()
		assert.Equal(t, int32(1), runs.Load())
	})

	t.Run("RunsAgainAfterCompletion", func(t *testing.T) {
		s := newTestScheduler()

		done := make(chan struct{}, 2)
		require.NoError(t, s.Add("fast", "@daily", func(ctx context.Context) error {
			done <- struct{}{}
			return nil
		}))

		require.True(t, s.Trigger("fast"))
		<-done
		assert.Eventually(t, func() bool { return s.Trigger("fast") }, time.Second, 5*time.Millisecond)
		<-done
		s.Stop()
	})

	t.Run("UnknownKey", func(t *testing.T) {
		s := newTestScheduler()
		defer s.Stop()

		assert.False(t, s.Trigger("missing"))
	})

	t.Run("FailureAndPanicAreContained", func(t *testing.T) {
		s := newTestScheduler()

		done := make(chan struct{}, 2)
		require.NoError(t, s.Add("fails", "@daily", func(ctx context.Context) error {
			defer func() { done <- struct{}{} }()
			return errors.New("boom")
		}))
		require.NoError(t, s.Add("panics", "@daily", func(ctx context.Context) error {
			defer func() { done <- struct{}{} }()
			panic("boom")
		}))

		assert.True(t, s.Trigger("fails"))
		assert.True(t, s.Trigger("panics"))
		<-done
		<-done
		s.Stop()
	})

	t.Run("StopCancelsRunsAndRefusesNewOnes", func(t *testing.T) {
		s := newTestScheduler()

		started := make(chan struct{})
		var cancelled atomic.Bool
		require.NoError(t, s.Add("long", "@daily", func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			cancelled.Store(true)
			return ctx.Err()
		}))

		require.True(t, s.Trigger("long"))
		<-started
		s.Stop()

		assert.True(t, cancelled.Load())
		assert.False(t, s.Trigger("long"))
	})

	t.Run("TimeoutBoundsRun", func(t *testing.T) {
		s := NewScheduler(slog.New(slog.DiscardHandler), nil, WithTimeout(10*time.Millisecond))

		result := make(chan error, 1)
		require.NoError(t, s.Add("bounded", "@daily", func(ctx context.Context) error {
			<-ctx.Done()
			result <- ctx.Err()
			return ctx.Err()
		}))

		require.True(t, s.Trigger("bounded"))
		assert.ErrorIs(t, <-result, context.DeadlineExceeded)
		s.Stop()
	})
}

func TestScheduler_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("ParentContextStopsScheduler", func(t *testing.T) {
		s := newTestScheduler()
		require.NoError(t, s.Add("tick", "@every 1h", func(ctx context.Context) error { return nil }))

		ctx, cancel := context.WithCancel(context.Background())
		s.Start(ctx)
		assert.False(t, s.Next("tick").IsZero())

		cancel()
		assert.Eventually(t, func() bool { return !s.Trigger("tick") }, time.Second, 5*time.Millisecond)
		s.Stop()
	})

	t.Run("EveryScheduleFires", func(t *testing.T) {
		s := newTestScheduler()

		fired := make(chan struct{}, 1)
		require.NoError(t, s.Add("tick", "@every 1s", func(ctx context.Context) error {
			select {
			case fired <- struct{}{}:
			default:
			}
			return nil
		}))

		s.Start(context.Background())
		select {
		case <-fired:
		case <-time.After(3 * time.Second):
			t.Fatal("job did not fire")
		}
		s.Stop()
	})
}

type fakeSigner struct{ ticks atomic.Int32 }

func (f *fakeSigner) Tick(ctx context.Context) error {
	f.ticks.Add(1)
	return nil
}

type fakeAlerts struct{}

func (fakeAlerts) RunSchedules(ctx context.Context) error { return nil }

type fakeRetention struct{ cadences chan retentionDomain.Cadence }

func (f *fakeRetention) RunDue(ctx context.Context, cadence retentionDomain.Cadence) error {
	f.cadences <- cadence
	return nil
}

type fakeDossiers struct{ sweeps atomic.Int32 }

func (f *fakeDossiers) SweepIntegrity(ctx context.Context) (*dossierUsecase.SweepReport, error) {
	f.sweeps.Add(1)
	return &dossierUsecase.SweepReport{Checked: 3, Tampered: 1}, nil
}

type fakeCounter struct{ calls chan struct{} }

func (f *fakeCounter) SweepClients(ctx context.Context) (int64, error) {
	f.calls <- struct{}{}
	return 2, nil
}

func (f *fakeCounter) Purge(ctx context.Context) (int64, error) {
	f.calls <- struct{}{}
	return 0, nil
}

func (f *fakeCounter) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	f.calls <- struct{}{}
	return 1, nil
}

func TestRegister(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("AllJobs", func(t *testing.T) {
		s := newTestScheduler()

		retention := &fakeRetention{cadences: make(chan retentionDomain.Cadence, 1)}
		dossiers := &fakeDossiers{}
		counter := &fakeCounter{calls: make(chan struct{}, 1)}

		require.NoError(t, Register(s, Jobs{
			Signer:     &fakeSigner{},
			Alerts:     fakeAlerts{},
			Retention:  retention,
			Dossiers:   dossiers,
			Syslog:     counter,
			Outbox:     counter,
			Tokens:     counter,
			SignerTick: 2 * time.Second,
		}))

		keys := s.Keys()
		sort.Strings(keys)
		assert.Equal(t, []string{
			JobAlertSchedules,
			JobTokenPurge,
			JobDossierIntegrity,
			JobOutboxPurge,
			"retention.daily",
			"retention.monthly",
			"retention.quarterly",
			"retention.weekly",
			JobSignerTick,
			JobSyslogClients,
		}, keys)

		require.True(t, s.Trigger(RetentionJobKey(retentionDomain.CadenceQuarterly)))
		assert.Equal(t, retentionDomain.CadenceQuarterly, <-retention.cadences)

		require.True(t, s.Trigger(JobSyslogClients))
		<-counter.calls

		require.True(t, s.Trigger(JobDossierIntegrity))
		assert.Eventually(t, func() bool { return dossiers.sweeps.Load() == 1 }, time.Second, 5*time.Millisecond)

		s.Stop()
	})

	t.Run("NilComponentsSkipped", func(t *testing.T) {
		s := newTestScheduler()
		defer s.Stop()

		require.NoError(t, Register(s, Jobs{Alerts: fakeAlerts{}}))
		assert.Equal(t, []string{JobAlertSchedules}, s.Keys())
	})

	t.Run("QuarterlySpecRunsOnFirstOfQuarter", func(t *testing.T) {
		s := newTestScheduler()
		defer s.Stop()

		require.NoError(t, Register(s, Jobs{Retention: &fakeRetention{cadences: make(chan retentionDomain.Cadence, 1)}}))

		s.cron.Start()
		next := s.Next(RetentionJobKey(retentionDomain.CadenceQuarterly))
		require.False(t, next.IsZero())
		assert.Equal(t, 1, next.Day())
		assert.Equal(t, 0, (int(next.Month())-1)%3)
		assert.Equal(t, 0, next.Hour())
	})
}
