package service

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	receivedAt := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)

	t.Run("Success_RFC5424WithStructuredData", func(t *testing.T) {
		raw := `<165>1 2026-06-01T08:00:00.123Z fw01 sshd 4321 ID47 [origin ip="10.0.0.1"]` +
			`[meta seq="7" note="a \"q\" b"] Failed password`

		msg := Parse([]byte(raw), receivedAt)

		assert.True(t, msg.IsParsed)
		assert.Equal(t, 20, msg.Facility)
		assert.Equal(t, 5, msg.Severity)
		assert.Equal(t, time.Date(2026, 6, 1, 8, 0, 0, 123000000, time.UTC), msg.Timestamp)
		assert.Equal(t, "fw01", msg.Hostname)
		assert.Equal(t, "sshd", msg.Program)
		assert.Equal(t, "4321", msg.PID)
		assert.Equal(t, "ID47", msg.MsgID)
		assert.Equal(t, "Failed password", msg.Message)
		assert.Equal(t, raw, msg.Raw)
		assert.Equal(t, map[string]string{
			"origin.ip": "10.0.0.1",
			"meta.seq":  "7",
			"meta.note": `a "q" b`,
		}, msg.ParsedData)
	})

	t.Run("Success_RFC5424NilFields", func(t *testing.T) {
		msg := Parse([]byte("<34>1 2026-06-01T08:00:00+03:00 host app - - -"), receivedAt)

		assert.True(t, msg.IsParsed)
		assert.Equal(t, 4, msg.Facility)
		assert.Equal(t, 2, msg.Severity)
		assert.Equal(t, time.Date(2026, 6, 1, 5, 0, 0, 0, time.UTC), msg.Timestamp)
		assert.Empty(t, msg.PID)
		assert.Empty(t, msg.MsgID)
		assert.Empty(t, msg.Message)
		assert.Nil(t, msg.ParsedData)
	})

	t.Run("Success_RFC5424BOMAndNilTimestamp", func(t *testing.T) {
		msg := Parse([]byte("<13>1 - host app - - - \uFEFFhello"), receivedAt)

		assert.True(t, msg.IsParsed)
		assert.Equal(t, receivedAt, msg.Timestamp)
		assert.Equal(t, "hello", msg.Message)
	})

	t.Run("Success_RFC3164", func(t *testing.T) {
		raw := "<34>Oct 11 22:14:15 mymachine su[123]: 'su root' failed for lonvick on /dev/pts/8"

		msg := Parse([]byte(raw), receivedAt)

		assert.True(t, msg.IsParsed)
		assert.Equal(t, 4, msg.Facility)
		assert.Equal(t, 2, msg.Severity)
		assert.Equal(t, time.Date(2026, 10, 11, 22, 14, 15, 0, time.UTC), msg.Timestamp)
		assert.Equal(t, "mymachine", msg.Hostname)
		assert.Equal(t, "su", msg.Program)
		assert.Equal(t, "123", msg.PID)
		assert.Equal(t, "'su root' failed for lonvick on /dev/pts/8", msg.Message)
	})

	t.Run("Success_RFC3164PreviousYear", func(t *testing.T) {
		newYear := time.Date(2026, 1, 1, 0, 10, 0, 0, time.UTC)

		msg := Parse([]byte("<13>Dec 31 23:59:50 host app: late"), newYear)

		assert.Equal(t, time.Date(2025, 12, 31, 23, 59, 50, 0, time.UTC), msg.Timestamp)
	})

	t.Run("Success_RFC3164WithoutHostname", func(t *testing.T) {
		msg := Parse([]byte("<13>Jun  1 08:00:00 cron: job done"), receivedAt)

		assert.True(t, msg.IsParsed)
		assert.Empty(t, msg.Hostname)
		assert.Equal(t, "cron", msg.Program)
		assert.Equal(t, "job done", msg.Message)
	})

	t.Run("Success_RFC3164WithRFC3339Timestamp", func(t *testing.T) {
		msg := Parse([]byte("<13>2026-06-01T08:00:00+03:00 host app[9]: hi"), receivedAt)

		assert.True(t, msg.IsParsed)
		assert.Equal(t, time.Date(2026, 6, 1, 5, 0, 0, 0, time.UTC), msg.Timestamp)
		assert.Equal(t, "host", msg.Hostname)
		assert.Equal(t, "app", msg.Program)
		assert.Equal(t, "9", msg.PID)
		assert.Equal(t, "hi", msg.Message)
	})

	t.Run("Unparsed_NoPriority", func(t *testing.T) {
		msg := Parse([]byte("just text\n"), receivedAt)

		assert.False(t, msg.IsParsed)
		assert.Equal(t, DefaultFacility, msg.Facility)
		assert.Equal(t, DefaultSeverity, msg.Severity)
		assert.Equal(t, receivedAt, msg.Timestamp)
		assert.Equal(t, "just text", msg.Message)
	})

	t.Run("Unparsed_PriorityKept", func(t *testing.T) {
		msg := Parse([]byte("<11>garbage here"), receivedAt)

		assert.False(t, msg.IsParsed)
		assert.Equal(t, 1, msg.Facility)
		assert.Equal(t, 3, msg.Severity)
		assert.Equal(t, "garbage here", msg.Message)
	})

	t.Run("Unparsed_PriorityOutOfRange", func(t *testing.T) {
		msg := Parse([]byte("<999>x"), receivedAt)

		assert.False(t, msg.IsParsed)
		assert.Equal(t, DefaultSeverity, msg.Severity)
		assert.Equal(t, "<999>x", msg.Message)
	})

	t.Run("Unparsed_InvalidUTF8Replaced", func(t *testing.T) {
		msg := Parse([]byte("<13>\xff bad\r\n"), receivedAt)

		assert.True(t, utf8.ValidString(msg.Message))
		assert.True(t, utf8.ValidString(msg.Raw))
		assert.Equal(t, "\uFFFD bad", msg.Message)
	})

	t.Run("Unparsed_BrokenStructuredData", func(t *testing.T) {
		msg := Parse([]byte(`<13>1 - host app - - [id k="unterminated] msg`), receivedAt)

		assert.False(t, msg.IsParsed)
	})
}
