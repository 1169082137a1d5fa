package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionRecord() *Record {
	port := int64(40000)
	return &Record{
		ID:        uuid.MustParse("0190c0de-0000-7000-8000-000000000001"),
		TenantID:  uuid.MustParse("0190c0de-0000-7000-8000-0000000000aa"),
		Kind:      KindSession,
		EntryTime: time.Date(2026, 3, 1, 10, 0, 0, 123456789, time.UTC),
		Session: &SessionRecord{
			IdentityKind:  IdentityNationalID,
			IdentityValue: "10000000146",
			DisplayName:   "Ada Lovelace",
			ClientIP:      "10.0.0.5",
			MACSurrogate:  "AA-BB",
			NATIP:         "203.0.113.9",
			NATPort:       &port,
		},
	}
}

func TestRecord_ComputeHash(t *testing.T) {
	t.Run("Success_Deterministic", func(t *testing.T) {
		assert.Equal(t, sessionRecord().ComputeHash(), sessionRecord().ComputeHash())
		assert.Len(t, sessionRecord().ComputeHash(), 64)
	})

	t.Run("Success_SubMicrosecondIgnored", func(t *testing.T) {
		a := sessionRecord()
		b := sessionRecord()
		b.EntryTime = b.EntryTime.Truncate(time.Microsecond)
		assert.Equal(t, a.ComputeHash(), b.ComputeHash())
	})

	t.Run("Success_NFCEquivalentNames", func(t *testing.T) {
		a := sessionRecord()
		a.Session.DisplayName = "\u00c7elik"
		b := sessionRecord()
		b.Session.DisplayName = "C\u0327elik"
		assert.Equal(t, a.ComputeHash(), b.ComputeHash())
	})

	t.Run("Success_FieldChangeChangesHash", func(t *testing.T) {
		base := sessionRecord().ComputeHash()

		for name, mutate := range map[string]func(r *Record){
			"identity":   func(r *Record) { r.Session.IdentityValue = "10000000147" },
			"suspicious": func(r *Record) { r.Suspicious = true },
			"nat_port":   func(r *Record) { r.Session.NATPort = nil },
			"entry_time": func(r *Record) { r.EntryTime = r.EntryTime.Add(time.Microsecond) },
		} {
			r := sessionRecord()
			mutate(r)
			assert.NotEqual(t, base, r.ComputeHash(), name)
		}
	})

	t.Run("Success_ArchiveFlagNotHashed", func(t *testing.T) {
		r := sessionRecord()
		at := time.Now()
		r.ArchivedAt = &at
		assert.Equal(t, sessionRecord().ComputeHash(), r.ComputeHash())
	})

	t.Run("Success_SyslogParsedDataOrderIndependent", func(t *testing.T) {
		mk := func() *Record {
			return &Record{Kind: KindSyslog, Syslog: &SyslogMessage{
				Raw:        "<34>1 ...",
				ParsedData: map[string]string{"a": "1", "b": "2", "c": "3"},
			}}
		}
		assert.Equal(t, mk().ComputeHash(), mk().ComputeHash())
	})
}

func TestRecord_Payload(t *testing.T) {
	r := sessionRecord()
	data, err := r.MarshalPayload()
	require.NoError(t, err)

	restored := &Record{ID: r.ID, TenantID: r.TenantID, Kind: r.Kind, EntryTime: r.EntryTime}
	require.NoError(t, restored.UnmarshalPayload(data))
	assert.Equal(t, r.ComputeHash(), restored.ComputeHash())

	_, err = (&Record{Kind: "bogus"}).MarshalPayload()
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestRecord_Clone(t *testing.T) {
	r := sessionRecord()
	c := r.Clone()
	*c.Session.NATPort = 1
	c.Session.DisplayName = "changed"

	assert.Equal(t, int64(40000), *r.Session.NATPort)
	assert.Equal(t, "Ada Lovelace", r.Session.DisplayName)
}

func TestCursor_After(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	id1 := uuid.MustParse("0190c0de-0000-7000-8000-000000000001")
	id2 := uuid.MustParse("0190c0de-0000-7000-8000-000000000002")
	c := Cursor{EntryTime: at, ID: id1}

	assert.False(t, c.After(&Record{EntryTime: at, ID: id1}))
	assert.True(t, c.After(&Record{EntryTime: at, ID: id2}))
	assert.True(t, c.After(&Record{EntryTime: at.Add(time.Microsecond), ID: id1}))
	assert.False(t, c.After(&Record{EntryTime: at.Add(-time.Microsecond), ID: id2}))
}

func TestAppendInput_Kind(t *testing.T) {
	assert.Equal(t, KindSession, (&AppendInput{Session: &SessionRecord{}}).Kind())
	assert.Equal(t, KindSyslog, (&AppendInput{Syslog: &SyslogMessage{}}).Kind())
	assert.Equal(t, KindFlow, (&AppendInput{Flow: &FlowRecord{}}).Kind())
	assert.False(t, (&AppendInput{}).Kind().Valid())
}

func TestFlowRecord_Derive(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := &FlowRecord{BytesSent: 600, BytesReceived: 400, Start: start, End: start.Add(2 * time.Second)}
	f.Derive()
	assert.Equal(t, int64(1000), f.TotalBytes)
	assert.Equal(t, int64(4000), f.BandwidthBPS)

	f.End = start
	f.Derive()
	assert.Zero(t, f.BandwidthBPS)
}

func TestThreatLevel(t *testing.T) {
	assert.Equal(t, ThreatMedium, ThreatLow.Raise(1))
	assert.Equal(t, ThreatCritical, ThreatMedium.Raise(5))
	assert.Equal(t, ThreatLow, ThreatLevel("").Raise(0))
	assert.Equal(t, -1, ThreatLevel("x").Rank())

	assert.Equal(t, ThreatCritical, ThreatFromSyslogSeverity(0))
	assert.Equal(t, ThreatCritical, ThreatFromSyslogSeverity(1))
	assert.Equal(t, ThreatHigh, ThreatFromSyslogSeverity(3))
	assert.Equal(t, ThreatMedium, ThreatFromSyslogSeverity(4))
	assert.Equal(t, ThreatLow, ThreatFromSyslogSeverity(6))
}
