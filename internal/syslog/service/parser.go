// Package service holds the syslog wire handling: frame splitting, RFC 3164
// and RFC 5424 parsing, the listener rings and the UDP relay.
package service

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	recordDomain "github.com/allisson/trustlog/internal/record/domain"
)

// Defaults applied to frames without a PRI part (user.notice).
const (
	DefaultFacility = 1
	DefaultSeverity = 5
)

const nilValue = "-"

// Parse decodes one syslog frame. Frames that fit neither RFC 5424 nor RFC
// 3164 come back with IsParsed false, the whole text as Message and
// receivedAt as Timestamp. RFC 3164 timestamps carry no year or zone; they
// are read as UTC in the year of receivedAt, or the year before when that
// would put them more than a day in the future.
func Parse(raw []byte, receivedAt time.Time) recordDomain.SyslogMessage {
	text := strings.TrimRight(string(raw), "\r\n\x00")
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "\uFFFD")
	}
	receivedAt = receivedAt.UTC()

	msg := recordDomain.SyslogMessage{
		Facility:  DefaultFacility,
		Severity:  DefaultSeverity,
		Timestamp: receivedAt,
		Message:   text,
		Raw:       text,
	}

	pri, rest, ok := splitPriority(text)
	if !ok {
		return msg
	}
	msg.Facility = pri >> 3
	msg.Severity = pri & 7
	msg.Message = rest

	if parsed, ok := parse5424(msg, rest); ok {
		return parsed
	}
	if parsed, ok := parse3164(msg, rest, receivedAt); ok {
		return parsed
	}
	return msg
}

func splitPriority(text string) (int, string, bool) {
	if len(text) < 3 || text[0] != '<' {
		return 0, "", false
	}
	end := strings.IndexByte(text, '>')
	if end < 2 || end > 4 {
		return 0, "", false
	}
	pri, err := strconv.Atoi(text[1:end])
	if err != nil || pri < 0 || pri > 191 {
		return 0, "", false
	}
	return pri, text[end+1:], true
}

// parse5424 reads VERSION TIMESTAMP HOSTNAME APP-NAME PROCID MSGID SD [MSG].
func parse5424(msg recordDomain.SyslogMessage, rest string) (recordDomain.SyslogMessage, bool) {
	fields := make([]string, 0, 6)
	for range 6 {
		sp := strings.IndexByte(rest, ' ')
		if sp <= 0 {
			return msg, false
		}
		fields = append(fields, rest[:sp])
		rest = rest[sp+1:]
	}

	version, err := strconv.Atoi(fields[0])
	if err != nil || version < 1 || version > 99 {
		return msg, false
	}
	if fields[1] != nilValue {
		ts, err := time.Parse(time.RFC3339Nano, fields[1])
		if err != nil {
			return msg, false
		}
		msg.Timestamp = ts.UTC()
	}

	sd, tail, ok := parseStructuredData(rest)
	if !ok {
		return msg, false
	}

	msg.Hostname = orEmpty(fields[2])
	msg.Program = orEmpty(fields[3])
	msg.PID = orEmpty(fields[4])
	msg.MsgID = orEmpty(fields[5])
	msg.ParsedData = sd
	msg.Message = strings.TrimPrefix(strings.TrimPrefix(tail, " "), "\uFEFF")
	msg.IsParsed = true
	return msg, true
}

// parseStructuredData consumes "-" or one or more [id key="value" ...]
// elements and returns them flattened as "id.key" entries.
func parseStructuredData(s string) (map[string]string, string, bool) {
	if strings.HasPrefix(s, nilValue) {
		return nil, s[1:], len(s) == 1 || s[1] == ' '
	}
	if !strings.HasPrefix(s, "[") {
		return nil, s, false
	}

	data := map[string]string{}
	i := 0
	for i < len(s) && s[i] == '[' {
		i++
		start := i
		for i < len(s) && s[i] != ' ' && s[i] != ']' {
			i++
		}
		if i >= len(s) || i == start {
			return nil, s, false
		}
		id := s[start:i]
		if s[i] == ']' {
			data[id] = ""
			i++
			continue
		}

		for i < len(s) && s[i] == ' ' {
			i++
			eq := strings.IndexByte(s[i:], '=')
			if eq <= 0 || i+eq+1 >= len(s) || s[i+eq+1] != '"' {
				return nil, s, false
			}
			name := s[i : i+eq]
			i += eq + 2

			var value strings.Builder
			closed := false
			for i < len(s) {
				c := s[i]
				if c == '\\' && i+1 < len(s) && (s[i+1] == '"' || s[i+1] == '\\' || s[i+1] == ']') {
					value.WriteByte(s[i+1])
					i += 2
					continue
				}
				i++
				if c == '"' {
					closed = true
					break
				}
				value.WriteByte(c)
			}
			if !closed {
				return nil, s, false
			}
			data[id+"."+name] = value.String()
		}
		if i >= len(s) || s[i] != ']' {
			return nil, s, false
		}
		i++
	}
	if i < len(s) && s[i] != ' ' {
		return nil, s, false
	}
	return data, s[i:], true
}

// parse3164 reads TIMESTAMP [HOSTNAME] TAG[PID]: CONTENT. An RFC 3339
// timestamp is accepted in place of the BSD one.
func parse3164(msg recordDomain.SyslogMessage, rest string, receivedAt time.Time) (recordDomain.SyslogMessage, bool) {
	ts, rest, ok := parseBSDTimestamp(rest, receivedAt)
	if !ok {
		return msg, false
	}
	msg.Timestamp = ts

	rest = strings.TrimLeft(rest, " ")
	first, after, _ := strings.Cut(rest, " ")
	if !looksLikeTag(first) {
		msg.Hostname = first
		rest = after
	}

	program, pid, content, tagged := splitTag(rest)
	msg.Program = program
	msg.PID = pid
	if tagged {
		msg.Message = content
	} else {
		msg.Message = rest
	}
	msg.IsParsed = true
	return msg, true
}

func parseBSDTimestamp(s string, receivedAt time.Time) (time.Time, string, bool) {
	if token, rest, found := strings.Cut(s, " "); found {
		if ts, err := time.Parse(time.RFC3339Nano, token); err == nil {
			return ts.UTC(), rest, true
		}
	}

	if len(s) < len(time.Stamp) {
		return time.Time{}, "", false
	}
	ts, err := time.Parse(time.Stamp, s[:len(time.Stamp)])
	if err != nil {
		return time.Time{}, "", false
	}
	ts = time.Date(receivedAt.Year(), ts.Month(), ts.Day(), ts.Hour(), ts.Minute(), ts.Second(), 0, time.UTC)
	if ts.After(receivedAt.Add(24 * time.Hour)) {
		ts = ts.AddDate(-1, 0, 0)
	}
	return ts, s[len(time.Stamp):], true
}

func looksLikeTag(token string) bool {
	return strings.HasSuffix(token, ":") || strings.Contains(token, "[")
}

// splitTag separates "prog[pid]: content". tagged is false when no tag
// terminator is present.
func splitTag(s string) (program, pid, content string, tagged bool) {
	colon := strings.Index(s, ":")
	if colon <= 0 || strings.ContainsAny(s[:colon], " ") {
		return "", "", s, false
	}
	tag := s[:colon]
	content = strings.TrimPrefix(s[colon+1:], " ")

	if open := strings.IndexByte(tag, '['); open > 0 && strings.HasSuffix(tag, "]") {
		return tag[:open], tag[open+1 : len(tag)-1], content, true
	}
	return tag, "", content, true
}

func orEmpty(s string) string {
	if s == nilValue {
		return ""
	}
	return s
}
