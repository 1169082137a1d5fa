package database

import (
	"strconv"
	"strings"
)

// Dialect captures the few SQL differences between the supported drivers.
// Repositories are written with PostgreSQL placeholders ($1, $2, ...) and
// rebind them for MySQL.
type Dialect string

const (
	PostgreSQL Dialect = "postgres"
	MySQL      Dialect = "mysql"
)

// Rebind converts $N placeholders to ? for MySQL. Placeholders inside quoted
// literals are left untouched.
func (d Dialect) Rebind(query string) string {
	if d != MySQL {
		return query
	}

	var b strings.Builder
	b.Grow(len(query))
	inQuote := false
	for i := 0; i < len(query); i++ {
		ch := query[i]
		if ch == '\'' {
			inQuote = !inQuote
		}
		if ch == '$' && !inQuote && i+1 < len(query) && isDigit(query[i+1]) {
			j := i + 1
			for j < len(query) && isDigit(query[j]) {
				j++
			}
			b.WriteByte('?')
			i = j - 1
			continue
		}
		b.WriteByte(ch)
	}
	return b.String()
}

// Placeholders returns n placeholders starting at $start, comma separated.
func (d Dialect) Placeholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		if d == MySQL {
			parts[i] = "?"
		} else {
			parts[i] = "$" + strconv.Itoa(start+i)
		}
	}
	return strings.Join(parts, ", ")
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
