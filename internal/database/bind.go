package database

import (
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

// rebind rewrites ? markers into the placeholder style of bindType.
//
// Unlike sqlx.Rebind it leaves ? alone inside quoted literals ('...'),
// quoted identifiers ("..." and `...`) and comments (-- and /* */), so
// trusted text like note LIKE '%?%' keeps its meaning. Outside those, ??
// stands for a literal ?, which is how the PostgreSQL jsonb ? operator is
// written. For QUESTION and UNKNOWN bind types the text is returned as is.
func rebind(bindType int, query string) string {
	if bindType == sqlx.QUESTION || bindType == sqlx.UNKNOWN {
		return query
	}

	var sb strings.Builder
	sb.Grow(len(query) + 10)
	n := 0

	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			end := strings.IndexByte(query[i+1:], c)
			if end < 0 {
				sb.WriteString(query[i:])
				return sb.String()
			}
			end += i + 2
			sb.WriteString(query[i:end])
			i = end - 1
		case c == '-' && i+1 < len(query) && query[i+1] == '-':
			end := strings.IndexByte(query[i:], '\n')
			if end < 0 {
				sb.WriteString(query[i:])
				return sb.String()
			}
			sb.WriteString(query[i : i+end+1])
			i += end
		case c == '/' && i+1 < len(query) && query[i+1] == '*':
			end := strings.Index(query[i+2:], "*/")
			if end < 0 {
				sb.WriteString(query[i:])
				return sb.String()
			}
			end += i + 4
			sb.WriteString(query[i:end])
			i = end - 1
		case c == '?':
			if i+1 < len(query) && query[i+1] == '?' {
				sb.WriteByte('?')
				i++
				continue
			}
			n++
			writePlaceholder(&sb, bindType, n)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func writePlaceholder(sb *strings.Builder, bindType, n int) {
	switch bindType {
	case sqlx.DOLLAR:
		sb.WriteByte('$')
	case sqlx.NAMED:
		sb.WriteString(":arg")
	case sqlx.AT:
		sb.WriteString("@p")
	}
	sb.WriteString(strconv.Itoa(n))
}
