package database

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		name     string
		bindType int
		query    string
		want     string
	}{
		{
			name:     "question untouched",
			bindType: sqlx.QUESTION,
			query:    "SELECT ? FROM t WHERE a = '?' AND b = ??",
			want:     "SELECT ? FROM t WHERE a = '?' AND b = ??",
		},
		{
			name:     "dollar numbering",
			bindType: sqlx.DOLLAR,
			query:    "a = ? AND b = ? AND c = ?",
			want:     "a = $1 AND b = $2 AND c = $3",
		},
		{
			name:     "single quoted literal",
			bindType: sqlx.DOLLAR,
			query:    "note LIKE '%?%' AND id = ?",
			want:     "note LIKE '%?%' AND id = $1",
		},
		{
			name:     "doubled quote inside literal",
			bindType: sqlx.DOLLAR,
			query:    "note = 'it''s ?' AND id = ?",
			want:     "note = 'it''s ?' AND id = $1",
		},
		{
			name:     "quoted identifiers",
			bindType: sqlx.DOLLAR,
			query:    `SELECT "odd?col", ` + "`x?`" + ` FROM t WHERE id = ?`,
			want:     `SELECT "odd?col", ` + "`x?`" + ` FROM t WHERE id = $1`,
		},
		{
			name:     "line comment",
			bindType: sqlx.DOLLAR,
			query:    "SELECT 1 -- why?\nWHERE id = ?",
			want:     "SELECT 1 -- why?\nWHERE id = $1",
		},
		{
			name:     "block comment",
			bindType: sqlx.DOLLAR,
			query:    "SELECT /* a? b? */ id FROM t WHERE id = ?",
			want:     "SELECT /* a? b? */ id FROM t WHERE id = $1",
		},
		{
			name:     "escaped jsonb operator",
			bindType: sqlx.DOLLAR,
			query:    "SELECT id FROM t WHERE doc ?? 'k' AND id = ?",
			want:     "SELECT id FROM t WHERE doc ? 'k' AND id = $1",
		},
		{
			name:     "unterminated literal kept verbatim",
			bindType: sqlx.DOLLAR,
			query:    "a = ? AND b = 'x?",
			want:     "a = $1 AND b = 'x?",
		},
		{
			name:     "named",
			bindType: sqlx.NAMED,
			query:    "a = ? AND b = ?",
			want:     "a = :arg1 AND b = :arg2",
		},
		{
			name:     "at",
			bindType: sqlx.AT,
			query:    "a = ? AND b = ?",
			want:     "a = @p1 AND b = @p2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rebind(tt.bindType, tt.query))
		})
	}
}
