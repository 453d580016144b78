package database

import (
	"fmt"
	"slices"
	"strings"

	"github.com/koustreak/querykit/internal/errs"
	"github.com/koustreak/querykit/internal/logger"
)

// Query is the (text, parameters) pair handed to the driver layer.
// Args are bound positionally at execution time, never spliced into SQL.
type Query struct {
	SQL  string
	Args []any
}

// Spec is anything that can render SQL text: ClauseSpec or TemplateSpec.
type Spec interface {
	Build() (string, error)
}

// Build renders spec and traces the final text at debug level.
func Build(spec Spec, log *logger.Logger) (string, error) {
	sql, err := spec.Build()
	if err != nil {
		return "", err
	}
	logger.OrNop(log).DebugWith("query built", map[string]interface{}{"sql": sql})
	return sql, nil
}

// NewQuery builds spec and pairs the text with args.
func NewQuery(spec Spec, args ...any) (Query, error) {
	sql, err := spec.Build()
	if err != nil {
		return Query{}, err
	}
	return Query{SQL: sql, Args: args}, nil
}

// SortDirection controls the ORDER BY direction. The zero value is Desc.
type SortDirection int

const (
	Desc SortDirection = iota
	Asc
)

func (d SortDirection) String() string {
	if d == Asc {
		return "ASC"
	}
	return "DESC"
}

// Ordering is a requested sort column. It is only honored when Column is in
// the spec's AllowedSort list.
type Ordering struct {
	Column    string
	Direction SortDirection
}

// ClauseSpec assembles a query from trusted SQL fragments.
//
// Projection and Source are emitted verbatim and must never contain end-user
// input. Each predicate is a trusted condition that uses ? markers for any
// end-user value; the values travel separately as Query.Args.
//
// Usage:
//
//	sql, err := Select("SELECT id, name").
//	    From("FROM users").
//	    Where("age > ?").
//	    OrderBy("name", Desc).
//	    AllowSort("name", "created_at").
//	    Build()
type ClauseSpec struct {
	Projection  string
	Source      string
	Predicates  []string
	Order       *Ordering
	AllowedSort []string

	// StrictOrder turns a disallowed sort column into an error instead of
	// silently dropping the ORDER BY clause.
	StrictOrder bool
}

// Select starts a new ClauseSpec with the given projection fragment.
func Select(projection string) *ClauseSpec {
	return &ClauseSpec{Projection: projection}
}

// From sets the source fragment (table plus any joins).
func (s *ClauseSpec) From(source string) *ClauseSpec {
	s.Source = source
	return s
}

// Where appends trusted predicates. Multiple predicates are combined with AND.
func (s *ClauseSpec) Where(predicates ...string) *ClauseSpec {
	s.Predicates = append(s.Predicates, predicates...)
	return s
}

// OrderBy requests sorting by column.
func (s *ClauseSpec) OrderBy(column string, dir SortDirection) *ClauseSpec {
	s.Order = &Ordering{Column: column, Direction: dir}
	return s
}

// AllowSort appends columns to the sort allow-list.
func (s *ClauseSpec) AllowSort(columns ...string) *ClauseSpec {
	s.AllowedSort = append(s.AllowedSort, columns...)
	return s
}

// Strict makes Build fail on a sort column outside the allow-list.
func (s *ClauseSpec) Strict() *ClauseSpec {
	s.StrictOrder = true
	return s
}

// Build produces the final SQL text. It is a pure function of the spec.
func (s *ClauseSpec) Build() (string, error) {
	projection := strings.TrimSpace(s.Projection)
	if projection == "" {
		return "", errs.New(errs.ErrKindInvalidInput, "projection clause is empty")
	}

	parts := []string{projection}
	if source := strings.TrimSpace(s.Source); source != "" {
		parts = append(parts, source)
	}

	// --- WHERE ---
	if len(s.Predicates) > 0 {
		preds := make([]string, len(s.Predicates))
		for i, p := range s.Predicates {
			p = strings.TrimSpace(p)
			if p == "" {
				return "", errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("predicate %d is empty", i))
			}
			preds[i] = p
		}
		parts = append(parts, "WHERE "+strings.Join(preds, " AND "))
	}

	// --- ORDER BY ---
	if s.Order != nil && s.Order.Column != "" {
		if slices.Contains(s.AllowedSort, s.Order.Column) {
			parts = append(parts, fmt.Sprintf("ORDER BY %s %s", s.Order.Column, s.Order.Direction))
		} else if s.StrictOrder {
			return "", errs.New(errs.ErrKindInvalidInput,
				fmt.Sprintf("sort column %q is not in the allow-list", s.Order.Column))
		}
	}

	return strings.Join(parts, " "), nil
}
