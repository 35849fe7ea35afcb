package query

import "strings"

// Predicate is a SQL boolean expression with '?' placeholders. Column names
// inside a predicate are SQL column names and are not escaped.
type Predicate interface {
	SQL() (string, []any)
}

type expr struct {
	sql  string
	args []any
}

func (e expr) SQL() (string, []any) {
	return e.sql, e.args
}

// Expr wraps a raw SQL fragment.
func Expr(sql string, args ...any) Predicate {
	return expr{sql: sql, args: args}
}

func Eq(column string, value any) Predicate {
	return expr{sql: column + " = ?", args: []any{value}}
}

func IsNull(column string) Predicate {
	return expr{sql: column + " IS NULL"}
}

// Like matches column against pattern. IgnoreCase lowers both sides.
func Like(column, pattern string, ignoreCase bool) Predicate {
	if ignoreCase {
		return expr{sql: "LOWER(" + column + ") LIKE ?", args: []any{strings.ToLower(pattern)}}
	}
	return expr{sql: column + " LIKE ?", args: []any{pattern}}
}

// In matches column against values. An empty list matches nothing.
func In[T any](column string, values []T) Predicate {
	if len(values) == 0 {
		return expr{sql: "1 = 0"}
	}
	return expr{sql: column + " IN (" + placeholders(len(values)) + ")", args: toArgs(values)}
}

// NotIn excludes values from column. An empty list matches everything.
func NotIn[T any](column string, values []T) Predicate {
	if len(values) == 0 {
		return nil
	}
	return expr{sql: column + " NOT IN (" + placeholders(len(values)) + ")", args: toArgs(values)}
}

// And joins predicates with AND, skipping nil ones. It returns nil when
// nothing is left.
func And(ps ...Predicate) Predicate {
	return join(" AND ", ps)
}

// Or joins predicates with OR, skipping nil ones. It returns nil when
// nothing is left.
func Or(ps ...Predicate) Predicate {
	return join(" OR ", ps)
}

func join(op string, ps []Predicate) Predicate {
	var (
		parts []string
		args  []any
	)
	for _, p := range ps {
		if p == nil {
			continue
		}
		sql, a := p.SQL()
		if sql == "" {
			continue
		}
		parts = append(parts, sql)
		args = append(args, a...)
	}
	switch len(parts) {
	case 0:
		return nil
	case 1:
		return expr{sql: parts[0], args: args}
	}
	for i, part := range parts {
		parts[i] = "(" + part + ")"
	}
	return expr{sql: strings.Join(parts, op), args: args}
}

// Where renders p as a WHERE clause with a leading space, or "" for nil.
func Where(p Predicate) (string, []any) {
	if p == nil {
		return "", nil
	}
	sql, args := p.SQL()
	if sql == "" {
		return "", nil
	}
	return " WHERE " + sql, args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toArgs[T any](values []T) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}
