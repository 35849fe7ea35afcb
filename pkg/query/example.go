package query

import (
	"slices"
	"strings"

	"crudkit/pkg/entity"
)

// Matcher controls how a probe record is turned into a predicate.
type Matcher struct {
	// Contains matches text columns by substring instead of equality.
	Contains bool
	// IgnoreCase compares text columns case-insensitively.
	IgnoreCase bool
	// IgnoredPaths lists logical or SQL column names never matched.
	IgnoredPaths []string
}

// DefaultMatcher matches text by case-insensitive substring and never looks
// at the password column.
func DefaultMatcher() Matcher {
	return Matcher{Contains: true, IgnoreCase: true, IgnoredPaths: []string{"password"}}
}

// ExactMatcher matches every populated column by equality.
func ExactMatcher() Matcher {
	return Matcher{IgnoredPaths: []string{"password"}}
}

// WithIgnoredPaths returns a copy of m that also ignores paths.
func (m Matcher) WithIgnoredPaths(paths ...string) Matcher {
	m.IgnoredPaths = append(slices.Clone(m.IgnoredPaths), paths...)
	return m
}

func (m Matcher) ignores(name, column string) bool {
	return slices.Contains(m.IgnoredPaths, name) || slices.Contains(m.IgnoredPaths, column)
}

// Example builds the predicate matching every populated column of probe.
// Unset and blank fields are skipped; a nil probe matches everything.
func Example[E any](table *entity.Table[E], probe *E, m Matcher) Predicate {
	if probe == nil {
		return nil
	}
	var ps []Predicate
	for _, c := range table.Columns() {
		if !c.Matchable || m.ignores(c.Name, c.DB) || c.IsBlank(probe) {
			continue
		}
		value := c.Value(probe)
		text, isText := value.(string)
		switch {
		case c.Kind != entity.KindText || !isText:
			ps = append(ps, Eq(c.DB, value))
		case m.Contains:
			ps = append(ps, Like(c.DB, "%"+escapeLike(text)+"%", m.IgnoreCase))
		case m.IgnoreCase:
			ps = append(ps, Expr("LOWER("+c.DB+") = ?", strings.ToLower(text)))
		default:
			ps = append(ps, Eq(c.DB, text))
		}
	}
	return And(ps...)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes LIKE wildcards with the default backslash escape
// character shared by MySQL and PostgreSQL.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
