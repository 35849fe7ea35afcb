package query

import "strings"

type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// DefaultSortProperty is the tiebreak applied to every sorted query.
const DefaultSortProperty = "createTime"

// Order sorts by one logical column name.
type Order struct {
	Property  string    `json:"property"`
	Direction Direction `json:"direction"`
}

// Sort is an ordered list of orders; the first one has the highest priority.
type Sort []Order

// By returns a sort on the given properties, all in direction dir.
func By(dir Direction, properties ...string) Sort {
	s := make(Sort, 0, len(properties))
	for _, p := range properties {
		s = append(s, Order{Property: p, Direction: dir})
	}
	return s
}

func Ascending(properties ...string) Sort {
	return By(Asc, properties...)
}

func Descending(properties ...string) Sort {
	return By(Desc, properties...)
}

// And returns s followed by other.
func (s Sort) And(other Sort) Sort {
	out := make(Sort, 0, len(s)+len(other))
	out = append(out, s...)
	return append(out, other...)
}

// WithDefault appends createTime descending unless s already orders by it.
func (s Sort) WithDefault() Sort {
	for _, o := range s {
		if o.Property == DefaultSortProperty {
			return s
		}
	}
	return s.And(Descending(DefaultSortProperty))
}

// ParseSort reads "name,-createTime" style sort expressions: a leading '-'
// means descending. Blank items are skipped.
func ParseSort(expr string) Sort {
	var s Sort
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "" || part == "-":
		case strings.HasPrefix(part, "-"):
			s = append(s, Order{Property: part[1:], Direction: Desc})
		default:
			s = append(s, Order{Property: part, Direction: Asc})
		}
	}
	return s
}
