package entity

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind decides how a column takes part in example matching.
type Kind int

const (
	// KindValue columns match by equality.
	KindValue Kind = iota
	// KindText columns match by (case-insensitive) substring.
	KindText
)

// DefaultTimeLayout is the layout used for timestamps in spreadsheets.
const DefaultTimeLayout = "2006-01-02 15:04:05"

// Codec describes how a field of type V is stored, displayed and parsed.
//
// Value and Format are only called for values that are not Absent.
type Codec[V any] struct {
	Kind   Kind
	Absent func(V) bool
	// Blank reports values that example matching treats as unset. Falls
	// back to Absent when nil.
	Blank  func(V) bool
	Value  func(V) any
	Format func(V) string
	Parse  func(string) (V, error)
}

// isBlank reports strings a client sends for "no value".
func isBlank(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == "undefined"
}

// Text is the codec for nullable strings.
func Text() Codec[*string] {
	return Codec[*string]{
		Kind:   KindText,
		Absent: func(v *string) bool { return v == nil },
		Blank:  func(v *string) bool { return v == nil || isBlank(*v) },
		Value:  func(v *string) any { return *v },
		Format: func(v *string) string { return *v },
		Parse:  func(s string) (*string, error) { return &s, nil },
	}
}

// Bool is the codec for nullable booleans. The labels are used in
// spreadsheets; Parse also accepts anything strconv.ParseBool does.
func Bool(trueLabel, falseLabel string) Codec[*bool] {
	return Codec[*bool]{
		Kind:   KindValue,
		Absent: func(v *bool) bool { return v == nil },
		Value:  func(v *bool) any { return *v },
		Format: func(v *bool) string {
			if *v {
				return trueLabel
			}
			return falseLabel
		},
		Parse: func(s string) (*bool, error) {
			s = strings.TrimSpace(s)
			switch {
			case strings.EqualFold(s, trueLabel):
				return Ptr(true), nil
			case strings.EqualFold(s, falseLabel):
				return Ptr(false), nil
			}
			b, err := strconv.ParseBool(s)
			if err != nil {
				return nil, fmt.Errorf("invalid boolean %q", s)
			}
			return &b, nil
		},
	}
}

// Int64 is the codec for nullable 64-bit integers.
func Int64() Codec[*int64] {
	return Codec[*int64]{
		Kind:   KindValue,
		Absent: func(v *int64) bool { return v == nil },
		Value:  func(v *int64) any { return *v },
		Format: func(v *int64) string { return strconv.FormatInt(*v, 10) },
		Parse: func(s string) (*int64, error) {
			i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid integer %q", s)
			}
			return &i, nil
		},
	}
}

// Int is the codec for nullable ints.
func Int() Codec[*int] {
	return Codec[*int]{
		Kind:   KindValue,
		Absent: func(v *int) bool { return v == nil },
		Value:  func(v *int) any { return int64(*v) },
		Format: func(v *int) string { return strconv.Itoa(*v) },
		Parse: func(s string) (*int, error) {
			i, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				return nil, fmt.Errorf("invalid integer %q", s)
			}
			return &i, nil
		},
	}
}

// Timestamp is the codec for nullable times, formatted with layout in the
// local time zone.
func Timestamp(layout string) Codec[*time.Time] {
	return Codec[*time.Time]{
		Kind:   KindValue,
		Absent: func(v *time.Time) bool { return v == nil },
		Value:  func(v *time.Time) any { return *v },
		Format: func(v *time.Time) string { return v.Local().Format(layout) },
		Parse: func(s string) (*time.Time, error) {
			t, err := time.ParseInLocation(layout, strings.TrimSpace(s), time.Local)
			if err != nil {
				return nil, fmt.Errorf("invalid time %q, want layout %s", s, layout)
			}
			return &t, nil
		},
	}
}

// List is the codec for StringList columns. An empty list is absent, so it
// never overwrites a stored value in a partial update.
func List() Codec[StringList] {
	return Codec[StringList]{
		Kind:   KindText,
		Absent: func(v StringList) bool { return len(v) == 0 },
		Value:  func(v StringList) any { return v.String() },
		Format: func(v StringList) string { return v.String() },
		Parse:  func(s string) (StringList, error) { return ParseStringList(s), nil },
	}
}

// StringList is a list of strings stored as comma separated text.
type StringList []string

const listSeparator = ","

// ParseStringList splits s on commas, trimming and dropping empty items.
func ParseStringList(s string) StringList {
	var out StringList
	for _, part := range strings.Split(s, listSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (l StringList) String() string {
	return strings.Join(l, listSeparator)
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = nil
	case string:
		*l = ParseStringList(v)
	case []byte:
		*l = ParseStringList(string(v))
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return nil, nil
	}
	return l.String(), nil
}

// IntEnum is an enumeration persisted as its integer code.
type IntEnum interface {
	Code() int
	Message() string
}

// EnumOf returns the member of values whose code is code.
func EnumOf[T IntEnum](values []T, code int) (T, bool) {
	for _, v := range values {
		if v.Code() == code {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// Enum is the codec for nullable IntEnum fields. Spreadsheets show the
// message; Parse accepts the message or the code.
func Enum[T IntEnum](values ...T) Codec[*T] {
	return Codec[*T]{
		Kind:   KindValue,
		Absent: func(v *T) bool { return v == nil },
		Value:  func(v *T) any { return int64((*v).Code()) },
		Format: func(v *T) string { return (*v).Message() },
		Parse: func(s string) (*T, error) {
			s = strings.TrimSpace(s)
			for _, v := range values {
				if strings.EqualFold(v.Message(), s) {
					return &v, nil
				}
			}
			if code, err := strconv.Atoi(s); err == nil {
				if v, ok := EnumOf(values, code); ok {
					return &v, nil
				}
			}
			return nil, fmt.Errorf("unknown value %q", s)
		},
	}
}
