package entity

// Column describes one persisted field of record type E.
//
// Columns are built with Field and refined with the builder methods below;
// all accessors are closures over a typed field reference, so no reflection
// is involved when reading or writing records.
type Column[E any] struct {
	// Name is the logical (JSON) field name, DB the SQL column.
	Name string
	DB   string
	Kind Kind

	// Header is the spreadsheet display name. Default replaces absent values
	// on export.
	Header   string
	Default  string
	Exported bool
	Imported bool

	// Matchable columns take part in example matching.
	Matchable bool
	// Updatable columns are written by UPDATE statements.
	Updatable bool
	// Copyable columns are copied by partial updates.
	Copyable bool

	addr   func(*E) any
	absent func(*E) bool
	blank  func(*E) bool
	value  func(*E) any
	format func(*E) (string, bool)
	parse  func(*E, string) error
	copy   func(dst, src *E) bool
}

// Field builds a column for the field ref points to.
func Field[E, V any](name, column string, ref func(*E) *V, codec Codec[V]) Column[E] {
	blank := codec.Blank
	if blank == nil {
		blank = codec.Absent
	}
	return Column[E]{
		Name:      name,
		DB:        column,
		Kind:      codec.Kind,
		Matchable: true,
		Updatable: true,
		Copyable:  true,
		addr: func(e *E) any {
			return ref(e)
		},
		absent: func(e *E) bool {
			return codec.Absent(*ref(e))
		},
		blank: func(e *E) bool {
			return blank(*ref(e))
		},
		value: func(e *E) any {
			v := *ref(e)
			if codec.Absent(v) {
				return nil
			}
			return codec.Value(v)
		},
		format: func(e *E) (string, bool) {
			v := *ref(e)
			if codec.Absent(v) {
				return "", false
			}
			return codec.Format(v), true
		},
		parse: func(e *E, raw string) error {
			v, err := codec.Parse(raw)
			if err != nil {
				return err
			}
			*ref(e) = v
			return nil
		},
		copy: func(dst, src *E) bool {
			v := *ref(src)
			if codec.Absent(v) {
				return false
			}
			*ref(dst) = v
			return true
		},
	}
}

// Excel includes the column in spreadsheet export and import under header.
func (c Column[E]) Excel(header string) Column[E] {
	c.Header = header
	c.Exported = true
	c.Imported = true
	return c
}

// WithDefault sets the text exported when the value is absent.
func (c Column[E]) WithDefault(value string) Column[E] {
	c.Default = value
	return c
}

// ExportOnly keeps the column out of spreadsheet import.
func (c Column[E]) ExportOnly() Column[E] {
	c.Imported = false
	return c
}

// NoMatch keeps the column out of example matching.
func (c Column[E]) NoMatch() Column[E] {
	c.Matchable = false
	return c
}

// ReadOnly keeps the column out of UPDATE statements and partial updates.
func (c Column[E]) ReadOnly() Column[E] {
	c.Updatable = false
	c.Copyable = false
	return c
}

// Addr returns a pointer to the field, usable as a sql.Rows.Scan destination.
func (c Column[E]) Addr(e *E) any {
	return c.addr(e)
}

func (c Column[E]) IsAbsent(e *E) bool {
	return c.absent(e)
}

// IsBlank is IsAbsent, except that blank strings also count as unset.
func (c Column[E]) IsBlank(e *E) bool {
	return c.blank(e)
}

// Value returns the SQL bind value, or nil when the field is absent.
func (c Column[E]) Value(e *E) any {
	return c.value(e)
}

// Format returns the spreadsheet text of the field; ok is false when absent.
func (c Column[E]) Format(e *E) (text string, ok bool) {
	return c.format(e)
}

// Parse sets the field from spreadsheet or query-string text.
func (c Column[E]) Parse(e *E, raw string) error {
	return c.parse(e, raw)
}

// CopyFrom copies the field from src to dst when it is present in src.
func (c Column[E]) CopyFrom(dst, src *E) bool {
	return c.copy(dst, src)
}
