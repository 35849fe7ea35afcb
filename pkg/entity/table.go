package entity

import (
	"fmt"
	"time"
)

// Base column names shared by every table.
const (
	ColumnID         = "id"
	ColumnEnabled    = "enabled"
	ColumnCreateTime = "create_time"
	ColumnUpdateTime = "update_time"
	ColumnCreateBy   = "create_by"
	ColumnUpdateBy   = "update_by"
	ColumnVersion    = "version"
	ColumnRemark     = "remark"
)

// Table is the explicit description of a record type: its SQL table and
// every persisted column, base columns first.
type Table[E any] struct {
	name    string
	audit   func(*E) *BaseEntity
	columns []Column[E]
	index   map[string]int
}

// NewTable registers record type E stored in the SQL table name. audit
// returns the embedded BaseEntity; columns lists the type's own fields.
//
// Panics if two columns share a logical or SQL name.
func NewTable[E any](name string, audit func(*E) *BaseEntity, columns ...Column[E]) *Table[E] {
	all := append(baseColumns(audit), columns...)
	t := &Table[E]{
		name:    name,
		audit:   audit,
		columns: all,
		index:   make(map[string]int, len(all)*2),
	}
	for i, c := range all {
		for _, key := range []string{c.Name, c.DB} {
			if prev, exists := t.index[key]; exists && prev != i {
				panic(fmt.Sprintf("table %s: duplicate column %s", name, key))
			}
			t.index[key] = i
		}
	}
	return t
}

func baseColumns[E any](audit func(*E) *BaseEntity) []Column[E] {
	id := Field("id", ColumnID, func(e *E) *string { return &audit(e).ID }, Codec[string]{
		Kind:   KindValue,
		Absent: func(v string) bool { return v == "" },
		Value:  func(v string) any { return v },
		Format: func(v string) string { return v },
		Parse:  func(s string) (string, error) { return s, nil },
	}).ReadOnly()

	enabled := Field("enabled", ColumnEnabled, func(e *E) **bool { return &audit(e).Enabled }, Bool("enabled", "disabled")).
		Excel("Enabled")

	createTime := Field("createTime", ColumnCreateTime, func(e *E) **time.Time { return &audit(e).CreateTime }, Timestamp(DefaultTimeLayout)).
		Excel("Created At").ExportOnly().ReadOnly()

	updateTime := Field("updateTime", ColumnUpdateTime, func(e *E) **time.Time { return &audit(e).UpdateTime }, Timestamp(DefaultTimeLayout)).
		Excel("Updated At").ExportOnly().ReadOnly()

	createBy := Field("createBy", ColumnCreateBy, func(e *E) **string { return &audit(e).CreateBy }, Text()).
		Excel("Created By").ExportOnly().ReadOnly()

	updateBy := Field("updateBy", ColumnUpdateBy, func(e *E) **string { return &audit(e).UpdateBy }, Text()).
		Excel("Updated By").ExportOnly().ReadOnly()

	// version is written by the repository, but a client-supplied value is
	// copied so it takes part in the optimistic check.
	version := Field("version", ColumnVersion, func(e *E) **int64 { return &audit(e).Version }, Int64())
	version.Updatable = false

	remark := Field("remark", ColumnRemark, func(e *E) **string { return &audit(e).Remark }, Text()).
		Excel("Remark")

	return []Column[E]{id, enabled, createTime, updateTime, createBy, updateBy, version, remark}
}

func (t *Table[E]) Name() string {
	return t.name
}

// Columns returns all columns in declaration order. Callers must not modify
// the returned slice.
func (t *Table[E]) Columns() []Column[E] {
	return t.columns
}

// Column looks a column up by logical or SQL name.
func (t *Table[E]) Column(name string) (Column[E], bool) {
	i, ok := t.index[name]
	if !ok {
		return Column[E]{}, false
	}
	return t.columns[i], true
}

// ColumnNames returns the SQL column names in declaration order.
func (t *Table[E]) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.DB
	}
	return names
}

// ScanDest returns scan destinations for every column of e, in
// ColumnNames order.
func (t *Table[E]) ScanDest(e *E) []any {
	dest := make([]any, len(t.columns))
	for i, c := range t.columns {
		dest[i] = c.Addr(e)
	}
	return dest
}

// Audit returns the BaseEntity embedded in e.
func (t *Table[E]) Audit(e *E) *BaseEntity {
	return t.audit(e)
}

// New allocates an empty record.
func (t *Table[E]) New() *E {
	return new(E)
}

// CopyNonNull copies every present, copyable field of src onto dst and
// returns the number of fields copied. Absent fields (nil pointers, empty
// lists) never overwrite dst.
func (t *Table[E]) CopyNonNull(dst, src *E) int {
	n := 0
	for _, c := range t.columns {
		if !c.Copyable {
			continue
		}
		if c.CopyFrom(dst, src) {
			n++
		}
	}
	return n
}
