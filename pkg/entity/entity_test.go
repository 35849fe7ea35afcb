package entity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	BaseEntity
	Name     *string    `db:"name"`
	Password *string    `db:"password"`
	Tags     StringList `db:"tags"`
	Count    *int       `db:"count"`
}

type shade int

const (
	shadeLight shade = iota
	shadeDark
)

func (s shade) Code() int { return int(s) }

func (s shade) Message() string {
	if s == shadeDark {
		return "dark"
	}
	return "light"
}

func widgetTable() *Table[widget] {
	return NewTable("widget", func(w *widget) *BaseEntity { return &w.BaseEntity },
		Field("name", "name", func(w *widget) **string { return &w.Name }, Text()).Excel("Name"),
		Field("password", "password", func(w *widget) **string { return &w.Password }, Text()),
		Field("tags", "tags", func(w *widget) *StringList { return &w.Tags }, List()).Excel("Tags"),
		Field("count", "count", func(w *widget) **int { return &w.Count }, Int()).Excel("Count").WithDefault("0"),
	)
}

func TestNewTable_BaseColumnsFirst(t *testing.T) {
	table := widgetTable()

	names := table.ColumnNames()
	require.Equal(t, []string{
		"id", "enabled", "create_time", "update_time", "create_by", "update_by", "version", "remark",
		"name", "password", "tags", "count",
	}, names)
	assert.Equal(t, "widget", table.Name())
}

func TestNewTable_DuplicateColumnPanics(t *testing.T) {
	assert.Panics(t, func() {
		NewTable("widget", func(w *widget) *BaseEntity { return &w.BaseEntity },
			Field("remark", "note", func(w *widget) **string { return &w.Name }, Text()),
		)
	})
}

func TestTable_ColumnLookupByEitherName(t *testing.T) {
	table := widgetTable()

	byLogical, ok := table.Column("createTime")
	require.True(t, ok)
	byDB, ok := table.Column("create_time")
	require.True(t, ok)
	assert.Equal(t, byLogical.DB, byDB.DB)

	_, ok = table.Column("missing")
	assert.False(t, ok)
}

func TestCopyNonNull_SkipsNullFields(t *testing.T) {
	table := widgetTable()
	dst := &widget{Name: Ptr("kept"), Count: Ptr(7)}
	dst.Remark = Ptr("original")

	n := table.CopyNonNull(dst, &widget{})

	assert.Zero(t, n)
	assert.Equal(t, "kept", *dst.Name)
	assert.Equal(t, 7, *dst.Count)
	assert.Equal(t, "original", *dst.Remark)
}

func TestCopyNonNull_OverwritesWithFalsyValues(t *testing.T) {
	table := widgetTable()
	dst := &widget{Name: Ptr("kept"), Count: Ptr(7)}
	dst.Enabled = Ptr(true)

	src := &widget{Name: Ptr(""), Count: Ptr(0)}
	src.Enabled = Ptr(false)

	n := table.CopyNonNull(dst, src)

	assert.Equal(t, 3, n)
	assert.Equal(t, "", *dst.Name)
	assert.Equal(t, 0, *dst.Count)
	assert.False(t, *dst.Enabled)
}

func TestCopyNonNull_EmptyListIsNull(t *testing.T) {
	table := widgetTable()
	dst := &widget{Tags: StringList{"a", "b"}}

	table.CopyNonNull(dst, &widget{Tags: StringList{}})
	assert.Equal(t, StringList{"a", "b"}, dst.Tags)

	table.CopyNonNull(dst, &widget{Tags: StringList{"c"}})
	assert.Equal(t, StringList{"c"}, dst.Tags)
}

func TestCopyNonNull_NeverCopiesIdentityOrAudit(t *testing.T) {
	table := widgetTable()
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	dst := &widget{}
	dst.ID = "keep-me"
	dst.CreateTime = &created
	dst.Version = Ptr(int64(3))

	src := &widget{}
	src.ID = "other"
	src.CreateTime = Ptr(created.Add(time.Hour))
	src.CreateBy = Ptr("mallory")
	src.Version = Ptr(int64(2))

	table.CopyNonNull(dst, src)

	assert.Equal(t, "keep-me", dst.ID)
	assert.Equal(t, created, *dst.CreateTime)
	assert.Nil(t, dst.CreateBy)
	assert.Equal(t, int64(2), *dst.Version, "version is copied for the optimistic check")
}

func TestColumn_BlankStringsAreNotMatched(t *testing.T) {
	table := widgetTable()
	name, _ := table.Column("name")

	assert.True(t, name.IsBlank(&widget{}))
	assert.True(t, name.IsBlank(&widget{Name: Ptr("  ")}))
	assert.True(t, name.IsBlank(&widget{Name: Ptr("undefined")}))
	assert.False(t, name.IsBlank(&widget{Name: Ptr("x")}))
	assert.False(t, name.IsAbsent(&widget{Name: Ptr("")}))
}

func TestColumn_FormatAndParse(t *testing.T) {
	table := widgetTable()
	enabled, _ := table.Column("enabled")
	count, _ := table.Column("count")

	w := &widget{}
	_, ok := enabled.Format(w)
	assert.False(t, ok)

	require.NoError(t, enabled.Parse(w, "Disabled"))
	text, ok := enabled.Format(w)
	require.True(t, ok)
	assert.Equal(t, "disabled", text)
	assert.Equal(t, false, enabled.Value(w))

	require.NoError(t, enabled.Parse(w, "true"))
	assert.True(t, *w.Enabled)

	assert.Error(t, count.Parse(w, "seven"))
	require.NoError(t, count.Parse(w, " 7 "))
	assert.Equal(t, int64(7), count.Value(w))
	assert.Nil(t, count.Value(&widget{}))
}

func TestTimestampCodec_RoundTrip(t *testing.T) {
	codec := Timestamp(DefaultTimeLayout)
	in := time.Date(2024, 5, 6, 7, 8, 9, 0, time.Local)

	out, err := codec.Parse(codec.Format(&in))
	require.NoError(t, err)
	assert.True(t, in.Equal(*out))

	_, err = codec.Parse("yesterday")
	assert.Error(t, err)
}

func TestEnumCodec(t *testing.T) {
	codec := Enum(shadeLight, shadeDark)

	byMessage, err := codec.Parse("Dark")
	require.NoError(t, err)
	assert.Equal(t, shadeDark, *byMessage)

	byCode, err := codec.Parse("0")
	require.NoError(t, err)
	assert.Equal(t, shadeLight, *byCode)

	_, err = codec.Parse("9")
	assert.Error(t, err)

	assert.Equal(t, "dark", codec.Format(byMessage))
	assert.Equal(t, int64(1), codec.Value(byMessage))
}

func TestStringList_ScanAndValue(t *testing.T) {
	var l StringList
	require.NoError(t, l.Scan([]byte("a, b,,c ")))
	assert.Equal(t, StringList{"a", "b", "c"}, l)

	require.NoError(t, l.Scan(nil))
	assert.Nil(t, l)

	assert.Error(t, l.Scan(42))

	v, err := StringList{"x", "y"}.Value()
	require.NoError(t, err)
	assert.Equal(t, "x,y", v)

	v, err = StringList{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestBaseEntity_Stamps(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := &BaseEntity{Version: Ptr(int64(9)), CreateBy: Ptr("caller")}

	b.StampCreated(now, "")
	assert.Equal(t, int64(0), *b.Version)
	assert.Nil(t, b.CreateBy)
	assert.Equal(t, now, *b.CreateTime)
	assert.Equal(t, now, *b.UpdateTime)

	later := now.Add(time.Minute)
	b.StampUpdated(later, "alice")
	assert.Equal(t, later, *b.UpdateTime)
	assert.Equal(t, "alice", *b.UpdateBy)
	assert.Equal(t, now, *b.CreateTime)
}

func TestActorFromContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", ActorFromContext(ctx))
	assert.Equal(t, "bob", ActorFromContext(WithActor(ctx, "bob")))
}
