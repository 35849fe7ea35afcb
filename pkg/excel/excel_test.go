package excel

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"crudkit/pkg/entity"
)

type product struct {
	entity.BaseEntity
	Title  *string           `db:"title"`
	Stock  *int              `db:"stock"`
	Labels entity.StringList `db:"labels"`
	Secret *string           `db:"secret"`
}

var products = entity.NewTable("product", func(p *product) *entity.BaseEntity { return &p.BaseEntity },
	entity.Field("title", "title", func(p *product) **string { return &p.Title }, entity.Text()).Excel("Title"),
	entity.Field("stock", "stock", func(p *product) **int { return &p.Stock }, entity.Int()).Excel("Stock").WithDefault("0"),
	entity.Field("labels", "labels", func(p *product) *entity.StringList { return &p.Labels }, entity.List()).Excel("Labels"),
	entity.Field("secret", "secret", func(p *product) **string { return &p.Secret }, entity.Text()),
)

func readSheet(t *testing.T, data []byte) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetList()[0])
	require.NoError(t, err)
	return rows
}

func TestWrite_EmptyInputWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, products, nil))
	assert.Zero(t, buf.Len())
}

func TestWrite_HeaderAndDefaults(t *testing.T) {
	created := time.Date(2024, 2, 3, 4, 5, 6, 0, time.Local)
	p := &product{Title: entity.Ptr("Lamp"), Secret: entity.Ptr("hidden")}
	p.CreateTime = &created
	p.Enabled = entity.Ptr(false)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, products, []*product{p}))

	rows := readSheet(t, buf.Bytes())
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Enabled", "Created At", "Updated At", "Created By", "Updated By", "Remark", "Title", "Stock", "Labels"}, rows[0])
	assert.Equal(t, "disabled", rows[1][0])
	assert.Equal(t, "2024-02-03 04:05:06", rows[1][1])
	assert.Equal(t, "Lamp", rows[1][6])
	assert.Equal(t, "0", rows[1][7], "absent stock exports the default")
	assert.NotContains(t, rows[1], "hidden")
}

func TestRoundTrip(t *testing.T) {
	in := []*product{
		{Title: entity.Ptr("Lamp"), Stock: entity.Ptr(3), Labels: entity.StringList{"home", "light"}},
		{Title: entity.Ptr("Desk"), Stock: entity.Ptr(0)},
	}
	in[0].Enabled = entity.Ptr(true)
	in[0].Remark = entity.Ptr("fragile")
	in[0].CreateBy = entity.Ptr("alice")
	in[1].ID = "keep-out"

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, products, in))

	out, err := Read(bytes.NewReader(buf.Bytes()), products)
	require.NoError(t, err)
	require.Len(t, out, 2)

	want := []*product{
		{Title: entity.Ptr("Lamp"), Stock: entity.Ptr(3), Labels: entity.StringList{"home", "light"}},
		{Title: entity.Ptr("Desk"), Stock: entity.Ptr(0)},
	}
	want[0].Enabled = entity.Ptr(true)
	want[0].Remark = entity.Ptr("fragile")

	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRead_ReportsBadCell(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Title", "Stock"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Lamp", "3"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"Desk", "many"}))
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Read(&buf, products)
	var cellErr *CellError
	require.ErrorAs(t, err, &cellErr)
	assert.Equal(t, 3, cellErr.Row)
	assert.Equal(t, "Stock", cellErr.Header)
}

func TestRead_SkipsBlankCellsAndRows(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Unknown", "Title", "Stock"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"x", "Lamp", " "}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]any{"", "Desk", "2"}))
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	out, err := Read(&buf, products)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Lamp", *out[0].Title)
	assert.Nil(t, out[0].Stock)
	assert.Equal(t, 2, *out[1].Stock)
}

func TestRead_NotAWorkbook(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("id,title\n1,Lamp\n")), products)
	assert.Error(t, err)
}

func TestWriteFile_CreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deeper", "products.xlsx")

	require.NoError(t, WriteFile(path, products, []*product{{Title: entity.Ptr("Lamp")}}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, readSheet(t, data), 2)

	empty := filepath.Join(dir, "empty", "none.xlsx")
	require.NoError(t, WriteFile(empty, products, nil))
	_, err = os.Stat(empty)
	assert.True(t, os.IsNotExist(err))
}
