package spreadsheet

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/andresuchdata/draftq-processor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boqTable() *domain.Table {
	return &domain.Table{
		Columns: []string{"Item", "Quantity", "Unit"},
		Rows: [][]any{
			{"Wall Finish", 120, "m2"},
			{"Floor Finish", 200, "m2"},
		},
	}
}

func TestWriteXLSX_ReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output.xlsx")
	require.NoError(t, WriteXLSX(boqTable(), path))

	rows, err := ReadXLSX(path)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Item", "Quantity", "Unit"},
		{"Wall Finish", "120", "m2"},
		{"Floor Finish", "200", "m2"},
	}, rows)
}

func TestWriteXLSX_NamedSheet(t *testing.T) {
	table := boqTable()
	table.Sheet = "BOQ"
	path := filepath.Join(t.TempDir(), "named.xlsx")
	require.NoError(t, WriteXLSX(table, path))

	rows, err := ReadXLSX(path)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestWriteXLSX_Invalid(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, WriteXLSX(&domain.Table{}, filepath.Join(dir, "a.xlsx")))

	ragged := boqTable()
	ragged.Rows = append(ragged.Rows, []any{"Ceiling Paint"})
	assert.Error(t, WriteXLSX(ragged, filepath.Join(dir, "b.xlsx")))
}

func TestConvertXLSXToCSV(t *testing.T) {
	dir := t.TempDir()
	xlsxPath := filepath.Join(dir, "output.xlsx")
	csvPath := filepath.Join(dir, "output.csv")
	require.NoError(t, WriteXLSX(boqTable(), xlsxPath))
	require.NoError(t, ConvertXLSXToCSV(xlsxPath, csvPath))

	got, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, "Item,Quantity,Unit\nWall Finish,120,m2\nFloor Finish,200,m2\n", string(got))

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(xlsxPath, &buf))
	assert.Equal(t, string(got), buf.String())
}

func TestReadXLSX_MissingFile(t *testing.T) {
	_, err := ReadXLSX(filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.Error(t, err)
}
