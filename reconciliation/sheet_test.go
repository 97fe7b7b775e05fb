package reconciliation

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadSheetCSV(t *testing.T) {
	data := "\ufeffcodigo,zona\n0101,NORTE\n,\n0102,SUR\n"

	sheet, err := ReadSheet(strings.NewReader(data), "zonas.CSV")
	require.NoError(t, err)
	assert.Equal(t, []string{"codigo", "zona"}, sheet.Header)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, []string{"0101", "NORTE"}, sheet.Rows[0])
	assert.Equal(t, 2, sheet.Line(0))
	assert.Equal(t, 4, sheet.Line(1))
}

func TestReadSheetXLSX(t *testing.T) {
	f := excelize.NewFile()
	name := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(name, "A1", &[]string{"codigo", "padrino"}))
	require.NoError(t, f.SetSheetRow(name, "A2", &[]string{"7", "luisa parra"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	sheet, err := ReadSheet(bytes.NewReader(buf.Bytes()), "padrinos.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []string{"codigo", "padrino"}, sheet.Header)
	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, "luisa parra", sheet.Rows[0][1])
	assert.Equal(t, 2, sheet.Line(0))
}

func TestReadSheetErrors(t *testing.T) {
	_, err := ReadSheet(strings.NewReader("a,b"), "data.txt")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ReadSheet(strings.NewReader("\n\n"), "empty.csv")
	assert.ErrorIs(t, err, ErrEmptySheet)

	assert.True(t, SupportedExtension("a.xlsx"))
	assert.False(t, SupportedExtension("a.xls"))
}
