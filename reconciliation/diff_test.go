package reconciliation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "42", NormalizeCode(" 0042 "))
	assert.Equal(t, "A7", NormalizeCode("a7"))
	assert.Equal(t, "", NormalizeCode("000"))
	assert.Equal(t, "LUISA", NormalizeValue(AttributeSponsor, " luisa "))
	assert.Equal(t, "norte", NormalizeValue(AttributeZone, "norte"))
}

func TestParseAttribute(t *testing.T) {
	a, err := ParseAttribute("zones")
	require.NoError(t, err)
	assert.Equal(t, AttributeZone, a)

	a, err = ParseAttribute("Sponsors")
	require.NoError(t, err)
	assert.Equal(t, AttributeSponsor, a)

	_, err = ParseAttribute("colors")
	assert.Error(t, err)
}

func TestDiffZones(t *testing.T) {
	current := []Current{
		{Code: "0101", Name: "Ana", Value: "NORTE"},
		{Code: "0102", Name: "Luis", Value: "SUR"},
		{Code: "0103", Name: "Sara", Value: ""},
		{Code: "0104", Name: "Hugo", Value: "CENTRO"},
		{Code: "0105", Name: "Olga", Value: "OCCIDENTE"},
	}
	sheet := NewSheet([]string{"CODIGO", "ZONA"},
		[]string{"101", "NORTE"},
		[]string{"0102", "CENTRO"},
		[]string{"103", ""},
		[]string{"104", ""},
		[]string{"999", "SUR"},
		[]string{"", "SUR"},
	)

	sum, err := Diff(AttributeZone, sheet, current)
	require.NoError(t, err)
	assert.Equal(t, 6, sum.Total)

	require.Len(t, sum.Changed, 1)
	assert.Equal(t, Row{Line: 3, OperatorCode: "0102", OperatorName: "Luis", Previous: "SUR", New: "CENTRO", Status: StatusChanged}, sum.Changed[0])

	require.Len(t, sum.Unchanged, 2)
	assert.Equal(t, "0101", sum.Unchanged[0].OperatorCode)
	assert.Equal(t, "0103", sum.Unchanged[1].OperatorCode, "both empty counts as unchanged")

	require.Len(t, sum.AttributeMissing, 2)
	assert.Equal(t, "0104", sum.AttributeMissing[0].OperatorCode)
	assert.Equal(t, "CENTRO", sum.AttributeMissing[0].Previous)
	assert.Equal(t, "0105", sum.AttributeMissing[1].OperatorCode, "operators absent from the sheet")
	assert.Equal(t, "", sum.AttributeMissing[1].New)

	require.Len(t, sum.Unmatched, 1)
	assert.Equal(t, "999", sum.Unmatched[0].Code)

	require.Len(t, sum.Malformed, 1)
	assert.Equal(t, 7, sum.Malformed[0].Line)
}

func TestDiffSponsorsAreUppercased(t *testing.T) {
	current := []Current{{Code: "7", Name: "Ana", Value: "LUISA PARRA"}}
	sheet := NewSheet([]string{"codigo conductor", "Padrino"}, []string{"007", "luisa parra"})

	sum, err := Diff(AttributeSponsor, sheet, current)
	require.NoError(t, err)
	assert.Len(t, sum.Unchanged, 1)
	assert.Empty(t, sum.Changed)
}

func TestDiffTasksMatchByNationalID(t *testing.T) {
	current := []Current{
		{Code: "11", Name: "Ana", NationalID: "52369874", Value: "Troncal"},
		{Code: "12", Name: "Luis", NationalID: "79456321", Value: "Zonal"},
	}
	sheet := NewSheet([]string{"CEDULA", "NOMBRE", "TAREA NO COMERCIAL"},
		[]string{"52369874", "Ana", "Alimentador"},
		[]string{"79456321", "Luis", "Zonal"},
		[]string{"10000000", "Nadie", "Zonal"},
		[]string{"", "Sin dato", "Zonal"},
	)

	sum, err := Diff(AttributeTask, sheet, current)
	require.NoError(t, err)
	require.Len(t, sum.Changed, 1)
	assert.Equal(t, "11", sum.Changed[0].OperatorCode)
	assert.Equal(t, "Alimentador", sum.Changed[0].New)
	assert.Len(t, sum.Unchanged, 1)
	require.Len(t, sum.Unmatched, 1)
	assert.Equal(t, "10000000", sum.Unmatched[0].NationalID)
	assert.Len(t, sum.Malformed, 1)
}

func TestDiffMissingColumns(t *testing.T) {
	_, err := Diff(AttributeZone, NewSheet([]string{"codigo", "nombre"}), nil)
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = Diff(AttributeZone, NewSheet([]string{"zona"}), nil)
	assert.ErrorIs(t, err, ErrMissingColumn)
}
