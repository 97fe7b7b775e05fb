package reconciliation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2024-03-01", "2024-03-01 08:30:00", "01/03/2024", "1/3/2024", "2024/03/01", "45352"} {
		t.Run(in, func(t *testing.T) {
			got, err := ParseDate(in)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	_, err := ParseDate("mañana")
	assert.Error(t, err)
	_, err = ParseDate("")
	assert.Error(t, err)
}

func TestParseDateFieldOrder(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"03/04/2024", time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC)},
		{"03-04-2024", time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC)},
		{"3/4/2024", time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC)},
		{"03-04-24", time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)},
		{"3/4/24", time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseDate("13-25-24")
	assert.Error(t, err)
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "0"},
		{"1000", "1000"},
		{"1000.5", "1000.5"},
		{"1000,5", "1000.5"},
		{"1.234,56", "1234.56"},
		{"1,234.56", "1234.56"},
		{"142,000", "142000"},
		{"$ 142.000,00", "142000"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDecimal(tt.in)
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}

	_, err := ParseDecimal("mil")
	assert.Error(t, err)
}

func TestParseIncidents(t *testing.T) {
	sheet := NewSheet(
		[]string{"CÓDIGO EMPLEADO", "CÓDIGO FACTOR DE CALIFICACIÓN", "FECHA INICIO NOVEDAD (YYYY-MM-DD)", "FECHA FIN NOVEDAD (YYYY-MM-DD)", "OBSERVACIONES"},
		[]string{"0042", "5", "2024-03-01", "2024-03-01", "llegó tarde"},
		[]string{"42", "5", "2024-03-01", "2024-03-02", "repetido"},
		[]string{"42", "3", "2024-03-05", "", ""},
		[]string{"", "5", "2024-03-01", "", ""},
		[]string{"43", "5", "ayer", "", ""},
	)

	batch, err := ParseIncidents(sheet)
	require.NoError(t, err)
	assert.Equal(t, 5, batch.Total)
	require.Len(t, batch.Rows, 2)
	assert.Equal(t, "42", batch.Rows[0].Record.OperatorCode)
	assert.Equal(t, "llegó tarde", batch.Rows[0].Record.Observation)
	require.NotNil(t, batch.Rows[0].Record.WindowEnd)
	assert.Nil(t, batch.Rows[1].Record.WindowEnd)

	require.Len(t, batch.Duplicates, 1)
	assert.Equal(t, Duplicate{Line: 3, Key: "42|2024-03-01|5"}, batch.Duplicates[0])
	assert.Len(t, batch.Malformed, 2)
}

func TestParseIncidentsRequiresColumns(t *testing.T) {
	_, err := ParseIncidents(NewSheet([]string{"codigo", "factor"}))
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestParseControlVariables(t *testing.T) {
	sheet := NewSheet(
		[]string{"codigo_empleado", "codigo_variable", "valor_programacion", "valor_ejecucion", "fecha_inicio_programacion", "fecha_fin_programacion", "fecha_fin_ejecucion"},
		[]string{"7", "KM", "100", "94", "2024-03-01", "2024-03-31", "2024-03-31"},
		[]string{"7", "km", "100", "90", "2024-03-01", "2024-03-31", ""},
		[]string{"7", "BONO", "142000", "142000", "2024-03-01", "2024-03-31", ""},
		[]string{"7", "BONO", "x", "1", "2024-03-01", "2024-03-31", ""},
	)

	batch, err := ParseControlVariables(sheet)
	require.NoError(t, err)
	require.Len(t, batch.Rows, 2)
	assert.True(t, batch.Rows[0].Record.ExecutedValue.Equal(decimal.NewFromInt(94)))
	require.NotNil(t, batch.Rows[0].Record.ExecutionDate)
	assert.Nil(t, batch.Rows[1].Record.ExecutionDate)
	require.Len(t, batch.Duplicates, 1)
	assert.Equal(t, 3, batch.Duplicates[0].Line)
	assert.Len(t, batch.Malformed, 1)
}

func TestParseOperators(t *testing.T) {
	sheet := NewSheet(
		[]string{"codigo", "nombre", "cedula", "zona", "padrino", "fecha_ingreso"},
		[]string{"0101", "Ana", "52369874", "NORTE", "luisa", "2020-02-01"},
		[]string{"101", "Ana B", "", "", "", ""},
		[]string{"", "Nadie", "", "", "", ""},
	)

	batch, err := ParseOperators(sheet)
	require.NoError(t, err)
	require.Len(t, batch.Rows, 1)
	id := batch.Rows[0].Identity
	assert.Equal(t, "101", id.Code)
	assert.Equal(t, "LUISA", id.Sponsor)
	require.NotNil(t, id.JoinDate)
	assert.Len(t, batch.Duplicates, 1)
	assert.Len(t, batch.Malformed, 1)
	assert.True(t, batch.Columns.Has(FieldZone))
	assert.False(t, batch.Columns.Has(FieldTask))
}

func TestDedupe(t *testing.T) {
	unique, dups := Dedupe([]string{"a", "b", "a", "c", "b"}, func(s string) string { return s })
	assert.Equal(t, []string{"a", "b", "c"}, unique)
	assert.Equal(t, []string{"a", "b"}, dups)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "7|km|2024-03-01|2024-03-31", ControlVariableKey("007", " KM ", start, start.AddDate(0, 0, 30)))
}
