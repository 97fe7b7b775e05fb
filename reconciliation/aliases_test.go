package reconciliation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"CÓDIGO EMPLEADO", "codigoempleado"},
		{"  codigo_empleado ", "codigoempleado"},
		{"FECHA INICIO NOVEDAD (YYYY-MM-DD)", "fechainicionovedadyyyymmdd"},
		{"Cédula", "cedula"},
		{"VALOR VAR. EJECUCIÓN", "valorvarejecucion"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanKey(tt.in))
		})
	}
}

func TestResolveHeaders(t *testing.T) {
	header := []string{"Nombre", "CÓDIGO EMPLEADO", "Zona ", "codigo"}
	hm := ResolveHeaders(header, FieldCode, FieldName, FieldZone, FieldSponsor)

	assert.Equal(t, 3, hm[FieldCode], "first alias in priority order wins")
	assert.Equal(t, 0, hm[FieldName])
	assert.Equal(t, 2, hm[FieldZone])
	assert.False(t, hm.Has(FieldSponsor))
	assert.Equal(t, []Field{FieldSponsor}, hm.Missing(FieldCode, FieldSponsor))

	row := []string{" Ana ", "0042", "NORTE"}
	assert.Equal(t, "Ana", hm.Value(row, FieldName))
	assert.Equal(t, "NORTE", hm.Value(row, FieldZone))
	assert.Equal(t, "", hm.Value(row, FieldCode), "short rows yield empty values")
	assert.Equal(t, "", hm.Value(row, FieldSponsor))
}
