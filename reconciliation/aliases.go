// Package reconciliation reads uploaded spreadsheets and compares them with persisted operator data
package reconciliation

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Field is a logical column of an upload.
type Field string

const (
	FieldCode       Field = "code"
	FieldName       Field = "name"
	FieldNationalID Field = "national_id"
	FieldPosition   Field = "position"
	FieldPhone      Field = "phone"
	FieldJoinDate   Field = "join_date"
	FieldZone       Field = "zone"
	FieldSponsor    Field = "sponsor"
	FieldTask       Field = "task"

	FieldFactorCode    Field = "factor_code"
	FieldIncidentStart Field = "incident_start"
	FieldIncidentEnd   Field = "incident_end"
	FieldObservation   Field = "observation"

	FieldVariableCode    Field = "variable_code"
	FieldProgrammedValue Field = "programmed_value"
	FieldExecutedValue   Field = "executed_value"
	FieldWindowStart     Field = "window_start"
	FieldWindowEnd       Field = "window_end"
	FieldExecutionStart  Field = "execution_start"
	FieldExecutionEnd    Field = "execution_end"
)

// aliases lists the accepted headers per field in priority order.
var aliases = map[Field][]string{
	FieldCode:       {"codigo", "codigo_empleado", "CÓDIGO EMPLEADO", "codigo conductor", "codigo operador", "code"},
	FieldName:       {"nombre", "nombre completo", "name"},
	FieldNationalID: {"cedula", "cédula", "documento", "national_id"},
	FieldPosition:   {"cargo", "rol", "position"},
	FieldPhone:      {"telefono", "teléfono", "celular", "phone"},
	FieldJoinDate:   {"fecha_ingreso", "FECHA INGRESO", "join_date"},
	FieldZone:       {"zona", "zone"},
	FieldSponsor:    {"padrino", "nombre padrino", "sponsor"},
	FieldTask:       {"TAREA NO COMERCIAL", "tarea_no_comercial", "tarea", "task"},

	FieldFactorCode:    {"codigo_factor", "CÓDIGO FACTOR DE CALIFICACIÓN", "factor"},
	FieldIncidentStart: {"fecha_inicio_novedad", "FECHA INICIO NOVEDAD (YYYY-MM-DD)", "fecha inicio"},
	FieldIncidentEnd:   {"fecha_fin_novedad", "FECHA FIN NOVEDAD (YYYY-MM-DD)", "fecha fin"},
	FieldObservation:   {"observaciones", "observacion", "observation"},

	FieldVariableCode:    {"codigo_variable", "CÓDIGO VARIABLE DE CONTROL", "variable"},
	FieldProgrammedValue: {"valor_programacion", "VALOR VAR. PROGRAMACIÓN", "programado"},
	FieldExecutedValue:   {"valor_ejecucion", "VALOR VAR. EJECUCIÓN", "ejecutado"},
	FieldWindowStart:     {"fecha_inicio_programacion", "FECHA INICIO PROGRAMACIÓN (YYYY-MM-DD)"},
	FieldWindowEnd:       {"fecha_fin_programacion", "FECHA FIN PROGRAMACIÓN (YYYY-MM-DD)"},
	FieldExecutionStart:  {"fecha_inicio_ejecucion", "FECHA INICIO EJECUCIÓN (YYYY-MM-DD)"},
	FieldExecutionEnd:    {"fecha_fin_ejecucion", "FECHA FIN EJECUCIÓN (YYYY-MM-DD)"},
}

// Aliases returns the accepted headers for a field.
func Aliases(f Field) []string {
	return append([]string(nil), aliases[f]...)
}

// CleanKey folds a header for comparison: lowercase, no accents, letters and digits only.
func CleanKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// HeaderMap holds the column index of every resolved field.
type HeaderMap map[Field]int

// ResolveHeaders maps fields to columns. For each field the first alias present in the header wins.
func ResolveHeaders(header []string, fields ...Field) HeaderMap {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := CleanKey(h)
		if key == "" {
			continue
		}
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}

	hm := make(HeaderMap, len(fields))
	for _, f := range fields {
		for _, alias := range aliases[f] {
			if idx, ok := cols[CleanKey(alias)]; ok {
				hm[f] = idx
				break
			}
		}
	}
	return hm
}

// Has reports whether the field was found in the header.
func (h HeaderMap) Has(f Field) bool {
	_, ok := h[f]
	return ok
}

// Missing returns the fields among want that the header lacks.
func (h HeaderMap) Missing(want ...Field) []Field {
	var out []Field
	for _, f := range want {
		if !h.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Value returns the trimmed cell of field f, or "" when the column or cell is absent.
func (h HeaderMap) Value(row []string, f Field) string {
	idx, ok := h[f]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
