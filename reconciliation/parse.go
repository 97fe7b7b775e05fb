package reconciliation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/operator-ranking/ranking"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var errBadDate = errors.New("invalid date")

// Batch is a parsed upload after malformed rows and in-batch duplicates are removed.
type Batch[T any] struct {
	Rows       []T
	Duplicates []Duplicate
	Malformed  []RowError
	Total      int
	Columns    HeaderMap
}

type IncidentRow struct {
	Line   int
	Record ranking.IncidentRecord
}

// Key is the composite duplicate key of the incident.
func (r IncidentRow) Key() string {
	return IncidentKey(r.Record.OperatorCode, r.Record.WindowStart, r.Record.FactorCode)
}

type ControlVariableRow struct {
	Line   int
	Record ranking.ControlVariableRecord
}

// Key is the composite duplicate key of the control variable.
func (r ControlVariableRow) Key() string {
	return ControlVariableKey(r.Record.OperatorCode, r.Record.VariableCode, r.Record.WindowStart, r.Record.WindowEnd)
}

type OperatorRow struct {
	Line     int
	Identity ranking.OperatorIdentity
}

func (r OperatorRow) Key() string {
	return NormalizeCode(r.Identity.Code)
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
}

// excelCellLayouts are month-first with a two digit year. excelize renders
// date cells without an explicit number format as mm-dd-yy, so these only
// match cell text from xlsx uploads and never a four digit year typed by hand.
var excelCellLayouts = []string{
	"01-02-06",
	"1/2/06",
}

// ParseDate accepts ISO dates, day-first dates, excelize cell text and Excel serial numbers.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errBadDate
	}
	for _, layouts := range [][]string{dateLayouts, excelCellLayouts} {
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				return truncate(t), nil
			}
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return truncate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", errBadDate, s)
}

func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDecimal reads amounts written with either comma or dot decimals. Empty cells are zero.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.NewReplacer(" ", "", "$", "").Replace(strings.TrimSpace(s))
	if s == "" {
		return decimal.Zero, nil
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 != 3 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q", s)
	}
	return d, nil
}

// ParseIncidents reads an incident upload. Code, start date and factor are required.
func ParseIncidents(sheet *Sheet) (*Batch[IncidentRow], error) {
	hm := ResolveHeaders(sheet.Header, FieldCode, FieldFactorCode, FieldIncidentStart, FieldIncidentEnd, FieldObservation)
	if missing := hm.Missing(FieldCode, FieldFactorCode, FieldIncidentStart); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrMissingColumn, missing)
	}

	batch := &Batch[IncidentRow]{Total: len(sheet.Rows), Columns: hm}
	rows := make([]IncidentRow, 0, len(sheet.Rows))
	for i, row := range sheet.Rows {
		line := sheet.Line(i)
		code := NormalizeCode(hm.Value(row, FieldCode))
		factor := hm.Value(row, FieldFactorCode)
		startRaw := hm.Value(row, FieldIncidentStart)
		if code == "" || factor == "" || startRaw == "" {
			batch.Malformed = append(batch.Malformed, RowError{Line: line, Reason: "missing code, start date or factor"})
			continue
		}
		start, err := ParseDate(startRaw)
		if err != nil {
			batch.Malformed = append(batch.Malformed, RowError{Line: line, Reason: err.Error()})
			continue
		}

		rec := ranking.IncidentRecord{
			OperatorCode: code,
			FactorCode:   factor,
			WindowStart:  start,
			Observation:  hm.Value(row, FieldObservation),
		}
		if endRaw := hm.Value(row, FieldIncidentEnd); endRaw != "" {
			end, err := ParseDate(endRaw)
			if err != nil {
				batch.Malformed = append(batch.Malformed, RowError{Line: line, Reason: err.Error()})
				continue
			}
			rec.WindowEnd = &end
		}
		rows = append(rows, IncidentRow{Line: line, Record: rec})
	}

	unique, dups := Dedupe(rows, IncidentRow.Key)
	batch.Rows = unique
	for _, d := range dups {
		batch.Duplicates = append(batch.Duplicates, Duplicate{Line: d.Line, Key: d.Key()})
	}
	return batch, nil
}

// ParseControlVariables reads a bonus or kilometer upload.
func ParseControlVariables(sheet *Sheet) (*Batch[ControlVariableRow], error) {
	hm := ResolveHeaders(sheet.Header,
		FieldCode, FieldVariableCode, FieldProgrammedValue, FieldExecutedValue,
		FieldWindowStart, FieldWindowEnd, FieldExecutionStart, FieldExecutionEnd)
	if missing := hm.Missing(FieldCode, FieldVariableCode, FieldWindowStart, FieldWindowEnd); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrMissingColumn, missing)
	}

	batch := &Batch[ControlVariableRow]{Total: len(sheet.Rows), Columns: hm}
	rows := make([]ControlVariableRow, 0, len(sheet.Rows))
	for i, row := range sheet.Rows {
		line := sheet.Line(i)
		rec, err := parseControlVariable(hm, row)
		if err != nil {
			batch.Malformed = append(batch.Malformed, RowError{Line: line, Reason: err.Error()})
			continue
		}
		rows = append(rows, ControlVariableRow{Line: line, Record: rec})
	}

	unique, dups := Dedupe(rows, ControlVariableRow.Key)
	batch.Rows = unique
	for _, d := range dups {
		batch.Duplicates = append(batch.Duplicates, Duplicate{Line: d.Line, Key: d.Key()})
	}
	return batch, nil
}

func parseControlVariable(hm HeaderMap, row []string) (ranking.ControlVariableRecord, error) {
	code := NormalizeCode(hm.Value(row, FieldCode))
	variable := hm.Value(row, FieldVariableCode)
	if code == "" || variable == "" {
		return ranking.ControlVariableRecord{}, errors.New("missing code or variable")
	}
	start, err := ParseDate(hm.Value(row, FieldWindowStart))
	if err != nil {
		return ranking.ControlVariableRecord{}, err
	}
	end, err := ParseDate(hm.Value(row, FieldWindowEnd))
	if err != nil {
		return ranking.ControlVariableRecord{}, err
	}
	programmed, err := ParseDecimal(hm.Value(row, FieldProgrammedValue))
	if err != nil {
		return ranking.ControlVariableRecord{}, err
	}
	executed, err := ParseDecimal(hm.Value(row, FieldExecutedValue))
	if err != nil {
		return ranking.ControlVariableRecord{}, err
	}

	rec := ranking.ControlVariableRecord{
		OperatorCode:    code,
		VariableCode:    variable,
		ProgrammedValue: programmed,
		ExecutedValue:   executed,
		WindowStart:     start,
		WindowEnd:       end,
	}
	for _, f := range []Field{FieldExecutionEnd, FieldExecutionStart} {
		if raw := hm.Value(row, f); raw != "" {
			if t, err := ParseDate(raw); err == nil {
				rec.ExecutionDate = &t
				break
			}
		}
	}
	return rec, nil
}

// ParseOperators reads an operator identity upload. Only the code is required.
func ParseOperators(sheet *Sheet) (*Batch[OperatorRow], error) {
	hm := ResolveHeaders(sheet.Header,
		FieldCode, FieldName, FieldNationalID, FieldPosition, FieldPhone,
		FieldJoinDate, FieldZone, FieldSponsor, FieldTask)
	if !hm.Has(FieldCode) {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, FieldCode)
	}

	batch := &Batch[OperatorRow]{Total: len(sheet.Rows), Columns: hm}
	rows := make([]OperatorRow, 0, len(sheet.Rows))
	for i, row := range sheet.Rows {
		line := sheet.Line(i)
		code := NormalizeCode(hm.Value(row, FieldCode))
		if code == "" {
			batch.Malformed = append(batch.Malformed, RowError{Line: line, Reason: "missing operator code"})
			continue
		}
		id := ranking.OperatorIdentity{
			Code:       code,
			Name:       hm.Value(row, FieldName),
			NationalID: hm.Value(row, FieldNationalID),
			Position:   hm.Value(row, FieldPosition),
			Phone:      hm.Value(row, FieldPhone),
			Zone:       NormalizeValue(AttributeZone, hm.Value(row, FieldZone)),
			Sponsor:    NormalizeValue(AttributeSponsor, hm.Value(row, FieldSponsor)),
			Task:       NormalizeValue(AttributeTask, hm.Value(row, FieldTask)),
		}
		if raw := hm.Value(row, FieldJoinDate); raw != "" {
			t, err := ParseDate(raw)
			if err != nil {
				batch.Malformed = append(batch.Malformed, RowError{Line: line, Reason: err.Error()})
				continue
			}
			id.JoinDate = &t
		}
		rows = append(rows, OperatorRow{Line: line, Identity: id})
	}

	unique, dups := Dedupe(rows, OperatorRow.Key)
	batch.Rows = unique
	for _, d := range dups {
		batch.Duplicates = append(batch.Duplicates, Duplicate{Line: d.Line, Key: d.Key()})
	}
	return batch, nil
}
