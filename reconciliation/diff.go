package reconciliation

import (
	"fmt"
	"sort"
	"strings"
)

// Attribute is an operator field that can be reassigned by an upload.
type Attribute string

const (
	AttributeZone    Attribute = "zone"
	AttributeSponsor Attribute = "sponsor"
	AttributeTask    Attribute = "task"
)

// ParseAttribute accepts the attribute names used in upload routes.
func ParseAttribute(s string) (Attribute, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "zone", "zones":
		return AttributeZone, nil
	case "sponsor", "sponsors":
		return AttributeSponsor, nil
	case "task", "tasks":
		return AttributeTask, nil
	}
	return "", fmt.Errorf("unknown attribute %q", s)
}

// Field is the column holding the attribute in an upload.
func (a Attribute) Field() Field {
	switch a {
	case AttributeSponsor:
		return FieldSponsor
	case AttributeTask:
		return FieldTask
	default:
		return FieldZone
	}
}

// Status classifies one operator in a reconciliation.
type Status string

const (
	StatusChanged          Status = "changed"
	StatusUnchanged        Status = "unchanged"
	StatusAttributeMissing Status = "attribute_missing"
)

// Current is the persisted value of the attribute for one operator.
type Current struct {
	Code       string
	Name       string
	NationalID string
	Value      string
}

// Row is the outcome for one operator.
type Row struct {
	Line         int
	OperatorCode string
	OperatorName string
	Previous     string
	New          string
	Status       Status
}

// Unmatched is a sheet row whose operator is not in the store.
type Unmatched struct {
	Line       int
	Code       string
	NationalID string
	Name       string
	Value      string
}

// RowError is a sheet row excluded for missing or invalid fields.
type RowError struct {
	Line   int
	Reason string
}

// Summary is the full outcome of an attribute reconciliation.
type Summary struct {
	Attribute        Attribute
	Total            int
	Changed          []Row
	Unchanged        []Row
	AttributeMissing []Row
	Unmatched        []Unmatched
	Malformed        []RowError
}

// NormalizeCode trims, drops leading zeros and uppercases an operator code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimLeft(strings.TrimSpace(code), "0"))
}

// NormalizeValue prepares an attribute value for comparison and storage.
func NormalizeValue(attr Attribute, v string) string {
	v = strings.TrimSpace(v)
	if attr == AttributeSponsor {
		return strings.ToUpper(v)
	}
	return v
}

type sheetEntry struct {
	line  int
	code  string
	name  string
	value string
}

// Diff compares an uploaded attribute sheet with the persisted values.
// Task sheets may identify operators by national ID when the code is absent.
func Diff(attr Attribute, sheet *Sheet, current []Current) (*Summary, error) {
	hm := ResolveHeaders(sheet.Header, FieldCode, FieldName, FieldNationalID, attr.Field())
	if !hm.Has(attr.Field()) {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, attr.Field())
	}
	byNationalID := attr == AttributeTask && hm.Has(FieldNationalID)
	if !hm.Has(FieldCode) && !byNationalID {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, FieldCode)
	}

	byCode := make(map[string]Current, len(current))
	codeByNID := make(map[string]string)
	for _, c := range current {
		norm := NormalizeCode(c.Code)
		if norm == "" {
			continue
		}
		byCode[norm] = c
		if nid := strings.TrimSpace(c.NationalID); nid != "" {
			codeByNID[nid] = norm
		}
	}

	sum := &Summary{Attribute: attr, Total: len(sheet.Rows)}

	entries := make(map[string]sheetEntry)
	order := make([]string, 0, len(sheet.Rows))
	for i, row := range sheet.Rows {
		line := sheet.Line(i)
		code := NormalizeCode(hm.Value(row, FieldCode))
		nid := hm.Value(row, FieldNationalID)
		value := NormalizeValue(attr, hm.Value(row, attr.Field()))
		name := hm.Value(row, FieldName)

		if code == "" && byNationalID && nid != "" {
			if resolved, ok := codeByNID[nid]; ok {
				code = resolved
			} else {
				sum.Unmatched = append(sum.Unmatched, Unmatched{Line: line, NationalID: nid, Name: name, Value: value})
				continue
			}
		}
		if code == "" {
			sum.Malformed = append(sum.Malformed, RowError{Line: line, Reason: "missing operator code"})
			continue
		}
		if _, ok := byCode[code]; !ok {
			sum.Unmatched = append(sum.Unmatched, Unmatched{Line: line, Code: code, NationalID: nid, Name: name, Value: value})
			continue
		}

		if _, seen := entries[code]; !seen {
			order = append(order, code)
		}
		entries[code] = sheetEntry{line: line, code: code, name: name, value: value}
	}

	for _, code := range order {
		e := entries[code]
		cur := byCode[code]
		r := Row{
			Line:         e.line,
			OperatorCode: cur.Code,
			OperatorName: cur.Name,
			Previous:     cur.Value,
			New:          e.value,
		}
		prev := NormalizeValue(attr, cur.Value)
		switch {
		case e.value == prev:
			r.Status = StatusUnchanged
			sum.Unchanged = append(sum.Unchanged, r)
		case e.value == "":
			r.Status = StatusAttributeMissing
			sum.AttributeMissing = append(sum.AttributeMissing, r)
		default:
			r.Status = StatusChanged
			sum.Changed = append(sum.Changed, r)
		}
	}

	absent := make([]Current, 0)
	for norm, cur := range byCode {
		if _, ok := entries[norm]; !ok {
			absent = append(absent, cur)
		}
	}
	sort.Slice(absent, func(i, j int) bool { return absent[i].Code < absent[j].Code })
	for _, cur := range absent {
		sum.AttributeMissing = append(sum.AttributeMissing, Row{
			OperatorCode: cur.Code,
			OperatorName: cur.Name,
			Previous:     cur.Value,
			Status:       StatusAttributeMissing,
		})
	}

	return sum, nil
}
