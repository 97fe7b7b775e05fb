package reconciliation

import (
	"strings"
	"time"
)

// Duplicate is a row dropped because its key was already seen.
type Duplicate struct {
	Line int
	Key  string
}

// Dedupe keeps the first item per key and returns the rest as duplicates, preserving order.
func Dedupe[T any](items []T, key func(T) string) (unique, duplicates []T) {
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		k := key(it)
		if _, ok := seen[k]; ok {
			duplicates = append(duplicates, it)
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, it)
	}
	return unique, duplicates
}

const keyDate = "2006-01-02"

// IncidentKey identifies an incident by operator, start date and factor.
func IncidentKey(code string, start time.Time, factor string) string {
	return strings.Join([]string{NormalizeCode(code), start.UTC().Format(keyDate), strings.TrimSpace(factor)}, "|")
}

// ControlVariableKey identifies a control variable by operator, variable and scheduling window.
func ControlVariableKey(code, variable string, start, end time.Time) string {
	return strings.Join([]string{
		NormalizeCode(code),
		strings.ToLower(strings.TrimSpace(variable)),
		start.UTC().Format(keyDate),
		end.UTC().Format(keyDate),
	}, "|")
}
