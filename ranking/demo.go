package ranking

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MemorySource is an in-memory RecordSource and RecordSink.
// It backs the demo dataset and is handy in tests.
type MemorySource struct {
	mu        sync.RWMutex
	operators []OperatorIdentity
	variables []ControlVariableRecord
	incidents []IncidentRecord
}

// NewMemorySource copies the given records into a new source.
func NewMemorySource(operators []OperatorIdentity, variables []ControlVariableRecord, incidents []IncidentRecord) *MemorySource {
	return &MemorySource{
		operators: append([]OperatorIdentity(nil), operators...),
		variables: append([]ControlVariableRecord(nil), variables...),
		incidents: append([]IncidentRecord(nil), incidents...),
	}
}

func (m *MemorySource) ControlVariables(ctx context.Context, q ControlVariableQuery) ([]ControlVariableRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]ControlVariableRecord, 0, len(m.variables))
	for _, r := range m.variables {
		if q.OperatorCode != nil && r.OperatorCode != *q.OperatorCode {
			continue
		}
		if r.Kind() == KindUnclassified || !q.Period.Matches(r.WindowStart, r.WindowEnd) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *MemorySource) Incidents(ctx context.Context, q IncidentQuery) ([]IncidentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]IncidentRecord, 0, len(m.incidents))
	for _, inc := range m.incidents {
		if q.OperatorCode != nil && inc.OperatorCode != *q.OperatorCode {
			continue
		}
		if q.Since != nil && inc.WindowStart.Before(*q.Since) {
			continue
		}
		out = append(out, inc)
	}
	return out, nil
}

func (m *MemorySource) OperatorIdentities(ctx context.Context) ([]OperatorIdentity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := append([]OperatorIdentity(nil), m.operators...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *MemorySource) LatestRecordDates(ctx context.Context) (map[string]time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]time.Time)
	for _, r := range m.variables {
		if r.Kind() == KindUnclassified {
			continue
		}
		ref := r.ReferenceDate()
		if cur, ok := out[r.OperatorCode]; !ok || ref.After(cur) {
			out[r.OperatorCode] = ref
		}
	}
	return out, nil
}

// UpsertOperatorAttribute sets zone, sponsor or task on an existing operator.
// Unknown operators are created with only the code and the attribute.
func (m *MemorySource) UpsertOperatorAttribute(ctx context.Context, code, attribute, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := -1
	for i := range m.operators {
		if m.operators[i].Code == code {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.operators = append(m.operators, OperatorIdentity{Code: code})
		idx = len(m.operators) - 1
	}

	op := &m.operators[idx]
	switch strings.ToLower(attribute) {
	case "zone":
		op.Zone = value
	case "sponsor":
		op.Sponsor = value
	case "task":
		op.Task = value
	}
	return nil
}

type demoOperator struct {
	identity   OperatorIdentity
	bonusExec  int64
	bonusProg  int64
	kmExec     int64
	kmProg     int64
	factorCode string
	factorDays int
}

var demoOperators = []demoOperator{
	{OperatorIdentity{Code: "1001", Name: "Carlos Rodríguez", NationalID: "79845123", Position: "Operador", Zone: "NORTE", Sponsor: "ANDRES GOMEZ", Task: "Troncal"}, 142000, 142000, 1980, 2000, "", 0},
	{OperatorIdentity{Code: "1002", Name: "María Gómez", NationalID: "52369874", Position: "Operador", Zone: "SUR", Sponsor: "LUISA PARRA", Task: "Troncal"}, 142000, 142000, 1850, 2000, "5", 1},
	{OperatorIdentity{Code: "1003", Name: "Jorge Martínez", NationalID: "80123456", Position: "Operador", Zone: "CENTRO", Sponsor: "ANDRES GOMEZ", Task: "Alimentador"}, 135000, 142000, 1900, 2000, "", 0},
	{OperatorIdentity{Code: "1004", Name: "Ana Torres", NationalID: "1030456789", Position: "Operador", Zone: "NORTE", Sponsor: "LUISA PARRA", Task: "Alimentador"}, 142000, 142000, 1500, 2000, "DL", 1},
	{OperatorIdentity{Code: "1005", Name: "Luis Herrera", NationalID: "79456321", Position: "Operador", Zone: "OCCIDENTE", Sponsor: "PEDRO SUAREZ", Task: "Troncal"}, 142000, 142000, 1760, 2000, "3", 2},
	{OperatorIdentity{Code: "1006", Name: "Sandra López", NationalID: "52987412", Position: "Operador", Zone: "SUR", Sponsor: "PEDRO SUAREZ", Task: "Zonal"}, 120000, 142000, 1300, 2000, "2", 1},
	{OperatorIdentity{Code: "1007", Name: "Andrés Castro", NationalID: "1012345678", Position: "Operador", Zone: "CENTRO", Sponsor: "ANDRES GOMEZ", Task: "Zonal"}, 142000, 142000, 2000, 2000, "7", 5},
	{OperatorIdentity{Code: "1008", Name: "Paola Ramírez", NationalID: "53214789", Position: "Operador", Zone: "OCCIDENTE", Sponsor: "LUISA PARRA", Task: "Troncal"}, 142000, 142000, 1720, 2000, "OM", 1},
}

// NewDemoSource builds the bundled demo dataset anchored on the month before now.
func NewDemoSource(now time.Time) *MemorySource {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	end := start.AddDate(0, 1, -1)

	operators := make([]OperatorIdentity, 0, len(demoOperators))
	variables := make([]ControlVariableRecord, 0, len(demoOperators)*2)
	incidents := make([]IncidentRecord, 0)
	for i, d := range demoOperators {
		id := d.identity
		join := start.AddDate(-1-i%3, 0, 0)
		id.JoinDate = &join
		id.Phone = "300000" + id.Code
		operators = append(operators, id)

		execDate := end
		variables = append(variables,
			ControlVariableRecord{
				OperatorCode:    id.Code,
				VariableCode:    "bono_mensual",
				ProgrammedValue: decimal.NewFromInt(d.bonusProg),
				ExecutedValue:   decimal.NewFromInt(d.bonusExec),
				WindowStart:     start,
				WindowEnd:       end,
				ExecutionDate:   &execDate,
			},
			ControlVariableRecord{
				OperatorCode:    id.Code,
				VariableCode:    "km_mensual",
				ProgrammedValue: decimal.NewFromInt(d.kmProg),
				ExecutedValue:   decimal.NewFromInt(d.kmExec),
				WindowStart:     start,
				WindowEnd:       end,
				ExecutionDate:   &execDate,
			},
		)

		if d.factorCode != "" {
			incStart := start.AddDate(0, 0, 3+i)
			incEnd := incStart.AddDate(0, 0, d.factorDays-1)
			incidents = append(incidents, IncidentRecord{
				OperatorCode: id.Code,
				FactorCode:   d.factorCode,
				WindowStart:  incStart,
				WindowEnd:    &incEnd,
				Observation:  "Registro de demostración",
			})
		}
	}
	return NewMemorySource(operators, variables, incidents)
}
