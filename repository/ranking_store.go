package repository

import (
	"context"
	"time"

	"github.com/amirphl/operator-ranking/models"
	"github.com/amirphl/operator-ranking/ranking"
	"github.com/google/uuid"
)

// RankingStore serves the ranking engine from PostgreSQL.
// It implements ranking.RecordSource and ranking.RecordSink.
type RankingStore struct {
	operators OperatorRepository
	variables ControlVariableRepository
	incidents IncidentRepository
}

// NewRankingStore creates a ranking store over the given repositories
func NewRankingStore(operators OperatorRepository, variables ControlVariableRepository, incidents IncidentRepository) *RankingStore {
	return &RankingStore{operators: operators, variables: variables, incidents: incidents}
}

var (
	_ ranking.RecordSource = (*RankingStore)(nil)
	_ ranking.RecordSink   = (*RankingStore)(nil)
)

// ControlVariables pushes the period window and the variable keywords down into SQL
func (s *RankingStore) ControlVariables(ctx context.Context, q ranking.ControlVariableQuery) ([]ranking.ControlVariableRecord, error) {
	wq := WindowQuery{OperatorCode: q.OperatorCode, Keywords: ranking.VariableKeywords()}
	if start, end, ok := q.Period.Bounds(); ok {
		wq.Start, wq.End = &start, &end
	}

	rows, err := s.variables.InWindow(ctx, wq)
	if err != nil {
		return nil, err
	}

	out := make([]ranking.ControlVariableRecord, 0, len(rows))
	for _, row := range rows {
		rec := ControlVariableRecord(row)
		if rec.Kind() == ranking.KindUnclassified {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *RankingStore) Incidents(ctx context.Context, q ranking.IncidentQuery) ([]ranking.IncidentRecord, error) {
	rows, err := s.incidents.Since(ctx, q.OperatorCode, q.Since)
	if err != nil {
		return nil, err
	}

	out := make([]ranking.IncidentRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, IncidentRecord(row))
	}
	return out, nil
}

func (s *RankingStore) OperatorIdentities(ctx context.Context) ([]ranking.OperatorIdentity, error) {
	rows, err := s.operators.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]ranking.OperatorIdentity, 0, len(rows))
	for _, row := range rows {
		out = append(out, OperatorIdentity(row))
	}
	return out, nil
}

func (s *RankingStore) LatestRecordDates(ctx context.Context) (map[string]time.Time, error) {
	return s.variables.LatestDates(ctx, ranking.VariableKeywords())
}

// UpsertOperatorAttribute writes zone, sponsor or task
func (s *RankingStore) UpsertOperatorAttribute(ctx context.Context, code, attribute, value string) error {
	return s.operators.UpdateAttribute(ctx, code, attribute, value)
}

// OperatorIdentity converts a stored operator into its ranking identity
func OperatorIdentity(m *models.Operator) ranking.OperatorIdentity {
	return ranking.OperatorIdentity{
		Code:       m.Code,
		Name:       m.Name,
		NationalID: m.NationalID,
		Position:   m.Position,
		Phone:      m.Phone,
		JoinDate:   m.JoinDate,
		Zone:       m.Zone,
		Sponsor:    m.Sponsor,
		Task:       m.Task,
	}
}

// OperatorModel converts an identity into a row ready to insert
func OperatorModel(id ranking.OperatorIdentity) *models.Operator {
	return &models.Operator{
		Code:       id.Code,
		Name:       id.Name,
		NationalID: id.NationalID,
		Position:   id.Position,
		Phone:      id.Phone,
		JoinDate:   id.JoinDate,
		Zone:       id.Zone,
		Sponsor:    id.Sponsor,
		Task:       id.Task,
	}
}

func ControlVariableRecord(m *models.ControlVariable) ranking.ControlVariableRecord {
	return ranking.ControlVariableRecord{
		OperatorCode:    m.OperatorCode,
		VariableCode:    m.VariableCode,
		ProgrammedValue: m.ProgrammedValue,
		ExecutedValue:   m.ExecutedValue,
		WindowStart:     m.WindowStart.UTC(),
		WindowEnd:       m.WindowEnd.UTC(),
		ExecutionDate:   m.ExecutionDate,
	}
}

func ControlVariableModel(rec ranking.ControlVariableRecord, batchID uuid.UUID) *models.ControlVariable {
	return &models.ControlVariable{
		OperatorCode:    rec.OperatorCode,
		VariableCode:    rec.VariableCode,
		ProgrammedValue: rec.ProgrammedValue,
		ExecutedValue:   rec.ExecutedValue,
		WindowStart:     rec.WindowStart,
		WindowEnd:       rec.WindowEnd,
		ExecutionDate:   rec.ExecutionDate,
		BatchID:         &batchID,
	}
}

func IncidentRecord(m *models.Incident) ranking.IncidentRecord {
	return ranking.IncidentRecord{
		OperatorCode: m.OperatorCode,
		FactorCode:   m.FactorCode,
		WindowStart:  m.WindowStart.UTC(),
		WindowEnd:    m.WindowEnd,
		Observation:  m.Observation,
	}
}

func IncidentModel(rec ranking.IncidentRecord, batchID uuid.UUID) *models.Incident {
	return &models.Incident{
		OperatorCode: rec.OperatorCode,
		FactorCode:   rec.FactorCode,
		WindowStart:  rec.WindowStart,
		WindowEnd:    rec.WindowEnd,
		Observation:  rec.Observation,
		BatchID:      &batchID,
	}
}
