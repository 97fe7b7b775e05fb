package businessflow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/amirphl/operator-ranking/app/dto"
	"github.com/amirphl/operator-ranking/config"
	"github.com/amirphl/operator-ranking/models"
	"github.com/amirphl/operator-ranking/ranking"
	"github.com/amirphl/operator-ranking/reconciliation"
	"github.com/amirphl/operator-ranking/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Fakes embed the repository interfaces; calling an unimplemented method panics.

type fakeOperatorRepo struct {
	repository.OperatorRepository
	operators []*models.Operator
	upserted  []*models.Operator
	columns   []string
}

func (r *fakeOperatorRepo) ListAll(ctx context.Context) ([]*models.Operator, error) {
	return r.operators, nil
}

func (r *fakeOperatorRepo) UpsertBatch(ctx context.Context, operators []*models.Operator, columns []string) error {
	r.upserted = append(r.upserted, operators...)
	r.columns = columns
	return nil
}

type fakeIncidentRepo struct {
	repository.IncidentRepository
	stored []*models.Incident
	saved  []*models.Incident
}

func (r *fakeIncidentRepo) ByOperatorCodes(ctx context.Context, codes []string) ([]*models.Incident, error) {
	return r.stored, nil
}

func (r *fakeIncidentRepo) SaveBatch(ctx context.Context, rows []*models.Incident) error {
	r.saved = append(r.saved, rows...)
	return nil
}

type fakeVariableRepo struct {
	repository.ControlVariableRepository
	saved []*models.ControlVariable
	err   error
}

func (r *fakeVariableRepo) ByOperatorCodes(ctx context.Context, codes []string) ([]*models.ControlVariable, error) {
	return nil, nil
}

func (r *fakeVariableRepo) SaveBatch(ctx context.Context, rows []*models.ControlVariable) error {
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, rows...)
	return nil
}

type fakeAuditRepo struct {
	repository.UploadAuditRepository
	saved []*models.UploadAudit
}

func (r *fakeAuditRepo) Save(ctx context.Context, audit *models.UploadAudit) error {
	r.saved = append(r.saved, audit)
	return nil
}

func (r *fakeAuditRepo) ListLatest(ctx context.Context, kind *string, limit int) ([]*models.UploadAudit, error) {
	out := make([]*models.UploadAudit, 0, len(r.saved))
	for i := len(r.saved) - 1; i >= 0 && len(out) < limit; i-- {
		if kind == nil || r.saved[i].Kind == *kind {
			out = append(out, r.saved[i])
		}
	}
	return out, nil
}

type countingRankingFlow struct {
	RankingFlow
	invalidations int
}

func (f *countingRankingFlow) InvalidateCache(ctx context.Context) error {
	f.invalidations++
	return nil
}

type uploadFixture struct {
	flow      UploadFlow
	operators *fakeOperatorRepo
	incidents *fakeIncidentRepo
	variables *fakeVariableRepo
	audits    *fakeAuditRepo
	sink      *ranking.MemorySource
	ranking   *countingRankingFlow
}

func newUploadFixture() *uploadFixture {
	fx := &uploadFixture{
		operators: &fakeOperatorRepo{operators: []*models.Operator{
			{Code: "0101", Name: "Ana", Zone: "NORTE"},
			{Code: "0102", Name: "Luis", Zone: "SUR"},
		}},
		incidents: &fakeIncidentRepo{},
		variables: &fakeVariableRepo{},
		audits:    &fakeAuditRepo{},
		sink: ranking.NewMemorySource([]ranking.OperatorIdentity{
			{Code: "0101", Name: "Ana", Zone: "NORTE"},
			{Code: "0102", Name: "Luis", Zone: "SUR"},
		}, nil, nil),
		ranking: &countingRankingFlow{},
	}
	fx.flow = NewUploadFlow(fx.operators, fx.variables, fx.incidents, fx.audits, fx.sink, fx.ranking,
		config.UploadConfig{MaxFileSize: 1 << 20, AllowedExtensions: []string{".csv", ".xlsx"}}, nil)
	return fx
}

func csvFile(name, body string) UploadFile {
	return UploadFile{Filename: name, Size: int64(len(body)), Reader: strings.NewReader(body)}
}

func TestUploadFlowReconcileZones(t *testing.T) {
	ctx := context.Background()
	body := "codigo,zona\n101,NORTE\n102,CENTRO\n999,SUR\n"

	t.Run("Preview", func(t *testing.T) {
		fx := newUploadFixture()
		resp, err := fx.flow.ReconcileAttribute(ctx, reconciliation.AttributeZone, csvFile("zonas.csv", body), "", nil)
		require.NoError(t, err)
		assert.Equal(t, dto.UploadModePreview, resp.Mode)
		assert.False(t, resp.Committed)
		assert.Equal(t, 3, resp.Counts.Total)
		assert.Equal(t, 1, resp.Counts.Changed)
		assert.Equal(t, 1, resp.Counts.Unchanged)
		assert.Equal(t, 1, resp.Counts.Unmatched)
		require.Len(t, resp.Changed, 1)
		assert.Equal(t, "0102", resp.Changed[0].OperatorCode)
		assert.Equal(t, "SUR", resp.Changed[0].Previous)
		assert.Equal(t, "CENTRO", resp.Changed[0].New)

		assert.Empty(t, fx.audits.saved, "preview never writes")
		assert.Zero(t, fx.ranking.invalidations)
	})

	t.Run("Commit", func(t *testing.T) {
		fx := newUploadFixture()
		adminID := uint(7)
		meta := NewClientMetadata("127.0.0.1", "test")
		meta.SetRequestID("req-1")
		meta.AdminID = &adminID

		resp, err := fx.flow.ReconcileAttribute(ctx, reconciliation.AttributeZone, csvFile("zonas.csv", body), "commit", meta)
		require.NoError(t, err)
		assert.True(t, resp.Committed)
		assert.NotEmpty(t, resp.BatchID)

		ids, err := fx.sink.OperatorIdentities(ctx)
		require.NoError(t, err)
		assert.Equal(t, "CENTRO", ids[1].Zone)
		assert.Equal(t, "NORTE", ids[0].Zone)
		assert.Len(t, ids, 2, "unmatched rows are not created")

		require.Len(t, fx.audits.saved, 1)
		audit := fx.audits.saved[0]
		assert.Equal(t, models.UploadKindZones, audit.Kind)
		assert.Equal(t, "zonas.csv", audit.Filename)
		assert.Equal(t, 1, audit.Changed)
		require.NotNil(t, audit.AdminID)
		assert.Equal(t, adminID, *audit.AdminID)
		require.NotNil(t, audit.RequestID)
		assert.Equal(t, "req-1", *audit.RequestID)
		assert.Equal(t, 1, fx.ranking.invalidations)
	})
}

func TestUploadFlowRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	fx := newUploadFixture()

	tests := []struct {
		name  string
		file  UploadFile
		mode  string
		check func(error) bool
	}{
		{"InvalidMode", csvFile("z.csv", "codigo,zona\n1,A\n"), "apply", IsInvalidUploadMode},
		{"UnsupportedExtension", csvFile("z.txt", "codigo,zona\n1,A\n"), "", IsUnsupportedFile},
		{"EmptyFile", csvFile("z.csv", ""), "", IsEmptyFile},
		{"MissingColumn", csvFile("z.csv", "codigo,nombre\n1,A\n"), "", IsMissingColumn},
		{"TooLarge", UploadFile{Filename: "z.csv", Size: 2 << 20, Reader: strings.NewReader("")}, "", IsFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.flow.ReconcileAttribute(ctx, reconciliation.AttributeZone, tt.file, tt.mode, nil)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error %v", err)
		})
	}
}

func TestUploadFlowWithoutStore(t *testing.T) {
	flow := NewUploadFlow(nil, nil, nil, nil, nil, nil, config.UploadConfig{}, nil)
	_, err := flow.ImportIncidents(context.Background(), csvFile("n.csv", "a\n"), "", nil)
	assert.True(t, IsStoreNotAvailable(err))

	_, err = flow.ListAudits(context.Background(), nil)
	assert.True(t, IsStoreNotAvailable(err))
}

func TestUploadFlowImportIncidents(t *testing.T) {
	ctx := context.Background()
	body := "codigo,factor,fecha_inicio,fecha_fin,observaciones\n" +
		"101,5,2024-03-01,2024-03-01,tarde\n" +
		"101,5,2024-03-01,2024-03-02,repetida\n" +
		"102,2,2024-03-04,,\n" +
		"103,1,2024-03-05,,\n" +
		",1,2024-03-05,,\n"

	fx := newUploadFixture()
	fx.incidents.stored = []*models.Incident{
		{OperatorCode: "103", FactorCode: "1", WindowStart: day(2024, 3, 5)},
	}

	preview, err := fx.flow.ImportIncidents(ctx, csvFile("novedades.csv", body), "preview", nil)
	require.NoError(t, err)
	assert.Equal(t, 5, preview.Counts.Total)
	assert.Equal(t, 2, preview.Counts.Created)
	assert.Equal(t, 2, preview.Counts.Duplicates)
	assert.Equal(t, 1, preview.Counts.Malformed)
	require.Len(t, preview.Duplicates, 1)
	assert.Equal(t, 3, preview.Duplicates[0].Line)
	require.Len(t, preview.Existing, 1)
	assert.Equal(t, "103|2024-03-05|1", preview.Existing[0].Key)
	assert.Empty(t, fx.incidents.saved)

	commit, err := fx.flow.ImportIncidents(ctx, csvFile("novedades.csv", body), "commit", nil)
	require.NoError(t, err)
	assert.True(t, commit.Committed)
	require.Len(t, fx.incidents.saved, 2)
	assert.Equal(t, "0101", fx.incidents.saved[0].OperatorCode)
	assert.Equal(t, "tarde", fx.incidents.saved[0].Observation)
	require.NotNil(t, fx.incidents.saved[0].BatchID)
	assert.Equal(t, commit.BatchID, fx.incidents.saved[0].BatchID.String())
	require.Len(t, fx.audits.saved, 1)
	assert.Equal(t, models.UploadKindIncidents, fx.audits.saved[0].Kind)
	assert.Equal(t, 2, fx.audits.saved[0].Created)
}

func TestUploadFlowImportIncidentsUsesStoredCode(t *testing.T) {
	ctx := context.Background()
	body := "codigo,factor,fecha_inicio\n0101,2,2024-03-04\n102,2,2024-03-05\n"

	fx := newUploadFixture()
	fx.incidents.stored = []*models.Incident{
		{OperatorCode: "0102", FactorCode: "2", WindowStart: day(2024, 3, 5)},
	}

	resp, err := fx.flow.ImportIncidents(ctx, csvFile("novedades.csv", body), "commit", nil)
	require.NoError(t, err)
	require.Len(t, resp.Existing, 1)
	assert.Equal(t, "0102|2024-03-05|2", resp.Existing[0].Key)
	require.Len(t, fx.incidents.saved, 1)
	assert.Equal(t, "0101", fx.incidents.saved[0].OperatorCode)

	// the imported incident must reach the operator it was uploaded for
	src := ranking.NewMemorySource(
		[]ranking.OperatorIdentity{{Code: "0101", Name: "Ana"}},
		nil,
		[]ranking.IncidentRecord{repository.IncidentRecord(fx.incidents.saved[0])},
	)
	clock := func() time.Time { return day(2024, 3, 20) }
	summary, err := ranking.NewEngine(src, ranking.DefaultConfig(), ranking.WithClock(clock)).
		Summarize(ctx, "0101", ranking.Global())
	require.NoError(t, err)
	assert.Equal(t, 0.0, summary.Bonus.Percentage)
	require.Len(t, summary.Bonus.Deductions, 1)
}

func TestUploadFlowImportControlVariablesUsesStoredCode(t *testing.T) {
	body := "codigo_empleado,codigo_variable,valor_programacion,valor_ejecucion,fecha_inicio_programacion,fecha_fin_programacion\n" +
		"0101,KM,1000,950,2024-03-01,2024-03-31\n" +
		"300,KM,1000,900,2024-03-01,2024-03-31\n"

	fx := newUploadFixture()
	_, err := fx.flow.ImportControlVariables(context.Background(), csvFile("variables.csv", body), "commit", nil)
	require.NoError(t, err)
	require.Len(t, fx.variables.saved, 2)
	assert.Equal(t, "0101", fx.variables.saved[0].OperatorCode)
	assert.Equal(t, "300", fx.variables.saved[1].OperatorCode)
}

func TestUploadFlowImportControlVariables(t *testing.T) {
	ctx := context.Background()
	body := "codigo_empleado,codigo_variable,valor_programacion,valor_ejecucion,fecha_inicio_programacion,fecha_fin_programacion\n" +
		"101,BONO,142000,142000,2024-03-01,2024-03-31\n" +
		"101,KM,1000,950,2024-03-01,2024-03-31\n"

	t.Run("Commit", func(t *testing.T) {
		fx := newUploadFixture()
		resp, err := fx.flow.ImportControlVariables(ctx, csvFile("variables.csv", body), "commit", nil)
		require.NoError(t, err)
		assert.Equal(t, 2, resp.Counts.Created)
		require.Len(t, fx.variables.saved, 2)
		assert.Equal(t, models.UploadKindControlVariables, resp.Kind)
	})

	t.Run("SaveFailure", func(t *testing.T) {
		fx := newUploadFixture()
		fx.variables.err = errors.New("disk full")
		_, err := fx.flow.ImportControlVariables(ctx, csvFile("variables.csv", body), "commit", nil)
		require.Error(t, err)
		assert.Equal(t, "UPLOAD_COMMIT_FAILED", BusinessErrorCode(err))
		assert.Empty(t, fx.audits.saved)
		assert.Zero(t, fx.ranking.invalidations)
	})
}

func TestUploadFlowImportOperators(t *testing.T) {
	ctx := context.Background()
	body := "codigo,nombre,zona\n101,Ana Maria,NORTE\n200,Nuevo,OCCIDENTE\n"

	fx := newUploadFixture()
	resp, err := fx.flow.ImportOperators(ctx, csvFile("operadores.csv", body), "commit", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Counts.Updated)
	assert.Equal(t, 1, resp.Counts.Created)

	require.Len(t, fx.operators.upserted, 2)
	assert.Equal(t, "0101", fx.operators.upserted[0].Code, "existing operators keep their stored code")
	assert.Equal(t, "Ana Maria", fx.operators.upserted[0].Name)
	assert.Equal(t, "200", fx.operators.upserted[1].Code)
	assert.ElementsMatch(t, []string{"name", models.OperatorColumnZone}, fx.operators.columns)
}

func TestUploadFlowListAudits(t *testing.T) {
	ctx := context.Background()
	fx := newUploadFixture()
	_, err := fx.flow.ReconcileAttribute(ctx, reconciliation.AttributeZone, csvFile("z.csv", "codigo,zona\n101,SUR\n"), "commit", nil)
	require.NoError(t, err)
	_, err = fx.flow.ReconcileAttribute(ctx, reconciliation.AttributeSponsor, csvFile("p.csv", "codigo,padrino\n101,luisa\n"), "commit", nil)
	require.NoError(t, err)

	all, err := fx.flow.ListAudits(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, all.Total)
	assert.Equal(t, models.UploadKindSponsors, all.Items[0].Kind)

	zones, err := fx.flow.ListAudits(ctx, &dto.UploadAuditQuery{Kind: models.UploadKindZones, Limit: 5})
	require.NoError(t, err)
	require.Len(t, zones.Items, 1)
	assert.Equal(t, "z.csv", zones.Items[0].Filename)
}
