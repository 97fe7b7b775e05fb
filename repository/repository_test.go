package repository

import (
	"context"
	"testing"
	"time"

	"github.com/amirphl/operator-ranking/models"
	"github.com/amirphl/operator-ranking/ranking"
	testingutil "github.com/amirphl/operator-ranking/testing"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOperatorRepository(t *testing.T) {
	testingutil.RunWithDB(t, func(testDB *testingutil.TestDB) error {
		repo := NewOperatorRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		_, err := fixtures.CreateTestOperator("101", "Ana", "NORTE")
		require.NoError(t, err)
		_, err = fixtures.CreateTestOperator("102", "Luis", "SUR")
		require.NoError(t, err)

		t.Run("ByCode", func(t *testing.T) {
			op, err := repo.ByCode(ctx, "101")
			require.NoError(t, err)
			require.NotNil(t, op)
			assert.Equal(t, "Ana", op.Name)

			missing, err := repo.ByCode(ctx, "999")
			require.NoError(t, err)
			assert.Nil(t, missing)
		})

		t.Run("ByCodes", func(t *testing.T) {
			ops, err := repo.ByCodes(ctx, []string{"102", "101", "999"})
			require.NoError(t, err)
			require.Len(t, ops, 2)
			assert.Equal(t, "101", ops[0].Code)
		})

		t.Run("UpdateAttribute", func(t *testing.T) {
			require.NoError(t, repo.UpdateAttribute(ctx, "102", models.OperatorColumnZone, "CENTRO"))
			op, err := repo.ByCode(ctx, "102")
			require.NoError(t, err)
			assert.Equal(t, "CENTRO", op.Zone)

			require.NoError(t, repo.UpdateAttribute(ctx, "103", models.OperatorColumnSponsor, "LUISA"))
			created, err := repo.ByCode(ctx, "103")
			require.NoError(t, err)
			require.NotNil(t, created)
			assert.Equal(t, "LUISA", created.Sponsor)

			assert.ErrorIs(t, repo.UpdateAttribute(ctx, "101", "name", "x"), ErrUnknownAttributeColumn)
		})

		t.Run("UpsertBatch", func(t *testing.T) {
			err := repo.UpsertBatch(ctx, []*models.Operator{
				{Code: "101", Name: "Ana María", Zone: "IGNORED"},
				{Code: "104", Name: "Hugo"},
			}, []string{"name"})
			require.NoError(t, err)

			op, err := repo.ByCode(ctx, "101")
			require.NoError(t, err)
			assert.Equal(t, "Ana María", op.Name)
			assert.Equal(t, "NORTE", op.Zone, "columns outside the update list are kept")

			count, err := repo.Count(ctx, models.OperatorFilter{})
			require.NoError(t, err)
			assert.Equal(t, int64(4), count)
		})

		return nil
	})
}

func TestControlVariableRepository(t *testing.T) {
	testingutil.RunWithDB(t, func(testDB *testingutil.TestDB) error {
		repo := NewControlVariableRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		_, err := fixtures.CreateTestControlVariable("7", "BONO", 1000, 900, day(2024, 2, 15), day(2024, 3, 10))
		require.NoError(t, err)
		_, err = fixtures.CreateTestControlVariable("7", "km_mes", 100, 94, day(2024, 1, 1), day(2024, 1, 31))
		require.NoError(t, err)
		_, err = fixtures.CreateTestControlVariable("7", "horas", 10, 10, day(2024, 3, 1), day(2024, 3, 31))
		require.NoError(t, err)
		_, err = fixtures.CreateTestControlVariable("8", "km", 100, 50, day(2024, 2, 1), day(2024, 4, 30))
		require.NoError(t, err)

		start, end := day(2024, 3, 1), day(2024, 3, 31)

		t.Run("InWindow", func(t *testing.T) {
			rows, err := repo.InWindow(ctx, WindowQuery{Start: &start, End: &end, Keywords: ranking.VariableKeywords()})
			require.NoError(t, err)
			require.Len(t, rows, 2)
			assert.Equal(t, "BONO", rows[0].VariableCode)
			assert.Equal(t, "8", rows[1].OperatorCode, "windows spanning the whole month overlap it")
		})

		t.Run("InWindowAllHistory", func(t *testing.T) {
			code := "7"
			rows, err := repo.InWindow(ctx, WindowQuery{OperatorCode: &code})
			require.NoError(t, err)
			assert.Len(t, rows, 3)
		})

		t.Run("LatestDates", func(t *testing.T) {
			latest, err := repo.LatestDates(ctx, ranking.VariableKeywords())
			require.NoError(t, err)
			assert.Equal(t, day(2024, 3, 10), latest["7"])
			assert.Equal(t, day(2024, 4, 30), latest["8"])
		})

		t.Run("ByOperatorCodes", func(t *testing.T) {
			rows, err := repo.ByOperatorCodes(ctx, []string{"8"})
			require.NoError(t, err)
			assert.Len(t, rows, 1)
		})

		return nil
	})
}

func TestRankingStoreFeedsEngine(t *testing.T) {
	testingutil.RunWithDB(t, func(testDB *testingutil.TestDB) error {
		store := NewRankingStore(
			NewOperatorRepository(testDB.DB),
			NewControlVariableRepository(testDB.DB),
			NewIncidentRepository(testDB.DB),
		)
		fixtures := testingutil.NewTestFixtures(testDB)

		for _, code := range []string{"A1", "B1"} {
			_, err := fixtures.CreateTestOperator(code, "Operador "+code, "NORTE")
			require.NoError(t, err)
		}
		for _, seed := range []struct {
			code, variable string
			prog, exec     int64
		}{
			{"A1", "bono", 1000, 1000},
			{"A1", "km", 100, 100},
			{"B1", "bono", 1000, 900},
			{"B1", "km", 100, 94},
		} {
			_, err := fixtures.CreateTestControlVariable(seed.code, seed.variable, seed.prog, seed.exec, day(2024, 3, 1), day(2024, 3, 31))
			require.NoError(t, err)
		}
		_, err := fixtures.CreateTestIncident("B1", "5", day(2024, 4, 10), 1)
		require.NoError(t, err)

		now := time.Date(2024, 4, 15, 12, 0, 0, 0, time.UTC)
		engine := ranking.NewEngine(store, ranking.DefaultConfig(), ranking.WithClock(func() time.Time { return now }))

		res, err := engine.Rank(context.Background(), ranking.ForMonth(2024, 3))
		require.NoError(t, err)
		assert.False(t, res.IsDemoData)
		require.Len(t, res.Operators, 2)
		assert.Equal(t, "A1", res.Operators[0].Identity.Code)
		b1 := res.Operators[1]
		assert.Equal(t, 85, b1.Efficiency)
		assert.Equal(t, ranking.TierMejorar, b1.Category)
		assert.Equal(t, []int{2024}, res.Metadata.AvailableYears)

		require.NoError(t, store.UpsertOperatorAttribute(context.Background(), "B1", models.OperatorColumnTask, "Troncal"))
		ids, err := store.OperatorIdentities(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Troncal", ids[1].Task)
		return nil
	})
}

func TestUploadAuditRepository(t *testing.T) {
	testingutil.RunWithDB(t, func(testDB *testingutil.TestDB) error {
		repo := NewUploadAuditRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		admin, err := fixtures.CreateTestAdmin()
		require.NoError(t, err)

		batch := uuid.New()
		require.NoError(t, repo.Save(ctx, &models.UploadAudit{BatchID: batch, Kind: models.UploadKindZones, Filename: "zonas.xlsx", Total: 3, Changed: 1, AdminID: &admin.ID}))
		require.NoError(t, repo.Save(ctx, &models.UploadAudit{BatchID: uuid.New(), Kind: models.UploadKindIncidents, Filename: "novedades.csv", Total: 10, Created: 9}))

		latest, err := repo.ListLatest(ctx, nil, 10)
		require.NoError(t, err)
		assert.Len(t, latest, 2)

		kind := models.UploadKindZones
		zones, err := repo.ListLatest(ctx, &kind, 10)
		require.NoError(t, err)
		require.Len(t, zones, 1)
		require.NotNil(t, zones[0].Admin)
		assert.Equal(t, admin.Username, zones[0].Admin.Username)

		found, err := repo.ByBatchID(ctx, batch.String())
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "zonas.xlsx", found.Filename)

		_, err = repo.ByBatchID(ctx, "not-a-uuid")
		assert.Error(t, err)
		return nil
	})
}

func TestAdminRepository(t *testing.T) {
	testingutil.RunWithDB(t, func(testDB *testingutil.TestDB) error {
		repo := NewAdminRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		admin, err := fixtures.CreateTestAdmin()
		require.NoError(t, err)

		found, err := repo.ByUsername(ctx, admin.Username)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, admin.ID, found.ID)
		assert.Equal(t, admin.Username, found.Label())

		missing, err := repo.ByUsername(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, missing)

		at := day(2024, time.March, 10)
		require.NoError(t, repo.UpdateLastLogin(ctx, admin.ID, at))
		found, err = repo.ByUsername(ctx, admin.Username)
		require.NoError(t, err)
		require.NotNil(t, found.LastLoginAt)
		assert.True(t, at.Equal(found.LastLoginAt.UTC()))

		assert.Error(t, repo.UpdateLastLogin(ctx, admin.ID+1000, at))

		active := true
		exists, err := repo.Exists(ctx, models.AdminFilter{Username: &admin.Username, IsActive: &active})
		require.NoError(t, err)
		assert.True(t, exists)
		return nil
	})
}
