package businessflow

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/amirphl/operator-ranking/app/dto"
	"github.com/amirphl/operator-ranking/ranking"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var flowNow = time.Date(2024, 4, 15, 12, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func variable(code, kind string, programmed, executed int64, start, end time.Time) ranking.ControlVariableRecord {
	return ranking.ControlVariableRecord{
		OperatorCode:    code,
		VariableCode:    kind,
		ProgrammedValue: decimal.NewFromInt(programmed),
		ExecutedValue:   decimal.NewFromInt(executed),
		WindowStart:     start,
		WindowEnd:       end,
	}
}

func newFlowSource() *ranking.MemorySource {
	mar1, mar31 := day(2024, 3, 1), day(2024, 3, 31)
	operators := []ranking.OperatorIdentity{
		{Code: "101", Name: "Ana", Zone: "NORTE", Sponsor: "LUISA"},
		{Code: "102", Name: "Luis", Zone: "SUR"},
	}
	variables := []ranking.ControlVariableRecord{
		variable("101", "bono", 142000, 142000, mar1, mar31),
		variable("101", "km", 1000, 1000, mar1, mar31),
		variable("102", "bono", 142000, 120000, mar1, mar31),
		variable("102", "km", 1000, 850, mar1, mar31),
	}
	incidents := []ranking.IncidentRecord{
		{OperatorCode: "102", FactorCode: "5", WindowStart: day(2024, 3, 10), Observation: "retardo"},
	}
	return ranking.NewMemorySource(operators, variables, incidents)
}

func newTestRankingFlow(src ranking.RecordSource, cfg ranking.Config) RankingFlow {
	engine := ranking.NewEngine(src, cfg, ranking.WithClock(func() time.Time { return flowNow }))
	return NewRankingFlow(engine, nil, nil)
}

func TestRankingFlowGetRanking(t *testing.T) {
	flow := newTestRankingFlow(newFlowSource(), ranking.DefaultConfig())
	ctx := context.Background()

	t.Run("Global", func(t *testing.T) {
		resp, err := flow.GetRanking(ctx, &dto.RankingQuery{})
		require.NoError(t, err)
		assert.False(t, resp.IsDemoData)
		assert.False(t, resp.Cached)
		require.Len(t, resp.Operators, 2)
		assert.Equal(t, 2, resp.Total)
		assert.Equal(t, "101", resp.Operators[0].Operator.Code)
		assert.Equal(t, 1, resp.Operators[0].Rank)
		assert.Equal(t, "NORTE", resp.Operators[0].Operator.Zone)
		assert.Equal(t, "global", resp.Period.Kind)

		total := 0
		for _, n := range resp.CategoryCounts {
			total += n
		}
		assert.Equal(t, 2, total)
		assert.Len(t, resp.CategoryCounts, len(ranking.Tiers))
	})

	t.Run("Month", func(t *testing.T) {
		resp, err := flow.GetRanking(ctx, &dto.RankingQuery{Year: "2024", Month: "3"})
		require.NoError(t, err)
		assert.Equal(t, 2024, resp.Period.Year)
		assert.Equal(t, 3, resp.Period.Month)
		require.Len(t, resp.Operators, 2)
		assert.Equal(t, []int{2024}, resp.Metadata.AvailableYears)
		assert.Equal(t, 2024, resp.Metadata.LatestYear)
		assert.Equal(t, 3, resp.Metadata.LatestMonth)
	})

	t.Run("MonthWithoutData", func(t *testing.T) {
		resp, err := flow.GetRanking(ctx, &dto.RankingQuery{Year: "2023", Month: "1"})
		require.NoError(t, err)
		assert.Empty(t, resp.Operators)
		assert.Equal(t, ranking.NoDataMessage, resp.Message)
	})

	t.Run("InvalidPeriod", func(t *testing.T) {
		_, err := flow.GetRanking(ctx, &dto.RankingQuery{Month: "3"})
		require.Error(t, err)
		assert.True(t, IsInvalidPeriod(err))
		assert.Equal(t, "INVALID_PERIOD", BusinessErrorCode(err))

		_, err = flow.GetRanking(ctx, &dto.RankingQuery{Year: "2024", Month: "13"})
		assert.True(t, IsInvalidPeriod(err))
	})
}

func TestRankingFlowDemoFallback(t *testing.T) {
	ctx := context.Background()

	t.Run("NoSource", func(t *testing.T) {
		flow := newTestRankingFlow(nil, ranking.DefaultConfig())
		resp, err := flow.GetRanking(ctx, nil)
		require.NoError(t, err)
		assert.True(t, resp.IsDemoData)
		assert.NotEmpty(t, resp.FallbackReason)
		assert.NotEmpty(t, resp.Operators)
	})

	t.Run("FallbackDisabled", func(t *testing.T) {
		cfg := ranking.DefaultConfig()
		cfg.DemoFallback = false
		flow := newTestRankingFlow(nil, cfg)
		_, err := flow.GetRanking(ctx, nil)
		require.Error(t, err)
		assert.True(t, IsStoreNotAvailable(err))
	})
}

func TestRankingFlowOperatorSummary(t *testing.T) {
	flow := newTestRankingFlow(newFlowSource(), ranking.DefaultConfig())
	ctx := context.Background()

	t.Run("WithDeductions", func(t *testing.T) {
		sum, err := flow.GetOperatorSummary(ctx, "102", &dto.RankingQuery{Year: "2024", Month: "3"})
		require.NoError(t, err)
		assert.Equal(t, "Luis", sum.Operator.Name)
		require.Len(t, sum.Deductions, 1)
		assert.Equal(t, "5", sum.Deductions[0].FactorCode)
		assert.Equal(t, "percent", sum.Deductions[0].Kind)
		assert.Equal(t, "2024-03-10", sum.Deductions[0].StartDate)
		assert.Greater(t, sum.Bonus.Deduction, 0.0)
		require.NotNil(t, sum.Km)
	})

	t.Run("PaddedCode", func(t *testing.T) {
		sum, err := flow.GetOperatorSummary(ctx, "0101", nil)
		require.NoError(t, err)
		assert.Equal(t, "101", sum.Operator.Code)
		assert.Empty(t, sum.Deductions)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := flow.GetOperatorSummary(ctx, "999", nil)
		require.Error(t, err)
		assert.True(t, IsOperatorNotFound(err))
	})
}

func TestRankingFlowListDeductionRules(t *testing.T) {
	cfg := ranking.DefaultConfig()
	cfg.DailyRate = 5000
	flow := newTestRankingFlow(newFlowSource(), cfg)

	resp, err := flow.ListDeductionRules(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5000), resp.DailyRate)
	assert.Len(t, resp.Rules, len(ranking.DeductionRules()))

	byCode := map[string]dto.DeductionRuleDTO{}
	for _, r := range resp.Rules {
		byCode[r.Code] = r
	}
	assert.Equal(t, int64(25), byCode["5"].Percent)
	assert.Zero(t, byCode["5"].DailyRate)
	assert.Equal(t, int64(5000), byCode["3"].DailyRate)
	assert.False(t, byCode["7"].AffectsPerformance)
}

func TestRankingFlowExport(t *testing.T) {
	ctx := context.Background()

	t.Run("Month", func(t *testing.T) {
		flow := newTestRankingFlow(newFlowSource(), ranking.DefaultConfig())
		name, data, err := flow.ExportRanking(ctx, &dto.RankingQuery{Year: "2024", Month: "3"})
		require.NoError(t, err)
		assert.Equal(t, "ranking_2024_03.xlsx", name)

		xl, err := excelize.OpenReader(bytes.NewReader(data))
		require.NoError(t, err)
		defer xl.Close()
		rows, err := xl.GetRows("Ranking")
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, exportHeader, rows[0])
		assert.Equal(t, "1", rows[1][0])
		assert.Equal(t, "101", rows[1][1])
	})

	t.Run("Demo", func(t *testing.T) {
		flow := newTestRankingFlow(nil, ranking.DefaultConfig())
		name, _, err := flow.ExportRanking(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, "ranking_demo.xlsx", name)
	})
}

func TestRankingFlowWithoutCache(t *testing.T) {
	flow := newTestRankingFlow(newFlowSource(), ranking.DefaultConfig())
	assert.NoError(t, flow.Warm(context.Background()))
	assert.NoError(t, flow.InvalidateCache(context.Background()))
}
