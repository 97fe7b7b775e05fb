package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	businessflow "github.com/amirphl/operator-ranking/business_flow"
	"github.com/amirphl/operator-ranking/ranking"
	"github.com/gofiber/fiber/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var handlerNow = time.Date(2024, 4, 15, 12, 0, 0, 0, time.UTC)

func newRankingApp(src ranking.RecordSource, cfg ranking.Config) *fiber.App {
	engine := ranking.NewEngine(src, cfg, ranking.WithClock(func() time.Time { return handlerNow }))
	h := NewRankingHandler(businessflow.NewRankingFlow(engine, nil, nil))

	app := fiber.New()
	app.Get("/rankings", h.GetRanking)
	app.Get("/rankings/export", h.ExportRanking)
	app.Get("/operators/:code/summary", h.GetOperatorSummary)
	app.Get("/deduction-rules", h.ListDeductionRules)
	return app
}

func handlerSource() *ranking.MemorySource {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	return ranking.NewMemorySource(
		[]ranking.OperatorIdentity{{Code: "101", Name: "Ana", Zone: "NORTE"}},
		[]ranking.ControlVariableRecord{
			{OperatorCode: "101", VariableCode: "bono", ProgrammedValue: decimal.NewFromInt(142000), ExecutedValue: decimal.NewFromInt(142000), WindowStart: start, WindowEnd: end},
			{OperatorCode: "101", VariableCode: "km", ProgrammedValue: decimal.NewFromInt(1000), ExecutedValue: decimal.NewFromInt(950), WindowStart: start, WindowEnd: end},
		},
		nil,
	)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code string `json:"code"`
	} `json:"error"`
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, envelope) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	var env envelope
	if json.Valid(body) {
		require.NoError(t, json.Unmarshal(body, &env))
	}
	return resp, env
}

func TestRankingHandlerGetRanking(t *testing.T) {
	app := newRankingApp(handlerSource(), ranking.DefaultConfig())

	tests := []struct {
		name   string
		target string
		status int
		code   string
	}{
		{"Global", "/rankings", http.StatusOK, ""},
		{"Month", "/rankings?year=2024&month=3", http.StatusOK, ""},
		{"ShortYear", "/rankings?year=24", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"MonthWithoutYear", "/rankings?month=3", http.StatusBadRequest, "INVALID_PERIOD"},
		{"MonthOutOfRange", "/rankings?year=2024&month=13", http.StatusBadRequest, "INVALID_PERIOD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := doRequest(t, app, httptest.NewRequest(http.MethodGet, tt.target, nil))
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, env.Error.Code)
			if tt.status == http.StatusOK {
				assert.True(t, env.Success)
				var data struct {
					Operators []struct {
						Rank int `json:"rank"`
					} `json:"operators"`
					IsDemoData bool `json:"is_demo_data"`
				}
				require.NoError(t, json.Unmarshal(env.Data, &data))
				require.Len(t, data.Operators, 1)
				assert.Equal(t, 1, data.Operators[0].Rank)
				assert.False(t, data.IsDemoData)
			}
		})
	}
}

func TestRankingHandlerStoreUnavailable(t *testing.T) {
	cfg := ranking.DefaultConfig()
	cfg.DemoFallback = false
	app := newRankingApp(nil, cfg)

	resp, env := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/rankings", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "DATA_UNAVAILABLE", env.Error.Code)
}

func TestRankingHandlerOperatorSummary(t *testing.T) {
	app := newRankingApp(handlerSource(), ranking.DefaultConfig())

	resp, env := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/operators/0101/summary?year=2024&month=3", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)

	resp, env = doRequest(t, app, httptest.NewRequest(http.MethodGet, "/operators/999/summary", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "OPERATOR_NOT_FOUND", env.Error.Code)
}

func TestRankingHandlerExport(t *testing.T) {
	app := newRankingApp(handlerSource(), ranking.DefaultConfig())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/rankings/export?year=2024&month=3", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, xlsxContentType, resp.Header.Get("Content-Type"))
	assert.Equal(t, "attachment; filename=ranking_2024_03.xlsx", resp.Header.Get("Content-Disposition"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotEmpty(t, body)
}

func TestRankingHandlerDeductionRules(t *testing.T) {
	app := newRankingApp(handlerSource(), ranking.DefaultConfig())

	resp, env := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/deduction-rules", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var data struct {
		DailyRate int64 `json:"daily_rate"`
		Rules     []struct {
			Code string `json:"code"`
		} `json:"rules"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, ranking.DailyRate, data.DailyRate)
	assert.Len(t, data.Rules, len(ranking.DeductionRules()))
}
