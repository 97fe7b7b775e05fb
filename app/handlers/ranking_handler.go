package handlers

import (
	"log"
	"strings"

	"github.com/amirphl/operator-ranking/app/dto"
	businessflow "github.com/amirphl/operator-ranking/business_flow"
	"github.com/gofiber/fiber/v3"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RankingHandlerInterface defines the contract for the public dashboard handlers
type RankingHandlerInterface interface {
	GetRanking(c fiber.Ctx) error
	ExportRanking(c fiber.Ctx) error
	GetOperatorSummary(c fiber.Ctx) error
	ListDeductionRules(c fiber.Ctx) error
}

// RankingHandler implements RankingHandlerInterface
type RankingHandler struct {
	baseHandler
	flow businessflow.RankingFlow
}

func NewRankingHandler(flow businessflow.RankingFlow) RankingHandlerInterface {
	return &RankingHandler{
		baseHandler: newBaseHandler(),
		flow:        flow,
	}
}

func (h *RankingHandler) rankingQuery(c fiber.Ctx) (*dto.RankingQuery, bool, error) {
	req := &dto.RankingQuery{
		Year:  strings.TrimSpace(c.Query("year")),
		Month: strings.TrimSpace(c.Query("month")),
	}
	ok, err := h.validate(c, req)
	return req, ok, err
}

func (h *RankingHandler) flowError(c fiber.Ctx, err error, action string) error {
	switch {
	case businessflow.IsInvalidPeriod(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid period", "INVALID_PERIOD", err.Error())
	case businessflow.IsOperatorNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Operator not found", "OPERATOR_NOT_FOUND", nil)
	case businessflow.IsStoreNotAvailable(err):
		return h.ErrorResponse(c, fiber.StatusServiceUnavailable, "Ranking data unavailable", "DATA_UNAVAILABLE", nil)
	}
	log.Println(action+" failed:", err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, action+" failed", "INTERNAL_ERROR", nil)
}

// GetRanking returns the operator ranking for a period
// @Summary Operator ranking
// @Description Rank operators by efficiency for all history, a year, or a month. Falls back to demo data when the store is unavailable.
// @Tags Ranking
// @Produce json
// @Param year query string false "Year (YYYY)"
// @Param month query string false "Month (1-12), requires year"
// @Success 200 {object} dto.APIResponse{data=dto.RankingResponse} "Ranking computed"
// @Failure 400 {object} dto.APIResponse "Invalid period"
// @Failure 503 {object} dto.APIResponse "Ranking data unavailable"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/rankings [get]
func (h *RankingHandler) GetRanking(c fiber.Ctx) error {
	req, ok, err := h.rankingQuery(c)
	if !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/rankings")
	defer cancel()

	result, err := h.flow.GetRanking(ctx, req)
	if err != nil {
		return h.flowError(c, err, "Ranking")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Ranking computed", result)
}

// ExportRanking streams the ranking as an Excel workbook
// @Summary Export ranking
// @Tags Ranking
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param year query string false "Year (YYYY)"
// @Param month query string false "Month (1-12), requires year"
// @Success 200 {string} string "XLSX file"
// @Failure 400 {object} dto.APIResponse "Invalid period"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/rankings/export [get]
func (h *RankingHandler) ExportRanking(c fiber.Ctx) error {
	req, ok, err := h.rankingQuery(c)
	if !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/rankings/export")
	defer cancel()

	filename, data, err := h.flow.ExportRanking(ctx, req)
	if err != nil {
		return h.flowError(c, err, "Ranking export")
	}
	c.Set("Content-Type", xlsxContentType)
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}

// GetOperatorSummary returns the bonus, km and incident breakdown of one operator
// @Summary Operator summary
// @Tags Ranking
// @Produce json
// @Param code path string true "Operator code"
// @Param year query string false "Year (YYYY)"
// @Param month query string false "Month (1-12), requires year"
// @Success 200 {object} dto.APIResponse{data=dto.OperatorSummaryResponse} "Operator summary"
// @Failure 400 {object} dto.APIResponse "Invalid period"
// @Failure 404 {object} dto.APIResponse "Operator not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/operators/{code}/summary [get]
func (h *RankingHandler) GetOperatorSummary(c fiber.Ctx) error {
	code := strings.TrimSpace(c.Params("code"))
	if code == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Operator code is required", "VALIDATION_ERROR", nil)
	}
	req, ok, err := h.rankingQuery(c)
	if !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/operators/:code/summary")
	defer cancel()

	result, err := h.flow.GetOperatorSummary(ctx, code, req)
	if err != nil {
		return h.flowError(c, err, "Operator summary")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Operator summary", result)
}

// ListDeductionRules returns every incident factor and its deduction
// @Summary Deduction rules
// @Tags Ranking
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.DeductionRulesResponse} "Deduction rules"
// @Router /api/v1/deduction-rules [get]
func (h *RankingHandler) ListDeductionRules(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/deduction-rules")
	defer cancel()

	result, err := h.flow.ListDeductionRules(ctx)
	if err != nil {
		return h.flowError(c, err, "Deduction rules")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Deduction rules", result)
}
