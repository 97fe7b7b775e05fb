package handlers

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/amirphl/operator-ranking/app/dto"
	businessflow "github.com/amirphl/operator-ranking/business_flow"
	"github.com/amirphl/operator-ranking/reconciliation"
	"github.com/gofiber/fiber/v3"
)

// UploadHandlerInterface defines the contract for admin spreadsheet uploads
type UploadHandlerInterface interface {
	UploadZones(c fiber.Ctx) error
	UploadSponsors(c fiber.Ctx) error
	UploadTasks(c fiber.Ctx) error
	UploadIncidents(c fiber.Ctx) error
	UploadControlVariables(c fiber.Ctx) error
	UploadOperators(c fiber.Ctx) error
	ListAudits(c fiber.Ctx) error
}

// UploadHandler implements UploadHandlerInterface
type UploadHandler struct {
	baseHandler
	flow businessflow.UploadFlow
}

func NewUploadHandler(flow businessflow.UploadFlow) UploadHandlerInterface {
	return &UploadHandler{
		baseHandler: newBaseHandler(),
		flow:        flow,
	}
}

func (h *UploadHandler) uploadError(c fiber.Ctx, err error, action string) error {
	switch {
	case businessflow.IsInvalidUploadMode(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid upload mode", "INVALID_UPLOAD_MODE", err.Error())
	case businessflow.IsUnsupportedFile(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Unsupported file type", "UNSUPPORTED_FILE", "expected .csv or .xlsx")
	case businessflow.IsFileTooLarge(err):
		return h.ErrorResponse(c, fiber.StatusRequestEntityTooLarge, "File is too large", "FILE_TOO_LARGE", nil)
	case businessflow.IsEmptyFile(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "File has no header row", "EMPTY_FILE", nil)
	case businessflow.IsMissingColumn(err):
		return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Required column missing", "MISSING_COLUMN", err.Error())
	case businessflow.IsStoreNotAvailable(err):
		return h.ErrorResponse(c, fiber.StatusServiceUnavailable, "Record store not available", "STORE_NOT_AVAILABLE", nil)
	}
	log.Println(action+" failed:", err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, action+" failed", "UPLOAD_FAILED", nil)
}

// readUpload validates the mode and opens the multipart file; ok is false when a response was written.
func (h *UploadHandler) readUpload(c fiber.Ctx) (businessflow.UploadFile, string, func(), bool, error) {
	query := dto.UploadQuery{Mode: strings.ToLower(strings.TrimSpace(c.Query("mode")))}
	if ok, err := h.validate(c, &query); !ok {
		return businessflow.UploadFile{}, "", nil, false, err
	}

	fileHeader, err := c.FormFile("file")
	if err != nil || fileHeader == nil {
		return businessflow.UploadFile{}, "", nil, false, h.ErrorResponse(c, fiber.StatusBadRequest, "file is required", "INVALID_REQUEST", nil)
	}
	fh, err := openFormFile(fileHeader)
	if err != nil {
		return businessflow.UploadFile{}, "", nil, false, h.ErrorResponse(c, fiber.StatusBadRequest, "invalid file", "INVALID_FILE", err.Error())
	}

	file := businessflow.UploadFile{
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		Reader:   fh,
	}
	return file, query.Mode, func() { _ = fh.Close() }, true, nil
}

func (h *UploadHandler) reconcile(c fiber.Ctx, attribute reconciliation.Attribute, endpoint string) error {
	file, mode, closeFile, ok, err := h.readUpload(c)
	if !ok {
		return err
	}
	defer closeFile()

	ctx, cancel := h.createRequestContext(c, endpoint)
	defer cancel()

	result, err := h.flow.ReconcileAttribute(ctx, attribute, file, mode, h.clientMetadata(c))
	if err != nil {
		return h.uploadError(c, err, "Attribute upload")
	}
	return h.SuccessResponse(c, fiber.StatusOK, uploadMessage(result.Committed), result)
}

func uploadMessage(committed bool) string {
	if committed {
		return "Upload committed"
	}
	return "Upload preview"
}

// UploadZones reconciles operator zones against the uploaded sheet
// @Summary Upload zones
// @Tags Admin Uploads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "CSV or XLSX with code and zone columns"
// @Param mode query string false "preview (default) or commit"
// @Success 200 {object} dto.APIResponse{data=dto.AttributeUploadResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 401 {object} dto.APIResponse
// @Failure 422 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/admin/uploads/zones [post]
func (h *UploadHandler) UploadZones(c fiber.Ctx) error {
	return h.reconcile(c, reconciliation.AttributeZone, "/api/v1/admin/uploads/zones")
}

// UploadSponsors reconciles operator sponsors against the uploaded sheet
// @Summary Upload sponsors
// @Tags Admin Uploads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "CSV or XLSX with code and sponsor columns"
// @Param mode query string false "preview (default) or commit"
// @Success 200 {object} dto.APIResponse{data=dto.AttributeUploadResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 422 {object} dto.APIResponse
// @Router /api/v1/admin/uploads/sponsors [post]
func (h *UploadHandler) UploadSponsors(c fiber.Ctx) error {
	return h.reconcile(c, reconciliation.AttributeSponsor, "/api/v1/admin/uploads/sponsors")
}

// UploadTasks reconciles non-commercial tasks, matching operators by national ID
// @Summary Upload tasks
// @Tags Admin Uploads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "CSV or XLSX with national ID and task columns"
// @Param mode query string false "preview (default) or commit"
// @Success 200 {object} dto.APIResponse{data=dto.AttributeUploadResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 422 {object} dto.APIResponse
// @Router /api/v1/admin/uploads/tasks [post]
func (h *UploadHandler) UploadTasks(c fiber.Ctx) error {
	return h.reconcile(c, reconciliation.AttributeTask, "/api/v1/admin/uploads/tasks")
}

type importFunc func(ctx context.Context, file businessflow.UploadFile, mode string, metadata *businessflow.ClientMetadata) (*dto.ImportUploadResponse, error)

func (h *UploadHandler) runImport(c fiber.Ctx, endpoint, action string, fn importFunc) error {
	file, mode, closeFile, ok, err := h.readUpload(c)
	if !ok {
		return err
	}
	defer closeFile()

	ctx, cancel := h.createRequestContext(c, endpoint)
	defer cancel()

	result, err := fn(ctx, file, mode, h.clientMetadata(c))
	if err != nil {
		return h.uploadError(c, err, action)
	}
	return h.SuccessResponse(c, fiber.StatusOK, uploadMessage(result.Committed), result)
}

// UploadIncidents imports incidents, skipping duplicates within the sheet and rows already stored
// @Summary Upload incidents
// @Tags Admin Uploads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "CSV or XLSX with code, factor and start date columns"
// @Param mode query string false "preview (default) or commit"
// @Success 200 {object} dto.APIResponse{data=dto.ImportUploadResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 422 {object} dto.APIResponse
// @Router /api/v1/admin/uploads/incidents [post]
func (h *UploadHandler) UploadIncidents(c fiber.Ctx) error {
	return h.runImport(c, "/api/v1/admin/uploads/incidents", "Incident upload", h.flow.ImportIncidents)
}

// UploadControlVariables imports bonus and kilometer programming rows
// @Summary Upload control variables
// @Tags Admin Uploads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "CSV or XLSX with code, variable, values and window columns"
// @Param mode query string false "preview (default) or commit"
// @Success 200 {object} dto.APIResponse{data=dto.ImportUploadResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 422 {object} dto.APIResponse
// @Router /api/v1/admin/uploads/control-variables [post]
func (h *UploadHandler) UploadControlVariables(c fiber.Ctx) error {
	return h.runImport(c, "/api/v1/admin/uploads/control-variables", "Control variable upload", h.flow.ImportControlVariables)
}

// UploadOperators creates or updates operator identities by code
// @Summary Upload operators
// @Tags Admin Uploads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "CSV or XLSX with a code column and any identity columns"
// @Param mode query string false "preview (default) or commit"
// @Success 200 {object} dto.APIResponse{data=dto.ImportUploadResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 422 {object} dto.APIResponse
// @Router /api/v1/admin/uploads/operators [post]
func (h *UploadHandler) UploadOperators(c fiber.Ctx) error {
	return h.runImport(c, "/api/v1/admin/uploads/operators", "Operator upload", h.flow.ImportOperators)
}

// ListAudits lists the most recent committed uploads
// @Summary Upload audits
// @Tags Admin Uploads
// @Produce json
// @Security BearerAuth
// @Param kind query string false "Upload kind"
// @Param limit query int false "Max rows (1-200, default 20)"
// @Success 200 {object} dto.APIResponse{data=dto.UploadAuditListResponse}
// @Failure 400 {object} dto.APIResponse
// @Router /api/v1/admin/uploads/audits [get]
func (h *UploadHandler) ListAudits(c fiber.Ctx) error {
	req := dto.UploadAuditQuery{Kind: strings.TrimSpace(c.Query("kind"))}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "limit must be a number", "VALIDATION_ERROR", nil)
		}
		req.Limit = limit
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/uploads/audits")
	defer cancel()

	result, err := h.flow.ListAudits(ctx, &req)
	if err != nil {
		return h.uploadError(c, err, "Upload audit listing")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Upload audits", result)
}
