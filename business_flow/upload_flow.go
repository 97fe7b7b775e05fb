package businessflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/amirphl/operator-ranking/app/dto"
	"github.com/amirphl/operator-ranking/config"
	"github.com/amirphl/operator-ranking/models"
	"github.com/amirphl/operator-ranking/ranking"
	"github.com/amirphl/operator-ranking/reconciliation"
	"github.com/amirphl/operator-ranking/repository"
	"github.com/amirphl/operator-ranking/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultAuditLimit = 20

// UploadFile is an uploaded spreadsheet as received by the handler
type UploadFile struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

// UploadFlow reconciles and imports admin spreadsheet uploads
type UploadFlow interface {
	ReconcileAttribute(ctx context.Context, attribute reconciliation.Attribute, file UploadFile, mode string, metadata *ClientMetadata) (*dto.AttributeUploadResponse, error)
	ImportIncidents(ctx context.Context, file UploadFile, mode string, metadata *ClientMetadata) (*dto.ImportUploadResponse, error)
	ImportControlVariables(ctx context.Context, file UploadFile, mode string, metadata *ClientMetadata) (*dto.ImportUploadResponse, error)
	ImportOperators(ctx context.Context, file UploadFile, mode string, metadata *ClientMetadata) (*dto.ImportUploadResponse, error)
	ListAudits(ctx context.Context, req *dto.UploadAuditQuery) (*dto.UploadAuditListResponse, error)
}

// UploadFlowImpl implements UploadFlow
type UploadFlowImpl struct {
	operatorRepo repository.OperatorRepository
	variableRepo repository.ControlVariableRepository
	incidentRepo repository.IncidentRepository
	auditRepo    repository.UploadAuditRepository
	sink         ranking.RecordSink
	rankingFlow  RankingFlow
	uploadConfig config.UploadConfig
	db           *gorm.DB
}

func NewUploadFlow(
	operatorRepo repository.OperatorRepository,
	variableRepo repository.ControlVariableRepository,
	incidentRepo repository.IncidentRepository,
	auditRepo repository.UploadAuditRepository,
	sink ranking.RecordSink,
	rankingFlow RankingFlow,
	uploadConfig config.UploadConfig,
	db *gorm.DB,
) UploadFlow {
	return &UploadFlowImpl{
		operatorRepo: operatorRepo,
		variableRepo: variableRepo,
		incidentRepo: incidentRepo,
		auditRepo:    auditRepo,
		sink:         sink,
		rankingFlow:  rankingFlow,
		uploadConfig: uploadConfig,
		db:           db,
	}
}

func parseMode(mode string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", dto.UploadModePreview:
		return false, nil
	case dto.UploadModeCommit:
		return true, nil
	default:
		return false, NewBusinessErrorf("INVALID_UPLOAD_MODE", "Invalid upload mode %q", ErrInvalidUploadMode, mode)
	}
}

func modeName(commit bool) string {
	if commit {
		return dto.UploadModeCommit
	}
	return dto.UploadModePreview
}

// readSheet checks size and extension before parsing the upload.
func (f *UploadFlowImpl) readSheet(file UploadFile) (*reconciliation.Sheet, error) {
	if f.uploadConfig.MaxFileSize > 0 && file.Size > f.uploadConfig.MaxFileSize {
		return nil, NewBusinessErrorf("FILE_TOO_LARGE", "File exceeds %d bytes", ErrFileTooLarge, f.uploadConfig.MaxFileSize)
	}
	if !f.allowedExtension(file.Filename) {
		return nil, NewBusinessErrorf("UNSUPPORTED_FILE", "Unsupported file %s", ErrUnsupportedFile, file.Filename)
	}

	sheet, err := reconciliation.ReadSheet(file.Reader, file.Filename)
	if err != nil {
		return nil, mapSheetError(err)
	}
	return sheet, nil
}

func (f *UploadFlowImpl) allowedExtension(filename string) bool {
	if !reconciliation.SupportedExtension(filename) {
		return false
	}
	if len(f.uploadConfig.AllowedExtensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range f.uploadConfig.AllowedExtensions {
		if strings.EqualFold(allowed, ext) {
			return true
		}
	}
	return false
}

func mapSheetError(err error) error {
	switch {
	case errors.Is(err, reconciliation.ErrUnsupportedFormat):
		return NewBusinessError("UNSUPPORTED_FILE", "Unsupported file type", fmt.Errorf("%w: %v", ErrUnsupportedFile, err))
	case errors.Is(err, reconciliation.ErrEmptySheet):
		return NewBusinessError("EMPTY_FILE", "File has no header row", fmt.Errorf("%w: %v", ErrEmptyFile, err))
	case errors.Is(err, reconciliation.ErrMissingColumn):
		return NewBusinessError("MISSING_COLUMN", err.Error(), fmt.Errorf("%w: %v", ErrMissingColumn, err))
	default:
		return NewBusinessError("FILE_READ_FAILED", "Failed to read uploaded file", err)
	}
}

func (f *UploadFlowImpl) requireStore() error {
	if f.operatorRepo == nil || f.auditRepo == nil {
		return NewBusinessError("STORE_NOT_AVAILABLE", "Record store not configured", ErrStoreNotAvailable)
	}
	return nil
}

func (f *UploadFlowImpl) inTx(ctx context.Context, fn func(context.Context) error) error {
	if f.db == nil {
		return fn(ctx)
	}
	return repository.WithTransaction(ctx, f.db, fn)
}

func attributeKind(a reconciliation.Attribute) string {
	switch a {
	case reconciliation.AttributeSponsor:
		return models.UploadKindSponsors
	case reconciliation.AttributeTask:
		return models.UploadKindTasks
	default:
		return models.UploadKindZones
	}
}

func attributeValue(op *models.Operator, a reconciliation.Attribute) string {
	switch a {
	case reconciliation.AttributeSponsor:
		return op.Sponsor
	case reconciliation.AttributeTask:
		return op.Task
	default:
		return op.Zone
	}
}

func (f *UploadFlowImpl) ReconcileAttribute(ctx context.Context, attribute reconciliation.Attribute, file UploadFile, mode string, metadata *ClientMetadata) (*dto.AttributeUploadResponse, error) {
	commit, err := parseMode(mode)
	if err != nil {
		return nil, err
	}
	if err := f.requireStore(); err != nil {
		return nil, err
	}
	sheet, err := f.readSheet(file)
	if err != nil {
		return nil, err
	}

	operators, err := f.operatorRepo.ListAll(ctx)
	if err != nil {
		return nil, NewBusinessError("FETCH_OPERATORS_FAILED", "Failed to load operators", err)
	}
	current := make([]reconciliation.Current, 0, len(operators))
	for _, op := range operators {
		current = append(current, reconciliation.Current{
			Code:       op.Code,
			Name:       op.Name,
			NationalID: op.NationalID,
			Value:      attributeValue(op, attribute),
		})
	}

	sum, err := reconciliation.Diff(attribute, sheet, current)
	if err != nil {
		return nil, mapSheetError(err)
	}

	kind := attributeKind(attribute)
	resp := toAttributeUploadResponse(sum, commit)
	observeUpload(kind, map[string]int{
		"changed":   resp.Counts.Changed,
		"unchanged": resp.Counts.Unchanged,
		"missing":   resp.Counts.Missing,
		"unmatched": resp.Counts.Unmatched,
		"malformed": resp.Counts.Malformed,
	})
	if !commit {
		return resp, nil
	}

	batchID := uuid.New()
	err = f.inTx(ctx, func(txCtx context.Context) error {
		for _, row := range sum.Changed {
			if err := f.sink.UpsertOperatorAttribute(txCtx, row.OperatorCode, string(attribute), row.New); err != nil {
				return fmt.Errorf("line %d: %w", row.Line, err)
			}
		}
		return f.auditRepo.Save(txCtx, newAudit(batchID, kind, file.Filename, resp.Counts, metadata))
	})
	if err != nil {
		return nil, NewBusinessError("UPLOAD_COMMIT_FAILED", "Failed to commit upload", err)
	}

	f.afterCommit(ctx, kind)
	resp.Committed = true
	resp.BatchID = batchID.String()
	return resp, nil
}

func (f *UploadFlowImpl) ImportIncidents(ctx context.Context, file UploadFile, mode string, metadata *ClientMetadata) (*dto.ImportUploadResponse, error) {
	commit, err := parseMode(mode)
	if err != nil {
		return nil, err
	}
	if err := f.requireStore(); err != nil {
		return nil, err
	}
	sheet, err := f.readSheet(file)
	if err != nil {
		return nil, err
	}
	batch, err := reconciliation.ParseIncidents(sheet)
	if err != nil {
		return nil, mapSheetError(err)
	}
	codes, err := f.storedCodes(ctx)
	if err != nil {
		return nil, err
	}
	for i := range batch.Rows {
		batch.Rows[i].Record.OperatorCode = codes.resolve(batch.Rows[i].Record.OperatorCode)
	}

	existing, err := f.incidentRepo.ByOperatorCodes(ctx, incidentCodes(batch.Rows))
	if err != nil {
		return nil, NewBusinessError("FETCH_INCIDENTS_FAILED", "Failed to load stored incidents", err)
	}
	stored := make(map[string]bool, len(existing))
	for _, m := range existing {
		stored[reconciliation.IncidentKey(m.OperatorCode, m.WindowStart, m.FactorCode)] = true
	}

	fresh := make([]reconciliation.IncidentRow, 0, len(batch.Rows))
	var already []dto.DuplicateDTO
	for _, row := range batch.Rows {
		if stored[row.Key()] {
			already = append(already, dto.DuplicateDTO{Line: row.Line, Key: row.Key()})
			continue
		}
		fresh = append(fresh, row)
	}

	resp := toImportUploadResponse(models.UploadKindIncidents, commit, batch.Total, batch.Duplicates, batch.Malformed, already)
	resp.Counts.Created = len(fresh)
	observeUpload(models.UploadKindIncidents, map[string]int{
		"created":    resp.Counts.Created,
		"duplicates": resp.Counts.Duplicates,
		"malformed":  resp.Counts.Malformed,
	})
	if !commit {
		return resp, nil
	}

	batchID := uuid.New()
	rows := make([]*models.Incident, 0, len(fresh))
	for _, row := range fresh {
		rows = append(rows, repository.IncidentModel(row.Record, batchID))
	}
	err = f.inTx(ctx, func(txCtx context.Context) error {
		if err := f.incidentRepo.SaveBatch(txCtx, rows); err != nil {
			return err
		}
		return f.auditRepo.Save(txCtx, newAudit(batchID, models.UploadKindIncidents, file.Filename, resp.Counts, metadata))
	})
	if err != nil {
		return nil, NewBusinessError("UPLOAD_COMMIT_FAILED", "Failed to commit incidents", err)
	}

	f.afterCommit(ctx, models.UploadKindIncidents)
	resp.Committed = true
	resp.BatchID = batchID.String()
	return resp, nil
}

func (f *UploadFlowImpl) ImportControlVariables(ctx context.Context, file UploadFile, mode string, metadata *ClientMetadata) (*dto.ImportUploadResponse, error) {
	commit, err := parseMode(mode)
	if err != nil {
		return nil, err
	}
	if err := f.requireStore(); err != nil {
		return nil, err
	}
	sheet, err := f.readSheet(file)
	if err != nil {
		return nil, err
	}
	batch, err := reconciliation.ParseControlVariables(sheet)
	if err != nil {
		return nil, mapSheetError(err)
	}
	stored, err := f.storedCodes(ctx)
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(batch.Rows))
	for i := range batch.Rows {
		batch.Rows[i].Record.OperatorCode = stored.resolve(batch.Rows[i].Record.OperatorCode)
		codes = append(codes, batch.Rows[i].Record.OperatorCode)
	}
	existing, err := f.variableRepo.ByOperatorCodes(ctx, uniqueStrings(codes))
	if err != nil {
		return nil, NewBusinessError("FETCH_CONTROL_VARIABLES_FAILED", "Failed to load stored control variables", err)
	}
	storedKeys := make(map[string]bool, len(existing))
	for _, m := range existing {
		storedKeys[reconciliation.ControlVariableKey(m.OperatorCode, m.VariableCode, m.WindowStart, m.WindowEnd)] = true
	}

	fresh := make([]reconciliation.ControlVariableRow, 0, len(batch.Rows))
	var already []dto.DuplicateDTO
	for _, row := range batch.Rows {
		if storedKeys[row.Key()] {
			already = append(already, dto.DuplicateDTO{Line: row.Line, Key: row.Key()})
			continue
		}
		fresh = append(fresh, row)
	}

	resp := toImportUploadResponse(models.UploadKindControlVariables, commit, batch.Total, batch.Duplicates, batch.Malformed, already)
	resp.Counts.Created = len(fresh)
	observeUpload(models.UploadKindControlVariables, map[string]int{
		"created":    resp.Counts.Created,
		"duplicates": resp.Counts.Duplicates,
		"malformed":  resp.Counts.Malformed,
	})
	if !commit {
		return resp, nil
	}

	batchID := uuid.New()
	rows := make([]*models.ControlVariable, 0, len(fresh))
	for _, row := range fresh {
		rows = append(rows, repository.ControlVariableModel(row.Record, batchID))
	}
	err = f.inTx(ctx, func(txCtx context.Context) error {
		if err := f.variableRepo.SaveBatch(txCtx, rows); err != nil {
			return err
		}
		return f.auditRepo.Save(txCtx, newAudit(batchID, models.UploadKindControlVariables, file.Filename, resp.Counts, metadata))
	})
	if err != nil {
		return nil, NewBusinessError("UPLOAD_COMMIT_FAILED", "Failed to commit control variables", err)
	}

	f.afterCommit(ctx, models.UploadKindControlVariables)
	resp.Committed = true
	resp.BatchID = batchID.String()
	return resp, nil
}

// operatorColumns maps identity fields present in the sheet to the columns an upsert may overwrite.
var operatorColumns = []struct {
	field  reconciliation.Field
	column string
}{
	{reconciliation.FieldName, "name"},
	{reconciliation.FieldNationalID, "national_id"},
	{reconciliation.FieldPosition, "position"},
	{reconciliation.FieldPhone, "phone"},
	{reconciliation.FieldJoinDate, "join_date"},
	{reconciliation.FieldZone, models.OperatorColumnZone},
	{reconciliation.FieldSponsor, models.OperatorColumnSponsor},
	{reconciliation.FieldTask, models.OperatorColumnTask},
}

func (f *UploadFlowImpl) ImportOperators(ctx context.Context, file UploadFile, mode string, metadata *ClientMetadata) (*dto.ImportUploadResponse, error) {
	commit, err := parseMode(mode)
	if err != nil {
		return nil, err
	}
	if err := f.requireStore(); err != nil {
		return nil, err
	}
	sheet, err := f.readSheet(file)
	if err != nil {
		return nil, err
	}
	batch, err := reconciliation.ParseOperators(sheet)
	if err != nil {
		return nil, mapSheetError(err)
	}

	storedCode, err := f.storedCodes(ctx)
	if err != nil {
		return nil, err
	}

	resp := toImportUploadResponse(models.UploadKindOperators, commit, batch.Total, batch.Duplicates, batch.Malformed, nil)
	rows := make([]*models.Operator, 0, len(batch.Rows))
	for _, row := range batch.Rows {
		id := row.Identity
		if code, ok := storedCode[row.Key()]; ok {
			id.Code = code
			resp.Counts.Updated++
		} else {
			resp.Counts.Created++
		}
		rows = append(rows, repository.OperatorModel(id))
	}
	resp.Counts.Changed = resp.Counts.Updated
	observeUpload(models.UploadKindOperators, map[string]int{
		"created":    resp.Counts.Created,
		"updated":    resp.Counts.Updated,
		"duplicates": resp.Counts.Duplicates,
		"malformed":  resp.Counts.Malformed,
	})
	if !commit {
		return resp, nil
	}

	columns := make([]string, 0, len(operatorColumns))
	for _, c := range operatorColumns {
		if batch.Columns.Has(c.field) {
			columns = append(columns, c.column)
		}
	}

	batchID := uuid.New()
	err = f.inTx(ctx, func(txCtx context.Context) error {
		if err := f.operatorRepo.UpsertBatch(txCtx, rows, columns); err != nil {
			return err
		}
		return f.auditRepo.Save(txCtx, newAudit(batchID, models.UploadKindOperators, file.Filename, resp.Counts, metadata))
	})
	if err != nil {
		return nil, NewBusinessError("UPLOAD_COMMIT_FAILED", "Failed to commit operators", err)
	}

	f.afterCommit(ctx, models.UploadKindOperators)
	resp.Committed = true
	resp.BatchID = batchID.String()
	return resp, nil
}

func (f *UploadFlowImpl) ListAudits(ctx context.Context, req *dto.UploadAuditQuery) (*dto.UploadAuditListResponse, error) {
	if f.auditRepo == nil {
		return nil, NewBusinessError("STORE_NOT_AVAILABLE", "Record store not configured", ErrStoreNotAvailable)
	}
	limit := defaultAuditLimit
	var kind *string
	if req != nil {
		if req.Limit > 0 {
			limit = req.Limit
		}
		if req.Kind != "" {
			kind = &req.Kind
		}
	}

	audits, err := f.auditRepo.ListLatest(ctx, kind, limit)
	if err != nil {
		return nil, NewBusinessError("FETCH_UPLOAD_AUDITS_FAILED", "Failed to list upload audits", err)
	}
	out := &dto.UploadAuditListResponse{Items: make([]dto.UploadAuditDTO, 0, len(audits))}
	for _, a := range audits {
		out.Items = append(out.Items, ToUploadAuditDTO(*a))
	}
	out.Total = len(out.Items)
	return out, nil
}

// afterCommit drops cached rankings; a failure only costs freshness until the TTL expires.
func (f *UploadFlowImpl) afterCommit(ctx context.Context, kind string) {
	uploadCommits.WithLabelValues(kind).Inc()
	if f.rankingFlow == nil {
		return
	}
	if err := f.rankingFlow.InvalidateCache(ctx); err != nil {
		log.Printf("Ranking cache invalidation failed (request_id=%s): %v", utils.RequestIDFromContext(ctx), err)
	}
}

func newAudit(batchID uuid.UUID, kind, filename string, counts dto.UploadCountsDTO, metadata *ClientMetadata) *models.UploadAudit {
	audit := &models.UploadAudit{
		BatchID:    batchID,
		Kind:       kind,
		Filename:   filename,
		Total:      counts.Total,
		Changed:    counts.Changed,
		Unchanged:  counts.Unchanged,
		Missing:    counts.Missing,
		Unmatched:  counts.Unmatched,
		Malformed:  counts.Malformed,
		Duplicates: counts.Duplicates,
		Created:    counts.Created,
	}
	if metadata != nil {
		audit.AdminID = metadata.AdminID
		if metadata.RequestID != "" {
			rid := metadata.RequestID
			audit.RequestID = &rid
		}
	}
	return audit
}

// operatorCodes maps normalized codes to the code each operator is stored
// under, so "0101" and "101" are the same operator
type operatorCodes map[string]string

// resolve returns the stored code, or the normalized code for unknown operators
func (c operatorCodes) resolve(normalized string) string {
	if code, ok := c[normalized]; ok {
		return code
	}
	return normalized
}

func (f *UploadFlowImpl) storedCodes(ctx context.Context) (operatorCodes, error) {
	operators, err := f.operatorRepo.ListAll(ctx)
	if err != nil {
		return nil, NewBusinessError("FETCH_OPERATORS_FAILED", "Failed to load operators", err)
	}
	codes := make(operatorCodes, len(operators))
	for _, op := range operators {
		codes[reconciliation.NormalizeCode(op.Code)] = op.Code
	}
	return codes, nil
}

func incidentCodes(rows []reconciliation.IncidentRow) []string {
	codes := make([]string, 0, len(rows))
	for _, row := range rows {
		codes = append(codes, row.Record.OperatorCode)
	}
	return uniqueStrings(codes)
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
