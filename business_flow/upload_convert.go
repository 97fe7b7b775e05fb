package businessflow

import (
	"github.com/amirphl/operator-ranking/app/dto"
	"github.com/amirphl/operator-ranking/reconciliation"
)

func toUploadRows(rows []reconciliation.Row) []dto.UploadRowDTO {
	out := make([]dto.UploadRowDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.UploadRowDTO{
			Line:         r.Line,
			OperatorCode: r.OperatorCode,
			OperatorName: r.OperatorName,
			Previous:     r.Previous,
			New:          r.New,
			Status:       string(r.Status),
		})
	}
	return out
}

func toRowErrors(rows []reconciliation.RowError) []dto.RowErrorDTO {
	out := make([]dto.RowErrorDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.RowErrorDTO{Line: r.Line, Reason: r.Reason})
	}
	return out
}

func toDuplicates(rows []reconciliation.Duplicate) []dto.DuplicateDTO {
	out := make([]dto.DuplicateDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.DuplicateDTO{Line: r.Line, Key: r.Key})
	}
	return out
}

func toAttributeUploadResponse(sum *reconciliation.Summary, commit bool) *dto.AttributeUploadResponse {
	unmatched := make([]dto.UnmatchedRowDTO, 0, len(sum.Unmatched))
	for _, u := range sum.Unmatched {
		unmatched = append(unmatched, dto.UnmatchedRowDTO{
			Line:       u.Line,
			Code:       u.Code,
			NationalID: u.NationalID,
			Name:       u.Name,
			Value:      u.Value,
		})
	}
	return &dto.AttributeUploadResponse{
		Attribute: string(sum.Attribute),
		Mode:      modeName(commit),
		Counts: dto.UploadCountsDTO{
			Total:     sum.Total,
			Changed:   len(sum.Changed),
			Unchanged: len(sum.Unchanged),
			Missing:   len(sum.AttributeMissing),
			Unmatched: len(sum.Unmatched),
			Malformed: len(sum.Malformed),
		},
		Changed:          toUploadRows(sum.Changed),
		Unchanged:        toUploadRows(sum.Unchanged),
		AttributeMissing: toUploadRows(sum.AttributeMissing),
		Unmatched:        unmatched,
		Malformed:        toRowErrors(sum.Malformed),
	}
}

// toImportUploadResponse counts in-batch and already-stored duplicates together.
func toImportUploadResponse(kind string, commit bool, total int, dups []reconciliation.Duplicate, malformed []reconciliation.RowError, existing []dto.DuplicateDTO) *dto.ImportUploadResponse {
	if existing == nil {
		existing = []dto.DuplicateDTO{}
	}
	return &dto.ImportUploadResponse{
		Kind: kind,
		Mode: modeName(commit),
		Counts: dto.UploadCountsDTO{
			Total:      total,
			Malformed:  len(malformed),
			Duplicates: len(dups) + len(existing),
		},
		Duplicates: toDuplicates(dups),
		Malformed:  toRowErrors(malformed),
		Existing:   existing,
	}
}
