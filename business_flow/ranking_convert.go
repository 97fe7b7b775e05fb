package businessflow

import (
	"math"
	"time"

	"github.com/amirphl/operator-ranking/app/dto"
	"github.com/amirphl/operator-ranking/ranking"
)

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}

func ToPeriodDTO(p ranking.Period) dto.PeriodDTO {
	return dto.PeriodDTO{
		Kind:  string(p.Kind),
		Year:  p.Year,
		Month: p.Month,
		Label: p.Label(),
	}
}

func ToOperatorDTO(id ranking.OperatorIdentity) dto.OperatorDTO {
	return dto.OperatorDTO{
		Code:       id.Code,
		Name:       id.Name,
		NationalID: id.NationalID,
		Position:   id.Position,
		Phone:      id.Phone,
		JoinDate:   formatDatePtr(id.JoinDate),
		Zone:       id.Zone,
		Sponsor:    id.Sponsor,
		Task:       id.Task,
	}
}

func ToBonusDTO(b ranking.BonusResult) dto.BonusDTO {
	return dto.BonusDTO{
		Percentage:            round2(b.Percentage),
		PerformancePercentage: round2(b.PerformancePercentage),
		BasePercentage:        round2(b.BasePercentage),
		Executed:              b.Executed.InexactFloat64(),
		Programmed:            b.Programmed.InexactFloat64(),
		Base:                  b.Base.InexactFloat64(),
		Deduction:             b.Deduction.InexactFloat64(),
		Total:                 b.Total.InexactFloat64(),
		Category:              string(b.Category),
		HasRecords:            b.HasRecords,
		LatestDate:            formatDatePtr(b.LatestDate),
	}
}

func ToKmDTO(k ranking.KmResult) dto.KmDTO {
	return dto.KmDTO{
		Percentage: round2(k.Percentage),
		Executed:   k.Executed.InexactFloat64(),
		Programmed: k.Programmed.InexactFloat64(),
		Category:   string(k.Category),
		HasRecords: k.HasRecords,
		LatestDate: formatDatePtr(k.LatestDate),
	}
}

// ToRankingResponse flattens a ranking result and counts operators per final category.
func ToRankingResponse(res *ranking.Result) *dto.RankingResponse {
	counts := make(map[string]int, len(ranking.Tiers))
	for _, t := range ranking.Tiers {
		counts[string(t)] = 0
	}

	ops := make([]dto.OperatorRankingDTO, 0, len(res.Operators))
	for _, op := range res.Operators {
		counts[string(op.Category)]++
		ops = append(ops, dto.OperatorRankingDTO{
			Rank:       op.Rank,
			Operator:   ToOperatorDTO(op.Identity),
			Bonus:      ToBonusDTO(op.Bonus),
			Km:         ToKmDTO(op.Km),
			Efficiency: op.Efficiency,
			Category:   string(op.Category),
		})
	}

	years := res.Metadata.AvailableYears
	if years == nil {
		years = []int{}
	}
	return &dto.RankingResponse{
		Period:    ToPeriodDTO(res.Period),
		Operators: ops,
		Metadata: dto.RankingMetadataDTO{
			AvailableYears: years,
			LatestYear:     res.Metadata.LatestYear,
			LatestMonth:    res.Metadata.LatestMonth,
		},
		CategoryCounts: counts,
		Total:          len(ops),
		IsDemoData:     res.IsDemoData,
		FallbackReason: res.FallbackReason,
		Message:        res.Message,
		GeneratedAt:    res.GeneratedAt.UTC().Format(time.RFC3339),
	}
}

func ToDeductionDTO(d ranking.DeductionDetail) dto.DeductionDTO {
	return dto.DeductionDTO{
		FactorCode:         d.FactorCode,
		Cause:              d.Cause,
		Kind:               string(d.Kind),
		Percent:            d.Percent,
		Days:               d.Days,
		Amount:             d.Amount.InexactFloat64(),
		StartDate:          formatDate(d.WindowStart),
		EndDate:            formatDatePtr(d.WindowEnd),
		AffectsPerformance: d.AffectsPerformance,
		Observation:        d.Observation,
	}
}

func ToOperatorSummaryResponse(sum *ranking.OperatorSummary) *dto.OperatorSummaryResponse {
	out := &dto.OperatorSummaryResponse{
		Period:         ToPeriodDTO(sum.Period),
		Operator:       ToOperatorDTO(sum.Identity),
		Bonus:          ToBonusDTO(sum.Bonus),
		Deductions:     make([]dto.DeductionDTO, 0, len(sum.Bonus.Deductions)),
		UnknownFactors: sum.Bonus.UnknownFactors,
		Efficiency:     sum.Efficiency,
		ExpiresInDays:  sum.ExpiresInDays,
		YearlyBase:     make([]dto.YearBaseDTO, 0, len(sum.YearlyBase)),
		IsDemoData:     sum.IsDemoData,
		FallbackReason: sum.FallbackReason,
	}
	for _, d := range sum.Bonus.Deductions {
		out.Deductions = append(out.Deductions, ToDeductionDTO(d))
	}
	if sum.Km != nil {
		km := ToKmDTO(*sum.Km)
		out.Km = &km
	}
	if sum.Category != nil {
		c := string(*sum.Category)
		out.Category = &c
	}
	if m := sum.LastIncidentMonth; m != nil {
		out.LastIncidentMonth = &dto.IncidentMonthDTO{
			Year:      m.Year,
			Month:     m.Month,
			MonthName: m.MonthName,
			BaseBonus: m.BaseBonus,
		}
	}
	for _, yb := range sum.YearlyBase {
		out.YearlyBase = append(out.YearlyBase, dto.YearBaseDTO{Year: yb.Year, Bonus: yb.Bonus})
	}
	return out
}

func ToDeductionRuleDTO(r ranking.DeductionRule, dailyRate int64) dto.DeductionRuleDTO {
	out := dto.DeductionRuleDTO{
		Code:               r.Code,
		Cause:              r.Cause,
		Kind:               string(r.Kind),
		AffectsPerformance: r.AffectsPerformance,
	}
	switch r.Kind {
	case ranking.DeductionPercent:
		out.Percent = r.Percent
	case ranking.DeductionPerDay:
		out.DailyRate = dailyRate
	}
	return out
}
