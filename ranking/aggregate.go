package ranking

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// AggregateOptions carries the knobs shared by both aggregators.
type AggregateOptions struct {
	Period      Period
	DailyRate   int64
	DefaultBase int64
	// IncidentsSince drops incidents that started before it. Zero keeps every incident.
	IncidentsSince time.Time
	// Today closes open-ended incidents.
	Today time.Time
}

// DeductionDetail explains how one incident moved the bonus.
type DeductionDetail struct {
	FactorCode         string
	Cause              string
	Kind               DeductionKind
	Percent            int64
	Days               int
	Amount             decimal.Decimal
	WindowStart        time.Time
	WindowEnd          *time.Time
	AffectsPerformance bool
	Observation        string
}

// BonusResult is the outcome of the bonus aggregation for one operator.
type BonusResult struct {
	Percentage            float64
	// PerformancePercentage only counts deductions whose rule affects performance.
	PerformancePercentage float64
	BasePercentage        float64
	Executed              decimal.Decimal
	Programmed            decimal.Decimal
	Base                  decimal.Decimal
	Deduction             decimal.Decimal
	Total                 decimal.Decimal
	Category              Tier
	Deductions            []DeductionDetail
	UnknownFactors        []string
	HasRecords            bool
	LatestDate            *time.Time
}

// KmResult is the outcome of the kilometers aggregation for one operator.
type KmResult struct {
	Percentage float64
	Executed   decimal.Decimal
	Programmed decimal.Decimal
	Category   Tier
	HasRecords bool
	LatestDate *time.Time
}

// AggregateBonus sums the operator's bonus records for the period and applies incident deductions.
// records and incidents must already belong to a single operator.
func AggregateBonus(records []ControlVariableRecord, incidents []IncidentRecord, opts AggregateOptions) BonusResult {
	executed, programmed, count, latest := sumRecords(records, KindBonus, opts.Period)

	res := BonusResult{
		Executed:   executed,
		Programmed: programmed,
		HasRecords: count > 0,
		LatestDate: latest,
	}

	if count == 0 {
		res.Base = decimal.NewFromInt(opts.DefaultBase)
		res.BasePercentage = 100
	} else {
		res.Base = executed
		res.BasePercentage = percentage(executed, programmed)
	}

	var deduction, performance decimal.Decimal
	for _, inc := range incidents {
		if !opts.IncidentsSince.IsZero() && inc.WindowStart.Before(opts.IncidentsSince) {
			continue
		}
		rule, ok := LookupDeduction(inc.FactorCode)
		if !ok {
			res.UnknownFactors = append(res.UnknownFactors, inc.FactorCode)
			continue
		}
		days := inc.DurationDays(opts.Today)
		amount := rule.Amount(res.Base, days, opts.DailyRate)
		deduction = deduction.Add(amount)
		if rule.AffectsPerformance {
			performance = performance.Add(amount)
		}
		res.Deductions = append(res.Deductions, DeductionDetail{
			FactorCode:         inc.FactorCode,
			Cause:              rule.Cause,
			Kind:               rule.Kind,
			Percent:            rule.Percent,
			Days:               days,
			Amount:             amount,
			WindowStart:        inc.WindowStart,
			WindowEnd:          inc.WindowEnd,
			AffectsPerformance: rule.AffectsPerformance,
			Observation:        inc.Observation,
		})
	}

	res.Deduction = clampDeduction(deduction, res.Base)
	res.Total = res.Base.Sub(res.Deduction)

	if res.Base.IsPositive() {
		res.Percentage = capPercentage(percentage(res.Total, res.Base))
		kept := res.Base.Sub(clampDeduction(performance, res.Base))
		res.PerformancePercentage = capPercentage(percentage(kept, res.Base))
	} else {
		res.Percentage = capPercentage(res.BasePercentage)
		res.PerformancePercentage = res.Percentage
	}
	res.Category = ClassifyBonus(res.Percentage)
	return res
}

// AggregateKm sums the operator's kilometer records for the period.
// A year or month period without records yields ErrNoDataForPeriod.
func AggregateKm(records []ControlVariableRecord, period Period) (KmResult, error) {
	executed, programmed, count, latest := sumRecords(records, KindKm, period)

	if count == 0 {
		if !period.IsGlobal() {
			return KmResult{}, ErrNoDataForPeriod
		}
		return KmResult{
			Percentage: 100,
			Executed:   decimal.Zero,
			Programmed: decimal.Zero,
			Category:   ClassifyKm(100),
		}, nil
	}

	pct := 0.0
	if programmed.IsPositive() {
		pct = capPercentage(percentage(executed, programmed))
	}
	return KmResult{
		Percentage: pct,
		Executed:   executed,
		Programmed: programmed,
		Category:   ClassifyKm(pct),
		HasRecords: true,
		LatestDate: latest,
	}, nil
}

// Efficiency is the rounded average of both percentages, half away from zero.
func Efficiency(bonusPct, kmPct float64) int {
	return int(math.Round((bonusPct + kmPct) / 2))
}

func sumRecords(records []ControlVariableRecord, kind Kind, period Period) (executed, programmed decimal.Decimal, count int, latest *time.Time) {
	for _, r := range records {
		if r.Kind() != kind || !period.Matches(r.WindowStart, r.WindowEnd) {
			continue
		}
		executed = executed.Add(r.ExecutedValue)
		programmed = programmed.Add(r.ProgrammedValue)
		count++
		if ref := r.ReferenceDate(); !ref.IsZero() && (latest == nil || ref.After(*latest)) {
			d := ref
			latest = &d
		}
	}
	return executed, programmed, count, latest
}

// percentage is num/den*100, or 0 when den is zero.
func percentage(num, den decimal.Decimal) float64 {
	if den.IsZero() {
		return 0
	}
	return num.Mul(hundred).Div(den).InexactFloat64()
}

// capPercentage clamps only the high end; values below zero pass through.
func capPercentage(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0
	}
	return math.Min(p, 100)
}

func clampDeduction(d, base decimal.Decimal) decimal.Decimal {
	upper := decimal.Max(base, decimal.Zero)
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(upper) {
		return upper
	}
	return d
}
