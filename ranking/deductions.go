package ranking

import (
	"sort"

	"github.com/shopspring/decimal"
)

// DailyRate is the amount subtracted per incident day for per-day factors.
// Some upstream screens quote 4333; 4733 is the value applied by the ranking.
const DailyRate int64 = 4733

// DefaultBaseBonus is assumed when an operator has no bonus records for the period.
const DefaultBaseBonus int64 = 142000

// DeductionKind tells how a factor reduces the bonus.
type DeductionKind string

const (
	DeductionPercent DeductionKind = "percent"
	DeductionPerDay  DeductionKind = "per_day"
)

// DeductionRule describes how one incident factor code affects the bonus.
type DeductionRule struct {
	Code               string
	Kind               DeductionKind
	Percent            int64 // only for DeductionPercent, 0..100
	Cause              string
	AffectsPerformance bool
}

func percentRule(code string, pct int64, cause string) DeductionRule {
	return DeductionRule{Code: code, Kind: DeductionPercent, Percent: pct, Cause: cause, AffectsPerformance: true}
}

func perDayRule(code, cause string) DeductionRule {
	return DeductionRule{Code: code, Kind: DeductionPerDay, Cause: cause, AffectsPerformance: true}
}

func neutral(r DeductionRule) DeductionRule {
	r.AffectsPerformance = false
	return r
}

// deductionRules is keyed by the case-sensitive factor code as it arrives from upstream data.
var deductionRules = func() map[string]DeductionRule {
	rules := []DeductionRule{
		neutral(percentRule("0", 0, "Sin Deducción")),
		percentRule("1", 25, "Incapacidad"),
		percentRule("2", 100, "Ausentismo"),
		perDayRule("3", "Incapacidad > 7 días"),
		neutral(perDayRule("4", "Calamidad")),
		percentRule("5", 25, "Retardo"),
		perDayRule("6", "Renuncia"),
		neutral(perDayRule("7", "Vacaciones")),
		perDayRule("8", "Suspensión"),
		neutral(perDayRule("9", "No Ingreso")),
		percentRule("10", 100, "Restricción"),
		neutral(perDayRule("11", "Día No Remunerado")),
		percentRule("12", 50, "Retardo por Horas"),
		neutral(percentRule("13", 0, "Día No Remunerado por Horas")),
		percentRule("DL", 25, "Daño Leve"),
		percentRule("DG", 50, "Daño Grave"),
		percentRule("DGV", 100, "Daño Gravísimo"),
		percentRule("DEL", 25, "Desincentivo Leve"),
		percentRule("DEG", 50, "Desincentivo Grave"),
		percentRule("DEGV", 100, "Desincentivo Gravísimo"),
		percentRule("INT", 25, "Incumplimiento Interno"),
		percentRule("OM", 25, "Falta Menor"),
		percentRule("OMD", 50, "Falta Media"),
		percentRule("OG", 100, "Falta Grave"),
		percentRule("NPF", 100, "No presentarse a formación"),
		percentRule("HCC-L", 25, "Hábitos, Conductas Y Comportamientos - Leve"),
		percentRule("HCC-G", 50, "Hábitos, Conductas Y Comportamientos - Grave"),
		percentRule("HCC-GV", 100, "Hábitos, Conductas Y Comportamientos - Gravísimo"),
	}
	m := make(map[string]DeductionRule, len(rules))
	for _, r := range rules {
		m[r.Code] = r
	}
	return m
}()

// LookupDeduction returns the rule for a factor code. Unknown codes report false and deduct nothing.
func LookupDeduction(code string) (DeductionRule, bool) {
	r, ok := deductionRules[code]
	return r, ok
}

// DeductionRules lists every rule ordered by code.
func DeductionRules() []DeductionRule {
	out := make([]DeductionRule, 0, len(deductionRules))
	for _, r := range deductionRules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Amount is the deduction this rule produces for an incident of the given length against base.
func (r DeductionRule) Amount(base decimal.Decimal, days int, dailyRate int64) decimal.Decimal {
	switch r.Kind {
	case DeductionPerDay:
		return decimal.NewFromInt(int64(days) * dailyRate)
	case DeductionPercent:
		return base.Mul(decimal.NewFromInt(r.Percent)).Div(decimal.NewFromInt(100))
	default:
		return decimal.Zero
	}
}

// yearlyBaseBonus holds the reference bonus for each year with a published value.
var yearlyBaseBonus = map[int]int64{
	2025: 142000,
	2024: 135000,
	2023: 128000,
	2022: 122000,
	2021: 122000,
	2020: 122000,
}

// BaseBonusForYear returns the reference bonus for a year; years past the table use the latest value.
func BaseBonusForYear(year int) int64 {
	if v, ok := yearlyBaseBonus[year]; ok {
		return v
	}
	if year > 2025 {
		return 142000
	}
	return 122000
}

// YearBase pairs a year with its reference bonus.
type YearBase struct {
	Year  int
	Bonus int64
}

// YearlyBaseBonuses lists the published reference bonuses, newest year first.
func YearlyBaseBonuses() []YearBase {
	out := make([]YearBase, 0, len(yearlyBaseBonus))
	for y, b := range yearlyBaseBonus {
		out = append(out, YearBase{Year: y, Bonus: b})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year > out[j].Year })
	return out
}
