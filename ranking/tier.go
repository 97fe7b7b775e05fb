// Package ranking computes per-operator bonus and kilometer metrics and turns them into a ranked, categorized list
package ranking

import "math"

// Tier is the qualitative category assigned to a percentage or to an operator.
type Tier string

const (
	TierOro              Tier = "Oro"
	TierPlata            Tier = "Plata"
	TierBronce           Tier = "Bronce"
	TierMejorar          Tier = "Mejorar"
	TierTallerConciencia Tier = "Taller Conciencia"
)

// Tiers lists every tier ordered best to worst.
var Tiers = []Tier{TierOro, TierPlata, TierBronce, TierMejorar, TierTallerConciencia}

// Threshold is an inclusive-min, exclusive-max percentage range mapped to a tier.
type Threshold struct {
	Tier Tier
	Min  float64
	Max  float64
}

var bonusThresholds = []Threshold{
	{Tier: TierOro, Min: 100, Max: math.Inf(1)},
	{Tier: TierPlata, Min: 95, Max: 100},
	{Tier: TierBronce, Min: 90, Max: 95},
	{Tier: TierMejorar, Min: 60, Max: 90},
	{Tier: TierTallerConciencia, Min: 0, Max: 60},
}

var kmThresholds = []Threshold{
	{Tier: TierOro, Min: 94, Max: math.Inf(1)},
	{Tier: TierPlata, Min: 90, Max: 94},
	{Tier: TierBronce, Min: 85, Max: 90},
	{Tier: TierMejorar, Min: 70, Max: 85},
	{Tier: TierTallerConciencia, Min: 0, Max: 70},
}

// BonusThresholds returns a copy of the bonus threshold table.
func BonusThresholds() []Threshold {
	return append([]Threshold(nil), bonusThresholds...)
}

// KmThresholds returns a copy of the kilometers threshold table.
func KmThresholds() []Threshold {
	return append([]Threshold(nil), kmThresholds...)
}

// ClassifyBonus maps a bonus percentage to its tier.
func ClassifyBonus(percentage float64) Tier {
	return classify(bonusThresholds, percentage)
}

// ClassifyKm maps a kilometers percentage to its tier.
func ClassifyKm(percentage float64) Tier {
	return classify(kmThresholds, percentage)
}

// classify returns the first tier whose range holds p, evaluated in declaration order.
func classify(table []Threshold, p float64) Tier {
	for _, t := range table {
		if p >= t.Min && p < t.Max {
			return t.Tier
		}
	}
	return TierTallerConciencia
}

// combination is indexed [bonus][km].
var combination = map[Tier]map[Tier]Tier{
	TierOro: {
		TierOro:              TierOro,
		TierPlata:            TierPlata,
		TierBronce:           TierPlata,
		TierMejorar:          TierBronce,
		TierTallerConciencia: TierBronce,
	},
	TierPlata: {
		TierOro:              TierPlata,
		TierPlata:            TierPlata,
		TierBronce:           TierBronce,
		TierMejorar:          TierBronce,
		TierTallerConciencia: TierBronce,
	},
	TierBronce: {
		TierOro:              TierPlata,
		TierPlata:            TierPlata,
		TierBronce:           TierBronce,
		TierMejorar:          TierBronce,
		TierTallerConciencia: TierBronce,
	},
	TierMejorar: {
		TierOro:              TierMejorar,
		TierPlata:            TierMejorar,
		TierBronce:           TierMejorar,
		TierMejorar:          TierMejorar,
		TierTallerConciencia: TierTallerConciencia,
	},
	TierTallerConciencia: {
		TierOro:              TierTallerConciencia,
		TierPlata:            TierTallerConciencia,
		TierBronce:           TierTallerConciencia,
		TierMejorar:          TierTallerConciencia,
		TierTallerConciencia: TierTallerConciencia,
	},
}

// Combine returns the final category for a bonus tier and a km tier.
// Pairs outside the table resolve to Taller Conciencia.
func Combine(bonus, km Tier) Tier {
	row, ok := combination[bonus]
	if !ok {
		return TierTallerConciencia
	}
	final, ok := row[km]
	if !ok {
		return TierTallerConciencia
	}
	return final
}

