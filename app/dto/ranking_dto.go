package dto

// RankingQuery selects the ranking period. Both empty means all history.
type RankingQuery struct {
	Year  string `query:"year" validate:"omitempty,numeric,len=4"`
	Month string `query:"month" validate:"omitempty,numeric,min=1,max=2"`
}

type PeriodDTO struct {
	Kind  string `json:"kind" example:"month"`
	Year  int    `json:"year,omitempty" example:"2024"`
	Month int    `json:"month,omitempty" example:"3"`
	Label string `json:"label" example:"Marzo 2024"`
}

type BonusDTO struct {
	Percentage            float64 `json:"percentage" example:"75"`
	PerformancePercentage float64 `json:"performance_percentage" example:"75"`
	BasePercentage        float64 `json:"base_percentage" example:"90"`
	Executed              float64 `json:"executed" example:"900"`
	Programmed            float64 `json:"programmed" example:"1000"`
	Base                  float64 `json:"base" example:"900"`
	Deduction             float64 `json:"deduction" example:"225"`
	Total                 float64 `json:"total" example:"675"`
	Category              string  `json:"category" example:"Mejorar"`
	HasRecords            bool    `json:"has_records"`
	LatestDate            *string `json:"latest_date,omitempty" example:"2024-03-31"`
}

type KmDTO struct {
	Percentage float64 `json:"percentage" example:"94"`
	Executed   float64 `json:"executed" example:"94"`
	Programmed float64 `json:"programmed" example:"100"`
	Category   string  `json:"category" example:"Oro"`
	HasRecords bool    `json:"has_records"`
	LatestDate *string `json:"latest_date,omitempty" example:"2024-03-31"`
}

type OperatorDTO struct {
	Code       string  `json:"code" example:"0101"`
	Name       string  `json:"name" example:"Ana Pérez"`
	NationalID string  `json:"national_id,omitempty"`
	Position   string  `json:"position,omitempty"`
	Phone      string  `json:"phone,omitempty"`
	JoinDate   *string `json:"join_date,omitempty" example:"2020-02-01"`
	Zone       string  `json:"zone,omitempty" example:"NORTE"`
	Sponsor    string  `json:"sponsor,omitempty" example:"LUISA PARRA"`
	Task       string  `json:"task,omitempty"`
}

type OperatorRankingDTO struct {
	Rank       int         `json:"rank" example:"1"`
	Operator   OperatorDTO `json:"operator"`
	Bonus      BonusDTO    `json:"bonus"`
	Km         KmDTO       `json:"km"`
	Efficiency int         `json:"efficiency" example:"85"`
	Category   string      `json:"category" example:"Mejorar"`
}

type RankingMetadataDTO struct {
	AvailableYears []int `json:"available_years" example:"2023,2024"`
	LatestYear     int   `json:"latest_year,omitempty" example:"2024"`
	LatestMonth    int   `json:"latest_month,omitempty" example:"3"`
}

type RankingResponse struct {
	Period         PeriodDTO            `json:"period"`
	Operators      []OperatorRankingDTO `json:"operators"`
	Metadata       RankingMetadataDTO   `json:"metadata"`
	CategoryCounts map[string]int       `json:"category_counts"`
	Total          int                  `json:"total" example:"42"`
	IsDemoData     bool                 `json:"is_demo_data"`
	FallbackReason string               `json:"fallback_reason,omitempty"`
	Message        string               `json:"message,omitempty"`
	GeneratedAt    string               `json:"generated_at" example:"2024-04-01T10:30:00Z"`
	Cached         bool                 `json:"cached"`
}

type DeductionRuleDTO struct {
	Code               string `json:"code" example:"5"`
	Cause              string `json:"cause" example:"Llegada tarde"`
	Kind               string `json:"kind" example:"percent"`
	Percent            int64  `json:"percent,omitempty" example:"25"`
	DailyRate          int64  `json:"daily_rate,omitempty" example:"4733"`
	AffectsPerformance bool   `json:"affects_performance"`
}

type DeductionRulesResponse struct {
	Rules     []DeductionRuleDTO `json:"rules"`
	DailyRate int64              `json:"daily_rate" example:"4733"`
}

type DeductionDTO struct {
	FactorCode         string  `json:"factor_code" example:"5"`
	Cause              string  `json:"cause"`
	Kind               string  `json:"kind,omitempty"`
	Percent            int64   `json:"percent,omitempty"`
	Days               int     `json:"days" example:"1"`
	Amount             float64 `json:"amount" example:"225"`
	StartDate          string  `json:"start_date" example:"2024-03-01"`
	EndDate            *string `json:"end_date,omitempty" example:"2024-03-01"`
	AffectsPerformance bool    `json:"affects_performance"`
	Observation        string  `json:"observation,omitempty"`
}

type IncidentMonthDTO struct {
	Year      int    `json:"year" example:"2024"`
	Month     int    `json:"month" example:"3"`
	MonthName string `json:"month_name" example:"Marzo"`
	BaseBonus int64  `json:"base_bonus" example:"135000"`
}

type YearBaseDTO struct {
	Year  int   `json:"year" example:"2025"`
	Bonus int64 `json:"bonus" example:"142000"`
}

type OperatorSummaryResponse struct {
	Period            PeriodDTO         `json:"period"`
	Operator          OperatorDTO       `json:"operator"`
	Bonus             BonusDTO          `json:"bonus"`
	Deductions        []DeductionDTO    `json:"deductions"`
	UnknownFactors    []string          `json:"unknown_factors,omitempty"`
	Km                *KmDTO            `json:"km"`
	Efficiency        *int              `json:"efficiency"`
	Category          *string           `json:"category"`
	ExpiresInDays     *int              `json:"expires_in_days"`
	LastIncidentMonth *IncidentMonthDTO `json:"last_incident_month"`
	YearlyBase        []YearBaseDTO     `json:"yearly_base"`
	IsDemoData        bool              `json:"is_demo_data"`
	FallbackReason    string            `json:"fallback_reason,omitempty"`
}
