package ranking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// ControlVariableQuery narrows the control variables fetched from a RecordSource.
// Sources should push Period down into their query; the engine filters again in memory.
type ControlVariableQuery struct {
	OperatorCode *string
	Period       Period
}

// IncidentQuery narrows the incidents fetched from a RecordSource.
type IncidentQuery struct {
	OperatorCode *string
	Since        *time.Time
}

// RecordSource is the read side the engine ranks from.
type RecordSource interface {
	ControlVariables(ctx context.Context, q ControlVariableQuery) ([]ControlVariableRecord, error)
	Incidents(ctx context.Context, q IncidentQuery) ([]IncidentRecord, error)
	OperatorIdentities(ctx context.Context) ([]OperatorIdentity, error)
	// LatestRecordDates maps each operator code to its most recent bonus or km record date.
	LatestRecordDates(ctx context.Context) (map[string]time.Time, error)
}

// RecordSink receives attribute changes committed by an upload.
type RecordSink interface {
	UpsertOperatorAttribute(ctx context.Context, code, attribute, value string) error
}

// Config tunes the engine arithmetic and degradation policy.
type Config struct {
	DailyRate        int64
	LookbackMonths   int
	DefaultBaseBonus int64
	DemoFallback     bool
}

// DefaultConfig returns the production values.
func DefaultConfig() Config {
	return Config{
		DailyRate:        DailyRate,
		LookbackMonths:   6,
		DefaultBaseBonus: DefaultBaseBonus,
		DemoFallback:     true,
	}
}

// OperatorRanking is one row of a ranking.
type OperatorRanking struct {
	Identity   OperatorIdentity
	Bonus      BonusResult
	Km         KmResult
	Efficiency int
	Category   Tier
	Rank       int
}

// Metadata drives the period selector of the dashboard.
type Metadata struct {
	AvailableYears []int
	LatestYear     int
	LatestMonth    int
}

// Result is a complete ranking for one period.
type Result struct {
	Period         Period
	Operators      []OperatorRanking
	Metadata       Metadata
	IsDemoData     bool
	FallbackReason string
	Message        string
	GeneratedAt    time.Time
}

// Engine ranks operators from a RecordSource, degrading to demo data when the source cannot answer.
type Engine struct {
	source RecordSource
	demo   RecordSource
	cfg    Config
	now    func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithDemoSource replaces the bundled demo dataset.
func WithDemoSource(src RecordSource) Option {
	return func(e *Engine) { e.demo = src }
}

// NewEngine builds an engine. A nil source makes every request fall back to demo data.
func NewEngine(source RecordSource, cfg Config, opts ...Option) *Engine {
	def := DefaultConfig()
	if cfg.DailyRate <= 0 {
		cfg.DailyRate = def.DailyRate
	}
	if cfg.LookbackMonths <= 0 {
		cfg.LookbackMonths = def.LookbackMonths
	}
	if cfg.DefaultBaseBonus <= 0 {
		cfg.DefaultBaseBonus = def.DefaultBaseBonus
	}
	e := &Engine{source: source, cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	if e.demo == nil {
		e.demo = NewDemoSource(e.now())
	}
	return e
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Now exposes the engine clock in UTC.
func (e *Engine) Now() time.Time { return e.now().UTC() }

// IncidentsSince is the start of the incident lookback relative to the engine clock.
func (e *Engine) IncidentsSince() time.Time {
	return e.Now().AddDate(0, -e.cfg.LookbackMonths, 0)
}

// Rank computes the ranking for a period.
// Source failures fall back to demo data unless the fallback is disabled.
func (e *Engine) Rank(ctx context.Context, period Period) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if e.source == nil {
		return e.fallback(ctx, fmt.Errorf("%w: record source not configured", ErrDataUnavailable))
	}

	res, err := e.rank(ctx, e.source, period)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return e.fallback(ctx, err)
	}
	return res, nil
}

func (e *Engine) fallback(ctx context.Context, cause error) (*Result, error) {
	if !errors.Is(cause, ErrDataUnavailable) {
		cause = fmt.Errorf("%w: %v", ErrDataUnavailable, cause)
	}
	if !e.cfg.DemoFallback {
		return nil, cause
	}
	res, err := e.rank(ctx, e.demo, Global())
	if err != nil {
		return nil, fmt.Errorf("failed to rank demo data: %w", err)
	}
	res.IsDemoData = true
	res.FallbackReason = cause.Error()
	return res, nil
}

func (e *Engine) rank(ctx context.Context, src RecordSource, period Period) (*Result, error) {
	identities, err := src.OperatorIdentities(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load operators: %v", ErrDataUnavailable, err)
	}
	if len(identities) == 0 {
		return nil, fmt.Errorf("%w: no operators", ErrDataUnavailable)
	}

	records, err := src.ControlVariables(ctx, ControlVariableQuery{Period: period})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load control variables: %v", ErrDataUnavailable, err)
	}

	since := e.IncidentsSince()
	incidents, err := src.Incidents(ctx, IncidentQuery{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load incidents: %v", ErrDataUnavailable, err)
	}

	latest, err := src.LatestRecordDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load record dates: %v", ErrDataUnavailable, err)
	}

	recordsByCode := make(map[string][]ControlVariableRecord, len(identities))
	for _, r := range records {
		recordsByCode[r.OperatorCode] = append(recordsByCode[r.OperatorCode], r)
	}
	incidentsByCode := make(map[string][]IncidentRecord, len(identities))
	for _, inc := range incidents {
		incidentsByCode[inc.OperatorCode] = append(incidentsByCode[inc.OperatorCode], inc)
	}

	opts := e.aggregateOptions(period)
	rows := make([]OperatorRanking, 0, len(identities))
	for _, id := range identities {
		row, ok := e.evaluate(id, recordsByCode[id.Code], incidentsByCode[id.Code], opts)
		if !ok {
			continue
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Efficiency > rows[j].Efficiency
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}

	res := &Result{
		Period:      period,
		Operators:   rows,
		Metadata:    e.metadata(latest),
		GeneratedAt: e.Now(),
	}
	if len(rows) == 0 {
		res.Message = NoDataMessage
	}
	return res, nil
}

func (e *Engine) aggregateOptions(period Period) AggregateOptions {
	return AggregateOptions{
		Period:         period,
		DailyRate:      e.cfg.DailyRate,
		DefaultBase:    e.cfg.DefaultBaseBonus,
		IncidentsSince: e.IncidentsSince(),
		Today:          e.Now(),
	}
}

// evaluate reports false when the operator has no km data for a bounded period.
func (e *Engine) evaluate(id OperatorIdentity, records []ControlVariableRecord, incidents []IncidentRecord, opts AggregateOptions) (OperatorRanking, bool) {
	km, err := AggregateKm(records, opts.Period)
	if err != nil {
		return OperatorRanking{}, false
	}
	bonus := AggregateBonus(records, incidents, opts)
	return OperatorRanking{
		Identity:   id,
		Bonus:      bonus,
		Km:         km,
		Efficiency: Efficiency(bonus.Percentage, km.Percentage),
		Category:   Combine(bonus.Category, km.Category),
	}, true
}

func (e *Engine) metadata(latest map[string]time.Time) Metadata {
	var newest time.Time
	seen := make(map[int]struct{})
	years := make([]int, 0)
	for _, d := range latest {
		if d.IsZero() {
			continue
		}
		d = d.UTC()
		if d.After(newest) {
			newest = d
		}
		if _, ok := seen[d.Year()]; !ok {
			seen[d.Year()] = struct{}{}
			years = append(years, d.Year())
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	if newest.IsZero() {
		newest = e.Now()
	}
	return Metadata{
		AvailableYears: years,
		LatestYear:     newest.Year(),
		LatestMonth:    int(newest.Month()),
	}
}

// IncidentMonth describes the month of an operator's most recent incident.
type IncidentMonth struct {
	Year      int
	Month     int
	MonthName string
	BaseBonus int64
}

// OperatorSummary is the detailed breakdown of one operator for a period.
type OperatorSummary struct {
	Period            Period
	Identity          OperatorIdentity
	Bonus             BonusResult
	Km                *KmResult
	Efficiency        *int
	Category          *Tier
	ExpiresInDays     *int
	LastIncidentMonth *IncidentMonth
	YearlyBase        []YearBase
	IsDemoData        bool
	FallbackReason    string
}

// incidentExpiry is how long an incident keeps weighing on the operator after it starts.
const incidentExpiry = 14 * 24 * time.Hour

// Summarize builds the breakdown of a single operator.
// The km part is nil when the operator has no km data for a bounded period.
func (e *Engine) Summarize(ctx context.Context, code string, period Period) (*OperatorSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, demo := e.source, false
	var reason string
	if src == nil {
		src, demo, reason = e.demo, true, "record source not configured"
	}

	sum, err := e.summarize(ctx, src, code, period)
	if err != nil && !demo && !IsOperatorNotFound(err) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if !e.cfg.DemoFallback {
			return nil, err
		}
		reason = err.Error()
		demo = true
		sum, err = e.summarize(ctx, e.demo, code, Global())
	}
	if err != nil {
		return nil, err
	}
	sum.IsDemoData = demo
	sum.FallbackReason = reason
	return sum, nil
}

func (e *Engine) summarize(ctx context.Context, src RecordSource, code string, period Period) (*OperatorSummary, error) {
	identities, err := src.OperatorIdentities(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load operators: %v", ErrDataUnavailable, err)
	}
	var identity *OperatorIdentity
	for i := range identities {
		if identities[i].Code == code {
			identity = &identities[i]
			break
		}
	}
	if identity == nil {
		return nil, fmt.Errorf("%w: %s", ErrOperatorNotFound, code)
	}

	records, err := src.ControlVariables(ctx, ControlVariableQuery{OperatorCode: &code, Period: period})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load control variables: %v", ErrDataUnavailable, err)
	}
	since := e.IncidentsSince()
	incidents, err := src.Incidents(ctx, IncidentQuery{OperatorCode: &code, Since: &since})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load incidents: %v", ErrDataUnavailable, err)
	}
	records = filterRecords(records, code)
	incidents = filterIncidents(incidents, code)

	opts := e.aggregateOptions(period)
	sum := &OperatorSummary{
		Period:     period,
		Identity:   *identity,
		Bonus:      AggregateBonus(records, incidents, opts),
		YearlyBase: YearlyBaseBonuses(),
	}
	if km, err := AggregateKm(records, period); err == nil {
		eff := Efficiency(sum.Bonus.Percentage, km.Percentage)
		cat := Combine(sum.Bonus.Category, km.Category)
		sum.Km, sum.Efficiency, sum.Category = &km, &eff, &cat
	}

	if last := latestIncident(incidents, opts.IncidentsSince); last != nil {
		start := last.WindowStart.UTC()
		remaining := int(math.Ceil(start.Add(incidentExpiry).Sub(e.Now()).Hours() / 24))
		if remaining < 0 {
			remaining = 0
		}
		sum.ExpiresInDays = &remaining
		sum.LastIncidentMonth = &IncidentMonth{
			Year:      start.Year(),
			Month:     int(start.Month()),
			MonthName: MonthName(int(start.Month())),
			BaseBonus: BaseBonusForYear(start.Year()),
		}
	}
	return sum, nil
}

func latestIncident(incidents []IncidentRecord, since time.Time) *IncidentRecord {
	var last *IncidentRecord
	for i := range incidents {
		inc := &incidents[i]
		if inc.WindowStart.Before(since) {
			continue
		}
		if last == nil || inc.WindowStart.After(last.WindowStart) {
			last = inc
		}
	}
	return last
}

func filterRecords(records []ControlVariableRecord, code string) []ControlVariableRecord {
	out := records[:0:0]
	for _, r := range records {
		if r.OperatorCode == code {
			out = append(out, r)
		}
	}
	return out
}

func filterIncidents(incidents []IncidentRecord, code string) []IncidentRecord {
	out := incidents[:0:0]
	for _, inc := range incidents {
		if inc.OperatorCode == code {
			out = append(out, inc)
		}
	}
	return out
}
