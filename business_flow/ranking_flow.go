package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/amirphl/operator-ranking/app/dto"
	"github.com/amirphl/operator-ranking/config"
	"github.com/amirphl/operator-ranking/ranking"
	"github.com/amirphl/operator-ranking/reconciliation"
	"github.com/amirphl/operator-ranking/utils"
	"github.com/redis/go-redis/v9"
	"github.com/xuri/excelize/v2"
)

// RankingFlow serves the dashboard reads
type RankingFlow interface {
	GetRanking(ctx context.Context, req *dto.RankingQuery) (*dto.RankingResponse, error)
	GetOperatorSummary(ctx context.Context, code string, req *dto.RankingQuery) (*dto.OperatorSummaryResponse, error)
	ListDeductionRules(ctx context.Context) (*dto.DeductionRulesResponse, error)
	ExportRanking(ctx context.Context, req *dto.RankingQuery) (string, []byte, error)
	// Warm recomputes the global and latest-month rankings into the cache.
	Warm(ctx context.Context) error
	InvalidateCache(ctx context.Context) error
}

// RankingFlowImpl ranks through the engine and caches non-demo results in redis
type RankingFlowImpl struct {
	engine      *ranking.Engine
	rc          *redis.Client
	cacheConfig *config.CacheConfig
}

// NewRankingFlow creates a ranking flow. rc may be nil, which disables caching.
func NewRankingFlow(engine *ranking.Engine, rc *redis.Client, cacheConfig *config.CacheConfig) RankingFlow {
	if cacheConfig == nil || !cacheConfig.Enabled {
		rc = nil
	}
	return &RankingFlowImpl{
		engine:      engine,
		rc:          rc,
		cacheConfig: cacheConfig,
	}
}

func parsePeriod(req *dto.RankingQuery) (ranking.Period, error) {
	if req == nil {
		return ranking.Global(), nil
	}
	p, err := ranking.ParsePeriod(req.Year, req.Month)
	if err != nil {
		return ranking.Period{}, NewBusinessError("INVALID_PERIOD", "Invalid ranking period", fmt.Errorf("%w: %v", ErrInvalidPeriod, err))
	}
	return p, nil
}

func (f *RankingFlowImpl) cacheKey(p ranking.Period) string {
	return redisKey(*f.cacheConfig, utils.RankingCacheKeyPrefix+p.Key())
}

func (f *RankingFlowImpl) cacheTTL() time.Duration {
	if f.cacheConfig.RankingTTL > 0 {
		return f.cacheConfig.RankingTTL
	}
	return f.cacheConfig.DefaultTTL
}

func (f *RankingFlowImpl) GetRanking(ctx context.Context, req *dto.RankingQuery) (*dto.RankingResponse, error) {
	period, err := parsePeriod(req)
	if err != nil {
		return nil, err
	}

	// try redis first
	if f.rc != nil {
		if bs, err := f.rc.Get(ctx, f.cacheKey(period)).Bytes(); err == nil && len(bs) > 0 {
			var cached dto.RankingResponse
			if err := json.Unmarshal(bs, &cached); err == nil {
				rankingCacheLookups.WithLabelValues("hit").Inc()
				cached.Cached = true
				return &cached, nil
			}
		}
		rankingCacheLookups.WithLabelValues("miss").Inc()
	}

	return f.compute(ctx, period)
}

// compute ranks the period and stores real (non-demo) results in the cache.
func (f *RankingFlowImpl) compute(ctx context.Context, period ranking.Period) (*dto.RankingResponse, error) {
	start := time.Now()
	res, err := f.engine.Rank(ctx, period)
	if err != nil {
		if ranking.IsDataUnavailable(err) {
			return nil, NewBusinessError("DATA_UNAVAILABLE", "Ranking data unavailable", fmt.Errorf("%w: %v", ErrStoreNotAvailable, err))
		}
		return nil, NewBusinessError("RANKING_FAILED", "Failed to compute ranking", err)
	}

	source := "store"
	if res.IsDemoData {
		source = "demo"
		rankingFallbacks.Inc()
		log.Printf("Ranking served from demo data (request_id=%s): %s", utils.RequestIDFromContext(ctx), res.FallbackReason)
	}
	rankingComputeDuration.WithLabelValues(string(period.Kind), source).Observe(time.Since(start).Seconds())

	resp := ToRankingResponse(res)
	if f.rc != nil && !res.IsDemoData {
		if bs, err := json.Marshal(resp); err == nil {
			_ = f.rc.Set(ctx, f.cacheKey(period), bs, f.cacheTTL()).Err()
		}
	}
	return resp, nil
}

func (f *RankingFlowImpl) GetOperatorSummary(ctx context.Context, code string, req *dto.RankingQuery) (*dto.OperatorSummaryResponse, error) {
	period, err := parsePeriod(req)
	if err != nil {
		return nil, err
	}

	sum, err := f.engine.Summarize(ctx, code, period)
	if ranking.IsOperatorNotFound(err) {
		if normalized := reconciliation.NormalizeCode(code); normalized != "" && normalized != code {
			sum, err = f.engine.Summarize(ctx, normalized, period)
		}
	}
	if err != nil {
		if ranking.IsOperatorNotFound(err) {
			return nil, NewBusinessErrorf("OPERATOR_NOT_FOUND", "Operator %s not found", fmt.Errorf("%w: %v", ErrOperatorNotFound, err), code)
		}
		if ranking.IsDataUnavailable(err) {
			return nil, NewBusinessError("DATA_UNAVAILABLE", "Operator data unavailable", fmt.Errorf("%w: %v", ErrStoreNotAvailable, err))
		}
		return nil, NewBusinessError("OPERATOR_SUMMARY_FAILED", "Failed to summarize operator", err)
	}
	return ToOperatorSummaryResponse(sum), nil
}

func (f *RankingFlowImpl) ListDeductionRules(ctx context.Context) (*dto.DeductionRulesResponse, error) {
	dailyRate := f.engine.Config().DailyRate
	rules := ranking.DeductionRules()
	out := &dto.DeductionRulesResponse{
		Rules:     make([]dto.DeductionRuleDTO, 0, len(rules)),
		DailyRate: dailyRate,
	}
	for _, r := range rules {
		out.Rules = append(out.Rules, ToDeductionRuleDTO(r, dailyRate))
	}
	return out, nil
}

var exportHeader = []string{
	"Puesto", "Código", "Nombre", "Zona", "Padrino",
	"% Bono", "Bono Total", "% Km", "Km Ejecutado", "Km Programado",
	"Eficiencia", "Categoría Final",
}

// ExportRanking renders the period ranking as a single-sheet workbook.
func (f *RankingFlowImpl) ExportRanking(ctx context.Context, req *dto.RankingQuery) (string, []byte, error) {
	resp, err := f.GetRanking(ctx, req)
	if err != nil {
		return "", nil, err
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	const sheet = "Ranking"
	if err := xl.SetSheetName(xl.GetSheetName(0), sheet); err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to prepare worksheet", err)
	}
	header := append([]string(nil), exportHeader...)
	_ = xl.SetSheetRow(sheet, "A1", &header)

	for i, op := range resp.Operators {
		row := []any{
			op.Rank,
			op.Operator.Code,
			op.Operator.Name,
			op.Operator.Zone,
			op.Operator.Sponsor,
			op.Bonus.Percentage,
			op.Bonus.Total,
			op.Km.Percentage,
			op.Km.Executed,
			op.Km.Programmed,
			op.Efficiency,
			op.Category,
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = xl.SetSheetRow(sheet, cellRef, &row)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	return exportFilename(resp), buf.Bytes(), nil
}

func exportFilename(resp *dto.RankingResponse) string {
	name := "ranking"
	if resp.Period.Year > 0 {
		name += "_" + strconv.Itoa(resp.Period.Year)
	}
	if resp.Period.Month > 0 {
		name += fmt.Sprintf("_%02d", resp.Period.Month)
	}
	if resp.IsDemoData {
		name += "_demo"
	}
	return name + ".xlsx"
}

func (f *RankingFlowImpl) Warm(ctx context.Context) error {
	global, err := f.compute(ctx, ranking.Global())
	if err != nil {
		return err
	}
	if global.IsDemoData {
		return nil
	}
	md := global.Metadata
	if md.LatestYear == 0 || md.LatestMonth == 0 {
		return nil
	}
	_, err = f.compute(ctx, ranking.ForMonth(md.LatestYear, md.LatestMonth))
	return err
}

func (f *RankingFlowImpl) InvalidateCache(ctx context.Context) error {
	if f.rc == nil {
		return nil
	}
	n, err := deleteByPattern(ctx, f.rc, redisKey(*f.cacheConfig, utils.RankingCacheKeyPrefix)+"*")
	if err != nil {
		return NewBusinessError("CACHE_INVALIDATION_FAILED", "Failed to invalidate ranking cache", err)
	}
	if n > 0 {
		log.Printf("Invalidated %d cached rankings", n)
	}
	return nil
}
