package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/amishk599/jobatlas/internal/model"
	"github.com/amishk599/jobatlas/internal/store"
)

const (
	topCategories = 10
	topLabels     = 50
	trendMonths   = 12
)

// HHI bands on the [0,1] scale.
const (
	moderateHHI = 0.15
	highHHI     = 0.25
)

// Aggregates is the read side of the cache the aggregates are built from.
type Aggregates interface {
	Overview(ctx context.Context) (store.Overview, error)
	CategoryStats(ctx context.Context) ([]store.CategoryStat, error)
	AgencyStats(ctx context.Context) ([]store.AgencyStat, error)
	MonthlyCounts(ctx context.Context, since time.Time) ([]store.Bucket, error)
	GradeDistribution(ctx context.Context) ([]store.Bucket, error)
	SeniorityDistribution(ctx context.Context) ([]store.Bucket, error)
	TopLabels(ctx context.Context, limit int) ([]store.Bucket, error)
}

// Namer resolves category ids to display names.
type Namer interface {
	Name(id string) string
}

// Computer builds aggregates live from the cache.
type Computer struct {
	agg   Aggregates
	names Namer
	now   func() time.Time
}

// NewComputer returns a Computer. names may be nil, in which case category
// ids double as names.
func NewComputer(agg Aggregates, names Namer) *Computer {
	return &Computer{agg: agg, names: names, now: time.Now}
}

// Compute returns the aggregate for key.
func (c *Computer) Compute(ctx context.Context, key string) (any, error) {
	switch key {
	case KeyOverview:
		return c.overview(ctx)
	case KeyCategoryAnalytics:
		return c.categories(ctx)
	case KeyAgencyAnalytics:
		return c.agencies(ctx)
	case KeyTemporalTrends:
		return c.temporal(ctx)
	case KeyWorkforceAnalytics:
		return c.workforce(ctx)
	case KeySkillsAnalytics:
		return c.skills(ctx)
	case KeyCompetitiveIntelligence:
		return c.competitive(ctx)
	}
	return nil, fmt.Errorf("%w: %q", model.ErrUnknownAnalyticsKey, key)
}

func (c *Computer) name(id string) string {
	if c.names == nil {
		return id
	}
	return c.names.Name(id)
}

func (c *Computer) overview(ctx context.Context) (Overview, error) {
	o, err := c.agg.Overview(ctx)
	if err != nil {
		return Overview{}, err
	}
	cats, err := c.agg.CategoryStats(ctx)
	if err != nil {
		return Overview{}, err
	}

	top := make([]CategoryShare, 0, min(len(cats), topCategories))
	for _, cat := range cats[:min(len(cats), topCategories)] {
		top = append(top, CategoryShare{
			Category:   cat.Category,
			Name:       c.name(cat.Category),
			Count:      cat.Total,
			Percentage: percent(cat.Total, o.Total),
		})
	}
	return Overview{
		TotalPostings:  o.Total,
		Agencies:       o.Agencies,
		Countries:      o.Countries,
		ActivePostings: o.Active,
		MeanConfidence: round2(o.MeanConfidence),
		TopCategories:  top,
	}, nil
}

func (c *Computer) categories(ctx context.Context) (CategoryAnalytics, error) {
	cats, err := c.agg.CategoryStats(ctx)
	if err != nil {
		return CategoryAnalytics{}, err
	}
	out := CategoryAnalytics{Categories: make([]CategoryStat, 0, len(cats))}
	for _, cat := range cats {
		out.Categories = append(out.Categories, CategoryStat{
			Category:       cat.Category,
			Name:           c.name(cat.Category),
			Total:          cat.Total,
			MeanConfidence: round2(cat.MeanConfidence),
			Agencies:       cat.Agencies,
			Countries:      cat.Countries,
		})
	}
	return out, nil
}

func (c *Computer) agencyShares(ctx context.Context) ([]AgencyShare, []float64, error) {
	stats, err := c.agg.AgencyStats(ctx)
	if err != nil {
		return nil, nil, err
	}
	totals := make([]float64, len(stats))
	for i, a := range stats {
		totals[i] = float64(a.Total)
	}
	sum := floats.Sum(totals)

	fractions := make([]float64, len(stats))
	if sum > 0 {
		floats.ScaleTo(fractions, 1/sum, totals)
	}

	shares := make([]AgencyShare, 0, len(stats))
	for i, a := range stats {
		shares = append(shares, AgencyShare{
			Agency:      a.Agency,
			Total:       a.Total,
			MarketShare: round2(fractions[i] * 100),
			Categories:  a.Categories,
			Countries:   a.Countries,
		})
	}
	return shares, fractions, nil
}

func (c *Computer) agencies(ctx context.Context) (AgencyAnalytics, error) {
	shares, _, err := c.agencyShares(ctx)
	if err != nil {
		return AgencyAnalytics{}, err
	}
	return AgencyAnalytics{Agencies: shares}, nil
}

func (c *Computer) competitive(ctx context.Context) (CompetitiveIntelligence, error) {
	shares, fractions, err := c.agencyShares(ctx)
	if err != nil {
		return CompetitiveIntelligence{}, err
	}

	hhi := 0.0
	var cumulative []float64
	if len(fractions) > 0 {
		hhi = floats.Dot(fractions, fractions)
		cumulative = floats.CumSum(make([]float64, len(fractions)), fractions)
	}
	topN := func(n int) float64 {
		if len(cumulative) == 0 {
			return 0
		}
		return round2(cumulative[min(n, len(cumulative))-1] * 100)
	}

	return CompetitiveIntelligence{
		Agencies:      shares,
		HHI:           math.Round(hhi*10000) / 10000,
		Concentration: concentration(hhi),
		Top3Share:     topN(3),
		Top5Share:     topN(5),
		Top10Share:    topN(10),
	}, nil
}

func concentration(hhi float64) string {
	switch {
	case hhi >= highHHI:
		return "high"
	case hhi >= moderateHHI:
		return "moderate"
	}
	return "low"
}

// temporal reports the trailing twelve calendar months ending with the
// current one. Months without postings are reported as zero.
func (c *Computer) temporal(ctx context.Context) (TemporalTrends, error) {
	now := c.now().UTC()
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	from := current.AddDate(0, -(trendMonths - 1), 0)

	buckets, err := c.agg.MonthlyCounts(ctx, from)
	if err != nil {
		return TemporalTrends{}, err
	}
	counts := make(map[string]int, len(buckets))
	for _, b := range buckets {
		counts[b.Key] = b.Count
	}

	months := make([]MonthCount, 0, trendMonths)
	for m := from; !m.After(current); m = m.AddDate(0, 1, 0) {
		key := m.Format("2006-01")
		months = append(months, MonthCount{Month: key, Count: counts[key]})
	}
	return TemporalTrends{
		From:   from.Format("2006-01"),
		To:     current.Format("2006-01"),
		Months: months,
	}, nil
}

func (c *Computer) workforce(ctx context.Context) (WorkforceAnalytics, error) {
	grades, err := c.agg.GradeDistribution(ctx)
	if err != nil {
		return WorkforceAnalytics{}, err
	}
	seniority, err := c.agg.SeniorityDistribution(ctx)
	if err != nil {
		return WorkforceAnalytics{}, err
	}
	return WorkforceAnalytics{Grades: toShares(grades), Seniority: toShares(seniority)}, nil
}

func (c *Computer) skills(ctx context.Context) (SkillsAnalytics, error) {
	labels, err := c.agg.TopLabels(ctx, topLabels)
	if err != nil {
		return SkillsAnalytics{}, err
	}
	return SkillsAnalytics{Labels: toShares(labels)}, nil
}

func toShares(buckets []store.Bucket) []Share {
	total := 0
	for _, b := range buckets {
		total += b.Count
	}
	out := make([]Share, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, Share{Key: b.Key, Count: b.Count, Percentage: percent(b.Count, total)})
	}
	return out
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round2(float64(part) / float64(whole) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
