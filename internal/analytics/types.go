package analytics

// Keys under which aggregates are cached.
const (
	KeyOverview                = "overview"
	KeyCategoryAnalytics       = "category_analytics"
	KeyAgencyAnalytics         = "agency_analytics"
	KeyTemporalTrends          = "temporal_trends"
	KeyWorkforceAnalytics      = "workforce_analytics"
	KeySkillsAnalytics         = "skills_analytics"
	KeyCompetitiveIntelligence = "competitive_intelligence"
)

// Keys returns every precomputed key in computation order.
func Keys() []string {
	return []string{
		KeyOverview,
		KeyCategoryAnalytics,
		KeyAgencyAnalytics,
		KeyTemporalTrends,
		KeyWorkforceAnalytics,
		KeySkillsAnalytics,
		KeyCompetitiveIntelligence,
	}
}

// IsKey reports whether key is one of Keys.
func IsKey(key string) bool {
	for _, k := range Keys() {
		if k == key {
			return true
		}
	}
	return false
}

type Overview struct {
	TotalPostings  int             `json:"totalPostings"`
	Agencies       int             `json:"agencies"`
	Countries      int             `json:"countries"`
	ActivePostings int             `json:"activePostings"`
	MeanConfidence float64         `json:"meanConfidence"`
	TopCategories  []CategoryShare `json:"topCategories"`
}

type CategoryShare struct {
	Category   string  `json:"category"`
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type CategoryAnalytics struct {
	Categories []CategoryStat `json:"categories"`
}

type CategoryStat struct {
	Category       string  `json:"category"`
	Name           string  `json:"name"`
	Total          int     `json:"total"`
	MeanConfidence float64 `json:"meanConfidence"`
	Agencies       int     `json:"agencies"`
	Countries      int     `json:"countries"`
}

type AgencyAnalytics struct {
	Agencies []AgencyShare `json:"agencies"`
}

// AgencyShare is one agency's volume. MarketShare is a percentage of all
// postings carrying an agency.
type AgencyShare struct {
	Agency      string  `json:"agency"`
	Total       int     `json:"total"`
	MarketShare float64 `json:"marketShare"`
	Categories  int     `json:"categories"`
	Countries   int     `json:"countries"`
}

type TemporalTrends struct {
	From   string       `json:"from"`
	To     string       `json:"to"`
	Months []MonthCount `json:"months"`
}

type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

type WorkforceAnalytics struct {
	Grades    []Share `json:"grades"`
	Seniority []Share `json:"seniority"`
}

type SkillsAnalytics struct {
	Labels []Share `json:"labels"`
}

// Share is a histogram bucket with its percentage of the bucket total.
type Share struct {
	Key        string  `json:"key"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type CompetitiveIntelligence struct {
	Agencies      []AgencyShare `json:"agencies"`
	HHI           float64       `json:"hhi"`
	Concentration string        `json:"concentration"`
	Top3Share     float64       `json:"top3Share"`
	Top5Share     float64       `json:"top5Share"`
	Top10Share    float64       `json:"top10Share"`
}
