package syncer

import (
	"math"
	"strings"
	"time"

	"github.com/amishk599/jobatlas/internal/model"
)

// Thresholds for status and urgency, in days remaining.
const (
	closingSoonDays = 3
	urgentDays      = 7
	normalDays      = 30
)

// DefaultHQCountries lists the countries hosting headquarters duty stations.
var DefaultHQCountries = []string{
	"United States", "United States of America", "USA",
	"Switzerland", "Austria", "Italy", "France", "Kenya",
	"Denmark", "Netherlands", "Germany", "Belgium", "Spain",
	"Canada", "Japan",
}

// lifecycle holds the date-derived fields of one posting.
type lifecycle struct {
	daysRemaining int
	isExpired     bool
	isActive      bool
	status        string
	urgency       string
	windowDays    int
}

// ceilDays returns ceil((to-from)/24h).
func ceilDays(from, to time.Time) int {
	return int(math.Ceil(to.Sub(from).Hours() / 24))
}

// deriveLifecycle computes status fields from the raw dates as of now.
// A missing deadline counts as zero days remaining.
func deriveLifecycle(p model.Posting, now time.Time) lifecycle {
	var l lifecycle
	if p.ApplyUntil != nil {
		l.daysRemaining = ceilDays(now, *p.ApplyUntil)
		if p.PostingDate != nil {
			l.windowDays = ceilDays(*p.PostingDate, *p.ApplyUntil)
		}
	}

	l.isExpired = p.Archived || l.daysRemaining < 0
	l.isActive = !l.isExpired && l.daysRemaining >= 0

	switch {
	case p.Archived:
		l.status = model.StatusArchived
	case l.daysRemaining < 0:
		l.status = model.StatusExpired
	case l.daysRemaining <= closingSoonDays:
		l.status = model.StatusClosingSoon
	default:
		l.status = model.StatusActive
	}

	switch {
	case l.daysRemaining < urgentDays:
		l.urgency = model.UrgencyUrgent
	case l.daysRemaining <= normalDays:
		l.urgency = model.UrgencyNormal
	default:
		l.urgency = model.UrgencyExtended
	}
	return l
}

// locationClassifier decides HQ/Field/Remote. Remote beats HQ beats Field.
type locationClassifier struct {
	hq map[string]struct{}
}

func newLocationClassifier(countries []string) locationClassifier {
	hq := make(map[string]struct{}, len(countries))
	for _, c := range countries {
		hq[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}
	return locationClassifier{hq: hq}
}

func (lc locationClassifier) classify(station, country string) string {
	s := strings.ToLower(station)
	if strings.Contains(s, "home") || strings.Contains(s, "remote") {
		return model.LocationRemote
	}
	if _, ok := lc.hq[strings.ToLower(strings.TrimSpace(country))]; ok {
		return model.LocationHQ
	}
	return model.LocationField
}

// dedupe keeps, for every natural key, the posting with the highest id and
// returns the survivors ordered by id.
func dedupe(postings []model.Posting) []model.Posting {
	byKey := make(map[string]int, len(postings))
	out := make([]model.Posting, 0, len(postings))
	for _, p := range postings {
		key := p.NaturalKey()
		if i, ok := byKey[key]; ok {
			if p.ID > out[i].ID {
				out[i] = p
			}
			continue
		}
		byKey[key] = len(out)
		out = append(out, p)
	}
	sortByID(out)
	return out
}
