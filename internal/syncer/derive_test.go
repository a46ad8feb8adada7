package syncer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/amishk599/jobatlas/internal/model"
)

func TestDeriveLifecycleBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		posting model.Posting
		days    int
		status  string
		urgency string
		active  bool
		expired bool
	}{
		{"three days", model.Posting{ApplyUntil: days(3)}, 3, model.StatusClosingSoon, model.UrgencyUrgent, true, false},
		{"four days", model.Posting{ApplyUntil: days(4)}, 4, model.StatusActive, model.UrgencyUrgent, true, false},
		{"two days", model.Posting{ApplyUntil: days(2)}, 2, model.StatusClosingSoon, model.UrgencyUrgent, true, false},
		{"yesterday", model.Posting{ApplyUntil: days(-1)}, -1, model.StatusExpired, model.UrgencyUrgent, false, true},
		{"seven days", model.Posting{ApplyUntil: days(7)}, 7, model.StatusActive, model.UrgencyNormal, true, false},
		{"thirty days", model.Posting{ApplyUntil: days(30)}, 30, model.StatusActive, model.UrgencyNormal, true, false},
		{"thirty one days", model.Posting{ApplyUntil: days(31)}, 31, model.StatusActive, model.UrgencyExtended, true, false},
		{"archived with future deadline", model.Posting{ApplyUntil: days(20), Archived: true}, 20, model.StatusArchived, model.UrgencyNormal, false, true},
		{"no deadline", model.Posting{}, 0, model.StatusClosingSoon, model.UrgencyUrgent, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := deriveLifecycle(tt.posting, fixedNow)
			assert.Equal(t, tt.days, l.daysRemaining)
			assert.Equal(t, tt.status, l.status)
			assert.Equal(t, tt.urgency, l.urgency)
			assert.Equal(t, tt.active, l.isActive)
			assert.Equal(t, tt.expired, l.isExpired)
		})
	}
}

func TestDaysRemainingRoundsUp(t *testing.T) {
	deadline := fixedNow.Add(36 * time.Hour)
	l := deriveLifecycle(model.Posting{ApplyUntil: &deadline}, fixedNow)
	assert.Equal(t, 2, l.daysRemaining)
}

func TestApplicationWindow(t *testing.T) {
	l := deriveLifecycle(model.Posting{PostingDate: days(-5), ApplyUntil: days(9)}, fixedNow)
	assert.Equal(t, 14, l.windowDays)

	l = deriveLifecycle(model.Posting{ApplyUntil: days(9)}, fixedNow)
	assert.Equal(t, 0, l.windowDays)
}

func TestLocationType(t *testing.T) {
	lc := newLocationClassifier(DefaultHQCountries)
	assert.Equal(t, model.LocationRemote, lc.classify("Home-based", "Switzerland"))
	assert.Equal(t, model.LocationRemote, lc.classify("Remote", ""))
	assert.Equal(t, model.LocationHQ, lc.classify("Geneva", "switzerland"))
	assert.Equal(t, model.LocationField, lc.classify("Juba", "South Sudan"))
}

func TestDedupe(t *testing.T) {
	got := dedupe([]model.Posting{
		{ID: 20, URL: "u"},
		{ID: 30, URL: "u"},
		{ID: 10, URL: "u"},
		{ID: 5},
		{ID: 5},
		{ID: 7, URL: "v"},
	})
	ids := make([]int64, len(got))
	for i, p := range got {
		ids[i] = p.ID
	}
	assert.Equal(t, []int64{5, 7, 30}, ids)
}
