package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContactScanner/internal/config"
	"ContactScanner/internal/domain"
)

func testScoringConfig() config.ScoringConfig {
	return config.ScoringConfig{
		Weights: config.WeightConfig{
			Activity:       0.40,
			ProfileQuality: 0.15,
			Engagement:     0.25,
			Relevance:      0.20,
		},
		Thresholds: config.ThresholdConfig{High: 70, Medium: 45, Low: 20},
		Penalties: config.PenaltyConfig{
			NoPhoto:           10,
			InactiveSixMonths: 15,
			InactiveOneYear:   25,
			StaleConnection:   10,
			SuspiciousName:    20,
			GenericHeadline:   10,
			ConnectionExtreme: 15,
		},
		DailyPace: 25,
	}
}

func newTestScorer() *Scorer {
	return NewScorer(testScoringConfig(), 180)
}

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func activeTargetContact() domain.Contact {
	return domain.Contact{
		ID:        "c-1",
		FirstName: "Anna",
		LastName:  "Schmidt",
		Location: domain.LocationInfo{
			Raw:            "Berlin, Germany",
			Country:        "Germany",
			Region:         domain.RegionEurope,
			IsTargetRegion: true,
			Confidence:     0.95,
		},
		Activity: domain.ActivityInfo{
			DaysSinceActivity: 5,
			Level:             domain.ActivityVeryActive,
		},
		Profile:                domain.ProfileInfo{HasPhoto: true},
		MutualConnectionsCount: 15,
		Status:                 domain.StatusPending,
	}
}

func TestPriorityBoundariesExact(t *testing.T) {
	t.Parallel()

	s := newTestScorer()

	cases := []struct {
		score float64
		want  domain.Priority
	}{
		{70, domain.PriorityHigh},
		{69.999, domain.PriorityMedium},
		{45, domain.PriorityMedium},
		{44.999, domain.PriorityLow},
		{20, domain.PriorityLow},
		{19.999, domain.PrioritySkip},
		{0, domain.PrioritySkip},
		{100, domain.PriorityHigh},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, s.PriorityFor(tc.score), "score %v", tc.score)
	}
}

func TestTotalScoreBounded(t *testing.T) {
	t.Parallel()

	s := newTestScorer()

	contacts := []domain.Contact{
		activeTargetContact(),
		{}, // empty contact, maximal penalties
		{
			FirstName: "SPAMMY12345",
			Activity:  domain.ActivityInfo{DaysSinceActivity: 800, Level: domain.ActivityInactive},
			Profile:   domain.ProfileInfo{Headline: "looking for job"},
			Engagement: domain.EngagementInfo{
				ConnectionsCount: 90000,
				FollowersCount:   2000000,
				IsCreator:        true,
				IsInfluencer:     true,
			},
		},
	}
	for i, c := range contacts {
		scores := s.Evaluate(c, testNow)
		assert.GreaterOrEqual(t, scores.TotalScore, 0.0, "contact %d", i)
		assert.LessOrEqual(t, scores.TotalScore, 100.0, "contact %d", i)
		assert.GreaterOrEqual(t, scores.RedFlagPenalty, 0.0, "contact %d", i)
	}
}

func TestActiveGermanContactScoresHigh(t *testing.T) {
	t.Parallel()

	s := newTestScorer()
	c := activeTargetContact()
	s.Score(&c, testNow)

	require.Equal(t, domain.StatusQualified, c.Status)
	assert.Equal(t, domain.PriorityHigh, c.Scores.Priority)
	assert.InDelta(t, 100, c.Scores.Activity, 1e-9, "top recency tier")
	assert.Contains(t, c.Scores.Breakdown, "in target region")
}

func TestTokyoContactFilteredDespiteActivity(t *testing.T) {
	t.Parallel()

	s := newTestScorer()
	c := domain.Contact{
		Location: domain.LocationInfo{
			Raw:            "Tokyo, Japan",
			Country:        "Japan",
			Region:         domain.RegionOther,
			IsTargetRegion: false,
			Confidence:     0.95,
		},
		Activity: domain.ActivityInfo{
			DaysSinceActivity: 2,
			Level:             domain.ActivityVeryActive,
		},
	}
	s.Score(&c, testNow)

	assert.Equal(t, domain.StatusFilteredRegion, c.Status)
	assert.Contains(t, c.SkipReason, "region mismatch")
}

func TestHardFilterBoth(t *testing.T) {
	t.Parallel()

	s := newTestScorer()
	c := domain.Contact{
		Location: domain.LocationInfo{
			Region:     domain.RegionOther,
			Confidence: 0.9,
		},
		Activity: domain.ActivityInfo{
			DaysSinceActivity: 400,
			Level:             domain.ActivityInactive,
		},
	}

	assert.Equal(t, FilterBoth, s.HardFilter(c))
	s.Score(&c, testNow)
	assert.Equal(t, domain.StatusFilteredBoth, c.Status)
}

func TestHardFilterUnknownSignalsPass(t *testing.T) {
	t.Parallel()

	s := newTestScorer()

	// Low-confidence region and unknown activity must not disqualify.
	c := domain.Contact{
		Location: domain.LocationInfo{Region: domain.RegionOther, Confidence: 0.3},
		Activity: domain.ActivityInfo{Level: domain.ActivityUnknown, DaysSinceActivity: 999},
	}
	assert.Equal(t, FilterPass, s.HardFilter(c))
}

func TestRedFlagsAccumulate(t *testing.T) {
	t.Parallel()

	s := newTestScorer()
	old := testNow.AddDate(-4, 0, 0)
	c := domain.Contact{
		FirstName:      "Bot99999",
		ConnectionDate: &old,
		Activity: domain.ActivityInfo{
			DaysSinceActivity: 400,
			Level:             domain.ActivityInactive,
		},
		Profile: domain.ProfileInfo{Headline: "open to work"},
	}

	scores := s.Evaluate(c, testNow)

	// no photo 10 + >1y 25 + >6m 15 + stale 10 + name 20 + headline 10
	assert.InDelta(t, 90, scores.RedFlagPenalty, 1e-9)
}

func TestScoreBatchSortsPriorityThenScore(t *testing.T) {
	t.Parallel()

	s := newTestScorer()

	strong := activeTargetContact()
	strong.ID = "strong"
	medium := activeTargetContact()
	medium.ID = "medium"
	medium.Activity.DaysSinceActivity = 60
	medium.MutualConnectionsCount = 0
	weak := domain.Contact{
		ID:       "weak",
		Location: domain.LocationInfo{Region: domain.RegionUnknown},
		Activity: domain.ActivityInfo{Level: domain.ActivityUnknown},
	}

	sorted := s.ScoreBatch([]domain.Contact{weak, medium, strong}, testNow)

	require.Len(t, sorted, 3)
	assert.Equal(t, "strong", sorted[0].ID)
	prev := sorted[0]
	for _, c := range sorted[1:] {
		if prev.Scores.Priority == c.Scores.Priority {
			assert.GreaterOrEqual(t, prev.Scores.TotalScore, c.Scores.TotalScore)
		}
		prev = c
	}
}

func TestStatusMonotonicWithinRun(t *testing.T) {
	t.Parallel()

	s := newTestScorer()
	c := activeTargetContact()
	c.Location = domain.LocationInfo{Region: domain.RegionOther, Confidence: 0.9}

	s.Score(&c, testNow)
	require.Equal(t, domain.StatusFilteredRegion, c.Status)
	require.True(t, c.Status.Terminal())

	// Re-scoring within the same run must not revive the contact.
	s.Score(&c, testNow)
	assert.Equal(t, domain.StatusFilteredRegion, c.Status)
}

func TestReportAggregates(t *testing.T) {
	t.Parallel()

	s := newTestScorer()

	contacts := make([]domain.Contact, 0, 30)
	for i := 0; i < 30; i++ {
		c := activeTargetContact()
		c.Profile.Company = "Acme"
		c.Profile.Role = "Engineer"
		contacts = append(contacts, c)
	}
	contacts = s.ScoreBatch(contacts, testNow)
	report := s.Report(contacts, testNow)

	assert.Equal(t, 30, report.TotalContacts)
	assert.Equal(t, 30, report.QualifiedCount)
	assert.Equal(t, 30, report.RegionCounts[domain.RegionEurope])
	require.NotEmpty(t, report.TopCompanies)
	assert.Equal(t, "Acme", report.TopCompanies[0].Value)
	// ceil(30 qualified / 25 per day) = 2 campaign days
	assert.Equal(t, 2, report.RecommendedDays)
	assert.Greater(t, report.AverageScore, 0.0)
}
