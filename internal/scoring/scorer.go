package scoring

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"ContactScanner/internal/config"
	"ContactScanner/internal/domain"
)

// FilterVerdict is the outcome of the hard filters that run before scoring.
type FilterVerdict int

const (
	// FilterPass means no disqualifying signal was known with confidence;
	// the contact proceeds to scoring.
	FilterPass FilterVerdict = iota
	FilterRegion
	FilterInactive
	FilterBoth
)

// region filter only fires when the classifier was at least this sure.
const regionConfidenceFloor = 0.6

var (
	suspiciousNameExpr = regexp.MustCompile(`(?i)(\d{3,}|^[A-Z\s]{12,}$|http|www\.|\.com|qwerty|asdf)`)
	genericHeadlineExpr = regexp.MustCompile(`(?i)^(looking for (a )?(job|work|opportunit)|open to work|unemployed|seeking (new )?opportunit|entrepreneur \| investor \| )`)
)

// Scorer computes the four weighted sub-scores, red-flag penalties, and the
// final priority bucket for contacts.
type Scorer struct {
	weights        config.WeightConfig
	thresholds     config.ThresholdConfig
	penalties      config.PenaltyConfig
	inactivityDays int
	dailyPace      int
}

// NewScorer binds scoring constants from configuration.
func NewScorer(cfg config.ScoringConfig, inactivityDays int) *Scorer {
	if inactivityDays <= 0 {
		inactivityDays = 180
	}
	pace := cfg.DailyPace
	if pace <= 0 {
		pace = 25
	}
	return &Scorer{
		weights:        cfg.Weights,
		thresholds:     cfg.Thresholds,
		penalties:      cfg.Penalties,
		inactivityDays: inactivityDays,
		dailyPace:      pace,
	}
}

// HardFilter applies the region and inactivity gates that bypass scoring
// entirely. Signals not known with confidence never disqualify.
func (s *Scorer) HardFilter(c domain.Contact) FilterVerdict {
	badRegion := !c.Location.IsTargetRegion &&
		c.Location.Region != domain.RegionUnknown &&
		c.Location.Confidence >= regionConfidenceFloor

	badActivity := c.Activity.Level != domain.ActivityUnknown &&
		c.Activity.DaysSinceActivity > s.inactivityDays

	switch {
	case badRegion && badActivity:
		return FilterBoth
	case badRegion:
		return FilterRegion
	case badActivity:
		return FilterInactive
	}
	return FilterPass
}

// Score evaluates one contact in place: hard filters first, then sub-scores,
// penalty, priority, and the terminal or qualified status.
func (s *Scorer) Score(c *domain.Contact, now time.Time) {
	switch s.HardFilter(*c) {
	case FilterBoth:
		c.Status = domain.StatusFilteredBoth
		c.SkipReason = s.skipReason(*c, domain.StatusFilteredBoth)
		return
	case FilterRegion:
		c.Status = domain.StatusFilteredRegion
		c.SkipReason = s.skipReason(*c, domain.StatusFilteredRegion)
		return
	case FilterInactive:
		c.Status = domain.StatusFilteredInactive
		c.SkipReason = s.skipReason(*c, domain.StatusFilteredInactive)
		return
	}

	c.Scores = s.Evaluate(*c, now)
	if c.Scores.Priority == domain.PrioritySkip {
		c.Status = domain.StatusSkip
		c.SkipReason = s.skipReason(*c, domain.StatusSkip)
		return
	}
	c.Status = domain.StatusQualified
	c.SkipReason = ""
}

// Evaluate computes the full score breakdown without touching status.
func (s *Scorer) Evaluate(c domain.Contact, now time.Time) domain.ContactScores {
	var breakdown []string

	activity := s.activityScore(c, &breakdown)
	profile := s.profileScore(c, &breakdown)
	engagement := s.engagementScore(c, &breakdown)
	relevance := s.relevanceScore(c, now, &breakdown)
	penalty := s.redFlagPenalty(c, now, &breakdown)

	total := s.weights.Activity*activity +
		s.weights.ProfileQuality*profile +
		s.weights.Engagement*engagement +
		s.weights.Relevance*relevance -
		penalty
	total = clamp(total, 0, 100)

	return domain.ContactScores{
		Activity:       activity,
		ProfileQuality: profile,
		Engagement:     engagement,
		Relevance:      relevance,
		RedFlagPenalty: penalty,
		TotalScore:     total,
		Priority:       s.PriorityFor(total),
		Breakdown:      breakdown,
	}
}

// PriorityFor maps a total score onto the priority buckets. Boundaries are
// inclusive: exactly 70 is high, exactly 45 is medium, exactly 20 is low.
func (s *Scorer) PriorityFor(total float64) domain.Priority {
	switch {
	case total >= s.thresholds.High:
		return domain.PriorityHigh
	case total >= s.thresholds.Medium:
		return domain.PriorityMedium
	case total >= s.thresholds.Low:
		return domain.PriorityLow
	}
	return domain.PrioritySkip
}

func (s *Scorer) activityScore(c domain.Contact, breakdown *[]string) float64 {
	score := 0.0

	if c.Activity.Level == domain.ActivityUnknown {
		*breakdown = append(*breakdown, "activity unknown, neutral baseline")
		score = 40
	} else {
		days := c.Activity.DaysSinceActivity
		switch {
		case days <= 7:
			score = 100
			*breakdown = append(*breakdown, "active within the last week")
		case days <= 30:
			score = 75
			*breakdown = append(*breakdown, "active within the last month")
		case days <= 90:
			score = 50
			*breakdown = append(*breakdown, "active within the last quarter")
		case days <= 180:
			score = 25
			*breakdown = append(*breakdown, "active within six months")
		default:
			score = 0
			*breakdown = append(*breakdown, fmt.Sprintf("no activity for %d days", days))
		}
	}

	switch c.Activity.PostFrequency {
	case domain.PostWeekly:
		score += 10
		*breakdown = append(*breakdown, "posts weekly")
	case domain.PostMonthly:
		score += 5
	}
	if c.Activity.EngagesWithOthers {
		score += 5
		*breakdown = append(*breakdown, "engages with others' posts")
	}

	return clamp(score, 0, 100)
}

func (s *Scorer) profileScore(c domain.Contact, breakdown *[]string) float64 {
	p := c.Profile
	score := 0.0

	if p.HasPhoto {
		score += 40
	}
	if p.HasHeadline {
		score += 15
	}
	if p.HasAbout {
		score += 10
	}
	if p.HasBanner {
		score += 5
	}
	score += capBonus(p.ExperienceCount, 4, 2.5)
	score += capBonus(p.EducationCount, 2, 5)
	score += capBonus(p.SkillsCount, 10, 0.5)
	score += capBonus(p.RecommendationsCnt, 5, 1)

	if score >= 80 {
		*breakdown = append(*breakdown, "well-maintained profile")
	}
	return clamp(score, 0, 100)
}

// capBonus awards perEach points per item up to maxItems.
func capBonus(count, maxItems int, perEach float64) float64 {
	if count > maxItems {
		count = maxItems
	}
	if count < 0 {
		count = 0
	}
	return float64(count) * perEach
}

func (s *Scorer) engagementScore(c domain.Contact, breakdown *[]string) float64 {
	e := c.Engagement
	score := 40.0

	if e.IsCreator {
		score += 20
		*breakdown = append(*breakdown, "creator mode on")
	}
	if e.IsPremium {
		score += 10
	}
	if e.OpenToMessages {
		score += 15
		*breakdown = append(*breakdown, "open to messages")
	}
	if e.IsInfluencer {
		score += 10
	}

	// highest qualifying tier wins
	switch {
	case e.FollowersCount >= 10000:
		score += 15
		*breakdown = append(*breakdown, "large audience")
	case e.FollowersCount >= 1000:
		score += 8
	case e.FollowersCount >= 100:
		score += 3
	}

	switch {
	case c.MutualConnectionsCount > 50:
		score += 10
		*breakdown = append(*breakdown, "many mutual connections")
	case c.MutualConnectionsCount > 20:
		score += 7
	case c.MutualConnectionsCount > 10:
		score += 5
	}

	return clamp(score, 0, 100)
}

func (s *Scorer) relevanceScore(c domain.Contact, now time.Time, breakdown *[]string) float64 {
	score := 50.0

	if c.Location.IsTargetRegion {
		score += 25
		*breakdown = append(*breakdown, "in target region")
	} else if c.Location.Region != domain.RegionUnknown && c.Location.Confidence >= regionConfidenceFloor {
		score -= 25
		*breakdown = append(*breakdown, "outside target region")
	}

	if c.ConnectionDate != nil && now.Sub(*c.ConnectionDate) <= 6*30*24*time.Hour {
		score += 15
		*breakdown = append(*breakdown, "recently connected")
	}
	if c.MutualConnectionsCount > 10 {
		score += 10
	}

	return clamp(score, 0, 100)
}

func (s *Scorer) redFlagPenalty(c domain.Contact, now time.Time, breakdown *[]string) float64 {
	penalty := 0.0
	flag := func(points float64, note string) {
		penalty += points
		*breakdown = append(*breakdown, "red flag: "+note)
	}

	if !c.Profile.HasPhoto {
		flag(s.penalties.NoPhoto, "no profile photo")
	}
	if c.Activity.Level != domain.ActivityUnknown {
		if c.Activity.DaysSinceActivity > 365 {
			flag(s.penalties.InactiveOneYear, "inactive for over a year")
		}
		if c.Activity.DaysSinceActivity > 180 {
			flag(s.penalties.InactiveSixMonths, "inactive for over six months")
		}
	}
	if c.ConnectionDate != nil && !c.HasMessaged &&
		now.Sub(*c.ConnectionDate) > 36*30*24*time.Hour {
		flag(s.penalties.StaleConnection, "old connection with no interaction")
	}
	if suspiciousNameExpr.MatchString(c.FullName()) {
		flag(s.penalties.SuspiciousName, "suspicious name pattern")
	}
	if genericHeadlineExpr.MatchString(strings.TrimSpace(c.Profile.Headline)) {
		flag(s.penalties.GenericHeadline, "generic headline")
	}
	if n := c.Engagement.ConnectionsCount; n > 0 && (n > 25000 || n < 5) {
		flag(s.penalties.ConnectionExtreme, "connection count extreme")
	}

	return penalty
}

// ScoreBatch scores every contact in place and returns the slice sorted by
// priority, then total score descending.
func (s *Scorer) ScoreBatch(contacts []domain.Contact, now time.Time) []domain.Contact {
	for i := range contacts {
		s.Score(&contacts[i], now)
	}
	SortByPriority(contacts)
	return contacts
}

var priorityRank = map[domain.Priority]int{
	domain.PriorityHigh:   0,
	domain.PriorityMedium: 1,
	domain.PriorityLow:    2,
	domain.PrioritySkip:   3,
	"":                    4,
}

// SortByPriority orders contacts by priority bucket, then score descending.
func SortByPriority(contacts []domain.Contact) {
	sort.SliceStable(contacts, func(i, j int) bool {
		ri, rj := priorityRank[contacts[i].Scores.Priority], priorityRank[contacts[j].Scores.Priority]
		if ri != rj {
			return ri < rj
		}
		return contacts[i].Scores.TotalScore > contacts[j].Scores.TotalScore
	})
}

// skipReason renders the human-readable explanation stored on the contact.
func (s *Scorer) skipReason(c domain.Contact, status domain.Status) string {
	switch status {
	case domain.StatusFilteredRegion:
		return fmt.Sprintf("region mismatch: %s (%s)", c.Location.Raw, c.Location.Region)
	case domain.StatusFilteredInactive:
		return fmt.Sprintf("inactive for %d days (threshold %d)", c.Activity.DaysSinceActivity, s.inactivityDays)
	case domain.StatusFilteredBoth:
		return fmt.Sprintf("region mismatch (%s) and inactive for %d days",
			c.Location.Region, c.Activity.DaysSinceActivity)
	case domain.StatusSkip:
		reason := fmt.Sprintf("score %.1f below threshold %.0f", c.Scores.TotalScore, s.thresholds.Low)
		if c.Scores.RedFlagPenalty > 0 {
			reason += fmt.Sprintf(" (red flags: %.0f points)", c.Scores.RedFlagPenalty)
		}
		return reason
	}
	return ""
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
