package scoring

import (
	"math"
	"sort"
	"time"

	"ContactScanner/internal/domain"
)

const topListSize = 5

// Report aggregates a scored contact set into the campaign review summary.
func (s *Scorer) Report(contacts []domain.Contact, now time.Time) domain.AnalysisReport {
	report := domain.AnalysisReport{
		TotalContacts:     len(contacts),
		PriorityCounts:    map[domain.Priority]int{},
		RegionCounts:      map[domain.Region]int{},
		ActivityCounts:    map[domain.ActivityLevel]int{},
		ConnectionAge:     map[string]int{},
		DailyOutreachPace: s.dailyPace,
		GeneratedAt:       now,
	}

	countries := map[string]int{}
	industries := map[string]int{}
	companies := map[string]int{}
	roles := map[string]int{}

	var scoreSum float64
	var scored int

	for _, c := range contacts {
		report.RegionCounts[c.Location.Region]++
		report.ActivityCounts[c.Activity.Level]++
		report.ConnectionAge[connectionAgeBucket(c.ConnectionDate, now)]++

		if c.Scores.Priority != "" {
			report.PriorityCounts[c.Scores.Priority]++
			scoreSum += c.Scores.TotalScore
			scored++
		}
		if c.Status == domain.StatusQualified {
			report.QualifiedCount++
		}

		bump(countries, c.Location.Country)
		bump(industries, c.Profile.Industry)
		bump(companies, c.Profile.Company)
		bump(roles, c.Profile.Role)
	}

	if scored > 0 {
		report.AverageScore = scoreSum / float64(scored)
	}
	report.TopCountries = topN(countries, topListSize)
	report.TopIndustries = topN(industries, topListSize)
	report.TopCompanies = topN(companies, topListSize)
	report.TopRoles = topN(roles, topListSize)
	report.RecommendedDays = int(math.Ceil(float64(report.QualifiedCount) / float64(s.dailyPace)))

	return report
}

func connectionAgeBucket(connected *time.Time, now time.Time) string {
	if connected == nil {
		return "unknown"
	}
	months := now.Sub(*connected).Hours() / (24 * 30)
	switch {
	case months <= 6:
		return "under_6_months"
	case months <= 12:
		return "6_to_12_months"
	case months <= 36:
		return "1_to_3_years"
	}
	return "over_3_years"
}

func bump(counts map[string]int, key string) {
	if key != "" {
		counts[key]++
	}
}

func topN(counts map[string]int, n int) []domain.FrequencyEntry {
	entries := make([]domain.FrequencyEntry, 0, len(counts))
	for value, count := range counts {
		entries = append(entries, domain.FrequencyEntry{Value: value, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Value < entries[j].Value
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
