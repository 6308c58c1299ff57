package domain

import "time"

// Region buckets a contact's location into the campaign's coarse geography.
type Region string

const (
	RegionEurope   Region = "europe"
	RegionAmericas Region = "americas"
	RegionOther    Region = "other"
	RegionUnknown  Region = "unknown"
)

// LocationInfo is the classifier's verdict for a free-text location string.
type LocationInfo struct {
	Raw            string
	Country        string
	City           string
	Region         Region
	IsTargetRegion bool
	Confidence     float64
}

// ActivityLevel buckets recency of the last observed profile activity.
type ActivityLevel string

const (
	ActivityVeryActive ActivityLevel = "very_active"
	ActivityActive     ActivityLevel = "active"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityLow        ActivityLevel = "low"
	ActivityInactive   ActivityLevel = "inactive"
	ActivityUnknown    ActivityLevel = "unknown"
)

// PostFrequency estimates how often a contact publishes.
type PostFrequency string

const (
	PostWeekly  PostFrequency = "weekly"
	PostMonthly PostFrequency = "monthly"
	PostRare    PostFrequency = "rare"
	PostNone    PostFrequency = "none"
	PostUnknown PostFrequency = "unknown"
)

// ActivityInfo carries the signals extracted from a profile visit.
type ActivityInfo struct {
	LastActivityDate  *time.Time
	DaysSinceActivity int
	Level             ActivityLevel
	PostFrequency     PostFrequency
	EngagesWithOthers bool
}

// ProfileInfo captures completeness cues from the profile page.
type ProfileInfo struct {
	HasPhoto           bool
	HasHeadline        bool
	HasAbout           bool
	HasBanner          bool
	ExperienceCount    int
	EducationCount     int
	SkillsCount        int
	RecommendationsCnt int
	Headline           string
	About              string
	Company            string
	Role               string
	Industry           string
}

// EngagementInfo holds platform-level signals about reach and reachability.
type EngagementInfo struct {
	IsCreator        bool
	IsPremium        bool
	OpenToMessages   bool
	IsInfluencer     bool
	FollowersCount   int
	ConnectionsCount int
}

// Status is the contact's position inside a pipeline run. Transitions are
// monotonic within one run: a terminal status never goes back to pending
// without a fresh analysis pass.
type Status string

const (
	StatusPending          Status = "pending"
	StatusQualified        Status = "qualified"
	StatusFilteredRegion   Status = "filtered_region"
	StatusFilteredInactive Status = "filtered_inactive"
	StatusFilteredBoth     Status = "filtered_both"
	StatusSkip             Status = "skip"
	StatusQueued           Status = "queued"
	StatusContacted        Status = "contacted"
	StatusError            Status = "error"
)

// Terminal reports whether a status ends the contact's journey for this run.
func (s Status) Terminal() bool {
	switch s {
	case StatusFilteredRegion, StatusFilteredInactive, StatusFilteredBoth,
		StatusSkip, StatusContacted, StatusError:
		return true
	}
	return false
}

// Priority discretizes a total score into outreach buckets.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
	PrioritySkip   Priority = "skip"
)

// ContactScores is the scorer's full output for one contact.
type ContactScores struct {
	Activity       float64
	ProfileQuality float64
	Engagement     float64
	Relevance      float64
	RedFlagPenalty float64
	TotalScore     float64
	Priority       Priority
	Breakdown      []string
}

// Contact is the core entity flowing through every pipeline stage. It is
// created by the scanner or importer and enriched in place; the core never
// deletes it.
type Contact struct {
	ID         string
	ProfileURL string
	FirstName  string
	LastName   string
	Email      string

	Location   LocationInfo
	Activity   ActivityInfo
	Profile    ProfileInfo
	Engagement EngagementInfo

	ConnectionDate         *time.Time
	MutualConnectionsCount int
	HasMessaged            bool

	Scores     ContactScores
	Status     Status
	SkipReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName joins the name parts, tolerating missing halves.
func (c Contact) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// SessionStatus tracks a pacing session's lifecycle.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionPaused    SessionStatus = "paused"
	SessionCompleted SessionStatus = "completed"
	SessionError     SessionStatus = "error"
)

// Session is one bounded work interval paced by the behavior simulator.
type Session struct {
	ID          string
	StartedAt   time.Time
	EndedAt     *time.Time
	ActionCount int
	Warnings    []string
	Errors      []string
	Status      SessionStatus
}

// LanguageGuess is the daily-batch language heuristic's verdict.
type LanguageGuess struct {
	Detected   string
	Confidence float64
	Indicators []string
}

// BatchResult summarizes one processed batch of contacts.
type BatchResult struct {
	BatchNumber    int
	Contacts       []Contact
	RegionCounts   map[Region]int
	ActivityCounts map[ActivityLevel]int
	LanguageCounts map[string]int
	PriorityCounts map[Priority]int
	AverageScore   float64
	Success        bool
	Errors         []string
}

// OutreachDisposition is the per-contact outcome of one outreach pass.
type OutreachDisposition string

const (
	OutreachSent             OutreachDisposition = "sent"
	OutreachDryRun           OutreachDisposition = "dry_run"
	OutreachSkippedMessaged  OutreachDisposition = "skipped_already_messaged"
	OutreachSkippedRegion    OutreachDisposition = "skipped_region"
	OutreachSkippedInactive  OutreachDisposition = "skipped_inactive"
	OutreachSkippedScore     OutreachDisposition = "skipped_score"
	OutreachNavigationFailed OutreachDisposition = "navigation_failed"
	OutreachError            OutreachDisposition = "error"
)

// OutreachResult records what happened to one contact during outreach.
type OutreachResult struct {
	ProfileURL  string
	Disposition OutreachDisposition
	Message     string
	Score       float64
	Priority    Priority
	Err         string
	Timestamp   time.Time
}

// FrequencyEntry is one row of a top-N frequency list in a report.
type FrequencyEntry struct {
	Value string
	Count int
}

// AnalysisReport aggregates a full batch run for review before outreach.
type AnalysisReport struct {
	TotalContacts     int
	PriorityCounts    map[Priority]int
	RegionCounts      map[Region]int
	ActivityCounts    map[ActivityLevel]int
	ConnectionAge     map[string]int
	TopCountries      []FrequencyEntry
	TopIndustries     []FrequencyEntry
	TopCompanies      []FrequencyEntry
	TopRoles          []FrequencyEntry
	QualifiedCount    int
	AverageScore      float64
	RecommendedDays   int
	DailyOutreachPace int
	GeneratedAt       time.Time
}
