package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"ContactScanner/internal/domain"
	"ContactScanner/internal/humanize"
	"ContactScanner/internal/ports"
	"ContactScanner/internal/quota"
)

const cacheSize = 512

// ErrQuotaExhausted signals that the daily visit quota is spent; callers
// stop gracefully rather than treating it as a fault.
var ErrQuotaExhausted = fmt.Errorf("daily profile visit quota exhausted")

// cached holds the enrichment produced by one profile visit so repeat
// lookups for the same URL never hit the browser again.
type cached struct {
	activity   domain.ActivityInfo
	profile    domain.ProfileInfo
	engagement domain.EngagementInfo
	language   string
}

// Analyzer visits one profile at a time, extracts the signals the list view
// cannot provide, and paces itself like a person skimming pages.
type Analyzer struct {
	driver    ports.BrowserDriver
	extractor ports.ProfileExtractor
	simulator *humanize.Simulator
	visits    *quota.DailyCounter
	cache     *lru.Cache[string, cached]
	logger    *slog.Logger
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) bool
}

// Deps wires the analyzer's collaborators.
type Deps struct {
	Driver    ports.BrowserDriver
	Extractor ports.ProfileExtractor
	Simulator *humanize.Simulator
	Visits    *quota.DailyCounter
	Logger    *slog.Logger
	Now       func() time.Time
	// Sleep overrides the cooperative wait, letting tests run on a fake clock.
	Sleep func(ctx context.Context, d time.Duration) bool
}

// New constructs the analyzer; the LRU cache is process-local and owned by
// the active run.
func New(deps Deps) (*Analyzer, error) {
	cache, err := lru.New[string, cached](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("build profile cache: %w", err)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	slp := deps.Sleep
	if slp == nil {
		slp = waitFor
	}
	return &Analyzer{
		driver:    deps.Driver,
		extractor: deps.Extractor,
		simulator: deps.Simulator,
		visits:    deps.Visits,
		cache:     cache,
		logger:    deps.Logger,
		now:       now,
		sleep:     slp,
	}, nil
}

// Remaining reports how many visits are left today.
func (a *Analyzer) Remaining() int {
	return a.visits.Remaining(a.now())
}

// Analyze enriches the contact with profile-level signals. A cached URL is
// served without navigation; an exhausted quota returns ErrQuotaExhausted
// without visiting. The page language attribute is returned for the
// language heuristic.
func (a *Analyzer) Analyze(ctx context.Context, c *domain.Contact) (string, ports.Outcome, error) {
	if c.ProfileURL == "" {
		return "", ports.OutcomeExtractionIncomplete, fmt.Errorf("contact %s has no profile url", c.ID)
	}

	if hit, ok := a.cache.Get(c.ProfileURL); ok {
		a.apply(c, hit)
		a.debug("profile served from cache", "url", c.ProfileURL)
		return hit.language, ports.OutcomeSuccess, nil
	}

	now := a.now()
	if a.visits.Exhausted(now) {
		return "", ports.OutcomeRateLimited, ErrQuotaExhausted
	}

	outcome, err := a.driver.Navigate(ctx, c.ProfileURL)
	if err != nil || outcome != ports.OutcomeSuccess {
		if outcome == ports.OutcomeSuccess {
			outcome = ports.OutcomeNavigationFailed
		}
		if err == nil {
			err = fmt.Errorf("navigation returned %s", outcome)
		}
		return "", outcome, fmt.Errorf("navigate %s: %w", c.ProfileURL, err)
	}
	a.visits.Increment(now)
	a.simulator.RecordAction()

	obs, outcome, err := a.extractor.ProfileDetails(ctx, c)
	if err != nil && outcome != ports.OutcomeExtractionIncomplete {
		return "", outcome, fmt.Errorf("extract profile %s: %w", c.ProfileURL, err)
	}
	// extraction gaps degrade to low-confidence defaults, never a fault

	c.Activity = ClassifyActivity(obs.ActivityDates, a.now())
	c.UpdatedAt = a.now()

	a.cache.Add(c.ProfileURL, cached{
		activity:   c.Activity,
		profile:    c.Profile,
		engagement: c.Engagement,
		language:   obs.HTMLLang,
	})

	a.simulateReading(ctx)
	a.interProfilePause(ctx)

	return obs.HTMLLang, ports.OutcomeSuccess, nil
}

func (a *Analyzer) apply(c *domain.Contact, hit cached) {
	c.Activity = hit.activity
	c.Profile = hit.profile
	c.Engagement = hit.engagement
	c.UpdatedAt = a.now()
}

// simulateReading oscillates the page for a sampled duration the way a
// person skims up and down a profile.
func (a *Analyzer) simulateReading(ctx context.Context) {
	if a.driver == nil {
		return
	}
	span := a.simulator.ReadingDuration()
	deadline := a.now().Add(span)
	down := true
	for a.now().Before(deadline) {
		delta := a.simulator.ScrollDelta()
		if !down {
			delta = -delta / 2
		}
		if err := a.driver.ScrollBy(ctx, delta); err != nil {
			return
		}
		down = !down
		if !a.sleep(ctx, a.simulator.Delay(400*time.Millisecond, 1800*time.Millisecond)) {
			return
		}
	}
}

func (a *Analyzer) interProfilePause(ctx context.Context) {
	a.sleep(ctx, a.simulator.Delay(3*time.Second, 12*time.Second))
}

// waitFor sleeps cooperatively, returning false when the context is cancelled.
func waitFor(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (a *Analyzer) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}

// ClassifyActivity buckets the most recent dated activity item into the
// five-tier scale and estimates posting frequency from the last 30 days.
func ClassifyActivity(dates []time.Time, now time.Time) domain.ActivityInfo {
	info := domain.ActivityInfo{
		Level:         domain.ActivityUnknown,
		PostFrequency: domain.PostNone,
	}
	if len(dates) == 0 {
		return info
	}

	latest := dates[0]
	recent := 0
	for _, d := range dates {
		if d.After(latest) {
			latest = d
		}
		if now.Sub(d) <= 30*24*time.Hour {
			recent++
		}
	}

	info.LastActivityDate = &latest
	info.DaysSinceActivity = int(now.Sub(latest).Hours() / 24)

	switch days := info.DaysSinceActivity; {
	case days <= 7:
		info.Level = domain.ActivityVeryActive
	case days <= 30:
		info.Level = domain.ActivityActive
	case days <= 90:
		info.Level = domain.ActivityModerate
	case days <= 180:
		info.Level = domain.ActivityLow
	default:
		info.Level = domain.ActivityInactive
	}

	switch {
	case recent >= 4:
		info.PostFrequency = domain.PostWeekly
	case recent >= 1:
		info.PostFrequency = domain.PostMonthly
	default:
		info.PostFrequency = domain.PostRare
	}

	return info
}
