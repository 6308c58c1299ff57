package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ContactScanner/internal/analyzer"
	"ContactScanner/internal/config"
	"ContactScanner/internal/csvimport"
	"ContactScanner/internal/domain"
	"ContactScanner/internal/geo"
	"ContactScanner/internal/humanize"
	"ContactScanner/internal/ports"
	"ContactScanner/internal/quota"
	"ContactScanner/internal/scoring"
)

// OutreachEngine visits, qualifies, and messages each contact in a single
// pass. Two independent caps stop the loop: the absolute daily message
// quota and the per-session maximum.
type OutreachEngine struct {
	driver     ports.BrowserDriver
	extractor  ports.ProfileExtractor
	classifier *geo.Classifier
	scorer     *scoring.Scorer
	simulator  *humanize.Simulator
	sender     ports.MessageSender
	messages   *quota.DailyCounter
	messaged   map[string]bool
	outreach   config.OutreachConfig
	sessionMax int
	logger     *slog.Logger
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) bool
}

// OutreachDeps wires the engine. Messaged is the CSV-derived
// previously-messaged handle set; Sender may be nil in dry-run setups.
type OutreachDeps struct {
	Driver     ports.BrowserDriver
	Extractor  ports.ProfileExtractor
	Classifier *geo.Classifier
	Scorer     *scoring.Scorer
	Simulator  *humanize.Simulator
	Sender     ports.MessageSender
	Messages   *quota.DailyCounter
	Messaged   map[string]bool
	Outreach   config.OutreachConfig
	SessionMax int
	Logger     *slog.Logger
	Now        func() time.Time
	Sleep      func(ctx context.Context, d time.Duration) bool
}

var _ Strategy = (*OutreachEngine)(nil)

// NewOutreach constructs the engine.
func NewOutreach(deps OutreachDeps) *OutreachEngine {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	slp := deps.Sleep
	if slp == nil {
		slp = waitFor
	}
	messaged := deps.Messaged
	if messaged == nil {
		messaged = map[string]bool{}
	}
	return &OutreachEngine{
		driver:     deps.Driver,
		extractor:  deps.Extractor,
		classifier: deps.Classifier,
		scorer:     deps.Scorer,
		simulator:  deps.Simulator,
		sender:     deps.Sender,
		messages:   deps.Messages,
		messaged:   messaged,
		outreach:   deps.Outreach,
		sessionMax: deps.SessionMax,
		logger:     deps.Logger,
		now:        now,
		sleep:      slp,
	}
}

// Name identifies the strategy inside the registry.
func (e *OutreachEngine) Name() string { return "outreach" }

// HasPreviouslyMessaged reports whether the profile URL appears in the
// message history set.
func (e *OutreachEngine) HasPreviouslyMessaged(profileURL string) bool {
	return e.messaged[csvimport.NormalizeHandle(profileURL)]
}

// Run processes each target contact in one pass. Per-contact failures are
// recorded and the loop continues; cap exhaustion stops the loop with
// Success=true; cancellation stops it with Success=false.
func (e *OutreachEngine) Run(ctx context.Context, targets []domain.Contact) (RunResult, error) {
	result := RunResult{Success: true}
	sessionSent := 0

	if e.simulator.HasWorkingWindow() {
		if wait := e.simulator.WaitUntilOpen(e.now()); wait > 0 {
			e.info("outside working hours", "wait", wait.Round(time.Minute))
			if !e.sleep(ctx, wait) {
				result.Success = false
				result.Contacts = targets
				return result, nil
			}
		}
	}

	if e.simulator.Session() == nil {
		e.simulator.StartSession(e.now())
	}

	for i := range targets {
		if ctx.Err() != nil {
			result.Success = false
			break
		}
		if e.messages.Exhausted(e.now()) {
			e.info("daily message quota reached", "processed", i)
			break
		}
		if e.sessionMax > 0 && sessionSent >= e.sessionMax {
			e.info("session message cap reached", "sent", sessionSent)
			break
		}

		if e.simulator.ShouldEndSession(e.now()) {
			e.simulator.EndSession(e.now())
			e.sleep(ctx, e.simulator.BreakDuration())
			e.simulator.StartSession(e.now())
			sessionSent = 0
		}

		outcome := e.processContact(ctx, &targets[i])
		result.Outreach = append(result.Outreach, outcome)
		if outcome.Disposition == domain.OutreachSent || outcome.Disposition == domain.OutreachDryRun {
			sessionSent++
		}

		if e.simulator.Chance(e.outreach.DecoyProb) {
			e.decoyAction(ctx)
		}
	}

	result.Contacts = targets
	return result, nil
}

func (e *OutreachEngine) processContact(ctx context.Context, c *domain.Contact) domain.OutreachResult {
	res := domain.OutreachResult{ProfileURL: c.ProfileURL, Timestamp: e.now()}

	// history check without spending navigation
	if e.HasPreviouslyMessaged(c.ProfileURL) {
		c.Status = domain.StatusContacted
		c.HasMessaged = true
		res.Disposition = domain.OutreachSkippedMessaged
		return res
	}

	navOutcome, err := e.driver.Navigate(ctx, c.ProfileURL)
	if err != nil || navOutcome != ports.OutcomeSuccess {
		c.Status = domain.StatusError
		res.Disposition = domain.OutreachNavigationFailed
		if err != nil {
			res.Err = err.Error()
		}
		return res
	}
	e.simulator.RecordAction()

	obs, _, err := e.extractor.ProfileDetails(ctx, c)
	if err != nil {
		// incomplete extraction degrades to defaults; keep going
		e.debug("partial profile extraction", "url", c.ProfileURL, "error", err)
	}
	if len(obs.ActivityDates) > 0 {
		c.Activity = analyzer.ClassifyActivity(obs.ActivityDates, e.now())
	}
	if c.Location.Region == domain.RegionUnknown && c.Location.Raw != "" {
		c.Location = e.classifier.Classify(c.Location.Raw)
	}

	// filters exit early but still linger to keep the visit plausible
	switch e.scorer.HardFilter(*c) {
	case scoring.FilterRegion, scoring.FilterBoth:
		c.Status = domain.StatusFilteredRegion
		res.Disposition = domain.OutreachSkippedRegion
		e.linger(ctx, 2*time.Second, 6*time.Second)
		return res
	case scoring.FilterInactive:
		c.Status = domain.StatusFilteredInactive
		res.Disposition = domain.OutreachSkippedInactive
		e.linger(ctx, 2*time.Second, 6*time.Second)
		return res
	}

	e.scorer.Score(c, e.now())
	res.Score = c.Scores.TotalScore
	res.Priority = c.Scores.Priority
	if c.Scores.Priority == domain.PrioritySkip {
		res.Disposition = domain.OutreachSkippedScore
		e.linger(ctx, 2*time.Second, 6*time.Second)
		return res
	}

	// qualified: read like a person who intends to write
	e.linger(ctx, 10*time.Second, 30*time.Second)

	message := RenderTemplate(e.simulator.PickTemplate(e.outreach.Templates), *c)
	res.Message = message

	if e.outreach.DryRun || e.sender == nil {
		c.Status = domain.StatusQueued
		res.Disposition = domain.OutreachDryRun
		e.messages.Increment(e.now())
		return res
	}

	if err := e.sender.Send(ctx, *c, message); err != nil {
		c.Status = domain.StatusError
		res.Disposition = domain.OutreachError
		res.Err = err.Error()
		e.simulator.RecordError(fmt.Sprintf("send to %s: %v", c.ID, err))
		return res
	}
	c.Status = domain.StatusContacted
	c.HasMessaged = true
	e.messaged[csvimport.NormalizeHandle(c.ProfileURL)] = true
	e.messages.Increment(e.now())
	res.Disposition = domain.OutreachSent
	return res
}

// decoyAction occasionally diversifies the behavioral signature with an
// aimless scroll.
func (e *OutreachEngine) decoyAction(ctx context.Context) {
	e.debug("decoy action")
	_ = e.driver.ScrollBy(ctx, e.simulator.ScrollDelta())
	e.sleep(ctx, e.simulator.Delay(time.Second, 5*time.Second))
	_ = e.driver.ScrollBy(ctx, -e.simulator.ScrollDelta()/2)
	e.simulator.RecordAction()
}

func (e *OutreachEngine) linger(ctx context.Context, min, max time.Duration) {
	e.sleep(ctx, e.simulator.Delay(min, max))
}

func waitFor(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// RenderTemplate substitutes the named placeholders with contact data.
// Unknown placeholders are left untouched.
func RenderTemplate(template string, c domain.Contact) string {
	replacer := strings.NewReplacer(
		"{firstName}", c.FirstName,
		"{lastName}", c.LastName,
		"{company}", c.Profile.Company,
		"{role}", c.Profile.Role,
	)
	rendered := replacer.Replace(template)
	// collapse doubled spaces left by empty fields
	for strings.Contains(rendered, "  ") {
		rendered = strings.ReplaceAll(rendered, "  ", " ")
	}
	return strings.TrimSpace(rendered)
}

func (e *OutreachEngine) info(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Info(msg, args...)
	}
}

func (e *OutreachEngine) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
