package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ContactScanner/internal/analyzer"
	"ContactScanner/internal/domain"
	"ContactScanner/internal/geo"
	"ContactScanner/internal/langdetect"
	"ContactScanner/internal/ports"
	"ContactScanner/internal/scanner"
	"ContactScanner/internal/scoring"
)

// State tracks where the batch pipeline currently is.
type State string

const (
	StateIdle      State = "idle"
	StateExporting State = "exporting"
	StateAnalyzing State = "analyzing"
	StateScoring   State = "scoring"
	StateComplete  State = "complete"
	StateError     State = "error"
)

// BatchOrchestrator runs the scan -> filter -> analyze -> score -> report
// pipeline. Per-contact failures are isolated; only configuration problems
// abort a run.
type BatchOrchestrator struct {
	scanner    *scanner.Scanner
	analyzer   *analyzer.Analyzer
	classifier *geo.Classifier
	scorer     *scoring.Scorer
	detector   *langdetect.Detector
	repo       ports.ContactRepository
	logger     *slog.Logger
	now        func() time.Time

	state State
}

// BatchDeps wires the pipeline's collaborators. Scanner and Repo may be nil
// when contacts are preloaded and persistence is handled elsewhere.
type BatchDeps struct {
	Scanner    *scanner.Scanner
	Analyzer   *analyzer.Analyzer
	Classifier *geo.Classifier
	Scorer     *scoring.Scorer
	Detector   *langdetect.Detector
	Repo       ports.ContactRepository
	Logger     *slog.Logger
	Now        func() time.Time
}

var _ Strategy = (*BatchOrchestrator)(nil)

// NewBatch constructs the orchestrator in the idle state.
func NewBatch(deps BatchDeps) *BatchOrchestrator {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &BatchOrchestrator{
		scanner:    deps.Scanner,
		analyzer:   deps.Analyzer,
		classifier: deps.Classifier,
		scorer:     deps.Scorer,
		detector:   deps.Detector,
		repo:       deps.Repo,
		logger:     deps.Logger,
		now:        now,
		state:      StateIdle,
	}
}

// Name identifies the strategy inside the registry.
func (b *BatchOrchestrator) Name() string { return "batch" }

// State reports the current pipeline state.
func (b *BatchOrchestrator) State() State { return b.state }

// Run executes one full pipeline pass. With an empty contact slice the
// connection scanner supplies the input; otherwise the preloaded contacts
// are used as-is. Cancellation between contacts returns partial results
// with Success=false.
func (b *BatchOrchestrator) Run(ctx context.Context, contacts []domain.Contact) (RunResult, error) {
	result := RunResult{}

	// exporting
	b.state = StateExporting
	if len(contacts) == 0 {
		if b.scanner == nil {
			b.state = StateError
			return result, fmt.Errorf("no contacts supplied and no scanner configured")
		}
		scanned, err := b.scanner.Scan(ctx)
		contacts = scanned
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				result.Contacts = contacts
				b.state = StateComplete
				return result, nil
			}
			b.state = StateError
			return result, fmt.Errorf("scan connections: %w", err)
		}
	}
	b.info("export done", "contacts", len(contacts))

	// cheap location pre-filter: spend no analysis quota on confidently
	// out-of-region contacts
	for i := range contacts {
		if contacts[i].Location.Region == domain.RegionUnknown && contacts[i].Location.Raw != "" {
			contacts[i].Location = b.classifier.Classify(contacts[i].Location.Raw)
		}
		if b.scorer.HardFilter(contacts[i]) == scoring.FilterRegion {
			contacts[i].Status = domain.StatusFilteredRegion
			contacts[i].SkipReason = fmt.Sprintf("region mismatch: %s", contacts[i].Location.Raw)
		}
	}

	// analyzing
	b.state = StateAnalyzing
	cancelled := false
	analyzed := make(map[int]bool, len(contacts))
	for i := range contacts {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		if contacts[i].Status != domain.StatusPending {
			continue
		}

		_, outcome, err := b.analyzer.Analyze(ctx, &contacts[i])
		if errors.Is(err, analyzer.ErrQuotaExhausted) {
			// graceful stop; unvisited contacts stay pending
			b.info("daily visit quota reached", "analyzed_up_to", i)
			break
		}
		if err != nil {
			if outcome == ports.OutcomeNavigationFailed {
				contacts[i].Status = domain.StatusError
			}
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", contacts[i].ID, err))
			continue
		}
		analyzed[i] = true
	}

	// scoring: every analyzed contact gets its final status; contacts the
	// quota never reached stay pending
	b.state = StateScoring
	now := b.now()
	for i := range contacts {
		if !analyzed[i] || contacts[i].Status != domain.StatusPending {
			continue
		}
		b.scorer.Score(&contacts[i], now)
	}
	scoring.SortByPriority(contacts)

	report := b.scorer.Report(contacts, now)
	result.Contacts = contacts
	result.Report = &report
	result.Success = !cancelled

	if b.repo != nil {
		if err := b.repo.SaveContacts(ctx, contacts); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("persist contacts: %v", err))
		}
	}

	if cancelled {
		b.state = StateComplete
		return result, nil
	}
	b.state = StateComplete
	b.info("pipeline complete", "contacts", len(contacts), "qualified", report.QualifiedCount, "errors", len(result.Errors))
	return result, nil
}

// RunDailyBatch processes a fixed-size preloaded slice (typically from a CSV
// import) and additionally runs the language heuristic over each contact's
// text fields.
func (b *BatchOrchestrator) RunDailyBatch(ctx context.Context, contacts []domain.Contact, batchNumber, batchSize int) (domain.BatchResult, error) {
	if batchSize > 0 && len(contacts) > batchSize {
		contacts = contacts[:batchSize]
	}

	batch := domain.BatchResult{
		BatchNumber:    batchNumber,
		RegionCounts:   map[domain.Region]int{},
		ActivityCounts: map[domain.ActivityLevel]int{},
		LanguageCounts: map[string]int{},
		PriorityCounts: map[domain.Priority]int{},
	}

	now := b.now()
	var scoreSum float64
	var scored int
	cancelled := false

	for i := range contacts {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		c := &contacts[i]

		if c.Location.Region == domain.RegionUnknown && c.Location.Raw != "" {
			c.Location = b.classifier.Classify(c.Location.Raw)
		}

		htmlLang := ""
		if c.Status == domain.StatusPending && b.scorer.HardFilter(*c) == scoring.FilterPass {
			lang, _, err := b.analyzer.Analyze(ctx, c)
			htmlLang = lang
			if errors.Is(err, analyzer.ErrQuotaExhausted) {
				b.info("daily visit quota reached mid-batch", "at", i)
				break
			}
			if err != nil {
				c.Status = domain.StatusError
				batch.Errors = append(batch.Errors, fmt.Sprintf("%s: %v", c.ID, err))
			}
		}

		if b.detector != nil {
			guess := b.detector.Detect(htmlLang, c.Profile.Headline, c.Profile.About, c.Location.Raw)
			batch.LanguageCounts[guess.Detected]++
		}

		if c.Status == domain.StatusPending {
			b.scorer.Score(c, now)
		}

		batch.RegionCounts[c.Location.Region]++
		batch.ActivityCounts[c.Activity.Level]++
		if c.Scores.Priority != "" {
			batch.PriorityCounts[c.Scores.Priority]++
			scoreSum += c.Scores.TotalScore
			scored++
		}
	}

	if scored > 0 {
		batch.AverageScore = scoreSum / float64(scored)
	}
	scoring.SortByPriority(contacts)
	batch.Contacts = contacts
	batch.Success = !cancelled

	if b.repo != nil {
		if err := b.repo.SaveContacts(ctx, contacts); err != nil {
			batch.Errors = append(batch.Errors, fmt.Sprintf("persist batch: %v", err))
		}
	}
	return batch, nil
}

func (b *BatchOrchestrator) info(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Info(msg, args...)
	}
}
