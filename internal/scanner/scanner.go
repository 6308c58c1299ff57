package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ContactScanner/internal/config"
	"ContactScanner/internal/domain"
	"ContactScanner/internal/humanize"
	"ContactScanner/internal/ports"
)

// Scanner walks the connections list one humanized scroll at a time,
// deduplicating by stable contact id and checkpointing progress so an
// interrupted scan can resume. The scroll-attempt ceiling and the
// consecutive-empty limit guarantee termination even when the page keeps
// claiming new content.
type Scanner struct {
	driver    ports.BrowserDriver
	extractor ports.ProfileExtractor
	repo      ports.ContactRepository
	simulator *humanize.Simulator
	quotas    config.QuotaConfig
	logger    *slog.Logger
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) bool
}

// Deps wires the scanner's collaborators. Repo may be nil, which disables
// checkpointing.
type Deps struct {
	Driver    ports.BrowserDriver
	Extractor ports.ProfileExtractor
	Repo      ports.ContactRepository
	Simulator *humanize.Simulator
	Quotas    config.QuotaConfig
	Logger    *slog.Logger
	Now       func() time.Time
	Sleep     func(ctx context.Context, d time.Duration) bool
}

// New constructs a scanner.
func New(deps Deps) *Scanner {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	slp := deps.Sleep
	if slp == nil {
		slp = waitFor
	}
	return &Scanner{
		driver:    deps.Driver,
		extractor: deps.Extractor,
		repo:      deps.Repo,
		simulator: deps.Simulator,
		quotas:    deps.Quotas,
		logger:    deps.Logger,
		now:       now,
		sleep:     slp,
	}
}

// Scan extracts the full connections list. It returns whatever was gathered
// so far when the context is cancelled, together with ctx.Err().
func (s *Scanner) Scan(ctx context.Context) ([]domain.Contact, error) {
	seen := map[string]bool{}
	var collected []domain.Contact
	emptyStreak := 0
	sinceCheckpoint := 0

	if s.simulator.HasWorkingWindow() {
		if wait := s.simulator.WaitUntilOpen(s.now()); wait > 0 {
			s.debug("outside working hours", "wait", wait)
			if !s.sleep(ctx, wait) {
				return collected, ctx.Err()
			}
		}
	}

	if s.simulator.Session() == nil {
		s.simulator.StartSession(s.now())
	}

	for attempt := 0; attempt < s.quotas.MaxScrollAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return collected, err
		}

		if s.simulator.ShouldEndSession(s.now()) {
			s.rollSession(ctx)
		}

		visible, outcome, err := s.extractor.VisibleConnections(ctx)
		if err != nil && outcome != ports.OutcomeExtractionIncomplete {
			return collected, fmt.Errorf("extract visible connections: %w", err)
		}

		fresh := 0
		for _, c := range visible {
			if c.ID == "" || seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			c.Status = domain.StatusPending
			c.CreatedAt = s.now()
			collected = append(collected, c)
			fresh++
		}
		sinceCheckpoint += fresh

		if fresh == 0 {
			emptyStreak++
			if emptyStreak >= s.quotas.EmptyScrollLimit {
				s.debug("scan complete, no new connections", "total", len(collected))
				break
			}
		} else {
			emptyStreak = 0
		}

		if s.repo != nil && s.quotas.ScanCheckpointEach > 0 && sinceCheckpoint >= s.quotas.ScanCheckpointEach {
			s.checkpoint(ctx, collected, sinceCheckpoint)
			sinceCheckpoint = 0
		}

		if err := s.driver.ScrollBy(ctx, s.simulator.ScrollDelta()); err != nil {
			return collected, fmt.Errorf("scroll connections list: %w", err)
		}
		s.simulator.RecordAction()

		if !s.sleep(ctx, s.simulator.Delay(800*time.Millisecond, 3*time.Second)) {
			return collected, ctx.Err()
		}
		if s.simulator.ShouldTakeBreak() {
			s.sleep(ctx, s.simulator.Delay(4*time.Second, 15*time.Second))
		}

		if clicked, err := s.extractor.LoadMore(ctx); err == nil && clicked {
			s.simulator.RecordAction()
			s.sleep(ctx, s.simulator.Delay(time.Second, 3*time.Second))
		}
	}

	if s.repo != nil && sinceCheckpoint > 0 {
		s.checkpoint(ctx, collected, sinceCheckpoint)
	}
	return collected, nil
}

// rollSession takes a randomized break and opens a fresh session.
func (s *Scanner) rollSession(ctx context.Context) {
	s.debug("session bound reached, taking break")
	s.simulator.EndSession(s.now())
	s.sleep(ctx, s.simulator.BreakDuration())
	s.simulator.StartSession(s.now())
}

func (s *Scanner) checkpoint(ctx context.Context, collected []domain.Contact, fresh int) {
	tail := collected[len(collected)-fresh:]
	if err := s.repo.SaveContacts(ctx, tail); err != nil {
		s.warn("checkpoint save failed", "error", err)
		s.simulator.RecordWarning(fmt.Sprintf("checkpoint save failed: %v", err))
		return
	}
	lastID := collected[len(collected)-1].ID
	if err := s.repo.SaveCheckpoint(ctx, len(collected), lastID); err != nil {
		s.warn("checkpoint marker failed", "error", err)
	}
	s.debug("checkpoint", "scanned", len(collected), "last", lastID)
}

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

func (s *Scanner) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *Scanner) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
