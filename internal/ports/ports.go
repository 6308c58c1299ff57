package ports

import (
	"context"
	"time"

	"ContactScanner/internal/domain"
)

// Outcome classifies the result of a navigation or extraction call so that
// callers branch on outcome kind instead of inspecting error strings.
type Outcome string

const (
	OutcomeSuccess              Outcome = "success"
	OutcomeNavigationFailed     Outcome = "navigation_failed"
	OutcomeExtractionIncomplete Outcome = "extraction_incomplete"
	OutcomeTimeout              Outcome = "timeout"
	OutcomeRateLimited          Outcome = "rate_limited"
)

// BrowserDriver is the injected automation capability. Stealth and headless
// configuration live with the implementation, never in the core.
type BrowserDriver interface {
	Navigate(ctx context.Context, url string) (Outcome, error)
	NewPage(ctx context.Context) error
	Type(ctx context.Context, selector, text string, perChar []time.Duration) error
	Click(ctx context.Context, selector string) error
	Evaluate(ctx context.Context, script string) (string, error)
	ScrollBy(ctx context.Context, px int) error
	Screenshot(ctx context.Context) ([]byte, error)
	Content(ctx context.Context) (string, error)
}

// ProfileObservation carries page-level raw material the extractor cannot
// fold into the contact itself: dated activity items for recency analysis
// and the document language attribute for the language heuristic.
type ProfileObservation struct {
	ActivityDates []time.Time
	HTMLLang      string
}

// ProfileExtractor turns the driver's current page into structured records.
// Selector tables are configuration owned by the implementation; scoring and
// orchestration never see a DOM selector.
type ProfileExtractor interface {
	// VisibleConnections extracts the connection cards currently rendered on
	// the list view.
	VisibleConnections(ctx context.Context) ([]domain.Contact, Outcome, error)
	// ProfileDetails extracts activity/engagement signals from an open
	// profile page, merges them into the contact, and reports raw
	// observations.
	ProfileDetails(ctx context.Context, contact *domain.Contact) (ProfileObservation, Outcome, error)
	// LoadMore clicks the list view's load-more control when present,
	// reporting whether anything was clicked.
	LoadMore(ctx context.Context) (bool, error)
}

// ContactRepository persists enriched contacts and scan checkpoints. Storage
// ownership is external; the core only emits records through this port.
type ContactRepository interface {
	KnownIDs(ctx context.Context, ids []string) (map[string]bool, error)
	SaveContacts(ctx context.Context, contacts []domain.Contact) error
	SaveCheckpoint(ctx context.Context, scanned int, lastID string) error
}

// MessageSender delivers a rendered outreach message to one contact.
type MessageSender interface {
	Send(ctx context.Context, contact domain.Contact, message string) error
}
