package browser

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"

	"ContactScanner/internal/config"
	"ContactScanner/internal/csvimport"
	"ContactScanner/internal/domain"
	"ContactScanner/internal/ports"
)

var countExpr = regexp.MustCompile(`[\d.,]+`)

// GoqueryExtractor reads the driver's current page HTML and extracts
// structured records using the configured selector table. Swapping the
// selector configuration retargets the extractor without code changes.
type GoqueryExtractor struct {
	driver    ports.BrowserDriver
	selectors config.SelectorConfig
	logger    *slog.Logger
	now       func() time.Time
}

var _ ports.ProfileExtractor = (*GoqueryExtractor)(nil)

// NewGoqueryExtractor wires the driver and selector configuration.
func NewGoqueryExtractor(driver ports.BrowserDriver, selectors config.SelectorConfig, logger *slog.Logger) *GoqueryExtractor {
	return &GoqueryExtractor{driver: driver, selectors: selectors, logger: logger, now: time.Now}
}

// VisibleConnections parses the connection cards currently in the DOM.
func (g *GoqueryExtractor) VisibleConnections(ctx context.Context) ([]domain.Contact, ports.Outcome, error) {
	doc, outcome, err := g.document(ctx)
	if err != nil {
		return nil, outcome, err
	}

	var contacts []domain.Contact
	doc.Find(g.selectors.ConnectionCard).Each(func(_ int, card *goquery.Selection) {
		name := text(card, g.selectors.CardName)
		href, _ := card.Find(g.selectors.CardLink).First().Attr("href")
		if name == "" && href == "" {
			return
		}

		first, last := splitName(name)
		headline := text(card, g.selectors.CardHeadline)
		contact := domain.Contact{
			ID:         csvimport.NormalizeHandle(href),
			ProfileURL: href,
			FirstName:  first,
			LastName:   last,
			Profile: domain.ProfileInfo{
				Headline:    headline,
				HasHeadline: headline != "",
			},
			Activity: domain.ActivityInfo{
				Level:         domain.ActivityUnknown,
				PostFrequency: domain.PostUnknown,
			},
			Location: domain.LocationInfo{
				Raw:    text(card, g.selectors.CardLocation),
				Region: domain.RegionUnknown,
			},
		}
		if contact.ID == "" {
			contact.ID = "name:" + strings.ToLower(strings.ReplaceAll(name, " ", "-"))
		}
		contacts = append(contacts, contact)
	})

	if len(contacts) == 0 {
		return contacts, ports.OutcomeExtractionIncomplete, nil
	}
	return contacts, ports.OutcomeSuccess, nil
}

// ProfileDetails fills completeness and engagement signals from the open
// profile page. Missing structure degrades to defaults instead of failing.
func (g *GoqueryExtractor) ProfileDetails(ctx context.Context, c *domain.Contact) (ports.ProfileObservation, ports.Outcome, error) {
	doc, outcome, err := g.document(ctx)
	if err != nil {
		return ports.ProfileObservation{}, outcome, err
	}

	sel := g.selectors
	c.Profile.HasPhoto = doc.Find(sel.ProfilePhoto).Length() > 0
	c.Profile.HasBanner = doc.Find(sel.ProfileBanner).Length() > 0
	about := strings.TrimSpace(doc.Find(sel.ProfileAbout).First().Text())
	c.Profile.About = about
	c.Profile.HasAbout = about != ""
	c.Profile.ExperienceCount = doc.Find(sel.ExperienceItem).Length()
	c.Profile.EducationCount = doc.Find(sel.EducationItem).Length()
	c.Profile.SkillsCount = doc.Find(sel.SkillItem).Length()

	c.Engagement.FollowersCount = parseCount(doc.Find(sel.FollowerCount).First().Text())
	c.Engagement.ConnectionsCount = parseCount(doc.Find(sel.ConnectionCount).First().Text())
	c.Engagement.IsCreator = doc.Find("[data-creator]").Length() > 0
	c.Engagement.IsPremium = doc.Find("[data-premium]").Length() > 0
	c.Engagement.OpenToMessages = doc.Find(sel.MessageBox).Length() > 0

	obs := ports.ProfileObservation{
		HTMLLang: htmlLang(doc),
	}
	doc.Find(sel.ActivityItem).Each(func(_ int, item *goquery.Selection) {
		raw := strings.TrimSpace(item.Find(sel.ActivityDate).First().Text())
		if raw == "" {
			return
		}
		if when, ok := parseActivityDate(raw, g.now()); ok {
			obs.ActivityDates = append(obs.ActivityDates, when)
		}
	})

	if !c.Profile.HasPhoto && about == "" && len(obs.ActivityDates) == 0 {
		return obs, ports.OutcomeExtractionIncomplete, nil
	}
	return obs, ports.OutcomeSuccess, nil
}

// LoadMore clicks the configured load-more control when it is present.
func (g *GoqueryExtractor) LoadMore(ctx context.Context) (bool, error) {
	doc, _, err := g.document(ctx)
	if err != nil {
		return false, err
	}
	if doc.Find(g.selectors.LoadMoreButton).Length() == 0 {
		return false, nil
	}
	if err := g.driver.Click(ctx, g.selectors.LoadMoreButton); err != nil {
		return false, fmt.Errorf("click load more: %w", err)
	}
	return true, nil
}

func (g *GoqueryExtractor) document(ctx context.Context) (*goquery.Document, ports.Outcome, error) {
	html, err := g.driver.Content(ctx)
	if err != nil {
		return nil, ports.OutcomeNavigationFailed, fmt.Errorf("read page content: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, ports.OutcomeExtractionIncomplete, fmt.Errorf("parse page: %w", err)
	}
	return doc, ports.OutcomeSuccess, nil
}

func text(sel *goquery.Selection, query string) string {
	return strings.TrimSpace(sel.Find(query).First().Text())
}

func htmlLang(doc *goquery.Document) string {
	lang, _ := doc.Find("html").First().Attr("lang")
	return lang
}

func splitName(full string) (first, last string) {
	parts := strings.Fields(strings.TrimSpace(full))
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// parseCount extracts the first number from strings like "1,234 followers".
func parseCount(s string) int {
	match := countExpr.FindString(s)
	if match == "" {
		return 0
	}
	cleaned := strings.NewReplacer(",", "", ".", "").Replace(match)
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0
	}
	return n
}

var relativeExpr = regexp.MustCompile(`(?i)^(\d+)\s*(mo|minute|month|hour|day|week|year|yr|m|h|d|w)`)

// parseActivityDate handles both absolute dates and the "3d", "2w" style
// relative stamps activity feeds use.
func parseActivityDate(raw string, now time.Time) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if m := relativeExpr.FindStringSubmatch(raw); m != nil {
		n, _ := strconv.Atoi(m[1])
		var span time.Duration
		switch strings.ToLower(m[2]) {
		case "m", "minute":
			span = time.Duration(n) * time.Minute
		case "h", "hour":
			span = time.Duration(n) * time.Hour
		case "d", "day":
			span = time.Duration(n) * 24 * time.Hour
		case "w", "week":
			span = time.Duration(n) * 7 * 24 * time.Hour
		case "mo", "month":
			span = time.Duration(n) * 30 * 24 * time.Hour
		case "yr", "year":
			span = time.Duration(n) * 365 * 24 * time.Hour
		}
		return now.Add(-span), true
	}
	if when, err := dateparse.ParseAny(raw); err == nil {
		return when, true
	}
	return time.Time{}, false
}
