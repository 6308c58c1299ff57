package browser

import (
	"context"
	"testing"
	"time"

	"ContactScanner/internal/config"
	"ContactScanner/internal/domain"
	"ContactScanner/internal/ports"
)

type stubDriver struct {
	html    string
	clicked []string
}

func (s *stubDriver) Navigate(context.Context, string) (ports.Outcome, error) {
	return ports.OutcomeSuccess, nil
}
func (s *stubDriver) NewPage(context.Context) error              { return nil }
func (s *stubDriver) ScrollBy(context.Context, int) error        { return nil }
func (s *stubDriver) Screenshot(context.Context) ([]byte, error) { return nil, nil }
func (s *stubDriver) Evaluate(context.Context, string) (string, error) {
	return "", nil
}
func (s *stubDriver) Type(context.Context, string, string, []time.Duration) error {
	return nil
}
func (s *stubDriver) Content(context.Context) (string, error) { return s.html, nil }
func (s *stubDriver) Click(_ context.Context, selector string) error {
	s.clicked = append(s.clicked, selector)
	return nil
}

func testSelectors() config.SelectorConfig {
	return config.SelectorConfig{
		ConnectionCard:  "li.card",
		CardName:        ".name",
		CardHeadline:    ".headline",
		CardLocation:    ".location",
		CardLink:        "a.link",
		LoadMoreButton:  "button.more",
		ActivityItem:    ".activity",
		ActivityDate:    ".date",
		ProfilePhoto:    "img.photo",
		ProfileAbout:    "section.about",
		ProfileBanner:   "img.banner",
		ExperienceItem:  "li.exp",
		EducationItem:   "li.edu",
		SkillItem:       "li.skill",
		FollowerCount:   ".followers",
		ConnectionCount: ".connections",
		MessageBox:      "div.msgbox",
		SendButton:      "button.send",
	}
}

func TestVisibleConnections(t *testing.T) {
	t.Parallel()

	driver := &stubDriver{html: `
	<ul>
	  <li class="card">
	    <span class="name">Anna Maria Schmidt</span>
	    <span class="headline">Engineering Manager</span>
	    <span class="location">Berlin, Germany</span>
	    <a class="link" href="https://www.linkedin.com/in/anna-schmidt/"></a>
	  </li>
	  <li class="card">
	    <span class="name">Pierre Dubois</span>
	    <a class="link" href="https://www.linkedin.com/in/pierre-dubois"></a>
	  </li>
	</ul>`}

	g := NewGoqueryExtractor(driver, testSelectors(), nil)
	contacts, outcome, err := g.VisibleConnections(context.Background())
	if err != nil {
		t.Fatalf("VisibleConnections error: %v", err)
	}
	if outcome != ports.OutcomeSuccess {
		t.Fatalf("unexpected outcome: %s", outcome)
	}
	if len(contacts) != 2 {
		t.Fatalf("expected 2 contacts, got %d", len(contacts))
	}

	anna := contacts[0]
	if anna.ID != "anna-schmidt" {
		t.Fatalf("unexpected id: %s", anna.ID)
	}
	if anna.FirstName != "Anna" || anna.LastName != "Maria Schmidt" {
		t.Fatalf("unexpected name split: %q %q", anna.FirstName, anna.LastName)
	}
	if anna.Location.Raw != "Berlin, Germany" {
		t.Fatalf("unexpected location: %s", anna.Location.Raw)
	}
	if !anna.Profile.HasHeadline {
		t.Fatal("expected headline flag")
	}
}

func TestVisibleConnectionsEmptyPage(t *testing.T) {
	t.Parallel()

	driver := &stubDriver{html: `<div>nothing here</div>`}
	g := NewGoqueryExtractor(driver, testSelectors(), nil)

	contacts, outcome, err := g.VisibleConnections(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != ports.OutcomeExtractionIncomplete {
		t.Fatalf("expected extraction_incomplete, got %s", outcome)
	}
	if len(contacts) != 0 {
		t.Fatalf("expected no contacts, got %d", len(contacts))
	}
}

func TestProfileDetails(t *testing.T) {
	t.Parallel()

	driver := &stubDriver{html: `
	<html lang="de-DE">
	<body>
	  <img class="photo" src="x.jpg">
	  <img class="banner" src="b.jpg">
	  <section class="about">Engineering leader in Berlin.</section>
	  <li class="exp"></li><li class="exp"></li><li class="exp"></li>
	  <li class="edu"></li>
	  <li class="skill"></li><li class="skill"></li>
	  <span class="followers">2,540 followers</span>
	  <span class="connections">500+ connections</span>
	  <div class="msgbox"></div>
	  <div class="activity"><span class="date">3d</span></div>
	  <div class="activity"><span class="date">2w</span></div>
	</body></html>`}

	g := NewGoqueryExtractor(driver, testSelectors(), nil)
	g.now = func() time.Time { return time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC) }

	c := domain.Contact{ID: "anna-schmidt"}
	obs, outcome, err := g.ProfileDetails(context.Background(), &c)
	if err != nil {
		t.Fatalf("ProfileDetails error: %v", err)
	}
	if outcome != ports.OutcomeSuccess {
		t.Fatalf("unexpected outcome: %s", outcome)
	}

	if !c.Profile.HasPhoto || !c.Profile.HasBanner || !c.Profile.HasAbout {
		t.Fatalf("completeness flags wrong: %+v", c.Profile)
	}
	if c.Profile.ExperienceCount != 3 || c.Profile.EducationCount != 1 || c.Profile.SkillsCount != 2 {
		t.Fatalf("section counts wrong: %+v", c.Profile)
	}
	if c.Engagement.FollowersCount != 2540 {
		t.Fatalf("follower count: %d", c.Engagement.FollowersCount)
	}
	if !c.Engagement.OpenToMessages {
		t.Fatal("expected open to messages")
	}
	if obs.HTMLLang != "de-DE" {
		t.Fatalf("html lang: %s", obs.HTMLLang)
	}
	if len(obs.ActivityDates) != 2 {
		t.Fatalf("expected 2 activity dates, got %d", len(obs.ActivityDates))
	}

	want := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	if !obs.ActivityDates[0].Equal(want) {
		t.Fatalf("relative date: got %v want %v", obs.ActivityDates[0], want)
	}
}

func TestLoadMore(t *testing.T) {
	t.Parallel()

	withButton := &stubDriver{html: `<button class="more">Show more</button>`}
	g := NewGoqueryExtractor(withButton, testSelectors(), nil)

	clicked, err := g.LoadMore(context.Background())
	if err != nil {
		t.Fatalf("LoadMore error: %v", err)
	}
	if !clicked {
		t.Fatal("expected click")
	}
	if len(withButton.clicked) != 1 || withButton.clicked[0] != "button.more" {
		t.Fatalf("unexpected click log: %v", withButton.clicked)
	}

	without := &stubDriver{html: `<div></div>`}
	g2 := NewGoqueryExtractor(without, testSelectors(), nil)
	clicked, err = g2.LoadMore(context.Background())
	if err != nil || clicked {
		t.Fatalf("expected no click, got clicked=%v err=%v", clicked, err)
	}
}

func TestParseCount(t *testing.T) {
	t.Parallel()

	cases := map[string]int{
		"2,540 followers":  2540,
		"500+ connections": 500,
		"":                 0,
		"no digits":        0,
	}
	for input, want := range cases {
		if got := parseCount(input); got != want {
			t.Fatalf("parseCount(%q) = %d, want %d", input, got, want)
		}
	}
}
