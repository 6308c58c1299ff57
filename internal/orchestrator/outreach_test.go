package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContactScanner/internal/config"
	"ContactScanner/internal/domain"
	"ContactScanner/internal/geo"
	"ContactScanner/internal/humanize"
	"ContactScanner/internal/quota"
	"ContactScanner/internal/scoring"
)

type recordingSender struct {
	mu       sync.Mutex
	messages []string
	fail     bool
}

func (r *recordingSender) Send(_ context.Context, _ domain.Contact, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return fmt.Errorf("message box not found")
	}
	r.messages = append(r.messages, message)
	return nil
}

type outreachEnv struct {
	engine *OutreachEngine
	driver *stubDriver
	sender *recordingSender
	clock  *fakeClock
}

type outreachOpts struct {
	messageLimit int
	sessionMax   int
	dryRun       bool
	messaged     map[string]bool
	failURLs     map[string]bool
}

func newOutreachEnv(t *testing.T, opts outreachOpts) *outreachEnv {
	t.Helper()

	clock := &fakeClock{cur: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)}
	driver := &stubDriver{failURLs: opts.failURLs}
	sender := &recordingSender{}
	sim := humanize.NewSimulatorWithSeed(testPacing(), 11)

	engine := NewOutreach(OutreachDeps{
		Driver:     driver,
		Extractor:  &stubExtractor{clock: clock, htmlLang: "de"},
		Classifier: geo.NewClassifier(testTargeting()),
		Scorer:     scoring.NewScorer(testScoring(), 180),
		Simulator:  sim,
		Sender:     sender,
		Messages:   quota.NewDailyCounter(opts.messageLimit, time.UTC),
		Messaged:   opts.messaged,
		Outreach: config.OutreachConfig{
			Templates: []string{"Hi {firstName}, saw your work at {company} as {role}."},
			DryRun:    opts.dryRun,
		},
		SessionMax: opts.sessionMax,
		Now:        clock.Now,
		Sleep:      clock.Sleep,
	})
	return &outreachEnv{engine: engine, driver: driver, sender: sender, clock: clock}
}

func TestOutreachSendsToQualifiedContact(t *testing.T) {
	t.Parallel()

	env := newOutreachEnv(t, outreachOpts{messageLimit: 20, sessionMax: 8})
	result, err := env.engine.Run(context.Background(), pendingContacts(1))

	require.NoError(t, err)
	assert.True(t, result.Success)
	require.Len(t, result.Outreach, 1)
	assert.Equal(t, domain.OutreachSent, result.Outreach[0].Disposition)
	assert.Equal(t, domain.StatusContacted, result.Contacts[0].Status)
	assert.True(t, result.Contacts[0].HasMessaged)

	require.Len(t, env.sender.messages, 1)
	assert.Equal(t, "Hi Anna, saw your work at Acme GmbH as Engineering Manager.", env.sender.messages[0])
}

func TestOutreachSkipsPreviouslyMessagedWithoutNavigating(t *testing.T) {
	t.Parallel()

	messaged := map[string]bool{"contact-00": true}
	env := newOutreachEnv(t, outreachOpts{messageLimit: 20, sessionMax: 8, messaged: messaged})
	result, err := env.engine.Run(context.Background(), pendingContacts(1))

	require.NoError(t, err)
	require.Len(t, result.Outreach, 1)
	assert.Equal(t, domain.OutreachSkippedMessaged, result.Outreach[0].Disposition)
	assert.Empty(t, env.driver.navigations, "history skips must not spend a page visit")
	assert.Empty(t, env.sender.messages)
	assert.Equal(t, domain.StatusContacted, result.Contacts[0].Status)
}

func TestOutreachStopsAtDailyMessageQuota(t *testing.T) {
	t.Parallel()

	env := newOutreachEnv(t, outreachOpts{messageLimit: 2, sessionMax: 8})
	result, err := env.engine.Run(context.Background(), pendingContacts(5))

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Len(t, env.sender.messages, 2)
	assert.Len(t, result.Outreach, 2, "loop stops before visiting past the quota")
}

func TestOutreachStopsAtSessionCap(t *testing.T) {
	t.Parallel()

	env := newOutreachEnv(t, outreachOpts{messageLimit: 20, sessionMax: 1})
	result, err := env.engine.Run(context.Background(), pendingContacts(4))

	require.NoError(t, err)
	assert.Len(t, env.sender.messages, 1)
	assert.Len(t, result.Outreach, 1)
}

func TestOutreachDryRunQueuesWithoutSending(t *testing.T) {
	t.Parallel()

	env := newOutreachEnv(t, outreachOpts{messageLimit: 20, sessionMax: 8, dryRun: true})
	result, err := env.engine.Run(context.Background(), pendingContacts(1))

	require.NoError(t, err)
	require.Len(t, result.Outreach, 1)
	assert.Equal(t, domain.OutreachDryRun, result.Outreach[0].Disposition)
	assert.Equal(t, domain.StatusQueued, result.Contacts[0].Status)
	assert.Empty(t, env.sender.messages)
	assert.Contains(t, result.Outreach[0].Message, "Anna")
}

func TestOutreachSkipsOutOfRegionAfterVisit(t *testing.T) {
	t.Parallel()

	env := newOutreachEnv(t, outreachOpts{messageLimit: 20, sessionMax: 8})
	contacts := []domain.Contact{{
		ID:         "far-away",
		ProfileURL: "https://example.com/in/far-away",
		FirstName:  "Yuki",
		Location:   domain.LocationInfo{Raw: "Tokyo, Japan"},
		Status:     domain.StatusPending,
	}}

	result, err := env.engine.Run(context.Background(), contacts)

	require.NoError(t, err)
	require.Len(t, result.Outreach, 1)
	assert.Equal(t, domain.OutreachSkippedRegion, result.Outreach[0].Disposition)
	assert.Len(t, env.driver.navigations, 1, "region verdict needs the visited profile")
	assert.Empty(t, env.sender.messages)
}

func TestOutreachRecordsNavigationFailureAndContinues(t *testing.T) {
	t.Parallel()

	bad := "https://example.com/in/contact-00"
	env := newOutreachEnv(t, outreachOpts{
		messageLimit: 20,
		sessionMax:   8,
		failURLs:     map[string]bool{bad: true},
	})

	result, err := env.engine.Run(context.Background(), pendingContacts(2))

	require.NoError(t, err)
	require.Len(t, result.Outreach, 2)
	assert.Equal(t, domain.OutreachNavigationFailed, result.Outreach[0].Disposition)
	assert.NotEmpty(t, result.Outreach[0].Err)
	assert.Equal(t, domain.OutreachSent, result.Outreach[1].Disposition)
}

func TestOutreachCancellationStopsLoop(t *testing.T) {
	t.Parallel()

	env := newOutreachEnv(t, outreachOpts{messageLimit: 20, sessionMax: 8})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := env.engine.Run(ctx, pendingContacts(3))

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Empty(t, result.Outreach)
}

func TestRenderTemplate(t *testing.T) {
	t.Parallel()

	c := domain.Contact{
		FirstName: "Anna",
		LastName:  "Schmidt",
		Profile:   domain.ProfileInfo{Company: "Acme GmbH", Role: "Engineer"},
	}
	got := RenderTemplate("Hi {firstName} {lastName}, {role} at {company}?", c)
	assert.Equal(t, "Hi Anna Schmidt, Engineer at Acme GmbH?", got)
}

func TestRenderTemplateCollapsesEmptyFields(t *testing.T) {
	t.Parallel()

	c := domain.Contact{FirstName: "Anna"}
	got := RenderTemplate("Hi {firstName} {lastName}, great profile.", c)
	assert.False(t, strings.Contains(got, "  "))
	assert.Equal(t, "Hi Anna , great profile.", got)
}
