package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	_ "github.com/lib/pq"

	"ContactScanner/internal/analyzer"
	"ContactScanner/internal/config"
	"ContactScanner/internal/csvimport"
	"ContactScanner/internal/domain"
	"ContactScanner/internal/geo"
	"ContactScanner/internal/humanize"
	"ContactScanner/internal/infrastructure/browser"
	"ContactScanner/internal/infrastructure/storage"
	"ContactScanner/internal/langdetect"
	"ContactScanner/internal/logging"
	"ContactScanner/internal/orchestrator"
	"ContactScanner/internal/ports"
	"ContactScanner/internal/quota"
	"ContactScanner/internal/scanner"
	"ContactScanner/internal/scoring"
)

// Application is the single construction site: configuration goes in, wired
// strategies come out. Browser attachment is deferred until a command that
// needs a page.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	classifier *geo.Classifier
	scorer     *scoring.Scorer
	detector   *langdetect.Detector
	simulator  *humanize.Simulator
	importer   *csvimport.Importer

	db   *sql.DB
	repo ports.ContactRepository

	driver    *browser.DevToolsDriver
	extractor ports.ProfileExtractor
}

// New validates the configuration and builds every component that does not
// need a live browser.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	a := &Application{
		cfg:        cfg,
		logger:     baseLogger,
		classifier: geo.NewClassifier(cfg.Targeting),
		scorer:     scoring.NewScorer(cfg.Scoring, cfg.Targeting.InactivityDays),
		detector:   langdetect.NewDetector(cfg.Language),
		simulator:  humanize.NewSimulator(cfg.Pacing),
		importer:   csvimport.NewImporter(logging.Component(baseLogger, "importer")),
	}

	if cfg.Database.DSN != "" {
		db, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		a.db = db
		a.repo = storage.NewPostgresRepository(db)
	}
	return a, nil
}

// Close releases the database and browser connections.
func (a *Application) Close() {
	if a.driver != nil {
		_ = a.driver.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *Application) attachBrowser(ctx context.Context) error {
	if a.driver != nil {
		return nil
	}
	driver, err := browser.NewDevToolsDriver(ctx, a.cfg.Browser.DebugEndpoint, logging.Component(a.logger, "devtools"))
	if err != nil {
		return fmt.Errorf("attach browser: %w", err)
	}
	a.driver = driver
	a.extractor = browser.NewGoqueryExtractor(driver, a.cfg.Selectors, logging.Component(a.logger, "extractor"))
	return nil
}

func (a *Application) newAnalyzer() (*analyzer.Analyzer, error) {
	return analyzer.New(analyzer.Deps{
		Driver:    a.driver,
		Extractor: a.extractor,
		Simulator: a.simulator,
		Visits:    quota.NewDailyCounter(a.cfg.Quotas.DailyProfileVisits, a.cfg.Pacing.Location()),
		Logger:    logging.Component(a.logger, "analyzer"),
	})
}

// RunScan walks the connections list and persists what it finds.
func (a *Application) RunScan(ctx context.Context) error {
	if err := a.attachBrowser(ctx); err != nil {
		return err
	}
	if a.cfg.Browser.ConnectionsURL != "" {
		if outcome, err := a.driver.Navigate(ctx, a.cfg.Browser.ConnectionsURL); err != nil {
			return fmt.Errorf("open connections list (%s): %w", outcome, err)
		}
	}

	sc := scanner.New(scanner.Deps{
		Driver:    a.driver,
		Extractor: a.extractor,
		Repo:      a.repo,
		Simulator: a.simulator,
		Quotas:    a.cfg.Quotas,
		Logger:    logging.Component(a.logger, "scanner"),
	})
	contacts, err := sc.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan connections: %w", err)
	}
	a.logger.Info("scan complete", "contacts", len(contacts))
	return nil
}

// RunBatch executes the full pipeline. With a connections CSV the scan phase
// is skipped and the file supplies the input.
func (a *Application) RunBatch(ctx context.Context, connectionsCSV string, out io.Writer) error {
	if err := a.attachBrowser(ctx); err != nil {
		return err
	}

	var contacts []domain.Contact
	if connectionsCSV != "" {
		loaded, err := a.loadConnections(connectionsCSV)
		if err != nil {
			return err
		}
		contacts = loaded
	}

	anlz, err := a.newAnalyzer()
	if err != nil {
		return err
	}
	sc := scanner.New(scanner.Deps{
		Driver:    a.driver,
		Extractor: a.extractor,
		Repo:      a.repo,
		Simulator: a.simulator,
		Quotas:    a.cfg.Quotas,
		Logger:    logging.Component(a.logger, "scanner"),
	})

	registry := orchestrator.NewRegistry()
	registry.Register(orchestrator.NewBatch(orchestrator.BatchDeps{
		Scanner:    sc,
		Analyzer:   anlz,
		Classifier: a.classifier,
		Scorer:     a.scorer,
		Detector:   a.detector,
		Repo:       a.repo,
		Logger:     logging.Component(a.logger, "batch"),
	}))

	strategy, err := registry.Resolve("batch")
	if err != nil {
		return err
	}
	result, err := strategy.Run(ctx, contacts)
	if err != nil {
		return fmt.Errorf("run batch pipeline: %w", err)
	}
	if result.Report != nil {
		PrintReport(out, *result.Report)
	}
	for _, msg := range result.Errors {
		a.logger.Warn("batch issue", "detail", msg)
	}
	if !result.Success {
		a.logger.Warn("batch ended early", "contacts", len(result.Contacts))
	}
	return nil
}

// RunOutreach messages qualified contacts from the connections CSV,
// skipping anyone present in the message history export.
func (a *Application) RunOutreach(ctx context.Context, connectionsCSV, messagesCSV string, dryRun bool) error {
	if err := a.attachBrowser(ctx); err != nil {
		return err
	}

	contacts, err := a.loadConnections(connectionsCSV)
	if err != nil {
		return err
	}
	messaged := map[string]bool{}
	if messagesCSV != "" {
		messaged, err = a.loadMessaged(messagesCSV)
		if err != nil {
			return err
		}
	}

	outreachCfg := a.cfg.Outreach
	if dryRun {
		outreachCfg.DryRun = true
	}

	sender := browser.NewMessageBoxSender(a.driver, a.cfg.Selectors, a.simulator, logging.Component(a.logger, "sender"))
	engine := orchestrator.NewOutreach(orchestrator.OutreachDeps{
		Driver:     a.driver,
		Extractor:  a.extractor,
		Classifier: a.classifier,
		Scorer:     a.scorer,
		Simulator:  a.simulator,
		Sender:     sender,
		Messages:   quota.NewDailyCounter(a.cfg.Quotas.DailyMessages, a.cfg.Pacing.Location()),
		Messaged:   messaged,
		Outreach:   outreachCfg,
		SessionMax: a.cfg.Quotas.SessionMessages,
		Logger:     logging.Component(a.logger, "outreach"),
	})

	result, err := engine.Run(ctx, contacts)
	if err != nil {
		return fmt.Errorf("run outreach: %w", err)
	}

	tally := map[domain.OutreachDisposition]int{}
	for _, r := range result.Outreach {
		tally[r.Disposition]++
	}
	a.logger.Info("outreach finished",
		"processed", len(result.Outreach),
		"sent", tally[domain.OutreachSent],
		"dry_run", tally[domain.OutreachDryRun],
		"skipped_messaged", tally[domain.OutreachSkippedMessaged],
	)
	if a.repo != nil {
		if err := a.repo.SaveContacts(ctx, result.Contacts); err != nil {
			return fmt.Errorf("persist outreach results: %w", err)
		}
	}
	return nil
}

// RunImport parses the CSV exports, classifies locations, and persists the
// contacts when a repository is configured.
func (a *Application) RunImport(ctx context.Context, connectionsCSV, messagesCSV string, out io.Writer) error {
	contacts, err := a.loadConnections(connectionsCSV)
	if err != nil {
		return err
	}

	messaged := map[string]bool{}
	if messagesCSV != "" {
		messaged, err = a.loadMessaged(messagesCSV)
		if err != nil {
			return err
		}
	}

	for i := range contacts {
		contacts[i].Location = a.classifier.Classify(contacts[i].Location.Raw)
		if messaged[csvimport.NormalizeHandle(contacts[i].ProfileURL)] {
			contacts[i].HasMessaged = true
		}
	}

	fmt.Fprintf(out, "imported %d contacts (%d with message history)\n", len(contacts), len(messaged))
	if a.repo != nil {
		if err := a.repo.SaveContacts(ctx, contacts); err != nil {
			return fmt.Errorf("persist imported contacts: %w", err)
		}
		fmt.Fprintln(out, "saved to database")
	}
	return nil
}

func (a *Application) loadConnections(path string) ([]domain.Contact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open connections export: %w", err)
	}
	defer f.Close()
	contacts, err := a.importer.Connections(f)
	if err != nil {
		return nil, fmt.Errorf("parse connections export: %w", err)
	}
	return contacts, nil
}

func (a *Application) loadMessaged(path string) (map[string]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open messages export: %w", err)
	}
	defer f.Close()
	messaged, err := a.importer.MessagedSet(f)
	if err != nil {
		return nil, fmt.Errorf("parse messages export: %w", err)
	}
	return messaged, nil
}

// PrintReport renders the analysis report for terminal review.
func PrintReport(w io.Writer, r domain.AnalysisReport) {
	fmt.Fprintf(w, "analysis report (%s)\n", r.GeneratedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "  contacts analyzed: %d\n", r.TotalContacts)
	fmt.Fprintf(w, "  qualified:         %d (avg score %.1f)\n", r.QualifiedCount, r.AverageScore)
	fmt.Fprintf(w, "  outreach plan:     %d/day for ~%d days\n", r.DailyOutreachPace, r.RecommendedDays)

	fmt.Fprintln(w, "  by priority:")
	for _, p := range []domain.Priority{domain.PriorityHigh, domain.PriorityMedium, domain.PriorityLow, domain.PrioritySkip} {
		if n := r.PriorityCounts[p]; n > 0 {
			fmt.Fprintf(w, "    %-8s %d\n", p, n)
		}
	}

	if len(r.RegionCounts) > 0 {
		fmt.Fprintln(w, "  by region:")
		regions := make([]string, 0, len(r.RegionCounts))
		for region := range r.RegionCounts {
			regions = append(regions, string(region))
		}
		sort.Strings(regions)
		for _, region := range regions {
			fmt.Fprintf(w, "    %-8s %d\n", region, r.RegionCounts[domain.Region(region)])
		}
	}

	printTop := func(label string, entries []domain.FrequencyEntry) {
		if len(entries) == 0 {
			return
		}
		fmt.Fprintf(w, "  top %s:\n", label)
		for _, e := range entries {
			fmt.Fprintf(w, "    %-24s %d\n", e.Value, e.Count)
		}
	}
	printTop("countries", r.TopCountries)
	printTop("companies", r.TopCompanies)
	printTop("roles", r.TopRoles)
}
