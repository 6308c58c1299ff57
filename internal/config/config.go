package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone  = "UTC"
	configPathEnv    = "CONTACT_SCANNER_CONFIG"
	databaseDSNEnv   = "DATABASE_DSN"
	dailyVisitsEnv   = "DAILY_VISIT_QUOTA"
	dailyMessagesEnv = "DAILY_MESSAGE_QUOTA"
	logLevelEnv      = "LOG_LEVEL"
)

// Config holds every externally supplied knob: targeting data, scoring
// constants, pacing bounds, quotas, selectors, and templates.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Browser   BrowserConfig   `yaml:"browser"`
	Database  DatabaseConfig  `yaml:"database"`
	Targeting TargetingConfig `yaml:"targeting"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Pacing    PacingConfig    `yaml:"pacing"`
	Quotas    QuotaConfig     `yaml:"quotas"`
	Outreach  OutreachConfig  `yaml:"outreach"`
	Selectors SelectorConfig  `yaml:"selectors"`
	Language  LanguageConfig  `yaml:"language"`
}

// LoggingConfig controls slog verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// BrowserConfig locates the externally launched browser. The binary never
// starts a browser itself; it attaches to the remote debugging endpoint.
type BrowserConfig struct {
	DebugEndpoint  string `yaml:"debugEndpoint"`
	ConnectionsURL string `yaml:"connectionsUrl"`
}

// DatabaseConfig describes the optional Postgres sink.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// TargetingConfig carries the geography tables consumed by the classifier.
type TargetingConfig struct {
	EuropeCountries   []string          `yaml:"europeCountries"`
	AmericasCountries []string          `yaml:"americasCountries"`
	CountryAliases    map[string]string `yaml:"countryAliases"`
	MajorCities       map[string]string `yaml:"majorCities"`
	AreaPatterns      []string          `yaml:"areaPatterns"`
	USStates          []string          `yaml:"usStates"`
	InactivityDays    int               `yaml:"inactivityDays"`
}

// ScoringConfig exposes the scorer's weights, points and thresholds.
type ScoringConfig struct {
	Weights    WeightConfig    `yaml:"weights"`
	Thresholds ThresholdConfig `yaml:"thresholds"`
	Penalties  PenaltyConfig   `yaml:"penalties"`
	DailyPace  int             `yaml:"dailyPace"`
}

// WeightConfig mixes the four sub-scores into the total.
type WeightConfig struct {
	Activity       float64 `yaml:"activity"`
	ProfileQuality float64 `yaml:"profileQuality"`
	Engagement     float64 `yaml:"engagement"`
	Relevance      float64 `yaml:"relevance"`
}

// ThresholdConfig draws the priority boundaries on the total score.
type ThresholdConfig struct {
	High   float64 `yaml:"high"`
	Medium float64 `yaml:"medium"`
	Low    float64 `yaml:"low"`
}

// PenaltyConfig prices each red flag.
type PenaltyConfig struct {
	NoPhoto           float64 `yaml:"noPhoto"`
	InactiveSixMonths float64 `yaml:"inactiveSixMonths"`
	InactiveOneYear   float64 `yaml:"inactiveOneYear"`
	StaleConnection   float64 `yaml:"staleConnection"`
	SuspiciousName    float64 `yaml:"suspiciousName"`
	GenericHeadline   float64 `yaml:"genericHeadline"`
	ConnectionExtreme float64 `yaml:"connectionExtreme"`
}

// PacingConfig bounds the behavior simulator.
type PacingConfig struct {
	SessionMinMinutes int     `yaml:"sessionMinMinutes"`
	SessionMaxMinutes int     `yaml:"sessionMaxMinutes"`
	BreakMinMinutes   int     `yaml:"breakMinMinutes"`
	BreakMaxMinutes   int     `yaml:"breakMaxMinutes"`
	TypingWPMMin      int     `yaml:"typingWpmMin"`
	TypingWPMMax      int     `yaml:"typingWpmMax"`
	ThinkingPauseProb float64 `yaml:"thinkingPauseProb"`
	WorkingHourStart  int     `yaml:"workingHourStart"`
	WorkingHourEnd    int     `yaml:"workingHourEnd"`
	WorkingWeekdays   []int   `yaml:"workingWeekdays"`
	Timezone          string  `yaml:"timezone"`
	location          *time.Location
}

// Location resolves the configured timezone, falling back to UTC.
func (p PacingConfig) Location() *time.Location {
	if p.location != nil {
		return p.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// QuotaConfig caps daily browser spend.
type QuotaConfig struct {
	DailyProfileVisits int `yaml:"dailyProfileVisits"`
	DailyMessages      int `yaml:"dailyMessages"`
	SessionMessages    int `yaml:"sessionMessages"`
	ScanCheckpointEach int `yaml:"scanCheckpointEach"`
	MaxScrollAttempts  int `yaml:"maxScrollAttempts"`
	EmptyScrollLimit   int `yaml:"emptyScrollLimit"`
}

// OutreachConfig holds message templates and the dry-run default.
type OutreachConfig struct {
	Templates []string `yaml:"templates"`
	DryRun    bool     `yaml:"dryRun"`
	DecoyProb float64  `yaml:"decoyProb"`
}

// SelectorConfig maps logical page elements to DOM selectors. The core never
// reads these; only the extractor adapter does.
type SelectorConfig struct {
	ConnectionCard  string `yaml:"connectionCard"`
	CardName        string `yaml:"cardName"`
	CardHeadline    string `yaml:"cardHeadline"`
	CardLocation    string `yaml:"cardLocation"`
	CardLink        string `yaml:"cardLink"`
	LoadMoreButton  string `yaml:"loadMoreButton"`
	ActivityItem    string `yaml:"activityItem"`
	ActivityDate    string `yaml:"activityDate"`
	ProfilePhoto    string `yaml:"profilePhoto"`
	ProfileAbout    string `yaml:"profileAbout"`
	ProfileBanner   string `yaml:"profileBanner"`
	ExperienceItem  string `yaml:"experienceItem"`
	EducationItem   string `yaml:"educationItem"`
	SkillItem       string `yaml:"skillItem"`
	FollowerCount   string `yaml:"followerCount"`
	ConnectionCount string `yaml:"connectionCount"`
	MessageButton   string `yaml:"messageButton"`
	MessageBox      string `yaml:"messageBox"`
	SendButton      string `yaml:"sendButton"`
}

// LanguageConfig feeds the daily-batch language heuristic.
type LanguageConfig struct {
	Keywords   map[string][]string `yaml:"keywords"`
	Diacritics map[string]string   `yaml:"diacritics"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()
	return cfg
}

// Validate fails fast on configuration that would make every run pointless.
func (c Config) Validate() error {
	if len(c.Targeting.EuropeCountries) == 0 && len(c.Targeting.AmericasCountries) == 0 {
		return fmt.Errorf("targeting: no target countries configured")
	}
	if c.Quotas.DailyProfileVisits <= 0 {
		return fmt.Errorf("quotas: dailyProfileVisits must be positive")
	}
	if c.Quotas.DailyMessages <= 0 {
		return fmt.Errorf("quotas: dailyMessages must be positive")
	}
	if len(c.Outreach.Templates) == 0 {
		return fmt.Errorf("outreach: at least one message template is required")
	}
	w := c.Scoring.Weights
	if w.Activity+w.ProfileQuality+w.Engagement+w.Relevance <= 0 {
		return fmt.Errorf("scoring: weights sum to zero")
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(dailyVisitsEnv); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil && n > 0 {
			c.Quotas.DailyProfileVisits = n
		}
	}
	if v := os.Getenv(dailyMessagesEnv); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil && n > 0 {
			c.Quotas.DailyMessages = n
		}
	}
}

func (c *Config) bindTimezone() {
	tz := c.Pacing.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Pacing.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}
	if override.Database.DSN != "" {
		base.Database = override.Database
	}
	if override.Browser.DebugEndpoint != "" {
		base.Browser.DebugEndpoint = override.Browser.DebugEndpoint
	}
	if override.Browser.ConnectionsURL != "" {
		base.Browser.ConnectionsURL = override.Browser.ConnectionsURL
	}
	if len(override.Targeting.EuropeCountries) > 0 || len(override.Targeting.AmericasCountries) > 0 {
		inactivity := base.Targeting.InactivityDays
		base.Targeting = override.Targeting
		if base.Targeting.InactivityDays == 0 {
			base.Targeting.InactivityDays = inactivity
		}
	} else if override.Targeting.InactivityDays > 0 {
		base.Targeting.InactivityDays = override.Targeting.InactivityDays
	}
	if override.Scoring.Weights != (WeightConfig{}) {
		base.Scoring.Weights = override.Scoring.Weights
	}
	if override.Scoring.Thresholds != (ThresholdConfig{}) {
		base.Scoring.Thresholds = override.Scoring.Thresholds
	}
	if override.Scoring.Penalties != (PenaltyConfig{}) {
		base.Scoring.Penalties = override.Scoring.Penalties
	}
	if override.Scoring.DailyPace > 0 {
		base.Scoring.DailyPace = override.Scoring.DailyPace
	}
	if override.Pacing.SessionMaxMinutes > 0 {
		base.Pacing = override.Pacing
	}
	if override.Quotas.DailyProfileVisits > 0 {
		base.Quotas = override.Quotas
	}
	if len(override.Outreach.Templates) > 0 {
		base.Outreach = override.Outreach
	}
	if override.Selectors.ConnectionCard != "" {
		base.Selectors = override.Selectors
	}
	if len(override.Language.Keywords) > 0 || len(override.Language.Diacritics) > 0 {
		base.Language = override.Language
	}
	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Browser: BrowserConfig{
			DebugEndpoint:  "http://127.0.0.1:9222",
			ConnectionsURL: "",
		},
		Database: DatabaseConfig{DSN: ""},
		Targeting: TargetingConfig{
			EuropeCountries: []string{
				"Germany", "France", "United Kingdom", "Netherlands", "Spain",
				"Italy", "Sweden", "Switzerland", "Austria", "Belgium", "Poland",
				"Portugal", "Denmark", "Norway", "Finland", "Ireland", "Czech Republic",
			},
			AmericasCountries: []string{
				"United States", "Canada", "Brazil", "Mexico", "Argentina",
				"Chile", "Colombia", "Peru",
			},
			CountryAliases: map[string]string{
				"usa":                      "United States",
				"u.s.":                     "United States",
				"u.s.a.":                   "United States",
				"united states of america": "United States",
				"america":                  "United States",
				"uk":                       "United Kingdom",
				"u.k.":                     "United Kingdom",
				"great britain":            "United Kingdom",
				"england":                  "United Kingdom",
				"scotland":                 "United Kingdom",
				"wales":                    "United Kingdom",
				"deutschland":              "Germany",
				"holland":                  "Netherlands",
				"the netherlands":          "Netherlands",
				"czechia":                  "Czech Republic",
				"brasil":                   "Brazil",
			},
			MajorCities: map[string]string{
				"berlin": "Germany", "munich": "Germany", "hamburg": "Germany",
				"frankfurt": "Germany", "cologne": "Germany",
				"paris": "France", "lyon": "France", "marseille": "France",
				"london": "United Kingdom", "manchester": "United Kingdom",
				"edinburgh": "United Kingdom", "birmingham": "United Kingdom",
				"amsterdam": "Netherlands", "rotterdam": "Netherlands",
				"madrid": "Spain", "barcelona": "Spain", "valencia": "Spain",
				"milan": "Italy", "rome": "Italy", "turin": "Italy",
				"stockholm": "Sweden", "gothenburg": "Sweden",
				"zurich": "Switzerland", "geneva": "Switzerland",
				"vienna": "Austria", "brussels": "Belgium", "warsaw": "Poland",
				"lisbon": "Portugal", "copenhagen": "Denmark", "oslo": "Norway",
				"helsinki": "Finland", "dublin": "Ireland", "prague": "Czech Republic",
				"new york": "United States", "san francisco": "United States",
				"los angeles": "United States", "chicago": "United States",
				"seattle": "United States", "boston": "United States",
				"austin": "United States", "miami": "United States",
				"toronto": "Canada", "vancouver": "Canada", "montreal": "Canada",
				"sao paulo": "Brazil", "rio de janeiro": "Brazil",
				"mexico city": "Mexico", "buenos aires": "Argentina",
				"santiago": "Chile", "bogota": "Colombia", "lima": "Peru",
				"tokyo": "Japan", "osaka": "Japan", "singapore": "Singapore",
				"sydney": "Australia", "melbourne": "Australia",
				"mumbai": "India", "bangalore": "India", "dubai": "United Arab Emirates",
			},
			AreaPatterns: []string{
				`(?i)greater\s+(.+?)\s+area`,
				`(?i)(.+?)\s+metropolitan\s+area`,
				`(?i)(.+?)\s+bay\s+area`,
				`(?i)(.+?)\s+und\s+umgebung`,
			},
			USStates: []string{
				"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA",
				"HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD",
				"MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ",
				"NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC",
				"SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY",
			},
			InactivityDays: 180,
		},
		Scoring: ScoringConfig{
			Weights: WeightConfig{
				Activity:       0.40,
				ProfileQuality: 0.15,
				Engagement:     0.25,
				Relevance:      0.20,
			},
			Thresholds: ThresholdConfig{High: 70, Medium: 45, Low: 20},
			Penalties: PenaltyConfig{
				NoPhoto:           10,
				InactiveSixMonths: 15,
				InactiveOneYear:   25,
				StaleConnection:   10,
				SuspiciousName:    20,
				GenericHeadline:   10,
				ConnectionExtreme: 15,
			},
			DailyPace: 25,
		},
		Pacing: PacingConfig{
			SessionMinMinutes: 20,
			SessionMaxMinutes: 45,
			BreakMinMinutes:   5,
			BreakMaxMinutes:   15,
			TypingWPMMin:      35,
			TypingWPMMax:      65,
			ThinkingPauseProb: 0.04,
			WorkingHourStart:  9,
			WorkingHourEnd:    18,
			WorkingWeekdays:   []int{1, 2, 3, 4, 5},
			Timezone:          defaultTimezone,
			location:          tz,
		},
		Quotas: QuotaConfig{
			DailyProfileVisits: 50,
			DailyMessages:      20,
			SessionMessages:    8,
			ScanCheckpointEach: 50,
			MaxScrollAttempts:  300,
			EmptyScrollLimit:   5,
		},
		Outreach: OutreachConfig{
			Templates: []string{
				"Hi {firstName}, I came across your profile and your work at {company} caught my eye. Would love to connect properly.",
				"Hello {firstName}, your experience as {role} looks really interesting. Happy to share notes if you are open to it.",
			},
			DryRun:    true,
			DecoyProb: 0.06,
		},
		Selectors: SelectorConfig{
			ConnectionCard:  "li.connection-card",
			CardName:        ".connection-card__name",
			CardHeadline:    ".connection-card__occupation",
			CardLocation:    ".connection-card__location",
			CardLink:        "a.connection-card__link",
			LoadMoreButton:  "button.scaffold-finite-scroll__load-button",
			ActivityItem:    ".activity-item",
			ActivityDate:    ".activity-item__date",
			ProfilePhoto:    "img.profile-photo",
			ProfileAbout:    "section.about",
			ProfileBanner:   "img.profile-banner",
			ExperienceItem:  "li.experience-item",
			EducationItem:   "li.education-item",
			SkillItem:       "li.skill-item",
			FollowerCount:   ".follower-count",
			ConnectionCount: ".connection-count",
			MessageButton:   "button.pvs-profile-actions__message",
			MessageBox:      "div.msg-form__contenteditable",
			SendButton:      "button.msg-form__send-button",
		},
		Language: LanguageConfig{
			Keywords: map[string][]string{
				"en": {"the", "and", "with", "for", "manager", "engineer"},
				"de": {"und", "der", "die", "das", "bei", "für", "leiter"},
				"fr": {"et", "le", "la", "les", "chez", "pour", "chef"},
				"es": {"el", "la", "los", "con", "para", "gerente"},
				"pt": {"o", "da", "do", "com", "para", "gerente"},
				"nl": {"de", "het", "en", "bij", "voor", "manager"},
			},
			Diacritics: map[string]string{
				"de": "äöüß",
				"fr": "éèêàçù",
				"es": "ñáíóú¿¡",
				"pt": "ãõç",
				"sv": "åäö",
			},
		},
	}
}
