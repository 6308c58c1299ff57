package humanize

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"ContactScanner/internal/config"
	"ContactScanner/internal/domain"
)

// Simulator produces randomized, gaussian-shaped timing and movement
// parameters so that automated actions blend into manual traffic. It only
// reduces statistical detectability; it makes no stronger guarantee.
type Simulator struct {
	cfg config.PacingConfig
	rng *rand.Rand

	session      *domain.Session
	sessionBound time.Duration
}

// NewSimulator seeds the simulator from the wall clock.
func NewSimulator(cfg config.PacingConfig) *Simulator {
	return NewSimulatorWithSeed(cfg, time.Now().UnixNano())
}

// NewSimulatorWithSeed fixes the random source, used by tests.
func NewSimulatorWithSeed(cfg config.PacingConfig, seed int64) *Simulator {
	return &Simulator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Delay samples a normal distribution centered between min and max with
// stddev (max-min)/6, clamped so the result always lands inside [min, max].
func (s *Simulator) Delay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	mean := float64(min+max) / 2
	stddev := float64(max-min) / 6
	sample := s.rng.NormFloat64()*stddev + mean
	if sample < float64(min) {
		return min
	}
	if sample > float64(max) {
		return max
	}
	return time.Duration(sample)
}

// TypingDelays computes a per-character delay schedule for text, derived
// from the configured words-per-minute range (one word is five characters).
// Delays stretch 1.2x-2.5x after punctuation and spaces, and an occasional
// thinking pause of 500-2000 ms is injected.
func (s *Simulator) TypingDelays(text string) []time.Duration {
	wpm := s.cfg.TypingWPMMin
	if s.cfg.TypingWPMMax > wpm {
		wpm += s.rng.Intn(s.cfg.TypingWPMMax - s.cfg.TypingWPMMin + 1)
	}
	if wpm <= 0 {
		wpm = 40
	}
	// chars per minute = wpm * 5; base delay is its inverse.
	base := time.Minute / time.Duration(wpm*5)

	delays := make([]time.Duration, 0, len(text))
	prev := rune(0)
	for _, r := range text {
		d := s.Delay(base/2, base*2)
		if isPauseTrigger(prev) {
			factor := 1.2 + s.rng.Float64()*1.3
			d = time.Duration(float64(d) * factor)
		}
		if s.rng.Float64() < s.cfg.ThinkingPauseProb {
			d += s.Delay(500*time.Millisecond, 2*time.Second)
		}
		delays = append(delays, d)
		prev = r
	}
	return delays
}

func isPauseTrigger(r rune) bool {
	return r == ' ' || strings.ContainsRune(".,;:!?", r)
}

// Point is a 2D page coordinate.
type Point struct {
	X float64
	Y float64
}

// PathStep is one interpolated cursor position with its dwell time.
type PathStep struct {
	Pos   Point
	Delay time.Duration
}

// ScrollPath interpolates a cubic Bezier curve from a to b with randomly
// perturbed control points. Dwell times ease near both endpoints, the way a
// hand slows into and out of a movement.
func (s *Simulator) ScrollPath(a, b Point, steps int) []PathStep {
	if steps < 2 {
		steps = 2
	}

	spanX := b.X - a.X
	spanY := b.Y - a.Y
	c1 := Point{
		X: a.X + spanX/3 + s.perturb(spanX),
		Y: a.Y + spanY/3 + s.perturb(spanY),
	}
	c2 := Point{
		X: a.X + 2*spanX/3 + s.perturb(spanX),
		Y: a.Y + 2*spanY/3 + s.perturb(spanY),
	}

	path := make([]PathStep, 0, steps)
	for i := 0; i < steps; i++ {
		t := float64(i) / float64(steps-1)
		path = append(path, PathStep{
			Pos:   bezier(a, c1, c2, b, t),
			Delay: s.stepDelay(t),
		})
	}
	return path
}

func (s *Simulator) perturb(span float64) float64 {
	magnitude := math.Abs(span) * 0.2
	if magnitude < 5 {
		magnitude = 5
	}
	return (s.rng.Float64()*2 - 1) * magnitude
}

func bezier(p0, p1, p2, p3 Point, t float64) Point {
	u := 1 - t
	return Point{
		X: u*u*u*p0.X + 3*u*u*t*p1.X + 3*u*t*t*p2.X + t*t*t*p3.X,
		Y: u*u*u*p0.Y + 3*u*u*t*p1.Y + 3*u*t*t*p2.Y + t*t*t*p3.Y,
	}
}

// stepDelay slows near t=0 and t=1 via a raised-cosine easing.
func (s *Simulator) stepDelay(t float64) time.Duration {
	base := s.Delay(8*time.Millisecond, 25*time.Millisecond)
	// cos(2*pi*t) is 1 at both endpoints and -1 mid-path.
	edge := 1 + 0.8*(math.Cos(2*math.Pi*t)+1)/2
	return time.Duration(float64(base) * edge)
}

// ScrollDelta picks a humanized scroll distance in pixels.
func (s *Simulator) ScrollDelta() int {
	return 400 + s.rng.Intn(500)
}

// StartSession opens a new pacing session with a freshly sampled duration
// bound and a zeroed action counter. The caller supplies its clock so paced
// code stays testable.
func (s *Simulator) StartSession(now time.Time) *domain.Session {
	minDur := time.Duration(s.cfg.SessionMinMinutes) * time.Minute
	maxDur := time.Duration(s.cfg.SessionMaxMinutes) * time.Minute
	s.sessionBound = s.Delay(minDur, maxDur)
	s.session = &domain.Session{
		ID:        fmt.Sprintf("session-%d", now.UnixNano()),
		StartedAt: now,
		Status:    domain.SessionActive,
	}
	return s.session
}

// RecordAction bumps the action counter for break probability purposes.
func (s *Simulator) RecordAction() {
	if s.session != nil {
		s.session.ActionCount++
	}
}

// RecordWarning attaches a non-fatal note to the active session.
func (s *Simulator) RecordWarning(msg string) {
	if s.session != nil {
		s.session.Warnings = append(s.session.Warnings, msg)
	}
}

// RecordError attaches a failure note to the active session.
func (s *Simulator) RecordError(msg string) {
	if s.session != nil {
		s.session.Errors = append(s.session.Errors, msg)
	}
}

// ShouldEndSession reports whether the active session outlived its sampled
// duration bound.
func (s *Simulator) ShouldEndSession(now time.Time) bool {
	if s.session == nil {
		return false
	}
	return now.Sub(s.session.StartedAt) > s.sessionBound
}

// EndSession closes the active session.
func (s *Simulator) EndSession(now time.Time) {
	if s.session == nil {
		return
	}
	s.session.EndedAt = &now
	s.session.Status = domain.SessionCompleted
	s.session = nil
}

// Session returns the active session, nil when none is open.
func (s *Simulator) Session() *domain.Session {
	return s.session
}

// ShouldTakeBreak returns true with probability rising monotonically in the
// number of actions performed this session.
func (s *Simulator) ShouldTakeBreak() bool {
	if s.session == nil {
		return false
	}
	p := float64(s.session.ActionCount) * 0.004
	if p > 0.35 {
		p = 0.35
	}
	return s.rng.Float64() < p
}

// BreakDuration samples a pause length from the configured break range.
func (s *Simulator) BreakDuration() time.Duration {
	return s.Delay(
		time.Duration(s.cfg.BreakMinMinutes)*time.Minute,
		time.Duration(s.cfg.BreakMaxMinutes)*time.Minute,
	)
}

// ReadingDuration samples how long to pretend to read a profile.
func (s *Simulator) ReadingDuration() time.Duration {
	return s.Delay(8*time.Second, 40*time.Second)
}

// HasWorkingWindow reports whether a working-hours window is configured.
func (s *Simulator) HasWorkingWindow() bool {
	return s.cfg.WorkingHourEnd > s.cfg.WorkingHourStart
}

// InWorkingHours reports whether now falls inside the configured window in
// the configured timezone.
func (s *Simulator) InWorkingHours(now time.Time) bool {
	local := now.In(s.cfg.Location())
	if !s.workingWeekday(local.Weekday()) {
		return false
	}
	hour := local.Hour()
	return hour >= s.cfg.WorkingHourStart && hour < s.cfg.WorkingHourEnd
}

// WaitUntilOpen returns zero when inside the window, otherwise the exact
// duration until the next window opens.
func (s *Simulator) WaitUntilOpen(now time.Time) time.Duration {
	local := now.In(s.cfg.Location())
	if s.InWorkingHours(now) {
		return 0
	}

	candidate := time.Date(local.Year(), local.Month(), local.Day(),
		s.cfg.WorkingHourStart, 0, 0, 0, s.cfg.Location())
	if !local.Before(candidate) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	for i := 0; i < 8; i++ {
		if s.workingWeekday(candidate.Weekday()) {
			return candidate.Sub(local)
		}
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate.Sub(local)
}

func (s *Simulator) workingWeekday(day time.Weekday) bool {
	if len(s.cfg.WorkingWeekdays) == 0 {
		return true
	}
	for _, allowed := range s.cfg.WorkingWeekdays {
		if int(day) == allowed {
			return true
		}
	}
	return false
}

// Chance answers true with probability p, used for decoy actions.
func (s *Simulator) Chance(p float64) bool {
	return s.rng.Float64() < p
}

// PickTemplate chooses one of the configured message variations.
func (s *Simulator) PickTemplate(templates []string) string {
	if len(templates) == 0 {
		return ""
	}
	return templates[s.rng.Intn(len(templates))]
}
