package humanize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContactScanner/internal/config"
)

func testPacing() config.PacingConfig {
	return config.PacingConfig{
		SessionMinMinutes: 1,
		SessionMaxMinutes: 2,
		BreakMinMinutes:   1,
		BreakMaxMinutes:   3,
		TypingWPMMin:      40,
		TypingWPMMax:      60,
		ThinkingPauseProb: 0.05,
		WorkingHourStart:  9,
		WorkingHourEnd:    18,
		WorkingWeekdays:   []int{1, 2, 3, 4, 5},
		Timezone:          "UTC",
	}
}

func TestDelayStaysInBounds(t *testing.T) {
	t.Parallel()

	s := NewSimulatorWithSeed(testPacing(), 1)
	min, max := 100*time.Millisecond, 900*time.Millisecond

	for i := 0; i < 10000; i++ {
		d := s.Delay(min, max)
		require.GreaterOrEqual(t, d, min)
		require.LessOrEqual(t, d, max)
	}
}

func TestDelayDegenerateRange(t *testing.T) {
	t.Parallel()

	s := NewSimulatorWithSeed(testPacing(), 1)
	assert.Equal(t, time.Second, s.Delay(time.Second, time.Second))
	assert.Equal(t, time.Second, s.Delay(time.Second, time.Millisecond))
}

func TestTypingDelaysCoverEveryRune(t *testing.T) {
	t.Parallel()

	s := NewSimulatorWithSeed(testPacing(), 7)
	text := "Hi there. How are you?"
	delays := s.TypingDelays(text)

	require.Len(t, delays, len([]rune(text)))
	for i, d := range delays {
		assert.Positive(t, d, "char %d", i)
	}
}

func TestScrollPathEndpoints(t *testing.T) {
	t.Parallel()

	s := NewSimulatorWithSeed(testPacing(), 3)
	a, b := Point{X: 10, Y: 20}, Point{X: 400, Y: 900}
	path := s.ScrollPath(a, b, 24)

	require.Len(t, path, 24)
	assert.InDelta(t, a.X, path[0].Pos.X, 1e-6)
	assert.InDelta(t, a.Y, path[0].Pos.Y, 1e-6)
	assert.InDelta(t, b.X, path[len(path)-1].Pos.X, 1e-6)
	assert.InDelta(t, b.Y, path[len(path)-1].Pos.Y, 1e-6)

	// Edges dwell longer than the middle of the movement.
	mid := path[len(path)/2].Delay
	assert.Greater(t, path[0].Delay, mid/3)
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()

	s := NewSimulatorWithSeed(testPacing(), 5)
	session := s.StartSession(time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC))

	require.NotNil(t, session)
	assert.Zero(t, session.ActionCount)
	assert.False(t, s.ShouldEndSession(session.StartedAt.Add(30*time.Second)))
	assert.True(t, s.ShouldEndSession(session.StartedAt.Add(3*time.Minute)))

	s.RecordAction()
	s.RecordAction()
	assert.Equal(t, 2, session.ActionCount)

	end := session.StartedAt.Add(2 * time.Minute)
	s.EndSession(end)
	assert.Nil(t, s.Session())
	require.NotNil(t, session.EndedAt)
	assert.Equal(t, end, *session.EndedAt)
}

func TestBreakProbabilityGrowsWithActions(t *testing.T) {
	t.Parallel()

	trials := 4000

	countBreaks := func(actions int) int {
		s := NewSimulatorWithSeed(testPacing(), 11)
		s.StartSession(time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC))
		for i := 0; i < actions; i++ {
			s.RecordAction()
		}
		hits := 0
		for i := 0; i < trials; i++ {
			if s.ShouldTakeBreak() {
				hits++
			}
		}
		return hits
	}

	few := countBreaks(5)
	many := countBreaks(80)
	assert.Greater(t, many, few)
}

func TestBreakDurationInRange(t *testing.T) {
	t.Parallel()

	s := NewSimulatorWithSeed(testPacing(), 13)
	for i := 0; i < 1000; i++ {
		d := s.BreakDuration()
		require.GreaterOrEqual(t, d, time.Minute)
		require.LessOrEqual(t, d, 3*time.Minute)
	}
}

func TestWorkingHoursGate(t *testing.T) {
	t.Parallel()

	s := NewSimulatorWithSeed(testPacing(), 17)

	// Wednesday 2026-01-07 inside and outside the window.
	inside := time.Date(2026, 1, 7, 11, 0, 0, 0, time.UTC)
	outside := time.Date(2026, 1, 7, 20, 0, 0, 0, time.UTC)
	saturday := time.Date(2026, 1, 10, 11, 0, 0, 0, time.UTC)

	assert.True(t, s.InWorkingHours(inside))
	assert.False(t, s.InWorkingHours(outside))
	assert.False(t, s.InWorkingHours(saturday))

	assert.Zero(t, s.WaitUntilOpen(inside))

	// 20:00 Wednesday -> 09:00 Thursday is 13h.
	assert.Equal(t, 13*time.Hour, s.WaitUntilOpen(outside))

	// Saturday 11:00 -> Monday 09:00 is 46h.
	assert.Equal(t, 46*time.Hour, s.WaitUntilOpen(saturday))
}

func TestWaitUntilOpenBeforeWindowSameDay(t *testing.T) {
	t.Parallel()

	s := NewSimulatorWithSeed(testPacing(), 19)
	early := time.Date(2026, 1, 7, 6, 30, 0, 0, time.UTC)
	assert.Equal(t, 150*time.Minute, s.WaitUntilOpen(early))
}
