package util

import "time"

// GameClock supplies the game's tick age, letting TimerGame measure
// elapsed ticks without depending on wall-clock time (useful for
// deterministic tests and for replay).
type GameClock interface {
	TickAge() int64
}

// TimerGame measures elapsed game ticks against a GameClock, mirroring the
// tick-based cooldowns used throughout the scheduler's processes (mining
// scan intervals, combat attack cooldowns, follow re-acquisition windows).
type TimerGame struct {
	clock    GameClock
	deadline int64
}

// NewTimerGame starts a timer that elapses after durationTicks ticks.
func NewTimerGame(clock GameClock, durationTicks int64) *TimerGame {
	t := &TimerGame{clock: clock}
	t.Reset(durationTicks)
	return t
}

// Reset restarts the timer for durationTicks ticks from now.
func (t *TimerGame) Reset(durationTicks int64) {
	now := int64(0)
	if t.clock != nil {
		now = t.clock.TickAge()
	}
	t.deadline = now + durationTicks
}

// Elapsed reports whether the timer's duration has passed.
func (t *TimerGame) Elapsed() bool {
	now := int64(0)
	if t.clock != nil {
		now = t.clock.TickAge()
	}
	return now >= t.deadline
}

// TimerReal measures elapsed wall-clock time, used for slice/cumulative
// timeouts where tick granularity (≈50ms) is too coarse.
type TimerReal struct {
	deadline time.Time
}

// NewTimerReal starts a timer that elapses after d.
func NewTimerReal(d time.Duration) *TimerReal {
	t := &TimerReal{}
	t.Reset(d)
	return t
}

// Reset restarts the timer for d from now.
func (t *TimerReal) Reset(d time.Duration) {
	t.deadline = time.Now().Add(d)
}

// Elapsed reports whether the timer's duration has passed.
func (t *TimerReal) Elapsed() bool {
	return !time.Now().Before(t.deadline)
}

// Remaining returns the time left before the timer elapses, zero if already
// elapsed.
func (t *TimerReal) Remaining() time.Duration {
	d := time.Until(t.deadline)
	if d < 0 {
		return 0
	}
	return d
}

// Stopwatch accumulates elapsed wall-clock time across start/stop cycles,
// used by the planner to track cumulative search time across slices.
type Stopwatch struct {
	running bool
	started time.Time
	total   time.Duration
}

// Start begins or resumes timing.
func (s *Stopwatch) Start() {
	if s.running {
		return
	}
	s.running = true
	s.started = time.Now()
}

// Stop pauses timing, accumulating the elapsed interval into Total.
func (s *Stopwatch) Stop() {
	if !s.running {
		return
	}
	s.total += time.Since(s.started)
	s.running = false
}

// Total returns the accumulated duration, including the in-progress
// interval if the stopwatch is currently running.
func (s *Stopwatch) Total() time.Duration {
	if s.running {
		return s.total + time.Since(s.started)
	}
	return s.total
}

// Reset zeroes the accumulated duration and stops the stopwatch.
func (s *Stopwatch) Reset() {
	s.running = false
	s.total = 0
}
