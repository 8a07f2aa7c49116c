package testfixtures

import (
	"fmt"
	"sync"
	"time"

	"github.com/example/temple-engagements/internal/calendar"
)

// Clock is a controllable time source. Booking deadlines, waitlist promotion
// timestamps and volunteer auto-approval all read it through NowFunc.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock returns a clock set to start, or to ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc exposes Now for injection; a nil clock falls back to time.Now.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// SetClock moves the clock to hour:minute on day, keeping day's location.
func (c *Clock) SetClock(day time.Time, hour, minute int) time.Time {
	at := calendar.NewTimeOfDay(hour, minute).On(day)
	c.Set(at)
	return at
}

// Advance moves the clock forward by d and returns the new time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	return c.current
}

// AdvanceDays moves the clock by whole calendar days so wall-clock time is
// preserved across DST changes.
func (c *Clock) AdvanceDays(days int) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.AddDate(0, 0, days)
	return c.current
}

// IDGenerator yields "<prefix>-<n>" identifiers with an independent counter per prefix.
type IDGenerator struct {
	mu       sync.Mutex
	prefix   string
	counters map[string]uint64
}

// NewIDGenerator uses prefix for Next; an empty prefix means "id".
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix, counters: make(map[string]uint64)}
}

// Next returns the next identifier for the default prefix.
func (g *IDGenerator) Next() string {
	return g.NextFor(g.prefix)
}

// NextFor returns the next identifier for prefix.
func (g *IDGenerator) NextFor(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counters[prefix]++
	return fmt.Sprintf("%s-%d", prefix, g.counters[prefix])
}

// NextFunc exposes Next for injection.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// Issued reports how many identifiers prefix has produced.
func (g *IDGenerator) Issued(prefix string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counters[prefix]
}

// Reset clears every counter.
func (g *IDGenerator) Reset() {
	g.mu.Lock()
	g.counters = make(map[string]uint64)
	g.mu.Unlock()
}
