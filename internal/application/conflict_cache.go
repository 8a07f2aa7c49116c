package application

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/example/temple-engagements/internal/calendar"
	"github.com/example/temple-engagements/internal/scheduler"
)

const (
	defaultConflictCacheTTL        = 30 * time.Second
	defaultConflictCacheMaxEntries = 128
)

// conflictCache stores recently computed conflict lists so repeated checks from
// the same form do not rescan every engagement while nothing has changed.
type conflictCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]conflictCacheEntry
	generation uint64
}

type conflictCacheEntry struct {
	conflicts []scheduler.Conflict
	expiresAt time.Time
}

func newConflictCache(ttl time.Duration, maxEntries int, now func() time.Time) *conflictCache {
	if ttl <= 0 {
		ttl = defaultConflictCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultConflictCacheMaxEntries
	}
	if now == nil {
		now = time.Now
	}
	return &conflictCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]conflictCacheEntry),
	}
}

func (c *conflictCache) Get(key string) ([]scheduler.Conflict, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return cloneConflicts(entry.conflicts), true
}

// Generation identifies the current cache epoch. Read it before taking the
// snapshot a result is computed from and hand it back to Store.
func (c *conflictCache) Generation() uint64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Store keeps conflicts under key unless Invalidate ran after generation was read.
func (c *conflictCache) Store(key string, generation uint64, conflicts []scheduler.Conflict) {
	if c == nil {
		return
	}
	cloned := cloneConflicts(conflicts)
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		return
	}

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[key] = conflictCacheEntry{conflicts: cloned, expiresAt: expiry}
}

func (c *conflictCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]conflictCacheEntry)
	c.generation++
	c.mu.Unlock()
}

func (c *conflictCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *conflictCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// evictOneLocked drops the entry closest to expiry.
func (c *conflictCache) evictOneLocked() {
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for key, entry := range c.entries {
		if !found || entry.expiresAt.Before(oldest) {
			oldestKey, oldest, found = key, entry.expiresAt, true
		}
	}
	if found {
		delete(c.entries, oldestKey)
	}
}

func cloneConflicts(conflicts []scheduler.Conflict) []scheduler.Conflict {
	out := make([]scheduler.Conflict, len(conflicts))
	for i, conflict := range conflicts {
		out[i] = conflict
		if conflict.AffectedDates != nil {
			out[i].AffectedDates = append([]string(nil), conflict.AffectedDates...)
		}
	}
	return out
}

func scheduleConflictKey(params ScheduleConflictParams) string {
	builder := strings.Builder{}
	builder.WriteString("schedule|")
	builder.WriteString(calendar.FormatDate(params.Date))
	builder.WriteString("|")
	builder.WriteString(params.Time.String())
	builder.WriteString("|")
	builder.WriteString(params.Duration.String())
	builder.WriteString("|")
	builder.WriteString(params.ExcludeID)
	return builder.String()
}

func recurrenceConflictKey(params RecurrenceConflictParams) string {
	builder := strings.Builder{}
	builder.WriteString("recurrence|")
	builder.WriteString(calendar.FormatDate(params.Date))
	builder.WriteString("|")
	builder.WriteString(params.Time.String())
	builder.WriteString("|")
	builder.WriteString(string(params.Rule.Pattern))
	builder.WriteString("|")
	builder.WriteString(strings.ToLower(strings.Join(params.Rule.SelectedDays, ",")))
	builder.WriteString("|")
	builder.WriteString(strconv.Itoa(params.Rule.Interval))
	builder.WriteString("|")
	if params.Rule.EndDate != nil {
		builder.WriteString(calendar.FormatDate(*params.Rule.EndDate))
	}
	builder.WriteString("|")
	builder.WriteString(params.ExcludeID)
	return builder.String()
}
