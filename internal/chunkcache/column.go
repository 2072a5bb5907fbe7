package chunkcache

import (
	"sort"
	"sync"
	"time"

	"voxelnav/internal/util"
)

// column is a single chunk column: a sparse map of sections keyed by
// section-Y index, spanning world floor to ceiling (spec §3). Columns
// outlive individual A* runs and are read by planner and behaviors
// concurrently; writes come exclusively from the event-bus bridge on the
// same thread (spec §5), so the mutex here only guards against the
// optional background persistence goroutine.
type column struct {
	mu           sync.RWMutex
	sections     map[int]*Section
	lastTouched  time.Time
}

func newColumn() *column {
	return &column{sections: make(map[int]*Section), lastTouched: time.Now()}
}

func (c *column) touch() {
	c.mu.Lock()
	c.lastTouched = time.Now()
	c.mu.Unlock()
}

func (c *column) lastTouchedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastTouched
}

func (c *column) get(localX, localY, localZ int) (T, bool) {
	sy := util.FloorDiv(localY, SectionSize)
	c.mu.RLock()
	sec, ok := c.sections[sy]
	c.mu.RUnlock()
	if !ok {
		return Air, false
	}
	ly := localY - sy*SectionSize
	return sec.Get(localX, ly, localZ), true
}

func (c *column) set(localX, localY, localZ int, v T) {
	sy := util.FloorDiv(localY, SectionSize)
	c.mu.Lock()
	sec, ok := c.sections[sy]
	if !ok {
		sec = NewSection(sy)
		c.sections[sy] = sec
	}
	c.mu.Unlock()
	ly := localY - sy*SectionSize
	sec.Set(localX, ly, localZ, v)
	c.touch()
}

// sortedSections returns the column's sections ordered by Y, for
// deterministic persistence output.
func (c *column) sortedSections() []*Section {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Section, 0, len(c.sections))
	for _, s := range c.sections {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Y < out[j].Y })
	return out
}

func (c *column) sectionAt(y int) (*Section, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sections[y]
	return s, ok
}

func (c *column) putSection(s *Section) {
	c.mu.Lock()
	c.sections[s.Y] = s
	c.mu.Unlock()
}
