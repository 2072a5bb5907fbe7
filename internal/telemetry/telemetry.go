// Package telemetry implements the "pathDebugger" design note of spec §9:
// a process-wide singleton in the source material, replaced here with an
// explicit-lifecycle Recorder a caller opens and closes. Grounded on
// hailam-chessplay's internal/storage (BadgerDB key/value wrapper):
// Recorder keeps the same Open/Close/json-marshal-per-key shape, with keys
// derived from an astar.PathResult's SearchID instead of a fixed settings
// key.
package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// Trace is one A* search's offline-inspectable record: best-so-far
// history and the final verdict, keyed by astar.PathResult.SearchID.
type Trace struct {
	SearchID      uuid.UUID `json:"search_id"`
	StartedAt     time.Time `json:"started_at"`
	NodesExpanded int       `json:"nodes_expanded"`
	BestSoFar     []float64 `json:"best_so_far"` // lowest h seen, in update order
	Verdict       string    `json:"verdict"`      // ResultKind.String()
	Cost          float64   `json:"cost"`
	PathLen       int       `json:"path_len"`
}

func traceKey(id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("trace:%s", id))
}

// Recorder wraps a BadgerDB instance for optional persistence of search
// traces. A nil *Recorder is a valid no-op per call site, mirroring the
// astar.Profiler nil-is-no-op convention.
type Recorder struct {
	db *badger.DB
}

// Open opens (creating if absent) a BadgerDB at dir. Pass an empty dir to
// disable persistence and get a Recorder that Record/Load no-op against
// (used by tests and by callers who only want in-memory profiling).
func Open(dir string) (*Recorder, error) {
	if dir == "" {
		return &Recorder{}, nil
	}
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", dir, err)
	}
	return &Recorder{db: db}, nil
}

// Close releases the underlying database. Safe to call on a no-op Recorder.
func (r *Recorder) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Record persists a trace, keyed by its SearchID. No-op on a disabled
// Recorder; persistence errors are the caller's to log-and-continue per
// spec §7's PersistenceError kind — a failed Record never aborts a search.
func (r *Recorder) Record(t Trace) error {
	if r == nil || r.db == nil {
		return nil
	}
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("telemetry: marshal trace %s: %w", t.SearchID, err)
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(traceKey(t.SearchID), data)
	})
}

// Load retrieves a previously recorded trace by SearchID. ok is false if
// disabled or the key is absent.
func (r *Recorder) Load(id uuid.UUID) (t Trace, ok bool, err error) {
	if r == nil || r.db == nil {
		return Trace{}, false, nil
	}
	err = r.db.View(func(txn *badger.Txn) error {
		item, gerr := txn.Get(traceKey(id))
		if gerr == badger.ErrKeyNotFound {
			return nil
		}
		if gerr != nil {
			return gerr
		}
		ok = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &t)
		})
	})
	if err != nil {
		return Trace{}, false, fmt.Errorf("telemetry: load trace %s: %w", id, err)
	}
	return t, ok, nil
}

// BestSoFarTracker accumulates the lowest-h history during one search for
// inclusion in a Trace, mirroring astar.Planner's own best-so-far field
// without the planner needing to know about BadgerDB.
type BestSoFarTracker struct {
	values []float64
}

// Observe records an improvement, appending to the history. The planner
// only calls this when the value genuinely improves (see Bridge).
func (t *BestSoFarTracker) Observe(h float64) {
	t.values = append(t.values, h)
}

// History returns the recorded best-so-far sequence.
func (t *BestSoFarTracker) History() []float64 { return t.values }

// Bridge adapts a BestSoFarTracker plus node/neighbor counters into the
// astar.Profiler interface, letting a caller feed one search's
// instrumentation directly into a Trace via Finish. Grounded on
// pathfinding.NavigatorMetrics' atomic-counter Profiler() pattern, scaled
// down to the single-search, single-threaded use a Recorder serves.
type Bridge struct {
	BestSoFar     BestSoFarTracker
	NodesExpanded int
	neighborSum   int
}

// RecordNodeExpanded implements astar.Profiler.
func (b *Bridge) RecordNodeExpanded() { b.NodesExpanded++ }

// RecordNeighborGeneration implements astar.Profiler.
func (b *Bridge) RecordNeighborGeneration(n int) { b.neighborSum += n }

// RecordBestSoFar implements astar.Profiler.
func (b *Bridge) RecordBestSoFar(h float64) { b.BestSoFar.Observe(h) }

// Trace builds a Trace ready for Recorder.Record from this Bridge's
// accumulated instrumentation and a search's final verdict/cost/path
// length, identified by searchID.
func (b *Bridge) Trace(searchID uuid.UUID, startedAt time.Time, verdict string, cost float64, pathLen int) Trace {
	return Trace{
		SearchID:      searchID,
		StartedAt:     startedAt,
		NodesExpanded: b.NodesExpanded,
		BestSoFar:     b.BestSoFar.History(),
		Verdict:       verdict,
		Cost:          cost,
		PathLen:       pathLen,
	}
}
