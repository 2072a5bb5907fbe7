package chunkcache

import (
	"os"
	"path/filepath"
	"testing"

	"voxelnav/internal/adapter"
	"voxelnav/internal/blockprops"
	"voxelnav/internal/util"
)

const (
	kindAir Kind = iota
	kindStone
	kindWater
	kindLava
	kindSand
)

// Kind aliases blockprops.Kind for readability in this test file.
type Kind = blockprops.Kind

func newTestTable() *blockprops.Table {
	tbl := blockprops.NewTable()
	tbl.Set(kindAir, blockprops.Flags{FullyPassable: true})
	tbl.Set(kindStone, blockprops.Flags{WalkOn: true})
	tbl.Set(kindWater, blockprops.Flags{Water: true})
	tbl.Set(kindLava, blockprops.Flags{Lava: true})
	tbl.Set(kindSand, blockprops.Flags{WalkOn: true, FallingBlock: true})
	return tbl
}

// fakeWorld is an in-memory adapter.BlockSource for tests, a flat plane of
// stone at y=0 with air above, mutable for live-update tests.
type fakeWorld struct {
	overrides map[util.Pos]blockprops.Kind
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{overrides: make(map[util.Pos]blockprops.Kind)}
}

func (w *fakeWorld) BlockAt(pos util.Pos) (adapter.Block, bool) {
	if k, ok := w.overrides[pos]; ok {
		return adapter.Block{Kind: k}, true
	}
	if pos.Y == 0 {
		return adapter.Block{Kind: kindStone}, true
	}
	return adapter.Block{Kind: kindAir}, true
}

func (w *fakeWorld) set(pos util.Pos, k blockprops.Kind) {
	w.overrides[pos] = k
}

func TestCacheClassifiesOnLoad(t *testing.T) {
	world := newFakeWorld()
	c := New(world, newTestTable())
	c.LoadChunk(util.ChunkXZ{X: 0, Z: 0}, -1, 2)

	if v, ok := c.Lookup(util.Pos{X: 0, Y: 0, Z: 0}); !ok || v != Solid {
		t.Fatalf("Lookup(y=0) = %v,%v want Solid,true", v, ok)
	}
	if v, ok := c.Lookup(util.Pos{X: 0, Y: 1, Z: 0}); !ok || v != Air {
		t.Fatalf("Lookup(y=1) = %v,%v want Air,true", v, ok)
	}
}

func TestCacheUnloadedChunkIsUnknown(t *testing.T) {
	c := New(newFakeWorld(), newTestTable())
	if _, ok := c.Lookup(util.Pos{X: 500, Y: 0, Z: 500}); ok {
		t.Fatal("Lookup on never-loaded chunk should report unknown")
	}
}

func TestCacheLiveUpdateReflectsLastWrite(t *testing.T) {
	world := newFakeWorld()
	c := New(world, newTestTable())
	c.LoadChunk(util.ChunkXZ{X: 0, Z: 0}, -1, 2)

	pos := util.Pos{X: 3, Y: 1, Z: 3}
	world.set(pos, kindWater)
	c.OnBlockUpdate(pos)
	if v, _ := c.Lookup(pos); v != Water {
		t.Fatalf("after first update = %v, want Water", v)
	}

	world.set(pos, kindLava)
	c.OnBlockUpdate(pos)
	if v, _ := c.Lookup(pos); v != Avoid {
		t.Fatalf("after second update = %v, want Avoid (last write wins)", v)
	}
}

func TestCacheEvictionRespectsSoftCap(t *testing.T) {
	world := newFakeWorld()
	c := NewWithCap(world, newTestTable(), 4)
	for i := 0; i < 10; i++ {
		c.LoadChunk(util.ChunkXZ{X: i, Z: 0}, 0, 0)
	}
	if got := c.ColumnCount(); got > 4 {
		t.Fatalf("ColumnCount = %d, want <= soft cap 4", got)
	}
	if _, ok := c.Lookup(util.Pos{X: 9 * SectionSize, Y: 0, Z: 0}); !ok {
		t.Fatal("most recently loaded chunk should survive eviction")
	}
}

func TestRegionSaveLoadRoundTrip(t *testing.T) {
	world := newFakeWorld()
	world.set(util.Pos{X: 2, Y: 5, Z: 2}, kindLava)
	c := New(world, newTestTable())
	c.LoadChunk(util.ChunkXZ{X: 0, Z: 0}, -1, 6)
	c.LoadChunk(util.ChunkXZ{X: 1, Z: 0}, -1, 6)

	dir := t.TempDir()
	path := filepath.Join(dir, "r.0.0.cache")
	if err := c.SaveRegion(path, 0, 0); err != nil {
		t.Fatalf("SaveRegion: %v", err)
	}

	loaded := New(world, newTestTable())
	if err := loaded.LoadRegion(path); err != nil {
		t.Fatalf("LoadRegion: %v", err)
	}

	for _, pos := range []util.Pos{
		{X: 0, Y: 0, Z: 0},
		{X: 2, Y: 5, Z: 2},
		{X: SectionSize, Y: 0, Z: 0},
	} {
		want, _ := c.Lookup(pos)
		got, ok := loaded.Lookup(pos)
		if !ok || got != want {
			t.Fatalf("Lookup(%v) after round trip = %v,%v want %v,true", pos, got, ok, want)
		}
	}
}

func TestLoadRegionMissingFileIsNotFatal(t *testing.T) {
	c := New(newFakeWorld(), newTestTable())
	if err := c.LoadRegion(filepath.Join(t.TempDir(), "missing.cache")); err != nil {
		t.Fatalf("LoadRegion on missing file = %v, want nil", err)
	}
}

func TestLoadRegionTruncatedFileSkipsNotFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "r.0.0.cache")
	if err := os.WriteFile(path, []byte{0x03, 0x00, 0x00}, 0o644); err != nil {
		t.Fatal(err)
	}
	c := New(newFakeWorld(), newTestTable())
	if err := c.LoadRegion(path); err != nil {
		t.Fatalf("LoadRegion on truncated file = %v, want nil (skip)", err)
	}
}

func TestApplyBlockDamageCascadesFallingBlocks(t *testing.T) {
	world := newFakeWorld()
	world.set(util.Pos{X: 0, Y: 0, Z: 0}, kindStone)
	world.set(util.Pos{X: 0, Y: 1, Z: 0}, kindSand)
	world.set(util.Pos{X: 0, Y: 2, Z: 0}, kindSand)
	c := New(world, newTestTable())
	c.LoadChunk(util.ChunkXZ{X: 0, Z: 0}, 0, 2)

	summary := c.ApplyBlockDamage(util.Pos{X: 0, Y: 0, Z: 0})
	if len(summary.Collapsed) != 2 {
		t.Fatalf("Collapsed = %v, want 2 sand voxels", summary.Collapsed)
	}
	if v, _ := c.Lookup(util.Pos{X: 0, Y: 1, Z: 0}); v != Air {
		t.Fatalf("Lookup(y=1) after cascade = %v, want Air", v)
	}
}
