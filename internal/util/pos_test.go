package util

import "testing"

func TestPosHashDisagreesWithinWorldRange(t *testing.T) {
	const bound = 1 << 20 // well within the 26-bit world-coordinate range
	seen := make(map[uint64]Pos, 2000)
	positions := []Pos{
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
		{-1, -1, -1},
		{bound, -bound, bound},
		{bound - 1, bound - 1, 1 - bound},
	}
	for x := -3; x <= 3; x++ {
		for y := -3; y <= 3; y++ {
			for z := -3; z <= 3; z++ {
				positions = append(positions, Pos{x, y, z})
			}
		}
	}
	for _, p := range positions {
		h := p.Hash()
		if other, ok := seen[h]; ok && other != p {
			t.Fatalf("hash collision between %v and %v", p, other)
		}
		seen[h] = p
	}
}

func TestPosHashAgreesWithItself(t *testing.T) {
	p := Pos{42, -7, 1000}
	if p.Hash() != p.Hash() {
		t.Fatalf("hash is not stable across calls")
	}
	q := Pos{42, -7, 1000}
	if p.Hash() != q.Hash() {
		t.Fatalf("equal positions hashed differently")
	}
}

func TestFloorDiv(t *testing.T) {
	cases := []struct{ value, size, want int }{
		{0, 16, 0},
		{15, 16, 0},
		{16, 16, 1},
		{-1, 16, -1},
		{-16, 16, -1},
		{-17, 16, -2},
	}
	for _, c := range cases {
		if got := FloorDiv(c.value, c.size); got != c.want {
			t.Errorf("FloorDiv(%d,%d) = %d, want %d", c.value, c.size, got, c.want)
		}
	}
}

func TestChunkOfRoundTrip(t *testing.T) {
	p := Pos{X: -33, Y: 5, Z: 31}
	c := ChunkOf(p, 16)
	if c.X != -3 || c.Z != 1 {
		t.Fatalf("unexpected chunk for %v: %v", p, c)
	}
}
