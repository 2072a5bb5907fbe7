package chunkcache

import "testing"

func TestSectionPackingRoundTrip(t *testing.T) {
	sec := NewSection(3)
	want := map[[3]int]T{
		{0, 0, 0}:    Solid,
		{15, 15, 15}: Avoid,
		{1, 0, 0}:    Water,
		{0, 1, 0}:    Air,
		{7, 9, 2}:    Solid,
	}
	for k, v := range want {
		sec.Set(k[0], k[1], k[2], v)
	}
	for k, v := range want {
		if got := sec.Get(k[0], k[1], k[2]); got != v {
			t.Errorf("Get%v = %v, want %v", k, got, v)
		}
	}
}

func TestSectionPackingDensity(t *testing.T) {
	sec := NewSection(0)
	for x := 0; x < SectionSize; x++ {
		for y := 0; y < SectionSize; y++ {
			for z := 0; z < SectionSize; z++ {
				sec.Set(x, y, z, Solid)
			}
		}
	}
	for _, b := range sec.packed {
		if b != 0xFF {
			t.Fatalf("expected every byte packed with 4 Solid voxels (0xFF), got %#x", b)
		}
	}
}

func TestSectionPayloadRoundTrip(t *testing.T) {
	sec := NewSection(5)
	sec.Set(4, 4, 4, Avoid)
	payload := sec.Payload()

	other := NewSection(5)
	other.SetPayload(payload)
	if got := other.Get(4, 4, 4); got != Avoid {
		t.Fatalf("Get after SetPayload = %v, want Avoid", got)
	}
}

func TestSectionEmpty(t *testing.T) {
	sec := NewSection(0)
	if !sec.Empty() {
		t.Fatal("fresh section should be Empty")
	}
	sec.Set(0, 0, 0, Water)
	if sec.Empty() {
		t.Fatal("section with a non-Air voxel should not be Empty")
	}
}
