package chunkcache

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"voxelnav/internal/util"
)

// RegionSize is the number of chunk columns along one edge of a region file
// (spec §6).
const RegionSize = 32

var sanitizeAddr = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// RegionDir returns the base directory a region file lives under, following
// spec §6's layout: <base>/<worldName>/..., or
// <base>/<sanitizedAddr>/<worldName>/... when a server address is known.
func RegionDir(base, serverAddr, worldName string) string {
	if serverAddr == "" {
		return filepath.Join(base, worldName)
	}
	return filepath.Join(base, sanitizeAddr.ReplaceAllString(serverAddr, "_"), worldName)
}

func regionOf(ch util.ChunkXZ) (rx, rz int) {
	return util.FloorDiv(ch.X, RegionSize), util.FloorDiv(ch.Z, RegionSize)
}

// RegionPath returns the file path for the region containing chunk ch.
func RegionPath(dir string, ch util.ChunkXZ) string {
	rx, rz := regionOf(ch)
	return filepath.Join(dir, fmt.Sprintf("r.%d.%d.cache", rx, rz))
}

// checksumTrailerMagic tags the supplemental trailer appended after the
// spec's base format; readers that don't recognize it simply stop at EOF,
// so older region files without a trailer still load cleanly.
var checksumTrailerMagic = [4]byte{'v', 'n', 'c', '1'}

// SaveRegion writes every cached column belonging to the given region to
// path, in the exact wire format of spec §6: u32 numColumns, then per
// column i32 chunkX, i32 chunkZ, u32 numSections, then per section i32
// sectionY + 1024 payload bytes. All integers little-endian. A supplemental
// xxhash64 trailer follows for corruption detection on load; it is not part
// of the spec format and is ignored by readers that don't check it.
//
// Column encoding runs concurrently across columns (disk I/O only, never on
// the A* hot path).
func (c *Cache) SaveRegion(path string, rx, rz int) error {
	type encoded struct {
		ch   util.ChunkXZ
		data []byte
	}

	var mu sync.Mutex
	var columns []encoded

	var eg errgroup.Group
	for slot, col := range c.columns {
		if col == nil {
			continue
		}
		ch := c.keys[slot]
		crx, crz := regionOf(ch)
		if crx != rx || crz != rz {
			continue
		}
		col := col
		eg.Go(func() error {
			buf, err := encodeColumn(ch, col)
			if err != nil {
				return err
			}
			mu.Lock()
			columns = append(columns, encoded{ch: ch, data: buf})
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("chunkcache: encode region %d,%d: %w", rx, rz, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("chunkcache: create region dir: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("chunkcache: create region file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	hasher := xxhash.New()
	mw := io.MultiWriter(w, hasher)

	if err := binary.Write(mw, binary.LittleEndian, uint32(len(columns))); err != nil {
		return err
	}
	for _, col := range columns {
		if _, err := mw.Write(col.data); err != nil {
			return fmt.Errorf("chunkcache: write column %v: %w", col.ch, err)
		}
	}

	sum := hasher.Sum64()
	if _, err := w.Write(checksumTrailerMagic[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, sum); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("chunkcache: flush region file: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func encodeColumn(ch util.ChunkXZ, col *column) ([]byte, error) {
	sections := col.sortedSections()
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, int32(ch.X)); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, int32(ch.Z)); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(sections))); err != nil {
		return nil, err
	}
	for _, sec := range sections {
		if err := binary.Write(&buf, binary.LittleEndian, int32(sec.Y)); err != nil {
			return nil, err
		}
		payload := sec.Payload()
		if _, err := buf.Write(payload[:]); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// LoadRegion populates the cache from a region file written by SaveRegion.
// Corrupt or short files are skipped (spec §6): LoadRegion returns nil and
// loads as many leading, well-formed columns as it can parse before the
// point of corruption. A missing file is not an error.
func (c *Cache) LoadRegion(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("chunkcache: read region file: %w", err)
	}

	body := raw
	if len(raw) >= len(checksumTrailerMagic)+8 {
		trailerStart := len(raw) - len(checksumTrailerMagic) - 8
		if bytes.Equal(raw[trailerStart:trailerStart+len(checksumTrailerMagic)], checksumTrailerMagic[:]) {
			want := binary.LittleEndian.Uint64(raw[trailerStart+len(checksumTrailerMagic):])
			got := xxhash.Sum64(raw[:trailerStart])
			body = raw[:trailerStart]
			if want != got {
				c.logger.Printf("chunkcache: region %s checksum mismatch, attempting partial load", path)
			}
		}
	}

	r := bytes.NewReader(body)
	var numColumns uint32
	if err := binary.Read(r, binary.LittleEndian, &numColumns); err != nil {
		c.logger.Printf("chunkcache: region %s: truncated header, skipping", path)
		return nil
	}

	var loaded uint32
	for ; loaded < numColumns; loaded++ {
		if err := c.loadOneColumn(r); err != nil {
			c.logger.Printf("chunkcache: region %s: corrupt at column %d of %d, stopping: %v", path, loaded, numColumns, err)
			break
		}
	}
	return nil
}

func (c *Cache) loadOneColumn(r *bytes.Reader) error {
	var cx, cz int32
	if err := binary.Read(r, binary.LittleEndian, &cx); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &cz); err != nil {
		return err
	}
	var numSections uint32
	if err := binary.Read(r, binary.LittleEndian, &numSections); err != nil {
		return err
	}

	ch := util.ChunkXZ{X: int(cx), Z: int(cz)}
	col, _ := c.columnFor(ch, true)

	for i := uint32(0); i < numSections; i++ {
		var sy int32
		if err := binary.Read(r, binary.LittleEndian, &sy); err != nil {
			return err
		}
		var payload [sectionBytes]byte
		if _, err := io.ReadFull(r, payload[:]); err != nil {
			return err
		}
		sec := NewSection(int(sy))
		sec.SetPayload(payload)
		col.putSection(sec)
	}
	col.touch()
	return nil
}
