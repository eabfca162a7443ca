package region

import (
	"testing"

	"github.com/rasterlite/rl2go/internal/codec"
	"github.com/rasterlite/rl2go/internal/raster"
	"github.com/rasterlite/rl2go/internal/store"
)

// memStore is a trivial in-memory store.Store used to test the Region
// Reader's composite/blend logic without a real SQLite file.
type memStore struct {
	meta  store.CoverageMeta
	tiles map[int64]struct {
		ref      store.TileRef
		odd, evn []byte
	}
	order []store.TileRef
}

func (m *memStore) CoverageMeta(name string) (store.CoverageMeta, error) { return m.meta, nil }

func (m *memStore) TilesInBounds(coverage string, level int, minX, minY, maxX, maxY float64) ([]store.TileRef, error) {
	var out []store.TileRef
	for _, ref := range m.order {
		if ref.MinX < maxX && ref.MaxX > minX && ref.MinY < maxY && ref.MaxY > minY {
			out = append(out, ref)
		}
	}
	return out, nil
}

func (m *memStore) FetchBlobs(coverage string, tileID int64) (odd, even []byte, err error) {
	e := m.tiles[tileID]
	return e.odd, e.evn, nil
}

func (m *memStore) PixelToMap(coverage string, tileID int64, col, row int) (x, y float64, err error) {
	return 0, 0, nil
}

func solidTile(t *testing.T, w, h int, r, g, b uint8) *raster.Tile {
	t.Helper()
	buf := make([]byte, w*h*3)
	for i := 0; i < w*h; i++ {
		buf[i*3] = r
		buf[i*3+1] = g
		buf[i*3+2] = b
	}
	tile, err := raster.NewTile(w, h, raster.SampleUInt8, raster.Rgb, 3, buf, nil, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	return tile
}

func TestRegionReadOverlapHigherIDWins(t *testing.T) {
	blue := solidTile(t, 256, 256, 0, 0, 255)
	red := solidTile(t, 256, 256, 255, 0, 0)

	oddBlue, evenBlue, err := codec.Encode(codec.None, blue, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	oddRed, evenRed, err := codec.Encode(codec.None, red, 0, true)
	if err != nil {
		t.Fatal(err)
	}

	ms := &memStore{
		meta: store.CoverageMeta{
			Sample: raster.SampleUInt8, Kind: raster.Rgb, Bands: 3,
			TileWidth: 256, TileHeight: 256, SRID: 4326,
			BaseHRes: 1, BaseVRes: 1, MaxLevel: 0,
		},
		tiles: map[int64]struct {
			ref      store.TileRef
			odd, evn []byte
		}{
			1: {ref: store.TileRef{ID: 1, MinX: 0, MinY: 0, MaxX: 256, MaxY: 256}, odd: oddBlue, evn: evenBlue},
			2: {ref: store.TileRef{ID: 2, MinX: 192, MinY: 192, MaxX: 448, MaxY: 448}, odd: oddRed, evn: evenRed},
		},
	}
	ms.order = []store.TileRef{
		{ID: 1, MinX: 0, MinY: 0, MaxX: 256, MaxY: 256},
		{ID: 2, MinX: 192, MinY: 192, MaxX: 448, MaxY: 448},
	}

	win := Window{MinX: 0, MinY: 0, MaxX: 448, MaxY: 448, Width: 448, Height: 448, HRes: 1, VRes: 1}
	dst, err := Read(ms, "cov1", win, nil)
	if err != nil {
		t.Fatal(err)
	}

	var px raster.Pixel
	px, _ = raster.NewPixel(raster.SampleUInt8, raster.Rgb, 3)

	// Deep inside the overlap region (tile 2's extent), should be red.
	if err := dst.GetPixel(220, 220, &px); err != nil {
		t.Fatal(err)
	}
	r, _ := px.GetSampleUInt8(0)
	if r != 255 {
		t.Fatalf("overlap pixel should be red (higher tile id wins), got R=%d", r)
	}

	// Deep inside tile 1 only, should stay blue.
	if err := dst.GetPixel(400, 50, &px); err != nil {
		t.Fatal(err)
	}
	b, _ := px.GetSampleUInt8(2)
	if b != 255 {
		t.Fatalf("non-overlap pixel should be blue, got B=%d", b)
	}
}

func TestRegionReadNoMatchWhenNoTilesIntersect(t *testing.T) {
	ms := &memStore{
		meta: store.CoverageMeta{Sample: raster.SampleUInt8, Kind: raster.Rgb, Bands: 3, TileWidth: 256, TileHeight: 256, SRID: 4326, BaseHRes: 1, BaseVRes: 1},
	}
	win := Window{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100, Width: 100, Height: 100, HRes: 1, VRes: 1}
	if _, err := Read(ms, "cov1", win, nil); err == nil {
		t.Fatal("expected error when no tiles intersect the window")
	}
}

// countingStore wraps memStore to count FetchBlobs calls, used to confirm
// a Reader's decode cache actually avoids refetching on a repeat read.
type countingStore struct {
	*memStore
	fetches int
}

func (c *countingStore) FetchBlobs(coverage string, tileID int64) (odd, even []byte, err error) {
	c.fetches++
	return c.memStore.FetchBlobs(coverage, tileID)
}

func TestReaderCachesDecodedTilesAcrossReads(t *testing.T) {
	blue := solidTile(t, 64, 64, 0, 0, 255)
	odd, even, err := codec.Encode(codec.None, blue, 0, true)
	if err != nil {
		t.Fatal(err)
	}

	cs := &countingStore{memStore: &memStore{
		meta: store.CoverageMeta{
			Sample: raster.SampleUInt8, Kind: raster.Rgb, Bands: 3,
			TileWidth: 64, TileHeight: 64, SRID: 4326,
			BaseHRes: 1, BaseVRes: 1, MaxLevel: 0,
		},
		tiles: map[int64]struct {
			ref      store.TileRef
			odd, evn []byte
		}{
			1: {ref: store.TileRef{ID: 1, MinX: 0, MinY: 0, MaxX: 64, MaxY: 64}, odd: odd, evn: even},
		},
		order: []store.TileRef{{ID: 1, MinX: 0, MinY: 0, MaxX: 64, MaxY: 64}},
	}}

	win := Window{MinX: 0, MinY: 0, MaxX: 64, MaxY: 64, Width: 64, Height: 64, HRes: 1, VRes: 1}
	r := NewReader(cs, 16)

	if _, err := r.Read("cov1", win, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Read("cov1", win, nil); err != nil {
		t.Fatal(err)
	}
	if cs.fetches != 1 {
		t.Fatalf("FetchBlobs called %d times, want 1 (second read should hit the decode cache)", cs.fetches)
	}
}
