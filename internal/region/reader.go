// Package region implements the Region Reader (spec §4.H): the pipeline
// that resolves a pyramid level, looks up intersecting tiles in the
// external store, decodes and composites them into one destination buffer.
package region

import (
	"log"
	"sync"
	"time"

	"github.com/rasterlite/rl2go/internal/codec"
	"github.com/rasterlite/rl2go/internal/pyramid"
	"github.com/rasterlite/rl2go/internal/raster"
	"github.com/rasterlite/rl2go/internal/store"
)

// Window is a target geographic window plus the destination pixel grid
// and requested resolution that the reconstruction pipeline fills.
type Window struct {
	MinX, MinY, MaxX, MaxY float64
	Width, Height          int
	HRes, VRes             float64
}

// Reader runs repeated region reads (spec §4.H) against one store,
// reusing a decode cache across calls so overlapping or repeated window
// requests don't refetch and redecode the same tiles.
type Reader struct {
	store store.Store
	cache *TileCache
}

// NewReader wraps st with a decode cache holding at most cacheSize
// decoded tiles (0 uses TileCache's own default).
func NewReader(st store.Store, cacheSize int) *Reader {
	return &Reader{store: st, cache: NewTileCache(cacheSize)}
}

// Read runs the Region Reader pipeline using r's decode cache.
func (r *Reader) Read(coverage string, win Window, palOverride *raster.Palette) (*raster.Tile, error) {
	return read(r.store, coverage, win, palOverride, r.cache)
}

// Read runs the five-step pipeline of spec §4.H against st for coverage,
// returning a Tile of win.Width x win.Height pixels. palOverride is passed
// to every tile decode; for a Palette-kind coverage it also becomes the
// output Tile's palette, and only when it is nil is the first decoded
// tile's embedded palette used instead. This is the cache-less convenience
// entry point for one-shot callers; use NewReader for repeated reads
// against the same store.
func Read(st store.Store, coverage string, win Window, palOverride *raster.Palette) (*raster.Tile, error) {
	return read(st, coverage, win, palOverride, nil)
}

func read(st store.Store, coverage string, win Window, palOverride *raster.Palette, cache *TileCache) (*raster.Tile, error) {
	const op = "Read"

	meta, err := st.CoverageMeta(coverage)
	if err != nil {
		return nil, err
	}

	level, scale, err := pyramid.Resolve(meta.BaseHRes, meta.MaxLevel, win.HRes)
	if err != nil {
		return nil, err
	}

	refs, err := st.TilesInBounds(coverage, level, win.MinX, win.MinY, win.MaxX, win.MaxY)
	if err != nil {
		return nil, err
	}

	decoded := fetchAndDecode(st, coverage, refs, scale, palOverride, cache)

	dst, err := newDestination(coverage, meta, win, decoded, palOverride)
	if err != nil {
		return nil, err
	}

	composited := 0
	for i, ref := range refs {
		tile := decoded[i]
		if tile == nil {
			continue // per-tile decode failure already logged in fetchAndDecode
		}
		compositeTile(dst, tile, ref, win)
		composited++
	}

	if composited == 0 && len(refs) > 0 {
		return nil, raster.NewError(op, raster.KindNoMatch, "all %d intersecting tiles failed to decode", len(refs))
	}
	if len(refs) == 0 {
		return nil, raster.NewError(op, raster.KindNoMatch, "no tiles intersect the requested window")
	}

	return dst, nil
}

// fetchAndDecode fetches and decodes every ref concurrently, returning a
// slice aligned with refs (nil entries mark tiles that failed to fetch or
// decode — spec §4.H's failure model: log and continue, never abort).
// cache may be nil, in which case every tile is freshly fetched+decoded.
func fetchAndDecode(st store.Store, coverage string, refs []store.TileRef, scale int, pal *raster.Palette, cache *TileCache) []*raster.Tile {
	out := make([]*raster.Tile, len(refs))
	var wg sync.WaitGroup
	for i, ref := range refs {
		wg.Add(1)
		go func(i int, ref store.TileRef) {
			defer wg.Done()
			if cache != nil {
				if tile, ok := cache.get(coverage, ref.ID, scale); ok {
					tileCacheHits.Inc()
					out[i] = tile
					return
				}
				tileCacheMisses.Inc()
			}

			odd, even, err := st.FetchBlobs(coverage, ref.ID)
			if err != nil {
				log.Printf("region: fetch tile %d: %v", ref.ID, err)
				return
			}
			start := time.Now()
			tile, err := codec.Decode(odd, even, scale, pal)
			tileDecodeSeconds.Observe(time.Since(start).Seconds())
			if err != nil {
				log.Printf("region: decode tile %d: %v", ref.ID, err)
				return
			}
			if cache != nil {
				cache.put(coverage, ref.ID, scale, tile)
			}
			out[i] = tile
		}(i, ref)
	}
	wg.Wait()
	return out
}

// newDestination allocates the output tile, pre-filled with the
// coverage's no-data value (zero if none), and resolves the output
// palette for Palette-kind coverages.
func newDestination(coverage string, meta store.CoverageMeta, win Window, decoded []*raster.Tile, palOverride *raster.Palette) (*raster.Tile, error) {
	const op = "newDestination"
	bps := meta.Sample.BytesPerSample()
	buf := make([]byte, win.Width*win.Height*meta.Bands*bps)

	var pal *raster.Palette
	if meta.Kind == raster.Palette {
		pal = palOverride
		if pal == nil {
			for _, t := range decoded {
				if t != nil && t.Palette != nil {
					pal = t.Palette
					break
				}
			}
		}
		if pal == nil {
			return nil, raster.NewError(op, raster.KindPaletteRequired, "palette-kind coverage %q region read needs a palette", coverage)
		}
	}

	dst, err := raster.NewTile(win.Width, win.Height, meta.Sample, meta.Kind, meta.Bands, buf, pal, nil, meta.NoData, nil)
	if err != nil {
		return nil, err
	}

	if meta.NoData != nil {
		fillNoData(dst, meta.NoData)
	}
	return dst, nil
}

func fillNoData(dst *raster.Tile, nodata *raster.Pixel) {
	for row := 0; row < dst.Height; row++ {
		for col := 0; col < dst.Width; col++ {
			_ = dst.SetPixel(row, col, *nodata)
		}
	}
}

// compositeTile blends one decoded source tile into dst, per spec §4.H
// step 4: transparent source pixels and no-data source pixels leave the
// destination untouched, everything else replaces it. Callers apply tiles
// in ascending tile-id order (the order TilesInBounds already returns
// them in), so later tiles win on overlap.
func compositeTile(dst, src *raster.Tile, ref store.TileRef, win Window) {
	tileHRes := (ref.MaxX - ref.MinX) / float64(src.Width)
	tileVRes := (ref.MaxY - ref.MinY) / float64(src.Height)
	if tileHRes <= 0 || tileVRes <= 0 {
		return
	}

	ix0 := max64(win.MinX, ref.MinX)
	iy0 := max64(win.MinY, ref.MinY)
	ix1 := min64(win.MaxX, ref.MaxX)
	iy1 := min64(win.MaxY, ref.MaxY)
	if ix0 >= ix1 || iy0 >= iy1 {
		return
	}

	destHRes := (win.MaxX - win.MinX) / float64(win.Width)
	destVRes := (win.MaxY - win.MinY) / float64(win.Height)

	dstCol0 := clampInt(int((ix0-win.MinX)/destHRes), 0, win.Width)
	dstCol1 := clampInt(int((ix1-win.MinX)/destHRes+0.999999), 0, win.Width)
	dstRow0 := clampInt(int((win.MaxY-iy1)/destVRes), 0, win.Height)
	dstRow1 := clampInt(int((win.MaxY-iy0)/destVRes+0.999999), 0, win.Height)

	var srcPixel raster.Pixel
	srcPixel, _ = raster.NewPixel(src.Sample, src.Kind, src.Bands)

	for dstRow := dstRow0; dstRow < dstRow1; dstRow++ {
		y := win.MaxY - (float64(dstRow)+0.5)*destVRes
		srcRow := int((ref.MaxY - y) / tileVRes)
		if srcRow < 0 || srcRow >= src.Height {
			continue
		}
		for dstCol := dstCol0; dstCol < dstCol1; dstCol++ {
			x := win.MinX + (float64(dstCol)+0.5)*destHRes
			srcCol := int((x - ref.MinX) / tileHRes)
			if srcCol < 0 || srcCol >= src.Width {
				continue
			}
			if err := src.GetPixel(srcRow, srcCol, &srcPixel); err != nil {
				continue
			}
			if srcPixel.IsTransparent() {
				continue
			}
			if src.NoData != nil && samplesEqual(&srcPixel, src.NoData) {
				continue
			}
			_ = dst.SetPixel(dstRow, dstCol, srcPixel)
		}
	}
}

func samplesEqual(a, b *raster.Pixel) bool {
	if a.Bands != b.Bands {
		return false
	}
	for band := 0; band < a.Bands; band++ {
		if a.RawSample(band) != b.RawSample(band) {
			return false
		}
	}
	return true
}

func max64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
