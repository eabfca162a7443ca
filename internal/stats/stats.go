// Package stats implements Raster Statistics (spec §4.I/§6.3): per-band
// running moments and histograms accumulated over one or more tiles, with
// a merge operation so partial statistics computed over separate tiles
// recombine into coverage-wide totals.
package stats

import (
	"encoding/binary"
	"hash/crc32"
	"math"

	"github.com/rasterlite/rl2go/internal/raster"
)

const magic0, magic1 = 0x00, 0xf0

// bandStats holds one band's accumulated moments and histogram. mean/m2
// are Welford/Chan running moments, not raw sum/sum-of-squares: §6.3's
// wire format wants sum and sum-of-squares, but §8's "commutative and
// associative up to running-moment round-off (≤ 1 ULP per merge)" wording
// only makes sense if merge operates on moments, so sum/sumSq are derived
// at serialization time (Sum = mean*count, SumSq = m2 + count*mean^2).
type bandStats struct {
	count    uint64
	min, max float64
	mean, m2 float64
	bins     []uint64
	binLo    float64
	binHi    float64
}

// Stats accumulates per-band statistics for tiles of one fixed
// sample/pixel/band signature.
type Stats struct {
	Sample      raster.SampleKind
	Kind        raster.PixelKind
	Bands       int
	ValidCount  uint64
	NoDataCount uint64
	bands       []bandStats
}

// binCount returns the histogram bin count for sample, per spec §4.I.
func binCount(sample raster.SampleKind) int {
	switch sample {
	case raster.SampleBit1:
		return 2
	case raster.SampleBit2:
		return 4
	case raster.SampleBit4:
		return 16
	case raster.SampleUInt8, raster.SampleInt8:
		return 256
	default:
		return 1024
	}
}

// needsCallerRange reports whether sample's histogram binning needs a
// caller-specified [lo,hi) range (wide integer and floating kinds, per
// spec §4.I: "32-bit / float → 1024 with caller-specified range").
func needsCallerRange(sample raster.SampleKind) bool {
	switch sample {
	case raster.SampleUInt32, raster.SampleInt32, raster.SampleFloat32, raster.SampleFloat64:
		return true
	default:
		return false
	}
}

// New allocates a Stats for the given tile signature. binLo/binHi are
// only consulted (and must be binLo < binHi) for sample kinds whose
// histogram needs a caller-specified range.
func New(sample raster.SampleKind, kind raster.PixelKind, bands int, binLo, binHi float64) (*Stats, error) {
	const op = "stats.New"
	if _, err := raster.NewPixel(sample, kind, bands); err != nil {
		return nil, err
	}
	if needsCallerRange(sample) && binLo >= binHi {
		return nil, raster.NewError(op, raster.KindInvalidArgument, "histogram range [%g,%g) is empty or inverted for sample kind %s", binLo, binHi, sample)
	}

	bs := make([]bandStats, bands)
	n := binCount(sample)
	lo, hi := binLo, binHi
	if !needsCallerRange(sample) {
		lo, hi = 0, float64(sample.MaxValue())+1
	}
	for b := range bs {
		bs[b] = bandStats{
			min: math.Inf(1), max: math.Inf(-1),
			bins: make([]uint64, n), binLo: lo, binHi: hi,
		}
	}
	return &Stats{Sample: sample, Kind: kind, Bands: bands, bands: bs}, nil
}

// Accumulate folds every pixel of tile into s: counts, min/max, running
// moments and histogram bin per band (spec §4.I). Pixels matching the
// tile's no-data value (if any) are counted in NoDataCount and excluded
// from every band statistic, never binned or folded into the moments.
func (s *Stats) Accumulate(tile *raster.Tile) error {
	const op = "Accumulate"
	if tile.Sample != s.Sample || tile.Kind != s.Kind || tile.Bands != s.Bands {
		return raster.NewError(op, raster.KindMismatch, "tile (%s,%s,%d) does not match stats (%s,%s,%d)", tile.Sample, tile.Kind, tile.Bands, s.Sample, s.Kind, s.Bands)
	}

	var px raster.Pixel
	px, err := raster.NewPixel(s.Sample, s.Kind, s.Bands)
	if err != nil {
		return err
	}

	for row := 0; row < tile.Height; row++ {
		for col := 0; col < tile.Width; col++ {
			if err := tile.GetPixel(row, col, &px); err != nil {
				return err
			}
			if tile.NoData != nil && pixelEqual(&px, tile.NoData) {
				s.NoDataCount++
				continue
			}
			s.ValidCount++
			for b := 0; b < s.Bands; b++ {
				s.bands[b].accumulate(px.AsFloat(b))
			}
		}
	}
	return nil
}

func pixelEqual(a, b *raster.Pixel) bool {
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

// accumulate folds one sample value into the band's moments, min/max and
// histogram (Welford's online algorithm, the single-sample case of Chan's
// parallel update used by merge below).
func (b *bandStats) accumulate(v float64) {
	b.count++
	delta := v - b.mean
	b.mean += delta / float64(b.count)
	delta2 := v - b.mean
	b.m2 += delta * delta2

	if v < b.min {
		b.min = v
	}
	if v > b.max {
		b.max = v
	}

	if len(b.bins) > 0 && b.binHi > b.binLo {
		idx := int((v - b.binLo) / (b.binHi - b.binLo) * float64(len(b.bins)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(b.bins) {
			idx = len(b.bins) - 1
		}
		b.bins[idx]++
	}
}

// Merge combines other's counts, extrema, histograms and moments into s
// (spec §4.I). Both Stats must share the same sample/pixel/band signature
// and histogram ranges.
func (s *Stats) Merge(other *Stats) error {
	const op = "Merge"
	if other.Sample != s.Sample || other.Kind != s.Kind || other.Bands != s.Bands {
		return raster.NewError(op, raster.KindMismatch, "stats (%s,%s,%d) do not match (%s,%s,%d)", other.Sample, other.Kind, other.Bands, s.Sample, s.Kind, s.Bands)
	}
	s.ValidCount += other.ValidCount
	s.NoDataCount += other.NoDataCount
	for b := range s.bands {
		if len(other.bands[b].bins) != len(s.bands[b].bins) {
			return raster.NewError(op, raster.KindMismatch, "band %d histogram bin count %d does not match %d", b, len(other.bands[b].bins), len(s.bands[b].bins))
		}
		s.bands[b].merge(&other.bands[b])
	}
	return nil
}

// merge combines two independently accumulated band groups via Chan's
// parallel-update formula for combining mean/M2 pairs.
func (a *bandStats) merge(b *bandStats) {
	if b.count == 0 {
		return
	}
	if a.count == 0 {
		*a = bandStats{count: b.count, min: b.min, max: b.max, mean: b.mean, m2: b.m2, bins: a.bins, binLo: a.binLo, binHi: a.binHi}
		for i, c := range b.bins {
			a.bins[i] += c
		}
		return
	}

	n := a.count + b.count
	delta := b.mean - a.mean
	mean := a.mean + delta*float64(b.count)/float64(n)
	m2 := a.m2 + b.m2 + delta*delta*float64(a.count)*float64(b.count)/float64(n)

	a.count = n
	a.mean = mean
	a.m2 = m2
	if b.min < a.min {
		a.min = b.min
	}
	if b.max > a.max {
		a.max = b.max
	}
	for i, c := range b.bins {
		a.bins[i] += c
	}
}

// Sum and SumOfSquares are derived from the internal mean/M2
// representation at read time (spec §6.3 wants raw sum/sum-of-squares on
// the wire; see the bandStats doc comment for why the internal
// representation differs).
func (b *bandStats) sum() float64 { return b.mean * float64(b.count) }
func (b *bandStats) sumSq() float64 {
	return b.m2 + float64(b.count)*b.mean*b.mean
}

// Band returns a read-only snapshot of band b's statistics.
type Band struct {
	Count          uint64
	Min, Max       float64
	Sum, SumOfSq   float64
	Bins           []uint64
}

func (s *Stats) Band(b int) Band {
	bs := &s.bands[b]
	bins := make([]uint64, len(bs.bins))
	copy(bins, bs.bins)
	return Band{Count: bs.count, Min: bs.min, Max: bs.max, Sum: bs.sum(), SumOfSq: bs.sumSq(), Bins: bins}
}

// Serialize writes s in the wire format of spec §6.3: magic 0x00,0xf0;
// sample kind; pixel kind; band count; valid-pixel count; no-data count;
// per band (min, max, sum, sum-of-squares, bin count, bins); CRC32 trailer.
func (s *Stats) Serialize() []byte {
	size := 2 + 1 + 1 + 1 + 8 + 8
	for b := range s.bands {
		size += 8*4 + 4 + 8*len(s.bands[b].bins)
	}
	size += 4

	buf := make([]byte, size)
	buf[0], buf[1] = magic0, magic1
	buf[2] = byte(s.Sample)
	buf[3] = byte(s.Kind)
	buf[4] = byte(s.Bands)
	binary.BigEndian.PutUint64(buf[5:13], s.ValidCount)
	binary.BigEndian.PutUint64(buf[13:21], s.NoDataCount)

	off := 21
	for b := range s.bands {
		bs := &s.bands[b]
		binary.BigEndian.PutUint64(buf[off:off+8], math.Float64bits(bs.min))
		binary.BigEndian.PutUint64(buf[off+8:off+16], math.Float64bits(bs.max))
		binary.BigEndian.PutUint64(buf[off+16:off+24], math.Float64bits(bs.sum()))
		binary.BigEndian.PutUint64(buf[off+24:off+32], math.Float64bits(bs.sumSq()))
		off += 32
		binary.BigEndian.PutUint32(buf[off:off+4], uint32(len(bs.bins)))
		off += 4
		for _, c := range bs.bins {
			binary.BigEndian.PutUint64(buf[off:off+8], c)
			off += 8
		}
	}

	crc := crc32.ChecksumIEEE(buf[:off])
	binary.BigEndian.PutUint32(buf[off:off+4], crc)
	return buf
}

// Deserialize parses the wire format Serialize produces. The returned
// Stats' histogram range fields (binLo/binHi) are not recoverable from the
// wire format and are left zero, so a later Accumulate into a
// deserialized Stats updates the count and moments but adds nothing to
// the histogram bins.
func Deserialize(buf []byte) (*Stats, error) {
	const op = "Deserialize"
	if len(buf) < 21+4 {
		return nil, raster.NewError(op, raster.KindCorruptBlob, "buffer too short: %d bytes", len(buf))
	}
	if buf[0] != magic0 || buf[1] != magic1 {
		return nil, raster.NewError(op, raster.KindCorruptBlob, "bad magic %02x%02x", buf[0], buf[1])
	}

	crc := binary.BigEndian.Uint32(buf[len(buf)-4:])
	want := crc32.ChecksumIEEE(buf[:len(buf)-4])
	if crc != want {
		return nil, raster.NewError(op, raster.KindCorruptBlob, "CRC mismatch: got %08x want %08x", crc, want)
	}

	sample := raster.SampleKind(buf[2])
	kind := raster.PixelKind(buf[3])
	bands := int(buf[4])
	validCount := binary.BigEndian.Uint64(buf[5:13])
	noDataCount := binary.BigEndian.Uint64(buf[13:21])

	s := &Stats{Sample: sample, Kind: kind, Bands: bands, ValidCount: validCount, NoDataCount: noDataCount, bands: make([]bandStats, bands)}

	off := 21
	for b := 0; b < bands; b++ {
		if off+32+4 > len(buf) {
			return nil, raster.NewError(op, raster.KindCorruptBlob, "truncated band %d header", b)
		}
		min := math.Float64frombits(binary.BigEndian.Uint64(buf[off : off+8]))
		max := math.Float64frombits(binary.BigEndian.Uint64(buf[off+8 : off+16]))
		sum := math.Float64frombits(binary.BigEndian.Uint64(buf[off+16 : off+24]))
		sumSq := math.Float64frombits(binary.BigEndian.Uint64(buf[off+24 : off+32]))
		off += 32
		nbins := int(binary.BigEndian.Uint32(buf[off : off+4]))
		off += 4
		if off+8*nbins > len(buf) {
			return nil, raster.NewError(op, raster.KindCorruptBlob, "truncated band %d histogram", b)
		}
		bins := make([]uint64, nbins)
		for i := range bins {
			bins[i] = binary.BigEndian.Uint64(buf[off : off+8])
			off += 8
		}

		var mean, m2 float64
		validForBand := validCount // per-band valid count is not separately recorded; reconstruct moments assuming the coverage-wide valid count applies uniformly to every band, which holds for every accumulation path in this package (Accumulate always updates every band together)
		if validForBand > 0 {
			mean = sum / float64(validForBand)
			m2 = sumSq - sum*sum/float64(validForBand)
		}
		s.bands[b] = bandStats{count: validForBand, min: min, max: max, mean: mean, m2: m2, bins: bins}
	}
	return s, nil
}
